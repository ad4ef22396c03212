package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storycanvas/domain/core/entities"
	"storycanvas/domain/core/valueobjects"
	"storycanvas/pkg/validation"
)

// PlotPointRequest is the body of plot point create and update calls. Scenes
// are managed through their own routes and are ignored here.
type PlotPointRequest struct {
	Title    string                `json:"title" validate:"max=200"`
	Position valueobjects.Position `json:"position"`
	Color    string                `json:"color" validate:"max=32"`
	Order    int                   `json:"order" validate:"min=0"`
}

// ItemRequest is one prop of a scene
type ItemRequest struct {
	ID          string `json:"id" validate:"max=64"`
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
}

// SceneRequest is the body of scene create and update calls
type SceneRequest struct {
	Title        string                 `json:"title" validate:"required,max=200"`
	Synopsis     string                 `json:"synopsis" validate:"max=10000"`
	CharacterIDs []string               `json:"characterIds" validate:"max=100,dive,required,notemp"`
	Setting      entities.Setting       `json:"setting"`
	Items        []ItemRequest          `json:"items" validate:"max=100,dive"`
	Position     *valueobjects.Position `json:"position,omitempty"`
}

// PlotPointHandler handles plot point and scene requests
type PlotPointHandler struct {
	responder
	service ProjectService
}

// NewPlotPointHandler creates a new plot point handler
func NewPlotPointHandler(service ProjectService, logger *zap.Logger) *PlotPointHandler {
	return &PlotPointHandler{
		responder: responder{logger: logger, validator: validation.Default()},
		service:   service,
	}
}

func (req PlotPointRequest) plotPoint(id, actID string) entities.PlotPoint {
	return entities.PlotPoint{
		ID:       id,
		Title:    req.Title,
		Position: req.Position,
		Color:    req.Color,
		ActID:    actID,
		Order:    req.Order,
	}
}

func (req SceneRequest) scene(id string) entities.Scene {
	s := entities.Scene{
		ID:           id,
		Title:        req.Title,
		Synopsis:     req.Synopsis,
		CharacterIDs: append([]string{}, req.CharacterIDs...),
		Setting:      req.Setting,
		Items:        make([]entities.Item, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		if it.ID == "" {
			it.ID = valueobjects.NewID()
		}
		s.Items = append(s.Items, entities.Item{ID: it.ID, Name: it.Name, Description: it.Description})
	}
	if req.Position != nil {
		pos := *req.Position
		s.Position = &pos
	}
	return s
}

// CreatePlotPoint handles POST .../acts/{actID}/plot-points
func (h *PlotPointHandler) CreatePlotPoint(w http.ResponseWriter, r *http.Request) {
	var req PlotPointRequest
	if !h.decode(w, r, &req) {
		return
	}
	actID := chi.URLParam(r, "actID")
	pp, err := h.service.CreatePlotPoint(r.Context(), chi.URLParam(r, "projectID"), actID, req.plotPoint("", actID))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, pp)
}

// UpdatePlotPoint handles PUT .../acts/{actID}/plot-points/{plotPointID}
func (h *PlotPointHandler) UpdatePlotPoint(w http.ResponseWriter, r *http.Request) {
	var req PlotPointRequest
	if !h.decode(w, r, &req) {
		return
	}
	actID := chi.URLParam(r, "actID")
	pp := req.plotPoint(chi.URLParam(r, "plotPointID"), actID)
	if err := h.service.UpdatePlotPoint(r.Context(), chi.URLParam(r, "projectID"), actID, pp); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeletePlotPoint handles DELETE .../acts/{actID}/plot-points/{plotPointID}
func (h *PlotPointHandler) DeletePlotPoint(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeletePlotPoint(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "actID"), chi.URLParam(r, "plotPointID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateScene handles POST .../plot-points/{plotPointID}/scenes
func (h *PlotPointHandler) CreateScene(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !h.decode(w, r, &req) {
		return
	}
	s, err := h.service.CreateScene(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "actID"), chi.URLParam(r, "plotPointID"), req.scene(""))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, s)
}

// UpdateScene handles PUT .../scenes/{sceneID}
func (h *PlotPointHandler) UpdateScene(w http.ResponseWriter, r *http.Request) {
	var req SceneRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.service.UpdateScene(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "actID"), chi.URLParam(r, "plotPointID"),
		req.scene(chi.URLParam(r, "sceneID")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteScene handles DELETE .../scenes/{sceneID}
func (h *PlotPointHandler) DeleteScene(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteScene(r.Context(),
		chi.URLParam(r, "projectID"), chi.URLParam(r, "actID"), chi.URLParam(r, "plotPointID"), chi.URLParam(r, "sceneID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
