package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"storycanvas/domain/core/entities"
	"storycanvas/pkg/validation"
)

// ActRequest is the body of act create and update calls
type ActRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Order       int    `json:"order" validate:"min=0"`
}

// CharacterRequest is the body of character create and update calls
type CharacterRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Color       string `json:"color" validate:"max=32"`
}

// ActHandler handles act and character requests
type ActHandler struct {
	responder
	service ProjectService
}

// NewActHandler creates a new act handler
func NewActHandler(service ProjectService, logger *zap.Logger) *ActHandler {
	return &ActHandler{
		responder: responder{logger: logger, validator: validation.Default()},
		service:   service,
	}
}

func (req ActRequest) act(id string) entities.Act {
	return entities.Act{ID: id, Name: req.Name, Description: req.Description, Order: req.Order}
}

func (req CharacterRequest) character(id string) entities.Character {
	return entities.Character{ID: id, Name: req.Name, Description: req.Description, Color: req.Color}
}

// CreateAct handles POST /projects/{projectID}/acts
func (h *ActHandler) CreateAct(w http.ResponseWriter, r *http.Request) {
	var req ActRequest
	if !h.decode(w, r, &req) {
		return
	}
	act, err := h.service.CreateAct(r.Context(), chi.URLParam(r, "projectID"), req.act(""))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, act)
}

// UpdateAct handles PUT /projects/{projectID}/acts/{actID}
func (h *ActHandler) UpdateAct(w http.ResponseWriter, r *http.Request) {
	var req ActRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.service.UpdateAct(r.Context(), chi.URLParam(r, "projectID"), req.act(chi.URLParam(r, "actID")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAct handles DELETE /projects/{projectID}/acts/{actID}
func (h *ActHandler) DeleteAct(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteAct(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "actID")); err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CreateCharacter handles POST /projects/{projectID}/characters
func (h *ActHandler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	var req CharacterRequest
	if !h.decode(w, r, &req) {
		return
	}
	c, err := h.service.CreateCharacter(r.Context(), chi.URLParam(r, "projectID"), req.character(""))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, c)
}

// UpdateCharacter handles PUT /projects/{projectID}/characters/{characterID}
func (h *ActHandler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	var req CharacterRequest
	if !h.decode(w, r, &req) {
		return
	}
	err := h.service.UpdateCharacter(r.Context(), chi.URLParam(r, "projectID"), req.character(chi.URLParam(r, "characterID")))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCharacter handles DELETE /projects/{projectID}/characters/{characterID}
func (h *ActHandler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteCharacter(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "characterID"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
