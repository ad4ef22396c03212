// Package client implements the story backend contract over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.uber.org/zap"

	"storycanvas/application/ports"
	"storycanvas/domain/core/aggregates"
	"storycanvas/domain/core/entities"
	pkgerrors "storycanvas/pkg/errors"
)

// BreakerSettings configures the circuit breaker around backend calls
type BreakerSettings struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerSettings trips after five consecutive failures
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// HTTPBackend talks to the REST API. Only transport failures and 5xx answers
// count against the breaker; 4xx answers are domain outcomes.
type HTTPBackend struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

var _ ports.StoryBackend = (*HTTPBackend)(nil)

// NewHTTPBackend creates a client for the API rooted at baseURL
func NewHTTPBackend(baseURL string, httpClient *http.Client, settings BreakerSettings, logger *zap.Logger) *HTTPBackend {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	threshold := settings.FailureThreshold
	if threshold == 0 {
		threshold = DefaultBreakerSettings().FailureThreshold
	}

	b := &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    httpClient,
		logger:  logger,
	}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "story-backend",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			appErr := pkgerrors.GetAppError(err)
			return appErr != nil && appErr.HTTPStatus >= 400 && appErr.HTTPStatus < 500
		},
	})
	return b
}

// State reports the breaker state
func (b *HTTPBackend) State() gobreaker.State {
	return b.breaker.State()
}

func segment(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = url.PathEscape(p)
	}
	return "/" + strings.Join(escaped, "/")
}

func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out interface{}) error {
	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, b.roundTrip(ctx, method, path, body, out)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return pkgerrors.NewUnavailableError("story backend", err)
	default:
		return err
	}
}

func (b *HTTPBackend) roundTrip(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return pkgerrors.NewInternalError("failed to encode request").WithCause(err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return pkgerrors.NewInternalError("failed to build request").WithCause(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := b.http.Do(req)
	if err != nil {
		return pkgerrors.NewNetworkError(fmt.Sprintf("%s %s", method, path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return pkgerrors.NewNetworkError("failed to decode response", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		body.Message = strings.TrimSpace(string(data))
		if body.Message == "" {
			body.Message = http.StatusText(resp.StatusCode)
		}
	}
	return pkgerrors.FromStatus(resp.StatusCode, body.Message)
}

// Projects

func (b *HTTPBackend) CreateProject(ctx context.Context, title string) (*aggregates.Project, error) {
	var p aggregates.Project
	if err := b.do(ctx, http.MethodPost, "/projects", map[string]string{"title": title}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *HTTPBackend) GetProject(ctx context.Context, projectID string) (*aggregates.Project, error) {
	var p aggregates.Project
	if err := b.do(ctx, http.MethodGet, segment("projects", projectID), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ProjectSummary mirrors one entry of the project list
type ProjectSummary struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Status       string `json:"status"`
	PlotPoints   int    `json:"plotPoints"`
	LastModified string `json:"lastModified"`
	Version      int    `json:"version"`
}

// ListProjects returns the project summaries
func (b *HTTPBackend) ListProjects(ctx context.Context) ([]ProjectSummary, error) {
	var out struct {
		Projects []ProjectSummary `json:"projects"`
	}
	if err := b.do(ctx, http.MethodGet, "/projects", nil, &out); err != nil {
		return nil, err
	}
	return out.Projects, nil
}

func (b *HTTPBackend) UpdateProject(ctx context.Context, projectID string, meta ports.ProjectMeta) error {
	return b.do(ctx, http.MethodPut, segment("projects", projectID), meta, nil)
}

func (b *HTTPBackend) UpdateProjectView(ctx context.Context, projectID string, view ports.ProjectView) error {
	return b.do(ctx, http.MethodPatch, segment("projects", projectID, "view"), view, nil)
}

// Acts

func (b *HTTPBackend) CreateAct(ctx context.Context, projectID string, act entities.Act) (entities.Act, error) {
	var out entities.Act
	err := b.do(ctx, http.MethodPost, segment("projects", projectID, "acts"), act, &out)
	return out, err
}

func (b *HTTPBackend) UpdateAct(ctx context.Context, projectID string, act entities.Act) error {
	return b.do(ctx, http.MethodPut, segment("projects", projectID, "acts", act.ID), act, nil)
}

func (b *HTTPBackend) DeleteAct(ctx context.Context, projectID, actID string) error {
	return b.do(ctx, http.MethodDelete, segment("projects", projectID, "acts", actID), nil, nil)
}

// Characters

func (b *HTTPBackend) CreateCharacter(ctx context.Context, projectID string, c entities.Character) (entities.Character, error) {
	var out entities.Character
	err := b.do(ctx, http.MethodPost, segment("projects", projectID, "characters"), c, &out)
	return out, err
}

func (b *HTTPBackend) UpdateCharacter(ctx context.Context, projectID string, c entities.Character) error {
	return b.do(ctx, http.MethodPut, segment("projects", projectID, "characters", c.ID), c, nil)
}

func (b *HTTPBackend) DeleteCharacter(ctx context.Context, projectID, characterID string) error {
	return b.do(ctx, http.MethodDelete, segment("projects", projectID, "characters", characterID), nil, nil)
}

// Plot points

func (b *HTTPBackend) CreatePlotPoint(ctx context.Context, projectID, actID string, pp entities.PlotPoint) (entities.PlotPoint, error) {
	var out entities.PlotPoint
	err := b.do(ctx, http.MethodPost, segment("projects", projectID, "acts", actID, "plot-points"), pp, &out)
	return out, err
}

func (b *HTTPBackend) UpdatePlotPoint(ctx context.Context, projectID, actID string, pp entities.PlotPoint) error {
	return b.do(ctx, http.MethodPut, segment("projects", projectID, "acts", actID, "plot-points", pp.ID), pp, nil)
}

func (b *HTTPBackend) DeletePlotPoint(ctx context.Context, projectID, actID, plotPointID string) error {
	return b.do(ctx, http.MethodDelete, segment("projects", projectID, "acts", actID, "plot-points", plotPointID), nil, nil)
}

// Scenes

func (b *HTTPBackend) CreateScene(ctx context.Context, projectID, actID, plotPointID string, s entities.Scene) (entities.Scene, error) {
	var out entities.Scene
	err := b.do(ctx, http.MethodPost,
		segment("projects", projectID, "acts", actID, "plot-points", plotPointID, "scenes"), s, &out)
	return out, err
}

func (b *HTTPBackend) UpdateScene(ctx context.Context, projectID, actID, plotPointID string, s entities.Scene) error {
	return b.do(ctx, http.MethodPut,
		segment("projects", projectID, "acts", actID, "plot-points", plotPointID, "scenes", s.ID), s, nil)
}

func (b *HTTPBackend) DeleteScene(ctx context.Context, projectID, actID, plotPointID, sceneID string) error {
	return b.do(ctx, http.MethodDelete,
		segment("projects", projectID, "acts", actID, "plot-points", plotPointID, "scenes", sceneID), nil, nil)
}
