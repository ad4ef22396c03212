package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"storycanvas/interfaces/http/rest/middleware"
	pkgerrors "storycanvas/pkg/errors"
	"storycanvas/pkg/validation"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error   bool                   `json:"error"`
	Type    string                 `json:"type,omitempty"`
	Message string                 `json:"message"`
	Code    int                    `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type responder struct {
	logger    *zap.Logger
	validator *validation.Validator
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (h responder) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := pkgerrors.StatusCode(err)
	body := ErrorResponse{Error: true, Message: err.Error(), Code: status}
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		body.Type = string(appErr.Type)
		body.Message = appErr.Message
		body.Details = appErr.Details
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(r.Context(), h.logger).Error("request failed", zap.Int("status", status), zap.Error(err))
	}
	h.respondJSON(w, status, body)
}

// decode reads a JSON body and validates it
func (h responder) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		h.respondError(w, r, pkgerrors.NewValidationError("invalid request body: "+err.Error()))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.respondError(w, r, err)
		return false
	}
	return true
}
