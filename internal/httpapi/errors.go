package httpapi

import (
	"errors"
	"net/http"

	"github.com/dusk-indust/flowchart/internal/export"
	"github.com/dusk-indust/flowchart/internal/flow"
	"github.com/dusk-indust/flowchart/internal/service"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Line  int    `json:"line,omitempty"`
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	var syn *flow.SyntaxError
	var depth *flow.DepthError
	switch {
	case errors.As(err, &syn):
		return http.StatusBadRequest
	case errors.As(err, &depth):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, service.ErrUnsupportedLanguage):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, export.ErrUnknownFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrNoStore):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	body := errorResponse{Error: err.Error()}

	var syn *flow.SyntaxError
	if errors.As(err, &syn) {
		body.Error = syn.Error()
		body.Line = syn.Line
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request error", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	export.WriteJSON(w, v, false)
}
