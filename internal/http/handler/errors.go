package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"tributes/internal/board"
	"tributes/internal/message"

	chimw "github.com/go-chi/chi/v5/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func logError(r *http.Request, msg string, err error) {
	slog.Error(msg, "request_id", chimw.GetReqID(r.Context()), "path", r.URL.Path, "error", err)
}

// writeError maps store failures to a status. Submit failures that are
// not the author's fault read "your post did not go through".
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ue *message.UploadError
	switch {
	case errors.Is(err, message.ErrInvalid):
		http.Error(w, detail(err), http.StatusBadRequest)
	case errors.Is(err, message.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, message.ErrNotConfigured):
		logError(r, "remote_not_configured", err)
		http.Error(w, board.ErrNotSaved.Error()+": backend not configured", http.StatusServiceUnavailable)
	case errors.As(err, &ue):
		logError(r, "upload_failed", err)
		http.Error(w, board.ErrNotSaved.Error()+": "+ue.Error(), http.StatusBadGateway)
	default:
		logError(r, "submit_failed", err)
		http.Error(w, board.ErrNotSaved.Error(), http.StatusInternalServerError)
	}
}

// detail returns the cause without the board prefix.
func detail(err error) string {
	if u, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range u.Unwrap() {
			if e != board.ErrNotSaved {
				return e.Error()
			}
		}
	}
	return err.Error()
}
