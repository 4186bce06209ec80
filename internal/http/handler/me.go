package handler

import (
	"net/http"

	"tributes/internal/repository"
)

type MeHandler struct {
	Repo *repository.Repository
}

func (h *MeHandler) Me(w http.ResponseWriter, r *http.Request) {
	uid, err := h.Repo.UserID(r.Context())
	if err != nil {
		http.Error(w, "no identity", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"userId": uid,
		"mode":   h.Repo.Mode(),
	})
}
