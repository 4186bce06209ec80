package handler

import (
	"encoding/json"
	"net/http"

	"tributes/internal/board"
	"tributes/internal/message"

	"github.com/go-chi/chi/v5"
)

type MessageHandler struct {
	Board *board.Board
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	f, err := board.ParseFilter(r.URL.Query().Get("category"))
	if err != nil {
		http.Error(w, "invalid category", http.StatusBadRequest)
		return
	}

	// reads degrade to whatever the board already holds
	if err := h.Board.Load(r.Context()); err != nil {
		logError(r, "board_load_failed", err)
	}

	writeJSON(w, http.StatusOK, h.Board.View(f))
}

func (h *MessageHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req message.Draft
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	m, err := h.Board.Post(r.Context(), req, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req message.Patch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	m, err := h.Board.Edit(r.Context(), id, req, nil)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := h.Board.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		// missing and not-yours look the same
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MessageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	// other writers share the backend; count what it holds now
	if err := h.Board.Load(r.Context()); err != nil {
		logError(r, "board_load_failed", err)
	}
	writeJSON(w, http.StatusOK, h.Board.Stats())
}
