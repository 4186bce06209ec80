package handler

import (
	"net/http"

	"tributes/internal/message"
	"tributes/internal/repository"
)

type MediaHandler struct {
	Repo     *repository.Repository
	MaxBytes int64
}

func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes+(1<<20))
	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file required", http.StatusBadRequest)
		return
	}
	defer f.Close()
	if hdr.Size > h.MaxBytes {
		http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
		return
	}

	ct := hdr.Header.Get("Content-Type")
	url, err := h.Repo.UploadMedia(r.Context(), message.Upload{
		Filename:    hdr.Filename,
		ContentType: ct,
		Size:        hdr.Size,
		Body:        f,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"url":  url,
		"type": message.MediaTypeOf(ct),
	})
}
