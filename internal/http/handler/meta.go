package handler

import (
	"net/http"

	"tributes/internal/message"
)

type categoryDTO struct {
	Name  message.Category `json:"name"`
	Color string           `json:"color"`
}

// Meta lists the fixed choices the authoring form offers.
func Meta(w http.ResponseWriter, r *http.Request) {
	cats := make([]categoryDTO, 0, len(message.Categories))
	for _, c := range message.Categories {
		cats = append(cats, categoryDTO{Name: c, Color: message.ColorFor(c)})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"categories":       cats,
		"principles":       message.Principles,
		"maxContentLength": message.MaxContentLength,
	})
}
