package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openconf/apiserver/internal/services"
)

// ContentHandler serves the public read-only content consumed by the
// marketing pages. No authentication required.
type ContentHandler struct {
	contentService *services.ContentService
}

func NewContentHandler(contentService *services.ContentService) *ContentHandler {
	return &ContentHandler{contentService: contentService}
}

// ContentRouter registers the public content routes.
func ContentRouter(r chi.Router, handler *ContentHandler) {
	r.Get("/committees", handler.ListCommittee)
	r.Get("/speakers", handler.ListSpeakers)
	r.Get("/events", handler.ListEvents)
	r.Get("/settings", handler.ListSettings)
}

func (h *ContentHandler) ListCommittee(w http.ResponseWriter, r *http.Request) {
	members, err := h.contentService.ListCommittee(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list committee")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *ContentHandler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.contentService.ListSpeakers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list speakers")
		return
	}
	writeJSON(w, http.StatusOK, speakers)
}

func (h *ContentHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.contentService.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *ContentHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.contentService.ListSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}
