package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

// AdminHandler provides the admin CRUD surface: committees, speakers,
// events, settings, users, and the audit log.
type AdminHandler struct {
	contentService *services.ContentService
	userService    *services.UserService
	auditService   *services.AuditService
}

// NewAdminHandler constructs a handler with the provided services.
func NewAdminHandler(
	contentService *services.ContentService,
	userService *services.UserService,
	auditService *services.AuditService,
) *AdminHandler {
	return &AdminHandler{
		contentService: contentService,
		userService:    userService,
		auditService:   auditService,
	}
}

// AdminRouter registers all admin routes. Everything here requires the
// admin role, re-verified against the store on each request.
func AdminRouter(r chi.Router, handler *AdminHandler, guard *Guard) {
	r.Use(guard.RequireAuth, guard.RequireRole(types.RoleAdmin))

	r.Route("/committees", func(r chi.Router) {
		r.Get("/", handler.ListCommittee)
		r.Post("/", handler.CreateCommitteeMember)
		r.Put("/{memberID}", handler.UpdateCommitteeMember)
		r.Delete("/{memberID}", handler.DeleteCommitteeMember)
	})
	r.Route("/speakers", func(r chi.Router) {
		r.Get("/", handler.ListSpeakers)
		r.Post("/", handler.CreateSpeaker)
		r.Put("/{speakerID}", handler.UpdateSpeaker)
		r.Delete("/{speakerID}", handler.DeleteSpeaker)
	})
	r.Route("/events", func(r chi.Router) {
		r.Get("/", handler.ListEvents)
		r.Post("/", handler.CreateEvent)
		r.Put("/{eventID}", handler.UpdateEvent)
		r.Delete("/{eventID}", handler.DeleteEvent)
	})
	r.Route("/settings", func(r chi.Router) {
		r.Get("/", handler.ListSettings)
		r.Put("/{key}", handler.UpsertSetting)
	})
	r.Route("/users", func(r chi.Router) {
		r.Get("/", handler.ListUsers)
		r.Put("/{userID}/role", handler.UpdateUserRole)
		r.Delete("/{userID}", handler.DeleteUser)
	})
	r.Get("/audit", handler.ListAudit)
}

// UserListResponse is the paginated user list payload.
type UserListResponse struct {
	Items []types.User `json:"items"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Total int          `json:"total"`
}

type RoleUpdateRequest struct {
	Role string `json:"role"`
}

type SettingUpdateRequest struct {
	Value string `json:"value"`
}

func (h *AdminHandler) ListCommittee(w http.ResponseWriter, r *http.Request) {
	members, err := h.contentService.ListCommittee(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list committee")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *AdminHandler) CreateCommitteeMember(w http.ResponseWriter, r *http.Request) {
	var member types.CommitteeMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(member.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.contentService.CreateCommitteeMember(r.Context(), member)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create committee member")
		return
	}

	h.audit(r, "committee.create", "committee_member", strconv.Itoa(created.ID), created.Name)
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) UpdateCommitteeMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "memberID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var member types.CommitteeMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	member.ID = id

	updated, err := h.contentService.UpdateCommitteeMember(r.Context(), member)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "committee member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update committee member")
		return
	}

	h.audit(r, "committee.update", "committee_member", strconv.Itoa(id), updated.Name)
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) DeleteCommitteeMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "memberID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contentService.DeleteCommitteeMember(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "committee member not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete committee member")
		return
	}

	h.audit(r, "committee.delete", "committee_member", strconv.Itoa(id), "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListSpeakers(w http.ResponseWriter, r *http.Request) {
	speakers, err := h.contentService.ListSpeakers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list speakers")
		return
	}
	writeJSON(w, http.StatusOK, speakers)
}

func (h *AdminHandler) CreateSpeaker(w http.ResponseWriter, r *http.Request) {
	var speaker types.Speaker
	if err := json.NewDecoder(r.Body).Decode(&speaker); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(speaker.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.contentService.CreateSpeaker(r.Context(), speaker)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create speaker")
		return
	}

	h.audit(r, "speaker.create", "speaker", strconv.Itoa(created.ID), created.Name)
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) UpdateSpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "speakerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var speaker types.Speaker
	if err := json.NewDecoder(r.Body).Decode(&speaker); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	speaker.ID = id

	updated, err := h.contentService.UpdateSpeaker(r.Context(), speaker)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "speaker not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update speaker")
		return
	}

	h.audit(r, "speaker.update", "speaker", strconv.Itoa(id), updated.Name)
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) DeleteSpeaker(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "speakerID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contentService.DeleteSpeaker(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "speaker not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete speaker")
		return
	}

	h.audit(r, "speaker.delete", "speaker", strconv.Itoa(id), "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.contentService.ListEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *AdminHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event types.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(event.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !event.EndsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		writeError(w, http.StatusBadRequest, "event ends before it starts")
		return
	}

	created, err := h.contentService.CreateEvent(r.Context(), event)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	h.audit(r, "event.create", "event", strconv.Itoa(created.ID), created.Title)
	writeJSON(w, http.StatusCreated, created)
}

func (h *AdminHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var event types.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if strings.TrimSpace(event.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !event.EndsAt.IsZero() && event.EndsAt.Before(event.StartsAt) {
		writeError(w, http.StatusBadRequest, "event ends before it starts")
		return
	}
	event.ID = id

	updated, err := h.contentService.UpdateEvent(r.Context(), event)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update event")
		return
	}

	h.audit(r, "event.update", "event", strconv.Itoa(id), updated.Title)
	writeJSON(w, http.StatusOK, updated)
}

func (h *AdminHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "eventID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.contentService.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "event not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete event")
		return
	}

	h.audit(r, "event.delete", "event", strconv.Itoa(id), "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.contentService.ListSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (h *AdminHandler) UpsertSetting(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimSpace(chi.URLParam(r, "key"))
	if key == "" {
		writeError(w, http.StatusBadRequest, "invalid key")
		return
	}

	var req SettingUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	setting, err := h.contentService.UpsertSetting(r.Context(), key, req.Value)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update setting")
		return
	}

	h.audit(r, "setting.update", "setting", key, req.Value)
	writeJSON(w, http.StatusOK, setting)
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	users, total, err := h.userService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UserListResponse{
		Items: users,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req RoleUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	role, err := types.ParseRole(req.Role)
	if err != nil || role == types.RoleGuest {
		writeError(w, http.StatusBadRequest, "invalid role")
		return
	}

	if err := h.userService.UpdateRole(r.Context(), id, role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update role")
		return
	}

	h.audit(r, "user.role", "user", strconv.Itoa(id), string(role))
	writeJSON(w, http.StatusOK, MessageResponse{Message: "role updated"})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if id == principal.UserID {
		writeError(w, http.StatusBadRequest, "cannot delete your own account")
		return
	}

	if err := h.userService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	h.audit(r, "user.delete", "user", strconv.Itoa(id), "")
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := defaultLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}

	entries, err := h.auditService.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list audit log")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *AdminHandler) audit(r *http.Request, action, entityType, entityID, details string) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		return
	}
	h.auditService.Record(r.Context(), principal.UserID, action, entityType, entityID, details)
}
