package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

// PageHandler serves the guarded page endpoints. The frontend renders
// them; the server's job is the JSON summary behind each dashboard and
// the redirect semantics enforced by the page guard mounted above
// these routes.
type PageHandler struct {
	paperService   *services.PaperService
	paymentService *services.PaymentService
	userService    *services.UserService
}

func NewPageHandler(
	paperService *services.PaperService,
	paymentService *services.PaymentService,
	userService *services.UserService,
) *PageHandler {
	return &PageHandler{
		paperService:   paperService,
		paymentService: paymentService,
		userService:    userService,
	}
}

// PageRouter registers the page routes. The guard has already run:
// requests arriving here carry a principal (except the reverse-gated
// login/signup pages).
func PageRouter(r chi.Router, handler *PageHandler) {
	r.Get("/dashboard", handler.Dashboard)
	r.Get("/admin", handler.AdminHome)
	r.Get("/reviewers/dashboard", handler.ReviewerDashboard)
	r.Get("/authors/dashboard", handler.AuthorDashboard)
	r.Get("/login", handler.PublicPage)
	r.Get("/signup", handler.PublicPage)
}

// DashboardResponse is the per-role landing summary.
type DashboardResponse struct {
	User     types.User      `json:"user"`
	Papers   []types.Paper   `json:"papers,omitempty"`
	Payments []types.Payment `json:"payments,omitempty"`
	Pending  int             `json:"pending,omitempty"`
}

// Dashboard redirects to the caller's role home.
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, principal.Role.HomePath(), http.StatusSeeOther)
}

func (h *PageHandler) AdminHome(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	_, pendingPayments, err := h.paymentService.List(r.Context(), types.StatusPending, 0, 1)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, DashboardResponse{User: user, Pending: pendingPayments})
}

func (h *PageHandler) ReviewerDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	papers, pending, err := h.paperService.List(r.Context(), types.StatusPending, 0, defaultLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, DashboardResponse{User: user, Papers: papers, Pending: pending})
}

func (h *PageHandler) AuthorDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}

	papers, err := h.paperService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	payments, err := h.paymentService.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}

	writeJSON(w, http.StatusOK, DashboardResponse{User: user, Papers: papers, Payments: payments})
}

// PublicPage acknowledges the reverse-gated pages; the guard has
// already bounced authenticated visitors to their role home.
func (h *PageHandler) PublicPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MessageResponse{Message: "ok"})
}

func (h *PageHandler) currentUser(w http.ResponseWriter, r *http.Request) (types.User, bool) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return types.User{}, false
	}

	user, err := h.userService.GetByID(r.Context(), principal.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return types.User{}, false
		}
		writeError(w, http.StatusServiceUnavailable, "service unavailable")
		return types.User{}, false
	}
	return user, true
}
