package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

const (
	maxReceiptBytes    = 16 << 20
	formFieldReference = "reference"
	formFieldAmount    = "amount_cents"
	formFieldReceipt   = "receipt"
)

// PaymentHandler provides HTTP handlers for payment proofs.
type PaymentHandler struct {
	paymentService *services.PaymentService
	notifications  *services.NotificationService
	auditService   *services.AuditService
	userService    *services.UserService
}

// NewPaymentHandler constructs a handler with the provided services.
func NewPaymentHandler(
	paymentService *services.PaymentService,
	notifications *services.NotificationService,
	auditService *services.AuditService,
	userService *services.UserService,
) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		notifications:  notifications,
		auditService:   auditService,
		userService:    userService,
	}
}

// PaymentRouter registers payment routes on the given router.
func PaymentRouter(r chi.Router, handler *PaymentHandler, guard *Guard) {
	r.Use(guard.RequireAuth)

	r.With(guard.RequireRole(types.RoleAuthor, types.RoleReviewer)).Post("/", handler.SubmitPayment)
	r.Get("/mine", handler.ListMyPayments)
	r.With(guard.RequireRole(types.RoleAdmin)).Get("/", handler.ListPayments)
	r.Route("/{paymentID}", func(r chi.Router) {
		r.Get("/", handler.GetPayment)
		r.Get("/receipt", handler.DownloadReceipt)
		r.With(guard.RequireRole(types.RoleAdmin)).Post("/verify", handler.VerifyPayment)
	})
}

// PaymentListResponse is the paginated list response payload.
type PaymentListResponse struct {
	Items []types.Payment `json:"items"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
	Total int             `json:"total"`
}

func (h *PaymentHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	reference := strings.TrimSpace(r.FormValue(formFieldReference))
	if reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	amountCents, err := strconv.ParseInt(strings.TrimSpace(r.FormValue(formFieldAmount)), 10, 64)
	if err != nil || amountCents <= 0 {
		writeError(w, http.StatusBadRequest, "invalid amount")
		return
	}

	receiptName, data, err := parseUploadedFile(r.MultipartForm, formFieldReceipt, maxReceiptBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	payment, err := h.paymentService.Submit(r.Context(), principal.UserID, reference, amountCents, receiptName, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit payment")
		return
	}

	writeJSON(w, http.StatusCreated, payment)
}

func (h *PaymentHandler) ListMyPayments(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	payments, err := h.paymentService.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}

	writeJSON(w, http.StatusOK, payments)
}

func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && status != types.StatusPending && status != types.StatusApproved && status != types.StatusRejected {
		writeError(w, http.StatusBadRequest, "invalid status filter")
		return
	}

	items, total, err := h.paymentService.List(r.Context(), status, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}

	writeJSON(w, http.StatusOK, PaymentListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	payment, ok := h.loadAccessiblePayment(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func (h *PaymentHandler) DownloadReceipt(w http.ResponseWriter, r *http.Request) {
	payment, ok := h.loadAccessiblePayment(w, r)
	if !ok {
		return
	}

	reader, err := h.paymentService.OpenReceipt(r.Context(), payment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open receipt")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", payment.ReceiptName))
	_, _ = io.Copy(w, reader)
}

func (h *PaymentHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Status != types.StatusApproved && req.Status != types.StatusRejected {
		writeError(w, http.StatusBadRequest, "status must be approved or rejected")
		return
	}

	payment, err := h.paymentService.Verify(r.Context(), id, req.Status, req.Note, principal.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "payment not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "payment already verified")
		default:
			writeError(w, http.StatusInternalServerError, "failed to verify payment")
		}
		return
	}

	h.auditService.Record(r.Context(), principal.UserID, "payment."+req.Status, "payment", strconv.Itoa(payment.ID), req.Note)

	if payer, err := h.userService.GetByID(r.Context(), payment.UserID); err == nil {
		h.notifications.Publish(r.Context(), services.Notification{
			Kind:      services.NotifyPaymentDecision,
			Email:     payer.Email,
			FullName:  payer.FullName,
			Reference: payment.Reference,
			Status:    payment.Status,
		})
	}

	writeJSON(w, http.StatusOK, payment)
}

// loadAccessiblePayment fetches the payment and enforces the read
// rule: the owner or any admin.
func (h *PaymentHandler) loadAccessiblePayment(w http.ResponseWriter, r *http.Request) (types.Payment, bool) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Payment{}, false
	}

	id, err := parseIDParam(r, "paymentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Payment{}, false
	}

	payment, err := h.paymentService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "payment not found")
			return types.Payment{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch payment")
		return types.Payment{}, false
	}

	if payment.UserID == principal.UserID {
		return payment, true
	}

	user, err := h.userService.GetByID(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Payment{}, false
	}
	if user.Role != types.RoleAdmin {
		writeError(w, http.StatusForbidden, "insufficient role")
		return types.Payment{}, false
	}
	return payment, true
}
