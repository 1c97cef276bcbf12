package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/openconf/apiserver/internal/services"
	"github.com/openconf/apiserver/internal/store"
	"github.com/openconf/apiserver/types"
)

const (
	maxUploadMemory    = 32 << 20
	maxManuscriptBytes = 64 << 20
	formFieldTitle     = "title"
	formFieldAbstract  = "abstract"
	formFieldFile      = "file"
)

// PaperHandler provides HTTP handlers for paper submissions.
type PaperHandler struct {
	paperService  *services.PaperService
	notifications *services.NotificationService
	userService   *services.UserService
}

// NewPaperHandler constructs a handler with the provided services.
func NewPaperHandler(
	paperService *services.PaperService,
	notifications *services.NotificationService,
	userService *services.UserService,
) *PaperHandler {
	return &PaperHandler{
		paperService:  paperService,
		notifications: notifications,
		userService:   userService,
	}
}

// PaperRouter registers paper routes on the given router. Every route
// re-verifies the role against the store even though the page guard
// runs earlier; the two layers are independent on purpose.
func PaperRouter(r chi.Router, handler *PaperHandler, guard *Guard) {
	r.Use(guard.RequireAuth)

	r.With(guard.RequireRole(types.RoleAuthor, types.RoleReviewer)).Post("/", handler.SubmitPaper)
	r.Get("/mine", handler.ListMyPapers)
	r.With(guard.RequireRole(types.RoleReviewer, types.RoleAdmin)).Get("/", handler.ListPapers)
	r.Route("/{paperID}", func(r chi.Router) {
		r.Get("/", handler.GetPaper)
		r.Get("/file", handler.DownloadPaper)
		r.With(guard.RequireRole(types.RoleReviewer)).Post("/decision", handler.DecidePaper)
	})
}

// PaperListResponse is the paginated list response payload.
type PaperListResponse struct {
	Items []types.Paper `json:"items"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
	Total int           `json:"total"`
}

// DecisionRequest carries a reviewer or admin decision.
type DecisionRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *PaperHandler) SubmitPaper(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	title := strings.TrimSpace(r.FormValue(formFieldTitle))
	if title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	abstract := strings.TrimSpace(r.FormValue(formFieldAbstract))
	if abstract == "" {
		writeError(w, http.StatusBadRequest, "abstract is required")
		return
	}

	fileName, data, err := parseUploadedFile(r.MultipartForm, formFieldFile, maxManuscriptBytes)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	paper, err := h.paperService.Submit(r.Context(), principal.UserID, title, abstract, fileName, data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit paper")
		return
	}

	writeJSON(w, http.StatusCreated, paper)
}

func (h *PaperHandler) ListMyPapers(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	papers, err := h.paperService.ListByUser(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list papers")
		return
	}

	writeJSON(w, http.StatusOK, papers)
}

func (h *PaperHandler) ListPapers(w http.ResponseWriter, r *http.Request) {
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

	items, total, err := h.paperService.List(r.Context(), status, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list papers")
		return
	}

	writeJSON(w, http.StatusOK, PaperListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

func (h *PaperHandler) GetPaper(w http.ResponseWriter, r *http.Request) {
	paper, ok := h.loadAccessiblePaper(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, paper)
}

func (h *PaperHandler) DownloadPaper(w http.ResponseWriter, r *http.Request) {
	paper, ok := h.loadAccessiblePaper(w, r)
	if !ok {
		return
	}

	reader, err := h.paperService.OpenFile(r.Context(), paper)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to open file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", paper.FileName))
	_, _ = io.Copy(w, reader)
}

func (h *PaperHandler) DecidePaper(w http.ResponseWriter, r *http.Request) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := parseIDParam(r, "paperID")
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

	paper, err := h.paperService.Decide(r.Context(), id, req.Status, req.Note, principal.UserID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "paper not found")
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "paper already decided")
		default:
			writeError(w, http.StatusInternalServerError, "failed to record decision")
		}
		return
	}

	if author, err := h.userService.GetByID(r.Context(), paper.UserID); err == nil {
		h.notifications.Publish(r.Context(), services.Notification{
			Kind:     services.NotifyPaperDecision,
			Email:    author.Email,
			FullName: author.FullName,
			Subject:  paper.Title,
			Status:   paper.Status,
		})
	}

	writeJSON(w, http.StatusOK, paper)
}

// loadAccessiblePaper fetches the paper and enforces the read rule:
// the owner, any reviewer, or any admin.
func (h *PaperHandler) loadAccessiblePaper(w http.ResponseWriter, r *http.Request) (types.Paper, bool) {
	principal, err := principalFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Paper{}, false
	}

	id, err := parseIDParam(r, "paperID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return types.Paper{}, false
	}

	paper, err := h.paperService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "paper not found")
			return types.Paper{}, false
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch paper")
		return types.Paper{}, false
	}

	if paper.UserID == principal.UserID {
		return paper, true
	}

	user, err := h.userService.GetByID(r.Context(), principal.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return types.Paper{}, false
	}
	if user.Role != types.RoleReviewer && user.Role != types.RoleAdmin {
		writeError(w, http.StatusForbidden, "insufficient role")
		return types.Paper{}, false
	}
	return paper, true
}

func parseUploadedFile(form *multipart.Form, field string, limit int64) (string, []byte, error) {
	if form == nil {
		return "", nil, errors.New("missing form data")
	}

	files := form.File[field]
	if len(files) == 0 {
		return "", nil, errors.New(field + " is required")
	}
	if len(files) > 1 {
		return "", nil, errors.New("only one " + field + " is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", field, err)
	}

	data, err := readFileLimited(file, limit)
	_ = file.Close()
	if err != nil {
		return "", nil, err
	}

	return fileHeader.Filename, data, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
