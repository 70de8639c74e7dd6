package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vprove/internal/directory/models"
	"vprove/internal/platform/middleware"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
	"vprove/pkg/platform/httputil"
)

// Service defines the directory operations the HTTP layer depends on.
type Service interface {
	RegisterMember(ctx context.Context, dirID id.DirectoryID, caller, account id.AccountID, role string) (id.MemberID, error)
	RemoveMember(ctx context.Context, dirID id.DirectoryID, caller, account id.AccountID) error
	UpdateRole(ctx context.Context, dirID id.DirectoryID, caller, account id.AccountID, role string) error
	Directory(ctx context.Context, dirID id.DirectoryID) (*models.Directory, error)
	Member(ctx context.Context, dirID id.DirectoryID, account id.AccountID) (models.MemberRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts every directory route on r. Production wiring mounts the
// reads and mutations separately so the latter sit behind authentication.
func (h *Handler) Register(r chi.Router) {
	h.RegisterReads(r)
	h.RegisterMutations(r)
}

func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/directories/{id}", h.HandleGetDirectory)
	r.Get("/directories/{id}/members/{account}", h.HandleGetMember)
}

func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/directories/{id}/members", h.HandleRegisterMember)
	r.Delete("/directories/{id}/members/{account}", h.HandleRemoveMember)
	r.Put("/directories/{id}/members/{account}/role", h.HandleUpdateRole)
}

// HandleRegisterMember adds an account to the directory roster. Admin only.
func (h *Handler) HandleRegisterMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	dirID, ok := parseDirectoryID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegisterMemberRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(req.Account)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member account id"))
		return
	}

	memberID, err := h.service.RegisterMember(ctx, dirID, caller, account, req.Role)
	if err != nil {
		h.logger.ErrorContext(ctx, "register member failed", "error", err, "request_id", requestID, "directory", dirID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &MemberCreatedResponse{MemberID: uint64(memberID)})
}

// HandleRemoveMember removes an account from the roster. Admin only.
func (h *Handler) HandleRemoveMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	dirID, ok := parseDirectoryID(w, r)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member account id"))
		return
	}

	if err := h.service.RemoveMember(ctx, dirID, caller, account); err != nil {
		h.logger.ErrorContext(ctx, "remove member failed", "error", err, "request_id", requestID, "directory", dirID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateRole overwrites a live member's role. Admin only.
func (h *Handler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	dirID, ok := parseDirectoryID(w, r)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member account id"))
		return
	}
	req, ok := httputil.DecodeAndPrepare[UpdateRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.UpdateRole(ctx, dirID, caller, account, req.Role); err != nil {
		h.logger.ErrorContext(ctx, "update role failed", "error", err, "request_id", requestID, "directory", dirID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetDirectory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dirID, ok := parseDirectoryID(w, r)
	if !ok {
		return
	}

	dir, err := h.service.Directory(ctx, dirID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toDirectoryResponse(dir))
}

// HandleGetMember returns the roster entry for an account. Absent members
// yield the zero entry with member_id 0.
func (h *Handler) HandleGetMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	dirID, ok := parseDirectoryID(w, r)
	if !ok {
		return
	}
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid member account id"))
		return
	}

	rec, err := h.service.Member(ctx, dirID, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &MemberResponse{
		Account:  rec.Account.String(),
		Role:     rec.Role,
		MemberID: uint64(rec.ID),
	})
}

func parseDirectoryID(w http.ResponseWriter, r *http.Request) (id.DirectoryID, bool) {
	dirID, err := id.ParseDirectoryID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid directory id"))
		return id.DirectoryID{}, false
	}
	return dirID, true
}
