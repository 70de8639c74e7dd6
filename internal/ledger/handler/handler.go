package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vprove/internal/ledger"
	"vprove/internal/platform/middleware"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
	"vprove/pkg/platform/httputil"
)

// Service defines the credential ledger operations the HTTP layer depends on.
type Service interface {
	Credential(ctx context.Context, credID id.CredentialID) (*ledger.Credential, error)
	OwnerOf(ctx context.Context, credID id.CredentialID) (id.AccountID, error)
	BalanceOf(ctx context.Context, account id.AccountID) (int, error)
	Approve(ctx context.Context, caller, delegate id.AccountID, credID id.CredentialID) error
	GetApproved(ctx context.Context, credID id.CredentialID) (id.AccountID, error)
	SetApprovalForAll(ctx context.Context, caller, delegate id.AccountID, approved bool) error
	IsApprovedForAll(ctx context.Context, owner, delegate id.AccountID) (bool, error)
	Transfer(ctx context.Context, caller, to id.AccountID, credID id.CredentialID) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts every ledger route on r. Production wiring mounts the
// reads and mutations separately so the latter sit behind authentication.
func (h *Handler) Register(r chi.Router) {
	h.RegisterReads(r)
	h.RegisterMutations(r)
}

func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/credentials/{id}", h.HandleGetCredential)
	r.Get("/credentials/{id}/approved", h.HandleGetApproved)
	r.Get("/accounts/{account}/balance", h.HandleGetBalance)
	r.Get("/accounts/{account}/approvals/{delegate}", h.HandleGetOperatorApproval)
}

func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/credentials/{id}/approve", h.HandleApprove)
	r.Post("/credentials/{id}/transfer", h.HandleTransfer)
	r.Post("/accounts/approvals", h.HandleSetApprovalForAll)
}

// HandleGetCredential returns a credential's owner and metadata reference.
func (h *Handler) HandleGetCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	credID, ok := parseCredentialID(w, r)
	if !ok {
		return
	}

	cred, err := h.service.Credential(ctx, credID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &CredentialResponse{
		ID:          uint64(cred.ID),
		Owner:       cred.Owner.String(),
		MetadataRef: cred.MetadataRef,
	})
}

func (h *Handler) HandleGetApproved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	credID, ok := parseCredentialID(w, r)
	if !ok {
		return
	}

	delegate, err := h.service.GetApproved(ctx, credID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &ApprovedResponse{Delegate: delegate.String()})
}

// HandleApprove sets the single transfer delegate for a credential. The
// caller must own the credential or hold the owner's blanket approval.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	credID, ok := parseCredentialID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ApproveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	delegate, err := id.ParseAccountID(req.Delegate)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid delegate account id"))
		return
	}

	if err := h.service.Approve(ctx, caller, delegate, credID); err != nil {
		h.logger.ErrorContext(ctx, "approve failed", "error", err, "request_id", requestID, "credential_id", credID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleTransfer moves a credential to a new owner and clears any single
// delegate set on it.
func (h *Handler) HandleTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	credID, ok := parseCredentialID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[TransferRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	to, err := id.ParseAccountID(req.To)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid recipient account id"))
		return
	}

	if err := h.service.Transfer(ctx, caller, to, credID); err != nil {
		h.logger.ErrorContext(ctx, "transfer failed", "error", err, "request_id", requestID, "credential_id", credID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleGetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	balance, err := h.service.BalanceOf(ctx, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &BalanceResponse{
		Account: account.String(),
		Balance: balance,
	})
}

// HandleGetOperatorApproval reports whether delegate holds the owner's
// blanket operator approval.
func (h *Handler) HandleGetOperatorApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	owner, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid owner account id"))
		return
	}
	delegate, err := id.ParseAccountID(chi.URLParam(r, "delegate"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid delegate account id"))
		return
	}

	approved, err := h.service.IsApprovedForAll(ctx, owner, delegate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &OperatorApprovalResponse{
		Owner:    owner.String(),
		Delegate: delegate.String(),
		Approved: approved,
	})
}

// HandleSetApprovalForAll grants or revokes a blanket operator flag over all
// of the caller's credentials.
func (h *Handler) HandleSetApprovalForAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.DecodeAndPrepare[SetApprovalForAllRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	delegate, err := id.ParseAccountID(req.Delegate)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid delegate account id"))
		return
	}

	if err := h.service.SetApprovalForAll(ctx, caller, delegate, req.Approved); err != nil {
		h.logger.ErrorContext(ctx, "set approval for all failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseCredentialID(w http.ResponseWriter, r *http.Request) (id.CredentialID, bool) {
	raw := chi.URLParam(r, "id")
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid credential id"))
		return 0, false
	}
	return id.CredentialID(n), true
}
