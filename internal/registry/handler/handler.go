package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vprove/internal/platform/middleware"
	"vprove/internal/registry/models"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
	"vprove/pkg/platform/httputil"
)

// Service defines the registry operations the HTTP layer depends on.
// Returns domain objects, not HTTP response DTOs.
type Service interface {
	RegisterIndividual(ctx context.Context, caller id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, error)
	RegisterBusiness(ctx context.Context, caller id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, id.DirectoryID, error)
	SetRegistrationFee(ctx context.Context, caller id.AccountID, fee id.Amount) error
	RegistrationFee(ctx context.Context) (id.Amount, error)
	CollectedTotal(ctx context.Context) (id.Amount, error)
	LookupNameOwner(ctx context.Context, name string) (id.AccountID, error)
	Person(ctx context.Context, account id.AccountID) (*models.PersonRecord, error)
	Company(ctx context.Context, creator id.AccountID, company id.DirectoryID) (*models.CompanyRecord, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts every registry route on r. Production wiring mounts the
// reads and mutations separately so the latter sit behind authentication.
func (h *Handler) Register(r chi.Router) {
	h.RegisterReads(r)
	h.RegisterMutations(r)
}

func (h *Handler) RegisterReads(r chi.Router) {
	r.Get("/registry/fee", h.HandleGetFee)
	r.Get("/registry/collected", h.HandleGetCollected)
	r.Get("/registry/names/{name}", h.HandleLookupName)
	r.Get("/registry/persons/{account}", h.HandleGetPerson)
	r.Get("/registry/companies/{creator}/{company}", h.HandleGetCompany)
}

func (h *Handler) RegisterMutations(r chi.Router) {
	r.Post("/registry/individuals", h.HandleRegisterIndividual)
	r.Post("/registry/businesses", h.HandleRegisterBusiness)
	r.Put("/registry/fee", h.HandleSetFee)
}

// HandleRegisterIndividual registers the caller under a unique name and
// mints their credential.
func (h *Handler) HandleRegisterIndividual(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterIndividualRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	credID, err := h.service.RegisterIndividual(ctx, caller, req.Name, req.MetadataRef, id.Amount(req.PaidAmount))
	if err != nil {
		h.logger.ErrorContext(ctx, "register individual failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &RegistrationResponse{
		CredentialID: uint64(credID),
	})
}

// HandleRegisterBusiness registers the caller's business, mints the
// credential to the caller, and returns the spawned directory address.
func (h *Handler) HandleRegisterBusiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterBusinessRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	credID, dirID, err := h.service.RegisterBusiness(ctx, caller, req.Name, req.MetadataRef, id.Amount(req.PaidAmount))
	if err != nil {
		h.logger.ErrorContext(ctx, "register business failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, &BusinessRegistrationResponse{
		CredentialID:   uint64(credID),
		CompanyAddress: dirID.String(),
	})
}

// HandleSetFee updates the registration fee. Controller only.
func (h *Handler) HandleSetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	caller := middleware.GetAccount(ctx)

	req, ok := httputil.DecodeAndPrepare[SetFeeRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.SetRegistrationFee(ctx, caller, id.Amount(req.Fee)); err != nil {
		h.logger.ErrorContext(ctx, "set registration fee failed", "error", err, "request_id", requestID)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &FeeResponse{Fee: req.Fee})
}

func (h *Handler) HandleGetFee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	fee, err := h.service.RegistrationFee(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &FeeResponse{Fee: uint64(fee)})
}

func (h *Handler) HandleGetCollected(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := h.service.CollectedTotal(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, &CollectedResponse{Collected: uint64(total)})
}

// HandleLookupName resolves a name to its owning account. Unbound names
// resolve to the null account rather than an error.
func (h *Handler) HandleLookupName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	owner, err := h.service.LookupNameOwner(ctx, name)
	if err != nil {
		h.logger.ErrorContext(ctx, "name lookup failed", "error", err, "name", name)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &NameOwnerResponse{Account: owner.String()})
}

func (h *Handler) HandleGetPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	account, err := id.ParseAccountID(chi.URLParam(r, "account"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid account id"))
		return
	}

	rec, err := h.service.Person(ctx, account)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(rec))
}

func (h *Handler) HandleGetCompany(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	creator, err := id.ParseAccountID(chi.URLParam(r, "creator"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid creator account id"))
		return
	}
	company, err := id.ParseDirectoryID(chi.URLParam(r, "company"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid company address"))
		return
	}

	rec, err := h.service.Company(ctx, creator, company)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, toCompanyResponse(rec))
}
