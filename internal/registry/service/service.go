package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	registrymetrics "vprove/internal/registry/metrics"
	"vprove/internal/registry/models"
	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
	"vprove/pkg/platform/audit"
)

// Store persists registry records, the shared name index, the fee accounting,
// and the credentials minted alongside registrations. Compound ops validate
// and commit atomically so a rejection leaves no partial state.
type Store interface {
	// CreatePerson atomically checks account and name uniqueness, allocates
	// the next credential id, mints the credential to the account, records
	// the person, and accrues the payment.
	CreatePerson(ctx context.Context, account id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, error)
	// CreateCompany does the same for a business registration: the credential
	// is minted to the creator while the record points at the directory.
	CreateCompany(ctx context.Context, creator id.AccountID, company id.DirectoryID, name, metadataRef string, paid id.Amount) (id.CredentialID, error)
	FindPerson(ctx context.Context, account id.AccountID) (*models.PersonRecord, error)
	FindCompany(ctx context.Context, creator id.AccountID, company id.DirectoryID) (*models.CompanyRecord, error)
	// NameOwner returns the account bound to a name, or the null account.
	NameOwner(ctx context.Context, name string) (id.AccountID, error)
	RegistrationFee(ctx context.Context) (id.Amount, error)
	SetRegistrationFee(ctx context.Context, fee id.Amount) error
	CollectedTotal(ctx context.Context) (id.Amount, error)
}

// DirectoryFactory spawns and initializes a tenant directory in one step.
type DirectoryFactory interface {
	Spawn(ctx context.Context, name string, admin id.AccountID) (id.DirectoryID, error)
}

// AuditPublisher receives the registry's domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// NameCache is an optional read-through cache for name lookups.
type NameCache interface {
	Get(ctx context.Context, name string) (id.AccountID, bool)
	Set(ctx context.Context, name string, owner id.AccountID)
}

// Service orchestrates individual and business registration.
type Service struct {
	store      Store
	factory    DirectoryFactory
	controller id.AccountID
	tx         StoreTx
	logger     *slog.Logger
	publisher  AuditPublisher
	metrics    *registrymetrics.Metrics
	nameCache  NameCache
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

func WithMetrics(m *registrymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithNameCache(c NameCache) Option {
	return func(s *Service) {
		s.nameCache = c
	}
}

// WithStoreTx replaces the default in-memory transaction boundary, e.g. with
// a database transaction adapter.
func WithStoreTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// New builds the registry service. controller is the only account allowed to
// change the registration fee.
func New(store Store, factory DirectoryFactory, controller id.AccountID, opts ...Option) *Service {
	s := &Service{
		store:      store,
		factory:    factory,
		controller: controller,
		tx:         newInMemoryStoreTx(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterIndividual mints a credential for the caller under a globally
// unique name. The full payment is retained, overpayment included.
func (s *Service) RegisterIndividual(ctx context.Context, caller id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, error) {
	start := time.Now()
	if caller.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "caller account is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, dErrors.New(dErrors.CodeValidation, "name must not be blank")
	}

	var credID id.CredentialID
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkFee(ctx, paid); err != nil {
			return err
		}
		var err error
		credID, err = s.store.CreatePerson(ctx, caller, name, metadataRef, paid)
		if err != nil {
			return translateRegistrationErr(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.cacheName(ctx, name, caller)
	if s.metrics != nil {
		s.metrics.IncrementIndividualsRegistered()
		s.metrics.AddFeesCollected(paid)
		s.metrics.ObserveRegistration(start)
	}
	s.emitAccountCreated(ctx, models.AccountCreated{Account: caller, ID: credID})
	s.logger.InfoContext(ctx, "individual registered",
		"account", caller,
		"credential_id", credID,
	)
	return credID, nil
}

// RegisterBusiness spawns a tenant directory administered by the caller and
// mints a second credential to the caller. No prior individual registration
// is required.
func (s *Service) RegisterBusiness(ctx context.Context, caller id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, id.DirectoryID, error) {
	start := time.Now()
	if caller.IsNil() {
		return 0, id.DirectoryID{}, dErrors.New(dErrors.CodeBadRequest, "caller account is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, id.DirectoryID{}, dErrors.New(dErrors.CodeValidation, "name must not be blank")
	}

	var (
		credID  id.CredentialID
		company id.DirectoryID
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.checkFee(ctx, paid); err != nil {
			return err
		}
		// Check the name before spawning so a taken name never leaves an
		// orphaned directory behind on the in-memory stores. The store's
		// compound commit re-checks under the same serialization.
		owner, err := s.store.NameOwner(ctx, name)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check name")
		}
		if !owner.IsNil() {
			return dErrors.New(dErrors.CodeConflict, "name already taken")
		}

		company, err = s.factory.Spawn(ctx, name, caller)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to spawn directory")
		}

		credID, err = s.store.CreateCompany(ctx, caller, company, name, metadataRef, paid)
		if err != nil {
			return translateRegistrationErr(err)
		}
		return nil
	})
	if err != nil {
		return 0, id.DirectoryID{}, err
	}

	s.cacheName(ctx, name, caller)
	if s.metrics != nil {
		s.metrics.IncrementBusinessesRegistered()
		s.metrics.AddFeesCollected(paid)
		s.metrics.ObserveRegistration(start)
	}
	s.emitCompanyCreated(ctx, models.CompanyCreated{Creator: caller, Company: company, ID: credID})
	s.logger.InfoContext(ctx, "business registered",
		"creator", caller,
		"company", company,
		"credential_id", credID,
	)
	return credID, company, nil
}

// SetRegistrationFee updates the fee. Controller only; zero is a valid fee.
func (s *Service) SetRegistrationFee(ctx context.Context, caller id.AccountID, fee id.Amount) error {
	if caller != s.controller || s.controller.IsNil() {
		return dErrors.New(dErrors.CodeForbidden, "caller is not the registry controller")
	}
	if err := s.store.SetRegistrationFee(ctx, fee); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update registration fee")
	}
	s.emit(ctx, audit.Event{
		Action: string(audit.EventFeeUpdated),
		Actor:  caller,
	})
	s.logger.InfoContext(ctx, "registration fee updated", "fee", fee, "controller", caller)
	return nil
}

// RegistrationFee returns the current fee.
func (s *Service) RegistrationFee(ctx context.Context) (id.Amount, error) {
	fee, err := s.store.RegistrationFee(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration fee")
	}
	return fee, nil
}

// CollectedTotal returns the monotonically non-decreasing sum of payments.
func (s *Service) CollectedTotal(ctx context.Context) (id.Amount, error) {
	total, err := s.store.CollectedTotal(ctx)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read collected total")
	}
	return total, nil
}

// LookupNameOwner returns the account bound to a name, or the null account.
// It never fails on an unbound name.
func (s *Service) LookupNameOwner(ctx context.Context, name string) (id.AccountID, error) {
	if s.nameCache != nil {
		if owner, ok := s.nameCache.Get(ctx, name); ok {
			return owner, nil
		}
	}
	owner, err := s.store.NameOwner(ctx, name)
	if err != nil {
		return id.AccountID{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up name")
	}
	if !owner.IsNil() {
		s.cacheName(ctx, name, owner)
	}
	return owner, nil
}

// Person returns the caller's registration record.
func (s *Service) Person(ctx context.Context, account id.AccountID) (*models.PersonRecord, error) {
	rec, err := s.store.FindPerson(ctx, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load person record")
	}
	return rec, nil
}

// Company returns a business registration record by its natural key.
func (s *Service) Company(ctx context.Context, creator id.AccountID, company id.DirectoryID) (*models.CompanyRecord, error) {
	rec, err := s.store.FindCompany(ctx, creator, company)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "company is not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company record")
	}
	return rec, nil
}

func (s *Service) checkFee(ctx context.Context, paid id.Amount) error {
	fee, err := s.store.RegistrationFee(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to read registration fee")
	}
	if paid < fee {
		return dErrors.New(dErrors.CodePaymentRequired, "payment below registration fee")
	}
	return nil
}

func (s *Service) cacheName(ctx context.Context, name string, owner id.AccountID) {
	if s.nameCache != nil {
		s.nameCache.Set(ctx, name, owner)
	}
}

func (s *Service) emitAccountCreated(ctx context.Context, event models.AccountCreated) {
	s.emit(ctx, audit.Event{
		Action:     string(audit.EventAccountCreated),
		Actor:      event.Account,
		Account:    event.Account,
		Credential: event.ID,
	})
}

func (s *Service) emitCompanyCreated(ctx context.Context, event models.CompanyCreated) {
	s.emit(ctx, audit.Event{
		Action:     string(audit.EventCompanyCreated),
		Actor:      event.Creator,
		Directory:  event.Company,
		Credential: event.ID,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"error", err,
			"action", event.Action,
		)
	}
}

func translateRegistrationErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrAlreadyRegistered):
		return dErrors.Wrap(err, dErrors.CodeConflict, "account has already been registered")
	case errors.Is(err, sentinel.ErrNameTaken):
		return dErrors.Wrap(err, dErrors.CodeConflict, "name already taken")
	case errors.Is(err, sentinel.ErrDuplicateCredential):
		return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "credential id already minted")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}
}
