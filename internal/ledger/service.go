package ledger

import (
	"context"
	"errors"
	"log/slog"

	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
)

// Service enforces the ownership and approval rules over a Store.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mint records a freshly issued credential. The id must come from the
// registry's counter; a collision means the counter is corrupted and is
// surfaced as an invariant violation.
func (s *Service) Mint(ctx context.Context, to id.AccountID, credID id.CredentialID, metadataRef string) error {
	if to.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "cannot mint to the null account")
	}
	err := s.store.InsertCredential(ctx, &Credential{ID: credID, Owner: to, MetadataRef: metadataRef})
	if err != nil {
		if errors.Is(err, sentinel.ErrDuplicateCredential) {
			s.logger.ErrorContext(ctx, "credential id collision", "credential_id", credID)
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "credential id already minted")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mint credential")
	}
	return nil
}

// OwnerOf returns the owner of a minted credential.
func (s *Service) OwnerOf(ctx context.Context, credID id.CredentialID) (id.AccountID, error) {
	cred, err := s.find(ctx, credID)
	if err != nil {
		return id.AccountID{}, err
	}
	return cred.Owner, nil
}

// Credential returns the full credential record, metadata reference included.
func (s *Service) Credential(ctx context.Context, credID id.CredentialID) (*Credential, error) {
	return s.find(ctx, credID)
}

// BalanceOf counts the credentials held by an account. The null account is
// not a valid query target.
func (s *Service) BalanceOf(ctx context.Context, account id.AccountID) (int, error) {
	if account.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "balance query for the null account")
	}
	count, err := s.store.CredentialCount(ctx, account)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count credentials")
	}
	return count, nil
}

// Approve sets the single-credential transfer delegate. Only the owner, or a
// blanket operator for the owner, may set it.
func (s *Service) Approve(ctx context.Context, caller, delegate id.AccountID, credID id.CredentialID) error {
	cred, err := s.find(ctx, credID)
	if err != nil {
		return err
	}
	authorized, err := s.ownerOrOperator(ctx, cred.Owner, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return dErrors.New(dErrors.CodeForbidden, "caller may not approve this credential")
	}
	cred.Approved = delegate
	if err := s.store.UpdateCredential(ctx, cred); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record approval")
	}
	return nil
}

// GetApproved returns the single-credential delegate, or the null account.
func (s *Service) GetApproved(ctx context.Context, credID id.CredentialID) (id.AccountID, error) {
	cred, err := s.find(ctx, credID)
	if err != nil {
		return id.AccountID{}, err
	}
	return cred.Approved, nil
}

// SetApprovalForAll records a blanket delegate flag for all of the caller's
// credentials, present and future. It is not cleared by transfers.
func (s *Service) SetApprovalForAll(ctx context.Context, caller, delegate id.AccountID, approved bool) error {
	if delegate.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "delegate is required")
	}
	if err := s.store.SetOperator(ctx, caller, delegate, approved); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record operator approval")
	}
	return nil
}

// IsApprovedForAll reports whether delegate is a blanket operator for owner.
func (s *Service) IsApprovedForAll(ctx context.Context, owner, delegate id.AccountID) (bool, error) {
	approved, err := s.store.IsOperator(ctx, owner, delegate)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operator approval")
	}
	return approved, nil
}

// Transfer reassigns ownership. The caller must be the owner, the credential's
// delegate, or a blanket operator for the owner. The single-credential
// approval is cleared on success; operator flags are untouched.
func (s *Service) Transfer(ctx context.Context, caller, to id.AccountID, credID id.CredentialID) error {
	if to.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "cannot transfer to the null account")
	}
	cred, err := s.find(ctx, credID)
	if err != nil {
		return err
	}
	authorized, err := s.ownerOrOperator(ctx, cred.Owner, caller)
	if err != nil {
		return err
	}
	if !authorized && cred.Approved != caller {
		return dErrors.New(dErrors.CodeForbidden, "caller may not transfer this credential")
	}
	cred.Owner = to
	cred.Approved = id.AccountID{}
	if err := s.store.UpdateCredential(ctx, cred); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to transfer credential")
	}
	return nil
}

func (s *Service) find(ctx context.Context, credID id.CredentialID) (*Credential, error) {
	cred, err := s.store.FindCredential(ctx, credID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "credential does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load credential")
	}
	return cred, nil
}

func (s *Service) ownerOrOperator(ctx context.Context, owner, caller id.AccountID) (bool, error) {
	if caller == owner {
		return true, nil
	}
	operator, err := s.store.IsOperator(ctx, owner, caller)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read operator approval")
	}
	return operator, nil
}
