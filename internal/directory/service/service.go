package service

import (
	"context"
	"errors"
	"log/slog"

	directorymetrics "vprove/internal/directory/metrics"
	"vprove/internal/directory/models"
	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
	"vprove/pkg/platform/audit"
)

// Store persists directories and their member rosters. Member mutations are
// atomic per directory: the per-directory id counter only advances when the
// member is actually recorded.
type Store interface {
	CreateDirectory(ctx context.Context, dir *models.Directory) error
	// InitializeDirectory flips the one-time initialization gate, setting
	// name and admin. Fails with ErrAlreadyInitialized on any later call.
	InitializeDirectory(ctx context.Context, dirID id.DirectoryID, name string, admin id.AccountID) error
	FindDirectory(ctx context.Context, dirID id.DirectoryID) (*models.Directory, error)
	// AddMember assigns the next directory-scoped id. Fails with
	// ErrAlreadyRegistered when the account holds a live record.
	AddMember(ctx context.Context, dirID id.DirectoryID, account id.AccountID, role string) (id.MemberID, error)
	// FindMember fails with ErrNotFound when the account has no live record.
	FindMember(ctx context.Context, dirID id.DirectoryID, account id.AccountID) (*models.MemberRecord, error)
	// RemoveMember resets the record to the absent sentinel and returns the
	// id it held immediately before removal.
	RemoveMember(ctx context.Context, dirID id.DirectoryID, account id.AccountID) (id.MemberID, error)
	UpdateMemberRole(ctx context.Context, dirID id.DirectoryID, account id.AccountID, role string) error
}

// AuditPublisher receives the directory's domain events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service enforces the single-admin mutation rules over directory rosters.
type Service struct {
	store     Store
	logger    *slog.Logger
	publisher AuditPublisher
	metrics   *directorymetrics.Metrics
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

func WithMetrics(m *directorymetrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) *Service {
	s := &Service{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize sets a directory's name and admin, exactly once.
func (s *Service) Initialize(ctx context.Context, dirID id.DirectoryID, name string, admin id.AccountID) error {
	if admin.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "admin account is required")
	}
	err := s.store.InitializeDirectory(ctx, dirID, name, admin)
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrAlreadyInitialized):
			return dErrors.Wrap(err, dErrors.CodeConflict, "directory has already been initialized")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeNotFound, "directory does not exist")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to initialize directory")
		}
	}
	return nil
}

// RegisterMember adds an account to the roster. Admin only.
func (s *Service) RegisterMember(ctx context.Context, dirID id.DirectoryID, caller, account id.AccountID, role string) (id.MemberID, error) {
	if account.IsNil() {
		return 0, dErrors.New(dErrors.CodeBadRequest, "member account is required")
	}
	dir, err := s.requireAdmin(ctx, dirID, caller)
	if err != nil {
		return 0, err
	}

	memberID, err := s.store.AddMember(ctx, dirID, account, role)
	if err != nil {
		if errors.Is(err, sentinel.ErrAlreadyRegistered) {
			return 0, dErrors.Wrap(err, dErrors.CodeConflict, "account is already a member")
		}
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register member")
	}

	if s.metrics != nil {
		s.metrics.IncrementMembersAdded()
	}
	s.emitMemberAdded(ctx, dirID, models.MemberAdded{Admin: dir.Admin, Account: account, ID: memberID, Role: role})
	s.logger.InfoContext(ctx, "member registered",
		"directory", dirID,
		"account", account,
		"member_id", memberID,
		"role", role,
	)
	return memberID, nil
}

// RemoveMember resets a member's record to the absent sentinel. Admin only.
func (s *Service) RemoveMember(ctx context.Context, dirID id.DirectoryID, caller, account id.AccountID) error {
	dir, err := s.requireAdmin(ctx, dirID, caller)
	if err != nil {
		return err
	}

	memberID, err := s.store.RemoveMember(ctx, dirID, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "account is not a member")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove member")
	}

	if s.metrics != nil {
		s.metrics.IncrementMembersRemoved()
	}
	s.emitMemberRemoved(ctx, dirID, models.MemberRemoved{Admin: dir.Admin, Account: account, ID: memberID})
	s.logger.InfoContext(ctx, "member removed",
		"directory", dirID,
		"account", account,
		"member_id", memberID,
	)
	return nil
}

// UpdateRole overwrites a live member's role. Admin only.
func (s *Service) UpdateRole(ctx context.Context, dirID id.DirectoryID, caller, account id.AccountID, role string) error {
	dir, err := s.requireAdmin(ctx, dirID, caller)
	if err != nil {
		return err
	}

	if err := s.store.UpdateMemberRole(ctx, dirID, account, role); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeNotFound, "account is not a member")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update role")
	}

	if s.metrics != nil {
		s.metrics.IncrementRolesUpdated()
	}
	s.emitRoleUpdated(ctx, dirID, models.RoleUpdated{Admin: dir.Admin, Account: account, Role: role})
	s.logger.InfoContext(ctx, "member role updated",
		"directory", dirID,
		"account", account,
		"role", role,
	)
	return nil
}

// Directory returns directory metadata.
func (s *Service) Directory(ctx context.Context, dirID id.DirectoryID) (*models.Directory, error) {
	return s.findDirectory(ctx, dirID)
}

// Member returns the roster entry for an account. Absent members - never
// registered or previously removed - yield the zero sentinel record, not an
// error.
func (s *Service) Member(ctx context.Context, dirID id.DirectoryID, account id.AccountID) (models.MemberRecord, error) {
	if _, err := s.findDirectory(ctx, dirID); err != nil {
		return models.MemberRecord{}, err
	}
	rec, err := s.store.FindMember(ctx, dirID, account)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return models.MemberRecord{}, nil
		}
		return models.MemberRecord{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load member")
	}
	return *rec, nil
}

func (s *Service) findDirectory(ctx context.Context, dirID id.DirectoryID) (*models.Directory, error) {
	dir, err := s.store.FindDirectory(ctx, dirID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "directory does not exist")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load directory")
	}
	return dir, nil
}

// requireAdmin loads the directory and rejects any caller other than its
// admin. Admin never changes after initialization, so the check cannot race
// with the mutation that follows it.
func (s *Service) requireAdmin(ctx context.Context, dirID id.DirectoryID, caller id.AccountID) (*models.Directory, error) {
	dir, err := s.findDirectory(ctx, dirID)
	if err != nil {
		return nil, err
	}
	if !dir.Initialized || caller.IsNil() || caller != dir.Admin {
		return nil, dErrors.New(dErrors.CodeForbidden, "caller is not the directory admin")
	}
	return dir, nil
}

func (s *Service) emitMemberAdded(ctx context.Context, dirID id.DirectoryID, event models.MemberAdded) {
	s.emit(ctx, audit.Event{
		Action:    string(audit.EventMemberAdded),
		Actor:     event.Admin,
		Account:   event.Account,
		Directory: dirID,
		Member:    event.ID,
		Role:      event.Role,
	})
}

func (s *Service) emitMemberRemoved(ctx context.Context, dirID id.DirectoryID, event models.MemberRemoved) {
	s.emit(ctx, audit.Event{
		Action:    string(audit.EventMemberRemoved),
		Actor:     event.Admin,
		Account:   event.Account,
		Directory: dirID,
		Member:    event.ID,
	})
}

func (s *Service) emitRoleUpdated(ctx context.Context, dirID id.DirectoryID, event models.RoleUpdated) {
	s.emit(ctx, audit.Event{
		Action:    string(audit.EventRoleUpdated),
		Actor:     event.Admin,
		Account:   event.Account,
		Directory: dirID,
		Role:      event.Role,
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
