package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"vprove/internal/ledger"
	"vprove/internal/registry/models"
	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
	txcontext "vprove/pkg/platform/tx"
)

// Postgres persists registry and ledger state in PostgreSQL. Compound ops
// join the transaction carried in the context when the service runs inside a
// StoreTx; otherwise they open their own.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registry store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// CreatePerson atomically validates uniqueness, allocates the next credential
// id, mints, and records the person.
func (s *Postgres) CreatePerson(ctx context.Context, account id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, error) {
	var credID id.CredentialID
	err := s.inTx(ctx, func(q txcontext.Querier) error {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO persons (account, name, credential_id) VALUES ($1, $2, 0)`,
			uuid.UUID(account), name,
		); err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert person: %w", err)
		}

		var err error
		credID, err = s.commitRegistration(ctx, q, account, name, metadataRef, paid)
		if err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx,
			`UPDATE persons SET credential_id = $2 WHERE account = $1`,
			uuid.UUID(account), uint64(credID),
		); err != nil {
			return fmt.Errorf("update person credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return credID, nil
}

// CreateCompany mints the credential to the creator and records the company
// under the (creator, company) key.
func (s *Postgres) CreateCompany(ctx context.Context, creator id.AccountID, company id.DirectoryID, name, metadataRef string, paid id.Amount) (id.CredentialID, error) {
	var credID id.CredentialID
	err := s.inTx(ctx, func(q txcontext.Querier) error {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO companies (creator, company, name, credential_id) VALUES ($1, $2, $3, 0)`,
			uuid.UUID(creator), uuid.UUID(company), name,
		); err != nil {
			if isUniqueViolation(err) {
				return sentinel.ErrAlreadyRegistered
			}
			return fmt.Errorf("insert company: %w", err)
		}

		var err error
		credID, err = s.commitRegistration(ctx, q, creator, name, metadataRef, paid)
		if err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx,
			`UPDATE companies SET credential_id = $3 WHERE creator = $1 AND company = $2`,
			uuid.UUID(creator), uuid.UUID(company), uint64(credID),
		); err != nil {
			return fmt.Errorf("update company credential: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return credID, nil
}

// commitRegistration claims the name, advances the credential counter, mints
// the credential, and accrues the payment. Runs inside the caller's tx.
func (s *Postgres) commitRegistration(ctx context.Context, q txcontext.Querier, owner id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, error) {
	if _, err := q.ExecContext(ctx,
		`INSERT INTO names (name, owner) VALUES ($1, $2)`,
		name, uuid.UUID(owner),
	); err != nil {
		if isUniqueViolation(err) {
			return 0, sentinel.ErrNameTaken
		}
		return 0, fmt.Errorf("claim name: %w", err)
	}

	var credID uint64
	if err := q.QueryRowContext(ctx, `
		UPDATE registry_state
		SET last_credential_id = last_credential_id + 1,
		    total_collected = total_collected + $1
		RETURNING last_credential_id
	`, uint64(paid)).Scan(&credID); err != nil {
		return 0, fmt.Errorf("advance credential counter: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT INTO credentials (id, owner, metadata_ref) VALUES ($1, $2, $3)`,
		credID, uuid.UUID(owner), metadataRef,
	); err != nil {
		if isUniqueViolation(err) {
			return 0, sentinel.ErrDuplicateCredential
		}
		return 0, fmt.Errorf("mint credential: %w", err)
	}
	return id.CredentialID(credID), nil
}

// FindPerson retrieves a person record by account.
func (s *Postgres) FindPerson(ctx context.Context, account id.AccountID) (*models.PersonRecord, error) {
	q := txcontext.Resolve(ctx, s.db)
	var (
		acct   uuid.UUID
		name   string
		credID uint64
	)
	err := q.QueryRowContext(ctx,
		`SELECT account, name, credential_id FROM persons WHERE account = $1`,
		uuid.UUID(account),
	).Scan(&acct, &name, &credID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return &models.PersonRecord{Account: id.AccountID(acct), Name: name, CredentialID: id.CredentialID(credID)}, nil
}

// FindCompany retrieves a company record by its (creator, company) key.
func (s *Postgres) FindCompany(ctx context.Context, creator id.AccountID, company id.DirectoryID) (*models.CompanyRecord, error) {
	q := txcontext.Resolve(ctx, s.db)
	var (
		name   string
		credID uint64
	)
	err := q.QueryRowContext(ctx,
		`SELECT name, credential_id FROM companies WHERE creator = $1 AND company = $2`,
		uuid.UUID(creator), uuid.UUID(company),
	).Scan(&name, &credID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find company: %w", err)
	}
	return &models.CompanyRecord{Creator: creator, Company: company, Name: name, CredentialID: id.CredentialID(credID)}, nil
}

// NameOwner returns the account bound to a name, or the null account.
func (s *Postgres) NameOwner(ctx context.Context, name string) (id.AccountID, error) {
	q := txcontext.Resolve(ctx, s.db)
	var owner uuid.UUID
	err := q.QueryRowContext(ctx, `SELECT owner FROM names WHERE name = $1`, name).Scan(&owner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return id.AccountID{}, nil
		}
		return id.AccountID{}, fmt.Errorf("look up name: %w", err)
	}
	return id.AccountID(owner), nil
}

// RegistrationFee returns the current fee.
func (s *Postgres) RegistrationFee(ctx context.Context) (id.Amount, error) {
	q := txcontext.Resolve(ctx, s.db)
	var fee uint64
	if err := q.QueryRowContext(ctx, `SELECT fee FROM registry_state`).Scan(&fee); err != nil {
		return 0, fmt.Errorf("read registration fee: %w", err)
	}
	return id.Amount(fee), nil
}

// SetRegistrationFee overwrites the fee. Zero is valid.
func (s *Postgres) SetRegistrationFee(ctx context.Context, fee id.Amount) error {
	q := txcontext.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx, `UPDATE registry_state SET fee = $1`, uint64(fee)); err != nil {
		return fmt.Errorf("set registration fee: %w", err)
	}
	return nil
}

// CollectedTotal returns the accumulated payments.
func (s *Postgres) CollectedTotal(ctx context.Context) (id.Amount, error) {
	q := txcontext.Resolve(ctx, s.db)
	var total uint64
	if err := q.QueryRowContext(ctx, `SELECT total_collected FROM registry_state`).Scan(&total); err != nil {
		return 0, fmt.Errorf("read collected total: %w", err)
	}
	return id.Amount(total), nil
}

// Ledger store implementation.

func (s *Postgres) InsertCredential(ctx context.Context, cred *ledger.Credential) error {
	q := txcontext.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO credentials (id, owner, metadata_ref) VALUES ($1, $2, $3)`,
		uint64(cred.ID), uuid.UUID(cred.Owner), cred.MetadataRef,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicateCredential
		}
		return fmt.Errorf("insert credential: %w", err)
	}
	return nil
}

func (s *Postgres) FindCredential(ctx context.Context, credID id.CredentialID) (*ledger.Credential, error) {
	q := txcontext.Resolve(ctx, s.db)
	var (
		owner       uuid.UUID
		approved    uuid.NullUUID
		metadataRef string
	)
	err := q.QueryRowContext(ctx,
		`SELECT owner, approved, metadata_ref FROM credentials WHERE id = $1`,
		uint64(credID),
	).Scan(&owner, &approved, &metadataRef)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	cred := &ledger.Credential{ID: credID, Owner: id.AccountID(owner), MetadataRef: metadataRef}
	if approved.Valid {
		cred.Approved = id.AccountID(approved.UUID)
	}
	return cred, nil
}

func (s *Postgres) UpdateCredential(ctx context.Context, cred *ledger.Credential) error {
	q := txcontext.Resolve(ctx, s.db)
	approved := uuid.NullUUID{}
	if !cred.Approved.IsNil() {
		approved = uuid.NullUUID{UUID: uuid.UUID(cred.Approved), Valid: true}
	}
	res, err := q.ExecContext(ctx,
		`UPDATE credentials SET owner = $2, approved = $3 WHERE id = $1`,
		uint64(cred.ID), uuid.UUID(cred.Owner), approved,
	)
	if err != nil {
		return fmt.Errorf("update credential: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update credential rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) SetOperator(ctx context.Context, owner, delegate id.AccountID, approved bool) error {
	q := txcontext.Resolve(ctx, s.db)
	if approved {
		_, err := q.ExecContext(ctx, `
			INSERT INTO operator_approvals (owner, delegate) VALUES ($1, $2)
			ON CONFLICT (owner, delegate) DO NOTHING
		`, uuid.UUID(owner), uuid.UUID(delegate))
		if err != nil {
			return fmt.Errorf("set operator: %w", err)
		}
		return nil
	}
	if _, err := q.ExecContext(ctx,
		`DELETE FROM operator_approvals WHERE owner = $1 AND delegate = $2`,
		uuid.UUID(owner), uuid.UUID(delegate),
	); err != nil {
		return fmt.Errorf("clear operator: %w", err)
	}
	return nil
}

func (s *Postgres) IsOperator(ctx context.Context, owner, delegate id.AccountID) (bool, error) {
	q := txcontext.Resolve(ctx, s.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM operator_approvals WHERE owner = $1 AND delegate = $2)`,
		uuid.UUID(owner), uuid.UUID(delegate),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("read operator: %w", err)
	}
	return exists, nil
}

func (s *Postgres) CredentialCount(ctx context.Context, account id.AccountID) (int, error) {
	q := txcontext.Resolve(ctx, s.db)
	var count int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM credentials WHERE owner = $1`,
		uuid.UUID(account),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count credentials: %w", err)
	}
	return count, nil
}

// inTx joins the ambient transaction when the context carries one, otherwise
// opens a local transaction around fn.
func (s *Postgres) inTx(ctx context.Context, fn func(q txcontext.Querier) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
