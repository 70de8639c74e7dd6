package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"vprove/internal/directory/models"
	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
	txcontext "vprove/pkg/platform/tx"
)

// Postgres persists directories and rosters in PostgreSQL. The per-directory
// member counter lives on the directory row, so id allocation and the roster
// write commit together.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed directory store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (s *Postgres) CreateDirectory(ctx context.Context, dir *models.Directory) error {
	q := txcontext.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx,
		`INSERT INTO directories (id, name, admin, initialized, last_member_id) VALUES ($1, $2, NULL, FALSE, 0)`,
		uuid.UUID(dir.ID), dir.Name,
	); err != nil {
		return fmt.Errorf("insert directory: %w", err)
	}
	return nil
}

func (s *Postgres) InitializeDirectory(ctx context.Context, dirID id.DirectoryID, name string, admin id.AccountID) error {
	q := txcontext.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE directories SET name = $2, admin = $3, initialized = TRUE WHERE id = $1 AND NOT initialized`,
		uuid.UUID(dirID), name, uuid.UUID(admin),
	)
	if err != nil {
		return fmt.Errorf("initialize directory: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("initialize directory: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := q.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM directories WHERE id = $1)`,
			uuid.UUID(dirID),
		).Scan(&exists); err != nil {
			return fmt.Errorf("check directory: %w", err)
		}
		if exists {
			return sentinel.ErrAlreadyInitialized
		}
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindDirectory(ctx context.Context, dirID id.DirectoryID) (*models.Directory, error) {
	q := txcontext.Resolve(ctx, s.db)
	var (
		dir   models.Directory
		dirUU uuid.UUID
		admin uuid.NullUUID
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, name, admin, initialized FROM directories WHERE id = $1`,
		uuid.UUID(dirID),
	).Scan(&dirUU, &dir.Name, &admin, &dir.Initialized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find directory: %w", err)
	}
	dir.ID = id.DirectoryID(dirUU)
	if admin.Valid {
		dir.Admin = id.AccountID(admin.UUID)
	}
	return &dir, nil
}

// AddMember advances the directory's counter and writes the roster row in one
// transaction. The counter update locks the directory row, serializing
// concurrent additions to the same directory.
func (s *Postgres) AddMember(ctx context.Context, dirID id.DirectoryID, account id.AccountID, role string) (id.MemberID, error) {
	var memberID id.MemberID
	err := s.inTx(ctx, func(q txcontext.Querier) error {
		var next uint64
		err := q.QueryRowContext(ctx,
			`UPDATE directories SET last_member_id = last_member_id + 1 WHERE id = $1 RETURNING last_member_id`,
			uuid.UUID(dirID),
		).Scan(&next)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("advance member counter: %w", err)
		}

		var existing uint64
		err = q.QueryRowContext(ctx,
			`SELECT member_id FROM members WHERE directory_id = $1 AND account = $2`,
			uuid.UUID(dirID), uuid.UUID(account),
		).Scan(&existing)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return fmt.Errorf("check member: %w", err)
		case existing != 0:
			return sentinel.ErrAlreadyRegistered
		}

		if _, err := q.ExecContext(ctx, `
			INSERT INTO members (directory_id, account, role, member_id)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (directory_id, account)
			DO UPDATE SET role = EXCLUDED.role, member_id = EXCLUDED.member_id
		`, uuid.UUID(dirID), uuid.UUID(account), role, next); err != nil {
			return fmt.Errorf("write member: %w", err)
		}
		memberID = id.MemberID(next)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return memberID, nil
}

func (s *Postgres) FindMember(ctx context.Context, dirID id.DirectoryID, account id.AccountID) (*models.MemberRecord, error) {
	q := txcontext.Resolve(ctx, s.db)
	var (
		rec      models.MemberRecord
		memberID uint64
	)
	err := q.QueryRowContext(ctx,
		`SELECT role, member_id FROM members WHERE directory_id = $1 AND account = $2 AND member_id <> 0`,
		uuid.UUID(dirID), uuid.UUID(account),
	).Scan(&rec.Role, &memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find member: %w", err)
	}
	rec.Account = account
	rec.ID = id.MemberID(memberID)
	return &rec, nil
}

// RemoveMember resets the roster row to the absent sentinel. The row is kept
// so later re-registration still draws a fresh id from the counter.
func (s *Postgres) RemoveMember(ctx context.Context, dirID id.DirectoryID, account id.AccountID) (id.MemberID, error) {
	var prior uint64
	err := s.inTx(ctx, func(q txcontext.Querier) error {
		err := q.QueryRowContext(ctx,
			`SELECT member_id FROM members WHERE directory_id = $1 AND account = $2 AND member_id <> 0 FOR UPDATE`,
			uuid.UUID(dirID), uuid.UUID(account),
		).Scan(&prior)
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("find member: %w", err)
		}

		if _, err := q.ExecContext(ctx,
			`UPDATE members SET role = '', member_id = 0 WHERE directory_id = $1 AND account = $2`,
			uuid.UUID(dirID), uuid.UUID(account),
		); err != nil {
			return fmt.Errorf("remove member: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id.MemberID(prior), nil
}

func (s *Postgres) UpdateMemberRole(ctx context.Context, dirID id.DirectoryID, account id.AccountID, role string) error {
	q := txcontext.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE members SET role = $3 WHERE directory_id = $1 AND account = $2 AND member_id <> 0`,
		uuid.UUID(dirID), uuid.UUID(account), role,
	)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// inTx joins the ambient transaction when one is carried in the context,
// otherwise opens its own.
func (s *Postgres) inTx(ctx context.Context, fn func(q txcontext.Querier) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
