// Package ledger tracks credential ownership and transfer approvals. It is
// deliberately generic: it knows nothing about names, fees, or directories,
// only who owns which credential and who may move it.
package ledger

import (
	"context"

	id "vprove/pkg/domain"
)

// Credential is a minted ownership token. Approved holds the single-credential
// transfer delegate and is cleared on every transfer; the null account means
// no delegate is set.
type Credential struct {
	ID          id.CredentialID
	Owner       id.AccountID
	Approved    id.AccountID
	MetadataRef string
}

// Store persists credentials and blanket operator approvals.
type Store interface {
	InsertCredential(ctx context.Context, cred *Credential) error
	FindCredential(ctx context.Context, credID id.CredentialID) (*Credential, error)
	UpdateCredential(ctx context.Context, cred *Credential) error
	SetOperator(ctx context.Context, owner, delegate id.AccountID, approved bool) error
	IsOperator(ctx context.Context, owner, delegate id.AccountID) (bool, error)
	CredentialCount(ctx context.Context, account id.AccountID) (int, error)
}
