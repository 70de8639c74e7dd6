// Package domain provides type-safe identifiers to prevent mixing up IDs at compile time.
package domain

import (
	"github.com/google/uuid"

	dErrors "vprove/pkg/domain-errors"
)

// Distinct ID types - compiler prevents passing an AccountID where a DirectoryID
// is expected.
type (
	// AccountID identifies an authenticated caller. The zero value is the null
	// account sentinel: never a valid owner, and the canonical "unbound" result
	// for name lookups.
	AccountID uuid.UUID

	// DirectoryID addresses a spawned tenant directory instance.
	DirectoryID uuid.UUID
)

// CredentialID is a globally sequential credential identifier. Ids start at 1;
// 0 means "never minted".
type CredentialID uint64

// MemberID is a directory-scoped sequential member identifier. Ids start at 1
// within each directory; 0 is the "absent" sentinel.
type MemberID uint64

// Amount is a fee/payment value in the registry's smallest unit.
type Amount uint64

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseAccountID(s string) (AccountID, error) {
	id, err := parseUUID(s, "account ID")
	return AccountID(id), err
}

func ParseDirectoryID(s string) (DirectoryID, error) {
	id, err := parseUUID(s, "directory ID")
	return DirectoryID(id), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	return id, nil
}

// NewDirectoryID allocates an address for a freshly spawned directory.
func NewDirectoryID() DirectoryID { return DirectoryID(uuid.New()) }

// String methods - for logging and debugging.

func (id AccountID) String() string   { return uuid.UUID(id).String() }
func (id DirectoryID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether the account is the null sentinel.
func (id AccountID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// IsNil reports whether the directory address is unset.
func (id DirectoryID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
