package models

import id "vprove/pkg/domain"

// Directory is an isolated membership roster spawned per business
// registration. Admin is unset until initialization and never changes after.
type Directory struct {
	ID          id.DirectoryID `json:"id"`
	Name        string         `json:"name"`
	Admin       id.AccountID   `json:"admin"`
	Initialized bool           `json:"initialized"`
}

// MemberRecord is a roster entry. The zero value is the canonical "absent"
// sentinel: removal resets a record to it, and lookups return it for accounts
// that were never registered. ID == 0 is the liveness test.
type MemberRecord struct {
	Account id.AccountID `json:"account"`
	Role    string       `json:"role"`
	ID      id.MemberID  `json:"id"`
}

// Live reports whether the record refers to a current member.
func (m MemberRecord) Live() bool { return m.ID != 0 }
