package models

import id "vprove/pkg/domain"

// Domain events capture membership changes. Pure data - the service layer
// publishes them to the audit system.

// MemberAdded is emitted when the admin registers a new member.
type MemberAdded struct {
	Admin   id.AccountID
	Account id.AccountID
	ID      id.MemberID
	Role    string
}

// MemberRemoved is emitted when the admin removes a member. ID is the id the
// record held immediately before removal.
type MemberRemoved struct {
	Admin   id.AccountID
	Account id.AccountID
	ID      id.MemberID
}

// RoleUpdated is emitted when the admin overwrites a member's role.
type RoleUpdated struct {
	Admin   id.AccountID
	Account id.AccountID
	Role    string
}
