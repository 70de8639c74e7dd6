package models

import id "vprove/pkg/domain"

// Domain events capture what happened in the registry. These are pure data
// structures with no behavior - the service layer is responsible for
// publishing them to the audit system.

// AccountCreated is emitted when an individual registration succeeds.
type AccountCreated struct {
	Account id.AccountID
	ID      id.CredentialID
}

// CompanyCreated is emitted when a business registration succeeds.
type CompanyCreated struct {
	Creator id.AccountID
	Company id.DirectoryID
	ID      id.CredentialID
}
