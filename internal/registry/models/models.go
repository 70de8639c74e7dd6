package models

import (
	id "vprove/pkg/domain"
)

// PersonRecord binds an account to its globally unique name and credential.
// Created exactly once per account.
type PersonRecord struct {
	Account      id.AccountID    `json:"account"`
	Name         string          `json:"name"`
	CredentialID id.CredentialID `json:"credential_id"`
}

// CompanyRecord binds a creator's business registration to its spawned
// directory. Keyed by (Creator, Company); the credential is owned by the
// creator while Company addresses the directory instance.
type CompanyRecord struct {
	Creator      id.AccountID    `json:"creator"`
	Company      id.DirectoryID  `json:"company"`
	Name         string          `json:"name"`
	CredentialID id.CredentialID `json:"credential_id"`
}
