package handler

import (
	"vprove/internal/registry/models"
)

type RegistrationResponse struct {
	CredentialID uint64 `json:"credential_id"`
}

type BusinessRegistrationResponse struct {
	CredentialID   uint64 `json:"credential_id"`
	CompanyAddress string `json:"company_address"`
}

type FeeResponse struct {
	Fee uint64 `json:"fee"`
}

type CollectedResponse struct {
	Collected uint64 `json:"collected"`
}

type NameOwnerResponse struct {
	Account string `json:"account"`
}

type PersonResponse struct {
	Account      string `json:"account"`
	Name         string `json:"name"`
	CredentialID uint64 `json:"credential_id"`
}

type CompanyResponse struct {
	Creator        string `json:"creator"`
	CompanyAddress string `json:"company_address"`
	Name           string `json:"name"`
	CredentialID   uint64 `json:"credential_id"`
}

func toPersonResponse(rec *models.PersonRecord) *PersonResponse {
	return &PersonResponse{
		Account:      rec.Account.String(),
		Name:         rec.Name,
		CredentialID: uint64(rec.CredentialID),
	}
}

func toCompanyResponse(rec *models.CompanyRecord) *CompanyResponse {
	return &CompanyResponse{
		Creator:        rec.Creator.String(),
		CompanyAddress: rec.Company.String(),
		Name:           rec.Name,
		CredentialID:   uint64(rec.CredentialID),
	}
}
