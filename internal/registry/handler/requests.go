package handler

import (
	"strings"

	dErrors "vprove/pkg/domain-errors"
)

// HTTP Request DTOs - contain JSON tags for API serialization.

type RegisterIndividualRequest struct {
	Name        string `json:"name"`
	MetadataRef string `json:"metadata_ref"`
	PaidAmount  uint64 `json:"paid_amount"`
}

func (r *RegisterIndividualRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.MetadataRef = strings.TrimSpace(r.MetadataRef)
}

func (r *RegisterIndividualRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type RegisterBusinessRequest struct {
	Name        string `json:"name"`
	MetadataRef string `json:"metadata_ref"`
	PaidAmount  uint64 `json:"paid_amount"`
}

func (r *RegisterBusinessRequest) Normalize() {
	if r == nil {
		return
	}
	r.Name = strings.TrimSpace(r.Name)
	r.MetadataRef = strings.TrimSpace(r.MetadataRef)
}

func (r *RegisterBusinessRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	return nil
}

type SetFeeRequest struct {
	Fee uint64 `json:"fee"`
}

func (r *SetFeeRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return nil
}
