package handler

import (
	"strings"

	dErrors "vprove/pkg/domain-errors"
)

type ApproveRequest struct {
	Delegate string `json:"delegate"`
}

func (r *ApproveRequest) Normalize() {
	if r == nil {
		return
	}
	r.Delegate = strings.TrimSpace(r.Delegate)
}

func (r *ApproveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Delegate == "" {
		return dErrors.New(dErrors.CodeValidation, "delegate is required")
	}
	return nil
}

type TransferRequest struct {
	To string `json:"to"`
}

func (r *TransferRequest) Normalize() {
	if r == nil {
		return
	}
	r.To = strings.TrimSpace(r.To)
}

func (r *TransferRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.To == "" {
		return dErrors.New(dErrors.CodeValidation, "recipient is required")
	}
	return nil
}

type SetApprovalForAllRequest struct {
	Delegate string `json:"delegate"`
	Approved bool   `json:"approved"`
}

func (r *SetApprovalForAllRequest) Normalize() {
	if r == nil {
		return
	}
	r.Delegate = strings.TrimSpace(r.Delegate)
}

func (r *SetApprovalForAllRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Delegate == "" {
		return dErrors.New(dErrors.CodeValidation, "delegate is required")
	}
	return nil
}

type CredentialResponse struct {
	ID          uint64 `json:"id"`
	Owner       string `json:"owner"`
	MetadataRef string `json:"metadata_ref"`
}

type ApprovedResponse struct {
	Delegate string `json:"delegate"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance int    `json:"balance"`
}

type OperatorApprovalResponse struct {
	Owner    string `json:"owner"`
	Delegate string `json:"delegate"`
	Approved bool   `json:"approved"`
}
