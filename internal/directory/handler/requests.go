package handler

import (
	"strings"

	"vprove/internal/directory/models"
	dErrors "vprove/pkg/domain-errors"
)

type RegisterMemberRequest struct {
	Account string `json:"account"`
	Role    string `json:"role"`
}

func (r *RegisterMemberRequest) Normalize() {
	if r == nil {
		return
	}
	r.Account = strings.TrimSpace(r.Account)
	r.Role = strings.TrimSpace(r.Role)
}

func (r *RegisterMemberRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	if r.Account == "" {
		return dErrors.New(dErrors.CodeValidation, "account is required")
	}
	return nil
}

type UpdateRoleRequest struct {
	Role string `json:"role"`
}

func (r *UpdateRoleRequest) Normalize() {
	if r == nil {
		return
	}
	r.Role = strings.TrimSpace(r.Role)
}

func (r *UpdateRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request is required")
	}
	return nil
}

type MemberCreatedResponse struct {
	MemberID uint64 `json:"member_id"`
}

type MemberResponse struct {
	Account  string `json:"account"`
	Role     string `json:"role"`
	MemberID uint64 `json:"member_id"`
}

type DirectoryResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Admin       string `json:"admin"`
	Initialized bool   `json:"initialized"`
}

func toDirectoryResponse(dir *models.Directory) *DirectoryResponse {
	return &DirectoryResponse{
		ID:          dir.ID.String(),
		Name:        dir.Name,
		Admin:       dir.Admin.String(),
		Initialized: dir.Initialized,
	}
}
