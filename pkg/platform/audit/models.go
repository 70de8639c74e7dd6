package audit

import (
	"context"
	"time"

	id "vprove/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp  time.Time
	Action     string
	Actor      id.AccountID
	Account    id.AccountID
	Directory  id.DirectoryID
	Credential id.CredentialID
	Member     id.MemberID
	Role       string
	RequestID  string
}

type AuditEvent string

const (
	EventAccountCreated AuditEvent = "account_created"
	EventCompanyCreated AuditEvent = "company_created"
	EventMemberAdded    AuditEvent = "member_added"
	EventMemberRemoved  AuditEvent = "member_removed"
	EventRoleUpdated    AuditEvent = "role_updated"
	EventFeeUpdated     AuditEvent = "fee_updated"
)

// Store persists audit events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}
