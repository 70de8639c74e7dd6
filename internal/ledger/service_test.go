package ledger_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"vprove/internal/ledger"
	"vprove/internal/registry/store"
	id "vprove/pkg/domain"
	dErrors "vprove/pkg/domain-errors"
)

func newAccount() id.AccountID {
	return id.AccountID(uuid.New())
}

func newService(t *testing.T) *ledger.Service {
	t.Helper()
	return ledger.New(store.NewInMemory(0))
}

func TestMintAndOwnerOf(t *testing.T) {
	svc := newService(t)
	owner := newAccount()

	if err := svc.Mint(context.Background(), owner, 1, "ref-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := svc.OwnerOf(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != owner {
		t.Fatalf("expected owner %s, got %s", owner, got)
	}

	cred, err := svc.Credential(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cred.MetadataRef != "ref-1" {
		t.Fatalf("expected metadata ref to round-trip, got %q", cred.MetadataRef)
	}
}

func TestMintRejectsNullAccount(t *testing.T) {
	svc := newService(t)

	err := svc.Mint(context.Background(), id.AccountID{}, 1, "")
	if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

func TestMintDuplicateID(t *testing.T) {
	svc := newService(t)

	if err := svc.Mint(context.Background(), newAccount(), 1, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := svc.Mint(context.Background(), newAccount(), 1, "")
	if !dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestOwnerOfMissingCredential(t *testing.T) {
	svc := newService(t)

	if _, err := svc.OwnerOf(context.Background(), 42); !dErrors.HasCode(err, dErrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBalanceOf(t *testing.T) {
	svc := newService(t)
	owner := newAccount()

	if _, err := svc.BalanceOf(context.Background(), id.AccountID{}); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request for the null account")
	}

	balance, err := svc.BalanceOf(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected zero balance, got %d", balance)
	}

	for i := 1; i <= 3; i++ {
		if err := svc.Mint(context.Background(), owner, id.CredentialID(i), ""); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	balance, err = svc.BalanceOf(context.Background(), owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if balance != 3 {
		t.Fatalf("expected balance 3, got %d", balance)
	}
}

func TestApprove(t *testing.T) {
	svc := newService(t)
	owner := newAccount()
	delegate := newAccount()
	stranger := newAccount()

	if err := svc.Mint(context.Background(), owner, 1, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Approve(context.Background(), stranger, delegate, 1); !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden for non-owner, got %v", err)
	}

	if err := svc.Approve(context.Background(), owner, delegate, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	approved, err := svc.GetApproved(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if approved != delegate {
		t.Fatalf("expected delegate %s, got %s", delegate, approved)
	}
}

func TestApproveByOperator(t *testing.T) {
	svc := newService(t)
	owner := newAccount()
	operator := newAccount()
	delegate := newAccount()

	if err := svc.Mint(context.Background(), owner, 1, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.SetApprovalForAll(context.Background(), owner, operator, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Approve(context.Background(), operator, delegate, 1); err != nil {
		t.Fatalf("expected operator to set delegates: %v", err)
	}
}

func TestSetApprovalForAll(t *testing.T) {
	svc := newService(t)
	owner := newAccount()
	operator := newAccount()

	if err := svc.SetApprovalForAll(context.Background(), owner, id.AccountID{}, true); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request for null delegate")
	}

	if err := svc.SetApprovalForAll(context.Background(), owner, operator, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, err := svc.IsApprovedForAll(context.Background(), owner, operator)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatalf("expected operator approval to be set")
	}

	if err := svc.SetApprovalForAll(context.Background(), owner, operator, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ok, _ = svc.IsApprovedForAll(context.Background(), owner, operator)
	if ok {
		t.Fatalf("expected operator approval to be revoked")
	}
}

func TestTransfer(t *testing.T) {
	svc := newService(t)
	owner := newAccount()
	delegate := newAccount()
	recipient := newAccount()
	stranger := newAccount()

	if err := svc.Mint(context.Background(), owner, 1, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.Transfer(context.Background(), stranger, recipient, 1); !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden for unauthorized caller, got %v", err)
	}
	if err := svc.Transfer(context.Background(), owner, id.AccountID{}, 1); !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("expected bad request for null recipient, got %v", err)
	}

	if err := svc.Approve(context.Background(), owner, delegate, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Transfer(context.Background(), delegate, recipient, 1); err != nil {
		t.Fatalf("expected delegate transfer to succeed: %v", err)
	}

	got, err := svc.OwnerOf(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != recipient {
		t.Fatalf("expected new owner %s, got %s", recipient, got)
	}

	// Transfer clears the single delegate.
	approved, err := svc.GetApproved(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !approved.IsNil() {
		t.Fatalf("expected delegate cleared after transfer, got %s", approved)
	}

	// The old delegate holds no rights over the moved credential.
	if err := svc.Transfer(context.Background(), delegate, newAccount(), 1); !dErrors.HasCode(err, dErrors.CodeForbidden) {
		t.Fatalf("expected forbidden for stale delegate, got %v", err)
	}
}
