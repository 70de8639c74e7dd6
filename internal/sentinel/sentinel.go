package sentinel

import "errors"

// Sentinel dependency errors. Stores return these (optionally wrapped) so
// services can translate them into domain errors exactly once.
var (
	ErrNotFound           = errors.New("not found")
	ErrNameTaken          = errors.New("name already taken")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrAlreadyInitialized = errors.New("already initialized")

	// ErrDuplicateCredential means the credential id counter handed out an id
	// that already exists. Registry logic can never recover from it; callers
	// surface it as an invariant violation.
	ErrDuplicateCredential = errors.New("credential id already minted")
)
