// Package store persists the registry's durable state: person and company
// records, the shared name index, fee accounting, the credential id counter,
// and the ownership ledger. Registry and ledger share one physical store so a
// registration's record write and credential mint commit atomically.
package store

import (
	"context"
	"sync"

	"vprove/internal/ledger"
	"vprove/internal/registry/models"
	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
)

type companyKey struct {
	creator id.AccountID
	company id.DirectoryID
}

type operatorKey struct {
	owner    id.AccountID
	delegate id.AccountID
}

// InMemory keeps all registry state in memory for the demo environment and
// tests. Names compare case-sensitively: the registry treats "Acme" and
// "acme" as distinct names.
type InMemory struct {
	mu          sync.RWMutex
	fee         id.Amount
	total       id.Amount
	lastCredID  uint64
	persons     map[id.AccountID]models.PersonRecord
	companies   map[companyKey]models.CompanyRecord
	names       map[string]id.AccountID
	credentials map[id.CredentialID]ledger.Credential
	operators   map[operatorKey]bool
}

// NewInMemory creates an in-memory registry store with the given initial fee.
func NewInMemory(fee id.Amount) *InMemory {
	return &InMemory{
		fee:         fee,
		persons:     make(map[id.AccountID]models.PersonRecord),
		companies:   make(map[companyKey]models.CompanyRecord),
		names:       make(map[string]id.AccountID),
		credentials: make(map[id.CredentialID]ledger.Credential),
		operators:   make(map[operatorKey]bool),
	}
}

// CreatePerson atomically validates uniqueness, allocates the next credential
// id, mints, and records the person. The counter and totals only move when
// every check has passed.
func (s *InMemory) CreatePerson(_ context.Context, account id.AccountID, name, metadataRef string, paid id.Amount) (id.CredentialID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.persons[account]; exists {
		return 0, sentinel.ErrAlreadyRegistered
	}
	if _, taken := s.names[name]; taken {
		return 0, sentinel.ErrNameTaken
	}

	credID := s.mintLocked(account, metadataRef)
	s.persons[account] = models.PersonRecord{Account: account, Name: name, CredentialID: credID}
	s.names[name] = account
	s.total += paid
	return credID, nil
}

// CreateCompany mints the credential to the creator and records the company
// under the (creator, company) key.
func (s *InMemory) CreateCompany(_ context.Context, creator id.AccountID, company id.DirectoryID, name, metadataRef string, paid id.Amount) (id.CredentialID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := companyKey{creator: creator, company: company}
	if _, exists := s.companies[key]; exists {
		return 0, sentinel.ErrAlreadyRegistered
	}
	if _, taken := s.names[name]; taken {
		return 0, sentinel.ErrNameTaken
	}

	credID := s.mintLocked(creator, metadataRef)
	s.companies[key] = models.CompanyRecord{Creator: creator, Company: company, Name: name, CredentialID: credID}
	s.names[name] = creator
	s.total += paid
	return credID, nil
}

// mintLocked allocates the next credential id and records the credential.
// Callers must hold the write lock.
func (s *InMemory) mintLocked(owner id.AccountID, metadataRef string) id.CredentialID {
	s.lastCredID++
	credID := id.CredentialID(s.lastCredID)
	s.credentials[credID] = ledger.Credential{ID: credID, Owner: owner, MetadataRef: metadataRef}
	return credID
}

// FindPerson retrieves a person record by account.
func (s *InMemory) FindPerson(_ context.Context, account id.AccountID) (*models.PersonRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.persons[account]; ok {
		return &rec, nil
	}
	return nil, sentinel.ErrNotFound
}

// FindCompany retrieves a company record by its (creator, company) key.
func (s *InMemory) FindCompany(_ context.Context, creator id.AccountID, company id.DirectoryID) (*models.CompanyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.companies[companyKey{creator: creator, company: company}]; ok {
		return &rec, nil
	}
	return nil, sentinel.ErrNotFound
}

// NameOwner returns the account bound to a name, or the null account.
func (s *InMemory) NameOwner(_ context.Context, name string) (id.AccountID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.names[name], nil
}

// RegistrationFee returns the current fee.
func (s *InMemory) RegistrationFee(_ context.Context) (id.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fee, nil
}

// SetRegistrationFee overwrites the fee. Zero is valid.
func (s *InMemory) SetRegistrationFee(_ context.Context, fee id.Amount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fee = fee
	return nil
}

// CollectedTotal returns the accumulated payments.
func (s *InMemory) CollectedTotal(_ context.Context) (id.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total, nil
}

// Ledger store implementation. The same mutex guards ledger and registry
// state, which is what makes registrations all-or-nothing.

func (s *InMemory) InsertCredential(_ context.Context, cred *ledger.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.credentials[cred.ID]; exists {
		return sentinel.ErrDuplicateCredential
	}
	s.credentials[cred.ID] = *cred
	if uint64(cred.ID) > s.lastCredID {
		s.lastCredID = uint64(cred.ID)
	}
	return nil
}

func (s *InMemory) FindCredential(_ context.Context, credID id.CredentialID) (*ledger.Credential, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cred, ok := s.credentials[credID]; ok {
		return &cred, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) UpdateCredential(_ context.Context, cred *ledger.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.credentials[cred.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.credentials[cred.ID] = *cred
	return nil
}

func (s *InMemory) SetOperator(_ context.Context, owner, delegate id.AccountID, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := operatorKey{owner: owner, delegate: delegate}
	if approved {
		s.operators[key] = true
	} else {
		delete(s.operators, key)
	}
	return nil
}

func (s *InMemory) IsOperator(_ context.Context, owner, delegate id.AccountID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.operators[operatorKey{owner: owner, delegate: delegate}], nil
}

func (s *InMemory) CredentialCount(_ context.Context, account id.AccountID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, cred := range s.credentials {
		if cred.Owner == account {
			count++
		}
	}
	return count, nil
}
