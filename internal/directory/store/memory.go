// Package store persists tenant directories and their member rosters.
package store

import (
	"context"
	"sync"

	"vprove/internal/directory/models"
	"vprove/internal/sentinel"
	id "vprove/pkg/domain"
)

type directoryState struct {
	dir          models.Directory
	members      map[id.AccountID]models.MemberRecord
	lastMemberID uint64
}

// InMemory stores directories in memory for the demo environment and tests.
type InMemory struct {
	mu          sync.RWMutex
	directories map[id.DirectoryID]*directoryState
}

// NewInMemory creates an in-memory directory store.
func NewInMemory() *InMemory {
	return &InMemory{directories: make(map[id.DirectoryID]*directoryState)}
}

// CreateDirectory records a freshly spawned, uninitialized directory.
func (s *InMemory) CreateDirectory(_ context.Context, dir *models.Directory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.directories[dir.ID] = &directoryState{
		dir:     *dir,
		members: make(map[id.AccountID]models.MemberRecord),
	}
	return nil
}

// InitializeDirectory flips the one-time initialization gate.
func (s *InMemory) InitializeDirectory(_ context.Context, dirID id.DirectoryID, name string, admin id.AccountID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.directories[dirID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if state.dir.Initialized {
		return sentinel.ErrAlreadyInitialized
	}
	state.dir.Name = name
	state.dir.Admin = admin
	state.dir.Initialized = true
	return nil
}

// FindDirectory retrieves directory metadata.
func (s *InMemory) FindDirectory(_ context.Context, dirID id.DirectoryID) (*models.Directory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.directories[dirID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	dir := state.dir
	return &dir, nil
}

// AddMember assigns the next directory-scoped id. Removed members keep their
// sentinel entry, so re-registration always yields a strictly greater id.
func (s *InMemory) AddMember(_ context.Context, dirID id.DirectoryID, account id.AccountID, role string) (id.MemberID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.directories[dirID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	if existing, ok := state.members[account]; ok && existing.Live() {
		return 0, sentinel.ErrAlreadyRegistered
	}
	state.lastMemberID++
	memberID := id.MemberID(state.lastMemberID)
	state.members[account] = models.MemberRecord{Account: account, Role: role, ID: memberID}
	return memberID, nil
}

// FindMember retrieves a live roster entry.
func (s *InMemory) FindMember(_ context.Context, dirID id.DirectoryID, account id.AccountID) (*models.MemberRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.directories[dirID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	rec, ok := state.members[account]
	if !ok || !rec.Live() {
		return nil, sentinel.ErrNotFound
	}
	return &rec, nil
}

// RemoveMember resets the record to the absent sentinel, keeping the key.
func (s *InMemory) RemoveMember(_ context.Context, dirID id.DirectoryID, account id.AccountID) (id.MemberID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.directories[dirID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	rec, ok := state.members[account]
	if !ok || !rec.Live() {
		return 0, sentinel.ErrNotFound
	}
	state.members[account] = models.MemberRecord{}
	return rec.ID, nil
}

// UpdateMemberRole overwrites a live member's role.
func (s *InMemory) UpdateMemberRole(_ context.Context, dirID id.DirectoryID, account id.AccountID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.directories[dirID]
	if !ok {
		return sentinel.ErrNotFound
	}
	rec, ok := state.members[account]
	if !ok || !rec.Live() {
		return sentinel.ErrNotFound
	}
	rec.Role = role
	state.members[account] = rec
	return nil
}
