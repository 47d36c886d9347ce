package server

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonathan/cgpa-tracker/internal/db"
	"github.com/jonathan/cgpa-tracker/internal/types"
)

// memUsers is an in-memory DBClient.
type memUsers struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*db.User
	failOn  string // method name that should fail
	deleted []uuid.UUID
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[uuid.UUID]*db.User)}
}

var errInjected = errors.New("injected failure")

func (m *memUsers) fail(method string) error {
	if m.failOn == method {
		return errInjected
	}
	return nil
}

func (m *memUsers) CheckEmailExists(_ context.Context, email string) (bool, error) {
	if err := m.fail("CheckEmailExists"); err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUsers) CreateUser(_ context.Context, name, email string) (uuid.UUID, error) {
	if err := m.fail("CreateUser"); err != nil {
		return uuid.Nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	u := &db.User{ID: uuid.New(), Name: name, Email: email, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, userID uuid.UUID, hash string) error {
	if err := m.fail("UpdatePassword"); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return errors.New("user not found")
	}
	u.PasswordHash = hash
	u.PasswordSet = true
	return nil
}

func (m *memUsers) GetUser(_ context.Context, userID uuid.UUID) (*db.User, error) {
	if err := m.fail("GetUser"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	if err := m.fail("GetUserByEmail"); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memUsers) DeleteUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, userID)
	m.deleted = append(m.deleted, userID)
	return nil
}

// memRecords is an in-memory RecordStore with the same optimistic
// versioning rules as the database.
type memRecords struct {
	mu         sync.Mutex
	records    map[uuid.UUID]*types.Record
	findErr    error
	saveErr    error
	saves      int
	beforeSave func() // runs before the version check, for race tests
}

func newMemRecords() *memRecords {
	return &memRecords{records: make(map[uuid.UUID]*types.Record)}
}

func (m *memRecords) FindRecord(_ context.Context, userID uuid.UUID) (*types.Record, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID].Clone(), nil
}

func (m *memRecords) SaveRecord(_ context.Context, record *types.Record) (*types.Record, error) {
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if m.beforeSave != nil {
		hook := m.beforeSave
		m.beforeSave = nil
		hook()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stored, exists := m.records[record.UserID]
	switch {
	case record.Version == 0 && exists:
		return nil, db.ErrVersionConflict
	case record.Version > 0 && (!exists || stored.Version != record.Version):
		return nil, db.ErrVersionConflict
	}

	saved := record.Clone()
	saved.Version = record.Version + 1
	m.records[record.UserID] = saved
	m.saves++
	return saved.Clone(), nil
}

// stored returns a copy of what the store currently holds.
func (m *memRecords) stored(userID uuid.UUID) *types.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[userID].Clone()
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }
