package store

import (
	"sync"

	"inspectai/internal/domain"
)

// MemoryStore keeps users and records in-process; used in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User // key: user ID
	names    map[string]string      // username -> user ID
	records  map[string]domain.InspectionRecord
	ordering []string // record insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		names:   make(map[string]string),
		records: make(map[string]domain.InspectionRecord),
	}
}

// SaveUser stores a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.names[u.Username] = u.ID
	return nil
}

// HasUsername reports whether the username is taken.
func (m *MemoryStore) HasUsername(username string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.names[username]
	return ok, nil
}

// GetUserByUsername looks up a user by username.
func (m *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.names[username]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// SaveRecord stores a record and tracks insertion order.
func (m *MemoryStore) SaveRecord(r domain.InspectionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[r.ID]; !exists {
		m.ordering = append(m.ordering, r.ID)
	}
	m.records[r.ID] = r
	return nil
}

// ListRecords returns all records in insertion order.
func (m *MemoryStore) ListRecords() ([]domain.InspectionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.InspectionRecord, 0, len(m.ordering))
	for _, id := range m.ordering {
		if r, ok := m.records[id]; ok {
			res = append(res, r)
		}
	}
	return res, nil
}

// ListRecordsByOwner returns records owned by one user, in insertion order.
func (m *MemoryStore) ListRecordsByOwner(userID string) ([]domain.InspectionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.InspectionRecord, 0, len(m.ordering))
	for _, id := range m.ordering {
		if r, ok := m.records[id]; ok && r.UserID == userID {
			res = append(res, r)
		}
	}
	return res, nil
}

// GetRecord retrieves one record by ID.
func (m *MemoryStore) GetRecord(id string) (domain.InspectionRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	return r, ok, nil
}
