package store

import "inspectai/internal/domain"

// Store defines persistence operations for users and inspection records.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUsername(username string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// inspection records
	SaveRecord(domain.InspectionRecord) error
	ListRecords() ([]domain.InspectionRecord, error)
	ListRecordsByOwner(userID string) ([]domain.InspectionRecord, error)
	GetRecord(id string) (domain.InspectionRecord, bool, error)
}

// SessionStore issues and validates session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
