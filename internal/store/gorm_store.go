package store

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"inspectai/internal/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&UserModel{}, &InspectionModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveUser registers a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Create(&model).Error
}

// HasUsername checks if the username is taken.
func (s *GormStore) HasUsername(username string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByUsername looks up a user by username.
func (s *GormStore) GetUserByUsername(username string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("username = ?", username).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// SaveRecord stores a completed inspection record.
func (s *GormStore) SaveRecord(r domain.InspectionRecord) error {
	model := recordToModel(r)
	return s.db.Create(&model).Error
}

// ListRecords returns all records ordered by creation time.
func (s *GormStore) ListRecords() ([]domain.InspectionRecord, error) {
	return s.listRecords()
}

// ListRecordsByOwner returns records belonging to one user.
func (s *GormStore) ListRecordsByOwner(userID string) ([]domain.InspectionRecord, error) {
	return s.listRecords("user_id = ?", userID)
}

func (s *GormStore) listRecords(conds ...any) ([]domain.InspectionRecord, error) {
	var models []InspectionModel
	tx := s.db.Order("created_at ASC")
	if len(conds) > 0 {
		tx = tx.Where(conds[0], conds[1:]...)
	}
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.InspectionRecord, 0, len(models))
	for _, m := range models {
		res = append(res, recordFromModel(m))
	}
	return res, nil
}

// GetRecord retrieves one record by ID.
func (s *GormStore) GetRecord(id string) (domain.InspectionRecord, bool, error) {
	var model InspectionModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.InspectionRecord{}, false, nil
		}
		return domain.InspectionRecord{}, false, err
	}
	return recordFromModel(model), true, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
	}
}

func recordToModel(r domain.InspectionRecord) InspectionModel {
	fields := make(datatypes.JSONMap, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	return InspectionModel{
		ID:        r.ID,
		UserID:    r.UserID,
		Fields:    fields,
		SourceKey: r.SourceKey,
		CreatedAt: r.CreatedAt,
	}
}

func recordFromModel(m InspectionModel) domain.InspectionRecord {
	fields := make(map[string]string, len(m.Fields))
	for k, v := range m.Fields {
		if s, ok := v.(string); ok {
			fields[k] = s
		} else {
			fields[k] = fmt.Sprint(v)
		}
	}
	return domain.InspectionRecord{
		ID:        m.ID,
		UserID:    m.UserID,
		Fields:    fields,
		SourceKey: m.SourceKey,
		CreatedAt: m.CreatedAt,
	}
}
