package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

type InspectionModel struct {
	ID        string            `gorm:"primaryKey"`
	UserID    string            `gorm:"not null;index"`
	User      UserModel         `gorm:"foreignKey:UserID"`
	Fields    datatypes.JSONMap `gorm:"type:jsonb"`
	SourceKey string
	CreatedAt time.Time `gorm:"not null;index"`
}
