package domain

import "time"

// User owns inspection records. Created at signup, read at login,
// never updated or deleted through this service.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// InspectionRecord is a flexible field/value mapping owned by exactly one
// user. The mapping always contains the canonical inspection keys; any
// additional keys discovered at extraction time are preserved as-is.
// Records are created once and never updated.
type InspectionRecord struct {
	ID        string            `json:"id"`
	UserID    string            `json:"userId"`
	Fields    map[string]string `json:"fields"`
	SourceKey string            `json:"sourceKey,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ExtractionResult is the reviewable output of one extraction request.
type ExtractionResult struct {
	Text      string            `json:"text,omitempty"`
	Fields    map[string]string `json:"fields"`
	SourceKey string            `json:"sourceKey,omitempty"`
}

// Transcription is the reviewable output of one voice request.
type Transcription struct {
	Transcript string            `json:"transcript"`
	Fields     map[string]string `json:"fields"`
}
