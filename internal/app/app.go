package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"inspectai/internal/ai"
	"inspectai/internal/auth"
	"inspectai/internal/domain"
	"inspectai/internal/events"
	"inspectai/internal/extract"
	"inspectai/internal/ocr"
	"inspectai/internal/storage"
	"inspectai/internal/store"
	"inspectai/internal/util"
)

// extractPrompt asks the model for free-form field extraction from document
// or dictated text. The reply may be colon lines or a flat JSON object; the
// normalizer handles both.
const extractPrompt = "Extract every attribute and its value from the text. " +
	"Return one field per line as 'name: value' or as a flat JSON object, " +
	"in English or German, with no additional commentary."

// matchPrompt constrains the model to a known field list when filling a form
// from a voice transcript.
func matchPrompt(known []string) string {
	if len(known) == 0 {
		return extractPrompt
	}
	return fmt.Sprintf("Only return information related to the following fields: %s. "+
		"Provide the result in structured JSON format, in English or German. "+
		"If a field is missing or unclear, assign a default value like 'Unknown', "+
		"'Not provided', or 0 for numbers.", strings.Join(known, ", "))
}

var allowedDocumentExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".pdf": true,
}

var allowedAudioExts = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".ogg": true, ".webm": true,
}

// DocumentReader extracts text from a document file on disk.
type DocumentReader interface {
	ExtractFile(path string) (string, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL        string
	RedisAddr          string
	RedisPassword      string
	SessionSecret      string
	SessionTTL         time.Duration
	AIBaseURL          string
	AIAPIKey           string
	GenerationModel    string
	TranscriptionModel string
	AITimeout          time.Duration
	TessdataPrefix     string
	OCRLanguages       []string

	// Injection points for tests; defaults constructed from the fields above.
	Store       store.Store
	Sessions    store.SessionStore
	Generator   ai.TextGenerator
	Transcriber ai.Transcriber
	Documents   DocumentReader
	Artifacts   storage.ObjectStore
	Events      events.Publisher
	Logger      *slog.Logger
}

// App is the core application service wiring together storage, auth and the
// extraction orchestrator.
type App struct {
	store       store.Store
	sessions    store.SessionStore
	generator   ai.TextGenerator
	transcriber ai.Transcriber
	documents   DocumentReader
	artifacts   storage.ObjectStore
	events      events.Publisher
	aiTimeout   time.Duration
	logger      *slog.Logger
}

// New constructs the application with database storage, session management
// and the external extraction boundaries.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.AITimeout == 0 {
		cfg.AITimeout = 60 * time.Second
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if strings.TrimSpace(cfg.SessionSecret) == "" {
			return nil, fmt.Errorf("sessionSecret is required")
		}
		if strings.TrimSpace(cfg.RedisAddr) == "" {
			return nil, fmt.Errorf("redisAddr is required for jwt+redis session strategy")
		}
		revoker := store.NewRedisTokenRevoker(cfg.RedisAddr, cfg.RedisPassword)
		sessionStore = store.NewJWTSessionStore(cfg.SessionSecret, cfg.SessionTTL, revoker)
	}

	generator := cfg.Generator
	if generator == nil {
		if cfg.AIBaseURL == "" || cfg.GenerationModel == "" {
			return nil, fmt.Errorf("aiBaseURL and generationModel required")
		}
		generator = ai.NewOpenAICompatGenerator(cfg.AIBaseURL, cfg.AIAPIKey, cfg.GenerationModel, cfg.AITimeout)
	}

	transcriber := cfg.Transcriber
	if transcriber == nil {
		if cfg.AIBaseURL == "" || cfg.TranscriptionModel == "" {
			return nil, fmt.Errorf("aiBaseURL and transcriptionModel required")
		}
		transcriber = ai.NewOpenAICompatTranscriber(cfg.AIBaseURL, cfg.AIAPIKey, cfg.TranscriptionModel, cfg.AITimeout)
	}

	documents := cfg.Documents
	if documents == nil {
		documents = ocr.NewEngine(cfg.TessdataPrefix, cfg.OCRLanguages)
	}

	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &App{
		store:       dataStore,
		sessions:    sessionStore,
		generator:   generator,
		transcriber: transcriber,
		documents:   documents,
		artifacts:   cfg.Artifacts,
		events:      publisher,
		aiTimeout:   cfg.AITimeout,
		logger:      logger,
	}, nil
}

// SignUp registers a new user and issues a session token.
func (a *App) SignUp(username, email, password string) (domain.User, string, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	if username == "" || password == "" {
		return domain.User{}, "", ErrUsernameAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", err
	}
	exists, err := a.store.HasUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check username: %w", err)
	}
	if exists {
		return domain.User{}, "", ErrUsernameAlreadyExists
	}
	passwordHash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Username:     username,
		Email:        strings.TrimSpace(strings.ToLower(email)),
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	return a.issueSession(user)
}

// Login validates credentials and issues a session token.
func (a *App) Login(username, password string) (domain.User, string, error) {
	username = strings.TrimSpace(strings.ToLower(username))
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("fetch user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", ErrInvalidCredentials
	}
	return a.issueSession(user)
}

func (a *App) issueSession(user domain.User) (domain.User, string, error) {
	token, err := a.sessions.NewSession(user.ID)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session token: %w", err)
	}
	return user, token, nil
}

// Logout invalidates the session token.
func (a *App) Logout(token string) error {
	return a.sessions.DeleteSession(token)
}

// UserFromToken resolves a user from a session token.
func (a *App) UserFromToken(token string) (domain.User, bool) {
	uid, ok, err := a.sessions.GetUserIDByToken(token)
	if err != nil || !ok {
		return domain.User{}, false
	}
	user, found, err := a.store.GetUserByID(uid)
	if err != nil || !found {
		return domain.User{}, false
	}
	return user, true
}

// ProcessDocument runs the extraction pipeline for an uploaded form scan:
// OCR the file, map the text to fields, archive the source when an object
// store is configured. OCR failure is terminal; mapping failure degrades to
// the default field set.
func (a *App) ProcessDocument(ctx context.Context, filename string, file io.Reader) (domain.ExtractionResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedDocumentExts[ext] {
		return domain.ExtractionResult{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	tmp, err := os.CreateTemp("", "inspectai-upload-*"+ext)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	size, err := io.Copy(tmp, file)
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("spool upload: %w", err)
	}

	text, err := a.documents.ExtractFile(tmp.Name())
	if err != nil {
		return domain.ExtractionResult{}, fmt.Errorf("%w: %v", ErrTextSource, err)
	}

	fields := a.mapFields(ctx, extractPrompt, text)
	sourceKey := a.archiveArtifact(ctx, tmp, size, ext)
	return domain.ExtractionResult{Text: text, Fields: fields, SourceKey: sourceKey}, nil
}

// ProcessVoice transcribes an audio clip and maps the transcript onto the
// known field names, or free-form when none are given. Transcription failure
// is terminal; mapping failure degrades to the default field set.
func (a *App) ProcessVoice(ctx context.Context, filename string, audio io.Reader, knownFields []string) (domain.Transcription, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedAudioExts[ext] {
		return domain.Transcription{}, fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	tctx, cancel := context.WithTimeout(ctx, a.aiTimeout)
	defer cancel()
	transcript, err := a.transcriber.Transcribe(tctx, filename, audio)
	if err != nil {
		return domain.Transcription{}, fmt.Errorf("%w: %v", ErrTextSource, err)
	}

	fields := a.mapFields(ctx, matchPrompt(knownFields), transcript)
	return domain.Transcription{Transcript: transcript, Fields: fields}, nil
}

// ProcessText maps user-entered text to fields.
func (a *App) ProcessText(ctx context.Context, text string) (map[string]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}
	return a.mapFields(ctx, extractPrompt, text), nil
}

// mapFields calls the model and normalizes its reply. Every failure mode of
// the mapping step yields the full default field set so the caller always
// has something to review.
func (a *App) mapFields(ctx context.Context, systemPrompt, sourceText string) map[string]string {
	gctx, cancel := context.WithTimeout(ctx, a.aiTimeout)
	defer cancel()
	reply, err := a.generator.GenerateText(gctx, systemPrompt, sourceText)
	if err != nil {
		a.logger.Warn("field mapping failed, substituting defaults", "error", err)
		return extract.Defaults()
	}
	return extract.Normalize(reply)
}

// archiveArtifact uploads the spooled source file and returns its object
// key. Archiving is best effort; failures only cost the artifact link.
func (a *App) archiveArtifact(ctx context.Context, tmp *os.File, size int64, ext string) string {
	if a.artifacts == nil {
		return ""
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		a.logger.Warn("artifact archive skipped", "error", err)
		return ""
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	key := "documents/" + util.NewID() + ext
	pctx, cancel := context.WithTimeout(ctx, a.aiTimeout)
	defer cancel()
	if err := a.artifacts.Put(pctx, key, tmp, size, contentType); err != nil {
		a.logger.Warn("artifact archive failed", "key", key, "error", err)
		return ""
	}
	return key
}

// SubmitRecord persists the reviewed field mapping under the user's account.
// The mapping is re-normalized so corrected values keep the canonical
// guarantees, then a record-created event is published best effort.
func (a *App) SubmitRecord(ctx context.Context, user domain.User, fields map[string]string, sourceKey string) (domain.InspectionRecord, error) {
	if len(fields) == 0 {
		return domain.InspectionRecord{}, ErrFieldsRequired
	}
	normalized := extract.Backfill(fields)
	normalized[extract.KeyDate] = extract.NormalizeDate(normalized[extract.KeyDate])

	record := domain.InspectionRecord{
		ID:        util.NewID(),
		UserID:    user.ID,
		Fields:    normalized,
		SourceKey: sourceKey,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveRecord(record); err != nil {
		return domain.InspectionRecord{}, fmt.Errorf("save record: %w", err)
	}

	ectx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.events.RecordCreated(ectx, record); err != nil {
		a.logger.Warn("record-created event not published", "recordID", record.ID, "error", err)
	}
	return record, nil
}

// ListRecords returns the user's own records, newest first per store order.
func (a *App) ListRecords(user domain.User) ([]domain.InspectionRecord, error) {
	return a.store.ListRecordsByOwner(user.ID)
}

// GetRecord returns one record when it exists and is owned by the user.
// Foreign records are indistinguishable from missing ones.
func (a *App) GetRecord(user domain.User, id string) (domain.InspectionRecord, error) {
	record, ok, err := a.store.GetRecord(id)
	if err != nil {
		return domain.InspectionRecord{}, fmt.Errorf("fetch record: %w", err)
	}
	if !ok || record.UserID != user.ID {
		return domain.InspectionRecord{}, ErrRecordNotFound
	}
	return record, nil
}

// ArtifactURL returns a presigned download link for the record's archived
// source document.
func (a *App) ArtifactURL(ctx context.Context, user domain.User, recordID string) (string, error) {
	record, err := a.GetRecord(user, recordID)
	if err != nil {
		return "", err
	}
	if record.SourceKey == "" || a.artifacts == nil {
		return "", ErrNoArtifact
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	url, err := a.artifacts.PresignGet(pctx, record.SourceKey, 15*time.Minute)
	if err != nil {
		return "", fmt.Errorf("presign artifact: %w", err)
	}
	return url, nil
}

// Close releases long-lived external connections.
func (a *App) Close() error {
	return a.events.Close()
}
