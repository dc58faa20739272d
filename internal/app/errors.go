package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect username or password")

	ErrUsernameAndPasswordRequired = errors.New("username and password required")
	ErrUsernameAlreadyExists       = errors.New("username already exists")

	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrTextRequired        = errors.New("text required")
	ErrFieldsRequired      = errors.New("fields required")

	// ErrTextSource marks failures of the text-producing boundary (OCR or
	// transcription). Unlike field-mapping failures these are terminal.
	ErrTextSource = errors.New("text source unavailable")

	ErrRecordNotFound = errors.New("record not found")
	ErrNoArtifact     = errors.New("record has no archived source artifact")
)
