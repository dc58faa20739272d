// Package ai wraps the hosted model endpoints behind small interfaces so the
// orchestrator never sees provider specifics.
package ai

import (
	"context"
	"io"
)

// TextGenerator generates text from a system prompt and user prompt.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Transcriber converts an audio clip into a best-effort transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}
