package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
)

// OpenAICompatTranscriber calls an OpenAI-compatible /v1/audio/transcriptions
// endpoint (whisper-style) and returns the transcript text.
type OpenAICompatTranscriber struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

// NewOpenAICompatTranscriber builds a whisper-style Transcriber.
// baseURL should include the /v1 prefix.
func NewOpenAICompatTranscriber(baseURL, apiKey, model string, timeout time.Duration) *OpenAICompatTranscriber {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &OpenAICompatTranscriber{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(apiKey),
		model:   strings.TrimSpace(model),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Transcribe uploads the audio clip as multipart form data and returns the
// recognized text.
func (t *OpenAICompatTranscriber) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	if t.model == "" {
		return "", fmt.Errorf("transcription model required")
	}
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("model", t.model); err != nil {
		return "", err
	}
	name := filepath.Base(filename)
	if name == "" || name == "." {
		name = "audio.wav"
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, audio); err != nil {
		return "", fmt.Errorf("read audio: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	url := t.baseURL + "/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if t.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+t.apiKey)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp oaiErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error.Message != "" {
			return "", fmt.Errorf("transcription api error: %s", errResp.Error.Message)
		}
		return "", fmt.Errorf("transcription api error: %s", resp.Status)
	}

	var transcription struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&transcription); err != nil {
		return "", fmt.Errorf("transcription decode: %w", err)
	}
	text := strings.TrimSpace(transcription.Text)
	if text == "" {
		return "", fmt.Errorf("empty transcript from transcription api")
	}
	return text, nil
}
