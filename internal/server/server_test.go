package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"inspectai/internal/app"
	"inspectai/internal/domain"
	"inspectai/internal/extract"
	"inspectai/internal/store"
)

type fakeGenerator struct{ reply string }

func (f *fakeGenerator) GenerateText(context.Context, string, string) (string, error) {
	return f.reply, nil
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) Transcribe(context.Context, string, io.Reader) (string, error) {
	return f.transcript, f.err
}

type fakeDocuments struct {
	text string
	err  error
}

func (f *fakeDocuments) ExtractFile(string) (string, error) {
	return f.text, f.err
}

type testEnv struct {
	srv     *httptest.Server
	records store.Store
}

func newTestEnv(t *testing.T, gen *fakeGenerator, tr *fakeTranscriber, docs *fakeDocuments, serverCfg Config) testEnv {
	t.Helper()
	dataStore := store.NewMemoryStore()
	a, err := app.New(app.Config{
		Store:       dataStore,
		Sessions:    store.NewJWTSessionStore("test-secret", time.Hour, store.NewMemoryTokenRevoker()),
		Generator:   gen,
		Transcriber: tr,
		Documents:   docs,
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	redis := miniredis.RunT(t)
	serverCfg.App = a
	serverCfg.RedisAddr = redis.Addr()
	s, err := New(serverCfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return testEnv{srv: srv, records: dataStore}
}

func postJSON(t *testing.T, url, token string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func signup(t *testing.T, env testEnv, username string) (domain.User, string) {
	t.Helper()
	resp := postJSON(t, env.srv.URL+"/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Str0ngPassword",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}
	body := decodeBody[struct {
		Token string      `json:"token"`
		User  domain.User `json:"user"`
	}](t, resp)
	return body.User, body.Token
}

func TestSignupAndRecordOwnership(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{})
	_, ownerToken := signup(t, env, "owner")
	_, otherToken := signup(t, env, "other")

	resp := postJSON(t, env.srv.URL+"/api/records", ownerToken, map[string]any{
		"fields": map[string]string{extract.KeyLocation: "Berlin"},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create record status = %d, want 201", resp.StatusCode)
	}
	record := decodeBody[domain.InspectionRecord](t, resp)
	if record.Fields[extract.KeyDevice] != "Unknown" {
		t.Fatalf("device = %q, want backfilled Unknown", record.Fields[extract.KeyDevice])
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/records", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken)
	listResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	list := decodeBody[struct {
		Count int `json:"count"`
	}](t, listResp)
	if list.Count != 1 {
		t.Fatalf("owner record count = %d, want 1", list.Count)
	}

	// Foreign record reads as missing.
	req, _ = http.NewRequest(http.MethodGet, env.srv.URL+"/api/records/"+record.ID, nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	foreignResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get foreign record: %v", err)
	}
	foreignResp.Body.Close()
	if foreignResp.StatusCode != http.StatusNotFound {
		t.Fatalf("foreign record status = %d, want 404", foreignResp.StatusCode)
	}
}

func TestRecordSubmissionRequiresSession(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{})

	resp := postJSON(t, env.srv.URL+"/api/records", "", map[string]any{
		"fields": map[string]string{extract.KeyLocation: "Berlin"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}

	resp = postJSON(t, env.srv.URL+"/api/records", "not-a-token", map[string]any{
		"fields": map[string]string{extract.KeyLocation: "Berlin"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("garbage token status = %d, want 401", resp.StatusCode)
	}

	records, err := env.records.ListRecords()
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records persisted without session: %d", len(records))
	}
}

func TestDuplicateSignupConflicts(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{})
	signup(t, env, "inspector")

	resp := postJSON(t, env.srv.URL+"/api/auth/signup", "", map[string]string{
		"username": "inspector",
		"password": "Str0ngPassword",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", resp.StatusCode)
	}
}

func TestSignupRateLimited(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{SignupRateLimitPerMinute: 2})

	for i := 0; i < 2; i++ {
		resp := postJSON(t, env.srv.URL+"/api/auth/signup", "", map[string]string{
			"username": "user-" + string(rune('a'+i)),
			"password": "Str0ngPassword",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("signup %d status = %d, want 201", i, resp.StatusCode)
		}
	}
	resp := postJSON(t, env.srv.URL+"/api/auth/signup", "", map[string]string{
		"username": "user-c",
		"password": "Str0ngPassword",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("third signup status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "60" {
		t.Fatalf("Retry-After = %q, want 60", resp.Header.Get("Retry-After"))
	}
}

func TestLogoutInvalidatesToken(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{})
	_, token := signup(t, env, "inspector")

	resp := postJSON(t, env.srv.URL+"/api/auth/logout", token, struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, env.srv.URL+"/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	meResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("me request: %v", err)
	}
	meResp.Body.Close()
	if meResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me after logout status = %d, want 401", meResp.StatusCode)
	}
}

func TestExtractTextNormalizesReply(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{reply: "Ort: Berlin\nDatum: 3. März 2024"}, &fakeTranscriber{}, &fakeDocuments{}, Config{})

	resp := postJSON(t, env.srv.URL+"/api/extract/text", "", map[string]string{"text": "Prüfung in Berlin"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[struct {
		Fields map[string]string `json:"fields"`
	}](t, resp)
	if body.Fields[extract.KeyLocation] != "Berlin" {
		t.Fatalf("location = %q, want Berlin", body.Fields[extract.KeyLocation])
	}
	if body.Fields[extract.KeyDate] != "2024-03-03" {
		t.Fatalf("date = %q, want 2024-03-03", body.Fields[extract.KeyDate])
	}
}

func postMultipart(t *testing.T, url, fileField, filename string, content []byte, extraFields map[string]string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(fileField, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	for k, v := range extraFields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	mw.Close()
	resp, err := http.Post(url, mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatalf("post multipart: %v", err)
	}
	return resp
}

func TestExtractDocumentUpload(t *testing.T) {
	gen := &fakeGenerator{reply: `{"Gerät": "Pumpe 7"}`}
	env := newTestEnv(t, gen, &fakeTranscriber{}, &fakeDocuments{text: "scanned text"}, Config{})

	resp := postMultipart(t, env.srv.URL+"/api/extract/document", "file", "form.png", []byte("img-bytes"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[domain.ExtractionResult](t, resp)
	if body.Text != "scanned text" {
		t.Fatalf("text = %q", body.Text)
	}
	if body.Fields[extract.KeyDevice] != "Pumpe 7" {
		t.Fatalf("device = %q, want Pumpe 7", body.Fields[extract.KeyDevice])
	}
}

func TestExtractDocumentBadExtension(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{})
	resp := postMultipart(t, env.srv.URL+"/api/extract/document", "file", "form.docx", []byte("x"), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestExtractDocumentOCRFailure(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{err: errors.New("tesseract crashed")}, Config{})
	resp := postMultipart(t, env.srv.URL+"/api/extract/document", "file", "form.png", []byte("x"), nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

func TestExtractVoiceWithKnownFields(t *testing.T) {
	gen := &fakeGenerator{reply: "Standort: Halle 3"}
	env := newTestEnv(t, gen, &fakeTranscriber{transcript: "wir sind in Halle 3"}, &fakeDocuments{}, Config{})

	resp := postMultipart(t, env.srv.URL+"/api/extract/voice", "audio", "clip.wav", []byte("riff"), map[string]string{
		"fields": `["Standort","Gerät"]`,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body := decodeBody[domain.Transcription](t, resp)
	if body.Transcript != "wir sind in Halle 3" {
		t.Fatalf("transcript = %q", body.Transcript)
	}
	if body.Fields[extract.KeyLocation] != "Halle 3" {
		t.Fatalf("location = %q, want Halle 3", body.Fields[extract.KeyLocation])
	}
}

func TestExtractVoiceRejectsBadFieldsJSON(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{transcript: "x"}, &fakeDocuments{}, Config{})
	resp := postMultipart(t, env.srv.URL+"/api/extract/voice", "audio", "clip.wav", []byte("riff"), map[string]string{
		"fields": "not json",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, &fakeGenerator{}, &fakeTranscriber{}, &fakeDocuments{}, Config{})
	resp, err := http.Get(env.srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q, want nosniff", got)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("status field = %q, want ok", body.Status)
	}
}
