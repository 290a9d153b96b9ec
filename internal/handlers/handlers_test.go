package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/pep299/document-insight/internal/analyzer"
	"github.com/pep299/document-insight/internal/config"
	"github.com/pep299/document-insight/internal/document"
	"github.com/pep299/document-insight/internal/response"
	"github.com/pep299/document-insight/internal/storage"
	"github.com/pep299/document-insight/internal/upload"
)

const article = "The city council approved a new transit plan. " +
	"The transit plan adds three bus lines across the city. " +
	"Residents asked for more bike lanes during the hearing. " +
	"Council members said the transit plan will cost 40 million dollars. " +
	"Construction of the new bus lines starts next spring. " +
	"A local bakery won an award for its sourdough."

// fakeSource serves documents from memory
type fakeSource struct {
	objects  []storage.Object
	contents map[string]string
	vanished map[string]bool
	listErr  error
}

func (f *fakeSource) List(ctx context.Context) ([]storage.Object, error) {
	return f.objects, f.listErr
}

func (f *fakeSource) Download(ctx context.Context, name, dir string) (string, error) {
	if strings.Contains(name, "..") {
		return "", storage.ErrInvalidObject
	}
	content, ok := f.contents[name]
	if !ok {
		return "", storage.ErrObjectNotFound
	}
	local := filepath.Join(dir, "gcs-test-"+path.Base(name))
	if f.vanished[name] {
		return local, nil
	}
	if err := os.WriteFile(local, []byte(content), 0o600); err != nil {
		return "", err
	}
	return local, nil
}

func newTestServer(t *testing.T, token string, source DocumentSource) (*mux.Router, *upload.Dir) {
	t.Helper()

	uploads, err := upload.NewDir(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create upload dir: %v", err)
	}

	cfg := &config.Config{
		AllowedOrigins: []string{"*"},
		APIAuthToken:   token,
		UploadDir:      uploads.Path(),
		MaxUploadMB:    1,
	}

	s := NewServerWithDeps(cfg, analyzer.New(), document.NewExtractor(), uploads, source)
	return s.SetupRoutes(), uploads
}

func postJSON(t *testing.T, router http.Handler, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", target, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func postFile(t *testing.T, router http.Handler, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) (response.Response, map[string]interface{}) {
	t.Helper()

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	data, _ := resp.Data.(map[string]interface{})
	return resp, data
}

func strPtr(s string) *string {
	return &s
}

func TestHealthHandler(t *testing.T) {
	router, _ := newTestServer(t, "secret", nil)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status 'ok', got '%v'", body["status"])
	}
	if body["version"] != Version {
		t.Errorf("Expected version '%s', got '%v'", Version, body["version"])
	}
}

func TestStatusRequiresAuth(t *testing.T) {
	router, _ := newTestServer(t, "secret", nil)

	req := httptest.NewRequest("GET", "/api/v1/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("Expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/status", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	_, data := decode(t, w)
	if data["summarizer"] != true || data["qa"] != true {
		t.Errorf("Expected both capabilities available, got %v", data)
	}
	if data["storage_enabled"] != false {
		t.Errorf("Expected storage to be disabled, got %v", data["storage_enabled"])
	}
}

func TestSummarizeHandler(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	w := postJSON(t, router, "/api/v1/summarize", SummarizeRequest{Text: strPtr(article), Length: "short"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	resp, data := decode(t, w)
	if resp.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", resp.Status)
	}

	summary, _ := data["summary"].(string)
	if !strings.HasSuffix(summary, ".") || strings.Contains(summary, "sourdough") {
		t.Errorf("Unexpected summary '%s'", summary)
	}

	stats, _ := data["stats"].(map[string]interface{})
	if stats["original_words"] != float64(len(strings.Fields(article))) {
		t.Errorf("Expected original_words %d, got %v", len(strings.Fields(article)), stats["original_words"])
	}
	if stats["summary_words"] != float64(len(strings.Fields(summary))) {
		t.Errorf("Expected summary_words %d, got %v", len(strings.Fields(summary)), stats["summary_words"])
	}
	if ratio, _ := stats["compression_ratio"].(float64); ratio <= 0 || ratio >= 100 {
		t.Errorf("Expected compression ratio between 0 and 100, got %v", stats["compression_ratio"])
	}
}

func TestSummarizeHandlerValidation(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"missing text", map[string]string{"length": "short"}, "No text provided for summarization"},
		{"short text", SummarizeRequest{Text: strPtr("   Too short to summarize.   ")}, "Text is too short to summarize meaningfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/summarize", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			resp, _ := decode(t, w)
			if resp.Error != tt.message {
				t.Errorf("Expected error '%s', got '%s'", tt.message, resp.Error)
			}
		})
	}
}

func TestSummarizeHandlerInvalidJSON(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	req := httptest.NewRequest("POST", "/api/v1/summarize", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestAskHandler(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	w := postJSON(t, router, "/api/v1/ask", AskRequest{
		Question: strPtr("  How much will the transit plan cost?  "),
		Context:  strPtr(article),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	_, data := decode(t, w)
	if data["answer"] != "40 million" {
		t.Errorf("Expected answer '40 million', got '%v'", data["answer"])
	}
	if data["question"] != "How much will the transit plan cost?" {
		t.Errorf("Expected trimmed question, got '%v'", data["question"])
	}
}

func TestAskHandlerValidation(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	tests := []struct {
		name    string
		body    interface{}
		message string
	}{
		{"missing context", map[string]string{"question": "What is it?"}, "Question and context are required"},
		{"missing question", map[string]string{"context": article}, "Question and context are required"},
		{"blank question", AskRequest{Question: strPtr("   "), Context: strPtr(article)}, "Please provide a question"},
		{"short context", AskRequest{Question: strPtr("What?"), Context: strPtr(" tiny ")}, "Context is too short to answer questions meaningfully"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/ask", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
			resp, _ := decode(t, w)
			if resp.Error != tt.message {
				t.Errorf("Expected error '%s', got '%s'", tt.message, resp.Error)
			}
		})
	}
}

func TestAskHandlerNoAnswerFallback(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	w := postJSON(t, router, "/api/v1/ask", AskRequest{
		Question: strPtr("Who painted the ceiling?"),
		Context:  strPtr(article),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	_, data := decode(t, w)
	if answer, _ := data["answer"].(string); !strings.HasPrefix(answer, "I couldn't find an answer") {
		t.Errorf("Expected no-answer fallback, got '%s'", answer)
	}
}

func TestUploadHandler(t *testing.T) {
	router, uploads := newTestServer(t, "", nil)

	w := postFile(t, router, "../transit notes.txt", []byte(article))
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	_, data := decode(t, w)
	if data["text"] != article {
		t.Errorf("Expected extracted text to match upload, got '%v'", data["text"])
	}

	stats, _ := data["stats"].(map[string]interface{})
	if stats["filename"] != "transit_notes.txt" {
		t.Errorf("Expected filename 'transit_notes.txt', got '%v'", stats["filename"])
	}
	if stats["word_count"] != float64(len(strings.Fields(article))) {
		t.Errorf("Expected word_count %d, got %v", len(strings.Fields(article)), stats["word_count"])
	}
	if stats["char_count"] != float64(len(article)) {
		t.Errorf("Expected char_count %d, got %v", len(article), stats["char_count"])
	}

	entries, err := os.ReadDir(uploads.Path())
	if err != nil {
		t.Fatalf("Failed to read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected upload to be removed, found %d files", len(entries))
	}
}

func TestUploadHandlerRejections(t *testing.T) {
	router, uploads := newTestServer(t, "", nil)

	tests := []struct {
		name     string
		filename string
		content  []byte
		status   int
		message  string
	}{
		{"unsupported extension", "photo.png", []byte("not text"), http.StatusBadRequest, unsupportedFileMessage},
		{"no extension", "README", []byte(article), http.StatusBadRequest, unsupportedFileMessage},
		{"too little text", "short.txt", []byte("  tiny  "), http.StatusBadRequest, noTextMessage},
		{"blank text", "blank.txt", []byte("\n\n   \n"), http.StatusBadRequest, noTextMessage},
		{"broken pdf", "broken.pdf", []byte("not a pdf"), http.StatusBadRequest, noTextMessage},
		{"broken docx", "broken.docx", []byte("not a zip archive"), http.StatusBadRequest, noTextMessage},
		{"too large", "big.txt", bytes.Repeat([]byte("a"), 2<<20), http.StatusRequestEntityTooLarge, "File too large. Maximum size is 1MB."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postFile(t, router, tt.filename, tt.content)
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			resp, _ := decode(t, w)
			if tt.message != "" && resp.Error != tt.message {
				t.Errorf("Expected error '%s', got '%s'", tt.message, resp.Error)
			}
		})
	}

	entries, _ := os.ReadDir(uploads.Path())
	if len(entries) != 0 {
		t.Errorf("Expected no files left behind, found %d", len(entries))
	}
}

func TestUploadHandlerMissingFile(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	mw.WriteField("note", "no file here")
	mw.Close()

	req := httptest.NewRequest("POST", "/api/v1/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	resp, _ := decode(t, w)
	if resp.Error != "No file uploaded" {
		t.Errorf("Expected 'No file uploaded', got '%s'", resp.Error)
	}
}

func TestDocumentsUnavailableWithoutStorage(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}

	w = postJSON(t, router, "/api/v1/documents/extract", ExtractRequest{Object: "documents/a.txt"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestListDocumentsHandler(t *testing.T) {
	source := &fakeSource{objects: []storage.Object{
		{Name: "documents/a.txt", Size: 10},
		{Name: "documents/b.pdf", Size: 20},
	}}
	router, _ := newTestServer(t, "", source)

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	_, data := decode(t, w)
	if data["count"] != float64(2) {
		t.Errorf("Expected count 2, got %v", data["count"])
	}
}

func TestListDocumentsHandlerError(t *testing.T) {
	router, _ := newTestServer(t, "", &fakeSource{listErr: errors.New("bucket gone")})

	req := httptest.NewRequest("GET", "/api/v1/documents", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestExtractDocumentHandler(t *testing.T) {
	source := &fakeSource{contents: map[string]string{"documents/transit.txt": article}}
	router, uploads := newTestServer(t, "", source)

	tests := []struct {
		name   string
		object string
		status int
	}{
		{"found", "documents/transit.txt", http.StatusOK},
		{"missing", "documents/other.txt", http.StatusNotFound},
		{"invalid", "documents/../secret.txt", http.StatusBadRequest},
		{"empty", "", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, router, "/api/v1/documents/extract", ExtractRequest{Object: tt.object})
			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			_, data := decode(t, w)
			if data["text"] != article {
				t.Errorf("Expected document text, got '%v'", data["text"])
			}
			stats, _ := data["stats"].(map[string]interface{})
			if stats["filename"] != "transit.txt" {
				t.Errorf("Expected filename 'transit.txt', got '%v'", stats["filename"])
			}
		})
	}

	entries, _ := os.ReadDir(uploads.Path())
	if len(entries) != 0 {
		t.Errorf("Expected downloaded files to be removed, found %d", len(entries))
	}
}

func TestExtractDocumentHandlerReadFailure(t *testing.T) {
	source := &fakeSource{
		contents: map[string]string{"documents/gone.pdf": ""},
		vanished: map[string]bool{"documents/gone.pdf": true},
	}
	router, _ := newTestServer(t, "", source)

	w := postJSON(t, router, "/api/v1/documents/extract", ExtractRequest{Object: "documents/gone.pdf"})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusInternalServerError, w.Code, w.Body.String())
	}

	resp, _ := decode(t, w)
	if resp.Error != "Error processing file" {
		t.Errorf("Expected generic error message, got '%s'", resp.Error)
	}
}

func TestPreflightSkipsAuth(t *testing.T) {
	router, _ := newTestServer(t, "secret", nil)

	req := httptest.NewRequest("OPTIONS", "/api/v1/ask", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected CORS header '*', got '%s'", got)
	}
}

func TestInvalidRoute(t *testing.T) {
	router, _ := newTestServer(t, "", nil)

	req := httptest.NewRequest("GET", "/invalid/route", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
