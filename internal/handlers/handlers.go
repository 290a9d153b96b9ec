package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/pep299/document-insight/internal/document"
	"github.com/pep299/document-insight/internal/response"
	"github.com/pep299/document-insight/internal/storage"
	"github.com/pep299/document-insight/internal/summarizer"
	"github.com/pep299/document-insight/internal/upload"
)

const (
	minDocumentChars = 10
	minSummaryChars  = 50
	minContextChars  = 10

	// multipart parts beyond this stay on disk while parsing
	multipartMemory = 8 << 20

	unsupportedFileMessage = "File type not supported. Please upload PDF, TXT, or DOCX files."
	noTextMessage          = "Could not extract meaningful text from the document"
)

// DocumentStats describes extracted text
type DocumentStats struct {
	WordCount int    `json:"word_count"`
	CharCount int    `json:"char_count"`
	Filename  string `json:"filename"`
}

// DocumentResult is returned by the upload and extract endpoints
type DocumentResult struct {
	Text  string        `json:"text"`
	Stats DocumentStats `json:"stats"`
}

// SummarizeRequest is the body of POST /summarize
type SummarizeRequest struct {
	Text   *string `json:"text"`
	Length string  `json:"length"`
}

// SummarizeResult is returned by the summarize endpoint
type SummarizeResult struct {
	Summary string                  `json:"summary"`
	Stats   summarizer.SummaryStats `json:"stats"`
}

// AskRequest is the body of POST /ask
type AskRequest struct {
	Question *string `json:"question"`
	Context  *string `json:"context"`
}

// AskResult is returned by the ask endpoint
type AskResult struct {
	Answer   string `json:"answer"`
	Question string `json:"question"`
}

// ExtractRequest is the body of POST /documents/extract
type ExtractRequest struct {
	Object string `json:"object"`
}

// statusHandler returns system status
func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	availability := s.analyzer.Availability()

	response.WriteSuccess(w, "running", map[string]interface{}{
		"version":         Version,
		"summarizer":      availability.Summarizer,
		"qa":              availability.QA,
		"storage_enabled": s.source != nil,
		"max_upload_mb":   s.config.MaxUploadMB,
	})
}

// uploadHandler stores a multipart upload, extracts its text and removes it
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes())

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.WriteTooLarge(w, fmt.Sprintf("File too large. Maximum size is %dMB.", s.config.MaxUploadMB))
			return
		}
		response.WriteBadRequest(w, "No file uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		response.WriteBadRequest(w, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		response.WriteBadRequest(w, "No file selected")
		return
	}

	if !document.AllowedFile(header.Filename) {
		response.WriteBadRequest(w, unsupportedFileMessage)
		return
	}

	stored, err := s.uploads.Save(header.Filename, file)
	if err != nil {
		if errors.Is(err, upload.ErrEmptyFilename) {
			response.WriteBadRequest(w, "No file selected")
			return
		}
		log.Printf("Error saving upload %q: %v", header.Filename, err)
		response.WriteInternalError(w, fmt.Sprintf("Error processing file: %v", err))
		return
	}

	s.writeExtracted(w, stored, upload.SecureFilename(header.Filename))
}

// writeExtracted extracts the text of a stored file, removes the file and
// writes the result
func (s *Server) writeExtracted(w http.ResponseWriter, stored, filename string) {
	defer func() {
		if err := s.uploads.Remove(stored); err != nil {
			log.Printf("Error removing %s: %v", stored, err)
		}
	}()

	text, err := s.extractor.ExtractText(stored)
	switch {
	case errors.Is(err, document.ErrUnsupportedFormat):
		response.WriteBadRequest(w, unsupportedFileMessage)
		return
	case errors.Is(err, document.ErrNoText), errors.Is(err, document.ErrUndecodable), errors.Is(err, document.ErrUnreadable):
		response.WriteBadRequest(w, noTextMessage)
		return
	case err != nil:
		response.WriteInternalError(w, "Error processing file")
		return
	}

	if utf8.RuneCountInString(strings.TrimSpace(text)) < minDocumentChars {
		response.WriteBadRequest(w, noTextMessage)
		return
	}

	response.WriteSuccess(w, "text extracted", DocumentResult{
		Text: text,
		Stats: DocumentStats{
			WordCount: len(strings.Fields(text)),
			CharCount: utf8.RuneCountInString(text),
			Filename:  filename,
		},
	})
}

// summarizeHandler summarizes the posted text
func (s *Server) summarizeHandler(w http.ResponseWriter, r *http.Request) {
	var req SummarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == nil {
		response.WriteBadRequest(w, "No text provided for summarization")
		return
	}

	text := *req.Text
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minSummaryChars {
		response.WriteBadRequest(w, "Text is too short to summarize meaningfully")
		return
	}

	summary, err := s.analyzer.SummarizeText(text, summarizer.ParseLength(req.Length))
	if err != nil {
		response.WriteInternalError(w, fmt.Sprintf("Error generating summary: %v", err))
		return
	}
	if summary == "" {
		response.WriteInternalError(w, "Failed to generate summary")
		return
	}

	response.WriteSuccess(w, "summary generated", SummarizeResult{
		Summary: summary,
		Stats:   summarizer.Stats(text, summary),
	})
}

// askHandler answers a question about the posted context
func (s *Server) askHandler(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Question == nil || req.Context == nil {
		response.WriteBadRequest(w, "Question and context are required")
		return
	}

	question := strings.TrimSpace(*req.Question)
	if question == "" {
		response.WriteBadRequest(w, "Please provide a question")
		return
	}

	if utf8.RuneCountInString(strings.TrimSpace(*req.Context)) < minContextChars {
		response.WriteBadRequest(w, "Context is too short to answer questions meaningfully")
		return
	}

	answer, err := s.analyzer.AnswerQuestion(question, *req.Context)
	if err != nil {
		response.WriteInternalError(w, fmt.Sprintf("Error answering question: %v", err))
		return
	}
	if answer == "" {
		response.WriteInternalError(w, "Could not generate an answer to your question")
		return
	}

	response.WriteSuccess(w, "answer generated", AskResult{
		Answer:   answer,
		Question: question,
	})
}

// listDocumentsHandler lists the documents available in Cloud Storage
func (s *Server) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		response.WriteUnavailable(w, "Cloud Storage is not configured")
		return
	}

	objects, err := s.source.List(r.Context())
	if err != nil {
		log.Printf("Error listing documents: %v", err)
		response.WriteInternalError(w, fmt.Sprintf("Error listing documents: %v", err))
		return
	}
	if objects == nil {
		objects = []storage.Object{}
	}

	response.WriteSuccess(w, "documents listed", map[string]interface{}{
		"documents": objects,
		"count":     len(objects),
	})
}

// extractDocumentHandler downloads a stored document and extracts its text
func (s *Server) extractDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if s.source == nil {
		response.WriteUnavailable(w, "Cloud Storage is not configured")
		return
	}

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Object == "" {
		response.WriteBadRequest(w, "Object name is required")
		return
	}

	stored, err := s.source.Download(r.Context(), req.Object, s.uploads.Path())
	switch {
	case errors.Is(err, storage.ErrInvalidObject):
		response.WriteBadRequest(w, err.Error())
		return
	case errors.Is(err, storage.ErrObjectNotFound):
		response.WriteNotFound(w, err.Error())
		return
	case err != nil:
		log.Printf("Error downloading %s: %v", req.Object, err)
		response.WriteInternalError(w, fmt.Sprintf("Error downloading document: %v", err))
		return
	}

	s.writeExtracted(w, stored, path.Base(req.Object))
}
