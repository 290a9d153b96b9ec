package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pep299/document-insight/internal/analyzer"
	"github.com/pep299/document-insight/internal/config"
	"github.com/pep299/document-insight/internal/document"
	"github.com/pep299/document-insight/internal/middleware"
	"github.com/pep299/document-insight/internal/storage"
	"github.com/pep299/document-insight/internal/upload"
)

// Version is reported by the health and status endpoints
var Version = "dev"

// DocumentSource lists and fetches documents kept outside the server
type DocumentSource interface {
	List(ctx context.Context) ([]storage.Object, error)
	Download(ctx context.Context, name, dir string) (string, error)
}

// Server holds the HTTP server and its dependencies
type Server struct {
	config    *config.Config
	analyzer  *analyzer.Analyzer
	extractor *document.Extractor
	uploads   *upload.Dir
	source    DocumentSource
	closer    func() error
}

// NewServer creates a new HTTP server. Cloud Storage is only connected when
// a bucket is configured.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	uploads, err := upload.NewDir(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	s := NewServerWithDeps(cfg, analyzer.New(), document.NewExtractor(), uploads, nil)

	if cfg.StorageEnabled() {
		bucket, err := storage.NewBucket(ctx, storage.Options{
			Bucket:          cfg.GCSBucket,
			Prefix:          cfg.GCSPrefix,
			Endpoint:        cfg.GCSEndpoint,
			CredentialsFile: cfg.GCSCredentialsFile,
		})
		if err != nil {
			return nil, fmt.Errorf("creating document source: %w", err)
		}
		s.source = bucket
		s.closer = bucket.Close
		log.Printf("Reading documents from gs://%s/%s", cfg.GCSBucket, cfg.GCSPrefix)
	}

	return s, nil
}

// NewServerWithDeps creates a server from already constructed dependencies.
// source may be nil, which disables the document endpoints.
func NewServerWithDeps(cfg *config.Config, a *analyzer.Analyzer, e *document.Extractor, uploads *upload.Dir, source DocumentSource) *Server {
	return &Server{
		config:    cfg,
		analyzer:  a,
		extractor: e,
		uploads:   uploads,
		source:    source,
	}
}

// Uploads returns the directory holding in-flight uploads
func (s *Server) Uploads() *upload.Dir {
	return s.uploads
}

// Close releases the document source
func (s *Server) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	// API routes
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.CORS(s.config.AllowedOrigins))
	api.Use(middleware.Logging)

	// Health check
	api.HandleFunc("/health", s.healthHandler).Methods("GET")

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(s.config.APIAuthToken))

	protected.HandleFunc("/status", s.statusHandler).Methods("GET", "OPTIONS")

	// Text analysis
	protected.HandleFunc("/upload", s.uploadHandler).Methods("POST", "OPTIONS")
	protected.HandleFunc("/summarize", s.summarizeHandler).Methods("POST", "OPTIONS")
	protected.HandleFunc("/ask", s.askHandler).Methods("POST", "OPTIONS")

	// Stored documents
	protected.HandleFunc("/documents", s.listDocumentsHandler).Methods("GET", "OPTIONS")
	protected.HandleFunc("/documents/extract", s.extractDocumentHandler).Methods("POST", "OPTIONS")

	return r
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
		"version":   Version,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
