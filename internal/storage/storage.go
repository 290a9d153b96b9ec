package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/pep299/document-insight/internal/document"
)

var (
	// ErrNotConfigured is returned when no bucket has been configured
	ErrNotConfigured = errors.New("cloud storage not configured")
	// ErrObjectNotFound is returned when the requested object does not exist
	ErrObjectNotFound = errors.New("object not found")
	// ErrInvalidObject is returned for object names outside the configured prefix
	ErrInvalidObject = errors.New("invalid object name")
)

// Options configures the Cloud Storage client
type Options struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	CredentialsFile string
}

// Object describes a stored document
type Object struct {
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type,omitempty"`
	Updated     time.Time `json:"updated"`
}

// Bucket reads source documents from a Cloud Storage bucket
type Bucket struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewBucket creates a Cloud Storage backed document source
func NewBucket(ctx context.Context, opts Options) (*Bucket, error) {
	if opts.Bucket == "" {
		return nil, ErrNotConfigured
	}

	client, err := storage.NewClient(ctx, clientOptions(opts)...)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}

	return &Bucket{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
	}, nil
}

func clientOptions(opts Options) []option.ClientOption {
	var clientOpts []option.ClientOption
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	} else if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	return clientOpts
}

// List returns the objects under the configured prefix that ExtractText can handle
func (b *Bucket) List(ctx context.Context) ([]Object, error) {
	it := b.client.Bucket(b.bucket).Objects(ctx, &storage.Query{Prefix: b.prefix})

	var objects []Object
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}

		if !document.AllowedFile(attrs.Name) {
			continue
		}

		objects = append(objects, Object{
			Name:        attrs.Name,
			Size:        attrs.Size,
			ContentType: attrs.ContentType,
			Updated:     attrs.Updated,
		})
	}

	return objects, nil
}

// Download copies an object into dir, keeping its base name after a unique
// prefix, and returns the local path. The caller removes the file.
func (b *Bucket) Download(ctx context.Context, name, dir string) (string, error) {
	if err := b.validateName(name); err != nil {
		return "", err
	}

	reader, err := b.client.Bucket(b.bucket).Object(name).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return "", fmt.Errorf("%w: %s", ErrObjectNotFound, name)
		}
		return "", fmt.Errorf("opening object reader: %w", err)
	}
	defer reader.Close()

	f, err := os.CreateTemp(dir, "gcs-*-"+path.Base(name))
	if err != nil {
		return "", fmt.Errorf("creating local file: %w", err)
	}

	if _, err := io.Copy(f, reader); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("reading object data: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing local file: %w", err)
	}

	return filepath.Clean(f.Name()), nil
}

// validateName rejects names outside the prefix and names without a
// supported extension
func (b *Bucket) validateName(name string) error {
	if name == "" || strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidObject, name)
	}
	if !strings.HasPrefix(name, b.prefix) {
		return fmt.Errorf("%w: %q is outside %q", ErrInvalidObject, name, b.prefix)
	}
	if !document.AllowedFile(name) {
		return fmt.Errorf("%w: %q has an unsupported extension", ErrInvalidObject, name)
	}
	return nil
}

// Close releases the storage client
func (b *Bucket) Close() error {
	return b.client.Close()
}
