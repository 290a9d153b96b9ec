package upload

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

// ErrEmptyFilename is returned when a file name sanitizes to nothing
var ErrEmptyFilename = errors.New("empty filename")

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// Dir is a directory holding uploaded files until their text has been extracted
type Dir struct {
	path string
}

// NewDir creates the directory if needed
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Dir{path: path}, nil
}

// Path returns the directory location
func (d *Dir) Path() string {
	return d.path
}

// SecureFilename reduces a client supplied name to a safe base name.
// Accented letters are decomposed first so they keep their base letter.
func SecureFilename(name string) string {
	name = norm.NFKD.String(name)
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}

// Save writes r into the directory under a unique name that keeps the
// extension of filename, and returns the stored path
func (d *Dir) Save(filename string, r io.Reader) (string, error) {
	safe := SecureFilename(filename)
	if safe == "" {
		return "", ErrEmptyFilename
	}

	path := filepath.Join(d.path, uuid.NewString()+"_"+safe)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", fmt.Errorf("creating upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("writing upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing upload file: %w", err)
	}

	return path, nil
}

// Remove deletes a stored file; a file that is already gone is not an error
func (d *Dir) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing upload file: %w", err)
	}
	return nil
}

// Sweep removes regular files last modified more than maxAge ago and returns
// how many were removed
func (d *Dir) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("reading upload directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := d.Remove(filepath.Join(d.path, entry.Name())); err != nil {
			log.Printf("Warning: %v", err)
			continue
		}
		removed++
	}

	return removed, nil
}
