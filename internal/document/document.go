// Package document extracts plain text from uploaded documents.
package document

import (
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
)

var (
	// ErrUnsupportedFormat is returned for file extensions with no decoder
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrNoText is returned when a document decodes to blank text
	ErrNoText = errors.New("no text extracted")
	// ErrUndecodable is returned when no text encoding could decode a file
	ErrUndecodable = errors.New("could not decode text file with any encoding")
	// ErrUnreadable is returned when a pdf or docx file is corrupt or malformed
	ErrUnreadable = errors.New("document could not be parsed")
)

// AllowedExtensions lists the lower-case extensions (without dot) ExtractText handles
var AllowedExtensions = []string{"txt", "pdf", "docx"}

// Extractor turns files on disk into plain text
type Extractor struct {
	decoders map[string]func(path string) (string, error)
}

// NewExtractor creates an Extractor for txt, pdf and docx files
func NewExtractor() *Extractor {
	return &Extractor{
		decoders: map[string]func(path string) (string, error){
			".txt":  extractTXT,
			".pdf":  extractPDF,
			".docx": extractDOCX,
		},
	}
}

// ExtractText reads the file at path and returns its text. The decoder is
// chosen by the lower-cased file extension. Errors wrapping ErrNoText,
// ErrUndecodable or ErrUnreadable mean the file holds no usable text; any
// other error is an I/O failure.
func (e *Extractor) ExtractText(path string) (text string, err error) {
	// the pdf reader panics on some malformed input
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Error extracting text from %s: %v", path, r)
			text = ""
			err = fmt.Errorf("%w: %v", ErrUnreadable, r)
		}
	}()

	ext := strings.ToLower(filepath.Ext(path))

	decode, ok := e.decoders[ext]
	if !ok {
		log.Printf("Unsupported file format: %s", ext)
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	text, err = decode(path)
	if err != nil {
		log.Printf("Error extracting text from %s: %v", path, err)
		return "", err
	}

	return text, nil
}

// AllowedFile reports whether a file name carries a supported extension
func AllowedFile(name string) bool {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return false
	}

	ext := strings.ToLower(name[idx+1:])
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

const paragraphBreakWidth = 80

// CleanText trims every line and drops blank ones. A line shorter than 80
// characters is taken as a heading or break and followed by a blank line;
// longer lines are joined with a space.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			if len([]rune(lines[i-1])) < paragraphBreakWidth {
				b.WriteString("\n\n")
			} else {
				b.WriteString(" ")
			}
		}
		b.WriteString(line)
	}

	return strings.TrimSpace(b.String())
}
