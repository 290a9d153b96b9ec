package document

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var errInvalidUTF8 = errors.New("invalid utf-8")

type textEncoding struct {
	name   string
	decode func([]byte) (string, error)
}

// Tried in order; the first decode that yields non-blank text wins
var textEncodings = []textEncoding{
	{"utf-8", decodeUTF8},
	{"latin-1", decodeCharmap(charmap.ISO8859_1)},
	{"cp1252", decodeCharmap(charmap.Windows1252)},
	{"iso-8859-1", decodeCharmap(charmap.ISO8859_1)},
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errInvalidUTF8
	}
	return string(data), nil
}

func decodeCharmap(cm *charmap.Charmap) func([]byte) (string, error) {
	return func(data []byte) (string, error) {
		out, err := cm.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

// normalizeNewlines converts \r\n and lone \r line endings to \n
func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

func extractTXT(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading text file: %w", err)
	}

	decoded := false
	for _, enc := range textEncodings {
		text, err := enc.decode(data)
		if err != nil {
			continue
		}
		decoded = true

		text = normalizeNewlines(text)
		if strings.TrimSpace(text) != "" {
			return text, nil
		}
	}

	if !decoded {
		return "", ErrUndecodable
	}
	return "", ErrNoText
}
