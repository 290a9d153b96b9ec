package document

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

const docxBody = "word/document.xml"

func extractDOCX(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("reading docx: %w", err)
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("%w: opening docx: %v", ErrUnreadable, err)
	}

	for _, zf := range zr.File {
		if zf.Name != docxBody {
			continue
		}

		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("%w: opening %s: %v", ErrUnreadable, docxBody, err)
		}
		defer rc.Close()

		content, err := parseDocumentXML(rc)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return content.text()
	}

	return "", fmt.Errorf("%w: opening docx: missing %s", ErrUnreadable, docxBody)
}

// docxContent is the body text of a document: top-level paragraphs and the
// cell text of top-level tables
type docxContent struct {
	paragraphs []string
	rows       [][]string
}

// text renders paragraphs one per line followed by table rows, one row per
// line with cells separated by spaces
func (c docxContent) text() (string, error) {
	var b strings.Builder

	for _, p := range c.paragraphs {
		if strings.TrimSpace(p) != "" {
			b.WriteString(p)
			b.WriteString("\n")
		}
	}

	for _, row := range c.rows {
		for _, cell := range row {
			if strings.TrimSpace(cell) != "" {
				b.WriteString(cell)
				b.WriteString(" ")
			}
		}
		b.WriteString("\n")
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

func parseDocumentXML(r io.Reader) (docxContent, error) {
	var (
		content    docxContent
		para       strings.Builder
		cell       []string
		row        []string
		tableDepth int
		paraDepth  int
		runDepth   int
		inText     bool
	)

	collecting := func() bool {
		return paraDepth == 1 && tableDepth <= 1
	}

	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return content, fmt.Errorf("parsing %s: %w", docxBody, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				tableDepth++
			case "tr":
				if tableDepth == 1 {
					row = nil
				}
			case "tc":
				if tableDepth == 1 {
					cell = nil
				}
			case "p":
				paraDepth++
				if paraDepth == 1 {
					para.Reset()
				}
			case "r":
				runDepth++
			case "t":
				inText = runDepth > 0
			case "tab":
				if runDepth > 0 && collecting() {
					para.WriteString("\t")
				}
			case "br", "cr":
				if runDepth > 0 && collecting() {
					para.WriteString("\n")
				}
			}

		case xml.CharData:
			if inText && collecting() {
				para.Write(t)
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "p":
				if paraDepth == 1 {
					switch tableDepth {
					case 0:
						content.paragraphs = append(content.paragraphs, para.String())
					case 1:
						cell = append(cell, para.String())
					}
				}
				if paraDepth > 0 {
					paraDepth--
				}
			case "tc":
				if tableDepth == 1 {
					row = append(row, strings.Join(cell, "\n"))
				}
			case "tr":
				if tableDepth == 1 {
					content.rows = append(content.rows, row)
				}
			case "tbl":
				if tableDepth > 0 {
					tableDepth--
				}
			}
		}
	}

	return content, nil
}
