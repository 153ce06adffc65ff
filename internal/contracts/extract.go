// Package contracts extracts text from uploaded agreements and asks the AI
// service for the amounts and tasks they contain.
package contracts

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	// ErrUnsupportedType is returned for files that are neither PDF nor DOCX.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrNoText is returned when a document holds no extractable text.
	ErrNoText = errors.New("no text content could be extracted")
)

// SupportedTypes lists the accepted MIME types in a stable order.
func SupportedTypes() []string {
	return []string{MIMEPDF, MIMEDOCX}
}

// Supported reports whether contentType can be extracted.
func Supported(contentType string) bool {
	switch contentType {
	case MIMEPDF, MIMEDOCX:
		return true
	}
	return false
}

// ResolveType returns the MIME type of an upload. The declared type wins;
// generic or missing types are sniffed from the content.
func ResolveType(declared string, data []byte) string {
	declared = strings.TrimSpace(strings.ToLower(declared))
	if i := strings.IndexByte(declared, ';'); i >= 0 {
		declared = strings.TrimSpace(declared[:i])
	}
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	detected := mimetype.Detect(data)
	for _, t := range SupportedTypes() {
		if detected.Is(t) {
			return t
		}
	}
	return detected.String()
}

// ExtractText returns the plain text of a PDF or DOCX document.
func ExtractText(contentType string, data []byte) (string, error) {
	switch contentType {
	case MIMEPDF:
		return extractPDF(data)
	case MIMEDOCX:
		return extractDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}
}

func extractPDF(data []byte) (text string, err error) {
	// The parser panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to process PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to process PDF: %w", err)
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to process PDF: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("failed to process PDF: %w", err)
	}
	return buf.String(), nil
}

// maxDocumentXMLBytes bounds the decompressed word/document.xml.
var maxDocumentXMLBytes int64 = 16 * DefaultMaxUploadBytes

var errDocumentTooLarge = errors.New("document.xml exceeds size limit")

// capReader fails once more than n bytes have been read.
type capReader struct {
	r io.Reader
	n int64
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.n <= 0 {
		return 0, errDocumentTooLarge
	}
	if int64(len(p)) > c.n {
		p = p[:c.n]
	}
	n, err := c.r.Read(p)
	c.n -= int64(n)
	return n, err
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to process DOCX: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to process DOCX: %w", err)
		}
		defer rc.Close()
		text, err := documentText(&capReader{r: rc, n: maxDocumentXMLBytes})
		if err != nil {
			return "", fmt.Errorf("failed to process DOCX: %w", err)
		}
		return text, nil
	}
	return "", errors.New("failed to process DOCX: word/document.xml not found")
}

// documentText walks WordprocessingML and keeps run text, one line per paragraph.
func documentText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
