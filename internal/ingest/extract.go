// ABOUTME: Text extraction for the document types the pipeline understands
// ABOUTME: PDF pages go through ledongthuc/pdf, plain text is read as-is
package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/VatsalyaBhadaurya/Naradmuni-chatbot/internal/models"
)

// Extractor turns a file into plain text
type Extractor interface {
	Extract(path string) (string, error)
}

// ExtractorFunc adapts a function to Extractor
type ExtractorFunc func(path string) (string, error)

// Extract calls f(path)
func (f ExtractorFunc) Extract(path string) (string, error) {
	return f(path)
}

// DefaultExtractors maps lower-case file extensions to their extractor
func DefaultExtractors() map[string]Extractor {
	return map[string]Extractor{
		".pdf": ExtractorFunc(ExtractPDF),
		".txt": ExtractorFunc(ExtractText),
	}
}

// ExtractText reads a UTF-8 text file
func ExtractText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrExtractionFailed, path, err)
	}
	return string(data), nil
}

// ExtractPDF returns the plain text of every page in a PDF file
func ExtractPDF(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrExtractionFailed, path, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s: empty file", models.ErrExtractionFailed, path)
	}

	text, err := pdfText(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", models.ErrExtractionFailed, path, err)
	}
	return text, nil
}

func pdfText(data []byte) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	out, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}
