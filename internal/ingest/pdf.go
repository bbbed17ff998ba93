package ingest

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ExtractText pulls the plain text out of a PDF file.
func ExtractText(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}
	defer f.Close()

	textReader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from %s: %w", path, err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", fmt.Errorf("failed to read text from %s: %w", path, err)
	}

	return buf.String(), nil
}
