package parser

import (
	"bytes"
	"fmt"

	ledongthuc "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// ParsePDF extracts the plain text of a PDF file. The file is validated with
// pdfcpu first so corrupt uploads fail fast; extraction failures are reported
// to the caller, which treats them as non-fatal (the file record is kept
// without searchable text).
func ParsePDF(path string) (string, int, error) {
	conf := api.LoadConfiguration()
	if err := api.ValidateFile(path, conf); err != nil {
		return "", 0, fmt.Errorf("invalid PDF: %w", err)
	}

	pages, err := api.PageCountFile(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to count pages: %w", err)
	}

	f, reader, err := ledongthuc.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	textReader, err := reader.GetPlainText()
	if err != nil {
		return "", 0, fmt.Errorf("failed to extract text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(textReader); err != nil {
		return "", 0, fmt.Errorf("failed to read extracted text: %w", err)
	}

	return buf.String(), pages, nil
}
