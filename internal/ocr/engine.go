// Package ocr extracts text from uploaded inspection forms. Images go
// through tesseract; PDFs try native text extraction first and fall back to
// OCR over the embedded page images for scanned documents.
package ocr

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Engine routes an uploaded document to the right text extraction strategy.
type Engine struct {
	tessdataPrefix string
	languages      []string
}

// NewEngine builds an OCR engine. tessdataPrefix may be empty to use the
// tesseract default; languages defaults to English plus German.
func NewEngine(tessdataPrefix string, languages []string) *Engine {
	if len(languages) == 0 {
		languages = []string{"eng", "deu"}
	}
	return &Engine{
		tessdataPrefix: strings.TrimSpace(tessdataPrefix),
		languages:      languages,
	}
}

// ExtractFile returns best-effort text for the document at path. The media
// kind is inferred from the file extension.
func (e *Engine) ExtractFile(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return e.extractPDF(path)
	case ".jpg", ".jpeg", ".png", ".tif", ".tiff", ".bmp":
		return e.extractImage(path)
	default:
		return "", fmt.Errorf("unsupported document type %q", ext)
	}
}
