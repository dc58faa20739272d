package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF tries native text extraction first. Scanned PDFs carry no text
// layer, so on an empty result the embedded page images are extracted and
// run through tesseract instead.
func (e *Engine) extractPDF(path string) (string, error) {
	text, err := extractNativePDFText(path)
	if err == nil && text != "" {
		return text, nil
	}
	return e.extractScannedPDF(path)
}

func extractNativePDFText(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Skip problematic pages instead of failing entirely.
			continue
		}
		pageText = strings.TrimSpace(pageText)
		if pageText != "" {
			pages = append(pages, pageText)
		}
	}
	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

// extractScannedPDF pulls the embedded images out of the PDF and OCRs each.
func (e *Engine) extractScannedPDF(path string) (string, error) {
	tempDir, err := os.MkdirTemp("", "ocr-pdf-images")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	conf := model.NewDefaultConfiguration()
	if err := api.ExtractImagesFile(path, tempDir, nil, conf); err != nil {
		return "", fmt.Errorf("extract pdf images: %w", err)
	}

	entries, err := os.ReadDir(tempDir)
	if err != nil {
		return "", fmt.Errorf("read temp dir: %w", err)
	}

	var parts []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		text, err := e.extractImage(filepath.Join(tempDir, entry.Name()))
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text extracted from pdf")
	}
	return strings.Join(parts, "\n"), nil
}
