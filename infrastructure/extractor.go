package infrastructure

import (
	"bytes"
	"fmt"
	"html"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/nguyenthenguyen/docx"
	"github.com/unidoc/unipdf/v3/extractor"
	"github.com/unidoc/unipdf/v3/model"
	"go.uber.org/zap"
)

// DocumentExtractor pulls plain text out of PDF, DOCX and text uploads.
type DocumentExtractor struct {
	log *zap.Logger
}

func NewDocumentExtractor(log *zap.Logger) *DocumentExtractor {
	return &DocumentExtractor{log: log}
}

// Extract dispatches on the file extension. An unparseable document or one
// without any text is an error.
func (e *DocumentExtractor) Extract(filename string, data []byte) (string, error) {
	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case "pdf":
		text, err = e.extractPDF(data)
	case "docx":
		text, err = extractDOCX(data)
	case "txt", "md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s is not valid UTF-8 text", filename)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported document type %q", ext)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("no text could be extracted from %s", filename)
	}
	return text, nil
}

func (e *DocumentExtractor) extractPDF(data []byte) (string, error) {
	pdfReader, err := model.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF: %w", err)
	}

	numPages, err := pdfReader.GetNumPages()
	if err != nil {
		return "", fmt.Errorf("failed to get page count: %w", err)
	}
	if numPages == 0 {
		return "", fmt.Errorf("PDF has no pages")
	}

	var textBuilder strings.Builder
	for i := 1; i <= numPages; i++ {
		page, err := pdfReader.GetPage(i)
		if err != nil {
			e.log.Warn("skipping unreadable pdf page", zap.Int("page", i), zap.Error(err))
			continue
		}

		ex, err := extractor.New(page)
		if err != nil {
			e.log.Warn("skipping pdf page without extractor", zap.Int("page", i), zap.Error(err))
			continue
		}

		pageText, err := ex.ExtractText()
		if err != nil {
			e.log.Warn("skipping pdf page with extraction error", zap.Int("page", i), zap.Error(err))
			continue
		}

		if strings.TrimSpace(pageText) != "" {
			textBuilder.WriteString(pageText)
			textBuilder.WriteString("\n")
		}
	}

	e.log.Debug("extracted pdf text", zap.Int("pages", numPages), zap.Int("chars", textBuilder.Len()))
	return textBuilder.String(), nil
}

var (
	docxParagraphEnd = regexp.MustCompile(`</w:p>`)
	docxTag          = regexp.MustCompile(`<[^>]+>`)
	blankLines       = regexp.MustCompile(`\n{3,}`)
)

func extractDOCX(data []byte) (string, error) {
	r, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read DOCX: %w", err)
	}
	defer r.Close()

	content := r.Editable().GetContent()
	content = docxParagraphEnd.ReplaceAllString(content, "\n")
	content = docxTag.ReplaceAllString(content, "")
	content = blankLines.ReplaceAllString(html.UnescapeString(content), "\n\n")
	return content, nil
}
