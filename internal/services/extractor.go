package services

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/encoding/unicode"
)

// minFallbackTextLen is the length a byte-level scan must exceed to be trusted.
const minFallbackTextLen = 30

var supportedExtensions = map[string]bool{
	"pdf":  true,
	"docx": true,
	"doc":  true,
	"txt":  true,
}

var (
	controlCharsRe   = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	disallowedRunsRe = regexp.MustCompile(`[^\w\s.,;:\-()@]`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// UploadedFile is one request's upload, held in memory only.
type UploadedFile struct {
	Filename string
	Size     int64
	Content  []byte
}

// Extension returns the lower-cased extension without the leading dot.
func (f UploadedFile) Extension() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Filename)), ".")
}

type ExtractedText struct {
	Text      string
	Format    string
	PageCount int
}

// ExtractionError is the single failure kind of the extractor. Message is safe
// to show to the uploader.
type ExtractionError struct {
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extraction failed: %s: %v", e.Message, e.Err)
	}
	return "extraction failed: " + e.Message
}

func (e *ExtractionError) Unwrap() error { return e.Err }

func extractionErr(err error, format string, args ...any) *ExtractionError {
	return &ExtractionError{Message: fmt.Sprintf(format, args...), Err: err}
}

// IsSupportedExtension reports whether ext (without dot, any case) can be extracted.
func IsSupportedExtension(ext string) bool {
	return supportedExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

type Extractor interface {
	Extract(ctx context.Context, file UploadedFile) (*ExtractedText, error)
}

type extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) Extractor {
	return &extractor{logger: logger}
}

// Extract implements Extractor. PDF parsing stops at ctx's deadline.
func (e *extractor) Extract(ctx context.Context, file UploadedFile) (*ExtractedText, error) {
	ext := file.Extension()
	if !IsSupportedExtension(ext) {
		return nil, extractionErr(nil, "unsupported file type: .%s", ext)
	}
	if len(file.Content) == 0 {
		return nil, extractionErr(nil, "file is empty")
	}

	switch ext {
	case "pdf":
		return e.extractPDFWithin(ctx, file.Content)
	case "docx", "doc":
		return e.extractWord(file.Content, ext)
	default:
		return &ExtractedText{Text: decodeUTF8(file.Content), Format: ext}, nil
	}
}

type pdfOutcome struct {
	text *ExtractedText
	err  error
}

// extractPDFWithin runs the PDF readers on their own goroutine. Both panic on
// malformed objects, and the text reader never returns on an unterminated hex
// string in a content stream, so a stuck parse is abandoned when ctx ends.
func (e *extractor) extractPDFWithin(ctx context.Context, data []byte) (*ExtractedText, error) {
	done := make(chan pdfOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- pdfOutcome{err: extractionErr(fmt.Errorf("%v", r), "failed to read PDF")}
			}
		}()
		text, err := e.extractPDF(data)
		done <- pdfOutcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		e.logger.Warn("abandoning PDF extraction", "bytes", len(data), "error", ctx.Err())
		return nil, extractionErr(ctx.Err(), "timed out reading PDF")
	}
}

func (e *extractor) extractPDF(data []byte) (*ExtractedText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, extractionErr(err, "failed to open PDF")
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page", "page", pageIndex, "error", err)
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n\n")
	}

	text := strings.TrimSpace(textBuilder.String())
	if text == "" {
		return nil, extractionErr(nil, "no text content found in PDF")
	}

	return &ExtractedText{
		Text:      text,
		Format:    "pdf",
		PageCount: e.pdfPageCount(data, totalPage),
	}, nil
}

// pdfPageCount asks pdfcpu for the page count, falling back to the reader's own count.
func (e *extractor) pdfPageCount(data []byte, fallback int) int {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	count, err := api.PageCount(bytes.NewReader(data), conf)
	if err != nil {
		e.logger.Debug("pdfcpu page count unavailable", "error", err)
		return fallback
	}
	return count
}

func (e *extractor) extractWord(data []byte, ext string) (*ExtractedText, error) {
	text, err := extractDocxText(data)
	if err == nil && text != "" {
		return &ExtractedText{Text: text, Format: ext}, nil
	}
	e.logger.Debug("word extractor yielded nothing, scanning raw bytes", "format", ext, "error", err)

	text = scanLegacyText(data)
	if len(text) <= minFallbackTextLen {
		return nil, extractionErr(err, "could not extract text from document")
	}
	return &ExtractedText{Text: text, Format: ext}, nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return documentXMLText(doc.Editable().GetContent())
}

// documentXMLText flattens WordprocessingML into plain text: runs inside a
// paragraph are concatenated, paragraphs are separated by newlines.
func documentXMLText(content string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	var b strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				b.WriteString("\t")
			case "br":
				b.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				b.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimSpace(b.String()), nil
}

// scanLegacyText recovers readable text from binary word containers. UTF-16LE
// is tried first since legacy .doc stores text that way; UTF-8 is the fallback.
func scanLegacyText(data []byte) string {
	if decoded, err := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder().Bytes(data); err == nil {
		text := cleanScannedText(strings.ReplaceAll(string(decoded), "\x00", ""))
		if len(text) > minFallbackTextLen {
			return text
		}
	}
	return cleanScannedText(decodeUTF8(data))
}

func cleanScannedText(s string) string {
	s = controlCharsRe.ReplaceAllString(s, "")
	s = disallowedRunsRe.ReplaceAllString(s, "")
	s = whitespaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func decodeUTF8(data []byte) string {
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	return strings.TrimSpace(s)
}
