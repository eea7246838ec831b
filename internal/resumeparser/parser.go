// Package resumeparser turns an uploaded resume (PDF or DOCX) into a structured
// candidate profile using text extraction and regex heuristics.
package resumeparser

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	previewLength   = 1000
	previewEllipsis = "..."
	charsPerPage    = 3000

	noTextMessage = "No text could be extracted from the resume"
)

// ParsedResume is the result of parsing one resume. Either Error is set and every other
// field is empty, or Error is empty and ExtractedText holds the text preview.
type ParsedResume struct {
	Name              string   `json:"name,omitempty"`
	Email             string   `json:"email,omitempty"`
	Phone             string   `json:"mobile_number,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	Education         []string `json:"education,omitempty"`
	ExtractedText     string   `json:"extracted_text,omitempty"`
	PageCountEstimate int      `json:"no_of_pages,omitempty"`

	Error     string `json:"error,omitempty"`
	ErrorCode string `json:"error_code,omitempty"`
}

// Failed reports whether parsing produced no usable result.
func (r ParsedResume) Failed() bool {
	return r.Error != ""
}

// Parser runs the extraction pipeline. The zero value is not usable; use NewParser.
// A Parser holds no per-call state and may be shared between goroutines.
type Parser struct {
	logger      zerolog.Logger
	pdfPrimary  pdfStrategy
	pdfFallback pdfStrategy
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger used for per-parse and fallback events.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Parser) {
		p.logger = logger
	}
}

// WithPDFFallback enables or disables the text-stream fallback for PDFs whose layout
// extraction fails. It is enabled by default.
func WithPDFFallback(enabled bool) Option {
	return func(p *Parser) {
		if enabled {
			p.pdfFallback = extractPDFTextStreams
		} else {
			p.pdfFallback = nil
		}
	}
}

// NewParser returns a Parser with the layout-aware PDF reader, the text-stream fallback
// and a silent logger.
func NewParser(options ...Option) *Parser {
	p := &Parser{
		logger:      zerolog.Nop(),
		pdfPrimary:  extractPDFRows,
		pdfFallback: extractPDFTextStreams,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

var defaultParser = NewParser()

// Parse parses the resume at path with the default parser.
func Parse(ctx context.Context, path string) ParsedResume {
	return defaultParser.Parse(ctx, path)
}

// Parse extracts text from the resume at path and runs every entity extractor over it.
// It never fails: problems are reported through ParsedResume.Error.
func (p *Parser) Parse(ctx context.Context, path string) (result ParsedResume) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			result = Failure(CodeInternal, fmt.Sprintf("Failed to parse resume: %v", r))
		}
		p.logResult(path, result, time.Since(start))
	}()

	text, err := p.ExtractText(ctx, path)
	if err != nil {
		return Failure(errorCode(err), fmt.Sprintf("Failed to parse resume: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		return Failure(CodeNoTextExtracted, noTextMessage)
	}
	return Analyze(text)
}

// Analyze runs the entity extractors over already extracted text. Blank text gives the
// same result as a document with no extractable text.
func Analyze(text string) ParsedResume {
	if strings.TrimSpace(text) == "" {
		return Failure(CodeNoTextExtracted, noTextMessage)
	}

	result := ParsedResume{
		Skills:            ExtractSkills(text),
		Education:         ExtractEducation(text),
		ExtractedText:     preview(text),
		PageCountEstimate: estimatePages(text),
	}
	if emails := ExtractEmails(text); len(emails) > 0 {
		result.Email = emails[0]
	}
	if phones := ExtractPhoneNumbers(text); len(phones) > 0 {
		result.Phone = phones[0]
	}
	result.Name = ExtractName(text, result.Email)
	return result
}

// Failure builds the error-only result for callers that reject a resume before parsing.
func Failure(code, message string) ParsedResume {
	return ParsedResume{Error: message, ErrorCode: code}
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:previewLength]) + previewEllipsis
}

// estimatePages is a throughput heuristic, not a real page count.
func estimatePages(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (n + charsPerPage - 1) / charsPerPage
}

func (p *Parser) logResult(path string, result ParsedResume, took time.Duration) {
	if result.Failed() {
		p.logger.Warn().
			Str("file", path).
			Str("error_code", result.ErrorCode).
			Str("error", result.Error).
			Dur("took", took).
			Msg("resume parse failed")
		return
	}
	p.logger.Info().
		Str("file", path).
		Int("skills", len(result.Skills)).
		Int("education", len(result.Education)).
		Int("pages", result.PageCountEstimate).
		Bool("has_email", result.Email != "").
		Dur("took", took).
		Msg("resume parsed")
}
