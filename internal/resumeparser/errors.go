package resumeparser

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrExtractionFailure = errors.New("failed to extract text")
	ErrNoTextExtracted   = errors.New("no text could be extracted from the resume")
)

// Error codes carried in ParsedResume.ErrorCode.
const (
	CodeUnsupportedFormat = "unsupported_format"
	CodeExtractionFailure = "extraction_failure"
	CodeNoTextExtracted   = "no_text_extracted"
	CodeInternal          = "internal"
)

// ExtractError records the file and step that failed during text extraction.
type ExtractError struct {
	Path    string
	Op      string
	BaseErr error
	Detail  error
}

func (e *ExtractError) Error() string {
	if e.Detail != nil {
		return fmt.Sprintf("%s (op: %s, file: %s): %v", e.BaseErr, e.Op, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s (op: %s, file: %s)", e.BaseErr, e.Op, e.Path)
}

func (e *ExtractError) Unwrap() []error {
	if e.Detail == nil {
		return []error{e.BaseErr}
	}
	return []error{e.BaseErr, e.Detail}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		return CodeUnsupportedFormat
	case errors.Is(err, ErrExtractionFailure):
		return CodeExtractionFailure
	case errors.Is(err, ErrNoTextExtracted):
		return CodeNoTextExtracted
	default:
		return CodeInternal
	}
}
