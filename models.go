package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparseworker/internal/database"
	"github.com/muhammadolammi/resumeparseworker/internal/resumeparser"
	"github.com/rs/zerolog"
)

const (
	StatusProcessing  = "processing"
	StatusParsed      = "parsed"
	StatusNeedsReview = "needs_review"
	StatusFailed      = "failed"
)

// uploads above this are rejected by the upload endpoint as well
const maxResumeSize = 5 * 1024 * 1024

const codeFileTooLarge = "file_too_large"

type R2Config struct {
	AccountID string
	Bucket    string
	AccessKey string
	SecretKey string
}

type ResumeStore interface {
	GetResumeByID(ctx context.Context, id uuid.UUID) (database.Resume, error)
	UpdateResumeParseStatus(ctx context.Context, arg database.UpdateResumeParseStatusParams) error
	SaveResumeParseResult(ctx context.Context, arg database.SaveResumeParseResultParams) error
}

type ResumeParser interface {
	Parse(ctx context.Context, path string) resumeparser.ParsedResume
}

type WorkerConfig struct {
	DB          ResumeStore
	Parser      ResumeParser
	RABBITMQUrl string
	Logger      zerolog.Logger
	// Download fetches a stored resume by object key.
	Download func(ctx context.Context, key string) ([]byte, error)
	// Publish announces a status change for a resume.
	Publish func(update ResumeUpdate) error
}

// ResumeUploadMessage is the payload of the resume_uploads queue.
type ResumeUploadMessage struct {
	ResumeID string `json:"resume_id" validate:"required,uuid"`
}

// ResumeUpdate is published on the resume_updates exchange.
type ResumeUpdate struct {
	ResumeID  string    `json:"resume_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	ErrorCode string    `json:"error_code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
