package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Resume struct {
	ID               uuid.UUID
	ApplicantID      uuid.UUID
	OriginalFilename string
	Mime             string
	SizeBytes        int64
	StorageProvider  string
	ObjectKey        string
	StorageUrl       string
	UploadStatus     string
	ParseStatus      string
	ParsedData       json.RawMessage
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
