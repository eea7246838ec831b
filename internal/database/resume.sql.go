package database

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

const getResumeByID = `-- name: GetResumeByID :one
SELECT id, applicant_id, original_filename, mime, size_bytes, storage_provider, object_key, storage_url, upload_status, parse_status, COALESCE(parsed_data, 'null'::jsonb) AS parsed_data, created_at, updated_at FROM resumes WHERE id=$1
`

func (q *Queries) GetResumeByID(ctx context.Context, id uuid.UUID) (Resume, error) {
	row := q.db.QueryRowContext(ctx, getResumeByID, id)
	var i Resume
	err := row.Scan(
		&i.ID,
		&i.ApplicantID,
		&i.OriginalFilename,
		&i.Mime,
		&i.SizeBytes,
		&i.StorageProvider,
		&i.ObjectKey,
		&i.StorageUrl,
		&i.UploadStatus,
		&i.ParseStatus,
		&i.ParsedData,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const updateResumeParseStatus = `-- name: UpdateResumeParseStatus :exec
UPDATE resumes
SET parse_status=$1, updated_at=CURRENT_TIMESTAMP
WHERE id=$2
`

type UpdateResumeParseStatusParams struct {
	ParseStatus string
	ID          uuid.UUID
}

func (q *Queries) UpdateResumeParseStatus(ctx context.Context, arg UpdateResumeParseStatusParams) error {
	_, err := q.db.ExecContext(ctx, updateResumeParseStatus, arg.ParseStatus, arg.ID)
	return err
}

const saveResumeParseResult = `-- name: SaveResumeParseResult :exec
UPDATE resumes
SET parsed_data=$1, parse_status=$2, updated_at=CURRENT_TIMESTAMP
WHERE id=$3
`

type SaveResumeParseResultParams struct {
	ParsedData  json.RawMessage
	ParseStatus string
	ID          uuid.UUID
}

func (q *Queries) SaveResumeParseResult(ctx context.Context, arg SaveResumeParseResultParams) error {
	_, err := q.db.ExecContext(ctx, saveResumeParseResult, arg.ParsedData, arg.ParseStatus, arg.ID)
	return err
}
