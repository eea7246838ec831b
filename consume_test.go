package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparseworker/internal/database"
	"github.com/muhammadolammi/resumeparseworker/internal/resumeparser"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	resume   database.Resume
	getErr   error
	saveErr  error
	statuses []string
	saved    []database.SaveResumeParseResultParams
}

func (s *fakeStore) GetResumeByID(_ context.Context, id uuid.UUID) (database.Resume, error) {
	if s.getErr != nil {
		return database.Resume{}, s.getErr
	}
	r := s.resume
	r.ID = id
	return r, nil
}

func (s *fakeStore) UpdateResumeParseStatus(_ context.Context, arg database.UpdateResumeParseStatusParams) error {
	s.statuses = append(s.statuses, arg.ParseStatus)
	return nil
}

func (s *fakeStore) SaveResumeParseResult(_ context.Context, arg database.SaveResumeParseResultParams) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.statuses = append(s.statuses, arg.ParseStatus)
	s.saved = append(s.saved, arg)
	return nil
}

type fakeParser struct {
	result resumeparser.ParsedResume
	paths  []string
	data   [][]byte
}

func (p *fakeParser) Parse(_ context.Context, path string) resumeparser.ParsedResume {
	p.paths = append(p.paths, path)
	data, _ := os.ReadFile(path)
	p.data = append(p.data, data)
	return p.result
}

type harness struct {
	store     *fakeStore
	parser    *fakeParser
	downloads []string
	updates   []ResumeUpdate
	config    *WorkerConfig
}

func newHarness(t *testing.T, resume database.Resume, download func() ([]byte, error)) *harness {
	t.Helper()
	noBackoff(t)

	h := &harness{
		store:  &fakeStore{resume: resume},
		parser: &fakeParser{},
	}
	h.config = &WorkerConfig{
		DB:     h.store,
		Parser: h.parser,
		Logger: zerolog.Nop(),
		Download: func(_ context.Context, key string) ([]byte, error) {
			h.downloads = append(h.downloads, key)
			return download()
		},
		Publish: func(update ResumeUpdate) error {
			h.updates = append(h.updates, update)
			return nil
		},
	}
	return h
}

func (h *harness) publishedStatuses() []string {
	statuses := make([]string, 0, len(h.updates))
	for _, u := range h.updates {
		statuses = append(statuses, u.Status)
	}
	return statuses
}

func noBackoff(t *testing.T) {
	t.Helper()
	old := retryBackoff
	retryBackoff = 0
	t.Cleanup(func() { retryBackoff = old })
}

func uploadMessage(t *testing.T, id uuid.UUID) []byte {
	t.Helper()
	body, err := json.Marshal(ResumeUploadMessage{ResumeID: id.String()})
	require.NoError(t, err)
	return body
}

func docxResume() database.Resume {
	return database.Resume{
		OriginalFilename: "Jane Doe CV.DOCX",
		SizeBytes:        2048,
		ObjectKey:        "resumes/jane.docx",
	}
}

func TestDecodeUploadMessage(t *testing.T) {
	id := uuid.New()

	got, err := decodeUploadMessage([]byte(`{"resume_id":"` + id.String() + `"}`))
	require.NoError(t, err)
	assert.Equal(t, id, got)

	tests := []struct {
		name string
		body string
	}{
		{"not json", `resume please`},
		{"missing id", `{}`},
		{"empty id", `{"resume_id":""}`},
		{"not a uuid", `{"resume_id":"42"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeUploadMessage([]byte(tt.body))
			assert.ErrorIs(t, err, errMalformedMessage)
		})
	}
}

func TestHandleMessage_Malformed(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) { return []byte("x"), nil })

	err := h.config.handleMessage(context.Background(), []byte(`{"resume_id":"nope"}`))
	assert.ErrorIs(t, err, errMalformedMessage)
	assert.Empty(t, h.store.statuses)
	assert.Empty(t, h.updates)
}

func TestHandleMessage_Parsed(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) { return []byte("docx bytes"), nil })
	h.parser.result = resumeparser.ParsedResume{
		Name:              "Jane Doe",
		Email:             "jane@example.com",
		Skills:            []string{"Go"},
		ExtractedText:     "Jane Doe",
		PageCountEstimate: 1,
	}
	id := uuid.New()

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, id)))

	assert.Equal(t, []string{StatusProcessing, StatusParsed}, h.store.statuses)
	assert.Equal(t, []string{StatusProcessing, StatusParsed}, h.publishedStatuses())
	assert.Equal(t, []string{"resumes/jane.docx"}, h.downloads)

	require.Len(t, h.parser.paths, 1)
	assert.Equal(t, ".docx", filepath.Ext(h.parser.paths[0]))
	assert.Equal(t, []byte("docx bytes"), h.parser.data[0])
	_, err := os.Stat(h.parser.paths[0])
	assert.True(t, os.IsNotExist(err), "temp file should be removed")

	require.Len(t, h.store.saved, 1)
	assert.Equal(t, id, h.store.saved[0].ID)
	var saved map[string]any
	require.NoError(t, json.Unmarshal(h.store.saved[0].ParsedData, &saved))
	assert.Equal(t, "jane@example.com", saved["email"])
	assert.NotContains(t, saved, "error")

	for _, u := range h.updates {
		assert.Equal(t, id.String(), u.ResumeID)
		assert.False(t, u.Timestamp.IsZero())
	}
}

func TestHandleMessage_ParseErrorNeedsReview(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) { return []byte("docx bytes"), nil })
	h.parser.result = resumeparser.Failure(resumeparser.CodeNoTextExtracted, "No text could be extracted from the resume")

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))

	assert.Equal(t, []string{StatusProcessing, StatusNeedsReview}, h.store.statuses)
	require.Len(t, h.store.saved, 1)
	assert.JSONEq(t,
		`{"error":"No text could be extracted from the resume","error_code":"no_text_extracted"}`,
		string(h.store.saved[0].ParsedData))

	last := h.updates[len(h.updates)-1]
	assert.Equal(t, StatusNeedsReview, last.Status)
	assert.Equal(t, resumeparser.CodeNoTextExtracted, last.ErrorCode)
}

func TestHandleMessage_RejectedBeforeDownload(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		wantCode string
	}{
		{"unsupported extension", "resume.txt", 100, resumeparser.CodeUnsupportedFormat},
		{"no extension", "resume", 100, resumeparser.CodeUnsupportedFormat},
		{"too large", "resume.pdf", maxResumeSize + 1, codeFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resume := database.Resume{OriginalFilename: tt.filename, SizeBytes: tt.size, ObjectKey: "k"}
			h := newHarness(t, resume, func() ([]byte, error) { return []byte("x"), nil })

			require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))

			assert.Empty(t, h.downloads)
			assert.Empty(t, h.parser.paths)
			assert.Equal(t, []string{StatusProcessing, StatusNeedsReview}, h.store.statuses)

			var saved resumeparser.ParsedResume
			require.NoError(t, json.Unmarshal(h.store.saved[0].ParsedData, &saved))
			assert.Equal(t, tt.wantCode, saved.ErrorCode)
			assert.NotEmpty(t, saved.Error)
		})
	}
}

func TestHandleMessage_DownloadedFileTooLarge(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) {
		return make([]byte, maxResumeSize+1), nil
	})

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))

	assert.Empty(t, h.parser.paths)
	assert.Equal(t, []string{StatusProcessing, StatusNeedsReview}, h.store.statuses)
}

func TestHandleMessage_DownloadFailureMarksFailed(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) {
		return nil, errors.New("connection reset")
	})

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))

	assert.Len(t, h.downloads, 3)
	assert.Empty(t, h.parser.paths)
	assert.Empty(t, h.store.saved)
	assert.Equal(t, []string{StatusProcessing, StatusFailed}, h.store.statuses)
	assert.Equal(t, []string{StatusProcessing, StatusFailed}, h.publishedStatuses())
}

func TestHandleMessage_SaveFailureMarksFailed(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) { return []byte("docx bytes"), nil })
	h.parser.result = resumeparser.ParsedResume{Email: "jane@example.com", ExtractedText: "x", PageCountEstimate: 1}
	h.store.saveErr = errors.New("db down")

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))

	assert.Equal(t, []string{StatusProcessing, StatusFailed}, h.store.statuses)
	assert.Equal(t, StatusFailed, h.updates[len(h.updates)-1].Status)
}

func TestHandleMessage_UnknownResume(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) { return []byte("x"), nil })
	h.store.getErr = errors.New("sql: no rows in result set")

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))

	assert.Empty(t, h.downloads)
	assert.Equal(t, []string{StatusFailed}, h.store.statuses)
	assert.Equal(t, []string{StatusFailed}, h.publishedStatuses())
}

func TestPublishUpdate_ToleratesPublishErrors(t *testing.T) {
	h := newHarness(t, docxResume(), func() ([]byte, error) { return []byte("x"), nil })
	h.config.Publish = func(ResumeUpdate) error { return errors.New("channel closed") }
	h.parser.result = resumeparser.ParsedResume{ExtractedText: "x", PageCountEstimate: 1}

	require.NoError(t, h.config.handleMessage(context.Background(), uploadMessage(t, uuid.New())))
	assert.Equal(t, []string{StatusProcessing, StatusParsed}, h.store.statuses)
}
