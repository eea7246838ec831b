package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/muhammadolammi/resumeparseworker/internal/database"
	"github.com/muhammadolammi/resumeparseworker/internal/resumeparser"
	"github.com/streadway/amqp"
)

var validate = validator.New()

// errMalformedMessage marks deliveries that can never be processed and must not be requeued.
var errMalformedMessage = errors.New("malformed resume upload message")

func decodeUploadMessage(body []byte) (uuid.UUID, error) {
	var msg ResumeUploadMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	if err := validate.Struct(msg); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	id, err := uuid.Parse(msg.ResumeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %v", errMalformedMessage, err)
	}
	return id, nil
}

// handleMessage processes one delivery. Only malformed payloads are returned as errors;
// infrastructure failures are recorded on the resume as StatusFailed.
func (workerConfig *WorkerConfig) handleMessage(ctx context.Context, body []byte) error {
	id, err := decodeUploadMessage(body)
	if err != nil {
		return err
	}

	status, err := workerConfig.processResume(ctx, id)
	if err != nil {
		workerConfig.markFailed(ctx, id, err)
		return nil
	}
	workerConfig.Logger.Info().
		Str("resume_id", id.String()).
		Str("status", status).
		Msg("resume processed")
	return nil
}

// processResume loads, downloads and parses one resume and stores the ParsedResume on its row.
// Parse errors are not failures: the resume is kept and flagged for review.
func (workerConfig *WorkerConfig) processResume(ctx context.Context, id uuid.UUID) (string, error) {
	resume, err := retry(3, func() (database.Resume, error) {
		return workerConfig.DB.GetResumeByID(ctx, id)
	})
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to load resume: %w", err)
	}

	workerConfig.publishUpdate(id, StatusProcessing, "resume parsing started", "")
	_, err = retry(3, func() (any, error) {
		return nil, workerConfig.DB.UpdateResumeParseStatus(ctx, database.UpdateResumeParseStatusParams{
			ParseStatus: StatusProcessing,
			ID:          id,
		})
	})
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to mark resume processing: %w", err)
	}

	result, err := workerConfig.parseStoredResume(ctx, resume)
	if err != nil {
		return StatusFailed, err
	}

	status := StatusParsed
	message := "resume parsed"
	if result.Failed() {
		status = StatusNeedsReview
		message = "resume needs manual review: " + result.Error
	}

	parsedData, err := json.Marshal(result)
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to marshal parse result: %w", err)
	}
	_, err = retry(3, func() (any, error) {
		return nil, workerConfig.DB.SaveResumeParseResult(ctx, database.SaveResumeParseResultParams{
			ParsedData:  parsedData,
			ParseStatus: status,
			ID:          id,
		})
	})
	if err != nil {
		return StatusFailed, fmt.Errorf("failed to save parse result after retries: %w", err)
	}

	workerConfig.publishUpdate(id, status, message, result.ErrorCode)
	return status, nil
}

// parseStoredResume rejects files the parser cannot handle before downloading them, then
// parses a temporary copy of the object.
func (workerConfig *WorkerConfig) parseStoredResume(ctx context.Context, resume database.Resume) (resumeparser.ParsedResume, error) {
	if !resumeparser.SupportedExtension(resume.OriginalFilename) {
		return resumeparser.Failure(
			resumeparser.CodeUnsupportedFormat,
			fmt.Sprintf("Failed to parse resume: unsupported file type %q", filepath.Ext(resume.OriginalFilename)),
		), nil
	}
	if resume.SizeBytes > maxResumeSize {
		return tooLarge(resume.SizeBytes), nil
	}

	fileBytes, err := retry(3, func() ([]byte, error) {
		return workerConfig.Download(ctx, resume.ObjectKey)
	})
	if err != nil {
		return resumeparser.ParsedResume{}, fmt.Errorf("failed to download %s: %w", resume.ObjectKey, err)
	}
	if len(fileBytes) > maxResumeSize {
		return tooLarge(int64(len(fileBytes))), nil
	}

	path, cleanup, err := writeTempResume(fileBytes, resume.OriginalFilename)
	if err != nil {
		return resumeparser.ParsedResume{}, err
	}
	defer cleanup()

	return workerConfig.Parser.Parse(ctx, path), nil
}

func tooLarge(size int64) resumeparser.ParsedResume {
	return resumeparser.Failure(
		codeFileTooLarge,
		fmt.Sprintf("Failed to parse resume: file is %d bytes, the limit is %d", size, maxResumeSize),
	)
}

func (workerConfig *WorkerConfig) markFailed(ctx context.Context, id uuid.UUID, cause error) {
	workerConfig.Logger.Error().
		Err(cause).
		Str("resume_id", id.String()).
		Msg("resume processing failed")

	_, err := retry(3, func() (any, error) {
		return nil, workerConfig.DB.UpdateResumeParseStatus(ctx, database.UpdateResumeParseStatusParams{
			ParseStatus: StatusFailed,
			ID:          id,
		})
	})
	if err != nil {
		workerConfig.Logger.Error().Err(err).Str("resume_id", id.String()).Msg("failed to mark resume failed")
	}
	workerConfig.publishUpdate(id, StatusFailed, "resume parsing failed", "")
}

func (workerConfig *WorkerConfig) publishUpdate(id uuid.UUID, status, message, errorCode string) {
	if workerConfig.Publish == nil {
		return
	}
	err := workerConfig.Publish(ResumeUpdate{
		ResumeID:  id.String(),
		Status:    status,
		Message:   message,
		ErrorCode: errorCode,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		workerConfig.Logger.Warn().Err(err).Str("resume_id", id.String()).Msg("failed to publish update")
	}
}

func worker(id int, workerConfig *WorkerConfig, wg *sync.WaitGroup) {
	defer wg.Done()
	logger := workerConfig.Logger.With().Int("worker", id+1).Logger()

	conn, err := amqp.Dial(workerConfig.RABBITMQUrl)
	if err != nil {
		logger.Fatal().Err(err).Msg("error dialling rabbitmq")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal().Err(err).Msg("error connecting to rabbitmq channel")
	}
	defer ch.Close()

	_, err = ch.QueueDeclare(
		uploadsQueue, // queue name
		true,         // durable (survives broker restarts)
		false,        // auto-delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to declare queue")
	}
	if err := declareUpdatesExchange(ch); err != nil {
		logger.Fatal().Err(err).Msg("failed to declare exchange")
	}
	// one resume at a time per worker; unacked deliveries go back to the queue on crash
	if err := ch.Qos(1, 0, false); err != nil {
		logger.Fatal().Err(err).Msg("failed to set prefetch")
	}

	msgs, err := ch.Consume(
		uploadsQueue, // queue name
		"",           // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("error consuming rabbitmq message")
	}

	for msg := range msgs {
		err := workerConfig.handleMessage(context.Background(), msg.Body)
		if err != nil {
			logger.Warn().Err(err).Bytes("body", msg.Body).Msg("dropping message")
			if nackErr := msg.Nack(false, false); nackErr != nil {
				logger.Error().Err(nackErr).Msg("failed to nack message")
			}
			continue
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			logger.Error().Err(ackErr).Msg("failed to ack message")
		}
	}
	logger.Info().Msg("delivery channel closed, worker stopping")
}

func (workerConfig *WorkerConfig) StartConsumerWorkerPool(numWorkers int) {
	var wg sync.WaitGroup
	wg.Add(numWorkers)

	for i := 0; i < numWorkers; i++ {
		workerConfig.Logger.Info().Int("worker", i+1).Msg("worker started")
		go worker(i, workerConfig, &wg)
	}
	wg.Wait() // block until all workers finish
}
