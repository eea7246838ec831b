package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/streadway/amqp"
)

const (
	uploadsQueue    = "resume_uploads"
	updatesExchange = "resume_updates"
)

// overridden in tests
var retryBackoff = 500 * time.Millisecond

// retry retries a function up to `attempts` times with linear backoff
func retry[T any](attempts int, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error

	for i := 0; i < attempts; i++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}
		lastErr = err
		if i < attempts-1 {
			time.Sleep(retryBackoff * time.Duration(i+1))
		}
	}
	return zero, fmt.Errorf("after %d attempts: %w", attempts, lastErr)
}

// --- File Download ---

func newR2Client(awsConfig aws.Config, accountID string) *s3.Client {
	return s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID))
	})
}

func DownloadFromR2(ctx context.Context, client *s3.Client, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	_, err = io.Copy(buf, out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// writeTempResume stores a downloaded resume on disk so the parser can open it by path.
// The temp file keeps the original extension since the parser dispatches on it.
func writeTempResume(data []byte, originalFilename string) (string, func(), error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	f, err := os.CreateTemp("", "resume-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}

// --- Updates ---

func declareUpdatesExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		updatesExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-delete
		false,           // internal
		false,           // no-wait
		nil,             // arguments
	)
}

func publishResumeUpdate(rabbitConn *amqp.Connection, update ResumeUpdate) error {
	ch, err := rabbitConn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	routingKey := fmt.Sprintf("resume.%s", update.ResumeID)

	return ch.Publish(
		updatesExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   update.Timestamp,
			Body:        body,
		},
	)
}
