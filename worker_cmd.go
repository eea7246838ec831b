package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	_ "github.com/lib/pq"
	"github.com/muhammadolammi/resumeparseworker/internal/database"
	"github.com/muhammadolammi/resumeparseworker/internal/logger"
	"github.com/muhammadolammi/resumeparseworker/internal/resumeparser"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
)

const defaultWorkerCount = 3

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume resume uploads and parse them",
	Long:  "Starts a pool of RabbitMQ consumers that download uploaded resumes from R2, parse them and save the result to Postgres.",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

type workerEnv struct {
	DBURL       string
	RabbitMQURL string
	R2          R2Config
	WorkerCount int
}

func loadWorkerEnv() (workerEnv, error) {
	env := workerEnv{
		DBURL:       os.Getenv("DB_URL"),
		RabbitMQURL: os.Getenv("RABBITMQ_URL"),
		R2: R2Config{
			AccountID: os.Getenv("R2_ACCOUNT_ID"),
			Bucket:    os.Getenv("R2_BUCKET"),
			AccessKey: os.Getenv("R2_ACCESS_KEY"),
			SecretKey: os.Getenv("R2_SECRET_KEY"),
		},
		WorkerCount: defaultWorkerCount,
	}

	required := []struct{ name, value string }{
		{"DB_URL", env.DBURL},
		{"RABBITMQ_URL", env.RabbitMQURL},
		{"R2_ACCOUNT_ID", env.R2.AccountID},
		{"R2_BUCKET", env.R2.Bucket},
		{"R2_ACCESS_KEY", env.R2.AccessKey},
		{"R2_SECRET_KEY", env.R2.SecretKey},
	}
	for _, r := range required {
		if r.value == "" {
			return workerEnv{}, fmt.Errorf("empty %s in environment", r.name)
		}
	}

	if raw := os.Getenv("WORKER_COUNT"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return workerEnv{}, fmt.Errorf("invalid WORKER_COUNT %q: must be a positive integer", raw)
		}
		env.WorkerCount = n
	}
	return env, nil
}

func runWorker(cmd *cobra.Command, _ []string) error {
	env, err := loadWorkerEnv()
	if err != nil {
		return err
	}
	log := logger.Logger

	db, err := sql.Open("postgres", env.DBURL)
	if err != nil {
		return fmt.Errorf("error opening db: %w", err)
	}
	defer db.Close()

	awsConfig, err := config.LoadDefaultConfig(cmd.Context(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(env.R2.AccessKey, env.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return fmt.Errorf("error creating aws config: %w", err)
	}
	r2Client := newR2Client(awsConfig, env.R2.AccountID)

	conn, err := amqp.Dial(env.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	defer conn.Close()

	workerConfig := WorkerConfig{
		DB:          database.New(db),
		Parser:      resumeparser.NewParser(resumeparser.WithLogger(log)),
		RABBITMQUrl: env.RabbitMQURL,
		Logger:      log,
		Download: func(ctx context.Context, key string) ([]byte, error) {
			return DownloadFromR2(ctx, r2Client, env.R2.Bucket, key)
		},
		Publish: func(update ResumeUpdate) error {
			return publishResumeUpdate(conn, update)
		},
	}

	log.Info().Int("workers", env.WorkerCount).Msg("starting consumer pool")
	workerConfig.StartConsumerWorkerPool(env.WorkerCount)
	return nil
}
