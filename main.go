// Package main runs the resume parse worker: it consumes uploaded resumes from RabbitMQ,
// parses them and stores the structured result.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/muhammadolammi/resumeparseworker/internal/logger"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "resumeparseworker",
	Short: "Resume parsing worker",
	Long:  "Extracts text from PDF and DOCX resumes and pulls out contact details, skills and education.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Init(logger.ConfigFromEnv())
	},
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
