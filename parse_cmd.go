package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/muhammadolammi/resumeparseworker/internal/logger"
	"github.com/muhammadolammi/resumeparseworker/internal/resumeparser"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a local resume and print the result as JSON",
	Long:  "Parses a PDF or DOCX resume from disk and prints the ParsedResume as indented JSON. Parse failures are reported in the error field, not the exit status.",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var parseNoFallback bool

func init() {
	parseCmd.Flags().BoolVar(&parseNoFallback, "no-fallback", false, "Disable the text-stream fallback for PDFs")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}

	// stdout carries the JSON result
	parser := resumeparser.NewParser(
		resumeparser.WithLogger(logger.New(logger.ConfigFromEnv(), cmd.ErrOrStderr())),
		resumeparser.WithPDFFallback(!parseNoFallback),
	)
	result := parser.Parse(cmd.Context(), path)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
