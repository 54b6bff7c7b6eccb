package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/captioner/internal/config"
	"github.com/nao1215/captioner/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for captioner.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "captioner",
		Short: "On-device image captioning with calibrated confidence",
		Long: `captioner describes images with short, privacy-safe captions.

Every caption comes with a confidence score and a quality gate decision.
Captions that do not pass the gate are replaced by a minimal safe caption
and flagged for escalation to a stronger captioning service.

Models run locally: an ONNX classifier, a local Ollama vision model and
the Tesseract OCR engine can be configured in .captioner.yaml.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envFile, err := cmd.Flags().GetString("env-file")
			if err != nil {
				return err
			}
			if envFile == "" {
				return config.LoadDotEnv()
			}
			if _, err := os.Stat(envFile); err != nil {
				return fmt.Errorf("env file not found: %s", envFile)
			}
			return config.LoadDotEnv(envFile)
		},
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON")
	cmd.PersistentFlags().String("env-file", "",
		"Load environment variables from this file (default: .env if present)")

	// Add subcommands
	cmd.AddCommand(NewCaptionCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// setupLogger creates the redacting logger on stderr and installs it as
// the default logger.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	verbose := getVerboseFlag(cmd)
	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		jsonLog = false
	}

	var logger *slog.Logger
	if jsonLog {
		logger = log.NewSecureJSONLogger(cmd.ErrOrStderr(), verbose)
	} else {
		logger = log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
	}
	slog.SetDefault(logger)
	return logger
}
