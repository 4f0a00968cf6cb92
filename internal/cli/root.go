// Package cli is the command-line entry point: the web server plus offline measure, scan and reindex commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"distancemeter/internal/config"
	"distancemeter/internal/logger"
	"distancemeter/internal/service"
	"distancemeter/internal/service/ai"

	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var (
	cfg *config.Config
	log *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:     "distancemeter",
	Short:   "Estimate the distance to people in photos",
	Version: Version,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			log.Close()
		}
	},
	SilenceUsage: true,
}

var overrides struct {
	modelPath   string
	backend     string
	focalLength float64
	knownWidth  float64
}

func init() {
	// Without a subcommand the web server starts.
	rootCmd.RunE = runServe
	rootCmd.PersistentPreRunE = setup

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&overrides.modelPath, "model", "", "path to the YOLOv8 ONNX model (default from MODEL_PATH)")
	flags.StringVar(&overrides.backend, "backend", "", "detector backend: opencv or onnx (default from DETECTOR_BACKEND)")
	flags.Float64Var(&overrides.focalLength, "focal-length", 0, "camera focal length in pixels (default from FOCAL_LENGTH)")
	flags.Float64Var(&overrides.knownWidth, "known-width", 0, "real width of the tracked object in cm (default from KNOWN_WIDTH)")
}

// setup loads the configuration and the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	cfg = config.Load()
	applyFlagOverrides(cmd)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var err error
	log, err = newLogger(cmd)
	return err
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.ModelPath = overrides.modelPath
	}
	if flags.Changed("backend") {
		cfg.DetectorBackend = overrides.backend
	}
	if flags.Changed("focal-length") {
		cfg.FocalLength = overrides.focalLength
	}
	if flags.Changed("known-width") {
		cfg.KnownWidth = overrides.knownWidth
	}
}

// newLogger keeps stdout free for command output outside of serve.
func newLogger(cmd *cobra.Command) (*logger.Logger, error) {
	if cmd == rootCmd || cmd.Name() == serveCmd.Name() {
		return logger.NewLogger(cfg), nil
	}
	return logger.NewWithWriters(cfg.LogDirectory, io.Discard, os.Stderr)
}

// newOfflineManager builds a Manager that neither stores nor streams results.
func newOfflineManager() (*service.Manager, error) {
	detector, err := ai.NewDetector(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load detector: %w", err)
	}
	return service.NewManager(detector, nil, nil, cfg, log), nil
}

// Execute runs the root command with a context cancelled on SIGINT or SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
