package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"distancemeter/internal/service"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var scanOutput string

var scanCmd = &cobra.Command{
	Use:   "scan [dir]",
	Short: "Measure every image in a directory (default IMAGE_DIR)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.ImageDirectory
		if len(args) == 1 {
			dir = args[0]
		}

		names, err := service.ListImages(dir)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "No images found in %s\n", dir)
			return nil
		}

		if scanOutput != "" {
			if err := os.MkdirAll(scanOutput, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", scanOutput, err)
			}
		}

		manager, err := newOfflineManager()
		if err != nil {
			return err
		}
		defer manager.Close()

		bar := progressbar.NewOptions(len(names),
			progressbar.OptionSetDescription("📏 Measuring"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionShowCount(),
		)

		report, err := manager.ScanDirectory(dir, service.SourceScan, func(string) { bar.Add(1) })
		bar.Finish()
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, item := range report.Results {
			fmt.Fprintf(out, "%s\t%s\n", item.Name, item.Result.Summary)

			if scanOutput != "" {
				target := filepath.Join(scanOutput, strings.TrimSuffix(item.Name, filepath.Ext(item.Name))+".jpg")
				if err := os.WriteFile(target, item.Result.Image, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", target, err)
				}
			}
		}
		for _, skip := range report.Skipped {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Skipped %s: %s\n", skip.Name, skip.Reason)
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "🏁 Scan complete: %d measured, %d skipped\n", len(report.Results), len(report.Skipped))
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "directory for the annotated JPEGs")
	rootCmd.AddCommand(scanCmd)
}
