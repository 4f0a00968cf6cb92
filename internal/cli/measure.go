package cli

import (
	"fmt"
	"os"

	"distancemeter/internal/service"

	"github.com/spf13/cobra"
)

var measureOutput string

var measureCmd = &cobra.Command{
	Use:   "measure <image>",
	Short: "Measure one image and print the summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		manager, err := newOfflineManager()
		if err != nil {
			return err
		}
		defer manager.Close()

		result, err := manager.MeasureFile(args[0], service.SourceCLI)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Summary)

		if measureOutput != "" {
			if err := os.WriteFile(measureOutput, result.Image, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", measureOutput, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "💾 Annotated image written to %s\n", measureOutput)
		}
		return nil
	},
}

func init() {
	measureCmd.Flags().StringVarP(&measureOutput, "output", "o", "", "write the annotated JPEG to this file")
	rootCmd.AddCommand(measureCmd)
}
