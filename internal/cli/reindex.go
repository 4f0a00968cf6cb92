package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"distancemeter/internal/model"
	"distancemeter/internal/repository"
	"distancemeter/internal/repository/sqlite"
	"distancemeter/internal/service/storage"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the history database from the files in RESULT_DIR",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}

		db, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()

		repo := sqlite.NewMeasurementRepository(db)
		added, skipped, err := reindex(cmd, repo, cfg.ResultDirectory)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Indexed %d results from %s\n", added, cfg.ResultDirectory)
		if skipped > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "⚠️  Skipped %d files (invalid name or errors)\n", skipped)
		}

		stats, err := repo.GetStats()
		if err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "\n📊 Database Statistics:\n")
			fmt.Fprintf(cmd.OutOrStdout(), "   Total measurements: %d\n", stats.TotalMeasurements)
			fmt.Fprintf(cmd.OutOrStdout(), "   Total people: %d\n", stats.TotalPeople)
			fmt.Fprintf(cmd.OutOrStdout(), "   Total size: %d bytes\n", stats.TotalSizeBytes)
			for source, count := range stats.PerSource {
				fmt.Fprintf(cmd.OutOrStdout(), "      - %s: %d\n", source, count)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

// reindex inserts a measurement row for every result file not yet in the database.
// Detections cannot be recovered from a filename, only the people count.
func reindex(cmd *cobra.Command, repo repository.MeasurementRepository, dir string) (added, skipped int, err error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read results directory: %w", err)
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetDescription("🗂️  Reindexing"),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionShowCount(),
	)
	defer bar.Finish()

	for _, file := range files {
		bar.Add(1)
		if file.IsDir() || filepath.Ext(file.Name()) != ".jpg" {
			continue
		}

		exists, err := repo.Exists(file.Name())
		if err != nil {
			return added, skipped, err
		}
		if exists {
			continue
		}

		timestamp, source, people, err := storage.ParseResultFilename(file.Name())
		if err != nil {
			log.Warning("Skipping %s: %v", file.Name(), err)
			skipped++
			continue
		}

		info, err := file.Info()
		if err != nil {
			log.Warning("Failed to get info for %s: %v", file.Name(), err)
			skipped++
			continue
		}

		_, err = repo.Insert(&model.Measurement{
			Filename:  file.Name(),
			Source:    source,
			Timestamp: timestamp,
			FilePath:  filepath.Join(dir, file.Name()),
			FileSize:  info.Size(),
			People:    people,
		})
		if err != nil {
			return added, skipped, err
		}
		added++
	}

	return added, skipped, nil
}
