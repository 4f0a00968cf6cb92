package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"distancemeter/internal/logger"
	"distancemeter/internal/repository/sqlite"

	"github.com/spf13/cobra"
)

func TestReindex(t *testing.T) {
	dir := t.TempDir()

	var err error
	log, err = logger.NewWithWriters(filepath.Join(dir, "logs"), io.Discard, io.Discard)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { log.Close(); log = nil })

	results := filepath.Join(dir, "results")
	os.MkdirAll(results, 0755)
	for _, name := range []string{
		"2024-05-01_10-00_00.000_upload_2p.jpg",
		"2024-05-02_11-30_15.250_scan_0p.jpg",
		"holiday.jpg",
		"notes.txt",
	} {
		if err := os.WriteFile(filepath.Join(results, name), []byte("data"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	db, err := sqlite.New(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	defer db.Close()
	repo := sqlite.NewMeasurementRepository(db)

	cmd := &cobra.Command{}
	cmd.SetErr(&bytes.Buffer{})

	added, skipped, err := reindex(cmd, repo, results)
	if err != nil {
		t.Fatalf("reindex failed: %v", err)
	}
	if added != 2 || skipped != 1 {
		t.Errorf("Expected 2 added and 1 skipped, got %d and %d", added, skipped)
	}

	m, err := repo.GetByFilename("2024-05-01_10-00_00.000_upload_2p.jpg")
	if err != nil || m == nil {
		t.Fatalf("Measurement not indexed: %v", err)
	}
	if m.People != 2 || m.Source != "upload" || m.FileSize != 4 {
		t.Errorf("Unexpected measurement: %+v", m)
	}

	// A second pass finds everything already indexed.
	added, _, err = reindex(cmd, repo, results)
	if err != nil {
		t.Fatalf("second reindex failed: %v", err)
	}
	if added != 0 {
		t.Errorf("Expected 0 added on second pass, got %d", added)
	}
}
