package sqlite

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"distancemeter/internal/dto"
	"distancemeter/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func insertMeasurement(t *testing.T, repo *MeasurementRepository, filename, source string, ts time.Time, people int) int64 {
	t.Helper()

	id, err := repo.Insert(&model.Measurement{
		Filename:  filename,
		Source:    source,
		Timestamp: ts,
		FilePath:  "/results/" + filename,
		FileSize:  1000,
		People:    people,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

// setLocal switches the process time zone for the duration of the test.
func setLocal(t *testing.T, loc *time.Location) {
	t.Helper()

	prev := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = prev })
}

// ========================================
// Measurement Repository Tests
// ========================================

func TestMeasurementRepository_Insert(t *testing.T) {
	repo := NewMeasurementRepository(setupTestDB(t))

	id := insertMeasurement(t, repo, "a.jpg", "upload", time.Now(), 1)
	if id <= 0 {
		t.Errorf("Expected positive ID, got %d", id)
	}
}

func TestMeasurementRepository_Insert_DuplicateFilename(t *testing.T) {
	repo := NewMeasurementRepository(setupTestDB(t))

	insertMeasurement(t, repo, "dup.jpg", "upload", time.Now(), 1)

	_, err := repo.Insert(&model.Measurement{Filename: "dup.jpg", Source: "upload", Timestamp: time.Now(), FilePath: "x"})
	if err == nil {
		t.Error("Expected error for duplicate filename, got nil")
	}
}

func TestMeasurementRepository_GetByFilename(t *testing.T) {
	repo := NewMeasurementRepository(setupTestDB(t))

	ts := time.Date(2024, 5, 2, 8, 0, 0, 0, time.Local)
	insertMeasurement(t, repo, "byname.jpg", "scan", ts, 2)

	m, err := repo.GetByFilename("byname.jpg")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if m == nil {
		t.Fatal("Expected measurement, got nil")
	}
	if m.Source != "scan" || m.People != 2 {
		t.Errorf("Unexpected measurement: %+v", m)
	}
	if !m.Timestamp.Equal(ts) {
		t.Errorf("Expected timestamp %v, got %v", ts, m.Timestamp)
	}

	missing, err := repo.GetByFilename("missing.jpg")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing filename")
	}
}

func TestMeasurementRepository_GetAll_Filters(t *testing.T) {
	setLocal(t, time.UTC)
	db := setupTestDB(t)
	repo := NewMeasurementRepository(db)
	detRepo := NewDetectionRepository(db)

	day1 := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 5, 3, 10, 0, 0, 0, time.UTC)

	near := insertMeasurement(t, repo, "near.jpg", "upload", day1, 1)
	far := insertMeasurement(t, repo, "far.jpg", "scan", day2, 1)
	insertMeasurement(t, repo, "empty.jpg", "scan", day2, 0)

	detRepo.InsertBatch([]model.Detection{
		{MeasurementID: near, Label: "person", X1: 0, Y1: 0, X2: 200, Y2: 300, DistanceMeters: 1.5},
		{MeasurementID: far, Label: "person", X1: 0, Y1: 0, X2: 20, Y2: 40, DistanceMeters: 15},
	})

	tests := []struct {
		name   string
		filter *dto.HistoryFilter
		want   int
	}{
		{"no filter", &dto.HistoryFilter{}, 3},
		{"nil filter", nil, 3},
		{"by source", &dto.HistoryFilter{Source: "scan"}, 2},
		{"date after", &dto.HistoryFilter{DateAfter: day2}, 2},
		{"date before", &dto.HistoryFilter{DateBefore: day1}, 1},
		{"min distance", &dto.HistoryFilter{MinDistance: 5}, 1},
		{"max distance", &dto.HistoryFilter{MaxDistance: 5}, 1},
		{"limit", &dto.HistoryFilter{Limit: 2}, 2},
		{"limit offset", &dto.HistoryFilter{Limit: 2, Offset: 2}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("Expected %d measurements, got %d", tt.want, len(got))
			}
		})
	}

	count, err := repo.GetTotalCount(&dto.HistoryFilter{Source: "scan", Limit: 1})
	if err != nil {
		t.Fatalf("GetTotalCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected count 2 ignoring limit, got %d", count)
	}
}

func TestMeasurementRepository_GetAll_DateFilterUsesLocalDay(t *testing.T) {
	setLocal(t, time.FixedZone("KST", 9*60*60))
	repo := NewMeasurementRepository(setupTestDB(t))

	insertMeasurement(t, repo, "late.jpg", "upload", time.Date(2024, 5, 1, 23, 30, 0, 0, time.Local), 1)
	insertMeasurement(t, repo, "morning.jpg", "upload", time.Date(2024, 5, 2, 8, 0, 0, 0, time.Local), 1)
	insertMeasurement(t, repo, "night.jpg", "upload", time.Date(2024, 5, 2, 23, 59, 59, 0, time.Local), 1)
	insertMeasurement(t, repo, "next.jpg", "upload", time.Date(2024, 5, 3, 0, 30, 0, 0, time.Local), 1)

	// Query dates arrive from the handler as midnight UTC.
	day := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		filter *dto.HistoryFilter
		want   []string
	}{
		{"single day", &dto.HistoryFilter{DateAfter: day, DateBefore: day}, []string{"night.jpg", "morning.jpg"}},
		{"after only", &dto.HistoryFilter{DateAfter: day}, []string{"next.jpg", "night.jpg", "morning.jpg"}},
		{"before only", &dto.HistoryFilter{DateBefore: day}, []string{"night.jpg", "morning.jpg", "late.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			var names []string
			for _, m := range got {
				names = append(names, m.Filename)
			}
			if strings.Join(names, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Expected %v, got %v", tt.want, names)
			}

			count, err := repo.GetTotalCount(tt.filter)
			if err != nil {
				t.Fatalf("GetTotalCount failed: %v", err)
			}
			if count != len(tt.want) {
				t.Errorf("Expected count %d, got %d", len(tt.want), count)
			}
		})
	}
}

func TestMeasurementRepository_GetAll_NewestFirstAcrossZones(t *testing.T) {
	repo := NewMeasurementRepository(setupTestDB(t))

	// 09:00 in UTC+9 is earlier than 01:00 UTC on the same date.
	earlier := time.Date(2024, 5, 2, 9, 0, 0, 0, time.FixedZone("KST", 9*60*60))
	later := time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC)
	insertMeasurement(t, repo, "later.jpg", "upload", later, 1)
	insertMeasurement(t, repo, "earlier.jpg", "upload", earlier, 1)

	got, err := repo.GetAll(&dto.HistoryFilter{})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "later.jpg" {
		t.Errorf("Expected later.jpg first, got %+v", got)
	}
}

func TestMeasurementRepository_GetAll_NewestFirst(t *testing.T) {
	repo := NewMeasurementRepository(setupTestDB(t))

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	insertMeasurement(t, repo, "old.jpg", "upload", base, 1)
	insertMeasurement(t, repo, "new.jpg", "upload", base.Add(time.Hour), 1)

	got, err := repo.GetAll(&dto.HistoryFilter{})
	if err != nil {
		t.Fatalf("GetAll failed: %v", err)
	}
	if len(got) != 2 || got[0].Filename != "new.jpg" {
		t.Errorf("Expected new.jpg first, got %+v", got)
	}
}

func TestMeasurementRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMeasurementRepository(db)
	detRepo := NewDetectionRepository(db)

	id := insertMeasurement(t, repo, "s1.jpg", "upload", time.Now(), 2)
	insertMeasurement(t, repo, "s2.jpg", "scan", time.Now(), 0)

	detRepo.InsertBatch([]model.Detection{
		{MeasurementID: id, Label: "person", X2: 10, Y2: 10, DistanceMeters: 2},
		{MeasurementID: id, Label: "person", X2: 10, Y2: 10, DistanceMeters: 4},
		{MeasurementID: id, Label: "car", X2: 10, Y2: 10},
	})

	stats, err := repo.GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.TotalMeasurements != 2 {
		t.Errorf("Expected 2 measurements, got %d", stats.TotalMeasurements)
	}
	if stats.TotalPeople != 2 {
		t.Errorf("Expected 2 people, got %d", stats.TotalPeople)
	}
	if stats.TotalSizeBytes != 2000 {
		t.Errorf("Expected 2000 bytes, got %d", stats.TotalSizeBytes)
	}
	if stats.NearestMeters != 2 || stats.AverageMeters != 3 {
		t.Errorf("Expected nearest 2 and average 3, got %v and %v", stats.NearestMeters, stats.AverageMeters)
	}
	if stats.PerSource["upload"] != 1 || stats.PerSource["scan"] != 1 {
		t.Errorf("Unexpected per-source counts: %v", stats.PerSource)
	}
	if stats.LabelCounts["person"] != 2 || stats.LabelCounts["car"] != 1 {
		t.Errorf("Unexpected label counts: %v", stats.LabelCounts)
	}

	sources, err := repo.GetSources()
	if err != nil {
		t.Fatalf("GetSources failed: %v", err)
	}
	if len(sources) != 2 || sources[0] != "scan" {
		t.Errorf("Expected sorted sources, got %v", sources)
	}
}

func TestMeasurementRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMeasurementRepository(db)
	detRepo := NewDetectionRepository(db)

	id := insertMeasurement(t, repo, "del.jpg", "upload", time.Now(), 1)
	detRepo.InsertBatch([]model.Detection{{MeasurementID: id, Label: "person", X2: 5, Y2: 5, DistanceMeters: 1}})

	if err := repo.DeleteByFilename("del.jpg"); err != nil {
		t.Fatalf("DeleteByFilename failed: %v", err)
	}

	exists, _ := repo.Exists("del.jpg")
	if exists {
		t.Error("Measurement should be deleted")
	}

	dets, _ := detRepo.GetByMeasurementID(id)
	if len(dets) != 0 {
		t.Errorf("Expected detections to be deleted, got %d", len(dets))
	}

	if err := repo.DeleteByFilename("missing.jpg"); err != nil {
		t.Errorf("Deleting a missing filename should not fail: %v", err)
	}
}

func TestMeasurementRepository_DeleteAll(t *testing.T) {
	repo := NewMeasurementRepository(setupTestDB(t))

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		insertMeasurement(t, repo, name, "scan", time.Now(), 0)
	}

	if err := repo.DeleteAll(); err != nil {
		t.Fatalf("DeleteAll failed: %v", err)
	}

	count, _ := repo.GetTotalCount(&dto.HistoryFilter{})
	if count != 0 {
		t.Errorf("Expected 0 measurements, got %d", count)
	}
}

// ========================================
// Detection Repository Tests
// ========================================

func TestDetectionRepository_Distances(t *testing.T) {
	db := setupTestDB(t)
	repo := NewMeasurementRepository(db)
	detRepo := NewDetectionRepository(db)

	id := insertMeasurement(t, repo, "d.jpg", "upload", time.Now(), 2)

	err := detRepo.InsertBatch([]model.Detection{
		{MeasurementID: id, Label: "person", X1: 10, Y1: 10, X2: 60, Y2: 110, Confidence: 0.9, DistanceMeters: 6},
		{MeasurementID: id, Label: "car", X1: 0, Y1: 0, X2: 30, Y2: 30, Confidence: 0.8},
		{MeasurementID: id, Label: "person", X1: 0, Y1: 0, X2: 100, Y2: 200, Confidence: 0.7, DistanceMeters: 3},
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	dets, err := detRepo.GetByMeasurementID(id)
	if err != nil {
		t.Fatalf("GetByMeasurementID failed: %v", err)
	}
	if len(dets) != 3 {
		t.Fatalf("Expected 3 detections, got %d", len(dets))
	}
	if dets[0].X2 != 60 || dets[0].Y2 != 110 {
		t.Errorf("Unexpected first detection box: %+v", dets[0])
	}

	distances, err := detRepo.GetDistancesByMeasurementID(id)
	if err != nil {
		t.Fatalf("GetDistancesByMeasurementID failed: %v", err)
	}
	if len(distances) != 2 || distances[0] != 6 || distances[1] != 3 {
		t.Errorf("Expected [6 3], got %v", distances)
	}
}
