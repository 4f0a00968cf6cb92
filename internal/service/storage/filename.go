package storage

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the layout of the timestamp prefix of every result filename.
const TimestampLayout = "2006-01-02_15-04_05.000"

// ResultFilename builds the on-disk name of an annotated result:
// 2006-01-02_15-04_05.000_<source>_<N>p.jpg
func ResultFilename(timestamp, source string, people int) string {
	return fmt.Sprintf("%s_%s_%dp.jpg", timestamp, sanitizeSource(source), people)
}

// ParseResultFilename extracts metadata from a result filename built by ResultFilename.
func ParseResultFilename(filename string) (timestamp time.Time, source string, people int, err error) {
	name := strings.TrimSuffix(filename, ".jpg")
	parts := strings.Split(name, "_")

	if len(parts) != 5 {
		return time.Time{}, "", 0, fmt.Errorf("invalid filename format: %s", filename)
	}

	// Timestamp spans the first 3 parts: date, time, seconds.milliseconds
	timeStr := parts[0] + "_" + parts[1] + "_" + parts[2]
	timestamp, err = time.ParseInLocation(TimestampLayout, timeStr, time.Local)
	if err != nil {
		return time.Time{}, "", 0, fmt.Errorf("failed to parse timestamp: %w", err)
	}

	source = parts[3]

	count := parts[4]
	if !strings.HasSuffix(count, "p") {
		return time.Time{}, "", 0, fmt.Errorf("invalid people count in %s", filename)
	}
	people, err = strconv.Atoi(strings.TrimSuffix(count, "p"))
	if err != nil || people < 0 {
		return time.Time{}, "", 0, fmt.Errorf("invalid people count in %s", filename)
	}

	return timestamp, source, people, nil
}

// sanitizeSource keeps the source a single filename token.
func sanitizeSource(source string) string {
	if source == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '/', '\\', ' ', '.':
			return '-'
		}
		return r
	}, source)
}
