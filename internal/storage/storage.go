package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"crypto_rebalancer/internal/models"
)

// ReportsDir is where every run's report lands, one JSON file per run.
const ReportsDir = "reports"

// SaveReport archives a batch report to disk using an atomic write
// pattern (write temp, sync, rename) and returns the final path.
// Each run gets its own timestamped file so history is never clobbered.
func SaveReport(report *models.BatchReport) (string, error) {
	if err := os.MkdirAll(ReportsDir, 0755); err != nil {
		return "", fmt.Errorf("creating reports dir: %w", err)
	}

	name := fmt.Sprintf("report_%s.json", report.Timestamp.Format("20060102_150405"))
	path := filepath.Join(ReportsDir, name)

	b, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling report: %w", err)
	}

	// Temp file in the same directory so the rename stays atomic.
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp report file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(b); err != nil {
		return "", fmt.Errorf("writing temp report file: %w", err)
	}

	// Force sync to disk before the rename so a crash can't leave a
	// renamed-but-empty report behind.
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing temp report file: %w", err)
	}

	// Close explicitly before renaming (essential on Windows)
	f.Close()

	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("replacing report file: %w", err)
	}

	log.Printf("Report archived to %s", path)
	return path, nil
}

// LoadReport reads a previously archived report back from disk.
func LoadReport(path string) (*models.BatchReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var report models.BatchReport
	if err := json.Unmarshal(b, &report); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return &report, nil
}
