package storage

import (
	"os"
	"testing"
	"time"

	"crypto_rebalancer/internal/models"

	"github.com/shopspring/decimal"
)

func TestSaveAndLoadReport(t *testing.T) {
	// 1. Setup Temp Dir so the real reports/ directory stays untouched
	tmpDir := t.TempDir()
	originalWd, _ := os.Getwd()
	if err := os.Chdir(tmpDir); err != nil {
		t.Fatalf("Failed to chdir: %v", err)
	}
	defer os.Chdir(originalWd)

	// 2. Build a report with every outcome represented
	report := &models.BatchReport{
		Timestamp:      time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC),
		Mode:           models.ModeLive,
		InvestableCash: decimal.NewFromInt(100),
		Results: []models.OrderResult{
			{Symbol: "BTC", Quantity: decimal.NewFromFloat(0.003), Price: decimal.NewFromInt(20000), Notional: decimal.NewFromInt(60), Outcome: models.OutcomeSuccess},
			{Symbol: "ETH", Notional: decimal.NewFromInt(8), Outcome: models.OutcomeRejected, Reason: "notional 8 below minimum 10"},
		},
		TotalSpent:    decimal.NewFromInt(60),
		SuccessCount:  1,
		RejectedCount: 1,
	}

	// 3. Save
	path, err := SaveReport(report)
	if err != nil {
		t.Fatalf("SaveReport failed: %v", err)
	}
	if path != "reports/report_20260823_143000.json" {
		t.Errorf("Unexpected report path: %s", path)
	}

	// 4. No temp file may survive the atomic rename
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file left behind after save")
	}

	// 5. Reload and verify round trip
	loaded, err := LoadReport(path)
	if err != nil {
		t.Fatalf("LoadReport failed: %v", err)
	}
	if loaded.Mode != models.ModeLive {
		t.Errorf("Expected live mode, got %s", loaded.Mode)
	}
	if !loaded.TotalSpent.Equal(decimal.NewFromInt(60)) {
		t.Errorf("TotalSpent mismatch: got %s", loaded.TotalSpent)
	}
	if len(loaded.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(loaded.Results))
	}
	if loaded.Results[1].Reason != "notional 8 below minimum 10" {
		t.Errorf("Rejection reason lost: %q", loaded.Results[1].Reason)
	}
}

func TestLoadReport_Missing(t *testing.T) {
	if _, err := LoadReport("does_not_exist.json"); err == nil {
		t.Error("Expected error for missing report file")
	}
}
