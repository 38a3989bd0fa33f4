package analytics

import (
	"context"
	"testing"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	src := &mockRecordSource{byDocument: map[string][]domain.Record{
		"doc1": {
			rec("Utilities", "2024-01", 100, "Expense"),
			rec("Phone", "2024-01", 102, "Expense"),
			rec("Internet", "2024-01", 98, "Expense"),
			rec("Water", "2024-01", 101, "Expense"),
			rec("Equipment", "2024-01", 5000, "Expense"),
		},
	}}

	anomalies, err := newTestEngine(src).DetectAnomalies(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("DetectAnomalies failed: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1: %+v", len(anomalies), anomalies)
	}

	a := anomalies[0]
	if a.AccountName != "Equipment" || a.Amount != 5000 {
		t.Errorf("flagged the wrong record: %+v", a)
	}
	if a.Severity != SeverityMedium && a.Severity != SeverityHigh {
		t.Errorf("Severity = %q, want at least Medium", a.Severity)
	}
	if a.Expected == 0 || a.Deviation == 0 || a.Reason == "" {
		t.Errorf("anomaly detail missing: %+v", a)
	}
}

func TestDetectAnomaliesSkipsSmallGroups(t *testing.T) {
	src := &mockRecordSource{byDocument: map[string][]domain.Record{
		"doc1": {
			rec("Sales", "2024-01", 10, "Revenue"),
			rec("Licensing", "2024-01", 1000000, "Revenue"),
		},
	}}

	anomalies, err := newTestEngine(src).DetectAnomalies(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("DetectAnomalies failed: %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("groups below the minimum size must be skipped, got %+v", anomalies)
	}
}

func TestDetectAnomaliesUniformGroup(t *testing.T) {
	src := &mockRecordSource{byDocument: map[string][]domain.Record{
		"doc1": {
			rec("A", "2024-01", 100, "Expense"),
			rec("B", "2024-01", 100, "Expense"),
			rec("C", "2024-01", 100, "Expense"),
			rec("D", "2024-01", 100, "Expense"),
		},
	}}

	anomalies, err := newTestEngine(src).DetectAnomalies(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("DetectAnomalies failed: %v", err)
	}
	if len(anomalies) != 0 {
		t.Errorf("identical amounts must not be anomalous, got %+v", anomalies)
	}
}

func TestDetectAnomaliesGroupsByCategory(t *testing.T) {
	// The expense outlier must not be masked by revenue records.
	src := &mockRecordSource{byDocument: map[string][]domain.Record{
		"doc1": {
			rec("Sales A", "2024-01", 900000, "Revenue"),
			rec("Sales B", "2024-01", 910000, "Revenue"),
			rec("Sales C", "2024-01", 905000, "Revenue"),
			rec("Utilities", "2024-01", 100, "Expense"),
			rec("Phone", "2024-01", 102, "Expense"),
			rec("Internet", "2024-01", 98, "Expense"),
			rec("Water", "2024-01", 101, "Expense"),
			rec("Equipment", "2024-01", 5000, "Expense"),
		},
	}}

	anomalies, err := newTestEngine(src).DetectAnomalies(context.Background(), "doc1")
	if err != nil {
		t.Fatalf("DetectAnomalies failed: %v", err)
	}
	if len(anomalies) != 1 {
		t.Fatalf("got %d anomalies, want 1: %+v", len(anomalies), anomalies)
	}
	if anomalies[0].Category != "Expense" {
		t.Errorf("anomaly category = %q, want Expense", anomalies[0].Category)
	}
}

func TestExcludedStats(t *testing.T) {
	group := []domain.Record{
		rec("A", "p", 100, "Expense"),
		rec("B", "p", 102, "Expense"),
		rec("C", "p", 98, "Expense"),
	}
	mean, stddev := excludedStats(group, 0)
	if mean != 100 {
		t.Errorf("mean = %v, want 100", mean)
	}
	if stddev != 2 {
		t.Errorf("stddev = %v, want 2", stddev)
	}
}
