package analytics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/dvloznov/ledger-analyzer/internal/domain"
)

func TestAnalyzeTrendsIncreasing(t *testing.T) {
	src := &mockRecordSource{byPeriod: map[string][]domain.Record{
		"2024-01": {rec("Sales", "2024-01", 100, "Revenue")},
		"2024-02": {rec("Sales", "2024-02", 110, "Revenue")},
		"2024-03": {rec("Sales", "2024-03", 121, "Revenue")},
	}}

	series, err := newTestEngine(src).AnalyzeTrendsByPeriod(context.Background(),
		[]string{"2024-01", "2024-02", "2024-03"}, "Revenue")
	if err != nil {
		t.Fatalf("AnalyzeTrendsByPeriod failed: %v", err)
	}

	if series.Direction != DirectionIncreasing {
		t.Errorf("Direction = %q, want Increasing", series.Direction)
	}
	if math.Abs(series.PercentageChange-21.0) > 0.001 {
		t.Errorf("PercentageChange = %v, want 21.0", series.PercentageChange)
	}
	if series.Volatile {
		t.Error("steady 10%% growth must not be flagged volatile")
	}
	if len(series.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(series.Points))
	}
	if series.Points[0].ChangePct != nil {
		t.Error("first point must not carry a change percentage")
	}
	if series.Points[1].ChangePct == nil || math.Abs(*series.Points[1].ChangePct-10) > 0.001 {
		t.Errorf("second point change = %v, want 10", series.Points[1].ChangePct)
	}
}

func TestAnalyzeTrendsStableAndDecreasing(t *testing.T) {
	src := &mockRecordSource{byPeriod: map[string][]domain.Record{
		"p1": {rec("Sales", "p1", 100, "Revenue")},
		"p2": {rec("Sales", "p2", 102, "Revenue")},
		"p3": {rec("Sales", "p3", 100, "Revenue")},
	}}
	series, err := newTestEngine(src).AnalyzeTrendsByPeriod(context.Background(), []string{"p1", "p2", "p3"}, "")
	if err != nil {
		t.Fatalf("AnalyzeTrendsByPeriod failed: %v", err)
	}
	if series.Direction != DirectionStable {
		t.Errorf("Direction = %q, want Stable", series.Direction)
	}

	src = &mockRecordSource{byPeriod: map[string][]domain.Record{
		"p1": {rec("Sales", "p1", 100, "Revenue")},
		"p2": {rec("Sales", "p2", 80, "Revenue")},
	}}
	series, err = newTestEngine(src).AnalyzeTrendsByPeriod(context.Background(), []string{"p1", "p2"}, "")
	if err != nil {
		t.Fatalf("AnalyzeTrendsByPeriod failed: %v", err)
	}
	if series.Direction != DirectionDecreasing {
		t.Errorf("Direction = %q, want Decreasing", series.Direction)
	}
}

func TestAnalyzeTrendsVolatility(t *testing.T) {
	src := &mockRecordSource{byPeriod: map[string][]domain.Record{
		"p1": {rec("Sales", "p1", 100, "Revenue")},
		"p2": {rec("Sales", "p2", 150, "Revenue")},
		"p3": {rec("Sales", "p3", 90, "Revenue")},
	}}
	series, err := newTestEngine(src).AnalyzeTrendsByPeriod(context.Background(), []string{"p1", "p2", "p3"}, "")
	if err != nil {
		t.Fatalf("AnalyzeTrendsByPeriod failed: %v", err)
	}
	if !series.Volatile {
		t.Error("swings of +50%% and -40%% must be flagged volatile")
	}
}

func TestAnalyzeTrendsZeroPreviousPeriod(t *testing.T) {
	src := &mockRecordSource{byPeriod: map[string][]domain.Record{
		"p1": {},
		"p2": {rec("Sales", "p2", 100, "Revenue")},
	}}
	series, err := newTestEngine(src).AnalyzeTrendsByPeriod(context.Background(), []string{"p1", "p2"}, "")
	if err != nil {
		t.Fatalf("zero-valued previous period must not error: %v", err)
	}
	if series.Points[1].ChangePct != nil {
		t.Error("change after a zero period must be omitted, not infinite")
	}
}

func TestAnalyzeTrendsTooFewPeriods(t *testing.T) {
	src := &mockRecordSource{}
	_, err := newTestEngine(src).AnalyzeTrendsByPeriod(context.Background(), []string{"p1"}, "")
	if !errors.Is(err, domain.ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}
