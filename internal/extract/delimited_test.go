package extract

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestDelimitedExtract(t *testing.T) {
	csv := strings.Join([]string{
		"Account Name,Period,Amount,Category",
		"Sales,2024-Q1,150000,Revenue",
		"Rent,2024-Q1,12000,Expense",
	}, "\n")

	e := NewDelimitedExtractor(testLogger())
	result, err := e.Extract(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if result.Source != SourceDelimited {
		t.Errorf("Source = %v, want %v", result.Source, SourceDelimited)
	}
	if len(result.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(result.Records))
	}
	if result.Records[0].AccountName != "Sales" || result.Records[0].Amount != 150000 {
		t.Errorf("unexpected first record: %+v", result.Records[0])
	}
	if result.Records[1].Category != "Expense" {
		t.Errorf("Category = %q, want Expense", result.Records[1].Category)
	}
	if result.Records[0].Currency != "USD" {
		t.Errorf("Currency should default to USD, got %q", result.Records[0].Currency)
	}
}

func TestDelimitedExtractTSV(t *testing.T) {
	tsv := "Account Name\tPeriod\tAmount\tCategory\nSales\t2024-Q1\t$1,000\tRevenue\n"

	e := NewDelimitedExtractor(testLogger())
	result, err := e.Extract(context.Background(), []byte(tsv))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(result.Records))
	}
	if result.Records[0].Amount != 1000 {
		t.Errorf("Amount = %v, want 1000", result.Records[0].Amount)
	}
}

func TestDelimitedSkipsInvalidRows(t *testing.T) {
	csv := strings.Join([]string{
		"Account Name,Period,Amount,Category",
		"Sales,2024-Q1,150000,Revenue",
		",2024-Q1,500,Expense",
		"Rent,,500,Expense",
		"Fees,2024-Q1,500,",
	}, "\n")

	e := NewDelimitedExtractor(testLogger())
	result, err := e.Extract(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(result.Records) != 1 {
		t.Fatalf("got %d records, want 1", len(result.Records))
	}
	if len(result.Warnings) != 3 {
		t.Errorf("got %d warnings, want 3: %v", len(result.Warnings), result.Warnings)
	}
	for _, rec := range result.Records {
		if !rec.Valid() {
			t.Errorf("extractor returned invalid record: %+v", rec)
		}
	}
}

func TestDelimitedNoHeader(t *testing.T) {
	csv := "just,some,random\nvalues,1,2\n"

	e := NewDelimitedExtractor(testLogger())
	result, err := e.Extract(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("got %d records, want 0", len(result.Records))
	}
	found := false
	for _, w := range result.Warnings {
		if strings.Contains(w, "no header row") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want a no-header notice", result.Warnings)
	}
}

func TestDelimitedHeaderOutsideScanWindow(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("title,notes,misc\n")
	}
	b.WriteString("Account Name,Period,Amount,Category\n")
	b.WriteString("Sales,2024-Q1,150000,Revenue\n")

	e := NewDelimitedExtractor(testLogger())
	result, err := e.Extract(context.Background(), []byte(b.String()))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(result.Records) != 0 {
		t.Errorf("header at row 11 must yield empty result, got %d records", len(result.Records))
	}
}

func TestDelimitedIdempotent(t *testing.T) {
	csv := strings.Join([]string{
		"Account Name,Period,Amount,Category",
		"Sales,2024-Q1,150000,Revenue",
		",2024-Q1,500,Expense",
		"Rent,2024-Q1,12000,Expense",
	}, "\n")

	e := NewDelimitedExtractor(testLogger())
	e.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	first, err := e.Extract(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	second, err := e.Extract(context.Background(), []byte(csv))
	if err != nil {
		t.Fatalf("second Extract failed: %v", err)
	}

	if !reflect.DeepEqual(first.Records, second.Records) {
		t.Error("re-extracting identical input produced different records")
	}
	if !reflect.DeepEqual(first.Warnings, second.Warnings) {
		t.Error("re-extracting identical input produced different warnings")
	}
}
