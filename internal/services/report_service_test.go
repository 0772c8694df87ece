package services

import (
	"context"
	"math"
	"testing"
	"time"

	"backstage/internal/core"
	"backstage/internal/log"
	"backstage/internal/sheets/memory"
)

func testLogger() *log.Logger {
	return log.New(log.DefaultConfig())
}

func TestReportServiceKpis(t *testing.T) {
	svc := NewReportService(memory.NewSeeded(), core.DefaultKpiConfig(), testLogger())

	k, err := svc.Kpis(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Kpis: %v", err)
	}

	if k.CompletedEvents != 2 {
		t.Fatalf("CompletedEvents = %d, want 2", k.CompletedEvents)
	}
	if k.TotalIncome != 3000 {
		t.Fatalf("TotalIncome = %v, want 3000", k.TotalIncome)
	}
	if k.TotalExpenses != 2400 {
		t.Fatalf("TotalExpenses = %v, want 2400", k.TotalExpenses)
	}
	if k.CurrentCash != 600 {
		t.Fatalf("CurrentCash = %v, want 600", k.CurrentCash)
	}
	if k.Receivable != 2500 {
		t.Fatalf("Receivable = %v, want 2500", k.Receivable)
	}
	if k.TotalMusicianPayout != 1200 {
		t.Fatalf("TotalMusicianPayout = %v, want 1200", k.TotalMusicianPayout)
	}
	if k.TotalAttendance != 500 {
		t.Fatalf("TotalAttendance = %v, want 500", k.TotalAttendance)
	}
	// Confirmed show at Audio carries a 4000 agreed fee.
	if k.EstimatedCash != 4600 {
		t.Fatalf("EstimatedCash = %v, want 4600", k.EstimatedCash)
	}
	// Circo Voador income is still unreceived.
	if k.EventsWithoutPaidIncome != 1 {
		t.Fatalf("EventsWithoutPaidIncome = %d, want 1", k.EventsWithoutPaidIncome)
	}
}

func TestReportServiceProfitability(t *testing.T) {
	svc := NewReportService(memory.NewSeeded(), core.DefaultKpiConfig(), testLogger())

	rows, err := svc.Profitability(context.Background())
	if err != nil {
		t.Fatalf("Profitability: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2 completed shows", len(rows))
	}
	// Newest first: Circo Voador (05/04) before Teatro Rival (15/03).
	if rows[0].Venue != "Circo Voador" || rows[1].Venue != "Teatro Rival" {
		t.Fatalf("unexpected order: %s, %s", rows[0].Venue, rows[1].Venue)
	}
	rival := rows[1]
	if rival.Revenue != 3000 || rival.Expense != 1600 || rival.NetResult != 1400 {
		t.Fatalf("Teatro Rival totals = %+v", rival)
	}
}

func TestReportServiceFlatAllocation(t *testing.T) {
	svc := NewReportService(memory.NewSeeded(), core.DefaultKpiConfig(), testLogger())

	report, err := svc.FlatAllocation(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("FlatAllocation: %v", err)
	}
	if report.NetResult != 600 {
		t.Fatalf("NetResult = %v, want 600", report.NetResult)
	}
	if report.Shares["Alice"] != 300 || report.Shares["Bob"] != 300 {
		t.Fatalf("Shares = %v, want even 300 split", report.Shares)
	}
}

func TestReportServiceCategoryAllocation(t *testing.T) {
	svc := NewReportService(memory.NewSeeded(), core.DefaultKpiConfig(), testLogger())

	report, err := svc.CategoryAllocation(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("CategoryAllocation: %v", err)
	}
	if report.CategoryTotals["SHOWS"] != 3000 {
		t.Fatalf("SHOWS total = %v, want 3000", report.CategoryTotals["SHOWS"])
	}
	// Only SHOWS is mapped; the expense categories contribute nothing.
	if math.Abs(report.Shares["Alice"]-1500) > 1e-9 || math.Abs(report.Shares["Bob"]-1500) > 1e-9 {
		t.Fatalf("Shares = %v, want 1500 each", report.Shares)
	}

	// A window excluding every seeded transaction yields empty totals.
	start := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 12, 31, 0, 0, 0, 0, time.UTC)
	report, err = svc.CategoryAllocation(context.Background(), &start, &end)
	if err != nil {
		t.Fatalf("CategoryAllocation bounded: %v", err)
	}
	if len(report.CategoryTotals) != 0 {
		t.Fatalf("bounded totals = %v, want none", report.CategoryTotals)
	}
}

func TestReportServiceValidationFailurePropagates(t *testing.T) {
	store := memory.New()
	// An empty store has empty tables with headers; loading them is
	// fine and yields zero KPIs.
	svc := NewReportService(store, core.DefaultKpiConfig(), testLogger())
	k, err := svc.Kpis(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("Kpis on empty store: %v", err)
	}
	if k.TotalIncome != 0 || k.CompletedEvents != 0 {
		t.Fatalf("empty store should yield zero KPIs, got %+v", k)
	}
}
