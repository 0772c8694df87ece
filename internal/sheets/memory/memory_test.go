package memory

import (
	"context"
	"testing"
	"time"

	"backstage/internal/core"
)

func TestSeededTablesDecode(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	tbl, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions: %v", err)
	}
	txs, err := core.ValidateTransactions(tbl)
	if err != nil {
		t.Fatalf("seed transactions must validate: %v", err)
	}
	if len(txs) != 5 {
		t.Fatalf("got %d transactions, want 5", len(txs))
	}

	tbl, err = s.ReadEvents(ctx)
	if err != nil {
		t.Fatalf("ReadEvents: %v", err)
	}
	events, err := core.ValidateEvents(tbl)
	if err != nil {
		t.Fatalf("seed events must validate: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
}

func TestAppendRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.Append(ctx, core.Transaction{
		ID:            "t9",
		Date:          time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Direction:     core.Income,
		Category:      "SHOWS",
		Description:   "pocket show",
		Amount:        1234.56,
		PaymentStatus: core.Paid,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if ref != "mem:1" {
		t.Fatalf("ref = %q, want mem:1", ref)
	}

	tbl, err := s.ReadTransactions(ctx)
	if err != nil {
		t.Fatalf("ReadTransactions: %v", err)
	}
	txs, err := core.ValidateTransactions(tbl)
	if err != nil {
		t.Fatalf("appended row must validate: %v", err)
	}
	if len(txs) != 1 || txs[0].Amount != 1234.56 {
		t.Fatalf("round trip lost data: %+v", txs)
	}
}

func TestWriteAllocationRules(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	rules := []core.AllocationRule{
		{Member: "Alice", Percentage: 70, Active: true},
		{Member: "Bob", Percentage: 30, Active: true},
	}
	if err := s.WriteAllocationRules(ctx, rules); err != nil {
		t.Fatalf("WriteAllocationRules: %v", err)
	}

	tbl, err := s.ReadAllocationRules(ctx)
	if err != nil {
		t.Fatalf("ReadAllocationRules: %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "Alice" || tbl.Rows[0][1] != "70" {
		t.Fatalf("unexpected first rule row: %v", tbl.Rows[0])
	}
}

func TestWriteCategoryShares(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	shares := []core.CategoryShare{
		{Category: "SHOWS", Member: "Alice", Percentage: 100},
	}
	if err := s.WriteCategoryShares(ctx, shares); err != nil {
		t.Fatalf("WriteCategoryShares: %v", err)
	}

	tbl, err := s.ReadCategoryShares(ctx)
	if err != nil {
		t.Fatalf("ReadCategoryShares: %v", err)
	}
	if len(tbl.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(tbl.Rows))
	}
	if tbl.Rows[0][0] != "SHOWS" || tbl.Rows[0][2] != "100" {
		t.Fatalf("unexpected share row: %v", tbl.Rows[0])
	}
}
