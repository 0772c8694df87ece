package core

import (
	"math"
	"testing"
	"time"
)

func TestAllocateFlat(t *testing.T) {
	rules := []AllocationRule{
		{Member: "Alice", Percentage: 50, Active: true},
		{Member: "Bob", Percentage: 50, Active: true},
	}
	got := AllocateFlat(1000, rules)
	if got["Alice"] != 500 || got["Bob"] != 500 {
		t.Fatalf("AllocateFlat = %v, want Alice:500 Bob:500", got)
	}
}

func TestAllocateFlatSkipsInactive(t *testing.T) {
	rules := []AllocationRule{
		{Member: "Alice", Percentage: 60, Active: true},
		{Member: "Bob", Percentage: 40, Active: false},
	}
	got := AllocateFlat(1000, rules)
	if len(got) != 1 {
		t.Fatalf("AllocateFlat = %v, want only Alice", got)
	}
	if got["Alice"] != 600 {
		t.Fatalf("Alice = %v, want 600", got["Alice"])
	}
}

func TestAllocateFlatNegativeNet(t *testing.T) {
	rules := []AllocationRule{
		{Member: "Alice", Percentage: 70, Active: true},
		{Member: "Bob", Percentage: 30, Active: true},
	}
	got := AllocateFlat(-1000, rules)
	if got["Alice"] != -700 || got["Bob"] != -300 {
		t.Fatalf("losses must flow through: %v", got)
	}
}

func TestAllocateFlatConservation(t *testing.T) {
	rules := []AllocationRule{
		{Member: "Alice", Percentage: 33.34, Active: true},
		{Member: "Bob", Percentage: 33.33, Active: true},
		{Member: "Carol", Percentage: 33.33, Active: true},
	}
	for _, net := range []float64{1000, 0.07, -2543.19, 1e7} {
		got := AllocateFlat(net, rules)
		var sum float64
		for _, v := range got {
			sum += v
		}
		if math.Abs(sum-net) > 1e-6 {
			t.Fatalf("net %v: shares sum to %v", net, sum)
		}
	}
}

func TestCategoryNetTotals(t *testing.T) {
	d := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{ID: "t1", Date: d, Direction: Income, Category: "Shows", Amount: 1000, PaymentStatus: Paid},
		{ID: "t2", Date: d, Direction: Expense, Category: "Shows", Amount: 200, PaymentStatus: Paid},
		{ID: "t3", Date: d, Direction: Income, Category: "Merch", Amount: 300, PaymentStatus: Paid},
		{ID: "t4", Date: d, Direction: Income, Category: "Shows", Amount: 999, PaymentStatus: Unreceived},
		{ID: "t5", Date: d, Direction: Expense, Category: "Merch", Amount: 999, PaymentStatus: Reversed},
	}
	got := CategoryNetTotals(txs)
	if got["Shows"] != 800 {
		t.Fatalf("Shows = %v, want 800", got["Shows"])
	}
	if got["Merch"] != 300 {
		t.Fatalf("Merch = %v, want 300", got["Merch"])
	}
}

func TestAllocateByCategory(t *testing.T) {
	totals := map[string]float64{"Shows": 800, "Merch": 200}
	shares := []CategoryShare{
		{Category: "Shows", Member: "Alice", Percentage: 100},
	}
	got := AllocateByCategory(totals, shares)
	// Merch has no share map entry, so it contributes nothing.
	if len(got) != 1 || got["Alice"] != 800 {
		t.Fatalf("AllocateByCategory = %v, want Alice:800", got)
	}
}

func TestAllocateByCategorySplit(t *testing.T) {
	totals := map[string]float64{"Shows": 1000, "Aulas": -200}
	shares := []CategoryShare{
		{Category: "Shows", Member: "Alice", Percentage: 60},
		{Category: "Shows", Member: "Bob", Percentage: 40},
		{Category: "Aulas", Member: "Bob", Percentage: 100},
	}
	got := AllocateByCategory(totals, shares)
	if got["Alice"] != 600 {
		t.Fatalf("Alice = %v, want 600", got["Alice"])
	}
	if math.Abs(got["Bob"]-200) > 1e-9 {
		t.Fatalf("Bob = %v, want 200 (400 from Shows, -200 from Aulas)", got["Bob"])
	}
}

func TestValidateAllocationRules(t *testing.T) {
	tests := []struct {
		name    string
		rules   []AllocationRule
		wantErr bool
	}{
		{
			name: "exact hundred",
			rules: []AllocationRule{
				{Member: "Alice", Percentage: 50, Active: true},
				{Member: "Bob", Percentage: 50, Active: true},
			},
		},
		{
			name: "within tolerance",
			rules: []AllocationRule{
				{Member: "Alice", Percentage: 33.34, Active: true},
				{Member: "Bob", Percentage: 33.33, Active: true},
				{Member: "Carol", Percentage: 33.33, Active: true},
			},
		},
		{
			name: "inactive rules excluded from the sum",
			rules: []AllocationRule{
				{Member: "Alice", Percentage: 100, Active: true},
				{Member: "Bob", Percentage: 40, Active: false},
			},
		},
		{
			name: "short of hundred",
			rules: []AllocationRule{
				{Member: "Alice", Percentage: 60, Active: true},
				{Member: "Bob", Percentage: 30, Active: true},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAllocationRules(tt.rules)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateAllocationRules() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateCategoryShares(t *testing.T) {
	ok := []CategoryShare{
		{Category: "Shows", Member: "Alice", Percentage: 60},
		{Category: "Shows", Member: "Bob", Percentage: 40},
		{Category: "Merch", Member: "Alice", Percentage: 100},
	}
	if err := ValidateCategoryShares(ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bad := []CategoryShare{
		{Category: "Shows", Member: "Alice", Percentage: 60},
		{Category: "Shows", Member: "Bob", Percentage: 50},
	}
	err := ValidateCategoryShares(bad)
	if err == nil {
		t.Fatal("expected error for Shows summing to 110")
	}
}
