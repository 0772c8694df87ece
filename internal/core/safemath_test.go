package core

import (
	"math"
	"testing"
)

func TestSafeDivide(t *testing.T) {
	cases := []struct {
		n, d float64
		out  float64
	}{
		{100, 50, 2},
		{100, 0, 0},
		{100, 0.005, 0},
		{-10, 4, -2.5},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := SafeDivide(tc.n, tc.d, 0.0, MinDenominator); got != tc.out {
			t.Fatalf("SafeDivide(%v, %v) = %v, want %v", tc.n, tc.d, got, tc.out)
		}
	}
	// Custom default survives an unreliable denominator.
	if got := SafeDivide(1, 0, -1, MinDenominator); got != -1 {
		t.Fatalf("SafeDivide default = %v, want -1", got)
	}
}

func TestSafePercentage(t *testing.T) {
	if got := SafePercentage(25, 100); got != 25 {
		t.Fatalf("SafePercentage(25, 100) = %v, want 25", got)
	}
	if got := SafePercentage(100, 0); got != 0 {
		t.Fatalf("SafePercentage(100, 0) = %v, want 0", got)
	}
}

func TestSafePercentageChange(t *testing.T) {
	cases := []struct {
		name             string
		current, prev    float64
		want             float64
		wantNil, wantAny bool
	}{
		{name: "simple increase", current: 150, prev: 100, want: 50},
		{name: "simple decrease", current: 50, prev: 100, want: -50},
		{name: "both near zero", current: 0.001, prev: 0.005, want: 0},
		{name: "tiny base", current: 100, prev: 0.005, wantNil: true},
		{name: "collapse from small base", current: 0.001, prev: 5, wantNil: true},
		{name: "extreme swing from small base", current: 900, prev: 2, wantNil: true},
		{name: "extreme increase clamped", current: 5000, prev: 100, want: 1000},
		{name: "drop to zero from large base", current: 0, prev: 3000, want: -100},
	}
	for _, tc := range cases {
		got := SafePercentageChange(tc.current, tc.prev)
		if tc.wantNil {
			if got != nil {
				t.Fatalf("%s: got %v, want nil", tc.name, *got)
			}
			continue
		}
		if got == nil {
			t.Fatalf("%s: got nil, want %v", tc.name, tc.want)
		}
		if math.Abs(*got-tc.want) > 1e-9 {
			t.Fatalf("%s: got %v, want %v", tc.name, *got, tc.want)
		}
	}
}

func TestSafePercentageChangeLargeBaseCrash(t *testing.T) {
	// A near-total collapse from a large base is a real signal, not
	// noise: previous is well above SmallBase, so the clamped value
	// comes back instead of nil.
	got := SafePercentageChange(0.07, 3180.0)
	if got == nil {
		t.Fatal("got nil, want a clamped percentage")
	}
	want := (0.07 - 3180.0) / 3180.0 * 100
	if math.Abs(*got-want) > 1e-6 {
		t.Fatalf("got %v, want %v", *got, want)
	}
}

func TestSafePercentageChangeBounds(t *testing.T) {
	pairs := [][2]float64{
		{1e9, 50}, {-1e9, 50}, {0, 3000}, {123, 456}, {5000, 100},
	}
	for _, p := range pairs {
		got := SafePercentageChange(p[0], p[1])
		if got == nil {
			continue
		}
		if *got < PercentChangeMin || *got > PercentChangeMax {
			t.Fatalf("SafePercentageChange(%v, %v) = %v outside [%v, %v]",
				p[0], p[1], *got, PercentChangeMin, PercentChangeMax)
		}
	}
}

func TestMarginSafely(t *testing.T) {
	if got := MarginSafely(1000, 700); got == nil || *got != 30 {
		t.Fatalf("MarginSafely(1000, 700) = %v, want 30", got)
	}
	if got := MarginSafely(1000, 1200); got == nil || *got != -20 {
		t.Fatalf("MarginSafely(1000, 1200) = %v, want -20", got)
	}
	if got := MarginSafely(0, 100); got != nil {
		t.Fatalf("MarginSafely(0, 100) = %v, want nil", *got)
	}
}

func TestIsReliableTrend(t *testing.T) {
	cases := []struct {
		values []float64
		want   bool
	}{
		{[]float64{100, 150, 200}, true},
		{[]float64{0.01, 0.02}, false},
		{[]float64{100}, false},
		{nil, false},
		{[]float64{0.5, 100, 200}, true},
	}
	for _, tc := range cases {
		if got := IsReliableTrend(tc.values, 2, 1.0); got != tc.want {
			t.Fatalf("IsReliableTrend(%v) = %v, want %v", tc.values, got, tc.want)
		}
	}
}

func TestFormatPercentageChange(t *testing.T) {
	v := 15.5
	if got := FormatPercentageChange(&v, 1, true); got != "+15.5%" {
		t.Fatalf("got %q, want +15.5%%", got)
	}
	v = -20.3
	if got := FormatPercentageChange(&v, 1, true); got != "-20.3%" {
		t.Fatalf("got %q, want -20.3%%", got)
	}
	if got := FormatPercentageChange(nil, 1, true); got != "N/A" {
		t.Fatalf("got %q, want N/A", got)
	}
	v = 7.25
	if got := FormatPercentageChange(&v, 2, false); got != "7.25%" {
		t.Fatalf("got %q, want 7.25%%", got)
	}
}
