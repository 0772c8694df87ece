package google

import (
	"context"
	"testing"
)

func TestToStrings(t *testing.T) {
	got := toStrings([]interface{}{" S2  ", 1500.5, true, nil})
	want := []string{"S2", "1500.5", "true", "<nil>"}
	if len(got) != len(want) {
		t.Fatalf("got %d values, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("value %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestIsBlank(t *testing.T) {
	if !isBlank([]string{"", "", ""}) {
		t.Fatal("all-empty row should be blank")
	}
	if isBlank([]string{"", "x", ""}) {
		t.Fatal("row with content should not be blank")
	}
	if !isBlank(nil) {
		t.Fatal("nil row should be blank")
	}
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet ID")
	}
}
