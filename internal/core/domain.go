package core

import (
	"strings"
	"time"
)

// Canonical enum values. The spreadsheet historically uses Portuguese
// spellings; those are resolved to canonical values at ingestion so the
// engines never branch on raw strings.
const (
	Income  Direction = "INCOME"
	Expense Direction = "EXPENSE"

	Paid       PaymentStatus = "PAID"
	Unreceived PaymentStatus = "UNRECEIVED"
	Reversed   PaymentStatus = "REVERSED"

	Planned   EventStatus = "PLANNED"
	Confirmed EventStatus = "CONFIRMED"
	Completed EventStatus = "COMPLETED"
	Cancelled EventStatus = "CANCELLED"
)

type (
	Direction     string
	PaymentStatus string
	EventStatus   string

	// Transaction is a single financial movement. Amount is always
	// stored non-negative; the sign is derived from Direction at
	// aggregation time.
	Transaction struct {
		ID            string
		Date          time.Time
		Direction     Direction
		Category      string
		Subcategory   string
		Description   string
		Amount        float64
		EventID       string // empty for non-event movements
		PaymentStatus PaymentStatus
		Account       string
	}

	// Event is a calendar engagement (a show).
	Event struct {
		ID         string
		Date       time.Time
		Venue      string
		City       string
		Status     EventStatus
		Attendance *int
		AgreedFee  *float64
	}

	// AllocationRule gives one member a fixed share of the period result.
	AllocationRule struct {
		Member     string
		Percentage float64 // 0-100
		Active     bool
		Method     string // currently always "fixed"
	}

	// CategoryShare gives one member a share of a single category's net.
	CategoryShare struct {
		Category   string
		Member     string
		Percentage float64 // 0-100
	}

	// AllocationResult maps member name to payout.
	AllocationResult map[string]float64
)

// Legacy wire spellings still present in the spreadsheet tabs.
var (
	directionAliases = map[string]Direction{
		"INCOME":  Income,
		"EXPENSE": Expense,
		"ENTRADA": Income,
		"SAIDA":   Expense,
		"SAÍDA":   Expense,
	}

	paymentStatusAliases = map[string]PaymentStatus{
		"PAID":         Paid,
		"UNRECEIVED":   Unreceived,
		"REVERSED":     Reversed,
		"PAGO":         Paid,
		"NÃO RECEBIDO": Unreceived,
		"NAO RECEBIDO": Unreceived,
		"ESTORNADO":    Reversed,
	}

	eventStatusAliases = map[string]EventStatus{
		"PLANNED":    Planned,
		"CONFIRMED":  Confirmed,
		"COMPLETED":  Completed,
		"CANCELLED":  Cancelled,
		"PLANEJADO":  Planned,
		"CONFIRMADO": Confirmed,
		"REALIZADO":  Completed,
		"CANCELADO":  Cancelled,
	}
)

// ParseDirection resolves a raw cell value to a canonical Direction.
func ParseDirection(raw string) (Direction, bool) {
	d, ok := directionAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return d, ok
}

// ParsePaymentStatus resolves a raw cell value to a canonical PaymentStatus.
func ParsePaymentStatus(raw string) (PaymentStatus, bool) {
	s, ok := paymentStatusAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

// ParseEventStatus resolves a raw cell value to a canonical EventStatus.
func ParseEventStatus(raw string) (EventStatus, bool) {
	s, ok := eventStatusAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return s, ok
}

// ParseDate accepts the date formats found in the spreadsheet.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	formats := []string{"02/01/2006", "2006-01-02", "02-01-2006", "2006/01/02"}
	for _, f := range formats {
		if t, err := time.Parse(f, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
