package core

import (
	"sort"
	"time"
)

// EventProfitability is one row of the per-event result table. Revenue
// is recognized only on realization: PAID income linked to a COMPLETED
// event. Margin is nil when revenue is too small to be meaningful.
type EventProfitability struct {
	EventID    string     `json:"event_id"`
	Date       time.Time  `json:"date"`
	Venue      string     `json:"venue"`
	City       string     `json:"city"`
	Attendance int        `json:"attendance"`
	Revenue    float64    `json:"revenue"`
	Expense    float64    `json:"expense"`
	NetResult  float64    `json:"net_result"`
	Margin     *float64   `json:"margin"`
}

// EventProfitability computes the profitability table for every
// COMPLETED event, sorted by event date descending with venue ascending
// as the tie-break.
func (e *KpiEngine) EventProfitability(events []Event, txs []Transaction) []EventProfitability {
	revenue := map[string]float64{}
	expense := map[string]float64{}
	for _, t := range txs {
		if t.EventID == "" || t.PaymentStatus != Paid {
			continue
		}
		switch t.Direction {
		case Income:
			revenue[t.EventID] += t.Amount
		case Expense:
			expense[t.EventID] += t.Amount
		}
	}

	out := make([]EventProfitability, 0, len(events))
	for _, ev := range events {
		if ev.Status != Completed {
			continue
		}
		rev := revenue[ev.ID]
		exp := expense[ev.ID]
		row := EventProfitability{
			EventID:   ev.ID,
			Date:      ev.Date,
			Venue:     ev.Venue,
			City:      ev.City,
			Revenue:   rev,
			Expense:   exp,
			NetResult: rev - exp,
			Margin:    MarginSafely(rev, exp),
		}
		if ev.Attendance != nil {
			row.Attendance = *ev.Attendance
		}
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].Venue < out[j].Venue
	})
	return out
}
