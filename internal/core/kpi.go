package core

import (
	"time"
)

// Default category lists carried over from the spreadsheet. The payout
// category exists under two historical spellings; both resolve to the
// same concept.
var (
	DefaultMusicianPayoutCategories = []string{"CACHÊS-MÚSICOS", "PAYOUT_MUSICOS"}

	DefaultFixedExpenseCategories = []string{
		"ALUGUEL", "INTERNET", "ENERGIA", "ÁGUA",
		"MANUTENÇÃO", "ASSINATURAS", "SEGURO",
	}
)

// DefaultAttendanceTarget is the per-event attendance goal used by the
// attendance score when no deployment-specific target is configured.
const DefaultAttendanceTarget = 100.0

// KpiConfig tunes the engine. The zero value is not usable; start from
// DefaultKpiConfig.
type KpiConfig struct {
	MusicianPayoutCategories []string
	FixedExpenseCategories   []string
	AttendanceTarget         float64
	// Now anchors the trailing 90-day attendance window. Zero means
	// wall clock; tests pin it.
	Now time.Time
}

// DefaultKpiConfig returns the engine configuration matching the
// historical spreadsheet conventions.
func DefaultKpiConfig() KpiConfig {
	return KpiConfig{
		MusicianPayoutCategories: DefaultMusicianPayoutCategories,
		FixedExpenseCategories:   DefaultFixedExpenseCategories,
		AttendanceTarget:         DefaultAttendanceTarget,
	}
}

// KpiSet is the full indicator set for one period.
type KpiSet struct {
	CompletedEvents          int     `json:"completed_events"`
	TotalIncome              float64 `json:"total_income"`
	AverageIncomePerEvent    float64 `json:"average_income_per_event"`
	TotalMusicianPayout      float64 `json:"total_musician_payout"`
	TotalExpenses            float64 `json:"total_expenses"`
	CurrentCash              float64 `json:"current_cash"`
	Receivable               float64 `json:"receivable"`
	TotalAttendance          int     `json:"total_attendance"`
	AverageAttendance        float64 `json:"average_attendance"`
	CashToIncomePct          float64 `json:"cash_to_income_pct"`
	EstimatedCash            float64 `json:"estimated_cash"`
	EventsWithoutPaidIncome  int     `json:"events_without_paid_income"`
	AttendanceScore          float64 `json:"attendance_score"`
	AvgMonthlyFixedExpenses  float64 `json:"avg_monthly_fixed_expenses"`
}

// KpiEngine computes the indicator set from validated snapshots. It is
// stateless: repeated calls with the same inputs yield the same KpiSet.
type KpiEngine struct {
	cfg            KpiConfig
	payoutCategory map[string]struct{}
	fixedCategory  map[string]struct{}
}

// NewKpiEngine builds an engine from a config, filling zero-valued
// fields from the defaults.
func NewKpiEngine(cfg KpiConfig) *KpiEngine {
	def := DefaultKpiConfig()
	if len(cfg.MusicianPayoutCategories) == 0 {
		cfg.MusicianPayoutCategories = def.MusicianPayoutCategories
	}
	if len(cfg.FixedExpenseCategories) == 0 {
		cfg.FixedExpenseCategories = def.FixedExpenseCategories
	}
	if cfg.AttendanceTarget <= 0 {
		cfg.AttendanceTarget = def.AttendanceTarget
	}
	e := &KpiEngine{
		cfg:            cfg,
		payoutCategory: make(map[string]struct{}, len(cfg.MusicianPayoutCategories)),
		fixedCategory:  make(map[string]struct{}, len(cfg.FixedExpenseCategories)),
	}
	for _, c := range cfg.MusicianPayoutCategories {
		e.payoutCategory[c] = struct{}{}
	}
	for _, c := range cfg.FixedExpenseCategories {
		e.fixedCategory[c] = struct{}{}
	}
	return e
}

// Compute derives the full KPI set for the given period. Nil bounds
// mean the full tables. Only PAID transactions count toward realized
// cash; UNRECEIVED feeds receivables; REVERSED is excluded from every
// sum. Empty inputs produce zeros, never an error.
func (e *KpiEngine) Compute(txs []Transaction, events []Event, start, end *time.Time) KpiSet {
	txs, events = filterPeriod(txs, events, start, end)

	var k KpiSet

	for _, ev := range events {
		if ev.Status == Completed {
			k.CompletedEvents++
			if ev.Attendance != nil {
				k.TotalAttendance += *ev.Attendance
			}
		}
	}

	paidIncomeByEvent := map[string]struct{}{}
	for _, t := range txs {
		paid := t.PaymentStatus == Paid
		switch t.Direction {
		case Income:
			if paid {
				k.TotalIncome += t.Amount
				if t.EventID != "" {
					paidIncomeByEvent[t.EventID] = struct{}{}
				}
			} else if t.PaymentStatus == Unreceived {
				k.Receivable += t.Amount
			}
		case Expense:
			if paid {
				k.TotalExpenses += t.Amount
				if _, ok := e.payoutCategory[t.Category]; ok {
					k.TotalMusicianPayout += t.Amount
				}
			}
		}
	}

	completed := float64(k.CompletedEvents)
	k.AverageIncomePerEvent = SafeDivide(k.TotalIncome, completed, 0.0, MinDenominator)
	k.AverageAttendance = SafeDivide(float64(k.TotalAttendance), completed, 0.0, MinDenominator)
	k.CurrentCash = k.TotalIncome - k.TotalExpenses
	k.CashToIncomePct = SafePercentage(k.CurrentCash, k.TotalIncome)

	k.EstimatedCash = k.CurrentCash
	for _, ev := range events {
		if ev.Status == Confirmed && ev.AgreedFee != nil {
			k.EstimatedCash += *ev.AgreedFee
		}
	}

	for _, ev := range events {
		if ev.Status != Completed {
			continue
		}
		if _, ok := paidIncomeByEvent[ev.ID]; !ok {
			k.EventsWithoutPaidIncome++
		}
	}

	k.AttendanceScore = e.attendanceScore(events)
	k.AvgMonthlyFixedExpenses = e.avgMonthlyFixedExpenses(txs)

	return k
}

// attendanceScore is the composite audience indicator: mean attendance
// of COMPLETED events in the trailing 90 days times the events-per-month
// rate over that window, scaled against the attendance target and
// capped at 100.
func (e *KpiEngine) attendanceScore(events []Event) float64 {
	now := e.cfg.Now
	if now.IsZero() {
		now = time.Now()
	}
	cutoff := now.AddDate(0, 0, -90)

	var count, attended int
	var attendance float64
	for _, ev := range events {
		if ev.Status != Completed || ev.Date.Before(cutoff) {
			continue
		}
		count++
		if ev.Attendance != nil {
			attended++
			attendance += float64(*ev.Attendance)
		}
	}
	if count == 0 || attended == 0 {
		return 0.0
	}

	// Events without a reported head count still count toward the
	// per-month rate, but not toward the mean.
	mean := attendance / float64(attended)
	perMonth := float64(count) / 3 // trailing 3-month window
	score := mean * perMonth / e.cfg.AttendanceTarget * 100
	if score > 100 {
		return 100
	}
	return score
}

// avgMonthlyFixedExpenses averages, over the calendar months present,
// the PAID recurring-cost expense totals.
func (e *KpiEngine) avgMonthlyFixedExpenses(txs []Transaction) float64 {
	byMonth := map[string]float64{}
	for _, t := range txs {
		if t.Direction != Expense || t.PaymentStatus != Paid {
			continue
		}
		if _, ok := e.fixedCategory[t.Category]; !ok {
			continue
		}
		byMonth[t.Date.Format("2006-01")] += t.Amount
	}
	if len(byMonth) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range byMonth {
		sum += v
	}
	return sum / float64(len(byMonth))
}

// filterPeriod restricts both tables to [start, end] when both bounds
// are given; otherwise the full tables are used.
func filterPeriod(txs []Transaction, events []Event, start, end *time.Time) ([]Transaction, []Event) {
	if start == nil || end == nil {
		return txs, events
	}
	inRange := func(d time.Time) bool {
		return !d.Before(*start) && !d.After(*end)
	}
	ftx := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if inRange(t.Date) {
			ftx = append(ftx, t)
		}
	}
	fev := make([]Event, 0, len(events))
	for _, ev := range events {
		if inRange(ev.Date) {
			fev = append(fev, ev)
		}
	}
	return ftx, fev
}
