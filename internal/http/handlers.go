package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"backstage/internal/core"
	"backstage/internal/log"
)

// parsePeriod reads the optional start/end query parameters. Both must
// be present for a report to be period-bounded; a lone bound is
// rejected so callers never get a silently unbounded answer.
func parsePeriod(r *http.Request) (start, end *time.Time, ok bool, msg string) {
	rawStart := strings.TrimSpace(r.URL.Query().Get("start"))
	rawEnd := strings.TrimSpace(r.URL.Query().Get("end"))

	if rawStart == "" && rawEnd == "" {
		return nil, nil, true, ""
	}
	if rawStart == "" || rawEnd == "" {
		return nil, nil, false, "start and end must be provided together"
	}

	s, okS := core.ParseDate(rawStart)
	if !okS {
		return nil, nil, false, "invalid start date: " + rawStart
	}
	e, okE := core.ParseDate(rawEnd)
	if !okE {
		return nil, nil, false, "invalid end date: " + rawEnd
	}
	if e.Before(s) {
		return nil, nil, false, "end date precedes start date"
	}
	return &s, &e, true, ""
}

func periodKey(start, end *time.Time) string {
	if start == nil || end == nil {
		return "all"
	}
	return start.Format("2006-01-02") + "|" + end.Format("2006-01-02")
}

func (s *Server) handleKpis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, end, ok, msg := parsePeriod(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	key := periodKey(start, end)
	if set, found := s.caches.kpis.Get(key); found {
		writeJSON(w, http.StatusOK, set)
		return
	}

	set, err := s.reports.Kpis(r.Context(), start, end)
	if err != nil {
		s.httpLog.LogError(r.Context(), "kpi report failed", err, log.ComponentReport, log.OpCompute, log.NewFields())
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.caches.kpis.Set(key, set)
	writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleProfitability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if rows, found := s.caches.profitability.Get("all"); found {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	rows, err := s.reports.Profitability(r.Context())
	if err != nil {
		s.httpLog.LogError(r.Context(), "profitability report failed", err, log.ComponentReport, log.OpCompute, log.NewFields())
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.caches.profitability.Set("all", rows)
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleFlatAllocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, end, ok, msg := parsePeriod(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	key := periodKey(start, end)
	if report, found := s.caches.flat.Get(key); found {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.reports.FlatAllocation(r.Context(), start, end)
	if err != nil {
		s.httpLog.LogError(r.Context(), "flat allocation failed", err, log.ComponentAllocation, log.OpCompute, log.NewFields())
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.caches.flat.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCategoryAllocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	start, end, ok, msg := parsePeriod(r)
	if !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	key := periodKey(start, end)
	if report, found := s.caches.categories.Get(key); found {
		writeJSON(w, http.StatusOK, report)
		return
	}

	report, err := s.reports.CategoryAllocation(r.Context(), start, end)
	if err != nil {
		s.httpLog.LogError(r.Context(), "category allocation failed", err, log.ComponentAllocation, log.OpCompute, log.NewFields())
		writeError(w, statusForError(err), err.Error())
		return
	}
	s.caches.categories.Set(key, report)
	writeJSON(w, http.StatusOK, report)
}

// moneyAmount accepts a JSON number or a locale-formatted string such
// as "1.500,00".
type moneyAmount float64

func (m *moneyAmount) UnmarshalJSON(b []byte) error {
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*m = moneyAmount(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*m = moneyAmount(core.ParseBRL(s))
	return nil
}

type transactionRequest struct {
	ID            string      `json:"id"`
	Date          string      `json:"date"`
	Direction     string      `json:"direction"`
	Category      string      `json:"category"`
	Subcategory   string      `json:"subcategory"`
	Description   string      `json:"description"`
	Amount        moneyAmount `json:"amount"`
	EventID       string      `json:"event_id"`
	PaymentStatus string      `json:"payment_status"`
	Account       string      `json:"account"`
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t := core.Transaction{
		ID:          req.ID,
		Category:    strings.TrimSpace(req.Category),
		Subcategory: strings.TrimSpace(req.Subcategory),
		Description: strings.TrimSpace(req.Description),
		Amount:      float64(req.Amount),
		EventID:     strings.TrimSpace(req.EventID),
		Account:     strings.TrimSpace(req.Account),
	}
	if d, ok := core.ParseDate(req.Date); ok {
		t.Date = d
	} else if strings.TrimSpace(req.Date) != "" {
		writeError(w, http.StatusBadRequest, "invalid date: "+req.Date)
		return
	}
	// Legacy spellings resolve here; unknown values keep the raw string
	// so the ledger service reports them against the closed enum.
	if d, ok := core.ParseDirection(req.Direction); ok {
		t.Direction = d
	} else {
		t.Direction = core.Direction(req.Direction)
	}
	if ps, ok := core.ParsePaymentStatus(req.PaymentStatus); ok {
		t.PaymentStatus = ps
	} else {
		t.PaymentStatus = core.PaymentStatus(req.PaymentStatus)
	}

	ref, err := s.ledger.RecordTransaction(r.Context(), t)
	if err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.httpLog.LogError(r.Context(), "record transaction failed", err, log.ComponentLedger, log.OpCreate, log.NewFields())
		}
		writeError(w, status, err.Error())
		return
	}

	s.httpLog.LogTransactionRecorded(r.Context(), t.ID, string(t.Direction), t.Category, float64(req.Amount), ref)
	writeJSON(w, http.StatusCreated, map[string]string{"ref": ref})
}

type allocationRuleRequest struct {
	Member     string  `json:"member"`
	Percentage float64 `json:"percentage"`
	Active     *bool   `json:"active"`
	Method     string  `json:"method"`
}

func (s *Server) handleReplaceRules(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var reqs []allocationRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one rule is required")
		return
	}

	rules := make([]core.AllocationRule, 0, len(reqs))
	for _, rr := range reqs {
		rule := core.AllocationRule{
			Member:     strings.TrimSpace(rr.Member),
			Percentage: rr.Percentage,
			Active:     true,
			Method:     strings.TrimSpace(rr.Method),
		}
		if rr.Active != nil {
			rule.Active = *rr.Active
		}
		if rule.Method == "" {
			rule.Method = "fixed"
		}
		rules = append(rules, rule)
	}

	if err := s.alloc.ReplaceRules(r.Context(), rules); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.httpLog.LogError(r.Context(), "replace rules failed", err, log.ComponentAllocation, log.OpCreate, log.NewFields())
		}
		writeError(w, status, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type categoryShareRequest struct {
	Category   string  `json:"category"`
	Member     string  `json:"member"`
	Percentage float64 `json:"percentage"`
}

func (s *Server) handleReplaceShares(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var reqs []categoryShareRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(reqs) == 0 {
		writeError(w, http.StatusBadRequest, "at least one share is required")
		return
	}

	shares := make([]core.CategoryShare, 0, len(reqs))
	for _, sr := range reqs {
		shares = append(shares, core.CategoryShare{
			Category:   strings.TrimSpace(sr.Category),
			Member:     strings.TrimSpace(sr.Member),
			Percentage: sr.Percentage,
		})
	}

	if err := s.alloc.ReplaceShares(r.Context(), shares); err != nil {
		status := statusForError(err)
		if status == http.StatusInternalServerError {
			s.httpLog.LogError(r.Context(), "replace shares failed", err, log.ComponentAllocation, log.OpCreate, log.NewFields())
		}
		writeError(w, status, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
