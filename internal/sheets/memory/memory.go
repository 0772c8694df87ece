// Package memory is the in-process backend used for development and
// tests. It holds the same four tables the spreadsheet does, as raw
// rows, so the ingestion path is identical to production.
package memory

import (
	"context"
	"fmt"
	"sync"

	"backstage/internal/core"
)

var transactionColumns = []string{
	"id", "date", "direction", "category", "subcategory",
	"description", "amount", "event_id", "payment_status", "account",
}

var eventColumns = []string{
	"id", "date", "venue", "city", "status", "attendance", "agreed_fee",
}

var allocationRuleColumns = []string{"member", "percentage", "active"}

var categoryShareColumns = []string{"category", "member", "percentage"}

type Store struct {
	mu           sync.Mutex
	transactions [][]string
	events       [][]string
	rules        [][]string
	shares       [][]string
}

// New returns an empty store.
func New() *Store {
	return &Store{}
}

// NewSeeded returns a store preloaded with a small but realistic
// dataset: two completed shows, one confirmed, a mix of paid and
// pending movements, and an even two-way split.
func NewSeeded() *Store {
	s := New()
	s.transactions = [][]string{
		{"t1", "15/03/2025", "ENTRADA", "SHOWS", "", "Cachê Teatro Rival", "3.000,00", "e1", "PAGO", "PIX"},
		{"t2", "15/03/2025", "SAIDA", "CACHÊS-MÚSICOS", "", "Pagamento banda", "1.200,00", "e1", "PAGO", "PIX"},
		{"t3", "15/03/2025", "SAIDA", "PRODUÇÃO", "som", "Aluguel de PA", "400,00", "e1", "PAGO", ""},
		{"t4", "05/04/2025", "ENTRADA", "SHOWS", "", "Cachê Circo Voador", "2.500,00", "e2", "NÃO RECEBIDO", ""},
		{"t5", "01/04/2025", "SAIDA", "ALUGUEL", "", "Sala de ensaio", "800,00", "", "PAGO", "boleto"},
	}
	s.events = [][]string{
		{"e1", "15/03/2025", "Teatro Rival", "Rio de Janeiro", "REALIZADO", "180", ""},
		{"e2", "05/04/2025", "Circo Voador", "Rio de Janeiro", "REALIZADO", "320", ""},
		{"e3", "10/05/2025", "Audio", "São Paulo", "CONFIRMADO", "", "4.000,00"},
	}
	s.rules = [][]string{
		{"Alice", "50", "true"},
		{"Bob", "50", "true"},
	}
	s.shares = [][]string{
		{"SHOWS", "Alice", "50"},
		{"SHOWS", "Bob", "50"},
		{"AULAS", "Alice", "100"},
	}
	return s
}

func (s *Store) ReadTransactions(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewTable(transactionColumns, copyRows(s.transactions)), nil
}

func (s *Store) ReadEvents(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewTable(eventColumns, copyRows(s.events)), nil
}

func (s *Store) ReadAllocationRules(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewTable(allocationRuleColumns, copyRows(s.rules)), nil
}

func (s *Store) ReadCategoryShares(_ context.Context) (core.Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return core.NewTable(categoryShareColumns, copyRows(s.shares)), nil
}

// Append stores the transaction and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, t core.Transaction) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, []string{
		t.ID,
		t.Date.Format("02/01/2006"),
		string(t.Direction),
		t.Category,
		t.Subcategory,
		t.Description,
		core.FormatBRL(t.Amount),
		t.EventID,
		string(t.PaymentStatus),
		t.Account,
	})
	return fmt.Sprintf("mem:%d", len(s.transactions)), nil
}

// WriteAllocationRules replaces the flat rule table.
func (s *Store) WriteAllocationRules(_ context.Context, rules []core.AllocationRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([][]string, 0, len(rules))
	for _, r := range rules {
		rows = append(rows, []string{r.Member, fmt.Sprintf("%g", r.Percentage), fmt.Sprintf("%t", r.Active)})
	}
	s.rules = rows
	return nil
}

// WriteCategoryShares replaces the category share table.
func (s *Store) WriteCategoryShares(_ context.Context, shares []core.CategoryShare) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := make([][]string, 0, len(shares))
	for _, sh := range shares {
		rows = append(rows, []string{sh.Category, sh.Member, fmt.Sprintf("%g", sh.Percentage)})
	}
	s.shares = rows
	return nil
}

func copyRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
