package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"backstage/internal/core"
	"backstage/internal/log"
	"backstage/internal/sheets"
)

// ReportDataSource is the read side a report needs: the ledger, the
// show calendar and the revenue-sharing tables.
type ReportDataSource interface {
	sheets.TransactionReader
	sheets.EventReader
	sheets.AllocationReader
}

// FlatAllocationReport is the outcome of splitting a period's net
// result by the flat percentage rules.
type FlatAllocationReport struct {
	NetResult float64               `json:"net_result"`
	Shares    core.AllocationResult `json:"shares"`
}

// CategoryAllocationReport is the outcome of the category-share mode.
type CategoryAllocationReport struct {
	CategoryTotals map[string]float64    `json:"category_totals"`
	Shares         core.AllocationResult `json:"shares"`
}

// ReportService computes indicator sets and allocation reports from a
// data source. It is read-only; every call reflects the source at call
// time.
type ReportService struct {
	source ReportDataSource
	engine *core.KpiEngine
	logger *log.Logger
}

func NewReportService(source ReportDataSource, cfg core.KpiConfig, logger *log.Logger) *ReportService {
	return &ReportService{
		source: source,
		engine: core.NewKpiEngine(cfg),
		logger: logger.WithComponent(log.ComponentReport),
	}
}

// loadLedger fetches and validates the transaction and event tables
// concurrently. Either table failing validation fails the whole load.
func (s *ReportService) loadLedger(ctx context.Context) ([]core.Transaction, []core.Event, error) {
	var (
		txs    []core.Transaction
		events []core.Event
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tbl, err := s.source.ReadTransactions(ctx)
		if err != nil {
			return fmt.Errorf("read transactions: %w", err)
		}
		txs, err = core.ValidateTransactions(tbl)
		return err
	})
	g.Go(func() error {
		tbl, err := s.source.ReadEvents(ctx)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		events, err = core.ValidateEvents(tbl)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return txs, events, nil
}

// Kpis computes the indicator set for a period. Nil bounds mean the
// full dataset.
func (s *ReportService) Kpis(ctx context.Context, start, end *time.Time) (core.KpiSet, error) {
	txs, events, err := s.loadLedger(ctx)
	if err != nil {
		return core.KpiSet{}, err
	}

	k := s.engine.Compute(txs, events, start, end)
	s.logger.DebugContext(ctx, "KPI set computed",
		log.FieldOperation, log.OpCompute,
		"transactions", len(txs),
		"events", len(events))
	return k, nil
}

// Profitability computes the per-event result table.
func (s *ReportService) Profitability(ctx context.Context) ([]core.EventProfitability, error) {
	txs, events, err := s.loadLedger(ctx)
	if err != nil {
		return nil, err
	}
	return s.engine.EventProfitability(events, txs), nil
}

// FlatAllocation splits the period's net result among the members by
// the active flat percentage rules.
func (s *ReportService) FlatAllocation(ctx context.Context, start, end *time.Time) (FlatAllocationReport, error) {
	var rules []core.AllocationRule

	g, gctx := errgroup.WithContext(ctx)
	var k core.KpiSet
	g.Go(func() error {
		var err error
		k, err = s.Kpis(gctx, start, end)
		return err
	})
	g.Go(func() error {
		tbl, err := s.source.ReadAllocationRules(gctx)
		if err != nil {
			return fmt.Errorf("read allocation rules: %w", err)
		}
		rules, err = core.DecodeAllocationRules(tbl)
		return err
	})
	if err := g.Wait(); err != nil {
		return FlatAllocationReport{}, err
	}

	return FlatAllocationReport{
		NetResult: k.CurrentCash,
		Shares:    core.AllocateFlat(k.CurrentCash, rules),
	}, nil
}

// CategoryAllocation joins realized net totals per category against
// the category share map. Nil bounds mean the full ledger.
func (s *ReportService) CategoryAllocation(ctx context.Context, start, end *time.Time) (CategoryAllocationReport, error) {
	var (
		txs    []core.Transaction
		shares []core.CategoryShare
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		tbl, err := s.source.ReadTransactions(gctx)
		if err != nil {
			return fmt.Errorf("read transactions: %w", err)
		}
		txs, err = core.ValidateTransactions(tbl)
		return err
	})
	g.Go(func() error {
		tbl, err := s.source.ReadCategoryShares(gctx)
		if err != nil {
			return fmt.Errorf("read category shares: %w", err)
		}
		shares, err = core.DecodeCategoryShares(tbl)
		return err
	})
	if err := g.Wait(); err != nil {
		return CategoryAllocationReport{}, err
	}

	if start != nil && end != nil {
		bounded := make([]core.Transaction, 0, len(txs))
		for _, t := range txs {
			if !t.Date.Before(*start) && !t.Date.After(*end) {
				bounded = append(bounded, t)
			}
		}
		txs = bounded
	}

	totals := core.CategoryNetTotals(txs)
	return CategoryAllocationReport{
		CategoryTotals: totals,
		Shares:         core.AllocateByCategory(totals, shares),
	}, nil
}
