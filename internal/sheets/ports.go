package sheets

import (
	"context"

	"backstage/internal/core"
)

// Ports for outbound adapters. Readers return raw tables; decoding and
// validation happen once, at the ingestion boundary in core.
type (
	TransactionReader interface {
		ReadTransactions(ctx context.Context) (core.Table, error)
	}

	EventReader interface {
		ReadEvents(ctx context.Context) (core.Table, error)
	}

	// AllocationReader loads both revenue-sharing tables: the flat
	// percentage rules and the per-category share map.
	AllocationReader interface {
		ReadAllocationRules(ctx context.Context) (core.Table, error)
		ReadCategoryShares(ctx context.Context) (core.Table, error)
	}

	TransactionWriter interface {
		Append(ctx context.Context, t core.Transaction) (rowRef string, err error)
	}

	// AllocationWriter replaces the revenue-sharing tables wholesale.
	// Callers enforce the percentage-sum invariants before writing.
	AllocationWriter interface {
		WriteAllocationRules(ctx context.Context, rules []core.AllocationRule) error
		WriteCategoryShares(ctx context.Context, shares []core.CategoryShare) error
	}
)
