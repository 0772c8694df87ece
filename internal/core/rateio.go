package core

import "math"

// The rateio (revenue-share) engines are pure functions: they never
// touch the store, and they apply whatever percentages they are given.
// Percentage-sum invariants are enforced at write time by the config
// service, not here.

// PercentageSumTolerance is the slack allowed when checking that a
// percentage set sums to 100.
const PercentageSumTolerance = 0.01

// AllocateFlat splits a period's net result among the active members of
// a fixed-percentage table. A negative net result produces negative
// payouts (cost sharing), which is intentional.
func AllocateFlat(netResult float64, rules []AllocationRule) AllocationResult {
	out := make(AllocationResult)
	for _, r := range rules {
		if !r.Active {
			continue
		}
		out[r.Member] += r.Percentage / 100 * netResult
	}
	return out
}

// CategoryNetTotals groups PAID transactions by category and sums their
// signed amounts (+income, -expense). REVERSED and UNRECEIVED movements
// are excluded, matching the engine's realized-cash convention.
func CategoryNetTotals(txs []Transaction) map[string]float64 {
	totals := make(map[string]float64)
	for _, t := range txs {
		if t.PaymentStatus != Paid {
			continue
		}
		switch t.Direction {
		case Income:
			totals[t.Category] += t.Amount
		case Expense:
			totals[t.Category] -= t.Amount
		}
	}
	return totals
}

// AllocateByCategory joins per-category net totals against the
// category share map. Categories present in the data but absent from
// the map contribute nothing to anyone: unmapped categories are simply
// not yet subject to revenue sharing.
func AllocateByCategory(totals map[string]float64, shares []CategoryShare) AllocationResult {
	out := make(AllocationResult)
	for _, s := range shares {
		total, ok := totals[s.Category]
		if !ok {
			continue
		}
		out[s.Member] += total * s.Percentage / 100
	}
	return out
}

// ValidateAllocationRules checks the write-time invariant that active
// percentages sum to 100 within tolerance.
func ValidateAllocationRules(rules []AllocationRule) error {
	var sum float64
	for _, r := range rules {
		if r.Active {
			sum += r.Percentage
		}
	}
	if math.Abs(sum-100) > PercentageSumTolerance {
		return &RangeError{
			Table:  "allocation_rules",
			Column: "percentage",
			Detail: "active percentages must sum to 100",
		}
	}
	return nil
}

// ValidateCategoryShares checks that every category's share
// percentages sum to 100 within tolerance.
func ValidateCategoryShares(shares []CategoryShare) error {
	sums := make(map[string]float64)
	for _, s := range shares {
		sums[s.Category] += s.Percentage
	}
	for category, sum := range sums {
		if math.Abs(sum-100) > PercentageSumTolerance {
			return &RangeError{
				Table:  "category_shares",
				Column: "percentage",
				Detail: "percentages for category " + category + " must sum to 100",
			}
		}
	}
	return nil
}
