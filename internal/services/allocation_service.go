package services

import (
	"context"
	"fmt"

	"backstage/internal/core"
	"backstage/internal/log"
	"backstage/internal/sheets"
)

// AllocationConfigService manages the flat revenue-sharing rules. The
// percentage-sum invariant is enforced at write time so readers never
// see a table that silently over- or under-allocates.
type AllocationConfigService struct {
	writer      sheets.AllocationWriter
	invalidator Invalidator
	logger      *log.Logger
}

func NewAllocationConfigService(writer sheets.AllocationWriter, invalidator Invalidator, logger *log.Logger) *AllocationConfigService {
	return &AllocationConfigService{
		writer:      writer,
		invalidator: invalidator,
		logger:      logger.WithComponent(log.ComponentAllocation),
	}
}

// ReplaceRules validates and stores a complete flat rule set.
func (s *AllocationConfigService) ReplaceRules(ctx context.Context, rules []core.AllocationRule) error {
	for _, r := range rules {
		if r.Member == "" {
			return &core.SchemaError{Table: "allocation_rules", Missing: []string{"member"}}
		}
		if r.Percentage < 0 || r.Percentage > 100 {
			return &core.RangeError{
				Table: "allocation_rules", Column: "percentage",
				Detail: "must be between 0 and 100",
			}
		}
	}
	if err := core.ValidateAllocationRules(rules); err != nil {
		return err
	}

	if err := s.writer.WriteAllocationRules(ctx, rules); err != nil {
		return fmt.Errorf("write allocation rules: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Purge()
	}

	s.logger.InfoContext(ctx, "Allocation rules replaced", "rules", len(rules))
	return nil
}

// ReplaceShares validates and stores a complete category share map.
func (s *AllocationConfigService) ReplaceShares(ctx context.Context, shares []core.CategoryShare) error {
	for _, sh := range shares {
		if sh.Category == "" {
			return &core.SchemaError{Table: "category_shares", Missing: []string{"category"}}
		}
		if sh.Member == "" {
			return &core.SchemaError{Table: "category_shares", Missing: []string{"member"}}
		}
		if sh.Percentage < 0 || sh.Percentage > 100 {
			return &core.RangeError{
				Table: "category_shares", Column: "percentage",
				Detail: "must be between 0 and 100",
			}
		}
	}
	if err := core.ValidateCategoryShares(shares); err != nil {
		return err
	}

	if err := s.writer.WriteCategoryShares(ctx, shares); err != nil {
		return fmt.Errorf("write category shares: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Purge()
	}

	s.logger.InfoContext(ctx, "Category shares replaced", "shares", len(shares))
	return nil
}
