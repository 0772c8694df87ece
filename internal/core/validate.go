package core

import (
	"fmt"
	"strconv"
	"strings"
)

// Validation failures are typed so the caller can render a specific,
// actionable message: a missing column is not the same problem as a bad
// enum value. All of them abort the whole batch; financial figures must
// never be computed from a partially-invalid dataset.
type (
	// SchemaError reports required columns missing from a table header.
	SchemaError struct {
		Table   string
		Missing []string
	}

	// EnumError reports a value outside its closed enumeration.
	EnumError struct {
		Table   string
		Column  string
		Row     int
		Value   string
		Allowed []string
	}

	// RangeError reports a numeric field violating a bounds constraint.
	RangeError struct {
		Table  string
		Column string
		Row    int
		Detail string
	}

	// TypeError reports a cell that cannot be coerced to its field type.
	TypeError struct {
		Table  string
		Column string
		Row    int
		Value  string
	}
)

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing required columns: %s", e.Table, strings.Join(e.Missing, ", "))
}

func (e *EnumError) Error() string {
	return fmt.Sprintf("%s row %d: %s %q not in {%s}", e.Table, e.Row, e.Column, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s row %d: %s %s", e.Table, e.Row, e.Column, e.Detail)
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s row %d: %s %q is not a valid value", e.Table, e.Row, e.Column, e.Value)
}

// Column aliases: the legacy spreadsheet tabs carry Portuguese headers,
// newer exports the canonical ones. Resolution happens once, here.
var (
	transactionColumns = map[string][]string{
		"id":             {"id"},
		"date":           {"date", "data"},
		"direction":      {"direction", "tipo"},
		"category":       {"category", "categoria"},
		"subcategory":    {"subcategory", "subcategoria"},
		"description":    {"description", "descricao", "descrição"},
		"amount":         {"amount", "valor"},
		"event_id":       {"event_id", "show_id"},
		"payment_status": {"payment_status"},
		"account":        {"account", "conta"},
	}

	eventColumns = map[string][]string{
		"id":         {"id", "show_id"},
		"date":       {"date", "data_show", "data"},
		"venue":      {"venue", "casa"},
		"city":       {"city", "cidade"},
		"status":     {"status"},
		"attendance": {"attendance", "publico", "público"},
		"agreed_fee": {"agreed_fee", "cache_acordado"},
	}

	allocationRuleColumns = map[string][]string{
		"member":     {"member", "membro", "integrante"},
		"percentage": {"percentage", "percentual", "porcentagem"},
		"active":     {"active", "ativo"},
		"method":     {"method", "metodo", "método"},
	}

	categoryShareColumns = map[string][]string{
		"category":   {"category", "categoria"},
		"member":     {"member", "membro", "integrante"},
		"percentage": {"percentage", "percentual", "porcentagem"},
	}

	requiredTransactionColumns    = []string{"id", "date", "direction", "category", "description", "amount", "payment_status"}
	requiredEventColumns          = []string{"id", "date", "venue", "status"}
	requiredAllocationRuleColumns = []string{"member", "percentage"}
	requiredCategoryShareColumns  = []string{"category", "member", "percentage"}
)

// ValidateTransactions checks a raw transactions table against the
// schema, enum and amount invariants and decodes it into typed records.
// The first failure aborts the batch; no partial result is returned.
func ValidateTransactions(tbl Table) ([]Transaction, error) {
	pos, missing := resolveColumns(tbl, transactionColumns, requiredTransactionColumns)
	if len(missing) > 0 {
		return nil, &SchemaError{Table: "transactions", Missing: missing}
	}

	out := make([]Transaction, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		rowNum := i + 1

		dir, ok := ParseDirection(cell(row, pos["direction"]))
		if !ok {
			return nil, &EnumError{
				Table: "transactions", Column: "direction", Row: rowNum,
				Value:   cell(row, pos["direction"]),
				Allowed: []string{string(Income), string(Expense)},
			}
		}

		status, ok := ParsePaymentStatus(cell(row, pos["payment_status"]))
		if !ok {
			return nil, &EnumError{
				Table: "transactions", Column: "payment_status", Row: rowNum,
				Value:   cell(row, pos["payment_status"]),
				Allowed: []string{string(Paid), string(Unreceived), string(Reversed)},
			}
		}

		rawAmount := cell(row, pos["amount"])
		amount := ParseBRL(rawAmount)
		if amount <= 0 {
			return nil, &TypeError{Table: "transactions", Column: "amount", Row: rowNum, Value: rawAmount}
		}

		rawDate := cell(row, pos["date"])
		date, ok := ParseDate(rawDate)
		if !ok {
			return nil, &TypeError{Table: "transactions", Column: "date", Row: rowNum, Value: rawDate}
		}

		out = append(out, Transaction{
			ID:            cell(row, pos["id"]),
			Date:          date,
			Direction:     dir,
			Category:      cell(row, pos["category"]),
			Subcategory:   cell(row, pos["subcategory"]),
			Description:   cell(row, pos["description"]),
			Amount:        amount,
			EventID:       cell(row, pos["event_id"]),
			PaymentStatus: status,
			Account:       cell(row, pos["account"]),
		})
	}
	return out, nil
}

// ValidateEvents checks a raw events table and decodes it into typed
// records, enforcing the status enum and attendance non-negativity.
func ValidateEvents(tbl Table) ([]Event, error) {
	pos, missing := resolveColumns(tbl, eventColumns, requiredEventColumns)
	if len(missing) > 0 {
		return nil, &SchemaError{Table: "events", Missing: missing}
	}

	out := make([]Event, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		rowNum := i + 1

		status, ok := ParseEventStatus(cell(row, pos["status"]))
		if !ok {
			return nil, &EnumError{
				Table: "events", Column: "status", Row: rowNum,
				Value:   cell(row, pos["status"]),
				Allowed: []string{string(Planned), string(Confirmed), string(Completed), string(Cancelled)},
			}
		}

		rawDate := cell(row, pos["date"])
		date, ok := ParseDate(rawDate)
		if !ok {
			return nil, &TypeError{Table: "events", Column: "date", Row: rowNum, Value: rawDate}
		}

		ev := Event{
			ID:     cell(row, pos["id"]),
			Date:   date,
			Venue:  cell(row, pos["venue"]),
			City:   cell(row, pos["city"]),
			Status: status,
		}

		if raw := cell(row, pos["attendance"]); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return nil, &TypeError{Table: "events", Column: "attendance", Row: rowNum, Value: raw}
			}
			if n < 0 {
				return nil, &RangeError{Table: "events", Column: "attendance", Row: rowNum, Detail: "must be >= 0"}
			}
			ev.Attendance = &n
		}

		if raw := cell(row, pos["agreed_fee"]); raw != "" {
			fee := ParseBRL(raw)
			if fee < 0 {
				return nil, &RangeError{Table: "events", Column: "agreed_fee", Row: rowNum, Detail: "must be >= 0"}
			}
			ev.AgreedFee = &fee
		}

		out = append(out, ev)
	}
	return out, nil
}

// DecodeAllocationRules decodes a raw flat-rule table. A missing
// active column defaults every rule to active, matching the legacy tab
// that predates the flag.
func DecodeAllocationRules(tbl Table) ([]AllocationRule, error) {
	pos, missing := resolveColumns(tbl, allocationRuleColumns, requiredAllocationRuleColumns)
	if len(missing) > 0 {
		return nil, &SchemaError{Table: "allocation_rules", Missing: missing}
	}

	out := make([]AllocationRule, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		rowNum := i + 1

		rawPct := cell(row, pos["percentage"])
		pct, err := strconv.ParseFloat(strings.ReplaceAll(rawPct, ",", "."), 64)
		if err != nil {
			return nil, &TypeError{Table: "allocation_rules", Column: "percentage", Row: rowNum, Value: rawPct}
		}
		if pct < 0 || pct > 100 {
			return nil, &RangeError{Table: "allocation_rules", Column: "percentage", Row: rowNum, Detail: "must be between 0 and 100"}
		}

		active := true
		if raw := cell(row, pos["active"]); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, &TypeError{Table: "allocation_rules", Column: "active", Row: rowNum, Value: raw}
			}
			active = b
		}

		method := cell(row, pos["method"])
		if method == "" {
			method = "fixed"
		}

		out = append(out, AllocationRule{
			Member:     cell(row, pos["member"]),
			Percentage: pct,
			Active:     active,
			Method:     method,
		})
	}
	return out, nil
}

// DecodeCategoryShares decodes a raw category share table.
func DecodeCategoryShares(tbl Table) ([]CategoryShare, error) {
	pos, missing := resolveColumns(tbl, categoryShareColumns, requiredCategoryShareColumns)
	if len(missing) > 0 {
		return nil, &SchemaError{Table: "category_shares", Missing: missing}
	}

	out := make([]CategoryShare, 0, len(tbl.Rows))
	for i, row := range tbl.Rows {
		rowNum := i + 1

		rawPct := cell(row, pos["percentage"])
		pct, err := strconv.ParseFloat(strings.ReplaceAll(rawPct, ",", "."), 64)
		if err != nil {
			return nil, &TypeError{Table: "category_shares", Column: "percentage", Row: rowNum, Value: rawPct}
		}
		if pct < 0 || pct > 100 {
			return nil, &RangeError{Table: "category_shares", Column: "percentage", Row: rowNum, Detail: "must be between 0 and 100"}
		}

		out = append(out, CategoryShare{
			Category:   cell(row, pos["category"]),
			Member:     cell(row, pos["member"]),
			Percentage: pct,
		})
	}
	return out, nil
}

// resolveColumns maps each canonical column to its position in the
// header, trying every accepted alias, and reports which required
// columns are absent. Optional columns absent from the header resolve
// to -1, which cell() treats as an always-empty column.
func resolveColumns(tbl Table, aliases map[string][]string, required []string) (map[string]int, []string) {
	idx := tbl.index()
	pos := make(map[string]int, len(aliases))
	for canonical, names := range aliases {
		pos[canonical] = -1
		for _, name := range names {
			if p, ok := idx[normalizeColumn(name)]; ok {
				pos[canonical] = p
				break
			}
		}
	}
	var missing []string
	for _, c := range required {
		if pos[c] == -1 {
			missing = append(missing, c)
		}
	}
	return pos, missing
}
