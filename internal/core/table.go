package core

import "strings"

// Table is the raw snapshot a store adapter hands to the validator: a
// header row plus string cells, exactly as read from a spreadsheet tab.
// Adapters never interpret cell values; all decoding happens here, once,
// at the ingestion boundary.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable builds a table from a header and rows.
func NewTable(columns []string, rows [][]string) Table {
	return Table{Columns: columns, Rows: rows}
}

// index maps normalized column names to their position.
func (t Table) index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[normalizeColumn(c)] = i
	}
	return idx
}

// cell returns the value at (row, column position), tolerating ragged rows.
func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

func normalizeColumn(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}
