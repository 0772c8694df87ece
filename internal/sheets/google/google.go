package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"backstage/internal/core"

	ports "backstage/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client reads and appends band ledger data on a Google spreadsheet.
// One sheet per table: transactions, events, allocation rules and
// category shares.
type Client struct {
	svc                  *gsheet.Service
	spreadsheetID        string
	transactionsSheet    string
	eventsSheet          string
	allocationRulesSheet string
	categorySharesSheet  string
}

// Options carries the spreadsheet coordinates. Sheet names default to
// the historical Portuguese tab names when empty.
type Options struct {
	SpreadsheetID        string
	TransactionsSheet    string
	EventsSheet          string
	AllocationRulesSheet string
	CategorySharesSheet  string
}

// Ensure interface conformance
var (
	_ ports.TransactionReader    = (*Client)(nil)
	_ ports.EventReader          = (*Client)(nil)
	_ ports.AllocationReader     = (*Client)(nil)
	_ ports.TransactionWriter    = (*Client)(nil)
	_ ports.AllocationWriter    = (*Client)(nil)
)

// New creates a Sheets client. Credentials come from the environment:
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	if opts.TransactionsSheet == "" {
		opts.TransactionsSheet = "Transações"
	}
	if opts.EventsSheet == "" {
		opts.EventsSheet = "Shows"
	}
	if opts.AllocationRulesSheet == "" {
		opts.AllocationRulesSheet = "Rateio"
	}
	if opts.CategorySharesSheet == "" {
		opts.CategorySharesSheet = "RateioCategorias"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:                  svc,
		spreadsheetID:        opts.SpreadsheetID,
		transactionsSheet:    opts.TransactionsSheet,
		eventsSheet:          opts.EventsSheet,
		allocationRulesSheet: opts.AllocationRulesSheet,
		categorySharesSheet:  opts.CategorySharesSheet,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))

	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error

	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.DebugContext(ctx, "Google Sheets service created")
	return service, nil
}

// ReadTransactions loads the full transactions sheet as a raw table.
func (c *Client) ReadTransactions(ctx context.Context) (core.Table, error) {
	return c.readTable(ctx, c.transactionsSheet)
}

// ReadEvents loads the full events sheet as a raw table.
func (c *Client) ReadEvents(ctx context.Context) (core.Table, error) {
	return c.readTable(ctx, c.eventsSheet)
}

// ReadAllocationRules loads the flat revenue-sharing rules sheet.
func (c *Client) ReadAllocationRules(ctx context.Context) (core.Table, error) {
	return c.readTable(ctx, c.allocationRulesSheet)
}

// ReadCategoryShares loads the per-category share map sheet.
func (c *Client) ReadCategoryShares(ctx context.Context) (core.Table, error) {
	return c.readTable(ctx, c.categorySharesSheet)
}

// readTable reads an entire sheet. The first row is the header; every
// other row is data. Trailing blank rows are dropped.
func (c *Client) readTable(ctx context.Context, sheetName string) (core.Table, error) {
	if c.svc == nil {
		return core.Table{}, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A:Z", sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return core.Table{}, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return core.Table{}, fmt.Errorf("sheet %s is empty", sheetName)
	}

	columns := toStrings(resp.Values[0])
	rows := make([][]string, 0, len(resp.Values)-1)
	for _, raw := range resp.Values[1:] {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		// Pad short rows so every row has a cell per column.
		for len(row) < len(columns) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return core.NewTable(columns, rows), nil
}

// Append writes one transaction at the end of the transactions sheet
// and returns the written range as a row reference.
func (c *Client) Append(ctx context.Context, t core.Transaction) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:A", c.transactionsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get sheet dimensions for %s: %w", c.transactionsSheet, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:J%d", c.transactionsSheet, nextRow, nextRow)
	vr := &gsheet.ValueRange{Values: [][]any{{
		t.ID,
		t.Date.Format("02/01/2006"),
		string(t.Direction),
		t.Category,
		t.Subcategory,
		t.Description,
		t.Amount,
		t.EventID,
		string(t.PaymentStatus),
		t.Account,
	}}}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to append row to sheet %s: %w", c.transactionsSheet, err)
	}

	return dataRange, nil
}

// WriteAllocationRules replaces the flat rules sheet with the given
// rule set. The caller validates the percentage-sum invariant first.
func (c *Client) WriteAllocationRules(ctx context.Context, rules []core.AllocationRule) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(rules)+1)
	values = append(values, []any{"member", "percentage", "active"})
	for _, r := range rules {
		values = append(values, []any{r.Member, r.Percentage, r.Active})
	}

	clearRange := fmt.Sprintf("%s!A:C", c.allocationRulesSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A1:C%d", c.allocationRulesSheet, len(values))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}
	return nil
}

// WriteCategoryShares replaces the category share sheet with the given
// share map. The caller validates the per-category sums first.
func (c *Client) WriteCategoryShares(ctx context.Context, shares []core.CategoryShare) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	values := make([][]any, 0, len(shares)+1)
	values = append(values, []any{"category", "member", "percentage"})
	for _, sh := range shares {
		values = append(values, []any{sh.Category, sh.Member, sh.Percentage})
	}

	clearRange := fmt.Sprintf("%s!A:C", c.categorySharesSheet)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	writeRange := fmt.Sprintf("%s!A1:C%d", c.categorySharesSheet, len(values))
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", writeRange, err)
	}
	return nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}
