package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"backstage/internal/core"
	ports "backstage/internal/sheets"

	_ "modernc.org/sqlite"
)

// SQLiteRepository is the local mirror of the band's spreadsheet. It
// serves reads without touching the Sheets API and queues writes for
// the sync worker.
type SQLiteRepository struct {
	db *sql.DB
}

// Ensure interface conformance
var (
	_ ports.TransactionReader    = (*SQLiteRepository)(nil)
	_ ports.EventReader          = (*SQLiteRepository)(nil)
	_ ports.AllocationReader     = (*SQLiteRepository)(nil)
	_ ports.TransactionWriter    = (*SQLiteRepository)(nil)
	_ ports.AllocationWriter    = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// ReadTransactions returns the mirrored ledger as a raw table with
// canonical headers, so decoding is identical to the sheets path.
func (r *SQLiteRepository) ReadTransactions(ctx context.Context) (core.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, direction, category, subcategory, description,
		       amount, event_id, payment_status, account
		FROM transactions
		ORDER BY date, id`)
	if err != nil {
		return core.Table{}, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var data [][]string
	for rows.Next() {
		var id, date, direction, category, subcategory, description string
		var eventID, paymentStatus, account string
		var amount float64
		if err := rows.Scan(&id, &date, &direction, &category, &subcategory,
			&description, &amount, &eventID, &paymentStatus, &account); err != nil {
			return core.Table{}, fmt.Errorf("scan transaction: %w", err)
		}
		data = append(data, []string{
			id, date, direction, category, subcategory, description,
			strconv.FormatFloat(amount, 'f', -1, 64), eventID, paymentStatus, account,
		})
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("iterate transactions: %w", err)
	}

	return core.NewTable([]string{
		"id", "date", "direction", "category", "subcategory",
		"description", "amount", "event_id", "payment_status", "account",
	}, data), nil
}

// ReadEvents returns the mirrored show calendar as a raw table.
func (r *SQLiteRepository) ReadEvents(ctx context.Context) (core.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, venue, city, status, attendance, agreed_fee
		FROM events
		ORDER BY date, id`)
	if err != nil {
		return core.Table{}, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var data [][]string
	for rows.Next() {
		var id, date, venue, city, status string
		var attendance sql.NullInt64
		var agreedFee sql.NullFloat64
		if err := rows.Scan(&id, &date, &venue, &city, &status, &attendance, &agreedFee); err != nil {
			return core.Table{}, fmt.Errorf("scan event: %w", err)
		}
		row := []string{id, date, venue, city, status, "", ""}
		if attendance.Valid {
			row[5] = strconv.FormatInt(attendance.Int64, 10)
		}
		if agreedFee.Valid {
			row[6] = strconv.FormatFloat(agreedFee.Float64, 'f', -1, 64)
		}
		data = append(data, row)
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("iterate events: %w", err)
	}

	return core.NewTable([]string{
		"id", "date", "venue", "city", "status", "attendance", "agreed_fee",
	}, data), nil
}

// ReadAllocationRules returns the flat rule table.
func (r *SQLiteRepository) ReadAllocationRules(ctx context.Context) (core.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT member, percentage, active, method
		FROM allocation_rules
		ORDER BY member`)
	if err != nil {
		return core.Table{}, fmt.Errorf("query allocation rules: %w", err)
	}
	defer rows.Close()

	var data [][]string
	for rows.Next() {
		var member, method string
		var percentage float64
		var active bool
		if err := rows.Scan(&member, &percentage, &active, &method); err != nil {
			return core.Table{}, fmt.Errorf("scan allocation rule: %w", err)
		}
		data = append(data, []string{
			member, strconv.FormatFloat(percentage, 'f', -1, 64),
			strconv.FormatBool(active), method,
		})
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("iterate allocation rules: %w", err)
	}

	return core.NewTable([]string{"member", "percentage", "active", "method"}, data), nil
}

// ReadCategoryShares returns the per-category share map.
func (r *SQLiteRepository) ReadCategoryShares(ctx context.Context) (core.Table, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT category, member, percentage
		FROM category_shares
		ORDER BY category, member`)
	if err != nil {
		return core.Table{}, fmt.Errorf("query category shares: %w", err)
	}
	defer rows.Close()

	var data [][]string
	for rows.Next() {
		var category, member string
		var percentage float64
		if err := rows.Scan(&category, &member, &percentage); err != nil {
			return core.Table{}, fmt.Errorf("scan category share: %w", err)
		}
		data = append(data, []string{
			category, member, strconv.FormatFloat(percentage, 'f', -1, 64),
		})
	}
	if err := rows.Err(); err != nil {
		return core.Table{}, fmt.Errorf("iterate category shares: %w", err)
	}

	return core.NewTable([]string{"category", "member", "percentage"}, data), nil
}

// Append stores the transaction locally with sync status pending. The
// worker pushes it to the spreadsheet later.
func (r *SQLiteRepository) Append(ctx context.Context, t core.Transaction) (string, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, date, direction, category, subcategory, description,
			 amount, event_id, payment_status, account, sync_status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending')`,
		t.ID, t.Date.Format("2006-01-02"), string(t.Direction), t.Category,
		t.Subcategory, t.Description, t.Amount, t.EventID,
		string(t.PaymentStatus), t.Account)
	if err != nil {
		return "", fmt.Errorf("insert transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"direction", string(t.Direction),
		"category", t.Category,
		"amount", t.Amount)

	return "sqlite:" + t.ID, nil
}

// UpsertEvent mirrors one show row from the spreadsheet.
func (r *SQLiteRepository) UpsertEvent(ctx context.Context, ev core.Event) error {
	var attendance any
	if ev.Attendance != nil {
		attendance = *ev.Attendance
	}
	var agreedFee any
	if ev.AgreedFee != nil {
		agreedFee = *ev.AgreedFee
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, date, venue, city, status, attendance, agreed_fee)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			date = excluded.date,
			venue = excluded.venue,
			city = excluded.city,
			status = excluded.status,
			attendance = excluded.attendance,
			agreed_fee = excluded.agreed_fee`,
		ev.ID, ev.Date.Format("2006-01-02"), ev.Venue, ev.City,
		string(ev.Status), attendance, agreedFee)
	if err != nil {
		return fmt.Errorf("upsert event: %w", err)
	}
	return nil
}

// WriteAllocationRules replaces the flat rule table atomically.
func (r *SQLiteRepository) WriteAllocationRules(ctx context.Context, rules []core.AllocationRule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM allocation_rules`); err != nil {
		return fmt.Errorf("clear allocation rules: %w", err)
	}
	for _, rule := range rules {
		method := rule.Method
		if method == "" {
			method = "fixed"
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO allocation_rules (member, percentage, active, method)
			VALUES (?, ?, ?, ?)`,
			rule.Member, rule.Percentage, rule.Active, method); err != nil {
			return fmt.Errorf("insert allocation rule for %s: %w", rule.Member, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allocation rules: %w", err)
	}
	return nil
}

// WriteCategoryShares replaces the category share table atomically.
func (r *SQLiteRepository) WriteCategoryShares(ctx context.Context, shares []core.CategoryShare) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM category_shares`); err != nil {
		return fmt.Errorf("clear category shares: %w", err)
	}
	for _, sh := range shares {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_shares (category, member, percentage)
			VALUES (?, ?, ?)`,
			sh.Category, sh.Member, sh.Percentage); err != nil {
			return fmt.Errorf("insert category share for %s/%s: %w", sh.Category, sh.Member, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit category shares: %w", err)
	}
	return nil
}

// PendingTransaction is one queued ledger write awaiting spreadsheet
// sync.
type PendingTransaction struct {
	Transaction core.Transaction
	CreatedAt   time.Time
}

// GetPendingSyncTransactions returns queued transactions, oldest first.
func (r *SQLiteRepository) GetPendingSyncTransactions(ctx context.Context, limit int) ([]PendingTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, date, direction, category, subcategory, description,
		       amount, event_id, payment_status, account, created_at
		FROM transactions
		WHERE sync_status = 'pending'
		ORDER BY created_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending transactions: %w", err)
	}
	defer rows.Close()

	var out []PendingTransaction
	for rows.Next() {
		var t core.Transaction
		var date, direction, paymentStatus string
		var createdAt time.Time
		if err := rows.Scan(&t.ID, &date, &direction, &t.Category, &t.Subcategory,
			&t.Description, &t.Amount, &t.EventID, &paymentStatus, &t.Account,
			&createdAt); err != nil {
			return nil, fmt.Errorf("scan pending transaction: %w", err)
		}
		d, ok := core.ParseDate(date)
		if !ok {
			return nil, fmt.Errorf("pending transaction %s has unparseable date %q", t.ID, date)
		}
		t.Date = d
		t.Direction = core.Direction(direction)
		t.PaymentStatus = core.PaymentStatus(paymentStatus)
		out = append(out, PendingTransaction{Transaction: t, CreatedAt: createdAt})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending transactions: %w", err)
	}
	return out, nil
}

// GetTransaction returns one transaction by ID.
func (r *SQLiteRepository) GetTransaction(ctx context.Context, id string) (core.Transaction, error) {
	var t core.Transaction
	var date, direction, paymentStatus string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, date, direction, category, subcategory, description,
		       amount, event_id, payment_status, account
		FROM transactions
		WHERE id = ?`, id).Scan(
		&t.ID, &date, &direction, &t.Category, &t.Subcategory,
		&t.Description, &t.Amount, &t.EventID, &paymentStatus, &t.Account)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, err)
	}
	d, ok := core.ParseDate(date)
	if !ok {
		return core.Transaction{}, fmt.Errorf("transaction %s has unparseable date %q", id, date)
	}
	t.Date = d
	t.Direction = core.Direction(direction)
	t.PaymentStatus = core.PaymentStatus(paymentStatus)
	return t, nil
}

// MarkSynced marks a transaction as successfully pushed to the sheet.
func (r *SQLiteRepository) MarkSynced(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET sync_status = 'synced', synced_at = CURRENT_TIMESTAMP
		WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction synced: %w", err)
	}
	slog.InfoContext(ctx, "Transaction marked as synced", "id", id)
	return nil
}

// MarkSyncError flags a transaction whose push failed.
func (r *SQLiteRepository) MarkSyncError(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE transactions
		SET sync_status = 'error'
		WHERE id = ?`, id); err != nil {
		return fmt.Errorf("mark transaction sync error: %w", err)
	}
	slog.WarnContext(ctx, "Transaction marked with sync error", "id", id)
	return nil
}
