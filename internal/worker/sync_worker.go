package worker

import (
	"context"
	"fmt"
	"log/slog"

	"backstage/internal/amqp"
	"backstage/internal/core"
	"backstage/internal/sheets"
	"backstage/internal/storage"
)

// SyncWorker pushes locally-recorded transactions to the band's
// spreadsheet and mirrors the show calendar back into SQLite.
type SyncWorker struct {
	storage   *storage.SQLiteRepository
	writer    sheets.TransactionWriter
	events    sheets.EventReader
	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, writer sheets.TransactionWriter, events sheets.EventReader, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		writer:    writer,
		events:    events,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes a single transaction sync message from AMQP
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.TransactionSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message", "id", msg.ID)

	t, err := w.storage.GetTransaction(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	if err := w.syncTransactionToSheet(ctx, t); err != nil {
		return fmt.Errorf("sync transaction to sheet: %w", err)
	}

	return nil
}

// ProcessPendingTransactions pushes any transactions that have not
// been synced yet. This is the backup path for lost AMQP messages.
func (w *SyncWorker) ProcessPendingTransactions(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize)
}

// StartupSyncCheck drains the pending queue at worker startup, with a
// larger batch, to recover from downtime.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	return w.processPending(ctx, w.batchSize*5)
}

func (w *SyncWorker) processPending(ctx context.Context, limit int) error {
	pending, err := w.storage.GetPendingSyncTransactions(ctx, limit)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}

	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))

	successCount := 0
	errorCount := 0
	for _, p := range pending {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := w.syncTransactionToSheet(ctx, p.Transaction); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction",
				"id", p.Transaction.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Pending sync completed",
		"total", len(pending),
		"synced", successCount,
		"errors", errorCount)

	return nil
}

// MirrorEvents refreshes the local show calendar from the spreadsheet.
// The calendar is edited directly on the sheet, so the mirror runs
// sheet-to-SQLite, the opposite direction of transaction sync.
func (w *SyncWorker) MirrorEvents(ctx context.Context) error {
	if w.events == nil {
		slog.WarnContext(ctx, "No event reader configured, skipping event mirror")
		return nil
	}

	tbl, err := w.events.ReadEvents(ctx)
	if err != nil {
		return fmt.Errorf("read events sheet: %w", err)
	}
	events, err := core.ValidateEvents(tbl)
	if err != nil {
		return fmt.Errorf("validate events sheet: %w", err)
	}

	for _, ev := range events {
		if err := w.storage.UpsertEvent(ctx, ev); err != nil {
			return fmt.Errorf("mirror event %s: %w", ev.ID, err)
		}
	}

	slog.InfoContext(ctx, "Event calendar mirrored", "count", len(events))
	return nil
}

func (w *SyncWorker) syncTransactionToSheet(ctx context.Context, t core.Transaction) error {
	ref, err := w.writer.Append(ctx, t)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, t.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "id", t.ID, "error", markErr)
		}
		return fmt.Errorf("append to sheet: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, t.ID); err != nil {
		// The sheet write succeeded; the row will be retried and the
		// duplicate reconciled by ID on the sheet side.
		slog.ErrorContext(ctx, "Failed to mark as synced", "id", t.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction to sheet",
		"id", t.ID,
		"sheets_ref", ref,
		"amount", t.Amount)

	return nil
}
