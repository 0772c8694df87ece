package services

import (
	"context"
	"fmt"
	"time"

	"backstage/internal/core"
	"backstage/internal/log"
	"backstage/internal/sheets"
)

// SyncPublisher queues a transaction for spreadsheet sync. Implemented
// by the AMQP client; nil means writes stay local until a manual sync.
type SyncPublisher interface {
	PublishTransactionSync(ctx context.Context, id string) error
}

// Invalidator drops derived data when the ledger changes. The HTTP
// layer plugs its report cache in here.
type Invalidator interface {
	Purge()
}

// LedgerService records movements local-first: the write lands in the
// backing store synchronously, the spreadsheet sync happens behind a
// queue. A broker outage therefore never loses a write.
type LedgerService struct {
	writer      sheets.TransactionWriter
	publisher   SyncPublisher
	invalidator Invalidator
	logger      *log.Logger
}

func NewLedgerService(writer sheets.TransactionWriter, publisher SyncPublisher, invalidator Invalidator, logger *log.Logger) *LedgerService {
	return &LedgerService{
		writer:      writer,
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger.WithComponent(log.ComponentLedger),
	}
}

// RecordTransaction validates and stores one movement, returning the
// storage row reference. The sync publish is best-effort.
func (s *LedgerService) RecordTransaction(ctx context.Context, t core.Transaction) (string, error) {
	if t.ID == "" {
		t.ID = fmt.Sprintf("t-%d", time.Now().UnixNano())
	}
	if err := validateTransaction(t); err != nil {
		return "", err
	}

	ref, err := s.writer.Append(ctx, t)
	if err != nil {
		return "", fmt.Errorf("save transaction: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.Purge()
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransactionSync(ctx, t.ID); err != nil {
			// The write is already durable locally.
			s.logger.ErrorContext(ctx, "Failed to publish sync message",
				log.FieldTransactionID, t.ID,
				log.FieldError, err)
		}
	}

	s.logger.InfoContext(ctx, "Transaction recorded",
		log.FieldTransactionID, t.ID,
		log.FieldDirection, string(t.Direction),
		log.FieldCategory, t.Category,
		log.FieldAmount, t.Amount,
		log.FieldSheetsRef, ref)

	return ref, nil
}

func validateTransaction(t core.Transaction) error {
	if _, ok := core.ParseDirection(string(t.Direction)); !ok {
		return &core.EnumError{
			Table: "transactions", Column: "direction",
			Value:   string(t.Direction),
			Allowed: []string{string(core.Income), string(core.Expense)},
		}
	}
	if _, ok := core.ParsePaymentStatus(string(t.PaymentStatus)); !ok {
		return &core.EnumError{
			Table: "transactions", Column: "payment_status",
			Value:   string(t.PaymentStatus),
			Allowed: []string{string(core.Paid), string(core.Unreceived), string(core.Reversed)},
		}
	}
	if t.Amount <= 0 {
		return &core.RangeError{Table: "transactions", Column: "amount", Detail: "must be > 0"}
	}
	if t.Date.IsZero() {
		return &core.TypeError{Table: "transactions", Column: "date", Value: ""}
	}
	if t.Category == "" {
		return &core.SchemaError{Table: "transactions", Missing: []string{"category"}}
	}
	if t.Description == "" {
		return &core.SchemaError{Table: "transactions", Missing: []string{"description"}}
	}
	return nil
}
