package core

import (
	"errors"
	"testing"
)

func transactionTable(rows [][]string) Table {
	return NewTable(
		[]string{"id", "date", "direction", "category", "subcategory", "description", "amount", "event_id", "payment_status", "account"},
		rows,
	)
}

func TestValidateTransactions(t *testing.T) {
	tbl := transactionTable([][]string{
		{"t1", "15/03/2025", "ENTRADA", "SHOWS", "", "cachê show", "1.500,00", "e1", "PAGO", "PIX"},
		{"t2", "2025-03-20", "EXPENSE", "PRODUÇÃO", "som", "aluguel PA", "400.00", "e1", "PAID", ""},
		{"t3", "21/03/2025", "ENTRADA", "SHOWS", "", "segunda parcela", "500,00", "e2", "NÃO RECEBIDO", ""},
	})
	txs, err := ValidateTransactions(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("got %d transactions, want 3", len(txs))
	}
	if txs[0].Direction != Income || txs[0].PaymentStatus != Paid {
		t.Fatalf("legacy spellings not resolved: %+v", txs[0])
	}
	if txs[0].Amount != 1500 {
		t.Fatalf("amount = %v, want 1500", txs[0].Amount)
	}
	if txs[1].Direction != Expense || txs[1].Amount != 400 {
		t.Fatalf("canonical spellings not accepted: %+v", txs[1])
	}
	if txs[2].PaymentStatus != Unreceived {
		t.Fatalf("payment status = %v, want UNRECEIVED", txs[2].PaymentStatus)
	}
}

func TestValidateTransactionsMissingColumn(t *testing.T) {
	tbl := NewTable(
		[]string{"id", "date", "direction", "category", "description", "payment_status"},
		[][]string{{"t1", "15/03/2025", "ENTRADA", "SHOWS", "x", "PAGO"}},
	)
	_, err := ValidateTransactions(tbl)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "amount" {
		t.Fatalf("missing = %v, want [amount]", schemaErr.Missing)
	}
}

func TestValidateTransactionsBadEnum(t *testing.T) {
	tbl := transactionTable([][]string{
		{"t1", "15/03/2025", "TRANSFER", "SHOWS", "", "x", "100,00", "", "PAGO", ""},
	})
	_, err := ValidateTransactions(tbl)
	var enumErr *EnumError
	if !errors.As(err, &enumErr) {
		t.Fatalf("got %v, want EnumError", err)
	}
	if enumErr.Column != "direction" || enumErr.Value != "TRANSFER" {
		t.Fatalf("unexpected enum error: %+v", enumErr)
	}

	tbl = transactionTable([][]string{
		{"t1", "15/03/2025", "ENTRADA", "SHOWS", "", "x", "100,00", "", "PENDING", ""},
	})
	_, err = ValidateTransactions(tbl)
	if !errors.As(err, &enumErr) || enumErr.Column != "payment_status" {
		t.Fatalf("got %v, want payment_status EnumError", err)
	}
}

func TestValidateTransactionsBadAmount(t *testing.T) {
	for _, amount := range []string{"abc", "", "0", "-100,00"} {
		tbl := transactionTable([][]string{
			{"t1", "15/03/2025", "ENTRADA", "SHOWS", "", "x", amount, "", "PAGO", ""},
		})
		_, err := ValidateTransactions(tbl)
		var typeErr *TypeError
		if !errors.As(err, &typeErr) {
			t.Fatalf("amount %q: got %v, want TypeError", amount, err)
		}
		if typeErr.Column != "amount" {
			t.Fatalf("amount %q: error on column %s", amount, typeErr.Column)
		}
	}
}

func TestValidateTransactionsFailFast(t *testing.T) {
	// A single bad row aborts the batch; no partial result comes back.
	tbl := transactionTable([][]string{
		{"t1", "15/03/2025", "ENTRADA", "SHOWS", "", "ok", "100,00", "", "PAGO", ""},
		{"t2", "16/03/2025", "ENTRADA", "SHOWS", "", "bad", "zero", "", "PAGO", ""},
	})
	txs, err := ValidateTransactions(tbl)
	if err == nil {
		t.Fatal("expected error")
	}
	if txs != nil {
		t.Fatalf("partial result returned: %v", txs)
	}
}

func eventTable(rows [][]string) Table {
	return NewTable(
		[]string{"show_id", "data_show", "casa", "cidade", "status", "publico", "cache_acordado"},
		rows,
	)
}

func TestValidateEvents(t *testing.T) {
	tbl := eventTable([][]string{
		{"e1", "15/03/2025", "Teatro Rival", "Rio de Janeiro", "REALIZADO", "180", ""},
		{"e2", "20/04/2025", "Circo Voador", "Rio de Janeiro", "CONFIRMADO", "", "3.500,00"},
		{"e3", "01/05/2025", "Audio", "São Paulo", "PLANEJADO", "", ""},
	})
	events, err := ValidateEvents(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	if events[0].Status != Completed || *events[0].Attendance != 180 {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Status != Confirmed || *events[1].AgreedFee != 3500 {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[2].Attendance != nil || events[2].AgreedFee != nil {
		t.Fatalf("optional fields should stay nil: %+v", events[2])
	}
}

func TestValidateEventsMissingStatus(t *testing.T) {
	tbl := NewTable(
		[]string{"show_id", "data_show", "casa", "cidade"},
		[][]string{{"e1", "15/03/2025", "Teatro Rival", "Rio"}},
	)
	_, err := ValidateEvents(tbl)
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError", err)
	}
	if len(schemaErr.Missing) != 1 || schemaErr.Missing[0] != "status" {
		t.Fatalf("missing = %v, want [status]", schemaErr.Missing)
	}
}

func TestValidateEventsNegativeAttendance(t *testing.T) {
	tbl := eventTable([][]string{
		{"e1", "15/03/2025", "Teatro Rival", "Rio", "REALIZADO", "-5", ""},
	})
	_, err := ValidateEvents(tbl)
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("got %v, want RangeError", err)
	}
	if rangeErr.Column != "attendance" {
		t.Fatalf("error on column %s, want attendance", rangeErr.Column)
	}
}

func TestDecodeAllocationRules(t *testing.T) {
	tbl := NewTable(
		[]string{"membro", "percentual", "ativo"},
		[][]string{
			{"Alice", "50", "true"},
			{"Bob", "37,5", "true"},
			{"Carol", "12.5", "false"},
		},
	)
	rules, err := DecodeAllocationRules(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}
	if rules[1].Percentage != 37.5 {
		t.Fatalf("comma decimal not parsed: %v", rules[1].Percentage)
	}
	if rules[2].Active {
		t.Fatal("Carol should be inactive")
	}
	if rules[0].Method != "fixed" {
		t.Fatalf("missing method should default to fixed, got %q", rules[0].Method)
	}
}

func TestDecodeAllocationRulesActiveDefaultsTrue(t *testing.T) {
	tbl := NewTable(
		[]string{"member", "percentage"},
		[][]string{{"Alice", "100"}},
	)
	rules, err := DecodeAllocationRules(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rules[0].Active {
		t.Fatal("rules without an active column default to active")
	}
}

func TestDecodeAllocationRulesOutOfRange(t *testing.T) {
	tbl := NewTable(
		[]string{"member", "percentage"},
		[][]string{{"Alice", "150"}},
	)
	_, err := DecodeAllocationRules(tbl)
	var rangeErr *RangeError
	if !errors.As(err, &rangeErr) {
		t.Fatalf("got %v, want RangeError", err)
	}
}

func TestDecodeCategoryShares(t *testing.T) {
	tbl := NewTable(
		[]string{"categoria", "membro", "percentual"},
		[][]string{
			{"SHOWS", "Alice", "60"},
			{"SHOWS", "Bob", "40"},
		},
	)
	shares, err := DecodeCategoryShares(tbl)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(shares) != 2 || shares[0].Category != "SHOWS" || shares[1].Percentage != 40 {
		t.Fatalf("unexpected shares: %+v", shares)
	}

	_, err = DecodeCategoryShares(NewTable([]string{"member", "percentage"}, nil))
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("got %v, want SchemaError for missing category", err)
	}
}

func TestValidateEventsBadStatus(t *testing.T) {
	tbl := eventTable([][]string{
		{"e1", "15/03/2025", "Teatro Rival", "Rio", "MAYBE", "", ""},
	})
	_, err := ValidateEvents(tbl)
	var enumErr *EnumError
	if !errors.As(err, &enumErr) {
		t.Fatalf("got %v, want EnumError", err)
	}
}
