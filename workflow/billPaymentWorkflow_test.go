package workflow

import (
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"github.com/shopspring/decimal"
)

var settlementNow = time.Date(2025, 4, 2, 9, 0, 0, 0, time.UTC)

func TestSettlementRecord_ReceivableBecomesIncome(t *testing.T) {
	bill := &models.Bill{
		ID:          12,
		Description: "April retainer",
		Receivable:  decimal.NewFromInt(800),
	}

	record, err := SettlementRecord(bill, settlementNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Kind != models.RecordKindIncome {
		t.Errorf("kind = %s, want Income", record.Kind)
	}
	if !record.Amount.Equal(decimal.NewFromInt(800)) {
		t.Errorf("amount = %s, want 800", record.Amount)
	}
	if record.Description != models.BillSettlementMarker+"April retainer" {
		t.Errorf("description = %q, want marker prefix", record.Description)
	}
	if record.OriginKind != models.OriginKindBillPayment || record.OriginId != 12 {
		t.Errorf("origin = %s/%d, want BillPayment/12", record.OriginKind, record.OriginId)
	}
	if record.PendingLink == nil || !*record.PendingLink {
		t.Error("settlement record must start with pending_link set")
	}
}

func TestSettlementRecord_PayableBecomesExpense(t *testing.T) {
	bill := &models.Bill{
		ID:         3,
		ClientName: "Landlord",
		Payable:    decimal.NewFromInt(450),
	}

	record, err := SettlementRecord(bill, settlementNow)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if record.Kind != models.RecordKindExpense {
		t.Errorf("kind = %s, want Expense", record.Kind)
	}
	if !record.Amount.Equal(decimal.NewFromInt(450)) {
		t.Errorf("amount = %s, want 450", record.Amount)
	}
	// description falls back to the client name
	if !strings.HasSuffix(record.Description, "Landlord") {
		t.Errorf("description = %q, want client-name fallback", record.Description)
	}
}

func TestSettlementRecord_RejectsAmbiguousBills(t *testing.T) {
	both := &models.Bill{
		Receivable: decimal.NewFromInt(10),
		Payable:    decimal.NewFromInt(10),
	}
	if _, err := SettlementRecord(both, settlementNow); err == nil {
		t.Error("expected error for a bill with both sides positive")
	}

	neither := &models.Bill{}
	if _, err := SettlementRecord(neither, settlementNow); err == nil {
		t.Error("expected error for a bill with both sides zero")
	}
}

func TestMirrorInvestmentRecord(t *testing.T) {
	movement := &models.InvestmentMovement{
		ID:           5,
		Description:  "Index fund",
		Amount:       decimal.NewFromInt(2000),
		Kind:         models.RecordKindExpense,
		MovementDate: settlementNow,
	}

	record := MirrorInvestmentRecord(movement)
	if record.Description != models.InvestmentMarker+"Index fund" {
		t.Errorf("description = %q, want investment marker prefix", record.Description)
	}
	if record.Kind != movement.Kind || !record.Amount.Equal(movement.Amount) {
		t.Error("mirror must carry the movement's kind and amount")
	}
	if record.OriginKind != models.OriginKindInvestment || record.OriginId != 5 {
		t.Errorf("origin = %s/%d, want Investment/5", record.OriginKind, record.OriginId)
	}
	if !record.RecordDate.Equal(settlementNow) {
		t.Errorf("record date = %s, want the movement date", record.RecordDate)
	}
	if record.PendingLink == nil || !*record.PendingLink {
		t.Error("mirror record must start with pending_link set")
	}
}
