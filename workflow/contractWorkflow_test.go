package workflow

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. They validate the planning
// cores; the DB-writing orchestration around them is a thin sequence of
// creates with step-named failures.

func testContract(receivable float64, count *int) *models.Contract {
	return &models.Contract{
		ID:                 7,
		ClientName:         "Acme",
		ServiceDescription: "Consulting",
		AmountReceivable:   decimal.NewFromFloat(receivable),
		StartDate:          time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		InstallmentCount:   count,
	}
}

func TestBuildInstallmentPlan_NoCountSingleBill(t *testing.T) {
	plan := BuildInstallmentPlan(testContract(1200, nil))
	if len(plan) != 1 {
		t.Fatalf("got %d bills, want 1", len(plan))
	}
	bill := plan[0]
	if !bill.Receivable.Equal(decimal.NewFromInt(1200)) {
		t.Errorf("receivable = %s, want full 1200", bill.Receivable)
	}
	if !bill.BillDate.Equal(time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("bill date = %s, want contract start date", bill.BillDate)
	}
	if bill.OriginKind != models.OriginKindContract || bill.OriginId != 7 {
		t.Errorf("origin = %s/%d, want Contract/7", bill.OriginKind, bill.OriginId)
	}
	if bill.PendingLink == nil || !*bill.PendingLink {
		t.Error("planned bills start with pending_link set")
	}
}

func TestBuildInstallmentPlan_ZeroReceivableNoBills(t *testing.T) {
	if plan := BuildInstallmentPlan(testContract(0, nil)); len(plan) != 0 {
		t.Errorf("got %d bills, want none for zero receivable", len(plan))
	}
}

func TestBuildInstallmentPlan_EvenSplitMonthlyDates(t *testing.T) {
	count := 4
	plan := BuildInstallmentPlan(testContract(1000, &count))
	if len(plan) != 4 {
		t.Fatalf("got %d bills, want 4", len(plan))
	}
	for i, bill := range plan {
		if !bill.Receivable.Equal(decimal.NewFromInt(250)) {
			t.Errorf("installment %d = %s, want 250", i, bill.Receivable)
		}
		want := time.Date(2025, time.Month(1+i), 15, 0, 0, 0, 0, time.UTC)
		if !bill.BillDate.Equal(want) {
			t.Errorf("installment %d date = %s, want %s", i, bill.BillDate, want)
		}
	}
}

func TestBuildInstallmentPlan_LastInstallmentAbsorbsRemainder(t *testing.T) {
	count := 3
	plan := BuildInstallmentPlan(testContract(100, &count))
	if len(plan) != 3 {
		t.Fatalf("got %d bills, want 3", len(plan))
	}

	sum := decimal.Zero
	for _, bill := range plan {
		sum = sum.Add(bill.Receivable)
	}
	if !sum.Equal(decimal.NewFromInt(100)) {
		t.Errorf("installments sum to %s, want exactly 100", sum)
	}
	if !plan[0].Receivable.Equal(plan[1].Receivable) {
		t.Errorf("first two installments differ: %s vs %s", plan[0].Receivable, plan[1].Receivable)
	}
	if plan[2].Receivable.Equal(plan[0].Receivable) {
		t.Error("final installment should carry the rounding remainder")
	}
}

func TestBuildInstallmentPlan_EndOfMonthStartClampsShortMonths(t *testing.T) {
	count := 3
	contract := testContract(300, &count)
	contract.StartDate = time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	contract.EndDate = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	plan := BuildInstallmentPlan(contract)
	if len(plan) != 3 {
		t.Fatalf("got %d bills, want 3", len(plan))
	}

	want := []time.Time{
		time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	for i, bill := range plan {
		if !bill.BillDate.Equal(want[i]) {
			t.Errorf("installment %d date = %s, want %s", i, bill.BillDate, want[i])
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	start := time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)
	cases := []struct {
		months int
		want   time.Time
	}{
		{0, time.Date(2024, 1, 31, 9, 30, 0, 0, time.UTC)},
		{1, time.Date(2024, 2, 29, 9, 30, 0, 0, time.UTC)}, // leap year
		{3, time.Date(2024, 4, 30, 9, 30, 0, 0, time.UTC)},
		{12, time.Date(2025, 1, 31, 9, 30, 0, 0, time.UTC)},
		{13, time.Date(2025, 2, 28, 9, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		if got := addMonthsClamped(start, tc.months); !got.Equal(tc.want) {
			t.Errorf("addMonthsClamped(+%d) = %s, want %s", tc.months, got, tc.want)
		}
	}
}

func TestUpFrontPaymentRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	contract := testContract(1000, nil)
	if record := upFrontPaymentRecord(contract, now); record != nil {
		t.Error("no payment record expected when nothing was paid")
	}

	contract.AmountPaid = decimal.NewFromInt(300)
	record := upFrontPaymentRecord(contract, now)
	if record == nil {
		t.Fatal("expected a payment record")
	}
	if record.Kind != models.RecordKindIncome {
		t.Errorf("kind = %s, want Income", record.Kind)
	}
	if record.Description != "Acme" {
		t.Errorf("description = %q, want the bare client name", record.Description)
	}
	if !record.RecordDate.Equal(now) {
		t.Errorf("record date = %s, want now when no payment date is set", record.RecordDate)
	}

	paymentDate := time.Date(2025, 2, 20, 0, 0, 0, 0, time.UTC)
	contract.PaymentDate = &paymentDate
	record = upFrontPaymentRecord(contract, now)
	if !record.RecordDate.Equal(paymentDate) {
		t.Errorf("record date = %s, want the contract payment date", record.RecordDate)
	}
}
