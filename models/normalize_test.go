package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// NOTE: These tests are intentionally DB-free. The normalizer is total: any
// raw row produces a canonical entity, missing fields get defaults, and no
// input may cause an error.

func TestNormalizeCashRecord_EmptyRowDefaults(t *testing.T) {
	record, refs := NormalizeCashRecord(RawRow{})

	if !record.Amount.IsZero() {
		t.Errorf("amount = %s, want 0", record.Amount)
	}
	if record.Kind != RecordKindIncome {
		t.Errorf("kind = %s, want Income", record.Kind)
	}
	if record.Description != "" {
		t.Errorf("description = %q, want empty", record.Description)
	}
	if record.Tags == nil || len(record.Tags) != 0 {
		t.Errorf("tags = %#v, want empty non-nil list", record.Tags)
	}
	if record.Balance != nil {
		t.Errorf("balance = %v, want nil", record.Balance)
	}
	if refs.CategoryId != "" || refs.SubCategoryId != "" {
		t.Errorf("refs = %+v, want empty", refs)
	}
}

func TestNormalizeCashRecord_CandidateOrder(t *testing.T) {
	// canonical spelling wins over the localized one
	record, _ := NormalizeCashRecord(RawRow{
		"amount": 10.5,
		"valor":  99.0,
	})
	if !record.Amount.Equal(decimal.NewFromFloat(10.5)) {
		t.Errorf("amount = %s, want 10.5", record.Amount)
	}

	record, _ = NormalizeCashRecord(RawRow{"valor": "25.75"})
	if !record.Amount.Equal(decimal.NewFromFloat(25.75)) {
		t.Errorf("localized amount = %s, want 25.75", record.Amount)
	}
}

func TestNormalizeCashRecord_SignInference(t *testing.T) {
	record, _ := NormalizeCashRecord(RawRow{"amount": -40.0})
	if record.Kind != RecordKindExpense {
		t.Errorf("kind = %s, want Expense for negative amount", record.Kind)
	}
	if !record.Amount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("amount = %s, want magnitude 40", record.Amount)
	}

	// explicit kind beats the sign
	record, _ = NormalizeCashRecord(RawRow{"amount": -40.0, "kind": "income"})
	if record.Kind != RecordKindIncome {
		t.Errorf("kind = %s, want Income from explicit field", record.Kind)
	}
	if !record.Amount.Equal(decimal.NewFromInt(40)) {
		t.Errorf("amount = %s, want magnitude 40", record.Amount)
	}
}

func TestNormalizeCashRecord_LocalizedKindLabels(t *testing.T) {
	cases := map[string]RecordKind{
		"receita": RecordKindIncome,
		"entrada": RecordKindIncome,
		"despesa": RecordKindExpense,
		"saída":   RecordKindExpense,
		"Expense": RecordKindExpense,
	}
	for label, want := range cases {
		record, _ := NormalizeCashRecord(RawRow{"amount": 1.0, "tipo": label})
		if record.Kind != want {
			t.Errorf("label %q: kind = %s, want %s", label, record.Kind, want)
		}
	}
}

func TestNormalizeCashRecord_DateLayouts(t *testing.T) {
	for _, raw := range []string{"2025-03-15", "15/03/2025", "2025-03-15T10:30:00Z"} {
		record, _ := NormalizeCashRecord(RawRow{"date": raw})
		if record.RecordDate.Year() != 2025 || int(record.RecordDate.Month()) != 3 || record.RecordDate.Day() != 15 {
			t.Errorf("date %q parsed as %s", raw, record.RecordDate)
		}
	}
}

func TestNormalizeCashRecord_TagsSkipNonList(t *testing.T) {
	record, _ := NormalizeCashRecord(RawRow{
		"tags":     "not-a-list",
		"tag_list": []any{"rent", "", "office"},
	})
	if len(record.Tags) != 2 || record.Tags[0] != "rent" || record.Tags[1] != "office" {
		t.Errorf("tags = %#v, want [rent office]", record.Tags)
	}
}

func TestNormalizeBill_AbsoluteAmounts(t *testing.T) {
	bill := NormalizeBill(RawRow{
		"receivable": -150.0,
		"a_pagar":    "0",
	})
	if !bill.Receivable.Equal(decimal.NewFromInt(150)) {
		t.Errorf("receivable = %s, want 150", bill.Receivable)
	}
	if !bill.Payable.IsZero() {
		t.Errorf("payable = %s, want 0", bill.Payable)
	}
}

func TestNormalizeForecastLine_EndMonthDefaults(t *testing.T) {
	line, _ := NormalizeForecastLine(RawRow{
		"amount":      100.0,
		"start_month": "2025-04",
	})
	if line.EndMonth != "2025-04" {
		t.Errorf("end_month = %q, want start_month echo", line.EndMonth)
	}
}

func TestNormalizeId_NumericAndStringAgree(t *testing.T) {
	if NormalizeId(float64(7)) != NormalizeId("7") {
		t.Errorf("NormalizeId(7.0) = %q, NormalizeId(\"7\") = %q", NormalizeId(float64(7)), NormalizeId("7"))
	}
	if NormalizeId(nil) != "" {
		t.Errorf("NormalizeId(nil) = %q, want empty", NormalizeId(nil))
	}
}

func TestNormalizeCategoryTree_JoinAcrossIdSpellings(t *testing.T) {
	// parent id is numeric on the category, string on the child row
	categories := []RawRow{
		{"id": float64(3), "name": "Office", "kind": "expense"},
	}
	subCategories := []RawRow{
		{"id": "31", "category_id": "3", "name": "Supplies"},
		{"id": "99", "category_id": "4", "name": "Unrelated"},
	}

	tree := NormalizeCategoryTree(categories, subCategories)
	if len(tree) != 1 {
		t.Fatalf("got %d categories, want 1", len(tree))
	}
	got := tree[0]
	if got.Kind != RecordKindExpense {
		t.Errorf("kind = %s, want Expense", got.Kind)
	}
	if got.Color != DefaultExpenseColor {
		t.Errorf("color = %q, want expense default", got.Color)
	}
	if len(got.SubCategories) != 1 || got.SubCategories[0].Name != "Supplies" {
		t.Errorf("sub categories = %#v, want only Supplies", got.SubCategories)
	}
	if len(got.SubCategoryLegacyIds) != 1 || got.SubCategoryLegacyIds[0] != "31" {
		t.Errorf("legacy sub ids = %#v, want [31]", got.SubCategoryLegacyIds)
	}
}

func TestMonthSpan(t *testing.T) {
	jan := date(2025, 1, 10)
	if got := MonthSpan(jan, date(2025, 3, 2)); got != 3 {
		t.Errorf("Jan..Mar span = %d, want 3", got)
	}
	if got := MonthSpan(jan, jan); got != 1 {
		t.Errorf("same-month span = %d, want 1", got)
	}
	// inverted range still floors at 1
	if got := MonthSpan(date(2025, 5, 1), jan); got != 1 {
		t.Errorf("inverted span = %d, want 1", got)
	}
	if got := MonthSpan(date(2024, 11, 1), date(2025, 2, 28)); got != 4 {
		t.Errorf("Nov..Feb span = %d, want 4", got)
	}
}

func TestNewContract_InstallmentCountBound(t *testing.T) {
	count := 4
	input := &NewContract{
		ClientName:         "Acme",
		ServiceDescription: "Consulting",
		AmountReceivable:   decimal.NewFromInt(1200),
		StartDate:          date(2025, 1, 1),
		EndDate:            date(2025, 3, 31),
		InstallmentCount:   &count,
	}
	if err := input.Validate(); err == nil {
		t.Error("expected error: 4 installments over a 3 month span")
	}

	count = 3
	if err := input.Validate(); err != nil {
		t.Errorf("3 installments over 3 months should validate, got %v", err)
	}
}
