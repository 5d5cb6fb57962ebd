package reports

import (
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"github.com/shopspring/decimal"
)

// NOTE: These tests are intentionally DB-free. The aggregation cores take
// plain slices; GetDashboardReport is the only storage-aware wrapper and is
// not exercised here.

func cash(dateStr string, kind models.RecordKind, amount float64) *models.CashRecord {
	d, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		panic(err)
	}
	return &models.CashRecord{
		RecordDate: d,
		Kind:       kind,
		Amount:     decimal.NewFromFloat(amount),
	}
}

func TestCashTotals_OrderInvariant(t *testing.T) {
	records := []*models.CashRecord{
		cash("2025-01-01", models.RecordKindIncome, 100),
		cash("2025-01-02", models.RecordKindExpense, 30),
		cash("2025-01-03", models.RecordKindIncome, 50.5),
		cash("2025-01-04", models.RecordKindExpense, 20.5),
	}
	reversed := []*models.CashRecord{records[3], records[2], records[1], records[0]}

	income1, expense1, balance1 := CashTotals(records)
	income2, expense2, balance2 := CashTotals(reversed)

	if !income1.Equal(income2) || !expense1.Equal(expense2) || !balance1.Equal(balance2) {
		t.Error("totals must not depend on record order")
	}
	if !balance1.Equal(decimal.NewFromInt(100)) {
		t.Errorf("balance = %s, want 100", balance1)
	}
	if !income1.Equal(decimal.NewFromFloat(150.5)) {
		t.Errorf("income = %s, want 150.5", income1)
	}
}

func TestCashTotals_EmptyInput(t *testing.T) {
	income, expense, balance := CashTotals(nil)
	if !income.IsZero() || !expense.IsZero() || !balance.IsZero() {
		t.Error("empty input must yield zero totals")
	}
}

func TestInvestmentNet(t *testing.T) {
	movements := []*models.InvestmentMovement{
		{Kind: models.RecordKindIncome, Amount: decimal.NewFromInt(500)},
		{Kind: models.RecordKindExpense, Amount: decimal.NewFromInt(200)},
	}
	if net := InvestmentNet(movements); !net.Equal(decimal.NewFromInt(300)) {
		t.Errorf("net = %s, want 300", net)
	}
}

func TestReceivablePayableTotals(t *testing.T) {
	bills := []*models.Bill{
		{Receivable: decimal.NewFromInt(100)},
		{Payable: decimal.NewFromInt(40)},
		{Receivable: decimal.NewFromInt(60)},
	}
	receivable, payable := ReceivablePayableTotals(bills)
	if !receivable.Equal(decimal.NewFromInt(160)) {
		t.Errorf("receivable = %s, want 160", receivable)
	}
	if !payable.Equal(decimal.NewFromInt(40)) {
		t.Errorf("payable = %s, want 40", payable)
	}
}

func TestMonthlyCashFlowSeries_GapsOmitted(t *testing.T) {
	// January and April only; February and March must be absent
	records := []*models.CashRecord{
		cash("2025-01-10", models.RecordKindIncome, 100),
		cash("2025-04-05", models.RecordKindExpense, 40),
		cash("2025-04-20", models.RecordKindIncome, 10),
	}

	series := MonthlyCashFlowSeries(records, 6)
	if len(series) != 2 {
		t.Fatalf("got %d months, want 2 (gaps omitted)", len(series))
	}
	if series[0].Month != "2025-01" || series[1].Month != "2025-04" {
		t.Errorf("months = %s, %s; want ascending 2025-01, 2025-04", series[0].Month, series[1].Month)
	}
	if !series[1].Net.Equal(decimal.NewFromInt(-30)) {
		t.Errorf("April net = %s, want -30", series[1].Net)
	}
}

func TestMonthlyCashFlowSeries_KeepsMostRecentSix(t *testing.T) {
	records := []*models.CashRecord{}
	for month := 1; month <= 9; month++ {
		records = append(records, cash(time.Date(2025, time.Month(month), 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), models.RecordKindIncome, 10))
	}

	series := MonthlyCashFlowSeries(records, 6)
	if len(series) != 6 {
		t.Fatalf("got %d months, want 6", len(series))
	}
	if series[0].Month != "2025-04" || series[5].Month != "2025-09" {
		t.Errorf("window = %s..%s, want 2025-04..2025-09", series[0].Month, series[5].Month)
	}
}

func TestTagDistribution_FullAmountPerTag(t *testing.T) {
	record := cash("2025-02-01", models.RecordKindExpense, 100)
	record.Tags = models.StringList{"rent", "office"}
	income := cash("2025-02-02", models.RecordKindIncome, 999)
	income.Tags = models.StringList{"rent"}
	untagged := cash("2025-02-03", models.RecordKindExpense, 50)

	totals := TagDistribution([]*models.CashRecord{record, income, untagged}, 10)
	if len(totals) != 2 {
		t.Fatalf("got %d tags, want 2", len(totals))
	}
	// amounts are not split across tags
	for _, entry := range totals {
		if !entry.Total.Equal(decimal.NewFromInt(100)) {
			t.Errorf("tag %q total = %s, want full 100", entry.Tag, entry.Total)
		}
	}
}

func TestTagDistribution_TopLimitDescending(t *testing.T) {
	records := make([]*models.CashRecord, 0, 12)
	for i := 1; i <= 12; i++ {
		record := cash("2025-02-01", models.RecordKindExpense, float64(i))
		record.Tags = models.StringList{string(rune('a' + i - 1))}
		records = append(records, record)
	}

	totals := TagDistribution(records, 10)
	if len(totals) != 10 {
		t.Fatalf("got %d tags, want top 10", len(totals))
	}
	if !totals[0].Total.Equal(decimal.NewFromInt(12)) {
		t.Errorf("largest tag total = %s, want 12", totals[0].Total)
	}
	for i := 1; i < len(totals); i++ {
		if totals[i].Total.GreaterThan(totals[i-1].Total) {
			t.Error("totals must be sorted descending")
		}
	}
}

func TestCategoryDistribution_UncategorizedFallback(t *testing.T) {
	officeId := 1
	danglingId := 42
	categories := []*models.Category{
		{ID: officeId, Name: "Office", Kind: models.RecordKindExpense, Color: "#123456"},
	}

	withCategory := cash("2025-02-01", models.RecordKindExpense, 70)
	withCategory.CategoryId = &officeId
	dangling := cash("2025-02-02", models.RecordKindExpense, 30)
	dangling.CategoryId = &danglingId
	missing := cash("2025-02-03", models.RecordKindExpense, 20)

	totals := CategoryDistribution([]*models.CashRecord{withCategory, dangling, missing}, categories, models.RecordKindExpense)
	if len(totals) != 2 {
		t.Fatalf("got %d buckets, want 2", len(totals))
	}
	if totals[0].Name != "Office" || !totals[0].Total.Equal(decimal.NewFromInt(70)) {
		t.Errorf("first bucket = %+v, want Office 70", totals[0])
	}
	if totals[1].Name != models.UncategorizedName || !totals[1].Total.Equal(decimal.NewFromInt(50)) {
		t.Errorf("second bucket = %+v, want Uncategorized 50", totals[1])
	}
	if totals[1].Color != models.DefaultExpenseColor {
		t.Errorf("uncategorized color = %q, want expense default", totals[1].Color)
	}
	if totals[0].Color != "#123456" {
		t.Errorf("office color = %q, want live category color", totals[0].Color)
	}
}

func TestBuildDashboardReport_AppliesPeriod(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	records := []*models.CashRecord{
		cash("2025-06-15", models.RecordKindIncome, 100),
		cash("2025-01-01", models.RecordKindIncome, 999),
	}
	bills := []*models.Bill{
		{BillDate: now, Receivable: decimal.NewFromInt(50)},
		{BillDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Receivable: decimal.NewFromInt(500)},
	}

	report := BuildDashboardReport(records, bills, nil, nil, Period{Window: PeriodToday}, now)
	if !report.TotalIncome.Equal(decimal.NewFromInt(100)) {
		t.Errorf("income = %s, want only today's 100", report.TotalIncome)
	}
	if !report.TotalReceivable.Equal(decimal.NewFromInt(50)) {
		t.Errorf("receivable = %s, want only today's 50", report.TotalReceivable)
	}
}
