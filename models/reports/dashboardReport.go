package reports

import (
	"context"
	"sort"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

const moduleName = "reports"

// MonthlyCashFlow is one point of the monthly series. Net is income minus
// expense for that month.
type MonthlyCashFlow struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

type TagTotal struct {
	Tag   string          `json:"tag"`
	Total decimal.Decimal `json:"total"`
}

type CategoryTotal struct {
	Name  string          `json:"name"`
	Color string          `json:"color"`
	Total decimal.Decimal `json:"total"`
}

type DashboardReport struct {
	Period            Period            `json:"period"`
	TotalIncome       decimal.Decimal   `json:"total_income"`
	TotalExpense      decimal.Decimal   `json:"total_expense"`
	Balance           decimal.Decimal   `json:"balance"`
	TotalReceivable   decimal.Decimal   `json:"total_receivable"`
	TotalPayable      decimal.Decimal   `json:"total_payable"`
	InvestmentNet     decimal.Decimal   `json:"investment_net"`
	MonthlyCashFlow   []MonthlyCashFlow `json:"monthly_cash_flow"`
	TagDistribution   []TagTotal        `json:"tag_distribution"`
	IncomeByCategory  []CategoryTotal   `json:"income_by_category"`
	ExpenseByCategory []CategoryTotal   `json:"expense_by_category"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

/*
The aggregation cores below are intentionally DB-free: they take the rows
they aggregate as plain slices, so the behavioral tests never need a
database. GetDashboardReport is the only place that touches storage.
*/

// CashTotals sums income and expense magnitudes; balance is their
// difference and may be negative.
func CashTotals(records []*models.CashRecord) (income, expense, balance decimal.Decimal) {
	for _, record := range records {
		if record.Kind == models.RecordKindExpense {
			expense = expense.Add(record.Amount)
		} else {
			income = income.Add(record.Amount)
		}
	}
	return income, expense, income.Sub(expense)
}

func ReceivablePayableTotals(bills []*models.Bill) (receivable, payable decimal.Decimal) {
	for _, bill := range bills {
		receivable = receivable.Add(bill.Receivable)
		payable = payable.Add(bill.Payable)
	}
	return receivable, payable
}

// InvestmentNet is invested capital net of withdrawals. Expense movements
// here mean money pulled back out of investments.
func InvestmentNet(movements []*models.InvestmentMovement) decimal.Decimal {
	net := decimal.Zero
	for _, movement := range movements {
		if movement.Kind == models.RecordKindExpense {
			net = net.Sub(movement.Amount)
		} else {
			net = net.Add(movement.Amount)
		}
	}
	return net
}

// MonthlyCashFlowSeries groups records by calendar month and keeps the most
// recent maxMonths that actually have data, in ascending order. Months with
// no records are simply absent, never zero-filled.
func MonthlyCashFlowSeries(records []*models.CashRecord, maxMonths int) []MonthlyCashFlow {
	byMonth := make(map[string]*MonthlyCashFlow)
	for _, record := range records {
		key := utils.MonthKey(record.RecordDate)
		point, ok := byMonth[key]
		if !ok {
			point = &MonthlyCashFlow{Month: key}
			byMonth[key] = point
		}
		if record.Kind == models.RecordKindExpense {
			point.Expense = point.Expense.Add(record.Amount)
		} else {
			point.Income = point.Income.Add(record.Amount)
		}
	}

	keys := make([]string, 0, len(byMonth))
	for key := range byMonth {
		keys = append(keys, key)
	}
	// YYYY-MM keys order lexicographically
	sort.Strings(keys)
	if maxMonths > 0 && len(keys) > maxMonths {
		keys = keys[len(keys)-maxMonths:]
	}

	series := make([]MonthlyCashFlow, 0, len(keys))
	for _, key := range keys {
		point := byMonth[key]
		point.Net = point.Income.Sub(point.Expense)
		series = append(series, *point)
	}
	return series
}

// TagDistribution totals expense amounts per tag. A record carrying several
// tags contributes its full amount to each of them, so the totals are a
// view, not a partition. Untagged records and income are skipped.
func TagDistribution(records []*models.CashRecord, limit int) []TagTotal {
	totals := make(map[string]decimal.Decimal)
	for _, record := range records {
		if record.Kind != models.RecordKindExpense {
			continue
		}
		// a tag repeated on one record still counts once
		for _, tag := range utils.UniqueSlice([]string(record.Tags)) {
			if tag == "" {
				continue
			}
			totals[tag] = totals[tag].Add(record.Amount)
		}
	}

	out := make([]TagTotal, 0, len(totals))
	for tag, total := range totals {
		out = append(out, TagTotal{Tag: tag, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Tag < out[j].Tag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// CategoryDistribution totals amounts of one kind per category, resolving
// names and colors against the live category list. Records with a missing
// or dangling category id fall into the Uncategorized bucket with the
// default color for the kind.
func CategoryDistribution(records []*models.CashRecord, categories []*models.Category, kind models.RecordKind) []CategoryTotal {
	type display struct {
		name  string
		color string
	}
	byId := make(map[int]display, len(categories))
	for _, category := range categories {
		color := category.Color
		if color == "" {
			color = models.DefaultColorForKind(category.Kind)
		}
		byId[category.ID] = display{name: category.Name, color: color}
	}

	totals := make(map[display]decimal.Decimal)
	uncategorized := display{name: models.UncategorizedName, color: models.DefaultColorForKind(kind)}
	for _, record := range records {
		if record.Kind != kind {
			continue
		}
		bucket := uncategorized
		if record.CategoryId != nil {
			if d, ok := byId[*record.CategoryId]; ok {
				bucket = d
			}
		}
		totals[bucket] = totals[bucket].Add(record.Amount)
	}

	out := make([]CategoryTotal, 0, len(totals))
	for bucket, total := range totals {
		out = append(out, CategoryTotal{Name: bucket.name, Color: bucket.color, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// FilterRecordsByPeriod applies the shared period predicate to a record
// list. Every dashboard aggregate sees the same filtered view.
func FilterRecordsByPeriod(records []*models.CashRecord, period Period, now time.Time) []*models.CashRecord {
	out := make([]*models.CashRecord, 0, len(records))
	for _, record := range records {
		if period.ContainsAt(record.RecordDate, now) {
			out = append(out, record)
		}
	}
	return out
}

func filterBillsByPeriod(bills []*models.Bill, period Period, now time.Time) []*models.Bill {
	out := make([]*models.Bill, 0, len(bills))
	for _, bill := range bills {
		if period.ContainsAt(bill.BillDate, now) {
			out = append(out, bill)
		}
	}
	return out
}

func filterMovementsByPeriod(movements []*models.InvestmentMovement, period Period, now time.Time) []*models.InvestmentMovement {
	out := make([]*models.InvestmentMovement, 0, len(movements))
	for _, movement := range movements {
		if period.ContainsAt(movement.MovementDate, now) {
			out = append(out, movement)
		}
	}
	return out
}

// BuildDashboardReport assembles the full dashboard from pre-loaded rows.
func BuildDashboardReport(
	records []*models.CashRecord,
	bills []*models.Bill,
	movements []*models.InvestmentMovement,
	categories []*models.Category,
	period Period,
	now time.Time,
) *DashboardReport {
	records = FilterRecordsByPeriod(records, period, now)
	bills = filterBillsByPeriod(bills, period, now)
	movements = filterMovementsByPeriod(movements, period, now)

	income, expense, balance := CashTotals(records)
	receivable, payable := ReceivablePayableTotals(bills)

	return &DashboardReport{
		Period:            period,
		TotalIncome:       income,
		TotalExpense:      expense,
		Balance:           balance,
		TotalReceivable:   receivable,
		TotalPayable:      payable,
		InvestmentNet:     InvestmentNet(movements),
		MonthlyCashFlow:   MonthlyCashFlowSeries(records, 6),
		TagDistribution:   TagDistribution(records, 10),
		IncomeByCategory:  CategoryDistribution(records, categories, models.RecordKindIncome),
		ExpenseByCategory: CategoryDistribution(records, categories, models.RecordKindExpense),
		GeneratedAt:       now,
	}
}

// GetDashboardReport loads the ledgers, filters them through the period and
// aggregates. Results for non-custom windows are served from the report
// cache when enabled.
func GetDashboardReport(ctx context.Context, period Period) (*DashboardReport, error) {
	if cached, ok := cacheGet[DashboardReport](ctx, period); ok {
		return cached, nil
	}

	started := time.Now()
	records, err := models.ListCashRecords(ctx)
	if err != nil {
		return nil, err
	}
	bills, err := models.ListBills(ctx)
	if err != nil {
		return nil, err
	}
	movements, err := models.ListInvestmentMovements(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := models.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	report := BuildDashboardReport(records, bills, movements, categories, period, time.Now())
	cacheSet(ctx, period, report)
	logSlowReport("GetDashboardReport", started)
	return report, nil
}
