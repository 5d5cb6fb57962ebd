package reports

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// ForecastVariance compares one month's realized net cash flow against the
// budgeted amount for that month.
type ForecastVariance struct {
	Month      string          `json:"month"`
	Actual     decimal.Decimal `json:"actual"`
	Forecast   decimal.Decimal `json:"forecast"`
	Variance   decimal.Decimal `json:"variance"`
	Efficiency decimal.Decimal `json:"efficiency"`
}

type ForecastVarianceReport struct {
	Months      []ForecastVariance `json:"months"`
	GeneratedAt time.Time          `json:"generated_at"`
}

const (
	defaultForecastMonths = 6
	maxEfficiencyPercent  = 200
)

var efficiencyCap = decimal.NewFromInt(maxEfficiencyPercent)

// MonthsBack returns the n month keys ending at now's month, ascending.
// Stepping happens from the first of the month; AddDate on day 29-31
// would normalize into the wrong month.
func MonthsBack(now time.Time, n int) []string {
	if n < 1 {
		n = 1
	}
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keys := make([]string, 0, n)
	for i := n - 1; i >= 0; i-- {
		keys = append(keys, utils.MonthKey(first.AddDate(0, -i, 0)))
	}
	return keys
}

// lineCoversMonth checks span containment. The Recurring flag is
// descriptive only; contribution is decided by the span alone.
func lineCoversMonth(line *models.ForecastLine, month string) bool {
	end := line.EndMonth
	if end == "" {
		end = line.StartMonth
	}
	return line.StartMonth <= month && month <= end
}

// ForecastVarianceSeries computes actual vs forecast for each given month.
// Actual is income minus expense of the month's records. Forecast adds
// income lines and subtracts expense lines covering the month. Efficiency
// is actual over forecast in percent, zero when the forecast is zero, and
// capped so one near-zero forecast month cannot blow up a chart.
func ForecastVarianceSeries(records []*models.CashRecord, lines []*models.ForecastLine, months []string) []ForecastVariance {
	actualByMonth := make(map[string]decimal.Decimal)
	for _, record := range records {
		key := utils.MonthKey(record.RecordDate)
		if record.Kind == models.RecordKindExpense {
			actualByMonth[key] = actualByMonth[key].Sub(record.Amount)
		} else {
			actualByMonth[key] = actualByMonth[key].Add(record.Amount)
		}
	}

	out := make([]ForecastVariance, 0, len(months))
	for _, month := range months {
		forecast := decimal.Zero
		for _, line := range lines {
			if !lineCoversMonth(line, month) {
				continue
			}
			if line.Kind == models.RecordKindExpense {
				forecast = forecast.Sub(line.Amount)
			} else {
				forecast = forecast.Add(line.Amount)
			}
		}

		actual := actualByMonth[month]
		efficiency := decimal.Zero
		if !forecast.IsZero() {
			efficiency = actual.Div(forecast).Mul(decimal.NewFromInt(100)).Round(2)
			if efficiency.GreaterThan(efficiencyCap) {
				efficiency = efficiencyCap
			}
		}

		out = append(out, ForecastVariance{
			Month:      month,
			Actual:     actual,
			Forecast:   forecast,
			Variance:   actual.Sub(forecast),
			Efficiency: efficiency,
		})
	}
	return out
}

// GetForecastVarianceReport builds the series for the trailing months
// window. Only the default window is cached.
func GetForecastVarianceReport(ctx context.Context, months int) (*ForecastVarianceReport, error) {
	if months < 1 {
		months = defaultForecastMonths
	}
	cacheable := months == defaultForecastMonths
	if cacheable {
		if cached, ok := cacheGet[ForecastVarianceReport](ctx, Period{Window: PeriodAll}); ok {
			return cached, nil
		}
	}

	started := time.Now()
	records, err := models.ListCashRecords(ctx)
	if err != nil {
		return nil, err
	}
	lines, err := models.ListForecastLines(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	report := &ForecastVarianceReport{
		Months:      ForecastVarianceSeries(records, lines, MonthsBack(now, months)),
		GeneratedAt: now,
	}
	if cacheable {
		cacheSet(ctx, Period{Window: PeriodAll}, report)
	}
	logSlowReport("GetForecastVarianceReport", started)
	return report, nil
}
