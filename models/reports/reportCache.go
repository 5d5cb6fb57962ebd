package reports

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
)

// Report results are cached per window name. Custom windows are keyed by
// their bounds and skipped entirely: the bound space is unbounded and the
// hit rate would be zero.
func reportCacheKey[T any](period Period) (string, bool) {
	if period.Window == PeriodCustom {
		return "", false
	}
	window := period.Window
	if window == "" {
		window = PeriodAll
	}
	return fmt.Sprintf("Report:%s:%s", utils.GetTypeName[T](), window), true
}

func cacheGet[T any](ctx context.Context, period Period) (*T, bool) {
	if !config.ReportCacheEnabled() {
		return nil, false
	}
	key, ok := reportCacheKey[T](period)
	if !ok {
		return nil, false
	}
	var value T
	found, err := config.GetRedisObject(key, &value)
	if err != nil || !found {
		return nil, false
	}
	return &value, true
}

func cacheSet[T any](ctx context.Context, period Period, value *T) {
	if !config.ReportCacheEnabled() || value == nil {
		return
	}
	key, ok := reportCacheKey[T](period)
	if !ok {
		return
	}
	// cache is best effort; a write failure only costs a recompute
	if err := config.SetRedisObject(key, value, utils.GetCacheLifespan()); err != nil {
		logger := config.GetLogger()
		config.LogError(logger, moduleName, "cacheSet", key, nil, err)
	}
}

// InvalidateReportCache drops every cached window of every report type.
// Call it after any write to the underlying ledgers.
func InvalidateReportCache() {
	for _, typeName := range []string{
		utils.GetTypeName[DashboardReport](),
		utils.GetTypeName[ForecastVarianceReport](),
	} {
		for _, window := range []PeriodWindow{
			PeriodAll, PeriodToday, PeriodLast7Days, PeriodLast30Days, PeriodThisMonth, PeriodLastMonth,
		} {
			_ = config.RemoveRedisKey(fmt.Sprintf("Report:%s:%s", typeName, window))
		}
	}
}

const slowReportThreshold = 2 * time.Second

func logSlowReport(funcName string, started time.Time) {
	elapsed := time.Since(started)
	if elapsed < slowReportThreshold {
		return
	}
	logger := config.GetLogger()
	logger.WithField("elapsed", elapsed.String()).
		WithField("module", moduleName).
		WithField("func", funcName).
		Warn("slow report")
}
