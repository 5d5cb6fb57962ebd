package workflow

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/models"
)

// pendingGracePeriod keeps reconciliation from flagging rows that belong to
// a propagation still in flight.
const pendingGracePeriod = 5 * time.Minute

// ReconciliationReport lists derived rows whose propagation never
// finalized. These are surfaced for manual review, never auto-deleted: an
// orphan usually means the paired write failed and money would vanish with
// it.
type ReconciliationReport struct {
	OrphanCashRecords []*models.CashRecord `json:"orphan_cash_records"`
	OrphanBills       []*models.Bill       `json:"orphan_bills"`
	CheckedAt         time.Time            `json:"checked_at"`
}

func (r *ReconciliationReport) Clean() bool {
	return len(r.OrphanCashRecords) == 0 && len(r.OrphanBills) == 0
}

// RunReconciliation scans both ledgers for pending-link rows older than the
// grace period and logs each one. Runs at startup and on demand via
// cmd/reconcile-links.
func RunReconciliation(ctx context.Context) (*ReconciliationReport, error) {
	logger := config.GetLogger()
	db := config.GetDB()
	now := time.Now()
	cutoff := now.Add(-pendingGracePeriod)

	report := &ReconciliationReport{CheckedAt: now}

	if err := db.WithContext(ctx).
		Where("pending_link = ? AND updated_at < ?", true, cutoff).
		Find(&report.OrphanCashRecords).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).
		Where("pending_link = ? AND updated_at < ?", true, cutoff).
		Find(&report.OrphanBills).Error; err != nil {
		return nil, err
	}

	for _, record := range report.OrphanCashRecords {
		logger.WithField("cash_record_id", record.ID).
			WithField("origin_kind", string(record.OriginKind)).
			WithField("origin_id", record.OriginId).
			Warn("orphaned pending-link cash record")
	}
	for _, bill := range report.OrphanBills {
		logger.WithField("bill_id", bill.ID).
			WithField("origin_kind", string(bill.OriginKind)).
			WithField("origin_id", bill.OriginId).
			Warn("orphaned pending-link bill")
	}

	if report.Clean() {
		logger.Info("reconciliation clean, no orphaned pending links")
	}
	return report, nil
}
