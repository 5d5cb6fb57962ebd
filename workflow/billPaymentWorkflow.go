package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
)

const moduleName = "workflow"

// SettlementRecord builds the cash record that mirrors paying a bill. It is
// pure so the mapping can be tested without a database: receivable bills
// settle as income, payable bills as expense, and the record carries the
// settlement marker plus an origin key back to the bill.
func SettlementRecord(bill *models.Bill, now time.Time) (models.CashRecord, error) {
	receivable := bill.Receivable.IsPositive()
	payable := bill.Payable.IsPositive()
	if receivable == payable {
		return models.CashRecord{}, errors.New("a bill is either receivable or payable, not both")
	}

	kind := models.RecordKindIncome
	amount := bill.Receivable
	if payable {
		kind = models.RecordKindExpense
		amount = bill.Payable
	}

	label := bill.Description
	if label == "" {
		label = bill.ClientName
	}

	return models.CashRecord{
		RecordDate:  now,
		Description: models.BillSettlementMarker + label,
		Amount:      amount,
		Kind:        kind,
		OriginKind:  models.OriginKindBillPayment,
		OriginId:    bill.ID,
		PendingLink: utils.NewTrue(),
	}, nil
}

// PayBill settles a bill: a mirrored cash record is written first with
// pending_link set, the bill is removed, and only then is the link
// finalized. A crash in between leaves a pending record for the
// reconciliation pass to surface instead of silently losing money.
func PayBill(ctx context.Context, billId int) (*models.CashRecord, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	bill, err := models.GetBill(ctx, billId)
	if err != nil {
		return nil, utils.NewStepError("fetch bill", err)
	}

	scope := fmt.Sprintf("bill:%d", billId)
	redisLock := acquireRedisLock(ctx, scope)
	defer releaseRedisLock(ctx, redisLock)
	if err := AcquirePostingLock(db, scope); err != nil {
		return nil, utils.NewStepError("acquire posting lock", err)
	}
	defer ReleasePostingLock(db, scope)

	record, err := SettlementRecord(bill, time.Now())
	if err != nil {
		return nil, utils.NewStepError("build settlement record", err)
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		config.LogError(logger, moduleName, "PayBill", "create settlement record", bill, err)
		return nil, utils.NewStepError("create settlement record", err)
	}

	if err := db.WithContext(ctx).Delete(bill).Error; err != nil {
		config.LogError(logger, moduleName, "PayBill", "delete bill", bill, err)
		return nil, utils.NewStepError("delete bill", err)
	}

	if err := db.WithContext(ctx).Model(&record).Update("pending_link", false).Error; err != nil {
		config.LogError(logger, moduleName, "PayBill", "finalize settlement link", record, err)
		return nil, utils.NewStepError("finalize settlement link", err)
	}
	record.PendingLink = utils.NewFalse()

	logger.WithField("bill_id", billId).
		WithField("cash_record_id", record.ID).
		WithField("amount", record.Amount.String()).
		Info("bill settled")
	return &record, nil
}
