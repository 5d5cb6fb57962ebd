package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// BuildInstallmentPlan expands a contract's receivable into bills. With no
// installment count the full amount falls due at the start date. With N
// installments the amount is split evenly one month apart; rounding
// happens at 4 decimal places and the final installment absorbs the
// remainder, so the plan always sums exactly to the receivable.
func BuildInstallmentPlan(contract *models.Contract) []models.Bill {
	if !contract.AmountReceivable.IsPositive() {
		return nil
	}

	count := 0
	if contract.InstallmentCount != nil {
		count = *contract.InstallmentCount
	}
	if count <= 1 {
		return []models.Bill{{
			BillDate:    contract.StartDate,
			ClientName:  contract.ClientName,
			Description: contract.ServiceDescription,
			Receivable:  contract.AmountReceivable,
			OriginKind:  models.OriginKindContract,
			OriginId:    contract.ID,
			PendingLink: utils.NewTrue(),
		}}
	}

	per := contract.AmountReceivable.DivRound(decimal.NewFromInt(int64(count)), 4)
	bills := make([]models.Bill, 0, count)
	for i := 0; i < count; i++ {
		amount := per
		if i == count-1 {
			amount = contract.AmountReceivable.Sub(per.Mul(decimal.NewFromInt(int64(count - 1))))
		}
		bills = append(bills, models.Bill{
			BillDate:    addMonthsClamped(contract.StartDate, i),
			ClientName:  contract.ClientName,
			Description: fmt.Sprintf("%s (%d/%d)", contract.ServiceDescription, i+1, count),
			Receivable:  amount,
			OriginKind:  models.OriginKindContract,
			OriginId:    contract.ID,
			PendingLink: utils.NewTrue(),
		})
	}
	return bills
}

// addMonthsClamped moves t forward by whole months, clamping the day of
// month so a plan started on the 31st falls due on the last day of shorter
// months instead of normalizing into the month after.
func addMonthsClamped(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	target := first.AddDate(0, months, 0)
	lastDay := target.AddDate(0, 1, -1).Day()
	day := t.Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(target.Year(), target.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// upFrontPaymentRecord is the income entry for a contract's paid portion.
// Returns nil when nothing was paid up front.
func upFrontPaymentRecord(contract *models.Contract, now time.Time) *models.CashRecord {
	if !contract.AmountPaid.IsPositive() {
		return nil
	}
	recordDate := now
	if contract.PaymentDate != nil {
		recordDate = *contract.PaymentDate
	}
	return &models.CashRecord{
		RecordDate:  recordDate,
		Description: contract.ClientName,
		Amount:      contract.AmountPaid,
		Kind:        models.RecordKindIncome,
		OriginKind:  models.OriginKindContract,
		OriginId:    contract.ID,
		PendingLink: utils.NewTrue(),
	}
}

// CreateContract persists the contract and propagates its derived entries:
// receivable installments and, when part was paid up front, an income cash
// record. Derived rows are written with pending_link set and finalized in
// one sweep at the end, so a partial failure is visible to reconciliation
// rather than silent.
func CreateContract(ctx context.Context, input *models.NewContract) (*models.Contract, error) {
	if err := input.Validate(); err != nil {
		return nil, utils.NewStepError("validate contract", err)
	}

	logger := config.GetLogger()
	db := config.GetDB()

	contract := models.Contract{
		ClientName:         input.ClientName,
		ServiceDescription: input.ServiceDescription,
		AmountPaid:         input.AmountPaid,
		AmountReceivable:   input.AmountReceivable,
		PaymentDate:        input.PaymentDate,
		StartDate:          input.StartDate,
		EndDate:            input.EndDate,
		InstallmentCount:   input.InstallmentCount,
	}
	if err := db.WithContext(ctx).Create(&contract).Error; err != nil {
		config.LogError(logger, moduleName, "CreateContract", "create contract", input, err)
		return nil, utils.NewStepError("create contract", err)
	}

	scope := fmt.Sprintf("contract:%d", contract.ID)
	redisLock := acquireRedisLock(ctx, scope)
	defer releaseRedisLock(ctx, redisLock)
	if err := AcquirePostingLock(db, scope); err != nil {
		return nil, utils.NewStepError("acquire posting lock", err)
	}
	defer ReleasePostingLock(db, scope)

	for _, bill := range BuildInstallmentPlan(&contract) {
		bill := bill
		if err := db.WithContext(ctx).Create(&bill).Error; err != nil {
			config.LogError(logger, moduleName, "CreateContract", "create installment bill", bill, err)
			return nil, utils.NewStepError("create installment bill", err)
		}
	}

	if record := upFrontPaymentRecord(&contract, time.Now()); record != nil {
		if err := db.WithContext(ctx).Create(record).Error; err != nil {
			config.LogError(logger, moduleName, "CreateContract", "create payment record", record, err)
			return nil, utils.NewStepError("create payment record", err)
		}
	}

	if err := finalizeOriginLinks(ctx, models.OriginKindContract, contract.ID); err != nil {
		return nil, utils.NewStepError("finalize origin links", err)
	}

	logger.WithField("contract_id", contract.ID).
		WithField("client_name", contract.ClientName).
		Info("contract created")
	return &contract, nil
}

// DeleteContract removes the contract and its derived ledger entries.
// Derived rows are matched by origin key; rows imported before origin keys
// existed fall back to client-name equality. Companion deletions are best
// effort and logged, but a failure to delete the contract itself aborts.
func DeleteContract(ctx context.Context, id int) (*models.Contract, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	contract, err := models.GetContract(ctx, id)
	if err != nil {
		return nil, utils.NewStepError("fetch contract", err)
	}

	scope := fmt.Sprintf("contract:%d", id)
	redisLock := acquireRedisLock(ctx, scope)
	defer releaseRedisLock(ctx, redisLock)
	if err := AcquirePostingLock(db, scope); err != nil {
		return nil, utils.NewStepError("acquire posting lock", err)
	}
	defer ReleasePostingLock(db, scope)

	if err := db.WithContext(ctx).
		Where("(origin_kind = ? AND origin_id = ?) OR (origin_kind = '' AND client_name = ?)",
			models.OriginKindContract, id, contract.ClientName).
		Delete(&models.Bill{}).Error; err != nil {
		config.LogError(logger, moduleName, "DeleteContract", "delete derived bills", contract, err)
	}

	if err := db.WithContext(ctx).
		Where("(origin_kind = ? AND origin_id = ?) OR (origin_kind = '' AND description = ?)",
			models.OriginKindContract, id, contract.ClientName).
		Delete(&models.CashRecord{}).Error; err != nil {
		config.LogError(logger, moduleName, "DeleteContract", "delete derived cash records", contract, err)
	}

	if err := db.WithContext(ctx).Delete(contract).Error; err != nil {
		config.LogError(logger, moduleName, "DeleteContract", "delete contract", contract, err)
		return nil, utils.NewStepError("delete contract", err)
	}

	logger.WithField("contract_id", id).Info("contract deleted")
	return contract, nil
}

// finalizeOriginLinks clears pending_link on every derived row of one
// origin. This is the second phase of propagation.
func finalizeOriginLinks(ctx context.Context, kind models.OriginKind, originId int) error {
	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&models.Bill{}).
		Where("origin_kind = ? AND origin_id = ?", kind, originId).
		Update("pending_link", false).Error; err != nil {
		return err
	}
	return db.WithContext(ctx).Model(&models.CashRecord{}).
		Where("origin_kind = ? AND origin_id = ?", kind, originId).
		Update("pending_link", false).Error
}
