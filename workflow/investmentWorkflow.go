package workflow

import (
	"context"
	"fmt"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
)

// MirrorInvestmentRecord builds the cash ledger entry that shadows an
// investment movement. The description carries the investment marker; the
// origin key is the real link, the marker only serves legacy rows.
func MirrorInvestmentRecord(movement *models.InvestmentMovement) models.CashRecord {
	return models.CashRecord{
		RecordDate:  movement.MovementDate,
		Description: models.InvestmentMarker + movement.Description,
		Amount:      movement.Amount,
		Kind:        movement.Kind,
		OriginKind:  models.OriginKindInvestment,
		OriginId:    movement.ID,
		PendingLink: utils.NewTrue(),
	}
}

// CreateInvestment persists the movement and mirrors it into the cash
// ledger, pending first, finalized after both rows exist.
func CreateInvestment(ctx context.Context, input *models.NewInvestmentMovement) (*models.InvestmentMovement, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	movement, err := models.CreateInvestmentMovement(ctx, input)
	if err != nil {
		return nil, utils.NewStepError("create investment movement", err)
	}

	scope := fmt.Sprintf("investment:%d", movement.ID)
	redisLock := acquireRedisLock(ctx, scope)
	defer releaseRedisLock(ctx, redisLock)
	if err := AcquirePostingLock(db, scope); err != nil {
		return nil, utils.NewStepError("acquire posting lock", err)
	}
	defer ReleasePostingLock(db, scope)

	record := MirrorInvestmentRecord(movement)
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		config.LogError(logger, moduleName, "CreateInvestment", "create mirror record", movement, err)
		return nil, utils.NewStepError("create mirror record", err)
	}

	if err := db.WithContext(ctx).Model(&record).Update("pending_link", false).Error; err != nil {
		return nil, utils.NewStepError("finalize mirror link", err)
	}

	logger.WithField("investment_id", movement.ID).
		WithField("cash_record_id", record.ID).
		Info("investment mirrored")
	return movement, nil
}

// DeleteInvestment removes the mirrored cash record first, then the
// movement. Mirrors are matched by origin key, falling back to the marker
// prefix for rows imported before origin keys existed. A mirror delete
// failure is logged and skipped; the movement delete is the step that must
// succeed.
func DeleteInvestment(ctx context.Context, id int) (*models.InvestmentMovement, error) {
	logger := config.GetLogger()
	db := config.GetDB()

	movement, err := models.GetInvestmentMovement(ctx, id)
	if err != nil {
		return nil, utils.NewStepError("fetch investment movement", err)
	}

	scope := fmt.Sprintf("investment:%d", id)
	redisLock := acquireRedisLock(ctx, scope)
	defer releaseRedisLock(ctx, redisLock)
	if err := AcquirePostingLock(db, scope); err != nil {
		return nil, utils.NewStepError("acquire posting lock", err)
	}
	defer ReleasePostingLock(db, scope)

	if err := db.WithContext(ctx).
		Where("(origin_kind = ? AND origin_id = ?) OR (origin_kind = '' AND description = ?)",
			models.OriginKindInvestment, id, models.InvestmentMarker+movement.Description).
		Delete(&models.CashRecord{}).Error; err != nil {
		config.LogError(logger, moduleName, "DeleteInvestment", "delete mirror record", movement, err)
	}

	if err := db.WithContext(ctx).Delete(movement).Error; err != nil {
		config.LogError(logger, moduleName, "DeleteInvestment", "delete investment movement", movement, err)
		return nil, utils.NewStepError("delete investment movement", err)
	}

	logger.WithField("investment_id", id).Info("investment deleted")
	return movement, nil
}
