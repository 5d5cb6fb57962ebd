package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// InvestmentMovement is capital moved in or out of investments. It is not a
// CashRecord, but creation mirrors one into the cash ledger (see workflow).
type InvestmentMovement struct {
	ID           int             `gorm:"primary_key" json:"id"`
	Description  string          `gorm:"size:255;not null" json:"description" binding:"required"`
	Amount       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Kind         RecordKind      `gorm:"type:enum('Income','Expense');default:Income" json:"kind" binding:"required"`
	MovementDate time.Time       `gorm:"not null;index" json:"movement_date" binding:"required"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewInvestmentMovement struct {
	Description  string          `json:"description" binding:"required"`
	Amount       decimal.Decimal `json:"amount"`
	Kind         RecordKind      `json:"kind" binding:"required"`
	MovementDate time.Time       `json:"movement_date" binding:"required"`
}

func (input *NewInvestmentMovement) validate() error {
	if !input.Kind.Valid() {
		return errors.New("kind must be Income or Expense")
	}
	if input.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	return nil
}

func CreateInvestmentMovement(ctx context.Context, input *NewInvestmentMovement) (*InvestmentMovement, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	movement := InvestmentMovement{
		Description:  input.Description,
		Amount:       input.Amount,
		Kind:         input.Kind,
		MovementDate: input.MovementDate,
	}
	if err := db.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func GetInvestmentMovement(ctx context.Context, id int) (*InvestmentMovement, error) {
	return utils.FetchModel[InvestmentMovement](ctx, id)
}

func ListInvestmentMovements(ctx context.Context) ([]*InvestmentMovement, error) {
	db := config.GetDB()
	var movements []*InvestmentMovement
	if err := db.WithContext(ctx).Order("movement_date, id").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
