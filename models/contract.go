package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// Contract originates receivable installments and (when an up-front payment
// exists) a cash record. The generated rows become independent ledger
// entries; they point back here via origin_kind/origin_id.
type Contract struct {
	ID                 int             `gorm:"primary_key" json:"id"`
	ClientName         string          `gorm:"size:255;not null" json:"client_name" binding:"required"`
	ServiceDescription string          `gorm:"size:255;not null" json:"service_description" binding:"required"`
	AmountPaid         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_paid"`
	AmountReceivable   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_receivable"`
	PaymentDate        *time.Time      `gorm:"default:null" json:"payment_date"`
	StartDate          time.Time       `gorm:"not null" json:"start_date" binding:"required"`
	EndDate            time.Time       `gorm:"not null" json:"end_date" binding:"required"`
	InstallmentCount   *int            `gorm:"default:null" json:"installment_count"`
	CreatedAt          time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewContract struct {
	ClientName         string          `json:"client_name" binding:"required"`
	ServiceDescription string          `json:"service_description" binding:"required"`
	AmountPaid         decimal.Decimal `json:"amount_paid"`
	AmountReceivable   decimal.Decimal `json:"amount_receivable"`
	PaymentDate        *time.Time      `json:"payment_date"`
	StartDate          time.Time       `json:"start_date" binding:"required"`
	EndDate            time.Time       `json:"end_date" binding:"required"`
	InstallmentCount   *int            `json:"installment_count"`
}

// MonthSpan counts whole months between two dates, inclusive of both end
// months, floored at 1. It is the ceiling for installment counts.
func MonthSpan(start, end time.Time) int {
	span := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if span < 1 {
		return 1
	}
	return span
}

func (input *NewContract) Validate() error {
	if input.AmountPaid.IsNegative() || input.AmountReceivable.IsNegative() {
		return errors.New("amounts must not be negative")
	}
	if input.EndDate.Before(input.StartDate) {
		return errors.New("end_date must not be before start_date")
	}
	if input.InstallmentCount != nil {
		n := *input.InstallmentCount
		if n < 0 {
			return errors.New("installment_count must not be negative")
		}
		if max := MonthSpan(input.StartDate, input.EndDate); n > max {
			return errors.New("installment_count exceeds the contract's month span")
		}
	}
	return nil
}

func GetContract(ctx context.Context, id int) (*Contract, error) {
	return utils.FetchModel[Contract](ctx, id)
}

func ListContracts(ctx context.Context) ([]*Contract, error) {
	db := config.GetDB()
	var contracts []*Contract
	if err := db.WithContext(ctx).Order("start_date, id").Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}
