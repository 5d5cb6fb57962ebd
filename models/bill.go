package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// Bill is a payable/receivable entry. A meaningful bill has exactly one of
// Receivable/Payable greater than zero; the other stays zero. The only
// transitions out of the ledger are settlement (which mirrors a CashRecord)
// and plain deletion.
type Bill struct {
	ID          int             `gorm:"primary_key" json:"id"`
	BillDate    time.Time       `gorm:"not null;index" json:"bill_date" binding:"required"`
	ClientName  string          `gorm:"size:255" json:"client_name"`
	Description string          `gorm:"size:255;not null" json:"description" binding:"required"`
	Receivable  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"receivable"`
	Payable     decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"payable"`
	OriginKind  OriginKind      `gorm:"size:20;index:idx_bill_origin" json:"origin_kind"`
	OriginId    int             `gorm:"index:idx_bill_origin;default:0" json:"origin_id"`
	PendingLink *bool           `gorm:"not null;default:false" json:"pending_link"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewBill struct {
	BillDate    time.Time       `json:"bill_date" binding:"required"`
	ClientName  string          `json:"client_name"`
	Description string          `json:"description" binding:"required"`
	Receivable  decimal.Decimal `json:"receivable"`
	Payable     decimal.Decimal `json:"payable"`
}

func (input *NewBill) validate() error {
	if input.Receivable.IsNegative() || input.Payable.IsNegative() {
		return errors.New("receivable and payable must not be negative")
	}
	if input.Receivable.IsPositive() && input.Payable.IsPositive() {
		return errors.New("a bill is either receivable or payable, not both")
	}
	if input.Receivable.IsZero() && input.Payable.IsZero() {
		return errors.New("either receivable or payable must be greater than zero")
	}
	return nil
}

func CreateBill(ctx context.Context, input *NewBill) (*Bill, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	bill := Bill{
		BillDate:    input.BillDate,
		ClientName:  input.ClientName,
		Description: input.Description,
		Receivable:  input.Receivable,
		Payable:     input.Payable,
		PendingLink: utils.NewFalse(),
	}
	if err := db.WithContext(ctx).Create(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

func UpdateBill(ctx context.Context, id int, input *NewBill) (*Bill, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	bill, err := utils.FetchModel[Bill](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(bill).Updates(map[string]interface{}{
		"BillDate":    input.BillDate,
		"ClientName":  input.ClientName,
		"Description": input.Description,
		"Receivable":  input.Receivable,
		"Payable":     input.Payable,
	}).Error; err != nil {
		return nil, err
	}
	return bill, nil
}

func DeleteBill(ctx context.Context, id int) (*Bill, error) {
	db := config.GetDB()
	bill, err := utils.FetchModel[Bill](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(bill).Error; err != nil {
		return nil, err
	}
	return bill, nil
}

func GetBill(ctx context.Context, id int) (*Bill, error) {
	return utils.FetchModel[Bill](ctx, id)
}

func ListBills(ctx context.Context) ([]*Bill, error) {
	db := config.GetDB()
	var bills []*Bill
	if err := db.WithContext(ctx).Order("bill_date, id").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
