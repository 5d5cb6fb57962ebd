package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// CashRecord is one cash-flow ledger line. Amount is always a non-negative
// magnitude; the sign lives in Kind.
type CashRecord struct {
	ID            int              `gorm:"primary_key" json:"id"`
	RecordDate    time.Time        `gorm:"not null;index" json:"record_date" binding:"required"`
	Description   string           `gorm:"size:255;not null" json:"description" binding:"required"`
	Amount        decimal.Decimal  `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Balance       *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"balance"`
	Kind          RecordKind       `gorm:"type:enum('Income','Expense');default:Income" json:"kind" binding:"required"`
	CategoryId    *int             `gorm:"index;default:null" json:"category_id"`
	SubCategoryId *int             `gorm:"index;default:null" json:"sub_category_id"`
	Notes         string           `gorm:"type:text" json:"notes"`
	Tags          StringList       `gorm:"type:json" json:"tags"`
	OriginKind    OriginKind       `gorm:"size:20;index:idx_cash_origin" json:"origin_kind"`
	OriginId      int              `gorm:"index:idx_cash_origin;default:0" json:"origin_id"`
	PendingLink   *bool            `gorm:"not null;default:false" json:"pending_link"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCashRecord struct {
	RecordDate    time.Time        `json:"record_date" binding:"required"`
	Description   string           `json:"description" binding:"required"`
	Amount        decimal.Decimal  `json:"amount"`
	Balance       *decimal.Decimal `json:"balance"`
	Kind          RecordKind       `json:"kind" binding:"required"`
	CategoryId    *int             `json:"category_id"`
	SubCategoryId *int             `json:"sub_category_id"`
	Notes         string           `json:"notes"`
	Tags          []string         `json:"tags"`
}

func (input *NewCashRecord) validate(ctx context.Context) error {
	if !input.Kind.Valid() {
		return errors.New("kind must be Income or Expense")
	}
	if input.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	if input.CategoryId != nil {
		if err := utils.ValidateResourceId[Category](ctx, *input.CategoryId); err != nil {
			return errors.New("category does not exist")
		}
	}
	if input.SubCategoryId != nil {
		if err := utils.ValidateResourceId[SubCategory](ctx, *input.SubCategoryId); err != nil {
			return errors.New("sub category does not exist")
		}
	}
	return nil
}

func CreateCashRecord(ctx context.Context, input *NewCashRecord) (*CashRecord, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()
	record := CashRecord{
		RecordDate:    input.RecordDate,
		Description:   input.Description,
		Amount:        input.Amount,
		Balance:       input.Balance,
		Kind:          input.Kind,
		CategoryId:    input.CategoryId,
		SubCategoryId: input.SubCategoryId,
		Notes:         input.Notes,
		Tags:          StringList(input.Tags),
		PendingLink:   utils.NewFalse(),
	}
	if err := db.WithContext(ctx).Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func UpdateCashRecord(ctx context.Context, id int, input *NewCashRecord) (*CashRecord, error) {
	if err := input.validate(ctx); err != nil {
		return nil, err
	}

	db := config.GetDB()
	record, err := utils.FetchModel[CashRecord](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"RecordDate":    input.RecordDate,
		"Description":   input.Description,
		"Amount":        input.Amount,
		"Balance":       input.Balance,
		"Kind":          input.Kind,
		"CategoryId":    input.CategoryId,
		"SubCategoryId": input.SubCategoryId,
		"Notes":         input.Notes,
		"Tags":          StringList(input.Tags),
	}).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func DeleteCashRecord(ctx context.Context, id int) (*CashRecord, error) {
	db := config.GetDB()
	record, err := utils.FetchModel[CashRecord](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func GetCashRecord(ctx context.Context, id int) (*CashRecord, error) {
	return utils.FetchModel[CashRecord](ctx, id)
}

func ListCashRecords(ctx context.Context) ([]*CashRecord, error) {
	db := config.GetDB()
	var records []*CashRecord
	if err := db.WithContext(ctx).Order("record_date, id").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
