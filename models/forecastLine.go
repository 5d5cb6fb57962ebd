package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// ForecastLine is a budgeted amount spanning a range of months. A line
// contributes its amount to every month in [StartMonth, EndMonth]; EndMonth
// defaults to StartMonth, so a one-off line is just a one-month span.
type ForecastLine struct {
	ID            int             `gorm:"primary_key" json:"id"`
	Description   string          `gorm:"size:255;not null" json:"description" binding:"required"`
	Amount        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount"`
	Kind          RecordKind      `gorm:"type:enum('Income','Expense');default:Income" json:"kind" binding:"required"`
	Recurring     *bool           `gorm:"not null;default:false" json:"recurring"`
	StartMonth    string          `gorm:"size:7;not null;index" json:"start_month" binding:"required"`
	EndMonth      string          `gorm:"size:7;not null" json:"end_month"`
	CategoryId    *int            `gorm:"index;default:null" json:"category_id"`
	SubCategoryId *int            `gorm:"index;default:null" json:"sub_category_id"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewForecastLine struct {
	Description   string          `json:"description" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Kind          RecordKind      `json:"kind" binding:"required"`
	Recurring     *bool           `json:"recurring"`
	StartMonth    string          `json:"start_month" binding:"required"`
	EndMonth      string          `json:"end_month"`
	CategoryId    *int            `json:"category_id"`
	SubCategoryId *int            `json:"sub_category_id"`
}

func (input *NewForecastLine) validate() error {
	if !input.Kind.Valid() {
		return errors.New("kind must be Income or Expense")
	}
	if input.Amount.IsNegative() {
		return errors.New("amount must not be negative")
	}
	if _, err := utils.ParseMonthKey(input.StartMonth); err != nil {
		return errors.New("start_month must be YYYY-MM")
	}
	if input.EndMonth == "" {
		input.EndMonth = input.StartMonth
	}
	if _, err := utils.ParseMonthKey(input.EndMonth); err != nil {
		return errors.New("end_month must be YYYY-MM")
	}
	// YYYY-MM keys order lexicographically.
	if input.EndMonth < input.StartMonth {
		return errors.New("end_month must not be before start_month")
	}
	return nil
}

func CreateForecastLine(ctx context.Context, input *NewForecastLine) (*ForecastLine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	recurring := input.Recurring
	if recurring == nil {
		recurring = utils.NewFalse()
	}

	db := config.GetDB()
	line := ForecastLine{
		Description:   input.Description,
		Amount:        input.Amount,
		Kind:          input.Kind,
		Recurring:     recurring,
		StartMonth:    input.StartMonth,
		EndMonth:      input.EndMonth,
		CategoryId:    input.CategoryId,
		SubCategoryId: input.SubCategoryId,
	}
	if err := db.WithContext(ctx).Create(&line).Error; err != nil {
		return nil, err
	}
	return &line, nil
}

func UpdateForecastLine(ctx context.Context, id int, input *NewForecastLine) (*ForecastLine, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	db := config.GetDB()
	line, err := utils.FetchModel[ForecastLine](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(line).Updates(map[string]interface{}{
		"Description":   input.Description,
		"Amount":        input.Amount,
		"Kind":          input.Kind,
		"Recurring":     input.Recurring,
		"StartMonth":    input.StartMonth,
		"EndMonth":      input.EndMonth,
		"CategoryId":    input.CategoryId,
		"SubCategoryId": input.SubCategoryId,
	}).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func DeleteForecastLine(ctx context.Context, id int) (*ForecastLine, error) {
	db := config.GetDB()
	line, err := utils.FetchModel[ForecastLine](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(line).Error; err != nil {
		return nil, err
	}
	return line, nil
}

func ListForecastLines(ctx context.Context) ([]*ForecastLine, error) {
	db := config.GetDB()
	var lines []*ForecastLine
	if err := db.WithContext(ctx).Order("start_month, id").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
