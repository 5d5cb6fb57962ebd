package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"gorm.io/gorm"
)

// Category owns its SubCategories outright: deleting a category removes
// them. Records referencing a deleted category keep their dangling id and
// render as Uncategorized; that is display-time degradation, not an error.
type Category struct {
	ID            int           `gorm:"primary_key" json:"id"`
	Name          string        `gorm:"size:100;not null;unique" json:"name" binding:"required"`
	Kind          RecordKind    `gorm:"type:enum('Income','Expense');default:Income" json:"kind" binding:"required"`
	Color         string        `gorm:"size:20" json:"color"`
	SubCategories []SubCategory `gorm:"constraint:OnDelete:CASCADE" json:"sub_categories"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

type SubCategory struct {
	ID         int       `gorm:"primary_key" json:"id"`
	CategoryId int       `gorm:"index;not null" json:"category_id"`
	Name       string    `gorm:"size:100;not null" json:"name" binding:"required"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewCategory struct {
	Name          string     `json:"name" binding:"required"`
	Kind          RecordKind `json:"kind" binding:"required"`
	Color         string     `json:"color"`
	SubCategories []string   `json:"sub_categories"`
}

type NewSubCategory struct {
	Name string `json:"name" binding:"required"`
}

func (input *NewCategory) validate(ctx context.Context, id int) error {
	if !input.Kind.Valid() {
		return errors.New("kind must be Income or Expense")
	}
	if err := utils.ValidateUnique[Category](ctx, "name", input.Name, id); err != nil {
		return err
	}
	return nil
}

func CreateCategory(ctx context.Context, input *NewCategory) (*Category, error) {
	if err := input.validate(ctx, 0); err != nil {
		return nil, err
	}

	color := input.Color
	if color == "" {
		color = DefaultColorForKind(input.Kind)
	}

	category := Category{
		Name:  input.Name,
		Kind:  input.Kind,
		Color: color,
	}
	for _, name := range input.SubCategories {
		category.SubCategories = append(category.SubCategories, SubCategory{Name: name})
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&category).Error; err != nil {
		if utils.IsDuplicateEntry(err) {
			return nil, errors.New("name already exists")
		}
		return nil, err
	}
	return &category, nil
}

func UpdateCategory(ctx context.Context, id int, input *NewCategory) (*Category, error) {
	if err := input.validate(ctx, id); err != nil {
		return nil, err
	}

	db := config.GetDB()
	category, err := utils.FetchModel[Category](ctx, id, "SubCategories")
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(category).Updates(map[string]interface{}{
		"Name":  input.Name,
		"Kind":  input.Kind,
		"Color": input.Color,
	}).Error; err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes the category and its sub categories in one
// transaction. Cash records pointing at it are left alone; their reference
// dangles and resolves to Uncategorized on the next read.
func DeleteCategory(ctx context.Context, id int) (*Category, error) {
	db := config.GetDB()
	category, err := utils.FetchModel[Category](ctx, id, "SubCategories")
	if err != nil {
		return nil, err
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("category_id = ?", id).Delete(&SubCategory{}).Error; err != nil {
			return err
		}
		return tx.Delete(category).Error
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

func AddSubCategory(ctx context.Context, categoryId int, input *NewSubCategory) (*SubCategory, error) {
	if err := utils.ValidateResourceId[Category](ctx, categoryId); err != nil {
		return nil, errors.New("category does not exist")
	}

	db := config.GetDB()
	sub := SubCategory{
		CategoryId: categoryId,
		Name:       input.Name,
	}
	if err := db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// DeleteSubCategory removes a single sub category. No cascade: records
// referencing it degrade at display time.
func DeleteSubCategory(ctx context.Context, id int) (*SubCategory, error) {
	db := config.GetDB()
	sub, err := utils.FetchModel[SubCategory](ctx, id)
	if err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Delete(sub).Error; err != nil {
		return nil, err
	}
	return sub, nil
}

func GetCategory(ctx context.Context, id int) (*Category, error) {
	return utils.FetchModel[Category](ctx, id, "SubCategories")
}

func ListCategories(ctx context.Context) ([]*Category, error) {
	db := config.GetDB()
	var categories []*Category
	if err := db.WithContext(ctx).Preload("SubCategories").Order("name").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}
