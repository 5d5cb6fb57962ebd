// legacy-import loads a JSON export of the old hosted datastore, runs every
// row through the canonical normalizer and inserts the result. Category
// references are remapped from legacy ids onto the newly assigned ones.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... \
//   go run ./cmd/legacy-import path/to/export.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/backoffice_backend/config"
	"bitbucket.org/mmdatafocus/backoffice_backend/models"
)

type legacyExport struct {
	Categories    []models.RawRow `json:"categories"`
	SubCategories []models.RawRow `json:"sub_categories"`
	CashRecords   []models.RawRow `json:"cash_records"`
	Investments   []models.RawRow `json:"investments"`
	Bills         []models.RawRow `json:"bills"`
	ForecastLines []models.RawRow `json:"forecast_lines"`
	Contracts     []models.RawRow `json:"contracts"`
}

// idMap remembers which new id each legacy id landed on.
type idMap struct {
	categories    map[string]int
	subCategories map[string]int
}

func (m idMap) resolve(refs models.RawRefs) (categoryId, subCategoryId *int) {
	if refs.CategoryId != "" {
		if id, ok := m.categories[refs.CategoryId]; ok {
			categoryId = &id
		}
	}
	if refs.SubCategoryId != "" {
		if id, ok := m.subCategories[refs.SubCategoryId]; ok {
			subCategoryId = &id
		}
	}
	return categoryId, subCategoryId
}

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: legacy-import <export.json>")
		os.Exit(2)
	}

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read export: %v\n", err)
		os.Exit(1)
	}
	var export legacyExport
	if err := json.Unmarshal(data, &export); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse export: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	ids := idMap{
		categories:    make(map[string]int),
		subCategories: make(map[string]int),
	}

	// Categories first: everything else references them.
	for _, normalized := range models.NormalizeCategoryTree(export.Categories, export.SubCategories) {
		category := normalized.Category
		if err := db.WithContext(ctx).Create(&category).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert category %q: %v\n", category.Name, err)
			os.Exit(1)
		}
		if normalized.LegacyId != "" {
			ids.categories[normalized.LegacyId] = category.ID
		}
		for i, sub := range category.SubCategories {
			if i < len(normalized.SubCategoryLegacyIds) && normalized.SubCategoryLegacyIds[i] != "" {
				ids.subCategories[normalized.SubCategoryLegacyIds[i]] = sub.ID
			}
		}
	}

	imported := 0
	for _, row := range export.CashRecords {
		record, refs := models.NormalizeCashRecord(row)
		record.CategoryId, record.SubCategoryId = ids.resolve(refs)
		if err := db.WithContext(ctx).Create(&record).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert cash record %q: %v\n", record.Description, err)
			os.Exit(1)
		}
		imported++
	}
	for _, row := range export.Investments {
		movement := models.NormalizeInvestmentMovement(row)
		if err := db.WithContext(ctx).Create(&movement).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert investment %q: %v\n", movement.Description, err)
			os.Exit(1)
		}
		imported++
	}
	for _, row := range export.Bills {
		bill := models.NormalizeBill(row)
		if err := db.WithContext(ctx).Create(&bill).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert bill %q: %v\n", bill.Description, err)
			os.Exit(1)
		}
		imported++
	}
	for _, row := range export.ForecastLines {
		line, refs := models.NormalizeForecastLine(row)
		line.CategoryId, line.SubCategoryId = ids.resolve(refs)
		if err := db.WithContext(ctx).Create(&line).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert forecast line %q: %v\n", line.Description, err)
			os.Exit(1)
		}
		imported++
	}
	for _, row := range export.Contracts {
		contract := models.NormalizeContract(row)
		if err := db.WithContext(ctx).Create(&contract).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to insert contract for %q: %v\n", contract.ClientName, err)
			os.Exit(1)
		}
		imported++
	}

	fmt.Printf("imported %d categories and %d rows\n", len(ids.categories), imported)
}
