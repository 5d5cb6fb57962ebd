package reports

import (
	"context"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"github.com/xuri/excelize/v2"
)

// ExportCashFlowExcel renders the period's cash records and monthly series
// into a workbook for download. The caller owns closing the file.
func ExportCashFlowExcel(ctx context.Context, period Period) (*excelize.File, error) {
	report, err := GetDashboardReport(ctx, period)
	if err != nil {
		return nil, err
	}
	records, err := models.ListCashRecords(ctx)
	if err != nil {
		return nil, err
	}
	records = FilterRecordsByPeriod(records, period, report.GeneratedAt)

	file := excelize.NewFile()

	recordSheet := "Records"
	index, err := file.NewSheet(recordSheet)
	if err != nil {
		return nil, err
	}
	file.SetActiveSheet(index)

	headers := []string{"Date", "Description", "Kind", "Amount", "Notes"}
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(recordSheet, cell, header); err != nil {
			return nil, err
		}
	}
	for row, record := range records {
		values := []interface{}{
			record.RecordDate.Format("2006-01-02"),
			record.Description,
			string(record.Kind),
			record.Amount.InexactFloat64(),
			record.Notes,
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(recordSheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	monthlySheet := "Monthly"
	if _, err := file.NewSheet(monthlySheet); err != nil {
		return nil, err
	}
	for col, header := range []string{"Month", "Income", "Expense", "Net"} {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := file.SetCellValue(monthlySheet, cell, header); err != nil {
			return nil, err
		}
	}
	for row, point := range report.MonthlyCashFlow {
		values := []interface{}{
			point.Month,
			point.Income.InexactFloat64(),
			point.Expense.InexactFloat64(),
			point.Net.InexactFloat64(),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := file.SetCellValue(monthlySheet, cell, value); err != nil {
				return nil, err
			}
		}
	}

	// drop the default sheet excelize creates
	_ = file.DeleteSheet("Sheet1")
	return file, nil
}
