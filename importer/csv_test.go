package importer

import (
	"strings"
	"testing"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"github.com/shopspring/decimal"
)

const sampleStatement = `Date,Description,Amount,Balance
15/03/2025,Client payment,+1500.00,2500.00
16/03/2025,Office rent,-800.00,1700.00
17/03/2025,Bank fee,(25.50),1674.50
18/03/2025,Consulting,950.00,
`

func TestParseStatement_SignNotation(t *testing.T) {
	records, err := ParseStatement(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("got %d records, want 4 (header skipped)", len(records))
	}

	if records[0].Kind != models.RecordKindIncome || !records[0].Amount.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("explicit plus: %+v, want income 1500", records[0])
	}
	if records[1].Kind != models.RecordKindExpense || !records[1].Amount.Equal(decimal.NewFromInt(800)) {
		t.Errorf("minus: %+v, want expense 800", records[1])
	}
	if records[2].Kind != models.RecordKindExpense || !records[2].Amount.Equal(decimal.NewFromFloat(25.5)) {
		t.Errorf("parentheses: %+v, want expense 25.50", records[2])
	}
	// bare number defaults to income
	if records[3].Kind != models.RecordKindIncome {
		t.Errorf("bare amount: kind = %s, want Income default", records[3].Kind)
	}
}

func TestParseStatement_DatesAndBalance(t *testing.T) {
	records, err := ParseStatement(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := records[0]
	if first.RecordDate.Day() != 15 || int(first.RecordDate.Month()) != 3 || first.RecordDate.Year() != 2025 {
		t.Errorf("date = %s, want 2025-03-15 from DD/MM/YYYY", first.RecordDate)
	}
	if first.Balance == nil || !first.Balance.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("balance = %v, want 2500", first.Balance)
	}
	if records[3].Balance != nil {
		t.Errorf("empty balance column should stay nil, got %v", records[3].Balance)
	}
}

func TestParseStatement_StagingIdsUnique(t *testing.T) {
	records, err := ParseStatement(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]bool)
	for _, record := range records {
		if record.StagingId == "" || seen[record.StagingId] {
			t.Fatalf("staging ids must be unique and non-empty, got %q", record.StagingId)
		}
		seen[record.StagingId] = true
	}
}

func TestParseStatementAuto_SemicolonDelimiter(t *testing.T) {
	data := "15/03/2025;Client payment;-120.50\n"
	records, err := ParseStatementAuto([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Kind != models.RecordKindExpense {
		t.Errorf("kind = %s, want Expense", records[0].Kind)
	}
}

func TestParseStatement_RejectsEmptyAndMalformed(t *testing.T) {
	if _, err := ParseStatement(strings.NewReader("Date,Description,Amount\n")); err == nil {
		t.Error("header-only statement must be rejected")
	}
	if _, err := ParseStatement(strings.NewReader("not-a-date,stuff,12.00\nalso-bad,x,1\n")); err == nil {
		t.Error("unparseable dates must fail the whole import")
	}
}

func TestToNewCashRecord(t *testing.T) {
	records, err := ParseStatement(strings.NewReader(sampleStatement))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	input := records[1].ToNewCashRecord()
	if input.Description != "Office rent" || input.Kind != models.RecordKindExpense {
		t.Errorf("input = %+v, want office rent expense", input)
	}
}
