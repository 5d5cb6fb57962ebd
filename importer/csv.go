package importer

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StagedRecord is one statement line parsed but not yet persisted. The
// StagingId only identifies the row inside the review screen; the database
// assigns the real id when the operator accepts the row.
type StagedRecord struct {
	StagingId   string            `json:"staging_id"`
	RecordDate  time.Time         `json:"record_date"`
	Description string            `json:"description"`
	Amount      decimal.Decimal   `json:"amount"`
	Kind        models.RecordKind `json:"kind"`
	Balance     *decimal.Decimal  `json:"balance,omitempty"`
}

var errEmptyStatement = errors.New("statement has no data rows")

// parseSignedAmount reads a statement amount: leading '+' or '-', or
// accounting parentheses, decide the sign; a bare number is positive.
// Thousands separators are tolerated.
func parseSignedAmount(raw string) (decimal.Decimal, models.RecordKind, error) {
	s := strings.TrimSpace(raw)
	kind := models.RecordKindIncome

	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		kind = models.RecordKindExpense
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	switch {
	case strings.HasPrefix(s, "-"):
		kind = models.RecordKindExpense
		s = s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	s = strings.ReplaceAll(s, ",", "")
	amount, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, "", err
	}
	return amount.Abs(), kind, nil
}

func looksLikeHeader(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	_, err := time.Parse("02/01/2006", strings.TrimSpace(fields[0]))
	return err != nil
}

// ParseStatement reads a bank statement CSV of the form
// date;description;amount[;balance] with DD/MM/YYYY dates. A header row is
// skipped; blank lines and comma or semicolon delimiters are tolerated.
// Rows that cannot be parsed fail the whole import: a half-imported
// statement is worse than none.
func ParseStatement(r io.Reader) ([]StagedRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	return parseRows(rows)
}

// ParseStatementAuto tries comma first and falls back to semicolon, which
// Brazilian bank exports commonly use.
func ParseStatementAuto(data []byte) ([]StagedRecord, error) {
	records, err := ParseStatement(strings.NewReader(string(data)))
	if err == nil && len(records) > 0 {
		return records, nil
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, readErr := reader.ReadAll()
	if readErr != nil {
		if err != nil {
			return nil, err
		}
		return nil, readErr
	}
	return parseRows(rows)
}

func parseRows(rows [][]string) ([]StagedRecord, error) {
	out := make([]StagedRecord, 0, len(rows))
	for i, fields := range rows {
		if len(fields) == 0 || (len(fields) == 1 && strings.TrimSpace(fields[0]) == "") {
			continue
		}
		if i == 0 && looksLikeHeader(fields) {
			continue
		}
		if len(fields) < 3 {
			return nil, errors.New("statement row needs at least date, description and amount")
		}

		date, err := time.Parse("02/01/2006", strings.TrimSpace(fields[0]))
		if err != nil {
			return nil, err
		}
		amount, kind, err := parseSignedAmount(fields[2])
		if err != nil {
			return nil, err
		}

		record := StagedRecord{
			StagingId:   uuid.NewString(),
			RecordDate:  date,
			Description: strings.TrimSpace(fields[1]),
			Amount:      amount,
			Kind:        kind,
		}
		if len(fields) > 3 && strings.TrimSpace(fields[3]) != "" {
			balance, _, err := parseSignedAmount(fields[3])
			if err == nil {
				if strings.Contains(fields[3], "-") || strings.Contains(fields[3], "(") {
					balance = balance.Neg()
				}
				record.Balance = &balance
			}
		}
		out = append(out, record)
	}
	if len(out) == 0 {
		return nil, errEmptyStatement
	}
	return out, nil
}

// ToNewCashRecord converts an accepted staged row into the create input.
func (s StagedRecord) ToNewCashRecord() *models.NewCashRecord {
	return &models.NewCashRecord{
		RecordDate:  s.RecordDate,
		Description: s.Description,
		Amount:      s.Amount,
		Kind:        s.Kind,
		Balance:     s.Balance,
	}
}
