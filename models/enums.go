package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

type RecordKind string

const (
	RecordKindIncome  RecordKind = "Income"
	RecordKindExpense RecordKind = "Expense"
)

func (k RecordKind) Valid() bool {
	return k == RecordKindIncome || k == RecordKindExpense
}

// ParseRecordKind maps the kind spellings seen in persisted rows and import
// feeds onto the canonical enum. The bool reports whether the input was
// recognized at all.
func ParseRecordKind(s string) (RecordKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", "in", "receita", "entrada", "credit":
		return RecordKindIncome, true
	case "expense", "out", "despesa", "saída", "saida", "debit":
		return RecordKindExpense, true
	}
	return "", false
}

type OriginKind string

const (
	OriginKindContract    OriginKind = "Contract"
	OriginKindInvestment  OriginKind = "Investment"
	OriginKindBillPayment OriginKind = "BillPayment"
)

// Reserved description markers tag machine-generated cash records. Matching
// by marker is the legacy fallback only; generated rows carry origin keys.
const (
	BillSettlementMarker = "[bill] "
	InvestmentMarker     = "[investment] "
)

// Display colors used when a category has none, or when a referenced
// category was deleted.
const (
	DefaultIncomeColor  = "#4CAF50"
	DefaultExpenseColor = "#F44336"
)

func DefaultColorForKind(kind RecordKind) string {
	if kind == RecordKindExpense {
		return DefaultExpenseColor
	}
	return DefaultIncomeColor
}

// UncategorizedName is the display bucket for records whose category
// reference is missing or dangling.
const UncategorizedName = "Uncategorized"

// StringList persists an ordered list of strings as a JSON column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	}
	return errors.New(fmt.Sprint("cannot scan string list from ", value))
}
