package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/backoffice_backend/utils"
	"github.com/shopspring/decimal"
)

// RawRow is one row as exported by the legacy hosted datastore. Field names
// vary in casing, language and presence; values arrive as whatever the JSON
// decoder produced.
type RawRow map[string]any

// RawRefs carries the legacy foreign-key strings of a normalized row so an
// importer can remap them onto newly assigned ids.
type RawRefs struct {
	CategoryId    string
	SubCategoryId string
}

// Ordered candidate extractors per field. First present wins; order is the
// contract, so keep the canonical spelling first.
var (
	rawAmountFields      = []string{"amount", "Amount", "valor", "Valor", "value", "Value"}
	rawDateFields        = []string{"date", "Date", "data", "Data", "record_date", "created_at"}
	rawDescriptionFields = []string{"description", "Description", "descricao", "Descricao", "desc", "name"}
	rawBalanceFields     = []string{"balance", "Balance", "saldo", "Saldo"}
	rawKindFields        = []string{"kind", "Kind", "type", "Type", "tipo", "Tipo"}
	rawLabelFields       = []string{"label", "Label", "categoria", "entry_type"}
	rawNotesFields       = []string{"notes", "Notes", "note", "observacao", "obs"}
	rawTagsFields        = []string{"tags", "Tags", "tag_list", "etiquetas"}
	rawCategoryFields    = []string{"category_id", "categoryId", "categoria_id", "category"}
	rawSubCategoryFields = []string{"sub_category_id", "subCategoryId", "subcategoria_id", "subcategory"}
	rawNameFields        = []string{"name", "Name", "nome", "Nome", "title"}
	rawColorFields       = []string{"color", "Color", "cor", "Cor"}
	rawClientFields      = []string{"client_name", "clientName", "cliente", "client"}
	rawReceivableFields  = []string{"receivable", "Receivable", "a_receber", "to_receive"}
	rawPayableFields     = []string{"payable", "Payable", "a_pagar", "to_pay"}
	rawServiceFields     = []string{"service_description", "serviceDescription", "servico", "service"}
	rawPaidFields        = []string{"amount_paid", "amountPaid", "valor_pago", "paid"}
	rawRecvTotalFields   = []string{"amount_receivable", "amountReceivable", "valor_a_receber"}
	rawStartDateFields   = []string{"start_date", "startDate", "inicio", "data_inicio"}
	rawEndDateFields     = []string{"end_date", "endDate", "fim", "data_fim"}
	rawPayDateFields     = []string{"payment_date", "paymentDate", "data_pagamento"}
	rawInstallmentFields = []string{"installment_count", "installmentCount", "parcelas", "installments"}
	rawStartMonthFields  = []string{"start_month", "startMonth", "mes_inicio", "month"}
	rawEndMonthFields    = []string{"end_month", "endMonth", "mes_fim"}
	rawRecurringFields   = []string{"recurring", "Recurring", "recorrente", "is_recurring"}
	rawIdFields          = []string{"id", "Id", "ID", "_id"}
	rawParentFields      = []string{"category_id", "categoryId", "parent_id", "parentId", "categoria_id"}
)

/* coercion helpers — total, never error */

func rawString(row RawRow, keys ...string) string {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			return strings.TrimSpace(s)
		case json.Number:
			return s.String()
		}
	}
	return ""
}

func rawNumber(row RawRow, keys ...string) (decimal.Decimal, bool) {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return decimal.NewFromFloat(n), true
		case int:
			return decimal.NewFromInt(int64(n)), true
		case int64:
			return decimal.NewFromInt(n), true
		case json.Number:
			if d, err := decimal.NewFromString(n.String()); err == nil {
				return d, true
			}
		case string:
			if d, err := decimal.NewFromString(strings.TrimSpace(n)); err == nil {
				return d, true
			}
		}
	}
	return decimal.Zero, false
}

func rawBool(row RawRow, keys ...string) bool {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch b := v.(type) {
		case bool:
			return b
		case string:
			s := strings.ToLower(strings.TrimSpace(b))
			return s == "true" || s == "1" || s == "yes"
		case float64:
			return b != 0
		}
	}
	return false
}

func rawList(row RawRow, keys ...string) []string {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		items, ok := v.([]any)
		if !ok {
			// not a list; try the next candidate spelling
			continue
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	}
	return []string{}
}

var rawDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
}

func rawDate(row RawRow, keys ...string) time.Time {
	for _, key := range keys {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		switch d := v.(type) {
		case time.Time:
			return d
		case string:
			s := strings.TrimSpace(d)
			for _, layout := range rawDateLayouts {
				if t, err := time.Parse(layout, s); err == nil {
					return t
				}
			}
		}
	}
	return time.Time{}
}

// NormalizeId renders any id value as a comparable string, so numeric and
// string spellings of the same id never miss each other.
func NormalizeId(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(id)
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return strings.TrimSpace(fmt.Sprint(id))
	}
}

func rawId(row RawRow, keys ...string) string {
	for _, key := range keys {
		if v, ok := row[key]; ok && v != nil {
			if s := NormalizeId(v); s != "" {
				return s
			}
		}
	}
	return ""
}

// kindAndAmount resolves an explicit kind field when present; otherwise the
// kind is inferred from the sign. The returned amount is always the
// magnitude.
func kindAndAmount(row RawRow, amount decimal.Decimal) (RecordKind, decimal.Decimal) {
	if kind, ok := ParseRecordKind(rawString(row, rawKindFields...)); ok {
		return kind, amount.Abs()
	}
	if kind, ok := ParseRecordKind(rawString(row, rawLabelFields...)); ok {
		return kind, amount.Abs()
	}
	if amount.IsNegative() {
		return RecordKindExpense, amount.Abs()
	}
	return RecordKindIncome, amount
}

/* normalizers — pure, total, never fail */

func NormalizeCashRecord(row RawRow) (CashRecord, RawRefs) {
	amount, _ := rawNumber(row, rawAmountFields...)
	kind, amount := kindAndAmount(row, amount)

	record := CashRecord{
		RecordDate:  rawDate(row, rawDateFields...),
		Description: rawString(row, rawDescriptionFields...),
		Amount:      amount,
		Kind:        kind,
		Notes:       rawString(row, rawNotesFields...),
		Tags:        StringList(rawList(row, rawTagsFields...)),
		PendingLink: utils.NewFalse(),
	}
	if balance, ok := rawNumber(row, rawBalanceFields...); ok {
		record.Balance = &balance
	}
	refs := RawRefs{
		CategoryId:    rawId(row, rawCategoryFields...),
		SubCategoryId: rawId(row, rawSubCategoryFields...),
	}
	return record, refs
}

func NormalizeInvestmentMovement(row RawRow) InvestmentMovement {
	amount, _ := rawNumber(row, rawAmountFields...)
	kind, amount := kindAndAmount(row, amount)

	return InvestmentMovement{
		Description:  rawString(row, rawDescriptionFields...),
		Amount:       amount,
		Kind:         kind,
		MovementDate: rawDate(row, rawDateFields...),
	}
}

func NormalizeBill(row RawRow) Bill {
	receivable, _ := rawNumber(row, rawReceivableFields...)
	payable, _ := rawNumber(row, rawPayableFields...)

	return Bill{
		BillDate:    rawDate(row, rawDateFields...),
		ClientName:  rawString(row, rawClientFields...),
		Description: rawString(row, rawDescriptionFields...),
		Receivable:  receivable.Abs(),
		Payable:     payable.Abs(),
		PendingLink: utils.NewFalse(),
	}
}

func NormalizeForecastLine(row RawRow) (ForecastLine, RawRefs) {
	amount, _ := rawNumber(row, rawAmountFields...)
	kind, amount := kindAndAmount(row, amount)

	startMonth := rawString(row, rawStartMonthFields...)
	endMonth := rawString(row, rawEndMonthFields...)
	if endMonth == "" {
		endMonth = startMonth
	}

	recurring := rawBool(row, rawRecurringFields...)
	line := ForecastLine{
		Description: rawString(row, rawDescriptionFields...),
		Amount:      amount,
		Kind:        kind,
		Recurring:   &recurring,
		StartMonth:  startMonth,
		EndMonth:    endMonth,
	}
	refs := RawRefs{
		CategoryId:    rawId(row, rawCategoryFields...),
		SubCategoryId: rawId(row, rawSubCategoryFields...),
	}
	return line, refs
}

func NormalizeContract(row RawRow) Contract {
	paid, _ := rawNumber(row, rawPaidFields...)
	receivable, _ := rawNumber(row, rawRecvTotalFields...)

	contract := Contract{
		ClientName:         rawString(row, rawClientFields...),
		ServiceDescription: rawString(row, rawServiceFields...),
		AmountPaid:         paid.Abs(),
		AmountReceivable:   receivable.Abs(),
		StartDate:          rawDate(row, rawStartDateFields...),
		EndDate:            rawDate(row, rawEndDateFields...),
	}
	if payDate := rawDate(row, rawPayDateFields...); !payDate.IsZero() {
		contract.PaymentDate = &payDate
	}
	if count, ok := rawNumber(row, rawInstallmentFields...); ok {
		n := int(count.IntPart())
		contract.InstallmentCount = &n
	}
	return contract
}

// NormalizedCategory pairs a canonical Category with the legacy ids needed
// to remap references during import. SubCategoryLegacyIds is parallel to
// Category.SubCategories.
type NormalizedCategory struct {
	Category
	LegacyId             string
	SubCategoryLegacyIds []string
}

// NormalizeCategoryTree joins sub category rows onto their parents by
// string-normalized id comparison, so a numeric parent id still matches its
// string spelling in the child row.
func NormalizeCategoryTree(categoryRows []RawRow, subCategoryRows []RawRow) []NormalizedCategory {
	out := make([]NormalizedCategory, 0, len(categoryRows))
	for _, row := range categoryRows {
		kind := RecordKindIncome
		if parsed, ok := ParseRecordKind(rawString(row, rawKindFields...)); ok {
			kind = parsed
		} else if parsed, ok := ParseRecordKind(rawString(row, rawLabelFields...)); ok {
			kind = parsed
		}

		color := rawString(row, rawColorFields...)
		if color == "" {
			color = DefaultColorForKind(kind)
		}

		normalized := NormalizedCategory{
			Category: Category{
				Name:  rawString(row, rawNameFields...),
				Kind:  kind,
				Color: color,
			},
			LegacyId: rawId(row, rawIdFields...),
		}

		for _, subRow := range subCategoryRows {
			if normalized.LegacyId == "" {
				break
			}
			if rawId(subRow, rawParentFields...) != normalized.LegacyId {
				continue
			}
			normalized.SubCategories = append(normalized.SubCategories, SubCategory{
				Name: rawString(subRow, rawNameFields...),
			})
			normalized.SubCategoryLegacyIds = append(normalized.SubCategoryLegacyIds, rawId(subRow, rawIdFields...))
		}
		out = append(out, normalized)
	}
	return out
}
