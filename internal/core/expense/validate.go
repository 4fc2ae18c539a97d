package expense

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// centTolerance is the bounded tolerance for totals reconciliation.
var centTolerance = decimal.New(1, -2) // 0.01

// dateLayouts are the date shapes the extraction prompt allows. ISO first,
// then the Spanish forms that show up on printed tickets.
var dateLayouts = []string{"2006-01-02", "02/01/2006", "02-01-2006"}

// BusinessReport carries the outcome of the non-blocking cross-checks.
// Warnings never fail the extraction; Errors do.
type BusinessReport struct {
	Warnings []string
	Errors   []string
}

// ValidateBusiness cross-checks the extracted totals against the mapped
// VAT breakdown and the normalized line items. Every check except the
// missing-total one produces a warning: financial review happens
// downstream, the pipeline only flags inconsistencies.
func ValidateBusiness(doc ExtractedDocument, vat MappedVAT, items []LineItem) BusinessReport {
	var report BusinessReport

	if doc.TotalAmount == nil {
		// Downstream persistence cannot store an expense without a total.
		report.Errors = append(report.Errors, string(CodeMissingTotal))
		return report
	}
	total := decimal.NewFromInt(*doc.TotalAmount).Div(minorUnits)

	if doc.Subtotal != nil {
		subtotal := decimal.NewFromInt(*doc.Subtotal).Div(minorUnits)
		vatSum := decimal.Zero
		for _, bucket := range vat.Buckets() {
			vatSum = vatSum.Add(bucket.Amount)
		}
		if subtotal.Add(vatSum).Sub(total).Abs().GreaterThan(centTolerance) {
			report.Warnings = append(report.Warnings, WarnVATTotalMismatch)
		}
	}

	if n := len(items); n > 0 {
		itemsSum := decimal.Zero
		for _, item := range items {
			itemsSum = itemsSum.Add(item.Total)
		}
		tolerance := centTolerance.Mul(decimal.NewFromInt(int64(n)))
		if itemsSum.Sub(total).Abs().GreaterThan(tolerance) {
			report.Warnings = append(report.Warnings, WarnLineItemsSumMismatch)
		}
	}

	if doc.Date != "" && !parseableDate(doc.Date) {
		report.Warnings = append(report.Warnings, WarnInvalidDate)
	}

	if doc.Currency != "" {
		if _, err := currency.ParseISO(doc.Currency); err != nil {
			report.Warnings = append(report.Warnings, WarnUnknownCurrency)
		}
	}

	return report
}

func parseableDate(value string) bool {
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
