package expense

import "github.com/shopspring/decimal"

// NormalizeLineItem derives a consistent per-line unit price, VAT amount
// and total from whatever the model returned. Monetary inputs are minor
// units; everything in the result is major units rounded to 2 decimals.
//
// The VAT amount prefers the difference between extracted total and
// subtotal (when both are present and positive) over a rate computation,
// since the printed figures are more trustworthy than a derived one.
// Missing descriptions stay empty: judging item semantics is the business
// validator's job, not the normalizer's.
func NormalizeLineItem(raw RawLineItem) LineItem {
	subtotal := decimal.Zero
	if raw.Subtotal != nil {
		subtotal = decimal.NewFromInt(*raw.Subtotal).Div(minorUnits)
	}

	vatRate := decimal.Zero
	if raw.TaxRate != nil {
		vatRate = decimal.NewFromFloat(*raw.TaxRate)
	}

	var total decimal.Decimal
	if raw.Total != nil {
		total = decimal.NewFromInt(*raw.Total).Div(minorUnits)
	}

	var vatAmount decimal.Decimal
	if raw.Total != nil && raw.Subtotal != nil && total.IsPositive() && subtotal.IsPositive() {
		vatAmount = total.Sub(subtotal).Round(2)
	} else {
		vatAmount = subtotal.Mul(vatRate).Div(minorUnits).Round(2)
	}

	if raw.Total == nil {
		total = subtotal.Add(vatAmount)
	}

	divisor := decimal.NewFromFloat(raw.Quantity)
	if raw.Quantity < 1 {
		divisor = decimal.NewFromInt(1)
	}

	return LineItem{
		Description: raw.Description,
		Quantity:    raw.Quantity,
		UnitPrice:   subtotal.Div(divisor).Round(2),
		Subtotal:    subtotal.Round(2),
		VATRate:     vatRate,
		VATAmount:   vatAmount,
		Total:       total.Round(2),
	}
}
