package expense

import "github.com/shopspring/decimal"

// minorUnits converts integer cents to major currency units.
var minorUnits = decimal.NewFromInt(100)

// MapVATBreakdown reconciles the extracted tax bands into the four
// canonical Spanish IVA buckets: general (21%), reduced (10%),
// superreduced (4-5%) and exempt (0%). Band rates are matched against
// inclusive ranges so small OCR drift (20.0, 21.5, ...) still lands in
// the right bucket; rates outside every range are dropped.
//
// When two bands fall into the same bucket the later one overwrites the
// earlier (observed upstream behavior, kept as-is). The 0% bucket's
// amount is always forced to zero: exempt transactions cannot carry tax.
func MapVATBreakdown(bands []TaxBand) MappedVAT {
	var m MappedVAT

	for _, band := range bands {
		base := decimal.NewFromInt(band.Base).Div(minorUnits)
		amount := decimal.NewFromInt(band.Amount).Div(minorUnits)

		switch {
		case band.Rate >= 20 && band.Rate <= 22:
			m.Rate21 = &VATBucket{Base: base, Amount: amount}
		case band.Rate >= 9 && band.Rate <= 11:
			m.Rate10 = &VATBucket{Base: base, Amount: amount}
		case band.Rate >= 4 && band.Rate <= 5:
			m.Rate4 = &VATBucket{Base: base, Amount: amount}
		case band.Rate == 0:
			m.Rate0 = &VATBucket{Base: base, Amount: decimal.Zero}
		}
	}

	return m
}

// Buckets returns the non-nil buckets of m. Handy for summing tax
// amounts during business validation.
func (m MappedVAT) Buckets() []*VATBucket {
	var out []*VATBucket
	for _, b := range []*VATBucket{m.Rate21, m.Rate10, m.Rate4, m.Rate0} {
		if b != nil {
			out = append(out, b)
		}
	}
	return out
}
