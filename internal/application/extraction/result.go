package extraction

import (
	"github.com/shopspring/decimal"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// ExtractionResult is the envelope every extraction request resolves to,
// success or not. Warnings carry soft validation findings on otherwise
// usable data; Errors carry the blocking ones.
type ExtractionResult struct {
	ID         string         `json:"id"`
	Success    bool           `json:"success"`
	Data       *ExpenseData   `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
	Warnings   []string       `json:"warnings,omitempty"`
	Errors     []string       `json:"errors,omitempty"`
	DurationMs int64          `json:"durationMs"`
	Metadata   ResultMetadata `json:"metadata"`
}

// ResultMetadata describes how the result was produced.
type ResultMetadata struct {
	Model         string `json:"model,omitempty"`
	FileSizeBytes int64  `json:"fileSizeBytes"`
	MimeType      string `json:"mimeType,omitempty"`
	RemoteFile    string `json:"remoteFile,omitempty"`
	Attempts      int    `json:"attempts"`
}

// Counterparty identifies the vendor on the document.
type Counterparty struct {
	Name  string `json:"name,omitempty"`
	TaxID string `json:"taxId,omitempty"`
}

// LineItemData is a normalized document line, amounts in currency units.
type LineItemData struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
	VATRate     float64 `json:"vatRate"`
	VATAmount   float64 `json:"vatAmount"`
	Total       float64 `json:"total"`
}

// ExpenseData is the normalized expense record. VAT buckets are nil when
// the document shows nothing at that rate.
type ExpenseData struct {
	DocumentType   string         `json:"documentType"`
	DocumentNumber string         `json:"documentNumber,omitempty"`
	Date           string         `json:"date,omitempty"`
	Counterparty   Counterparty   `json:"counterparty"`
	Currency       string         `json:"currency,omitempty"`
	TotalAmount    *float64       `json:"totalAmount,omitempty"`
	Subtotal       *float64       `json:"subtotal,omitempty"`
	VAT21Base      *float64       `json:"vat21Base,omitempty"`
	VAT21Amount    *float64       `json:"vat21Amount,omitempty"`
	VAT10Base      *float64       `json:"vat10Base,omitempty"`
	VAT10Amount    *float64       `json:"vat10Amount,omitempty"`
	VAT4Base       *float64       `json:"vat4Base,omitempty"`
	VAT4Amount     *float64       `json:"vat4Amount,omitempty"`
	VAT0Base       *float64       `json:"vat0Base,omitempty"`
	VAT0Amount     *float64       `json:"vat0Amount,omitempty"`
	LineItems      []LineItemData `json:"lineItems"`
}

var resultMinorUnits = decimal.NewFromInt(100)

func centsToFloat(cents *int64) *float64 {
	if cents == nil {
		return nil
	}
	f, _ := decimal.NewFromInt(*cents).Div(resultMinorUnits).Float64()
	return &f
}

func decimalToFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func bucketFloats(b *expense.VATBucket) (*float64, *float64) {
	if b == nil {
		return nil, nil
	}
	base := decimalToFloat(b.Base)
	amount := decimalToFloat(b.Amount)
	return &base, &amount
}

// buildExpenseData flattens the extracted document, its mapped VAT
// breakdown and the normalized line items into the response shape.
func buildExpenseData(doc *expense.ExtractedDocument, vat expense.MappedVAT, items []expense.LineItem) *ExpenseData {
	data := &ExpenseData{
		DocumentType:   doc.DocumentType,
		DocumentNumber: doc.DocumentNumber,
		Date:           doc.Date,
		Counterparty: Counterparty{
			Name:  doc.VendorName,
			TaxID: doc.VendorTaxID,
		},
		Currency:    doc.Currency,
		TotalAmount: centsToFloat(doc.TotalAmount),
		Subtotal:    centsToFloat(doc.Subtotal),
		LineItems:   make([]LineItemData, 0, len(items)),
	}

	data.VAT21Base, data.VAT21Amount = bucketFloats(vat.Rate21)
	data.VAT10Base, data.VAT10Amount = bucketFloats(vat.Rate10)
	data.VAT4Base, data.VAT4Amount = bucketFloats(vat.Rate4)
	data.VAT0Base, data.VAT0Amount = bucketFloats(vat.Rate0)

	for _, item := range items {
		data.LineItems = append(data.LineItems, LineItemData{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   decimalToFloat(item.UnitPrice),
			Subtotal:    decimalToFloat(item.Subtotal),
			VATRate:     decimalToFloat(item.VATRate),
			VATAmount:   decimalToFloat(item.VATAmount),
			Total:       decimalToFloat(item.Total),
		})
	}
	return data
}
