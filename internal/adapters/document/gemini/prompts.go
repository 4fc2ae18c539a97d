package gemini

import "3tcapital/ms_extraccion_gastos/internal/core/expense"

// promptVariant couples the extraction prompt with the response schema
// the service is constrained to. One variant per document type; the
// generic one asks the model to classify the document first.
type promptVariant struct {
	prompt string
	schema map[string]any
}

const promptCommonRules = `
Rules:
- Return ONLY JSON matching the response schema.
- All monetary values are INTEGER CENTS (minor units): 121.50 EUR -> 12150.
- Use ISO-8601 dates (YYYY-MM-DD) when the printed date allows it.
- currency is a 3-letter ISO 4217 code (EUR, USD, ...).
- tax_bands is the document's VAT/IVA breakdown table: one entry per
  printed rate with its taxable base and tax amount, both in cents.
- Omit fields you cannot read; never invent values.`

const invoicePrompt = `You are an expert reader of Spanish invoices (facturas).
Extract the structured data of this invoice.
Focus on: the invoice number, the issue date, the vendor's legal name and
tax id (NIF/CIF, formats like B12345678 or 12345678Z), the VAT breakdown
per rate (21%, 10%, 4%, 0%), the subtotal (base imponible), the grand
total, and every line item with quantity, unit amounts and its VAT rate.
Set document_type to "invoice".` + promptCommonRules

const receiptPrompt = `You are an expert reader of retail receipts (tickets de compra).
Extract the structured data of this receipt.
Focus on: the merchant name and tax id if printed, the purchase date, the
total paid, the VAT/IVA summary block when present (rate, base, amount),
and the purchased items with quantities and prices.
Set document_type to "receipt".` + promptCommonRules

const genericPrompt = `You are an expert reader of financial documents.
First classify this document: a formal invoice (factura) with numbered
series and a full VAT breakdown, or a retail receipt (ticket). Set
document_type to "invoice" or "receipt" accordingly, then extract the
fields of the schema with the emphasis appropriate for that type:
invoices carry a per-rate VAT breakdown and a vendor NIF/CIF, receipts
often only a total and a compact IVA summary.` + promptCommonRules

// documentSchema is the response schema shared by all variants, in the
// OpenAPI subset the generation endpoint accepts.
func documentSchema() map[string]any {
	cents := func(desc string) map[string]any {
		return map[string]any{"type": "integer", "description": desc}
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"document_type": map[string]any{
				"type": "string",
				"enum": []string{"invoice", "receipt", "other"},
			},
			"document_number": map[string]any{"type": "string"},
			"date":            map[string]any{"type": "string"},
			"vendor_name":     map[string]any{"type": "string"},
			"vendor_tax_id": map[string]any{
				"type":        "string",
				"description": "Spanish NIF/CIF of the issuer when printed",
			},
			"currency":     map[string]any{"type": "string"},
			"total_amount": cents("grand total in integer cents"),
			"subtotal":     cents("taxable base (base imponible) in integer cents"),
			"tax_bands": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"rate":   map[string]any{"type": "number"},
						"base":   cents("taxable base for this rate"),
						"amount": cents("tax amount for this rate"),
					},
					"required": []string{"rate"},
				},
			},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"description": map[string]any{"type": "string"},
						"quantity":    map[string]any{"type": "number"},
						"subtotal":    cents("line subtotal before tax"),
						"tax_rate":    map[string]any{"type": "number"},
						"total":       cents("line total including tax"),
					},
				},
			},
		},
		"required": []string{"document_type"},
	}
}

func variantFor(docType expense.DocumentType) promptVariant {
	schema := documentSchema()
	switch docType {
	case expense.DocumentTypeInvoice:
		return promptVariant{prompt: invoicePrompt, schema: schema}
	case expense.DocumentTypeReceipt:
		return promptVariant{prompt: receiptPrompt, schema: schema}
	default:
		return promptVariant{prompt: genericPrompt, schema: schema}
	}
}
