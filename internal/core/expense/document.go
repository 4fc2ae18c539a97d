package expense

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DocumentType selects the extraction variant used against the
// document-understanding service. Auto lets the model classify the
// document before extracting fields.
type DocumentType string

const (
	DocumentTypeAuto    DocumentType = "auto"
	DocumentTypeInvoice DocumentType = "invoice"
	DocumentTypeReceipt DocumentType = "receipt"
)

// ParseDocumentType maps user-facing hints (Spanish and English forms)
// to a DocumentType. An empty hint defaults to auto.
func ParseDocumentType(hint string) (DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(hint)) {
	case "", "auto":
		return DocumentTypeAuto, nil
	case "invoice", "factura":
		return DocumentTypeInvoice, nil
	case "receipt", "ticket":
		return DocumentTypeReceipt, nil
	default:
		return "", fmt.Errorf("unknown document type hint %q", hint)
	}
}

// UploadedFile is the raw user submission. It is created once per request
// and discarded when the pipeline completes.
type UploadedFile struct {
	Bytes        []byte
	MimeType     string
	SizeBytes    int64
	OriginalName string
}

// FileInfo is what the file validator learns about an accepted file.
type FileInfo struct {
	MimeType string
	Pages    int
	Width    int
	Height   int
}

// RemoteFileState mirrors the readiness lifecycle of a file uploaded to
// the document-understanding service.
type RemoteFileState string

const (
	RemoteFileProcessing RemoteFileState = "PROCESSING"
	RemoteFileActive     RemoteFileState = "ACTIVE"
	RemoteFileFailed     RemoteFileState = "FAILED"
)

// RemoteFileHandle is the remote service's reference to an uploaded file.
// It is owned by the gateway for the duration of one request and deleted
// best-effort at the end.
type RemoteFileHandle struct {
	Name     string
	URI      string
	MimeType string
	State    RemoteFileState
}

// ResponseCandidate is one generation candidate of a model response.
type ResponseCandidate struct {
	FinishReason string
	Text         string
}

// RawModelResponse is the model output as returned by the gateway,
// before any parsing or repair.
type RawModelResponse struct {
	Candidates []ResponseCandidate
}

// TaxBand is one row of the document's tax breakdown table as extracted
// by the model. Base and Amount are integer minor units (cents).
type TaxBand struct {
	Rate   float64 `json:"rate"`
	Base   int64   `json:"base"`
	Amount int64   `json:"amount"`
}

// RawLineItem is a line item as extracted, monetary fields in minor units.
// Pointers distinguish "not extracted" from zero.
type RawLineItem struct {
	Description string   `json:"description"`
	Quantity    float64  `json:"quantity"`
	Subtotal    *int64   `json:"subtotal"`
	TaxRate     *float64 `json:"tax_rate"`
	Total       *int64   `json:"total"`
}

// ExtractedDocument is the parsed model output for one document.
// Monetary totals are integer minor units; nil means the model did not
// return the field.
type ExtractedDocument struct {
	DocumentType   string        `json:"document_type"`
	DocumentNumber string        `json:"document_number"`
	Date           string        `json:"date"`
	VendorName     string        `json:"vendor_name"`
	VendorTaxID    string        `json:"vendor_tax_id"`
	Currency       string        `json:"currency"`
	TotalAmount    *int64        `json:"total_amount"`
	Subtotal       *int64        `json:"subtotal"`
	TaxBands       []TaxBand     `json:"tax_bands"`
	LineItems      []RawLineItem `json:"line_items"`
}

// VATBucket holds the taxable base and tax amount for one canonical rate,
// in major currency units.
type VATBucket struct {
	Base   decimal.Decimal
	Amount decimal.Decimal
}

// MappedVAT is the per-rate IVA breakdown reconciled into the four
// canonical buckets. A nil bucket means no band mapped to that rate,
// which is distinct from an explicit zero.
type MappedVAT struct {
	Rate21 *VATBucket
	Rate10 *VATBucket
	Rate4  *VATBucket
	Rate0  *VATBucket
}

// LineItem is a normalized line item, monetary fields in major units
// rounded to 2 decimals.
type LineItem struct {
	Description string
	Quantity    float64
	UnitPrice   decimal.Decimal
	Subtotal    decimal.Decimal
	VATRate     decimal.Decimal
	VATAmount   decimal.Decimal
	Total       decimal.Decimal
}
