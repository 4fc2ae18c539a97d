package extraction

import (
	"context"
	"sync"
	"testing"
	"time"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
	"3tcapital/ms_extraccion_gastos/internal/testutil"
)

type fakeValidator struct {
	info expense.FileInfo
	err  error
}

func (f *fakeValidator) Validate(file expense.UploadedFile) (expense.FileInfo, error) {
	if f.err != nil {
		return expense.FileInfo{}, f.err
	}
	return f.info, nil
}

type fakeGateway struct {
	mu       sync.Mutex
	uploads  int
	awaits   int
	extracts int
	deleted  chan expense.RemoteFileHandle

	uploadErr  error
	awaitErr   error
	extractFn  func(call int) (expense.RawModelResponse, error)
	uploadedAs expense.RemoteFileState
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		deleted:    make(chan expense.RemoteFileHandle, 1),
		uploadedAs: expense.RemoteFileProcessing,
	}
}

func (f *fakeGateway) Upload(ctx context.Context, file expense.UploadedFile) (expense.RemoteFileHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	if f.uploadErr != nil {
		return expense.RemoteFileHandle{}, f.uploadErr
	}
	return expense.RemoteFileHandle{
		Name:     "files/test",
		URI:      "https://example.com/files/test",
		MimeType: file.MimeType,
		State:    f.uploadedAs,
	}, nil
}

func (f *fakeGateway) AwaitActive(ctx context.Context, handle expense.RemoteFileHandle) (expense.RemoteFileHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awaits++
	if f.awaitErr != nil {
		return expense.RemoteFileHandle{}, f.awaitErr
	}
	handle.State = expense.RemoteFileActive
	return handle, nil
}

func (f *fakeGateway) Extract(ctx context.Context, handle expense.RemoteFileHandle, docType expense.DocumentType) (expense.RawModelResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.extracts++
	if f.extractFn != nil {
		return f.extractFn(f.extracts)
	}
	return expense.RawModelResponse{
		Candidates: []expense.ResponseCandidate{{FinishReason: "STOP", Text: "ok"}},
	}, nil
}

func (f *fakeGateway) Delete(ctx context.Context, handle expense.RemoteFileHandle) error {
	select {
	case f.deleted <- handle:
	default:
	}
	return nil
}

func validDocument() *expense.ExtractedDocument {
	total := int64(12100)
	subtotal := int64(10000)
	return &expense.ExtractedDocument{
		DocumentType:   "invoice",
		DocumentNumber: "A-2025-0042",
		Date:           "2025-03-14",
		VendorName:     "Ferreteria Lopez S.L.",
		VendorTaxID:    "B12345678",
		Currency:       "EUR",
		TotalAmount:    &total,
		Subtotal:       &subtotal,
		TaxBands:       []expense.TaxBand{{Rate: 21, Base: 10000, Amount: 2100}},
	}
}

func newTestService(gateway expense.DocumentGateway, validator expense.FileValidator, parse ParseFunc) *Service {
	retry := NewRetryPolicy(3, time.Second, testutil.NewNullLogger())
	retry.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return NewService(gateway, validator, parse, retry, "gemini-2.5-flash", testutil.NewNullLogger())
}

func parseFixed(doc *expense.ExtractedDocument, err error) ParseFunc {
	return func(raw expense.RawModelResponse) (*expense.ExtractedDocument, error) {
		return doc, err
	}
}

func pdfUpload() expense.UploadedFile {
	return expense.UploadedFile{
		Bytes:        []byte("%PDF-1.4"),
		MimeType:     "application/pdf",
		SizeBytes:    8,
		OriginalName: "factura.pdf",
	}
}

func TestService_Extract(t *testing.T) {
	gateway := newFakeGateway()
	validator := &fakeValidator{info: expense.FileInfo{MimeType: "application/pdf", Pages: 1}}
	svc := newTestService(gateway, validator, parseFixed(validDocument(), nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeInvoice)
	if !result.Success {
		t.Fatalf("expected success, got error %q, errors %v", result.Error, result.Errors)
	}
	if result.Data == nil {
		t.Fatal("expected data")
	}
	if result.Data.TotalAmount == nil || *result.Data.TotalAmount != 121 {
		t.Errorf("total amount = %v, want 121", result.Data.TotalAmount)
	}
	if result.Data.VAT21Base == nil || *result.Data.VAT21Base != 100 {
		t.Errorf("vat21 base = %v, want 100", result.Data.VAT21Base)
	}
	if result.Data.Counterparty.TaxID != "B12345678" {
		t.Errorf("tax id = %q", result.Data.Counterparty.TaxID)
	}
	if result.Metadata.Attempts != 1 {
		t.Errorf("attempts = %d", result.Metadata.Attempts)
	}
	if result.Metadata.RemoteFile != "files/test" {
		t.Errorf("remote file = %q", result.Metadata.RemoteFile)
	}
	if gateway.uploads != 1 || gateway.awaits != 1 || gateway.extracts != 1 {
		t.Errorf("gateway calls = %d/%d/%d", gateway.uploads, gateway.awaits, gateway.extracts)
	}

	select {
	case handle := <-gateway.deleted:
		if handle.Name != "files/test" {
			t.Errorf("deleted handle = %q", handle.Name)
		}
	case <-time.After(time.Second):
		t.Error("remote file was never cleaned up")
	}
}

func TestService_ValidationFailureSkipsUpload(t *testing.T) {
	gateway := newFakeGateway()
	validator := &fakeValidator{err: expense.NewTerminal(expense.CodeLowResolution, "too small", nil)}
	svc := newTestService(gateway, validator, parseFixed(validDocument(), nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeAuto)
	if result.Success {
		t.Fatal("expected failure")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "LOW_RESOLUTION" {
		t.Errorf("errors = %v", result.Errors)
	}
	if gateway.uploads != 0 {
		t.Errorf("rejected file must not be uploaded, uploads = %d", gateway.uploads)
	}
}

func TestService_ExpiredHandleTriggersReupload(t *testing.T) {
	gateway := newFakeGateway()
	gateway.extractFn = func(call int) (expense.RawModelResponse, error) {
		if call == 1 {
			return expense.RawModelResponse{}, expense.NewRetryable(expense.CodeHandleExpired, "file gone", nil)
		}
		return expense.RawModelResponse{
			Candidates: []expense.ResponseCandidate{{FinishReason: "STOP", Text: "ok"}},
		}, nil
	}
	validator := &fakeValidator{info: expense.FileInfo{MimeType: "application/pdf"}}
	svc := newTestService(gateway, validator, parseFixed(validDocument(), nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeInvoice)
	if !result.Success {
		t.Fatalf("expected recovery, got %q", result.Error)
	}
	if gateway.uploads != 2 {
		t.Errorf("uploads = %d, want re-upload after expired handle", gateway.uploads)
	}
	if result.Metadata.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", result.Metadata.Attempts)
	}
}

func TestService_ActiveUploadSkipsPolling(t *testing.T) {
	gateway := newFakeGateway()
	gateway.uploadedAs = expense.RemoteFileActive
	validator := &fakeValidator{info: expense.FileInfo{MimeType: "application/pdf"}}
	svc := newTestService(gateway, validator, parseFixed(validDocument(), nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeInvoice)
	if !result.Success {
		t.Fatalf("expected success, got %q", result.Error)
	}
	if gateway.awaits != 0 {
		t.Errorf("awaits = %d, want 0 for an already active file", gateway.awaits)
	}
}

func TestService_TerminalUploadFailure(t *testing.T) {
	gateway := newFakeGateway()
	gateway.uploadErr = expense.NewTerminal(expense.CodeAuthError, "bad key", nil)
	validator := &fakeValidator{info: expense.FileInfo{MimeType: "application/pdf"}}
	svc := newTestService(gateway, validator, parseFixed(validDocument(), nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeInvoice)
	if result.Success {
		t.Fatal("expected failure")
	}
	if gateway.uploads != 1 {
		t.Errorf("terminal failure must not retry, uploads = %d", gateway.uploads)
	}
	if len(result.Errors) != 1 || result.Errors[0] != "AUTH_ERROR" {
		t.Errorf("errors = %v", result.Errors)
	}
}

func TestService_MissingTotalBlocksResult(t *testing.T) {
	doc := validDocument()
	doc.TotalAmount = nil
	gateway := newFakeGateway()
	validator := &fakeValidator{info: expense.FileInfo{MimeType: "application/pdf"}}
	svc := newTestService(gateway, validator, parseFixed(doc, nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeInvoice)
	if result.Success {
		t.Fatal("expected business validation to block")
	}
	if len(result.Errors) != 1 || result.Errors[0] != "MISSING_TOTAL" {
		t.Errorf("errors = %v", result.Errors)
	}
	if result.Data == nil {
		t.Error("partial data should still be returned for inspection")
	}
}

func TestService_WarningsDoNotBlock(t *testing.T) {
	doc := validDocument()
	doc.Date = "marzo de 2025"
	gateway := newFakeGateway()
	validator := &fakeValidator{info: expense.FileInfo{MimeType: "application/pdf"}}
	svc := newTestService(gateway, validator, parseFixed(doc, nil))

	result := svc.Extract(context.Background(), pdfUpload(), expense.DocumentTypeInvoice)
	if !result.Success {
		t.Fatalf("warnings must not fail the extraction, got %v", result.Errors)
	}
	if len(result.Warnings) == 0 {
		t.Error("expected an INVALID_DATE warning")
	}
}
