package extraction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// ParseFunc turns a raw model response into an extracted document.
type ParseFunc func(raw expense.RawModelResponse) (*expense.ExtractedDocument, error)

// Service runs the extraction pipeline: validate the file, push it to
// the document gateway, extract and parse the model response, then map
// VAT, normalize line items and apply business validation. The whole
// remote leg runs under the retry policy as one unit so a retry gets a
// fresh generation rather than a re-parse of the same text.
type Service struct {
	gateway        expense.DocumentGateway
	validator      expense.FileValidator
	parse          ParseFunc
	retry          *RetryPolicy
	model          string
	cleanupTimeout time.Duration
	log            *slog.Logger
}

func NewService(gateway expense.DocumentGateway, validator expense.FileValidator, parse ParseFunc, retry *RetryPolicy, model string, log *slog.Logger) *Service {
	return &Service{
		gateway:        gateway,
		validator:      validator,
		parse:          parse,
		retry:          retry,
		model:          model,
		cleanupTimeout: 10 * time.Second,
		log:            log,
	}
}

// Extract processes one uploaded file end to end and always returns a
// result, never a bare error: failures are folded into the envelope so
// the transport layer only has to map codes to statuses.
func (s *Service) Extract(ctx context.Context, file expense.UploadedFile, docType expense.DocumentType) *ExtractionResult {
	start := time.Now()

	result := &ExtractionResult{
		ID: uuid.NewString(),
		Metadata: ResultMetadata{
			Model:         s.model,
			FileSizeBytes: file.SizeBytes,
			MimeType:      file.MimeType,
		},
	}
	if result.Metadata.FileSizeBytes == 0 {
		result.Metadata.FileSizeBytes = int64(len(file.Bytes))
	}

	info, err := s.validator.Validate(file)
	if err != nil {
		s.log.Warn("File validation rejected upload",
			"original_name", file.OriginalName,
			"error", err)
		return s.fail(result, start, err)
	}
	result.Metadata.MimeType = info.MimeType

	var handle *expense.RemoteFileHandle
	var doc *expense.ExtractedDocument

	attempts, err := s.retry.Do(ctx, func(ctx context.Context) error {
		if handle == nil {
			uploaded, err := s.gateway.Upload(ctx, file)
			if err != nil {
				return err
			}
			handle = &uploaded
		}
		if handle.State != expense.RemoteFileActive {
			active, err := s.gateway.AwaitActive(ctx, *handle)
			if err != nil {
				return err
			}
			handle = &active
		}

		raw, err := s.gateway.Extract(ctx, *handle, docType)
		if err != nil {
			if expense.CodeOf(err) == expense.CodeHandleExpired {
				// The remote file is gone; the next attempt re-uploads.
				handle = nil
			}
			return err
		}

		doc, err = s.parse(raw)
		return err
	})
	result.Metadata.Attempts = attempts
	if handle != nil {
		result.Metadata.RemoteFile = handle.Name
		s.cleanup(*handle)
	}
	if err != nil {
		s.log.Error("Extraction failed",
			"extraction_id", result.ID,
			"original_name", file.OriginalName,
			"document_type", docType,
			"attempts", attempts,
			"error", err)
		return s.fail(result, start, err)
	}

	vat := expense.MapVATBreakdown(doc.TaxBands)
	items := make([]expense.LineItem, 0, len(doc.LineItems))
	for _, raw := range doc.LineItems {
		items = append(items, expense.NormalizeLineItem(raw))
	}

	report := expense.ValidateBusiness(*doc, vat, items)
	result.Data = buildExpenseData(doc, vat, items)
	result.Warnings = report.Warnings
	result.Errors = report.Errors
	result.Success = len(report.Errors) == 0
	result.DurationMs = time.Since(start).Milliseconds()

	s.log.Info("Extraction completed",
		"extraction_id", result.ID,
		"original_name", file.OriginalName,
		"document_type", result.Data.DocumentType,
		"success", result.Success,
		"warnings", len(result.Warnings),
		"attempts", attempts,
		"duration_ms", result.DurationMs)
	return result
}

func (s *Service) fail(result *ExtractionResult, start time.Time, err error) *ExtractionResult {
	result.Success = false
	result.Error = err.Error()
	if code := expense.CodeOf(err); code != "" {
		result.Errors = append(result.Errors, string(code))
	}
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// cleanup deletes the remote file without holding up the response. The
// request context may already be done, so the delete gets its own.
func (s *Service) cleanup(handle expense.RemoteFileHandle) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.cleanupTimeout)
		defer cancel()
		if err := s.gateway.Delete(ctx, handle); err != nil {
			s.log.Warn("Failed to delete remote file", "name", handle.Name, "error", err)
		}
	}()
}
