package validation

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// Limits bounds what the pipeline accepts before any bytes leave the
// service. Zero values fall back to the defaults applied by NewValidator.
type Limits struct {
	MaxFileSizeBytes int64
	MaxPDFPages      int
	MinPDFWidth      int // points
	MinPDFHeight     int
	MinImageWidth    int // pixels
	MinImageHeight   int
}

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
}

// Validator rejects files the extraction service would waste an upload
// on: unsupported formats, oversized payloads, encrypted or corrupt
// PDFs, and documents too small to read.
type Validator struct {
	limits Limits
	log    *slog.Logger
}

func NewValidator(limits Limits, log *slog.Logger) *Validator {
	if limits.MaxFileSizeBytes <= 0 {
		limits.MaxFileSizeBytes = 20 * 1024 * 1024
	}
	if limits.MaxPDFPages <= 0 {
		limits.MaxPDFPages = 50
	}
	if limits.MinPDFWidth <= 0 {
		limits.MinPDFWidth = 500
	}
	if limits.MinPDFHeight <= 0 {
		limits.MinPDFHeight = 500
	}
	if limits.MinImageWidth <= 0 {
		limits.MinImageWidth = 800
	}
	if limits.MinImageHeight <= 0 {
		limits.MinImageHeight = 600
	}
	return &Validator{limits: limits, log: log}
}

// Validate checks the submitted file against the configured limits and
// returns what it learned about it. Every rejection is terminal: the
// same bytes will never pass on a retry.
func (v *Validator) Validate(file expense.UploadedFile) (expense.FileInfo, error) {
	mimeType := normalizeMimeType(file.MimeType)
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffMimeType(file.Bytes)
	}

	if _, ok := allowedMimeTypes[mimeType]; !ok {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeInvalidFormat,
			fmt.Sprintf("unsupported file type %q", mimeType), nil)
	}

	size := file.SizeBytes
	if size == 0 {
		size = int64(len(file.Bytes))
	}
	if size > v.limits.MaxFileSizeBytes {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeFileTooLarge,
			fmt.Sprintf("file is %d bytes, limit is %d", size, v.limits.MaxFileSizeBytes), nil)
	}
	if len(file.Bytes) == 0 {
		return expense.FileInfo{}, expense.NewTerminal(expense.CodeCannotOpenFile, "file is empty", nil)
	}

	var info expense.FileInfo
	var err error
	if mimeType == "application/pdf" {
		info, err = v.validatePDF(file.Bytes)
	} else {
		info, err = v.validateImage(file.Bytes, mimeType)
	}
	if err != nil {
		v.log.Debug("File rejected",
			"mime_type", mimeType,
			"size_bytes", size,
			"error", err)
		return expense.FileInfo{}, err
	}

	info.MimeType = mimeType
	return info, nil
}

// normalizeMimeType drops parameters like "; charset=binary" that
// multipart clients sometimes attach.
func normalizeMimeType(mimeType string) string {
	mimeType = strings.TrimSpace(strings.ToLower(mimeType))
	if idx := strings.Index(mimeType, ";"); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}

func sniffMimeType(data []byte) string {
	return normalizeMimeType(http.DetectContentType(data))
}
