package extraction

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	appextraction "3tcapital/ms_extraccion_gastos/internal/application/extraction"
	"3tcapital/ms_extraccion_gastos/internal/core/expense"
	httperrors "3tcapital/ms_extraccion_gastos/internal/infrastructure/http"
)

// Extractor is the application service surface the handler depends on.
type Extractor interface {
	Extract(ctx context.Context, file expense.UploadedFile, docType expense.DocumentType) *appextraction.ExtractionResult
}

// Handler bridges HTTP traffic with the extraction application service.
type Handler struct {
	service        Extractor
	maxUploadBytes int64
	log            *slog.Logger
}

// NewHandler creates a new extraction HTTP handler. maxUploadBytes caps
// the multipart body before any of it is buffered.
func NewHandler(service Extractor, maxUploadBytes int64, log *slog.Logger) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 20 * 1024 * 1024
	}
	return &Handler{
		service:        service,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// ExtractDocument handles POST /api/documentos/extraer requests. The
// multipart form carries the document under "adjunto" ("file" is also
// accepted) and an optional "tipo" hint: auto, factura or ticket.
func (h *Handler) ExtractDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httperrors.WriteError(w, http.StatusMethodNotAllowed, "Método no permitido", []string{"Este endpoint solo acepta POST"}, h.log)
		return
	}

	// Leave headroom over the file limit for the multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httperrors.WriteError(w, http.StatusRequestEntityTooLarge, "Archivo demasiado grande", []string{"El archivo supera el tamaño máximo permitido"}, h.log)
			return
		}
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"La petición debe ser multipart/form-data"}, h.log)
		return
	}

	docType, err := expense.ParseDocumentType(r.FormValue("tipo"))
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"tipo debe ser auto, factura o ticket"}, h.log)
		return
	}

	part, header, err := r.FormFile("adjunto")
	if err != nil {
		part, header, err = r.FormFile("file")
	}
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"El campo adjunto es requerido"}, h.log)
		return
	}
	defer part.Close()

	data, err := io.ReadAll(part)
	if err != nil {
		httperrors.WriteError(w, http.StatusBadRequest, "Error de Validación", []string{"No se pudo leer el archivo adjunto"}, h.log)
		return
	}

	file := expense.UploadedFile{
		Bytes:        data,
		MimeType:     header.Header.Get("Content-Type"),
		SizeBytes:    header.Size,
		OriginalName: header.Filename,
	}

	result := h.service.Extract(r.Context(), file, docType)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(result))
	if err := json.NewEncoder(w).Encode(result); err != nil {
		h.log.Error("failed to encode extraction response", "error", err)
	}
}

// statusFor maps a finished result to an HTTP status. Failures caused by
// the submitted document are 4xx; upstream trouble is 5xx.
func statusFor(result *appextraction.ExtractionResult) int {
	if result.Success {
		return http.StatusOK
	}
	if len(result.Errors) == 0 {
		return http.StatusBadGateway
	}

	switch expense.ErrorCode(result.Errors[0]) {
	case expense.CodeInvalidFormat,
		expense.CodeFileTooLarge,
		expense.CodeFileEncrypted,
		expense.CodeTooManyPages,
		expense.CodeLowResolution,
		expense.CodeMalformedFile,
		expense.CodeCannotOpenFile,
		expense.CodeMissingTotal:
		return http.StatusUnprocessableEntity
	case expense.CodeCircuitOpen:
		return http.StatusServiceUnavailable
	case expense.CodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}
