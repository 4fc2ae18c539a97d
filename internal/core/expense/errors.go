package expense

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a pipeline failure class. Codes are stable strings
// surfaced to callers in ExtractionResult.
type ErrorCode string

const (
	// File validation (terminal, raised before any network call).
	CodeInvalidFormat  ErrorCode = "INVALID_FORMAT"
	CodeFileTooLarge   ErrorCode = "FILE_TOO_LARGE"
	CodeFileEncrypted  ErrorCode = "FILE_ENCRYPTED"
	CodeTooManyPages   ErrorCode = "TOO_MANY_PAGES"
	CodeLowResolution  ErrorCode = "LOW_RESOLUTION"
	CodeMalformedFile  ErrorCode = "MALFORMED_FILE"
	CodeCannotOpenFile ErrorCode = "CANNOT_OPEN_FILE"

	// Document gateway.
	CodeUploadFailed            ErrorCode = "UPLOAD_FAILED"
	CodeRemoteProcessingFailed  ErrorCode = "REMOTE_PROCESSING_FAILED"
	CodeRemoteProcessingTimeout ErrorCode = "REMOTE_PROCESSING_TIMEOUT"
	CodeBadRequest              ErrorCode = "BAD_REQUEST"
	CodeAuthError               ErrorCode = "AUTH_ERROR"
	CodeHandleExpired           ErrorCode = "HANDLE_EXPIRED"
	CodeRateLimited             ErrorCode = "RATE_LIMITED"
	CodeServiceError            ErrorCode = "SERVICE_ERROR"

	// Resilience policy.
	CodeCircuitOpen ErrorCode = "CIRCUIT_OPEN"

	// Response parsing.
	CodeEmptyResponse     ErrorCode = "EMPTY_RESPONSE"
	CodeContentFiltered   ErrorCode = "CONTENT_FILTERED"
	CodeResponseTruncated ErrorCode = "RESPONSE_TRUNCATED"
	CodeMalformedJSON     ErrorCode = "MALFORMED_JSON"

	// Business validation (the only blocking business check).
	CodeMissingTotal ErrorCode = "MISSING_TOTAL"
)

// Business validation warning codes (non-blocking).
const (
	WarnVATTotalMismatch     = "VAT_TOTAL_MISMATCH"
	WarnLineItemsSumMismatch = "LINE_ITEMS_SUM_MISMATCH"
	WarnInvalidDate          = "INVALID_DATE"
	WarnUnknownCurrency      = "UNKNOWN_CURRENCY"
)

// ExtractionError is the pipeline's error type. Retryable marks failures
// the resilience policy may retry; everything else aborts the request.
type ExtractionError struct {
	Code      ErrorCode
	Message   string
	Retryable bool
	Err       error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewTerminal builds a non-retryable ExtractionError.
func NewTerminal(code ErrorCode, message string, err error) *ExtractionError {
	return &ExtractionError{Code: code, Message: message, Err: err}
}

// NewRetryable builds a retryable ExtractionError.
func NewRetryable(code ErrorCode, message string, err error) *ExtractionError {
	return &ExtractionError{Code: code, Message: message, Retryable: true, Err: err}
}

// IsRetryable reports whether err is an ExtractionError marked retryable.
// Unknown error types are treated as terminal.
func IsRetryable(err error) bool {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Retryable
	}
	return false
}

// CodeOf returns the ErrorCode carried by err, or empty when err is not
// an ExtractionError.
func CodeOf(err error) ErrorCode {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ""
}
