package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// HTTPClient abstracts the HTTP transport so tests can point the client
// at an httptest server.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the document-service connection settings. Zero values
// fall back to the defaults applied by NewClient.
type Config struct {
	BaseURL         string
	APIKey          string
	Model           string
	PollInterval    time.Duration
	PollMaxAttempts int
}

// Client drives the Gemini file and generation APIs: resumable upload,
// readiness polling, schema-constrained extraction and file deletion.
// All network operations except Delete run through the shared circuit
// breaker; Delete is best-effort cleanup and must work (or fail silently)
// even while the circuit is open.
type Client struct {
	baseURL         string
	apiKey          string
	model           string
	pollInterval    time.Duration
	pollMaxAttempts int
	httpClient      HTTPClient
	breaker         *CircuitBreaker
	log             *slog.Logger
	sleep           func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Gemini document gateway.
func NewClient(cfg Config, httpClient HTTPClient, breaker *CircuitBreaker, log *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com"
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.PollMaxAttempts <= 0 {
		cfg.PollMaxAttempts = 10
	}

	return &Client{
		baseURL:         cfg.BaseURL,
		apiKey:          cfg.APIKey,
		model:           cfg.Model,
		pollInterval:    cfg.PollInterval,
		pollMaxAttempts: cfg.PollMaxAttempts,
		httpClient:      httpClient,
		breaker:         breaker,
		log:             log,
		sleep:           sleepContext,
	}
}

// Model returns the configured model identifier, used for result metadata.
func (c *Client) Model() string {
	return c.model
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// wire shapes of the files API.
type remoteFilePayload struct {
	Name     string `json:"name"`
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	State    string `json:"state"`
}

func (p remoteFilePayload) handle() expense.RemoteFileHandle {
	return expense.RemoteFileHandle{
		Name:     p.Name,
		URI:      p.URI,
		MimeType: p.MimeType,
		State:    expense.RemoteFileState(p.State),
	}
}

// Upload pushes the file to the remote service with the two-phase
// resumable protocol: start a session declaring length and mime type,
// then transfer the payload to the session endpoint and finalize.
func (c *Client) Upload(ctx context.Context, file expense.UploadedFile) (expense.RemoteFileHandle, error) {
	sessionURL, err := c.startUploadSession(ctx, file)
	if err != nil {
		return expense.RemoteFileHandle{}, err
	}

	handle, err := c.transferAndFinalize(ctx, sessionURL, file)
	if err != nil {
		return expense.RemoteFileHandle{}, err
	}

	c.log.Debug("Remote file uploaded",
		"name", handle.Name,
		"state", handle.State,
		"size_bytes", len(file.Bytes))
	return handle, nil
}

func (c *Client) startUploadSession(ctx context.Context, file expense.UploadedFile) (string, error) {
	body, err := json.Marshal(map[string]any{
		"file": map[string]any{"display_name": file.OriginalName},
	})
	if err != nil {
		return "", fmt.Errorf("marshal upload session request: %w", err)
	}

	url := fmt.Sprintf("%s/upload/v1beta/files", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create upload session request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("X-Goog-Upload-Protocol", "resumable")
	req.Header.Set("X-Goog-Upload-Command", "start")
	req.Header.Set("X-Goog-Upload-Header-Content-Length", strconv.Itoa(len(file.Bytes)))
	req.Header.Set("X-Goog-Upload-Header-Content-Type", file.MimeType)

	var sessionURL string
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return expense.NewRetryable(expense.CodeUploadFailed, "upload session request failed", err)
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return uploadStatusError(resp.StatusCode, "upload session rejected")
		}
		sessionURL = resp.Header.Get("X-Goog-Upload-URL")
		if sessionURL == "" {
			return expense.NewTerminal(expense.CodeUploadFailed, "upload session response missing session URL", nil)
		}
		return nil
	})
	if err != nil {
		c.log.Warn("Failed to start upload session", "error", err)
		return "", err
	}
	return sessionURL, nil
}

func (c *Client) transferAndFinalize(ctx context.Context, sessionURL string, file expense.UploadedFile) (expense.RemoteFileHandle, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sessionURL, bytes.NewReader(file.Bytes))
	if err != nil {
		return expense.RemoteFileHandle{}, fmt.Errorf("create upload transfer request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("X-Goog-Upload-Command", "upload, finalize")
	req.Header.Set("X-Goog-Upload-Offset", "0")
	req.ContentLength = int64(len(file.Bytes))

	var handle expense.RemoteFileHandle
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return expense.NewRetryable(expense.CodeUploadFailed, "upload transfer failed", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return expense.NewRetryable(expense.CodeUploadFailed, "read upload response", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return uploadStatusError(resp.StatusCode, "upload finalize rejected")
		}

		var payload struct {
			File remoteFilePayload `json:"file"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return expense.NewTerminal(expense.CodeUploadFailed, "decode upload response", err)
		}
		if payload.File.Name == "" {
			return expense.NewTerminal(expense.CodeUploadFailed, "upload response missing file name", nil)
		}
		handle = payload.File.handle()
		return nil
	})
	if err != nil {
		c.log.Warn("Failed to transfer file payload", "error", err)
		return expense.RemoteFileHandle{}, err
	}
	return handle, nil
}

// AwaitActive polls the file status endpoint at a fixed interval until
// the remote file becomes Active, fails, or the configured attempts run out.
// The poll sleep honors ctx so a caller deadline aborts the loop.
func (c *Client) AwaitActive(ctx context.Context, handle expense.RemoteFileHandle) (expense.RemoteFileHandle, error) {
	for attempt := 1; attempt <= c.pollMaxAttempts; attempt++ {
		current, err := c.getFile(ctx, handle)
		if err != nil {
			return expense.RemoteFileHandle{}, err
		}

		switch current.State {
		case expense.RemoteFileActive:
			c.log.Debug("Remote file active", "name", current.Name, "attempts", attempt)
			return current, nil
		case expense.RemoteFileFailed:
			return expense.RemoteFileHandle{}, expense.NewTerminal(expense.CodeRemoteProcessingFailed,
				fmt.Sprintf("remote processing failed for %s", current.Name), nil)
		}

		if attempt < c.pollMaxAttempts {
			if err := c.sleep(ctx, c.pollInterval); err != nil {
				return expense.RemoteFileHandle{}, fmt.Errorf("context cancelled while polling: %w", err)
			}
		}
	}

	return expense.RemoteFileHandle{}, expense.NewRetryable(expense.CodeRemoteProcessingTimeout,
		fmt.Sprintf("remote file not active after %d attempts", c.pollMaxAttempts), nil)
}

func (c *Client) getFile(ctx context.Context, handle expense.RemoteFileHandle) (expense.RemoteFileHandle, error) {
	url := fmt.Sprintf("%s/v1beta/%s", c.baseURL, handle.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return expense.RemoteFileHandle{}, fmt.Errorf("create file status request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	var current expense.RemoteFileHandle
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return expense.NewRetryable(expense.CodeServiceError, "file status request failed", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return expense.NewRetryable(expense.CodeServiceError, "read file status response", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return statusError(resp.StatusCode, "file status")
		}

		var payload remoteFilePayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return expense.NewRetryable(expense.CodeServiceError, "decode file status response", err)
		}
		current = payload.handle()
		if current.MimeType == "" {
			current.MimeType = handle.MimeType
		}
		return nil
	})
	if err != nil {
		return expense.RemoteFileHandle{}, err
	}
	return current, nil
}

// Extract submits the schema-constrained generation request for the
// uploaded file, with the prompt variant for docType.
func (c *Client) Extract(ctx context.Context, handle expense.RemoteFileHandle, docType expense.DocumentType) (expense.RawModelResponse, error) {
	variant := variantFor(docType)

	body, err := json.Marshal(map[string]any{
		"contents": []map[string]any{{
			"parts": []map[string]any{
				{"file_data": map[string]any{
					"file_uri":  handle.URI,
					"mime_type": handle.MimeType,
				}},
				{"text": variant.prompt},
			},
		}},
		"generationConfig": map[string]any{
			"response_mime_type": "application/json",
			"response_schema":    variant.schema,
			"temperature":        0,
		},
	})
	if err != nil {
		return expense.RawModelResponse{}, fmt.Errorf("marshal generation request: %w", err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return expense.RawModelResponse{}, fmt.Errorf("create generation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	var raw expense.RawModelResponse
	err = c.breaker.Execute(ctx, func() error {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return expense.NewRetryable(expense.CodeServiceError, "generation request failed", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return expense.NewRetryable(expense.CodeServiceError, "read generation response", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return statusError(resp.StatusCode, "generation")
		}

		var payload struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
				FinishReason string `json:"finishReason"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return expense.NewRetryable(expense.CodeServiceError, "decode generation response", err)
		}

		raw = expense.RawModelResponse{}
		for _, cand := range payload.Candidates {
			var text bytes.Buffer
			for _, part := range cand.Content.Parts {
				text.WriteString(part.Text)
			}
			raw.Candidates = append(raw.Candidates, expense.ResponseCandidate{
				FinishReason: cand.FinishReason,
				Text:         text.String(),
			})
		}
		return nil
	})
	if err != nil {
		c.log.Warn("Generation request failed", "error", err, "document_type", docType)
		return expense.RawModelResponse{}, err
	}

	c.log.Debug("Generation request completed",
		"document_type", docType,
		"api_latency_ms", time.Since(start).Milliseconds(),
		"candidates", len(raw.Candidates))
	return raw, nil
}

// Delete removes the remote file. It bypasses the circuit breaker on
// purpose: cleanup is best-effort and must still be attempted while the
// circuit is open, and its failures must not count against the breaker.
func (c *Client) Delete(ctx context.Context, handle expense.RemoteFileHandle) error {
	if handle.Name == "" {
		return nil
	}

	url := fmt.Sprintf("%s/v1beta/%s", c.baseURL, handle.Name)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create delete request: %w", err)
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("delete remote file: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete remote file: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// statusError maps a non-success generation/status response to the
// pipeline taxonomy: 400 terminal, 401/403 terminal auth, 404 retryable
// handle-expired (caller re-uploads), 429 and 5xx retryable.
func statusError(status int, operation string) *expense.ExtractionError {
	msg := fmt.Sprintf("%s returned status %d", operation, status)
	switch {
	case status == http.StatusBadRequest:
		return expense.NewTerminal(expense.CodeBadRequest, msg, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return expense.NewTerminal(expense.CodeAuthError, msg, nil)
	case status == http.StatusNotFound:
		return expense.NewRetryable(expense.CodeHandleExpired, msg, nil)
	case status == http.StatusTooManyRequests:
		return expense.NewRetryable(expense.CodeRateLimited, msg, nil)
	case status >= 500:
		return expense.NewRetryable(expense.CodeServiceError, msg, nil)
	default:
		return expense.NewTerminal(expense.CodeServiceError, msg, nil)
	}
}

// uploadStatusError is the upload-phase variant: every failure carries
// UPLOAD_FAILED, retryable only for 5xx and 429.
func uploadStatusError(status int, message string) *expense.ExtractionError {
	msg := fmt.Sprintf("%s: status %d", message, status)
	if status >= 500 || status == http.StatusTooManyRequests {
		return expense.NewRetryable(expense.CodeUploadFailed, msg, nil)
	}
	return expense.NewTerminal(expense.CodeUploadFailed, msg, nil)
}
