package security

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

const redactedValue = "[REDACTED]"

var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"x-goog-api-key":      true,
	"proxy-authorization": true,
}

// Field name fragments that mark a JSON field or query parameter as
// sensitive. Matching is substring-based on the lowercased name.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"key",
	"authorization",
	"credential",
	"auth",
}

// SanitizeHeaders returns a loggable copy of headers with sensitive values
// redacted and multi-value headers joined.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
		} else {
			sanitized[key] = strings.Join(values, ", ")
		}
	}
	return sanitized
}

// SanitizeBody prepares a request or response body for logging: JSON gets
// its sensitive fields redacted, binary payloads (document uploads,
// compressed responses that fail to inflate) are summarized as base64 with
// their size, and oversized bodies are truncated to a preview.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	// gzip magic number
	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return wrapBinary(body, "gzip-compressed (decompression failed)")
		}
		body = decompressed
	}

	if !utf8.Valid(body) {
		return wrapBinary(body, "binary (non-UTF8)")
	}

	if maxSize > 0 && len(body) > maxSize {
		return mustMarshal(map[string]interface{}{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return wrapText(body)
	}

	result, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return wrapText(body)
	}
	return json.RawMessage(result)
}

// SanitizeURL redacts the values of sensitive query parameters. URLs that
// fail to parse are returned unchanged rather than leaked partially
// redacted.
func SanitizeURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := u.Query()
	changed := false
	for param := range query {
		if isSensitiveName(param) {
			query.Set(param, redactedValue)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}

	u.RawQuery = query.Encode()
	return u.String()
}

func isSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, fragment := range sensitiveFields {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func sanitizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		sanitized := make(map[string]interface{}, len(val))
		for key, value := range val {
			if isSensitiveName(key) {
				sanitized[key] = redactedValue
			} else {
				sanitized[key] = sanitizeValue(value)
			}
		}
		return sanitized
	case []interface{}:
		sanitized := make([]interface{}, len(val))
		for i, value := range val {
			sanitized[i] = sanitizeValue(value)
		}
		return sanitized
	default:
		return val
	}
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func wrapBinary(data []byte, format string) json.RawMessage {
	return mustMarshal(map[string]interface{}{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
		"_base64": base64.StdEncoding.EncodeToString(data),
	})
}

func wrapText(body []byte) json.RawMessage {
	return mustMarshal(map[string]interface{}{
		"_raw":    string(body),
		"_format": "text",
	})
}

func mustMarshal(v map[string]interface{}) json.RawMessage {
	result, _ := json.Marshal(v)
	return json.RawMessage(result)
}
