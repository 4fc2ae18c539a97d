package gemini

import (
	"encoding/json"
	"fmt"
	"strings"

	"3tcapital/ms_extraccion_gastos/internal/core/expense"
)

// ParseResponse turns a raw model response into an ExtractedDocument.
//
// Safety/recitation refusals are terminal: retrying the same input will
// not change the model's mind. Truncation and malformed JSON are
// retryable: the caller's retry requests a fresh generation rather than
// re-parsing the same text.
func ParseResponse(raw expense.RawModelResponse) (*expense.ExtractedDocument, error) {
	if len(raw.Candidates) == 0 {
		return nil, expense.NewTerminal(expense.CodeEmptyResponse, "model returned no candidates", nil)
	}

	candidate := raw.Candidates[0]
	switch candidate.FinishReason {
	case "SAFETY", "RECITATION":
		return nil, expense.NewTerminal(expense.CodeContentFiltered,
			fmt.Sprintf("generation stopped: %s", candidate.FinishReason), nil)
	case "MAX_TOKENS":
		return nil, expense.NewRetryable(expense.CodeResponseTruncated, "generation hit the token limit", nil)
	}

	text := stripFences(candidate.Text)
	if text == "" {
		return nil, expense.NewTerminal(expense.CodeEmptyResponse, "model returned an empty payload", nil)
	}

	var doc expense.ExtractedDocument
	if err := json.Unmarshal([]byte(text), &doc); err == nil {
		return &doc, nil
	}

	// One deterministic repair pass, then give up on this generation.
	repaired := RepairJSON(text)
	if err := json.Unmarshal([]byte(repaired), &doc); err != nil {
		return nil, expense.NewRetryable(expense.CodeMalformedJSON, "model payload is not valid JSON", err)
	}
	return &doc, nil
}

// stripFences removes a markdown code fence the model sometimes wraps
// around its JSON despite the response mime type constraint.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
