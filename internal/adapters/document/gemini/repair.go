package gemini

import (
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([}\]])`)

// RepairJSON applies one deterministic repair pass to a payload that
// failed to parse. It is deliberately not a general JSON fixer: it only
// targets the malformed patterns this model is known to produce.
//
//   - trailing commas before a closing brace or bracket
//   - double-escaped quotes (\\" where \" was meant)
//   - a truncated payload missing its closing braces
func RepairJSON(text string) string {
	repaired := trailingComma.ReplaceAllString(text, "$1")
	repaired = strings.ReplaceAll(repaired, `\\"`, `\"`)

	if missing := openBraces(repaired); missing > 0 {
		repaired += strings.Repeat("}", missing)
	}
	return repaired
}

// openBraces counts braces opened but never closed, ignoring anything
// inside string literals.
func openBraces(text string) int {
	depth := 0
	inString := false
	escaped := false

	for _, r := range text {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString && depth > 0 {
				depth--
			}
		}
	}
	return depth
}
