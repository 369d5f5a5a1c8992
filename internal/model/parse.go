package model

import (
	"encoding/json"
	"strings"

	scerrors "smartcommit/internal/errors"
)

// ExtractJSON pulls a JSON object or array out of a model completion,
// tolerating markdown code fences and surrounding prose. Returns the raw
// JSON text, or "" when none is found.
func ExtractJSON(text string) string {
	if fenced := extractFenced(text); fenced != "" {
		text = fenced
	}
	start := strings.IndexAny(text, "{[")
	if start == -1 {
		return ""
	}
	open := text[start]
	var close byte = '}'
	if open == '[' {
		close = ']'
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\':
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == open:
			depth++
		case ch == close:
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// extractFenced returns the contents of the first ```json (or bare ```)
// block, or "".
func extractFenced(s string) string {
	start := strings.Index(s, "```")
	if start == -1 {
		return ""
	}
	nl := strings.Index(s[start:], "\n")
	if nl == -1 {
		return ""
	}
	body := s[start+nl+1:]
	end := strings.Index(body, "```")
	if end == -1 {
		return ""
	}
	return strings.TrimSpace(body[:end])
}

// Unmarshal extracts and decodes JSON from a completion into v; any failure
// is a malformed-output model error so the caller's retry/fallback logic
// classifies it correctly.
func Unmarshal(text string, v any) error {
	raw := ExtractJSON(text)
	if raw == "" {
		return scerrors.NewMalformed("no JSON found in model output")
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return scerrors.NewModelError(scerrors.ModelMalformed, err)
	}
	return nil
}
