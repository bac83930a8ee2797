package services

import (
	"errors"
	"regexp"
	"strings"
)

var ErrNoJSONObject = errors.New("no JSON object found in LLM output")

var (
	thinkBlockRe    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	markdownFenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?\\s*```")
)

// ExtractJSON cleans raw model output and returns the outermost JSON object in it.
func ExtractJSON(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrNoJSONObject
	}
	cleaned := StripMarkdownFences(StripThinkingBlocks(raw))
	return ExtractOutermostJSONObject(cleaned)
}

// StripThinkingBlocks removes <think>...</think> reasoning sections.
func StripThinkingBlocks(s string) string {
	return strings.TrimSpace(thinkBlockRe.ReplaceAllString(s, ""))
}

// StripMarkdownFences unwraps ```json fenced blocks, keeping their contents.
func StripMarkdownFences(s string) string {
	return strings.TrimSpace(markdownFenceRe.ReplaceAllString(s, "$1"))
}

// ExtractOutermostJSONObject returns the first brace-balanced object, ignoring braces
// inside string literals.
func ExtractOutermostJSONObject(s string) (string, error) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONObject
}
