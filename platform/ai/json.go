package ai

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrMalformedJSON is returned when no decoding stage yields valid JSON.
var ErrMalformedJSON = errors.New("model output is not valid JSON")

var codeFencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)\\s*```")

var smartQuotes = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`, "«", `"`, "»", `"`,
	"‘", "'", "’", "'",
)

// DecodeLenient decodes model output into v, escalating through progressively
// more forgiving repairs: strict, then cleaned (code fences, smart quotes,
// trailing commas), then single quotes coerced to double, then the first
// balanced object or array in the text.
func DecodeLenient(raw string, v any) error {
	text := strings.TrimSpace(raw)
	if text == "" {
		return ErrMalformedJSON
	}
	if json.Unmarshal([]byte(text), v) == nil {
		return nil
	}

	cleaned := cleanJSON(text)
	if json.Unmarshal([]byte(cleaned), v) == nil {
		return nil
	}

	coerced := stripTrailingCommas(coerceSingleQuotes(cleaned))
	if json.Unmarshal([]byte(coerced), v) == nil {
		return nil
	}

	for _, candidate := range []string{cleaned, coerced} {
		span, ok := firstBalancedSpan(candidate)
		if !ok {
			continue
		}
		if json.Unmarshal([]byte(span), v) == nil {
			return nil
		}
		repaired := stripTrailingCommas(coerceSingleQuotes(span))
		if json.Unmarshal([]byte(repaired), v) == nil {
			return nil
		}
	}

	return ErrMalformedJSON
}

func cleanJSON(s string) string {
	if m := codeFencePattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	} else {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	s = smartQuotes.Replace(s)
	return stripTrailingCommas(strings.TrimSpace(s))
}

// stripTrailingCommas drops commas that directly precede a closing bracket,
// leaving string contents untouched.
func stripTrailingCommas(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s))

	inString, escaped := false, false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if inString {
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			}
			continue
		}
		if r == '"' {
			inString = true
		}
		if r == ',' {
			j := i + 1
			for j < len(runes) && isJSONSpace(runes[j]) {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// coerceSingleQuotes rewrites single-quoted strings as double-quoted ones.
// Apostrophes inside double-quoted strings are preserved.
func coerceSingleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	const (
		outside = iota
		inDouble
		inSingle
	)
	state, escaped := outside, false

	for _, r := range s {
		switch state {
		case outside:
			switch r {
			case '"':
				state = inDouble
				b.WriteRune(r)
			case '\'':
				state = inSingle
				b.WriteRune('"')
			default:
				b.WriteRune(r)
			}
		case inDouble:
			b.WriteRune(r)
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				state = outside
			}
		case inSingle:
			switch {
			case escaped:
				escaped = false
				if r == '\'' {
					b.WriteRune('\'')
				} else {
					b.WriteRune('\\')
					b.WriteRune(r)
				}
			case r == '\\':
				escaped = true
			case r == '\'':
				state = outside
				b.WriteRune('"')
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

// firstBalancedSpan returns the first {...} or [...] block whose brackets balance.
func firstBalancedSpan(s string) (string, bool) {
	start := strings.IndexAny(s, "{[")
	for start >= 0 {
		if end, ok := matchBracket(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexAny(s[start+1:], "{[")
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

func matchBracket(s string, start int) (int, bool) {
	stack := make([]byte, 0, 8)
	inString, escaped := false, false

	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

func isJSONSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
