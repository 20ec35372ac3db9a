package generator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

const (
	fence     = "```"
	jsonFence = "```json"

	excerptLen = 200
)

// ParseError means no JSON object could be located in a model reply.
type ParseError struct {
	Excerpt string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse JSON from model response: %q", e.Excerpt)
}

// ParseJSON extracts a JSON object from model output. It tries, in order, the
// whole trimmed text, a ```json fenced block, a bare fenced block and the
// span from the first '{' to the last '}'.
func ParseJSON(text string) (json.RawMessage, error) {
	if raw, ok := asObject(text); ok {
		return raw, nil
	}
	if inner, ok := fenced(text); ok {
		if raw, ok := asObject(inner); ok {
			return raw, nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		if raw, ok := asObject(text[start : end+1]); ok {
			return raw, nil
		}
	}
	return nil, &ParseError{Excerpt: truncateRunes(text, excerptLen)}
}

func fenced(text string) (string, bool) {
	marker := jsonFence
	i := strings.Index(text, marker)
	if i < 0 {
		marker = fence
		i = strings.Index(text, marker)
	}
	if i < 0 {
		return "", false
	}
	rest := text[i+len(marker):]
	j := strings.Index(rest, fence)
	if j < 0 {
		return "", false
	}
	return rest[:j], true
}

func asObject(s string) (json.RawMessage, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !gjson.Valid(s) {
		return nil, false
	}
	if !gjson.Parse(s).IsObject() {
		return nil, false
	}
	return json.RawMessage(s), true
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
