// Package sanitizer validates raw model output and normalizes it into
// briefing items.
package sanitizer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"newsbrief/types"
)

const (
	MinImpactScore = 1
	MaxImpactScore = 10
)

// ValidationError is returned when the output is not a JSON array of objects.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid model output: %s: %v", e.Reason, e.Err)
	}
	return "invalid model output: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Sanitize strips an optional code fence, parses the JSON array and converts
// every element. now is used for items without a usable date.
func Sanitize(raw string, now time.Time) ([]types.BriefingItem, error) {
	body := StripFence(raw)

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(body), &elems); err != nil {
		return nil, &ValidationError{Reason: "expected a JSON array", Err: err}
	}

	items := make([]types.BriefingItem, 0, len(elems))
	for i, el := range elems {
		trimmed := bytes.TrimSpace(el)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d is not an object", i)}
		}
		var r RawModelItem
		if err := json.Unmarshal(trimmed, &r); err != nil {
			return nil, &ValidationError{Reason: fmt.Sprintf("element %d", i), Err: err}
		}
		items = append(items, r.Normalize(now))
	}
	return items, nil
}

// StripFence removes a surrounding ```json or ``` fence if present.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		// language tag, usually "json"
		if tag := strings.TrimSpace(s[:nl]); !strings.ContainsAny(tag, "[{") {
			s = s[nl+1:]
		}
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
