package sanitizer

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"

	"newsbrief/types"

	"github.com/google/uuid"
)

// RawModelItem is the loosely-typed shape the model actually returns.
// No field of it can fail decoding: wrong shapes become zero values.
type RawModelItem struct {
	ID          LooseString     `json:"id"`
	Title       LooseBilingual  `json:"title"`
	Summary     LooseBilingual  `json:"summary"`
	Category    LooseString     `json:"category"`
	URL         LooseString     `json:"url"`
	Source      LooseString     `json:"source"`
	ImpactScore json.RawMessage `json:"impactScore"`
	Tags        LooseTags       `json:"tags"`
	Date        json.RawMessage `json:"date"`
}

// LooseString accepts a string, number or bool. Anything else is empty.
type LooseString string

func (l *LooseString) UnmarshalJSON(b []byte) error {
	*l = LooseString(scalarText(b))
	return nil
}

func scalarText(b []byte) string {
	var s string
	if json.Unmarshal(b, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(b, &n) == nil {
		return n.String()
	}
	var v bool
	if json.Unmarshal(b, &v) == nil {
		return strconv.FormatBool(v)
	}
	return ""
}

// LooseTags accepts a list or a single string. Non-string entries are dropped.
type LooseTags []string

func (l *LooseTags) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		*l = LooseTags{s}
		return nil
	}
	var elems []json.RawMessage
	if json.Unmarshal(b, &elems) != nil {
		*l = nil
		return nil
	}
	out := make(LooseTags, 0, len(elems))
	for _, el := range elems {
		if json.Unmarshal(el, &s) == nil {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}

// LooseBilingual accepts either {"en":..,"zh":..} or a bare scalar.
type LooseBilingual struct {
	types.Bilingual
}

func (l *LooseBilingual) UnmarshalJSON(b []byte) error {
	var pair struct {
		EN LooseString `json:"en"`
		ZH LooseString `json:"zh"`
	}
	if json.Unmarshal(b, &pair) == nil {
		l.EN, l.ZH = string(pair.EN), string(pair.ZH)
		return nil
	}
	s := scalarText(b)
	l.EN, l.ZH = s, s
	return nil
}

func (l LooseBilingual) filled() types.Bilingual {
	out := types.Bilingual{EN: strings.TrimSpace(l.EN), ZH: strings.TrimSpace(l.ZH)}
	if out.EN == "" {
		out.EN = out.ZH
	}
	if out.ZH == "" {
		out.ZH = out.EN
	}
	return out
}

// Normalize converts the raw item into a BriefingItem.
func (r RawModelItem) Normalize(now time.Time) types.BriefingItem {
	id := strings.TrimSpace(string(r.ID))
	if id == "" {
		id = uuid.NewString()
	}
	return types.BriefingItem{
		ID:          id,
		Title:       r.Title.filled(),
		Summary:     r.Summary.filled(),
		Category:    CanonicalCategory(string(r.Category)),
		URL:         strings.TrimSpace(string(r.URL)),
		Source:      strings.TrimSpace(string(r.Source)),
		ImpactScore: ClampScore(r.ImpactScore),
		Tags:        dedupeTags(r.Tags),
		Date:        parseDate(r.Date, now),
	}
}

// ClampScore reads a number or numeric string and clamps it to the score
// range. Anything unreadable becomes the minimum.
func ClampScore(raw json.RawMessage) int {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return MinImpactScore
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return MinImpactScore
		}
		f = v
	}
	switch {
	case math.IsNaN(f):
		return MinImpactScore
	case f < MinImpactScore:
		return MinImpactScore
	case f > MaxImpactScore:
		return MaxImpactScore
	}
	return int(math.Round(f))
}

var categoryIndex = func() map[string]types.Category {
	m := make(map[string]types.Category, len(types.Categories)+2)
	for _, c := range types.Categories {
		m[categoryKey(string(c))] = c
	}
	m["llm"] = types.CategoryLLMs
	m["imagevideo"] = types.CategoryImageAndVideo
	return m
}()

func categoryKey(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "&", "and")
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanonicalCategory maps spellings like "image & video" onto the enum.
// Unrecognized values pass through trimmed.
func CanonicalCategory(s string) types.Category {
	if c, ok := categoryIndex[categoryKey(s)]; ok {
		return c
	}
	return types.Category(strings.TrimSpace(s))
}

func dedupeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	types.DisplayDateLayout,
}

// parseDate reads a date string. Non-strings and unknown layouts give now.
func parseDate(raw json.RawMessage, now time.Time) time.Time {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return now
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}
