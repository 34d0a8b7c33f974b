package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"innsight/config"
)

var (
	// currencyRegexp matches currency symbols, thousands separators and
	// whitespace that may decorate a price value.
	currencyRegexp = regexp.MustCompile(`[$,€£\s]`)
	// tagRegexp matches HTML tag spans in free text.
	tagRegexp = regexp.MustCompile(`<[^>]+>`)
	// breakRegexp matches line-break tags, replaced by a space before
	// tags are stripped so words do not run together.
	breakRegexp = regexp.MustCompile(`(?i)<br\s*/?\s*>`)
)

// ParsePrice converts a raw price string ("$1,234.50") to a float.
// Empty or unparsable input yields nil, never an error.
func ParsePrice(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	cleaned := currencyRegexp.ReplaceAllString(raw, "")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParsePercentage converts "95%" to 95 on the 0-100 scale the source
// uses; no re-normalization is applied.
func ParsePercentage(raw string) *float64 {
	raw = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseBoolean matches case-insensitively against the export's truthy
// set {t, true, 1, yes} and falsy set {f, false, 0, no}.
func ParseBoolean(raw string) *bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "t", "true", "1", "yes":
		v := true
		return &v
	case "f", "false", "0", "no":
		v := false
		return &v
	default:
		return nil
	}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse(config.DateFormat, raw)
	if err != nil {
		return nil
	}
	return &t
}

// ParseFloat coerces a numeric field; unparsable values become nil
// rather than the typed zero.
func ParseFloat(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

// ParseInt coerces an integer field. Values serialized with a trailing
// ".0" (a common artifact of the exports) still parse.
func ParseInt(raw string) *int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return &n
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return nil
	}
	n := int(f)
	return &n
}

// CleanText trims and collapses whitespace runs to a single space.
// When stripMarkup is set, line-break tags become spaces and remaining
// tag spans are removed. A string that is empty after cleaning is nil.
func CleanText(raw string, stripMarkup bool) *string {
	if raw == "" {
		return nil
	}
	if stripMarkup {
		raw = breakRegexp.ReplaceAllString(raw, " ")
		raw = tagRegexp.ReplaceAllString(raw, "")
	}
	cleaned := strings.Join(strings.Fields(raw), " ")
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// ParseAmenities parses the bracketed, quoted amenity list of the
// export ([\"Wifi\", \"Kitchen\"]) into a slice. Order is preserved and
// duplicates are kept; empty elements are dropped.
func ParseAmenities(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	raw = strings.Trim(raw, "[]")
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if a := strings.Trim(part, ` "'`); a != "" {
			out = append(out, a)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}
