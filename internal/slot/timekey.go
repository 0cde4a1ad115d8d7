package slot

import (
	"strings"
	"time"
)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"15:04:05",
	"15:04",
}

// ParseStart reads a slot timestamp in ISO or space separated form. Timestamps that carry
// a zone are moved into loc; naive ones are wall-clock time in loc. The returned date is
// empty when the input only holds a time of day.
func ParseStart(raw string, loc *time.Location) (date, hhmm string, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "", false
	}
	if loc == nil {
		loc = time.UTC
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.In(loc)
			return t.Format(DateLayout), t.Format(TimeLayout), true
		}
	}

	for _, layout := range naiveLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err != nil {
			continue
		}
		if !strings.Contains(layout, "2006") {
			return "", t.Format(TimeLayout), true
		}
		return t.Format(DateLayout), t.Format(TimeLayout), true
	}

	return "", "", false
}

// NormalizeTime returns the canonical zero-padded HH:mm key for raw.
func NormalizeTime(raw string, loc *time.Location) (string, bool) {
	_, hhmm, ok := ParseStart(raw, loc)
	return hhmm, ok
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
