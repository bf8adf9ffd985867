// Package dates parses the date inputs accepted by the API.
package dates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date form accepted alongside RFC 3339.
const DateLayout = "2006-01-02"

var layouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", DateLayout}

// Parse accepts an RFC 3339 timestamp or a plain calendar date. Values
// without a zone are read in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// StartOfDay truncates t to midnight in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Date is a time that unmarshals from either accepted date form. The zero
// value means the field was absent or null.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		d.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		d.Time = time.Time{}
		return nil
	}
	t, err := Parse(s, time.Local)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Time.Format(time.RFC3339))
}

// Ptr returns nil for the zero Date and a pointer to the time otherwise.
func (d Date) Ptr() *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
