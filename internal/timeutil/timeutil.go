package timeutil

import (
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30), the default for
// printed dates.
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60) // UTC+5:30
	}
}

// Load resolves a timezone name, falling back to IST for empty or unknown names.
func Load(name string) *time.Location {
	if name == "" {
		return IST
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return IST
	}
	return loc
}

// YYMMDD formats t as the six digit date used on serialization labels.
// A zero time renders as an empty string.
func YYMMDD(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = IST
	}
	return t.In(loc).Format(LabelDateLayout)
}

// NextMidnight returns the first midnight strictly after t in loc.
func NextMidnight(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = IST
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
}

// Common layouts
const (
	LabelDateLayout = "060102"
	DateTimeLayout  = "2006-01-02 15:04:05"
)
