package employeeimport

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// SerialEpoch is spreadsheet serial 25569, i.e. 1970-01-01 UTC.
const SerialEpoch = 25569

// maxSerial is 9999-12-31.
const maxSerial = 2958465

var (
	isoDateRe     = regexp.MustCompile(`^(\d{4})[-/](\d{1,2})[-/](\d{1,2})$`)
	numericDateRe = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})[/.-](\d{2}|\d{4})$`)
)

var textualLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
}

var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"20060102",
	"2006.01.02",
	"02.01.2006",
	time.RFC1123,
	time.RFC1123Z,
	"Monday, January 2, 2006",
	"Mon, 2 Jan 2006",
}

// ParseDate converts a cell value to a calendar date at midnight UTC. The second
// result is false when the value is empty or matches no supported form; the
// caller decides what an unparseable value means.
func ParseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(v), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return ParseDate(*v)
	case string:
		return parseDateString(v)
	case bool:
		return time.Time{}, false
	}
	f, err := cast.ToFloat64E(value)
	if err != nil {
		return parseDateString(cast.ToString(value))
	}
	return SerialToDate(f)
}

// SerialToDate converts a spreadsheet serial; the fractional time of day is dropped.
func SerialToDate(serial float64) (time.Time, bool) {
	if math.IsNaN(serial) || serial < 1 || serial > maxSerial {
		return time.Time{}, false
	}
	days := int(math.Floor(serial)) - SerialEpoch
	return time.Unix(0, 0).UTC().AddDate(0, 0, days), true
}

// DateToSerial is the inverse of SerialToDate for whole days.
func DateToSerial(t time.Time) int {
	d := dateOnly(t)
	return int(math.Floor(float64(d.Unix())/86400)) + SerialEpoch
}

func parseDateString(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	if m := isoDateRe.FindStringSubmatch(s); m != nil {
		if t, ok := buildDate(m[1], m[2], m[3]); ok {
			return t, true
		}
	}
	if m := numericDateRe.FindStringSubmatch(s); m != nil {
		year := expandYear(m[3])
		// day-first, then month-first when the day-first month is out of range
		if t, ok := buildDate(year, m[2], m[1]); ok {
			return t, true
		}
		if t, ok := buildDate(year, m[1], m[2]); ok {
			return t, true
		}
	}
	for _, layout := range textualLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}
	return time.Time{}, false
}

// expandYear applies the two-digit pivot: below 50 is 20xx, otherwise 19xx.
func expandYear(y string) string {
	if len(y) != 2 {
		return y
	}
	n, _ := strconv.Atoi(y)
	if n < 50 {
		return strconv.Itoa(2000 + n)
	}
	return strconv.Itoa(1900 + n)
}

// buildDate rejects out-of-range months and days that time.Date would normalize.
func buildDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
