package employeeimport

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/spf13/cast"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
)

const (
	flagYes = "Y"
	flagNo  = "N"
)

var truthyTokens = map[string]struct{}{
	"y":    {},
	"yes":  {},
	"true": {},
	"1":    {},
}

var genderTokens = map[string]string{
	"m":         "M",
	"male":      "M",
	"pria":      "M",
	"laki-laki": "M",
	"f":         "F",
	"female":    "F",
	"wanita":    "F",
	"perempuan": "F",
}

// NormalizeFlag coerces a single-character coded cell. Boolean fields become
// Y or N, gender becomes M or F, anything else keeps its upper-cased first
// character. Empty input yields nil.
func NormalizeFlag(field string, value any) *string {
	s := strings.TrimSpace(cellString(value))
	if s == "" {
		return nil
	}
	lower := strings.ToLower(s)

	kind := employee.KindCode
	if f, ok := employee.LookupField(field); ok {
		kind = f.Kind
	}
	var out string
	switch kind {
	case employee.KindFlag:
		out = flagNo
		if _, ok := truthyTokens[lower]; ok {
			out = flagYes
		}
	case employee.KindGender:
		if g, ok := genderTokens[lower]; ok {
			out = g
		} else {
			out = firstUpper(s)
		}
	default:
		out = firstUpper(s)
	}
	return &out
}

func firstUpper(s string) string {
	r, _ := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r))
}

// cellString renders a cell for text handling. Floats that hold whole numbers
// lose their ".0" so ids read from numeric cells stay intact.
func cellString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		if v == float64(int64(v)) {
			return cast.ToString(int64(v))
		}
	case float32:
		if v == float32(int64(v)) {
			return cast.ToString(int64(v))
		}
	}
	return cast.ToString(value)
}
