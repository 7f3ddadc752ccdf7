package employeeimport

import (
	"fmt"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
)

// ValidateHeaders compares normalized keys but reports the original header
// text. It never fails; blank uploaded headers are ignored for missing and extra.
func ValidateHeaders(expected, actual []string) importrun.HeaderValidation {
	out := importrun.HeaderValidation{
		Missing:       []string{},
		Extra:         []string{},
		OrderMismatch: []importrun.HeaderPair{},
	}
	expectedKeys := make([]string, len(expected))
	expectedSet := make(map[string]struct{}, len(expected))
	for i, h := range expected {
		expectedKeys[i] = NormalizeHeader(h)
		expectedSet[expectedKeys[i]] = struct{}{}
	}
	actualKeys := make([]string, len(actual))
	actualSet := make(map[string]struct{}, len(actual))
	for i, h := range actual {
		actualKeys[i] = NormalizeHeader(h)
		if actualKeys[i] != "" {
			actualSet[actualKeys[i]] = struct{}{}
		}
	}

	for i, key := range expectedKeys {
		if _, ok := actualSet[key]; !ok {
			out.Missing = append(out.Missing, expected[i])
		}
	}
	for i, key := range actualKeys {
		if key == "" {
			continue
		}
		if _, ok := expectedSet[key]; !ok {
			out.Extra = append(out.Extra, actual[i])
		}
	}
	n := min(len(expected), len(actual))
	for i := 0; i < n; i++ {
		if expectedKeys[i] != actualKeys[i] {
			out.OrderMismatch = append(out.OrderMismatch, importrun.HeaderPair{
				Position: i + 1,
				Expected: expected[i],
				Actual:   actual[i],
			})
		}
	}
	return out
}

// headerDiagnostics flattens a validation into header-section warnings.
func headerDiagnostics(v importrun.HeaderValidation) []importrun.Diagnostic {
	var out []importrun.Diagnostic
	for _, h := range v.Missing {
		out = append(out, importrun.HeaderWarning(h, "expected column is missing"))
	}
	for _, h := range v.Extra {
		out = append(out, importrun.HeaderWarning(h, "column is not part of the template"))
	}
	for _, p := range v.OrderMismatch {
		out = append(out, importrun.HeaderWarning(p.Actual, fmt.Sprintf("column %d expected %q", p.Position, p.Expected)))
	}
	return out
}
