package employeeimport

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
	"github.com/iota-uz/hrm-import/pkg/constants"
)

var decimalNoise = strings.NewReplacer(",", "", " ", "", "Rp", "", "IDR", "", "$", "")

// buildRows maps raw cells to canonical fields. Fully blank rows are not data
// rows. Unmapped and computed columns never reach Row.Values.
func buildRows(plan ColumnPlan, raw [][]any) []Row {
	rows := make([]Row, 0, len(raw))
	for i, cells := range raw {
		values := map[string]any{}
		blank := true
		for c, cell := range cells {
			if strings.TrimSpace(cellString(cell)) != "" {
				blank = false
			}
			if c >= len(plan.Refs) || plan.Ignored[c] || !plan.Refs[c].IsMapped() {
				continue
			}
			field := plan.Refs[c].Field()
			if prev, ok := values[field]; ok && strings.TrimSpace(cellString(cell)) == "" && strings.TrimSpace(cellString(prev)) != "" {
				continue
			}
			values[field] = cell
		}
		if blank {
			continue
		}
		rows = append(rows, Row{Ordinal: i + 2, Values: values})
	}
	return rows
}

type rowOutcome struct {
	id          string
	disposition Disposition
	values      map[string]any
	diagnostics []importrun.Diagnostic
}

func (o rowOutcome) hasErrors() bool {
	for _, d := range o.diagnostics {
		if d.Severity == importrun.SeverityError {
			return true
		}
	}
	return false
}

// validateRow checks the key, applies the duplicate policy and normalizes every
// mapped value. seen tracks ids already handled earlier in the same file.
func validateRow(row Row, existing map[string]struct{}, seen map[string]int, policy Policy) rowOutcome {
	out := rowOutcome{id: rowEmployeeID(row)}
	if out.id == "" {
		out.disposition = DispositionReject
		out.diagnostics = append(out.diagnostics, importrun.RowError(row.Ordinal, employee.FieldEmployeeID, "employee_id is required"))
		return out
	}

	if first, dup := seen[out.id]; dup {
		out.disposition = DispositionUpdate
		out.diagnostics = append(out.diagnostics, importrun.RowWarning(row.Ordinal, employee.FieldEmployeeID,
			fmt.Sprintf("employee_id %s already appeared on row %d; this row overwrites it", out.id, first)))
	} else {
		out.disposition = Classify(out.id, existing, policy)
	}
	switch out.disposition {
	case DispositionSkip:
		out.diagnostics = append(out.diagnostics, importrun.RowWarning(row.Ordinal, employee.FieldEmployeeID,
			fmt.Sprintf("employee_id %s already exists; row skipped", out.id)))
		return out
	case DispositionReject:
		out.diagnostics = append(out.diagnostics, importrun.RowError(row.Ordinal, employee.FieldEmployeeID,
			fmt.Sprintf("employee_id %s already exists", out.id)))
		return out
	}

	out.values = map[string]any{employee.FieldEmployeeID: out.id}
	for field, raw := range row.Values {
		if field == employee.FieldEmployeeID {
			continue
		}
		f, ok := employee.LookupField(field)
		if !ok {
			continue
		}
		v, diag := normalizeValue(row.Ordinal, f, raw)
		out.values[field] = v
		if diag != nil {
			out.diagnostics = append(out.diagnostics, *diag)
		}
	}
	return out
}

// normalizeValue never fails the row; bad values become nil with a warning.
func normalizeValue(ordinal int, f employee.Field, raw any) (any, *importrun.Diagnostic) {
	text := strings.TrimSpace(cellString(raw))
	if text == "" {
		return nil, nil
	}
	switch f.Kind {
	case employee.KindDate:
		if t, ok := ParseDate(raw); ok {
			return t, nil
		}
		d := importrun.RowWarning(ordinal, f.Name, fmt.Sprintf("%s: unparseable date %q", f.Name, text))
		return nil, &d
	case employee.KindFlag, employee.KindGender, employee.KindCode:
		if v := NormalizeFlag(f.Name, raw); v != nil {
			return *v, nil
		}
		return nil, nil
	case employee.KindDecimal:
		amount, err := decimal.NewFromString(decimalNoise.Replace(text))
		if err != nil {
			d := importrun.RowWarning(ordinal, f.Name, fmt.Sprintf("%s: not a number %q", f.Name, text))
			return nil, &d
		}
		return amount, nil
	}
	if f.Name == "email" {
		if err := constants.Validate.Var(text, "email"); err != nil {
			d := importrun.RowWarning(ordinal, f.Name, fmt.Sprintf("email: %q does not look like an address", text))
			return text, &d
		}
	}
	return text, nil
}
