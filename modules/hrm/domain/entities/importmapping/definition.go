package importmapping

import (
	"fmt"
	"strings"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
)

// Column is one spreadsheet column of the external mapping definition.
type Column struct {
	Header     string `yaml:"header"`
	Field      string `yaml:"field"`
	Indonesian bool   `yaml:"indonesian"`
	Expatriate bool   `yaml:"expatriate"`
	Computed   bool   `yaml:"computed"`
	Example    string `yaml:"example"`
	// Options names a ReferenceData list rendered as a dropdown hint.
	Options string `yaml:"options"`
}

// Definition is the versioned source of truth for which header belongs to
// which audience.
type Definition struct {
	Version  int               `yaml:"version"`
	Columns  []Column          `yaml:"columns"`
	Synonyms map[string]string `yaml:"synonyms"`
}

func (d Definition) Validate() error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("mapping definition has no columns")
	}
	seen := make(map[string]struct{}, len(d.Columns))
	hasKey := false
	for i, c := range d.Columns {
		if strings.TrimSpace(c.Header) == "" {
			return fmt.Errorf("column %d has no header", i+1)
		}
		if _, dup := seen[c.Header]; dup {
			return fmt.Errorf("column %q is declared twice", c.Header)
		}
		seen[c.Header] = struct{}{}
		if c.Field == "" {
			if !c.Computed {
				return fmt.Errorf("column %q has no field and is not computed", c.Header)
			}
			continue
		}
		if _, ok := employee.LookupField(c.Field); !ok {
			return fmt.Errorf("column %q maps to unknown field %q", c.Header, c.Field)
		}
		if c.Field == employee.FieldEmployeeID {
			hasKey = true
		}
	}
	if !hasKey {
		return fmt.Errorf("mapping definition has no %s column", employee.FieldEmployeeID)
	}
	for syn, field := range d.Synonyms {
		if _, ok := employee.LookupField(field); !ok {
			return fmt.Errorf("synonym %q maps to unknown field %q", syn, field)
		}
	}
	return nil
}

// ReferenceData holds store-backed option lists. It is loaded per request and
// passed explicitly to whoever needs it.
type ReferenceData struct {
	Departments []string
	Options     map[string][]string
}

const OptionsDepartments = "departments"

func (r ReferenceData) List(name string) []string {
	if name == OptionsDepartments && len(r.Departments) > 0 {
		return r.Departments
	}
	return r.Options[name]
}
