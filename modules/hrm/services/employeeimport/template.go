package employeeimport

import (
	"fmt"
	"strings"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importmapping"
)

const maxDropdownHint = 10

// Template is the expected layout of an upload for one profile.
type Template struct {
	Profile  Profile
	Headers  []string
	Fields   []string
	Examples []string
	// Computed holds normalized keys of read-only columns.
	Computed map[string]bool
}

// IsComputed reports whether header names a read-only column.
func (t Template) IsComputed(header string) bool {
	return t.Computed[NormalizeHeader(header)]
}

// ComputedMask flags, per header position, the read-only columns.
func (t Template) ComputedMask() []bool {
	out := make([]bool, len(t.Headers))
	for i, h := range t.Headers {
		out[i] = t.IsComputed(h)
	}
	return out
}

// Resolve derives the template of profile from the mapping definition. Option
// lists named by a column are rendered as a dropdown hint from ref.
func Resolve(profile Profile, def importmapping.Definition, ref importmapping.ReferenceData) (Template, error) {
	if _, err := ParseProfile(string(profile)); err != nil {
		return Template{}, err
	}
	if len(def.Columns) == 0 {
		return Template{}, ErrTemplateUnavailable
	}
	audience := profile.Audience()
	tmpl := Template{Profile: profile, Computed: map[string]bool{}}
	for _, col := range def.Columns {
		if !inAudience(col, audience) {
			continue
		}
		header := col.Header
		example := col.Example
		if col.Options != "" {
			if opts := ref.List(col.Options); len(opts) > 0 {
				header = fmt.Sprintf("%s (Dropdown: %s)", col.Header, dropdownHint(opts))
				if example == "" {
					example = opts[0]
				}
			}
		}
		if col.Computed {
			header = col.Header + " (readonly)"
			tmpl.Computed[NormalizeHeader(col.Header)] = true
		}
		tmpl.Headers = append(tmpl.Headers, header)
		tmpl.Fields = append(tmpl.Fields, col.Field)
		tmpl.Examples = append(tmpl.Examples, example)
	}
	if len(tmpl.Headers) == 0 {
		return Template{}, fmt.Errorf("%w: no columns for audience %s", ErrTemplateUnavailable, audience)
	}
	return tmpl, nil
}

func inAudience(col importmapping.Column, audience Audience) bool {
	if audience == AudienceExpatriate {
		return col.Expatriate
	}
	return col.Indonesian
}

func dropdownHint(opts []string) string {
	if len(opts) > maxDropdownHint {
		return strings.Join(opts[:maxDropdownHint], ", ") + ", ..."
	}
	return strings.Join(opts, ", ")
}
