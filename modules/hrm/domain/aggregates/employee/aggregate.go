package employee

import (
	"fmt"
	"strings"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

// Aggregate is one employee split into its seven sub-entities.
type Aggregate struct {
	employeeID string
	parts      map[SubEntity]map[string]any
}

// NewAggregate distributes canonical field values over the sub-entities.
// Keys that are not canonical fields are rejected so that unmapped spreadsheet
// columns can never reach a write. mapped lists the fields the upload carries a
// column for; a mapped field without a value is written as NULL, while fields
// outside values and mapped are left as stored.
func NewAggregate(values map[string]any, mapped ...string) (Aggregate, error) {
	rawID, _ := values[FieldEmployeeID].(string)
	id := strings.TrimSpace(rawID)
	if id == "" {
		return Aggregate{}, fmt.Errorf("%s is required", FieldEmployeeID)
	}
	parts := make(map[SubEntity]map[string]any, len(WriteOrder))
	for _, entity := range WriteOrder {
		parts[entity] = map[string]any{}
	}
	for _, name := range mapped {
		if name == FieldEmployeeID {
			continue
		}
		f, ok := LookupField(name)
		if !ok {
			return Aggregate{}, fmt.Errorf("field %q is not part of the employee schema", name)
		}
		parts[f.Entity][name] = nil
	}
	for name, v := range values {
		if name == FieldEmployeeID {
			continue
		}
		f, ok := LookupField(name)
		if !ok {
			return Aggregate{}, fmt.Errorf("field %q is not part of the employee schema", name)
		}
		parts[f.Entity][name] = v
	}
	return Aggregate{employeeID: id, parts: parts}, nil
}

func (a Aggregate) EmployeeID() string {
	return a.employeeID
}

// Value returns a field of one sub-entity; absent fields are nil.
func (a Aggregate) Value(entity SubEntity, field string) any {
	return a.parts[entity][field]
}

// Carries reports whether the aggregate writes field at all.
func (a Aggregate) Carries(entity SubEntity, field string) bool {
	_, ok := a.parts[entity][field]
	return ok
}

// SubEntityWrite replaces the carried columns of one sub-entity table.
// A write with only employee_id still guarantees the row exists.
type SubEntityWrite struct {
	Entity  SubEntity
	Table   string
	Columns []string
	Values  []any
}

// WritePlan is built once per row and handed to the transaction executor.
type WritePlan struct {
	EmployeeID string
	Action     Action
	Writes     []SubEntityWrite
}

// Plan lays the aggregate out in WriteOrder. Each write starts with employee_id
// followed by the carried columns of that sub-entity in schema order.
func (a Aggregate) Plan(action Action) WritePlan {
	writes := make([]SubEntityWrite, 0, len(WriteOrder))
	for _, entity := range WriteOrder {
		fields := FieldsOf(entity)
		w := SubEntityWrite{
			Entity:  entity,
			Table:   entity.Table(),
			Columns: make([]string, 0, len(fields)+1),
			Values:  make([]any, 0, len(fields)+1),
		}
		w.Columns = append(w.Columns, FieldEmployeeID)
		w.Values = append(w.Values, a.employeeID)
		for _, f := range fields {
			v, ok := a.parts[entity][f.Name]
			if !ok {
				continue
			}
			w.Columns = append(w.Columns, f.Name)
			w.Values = append(w.Values, v)
		}
		writes = append(writes, w)
	}
	return WritePlan{EmployeeID: a.employeeID, Action: action, Writes: writes}
}
