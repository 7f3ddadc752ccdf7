package employeeimport

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importmapping"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
)

// memoryRow is one stored sub-entity row keyed by column.
type memoryRow map[string]any

// memoryStore keeps one map per sub-entity table. Writes behave like an upsert:
// only the written columns change. A row is staged in full and applied only
// when every write succeeded.
type memoryStore struct {
	mu      sync.Mutex
	tables  map[string]map[string]memoryRow
	queries [][]string
	// failOn makes the write of a table fail for an employee id.
	failOn map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{tables: map[string]map[string]memoryRow{}, failOn: map[string]string{}}
}

func (m *memoryStore) seed(ids ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	core := m.table("hrm_employees")
	for _, id := range ids {
		core[id] = memoryRow{employee.FieldEmployeeID: id}
	}
}

func (m *memoryStore) table(name string) map[string]memoryRow {
	t, ok := m.tables[name]
	if !ok {
		t = map[string]memoryRow{}
		m.tables[name] = t
	}
	return t
}

func (m *memoryStore) ExistingEmployeeIDs(_ context.Context, ids []string) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, append([]string(nil), ids...))
	out := map[string]struct{}{}
	for _, id := range ids {
		if _, ok := m.table("hrm_employees")[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (m *memoryStore) CommitRow(_ context.Context, plan employee.WritePlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	staged := make(map[string]memoryRow, len(plan.Writes))
	for _, w := range plan.Writes {
		if m.failOn[plan.EmployeeID] == w.Table {
			return errors.New("violates check constraint on " + w.Table)
		}
		row := memoryRow{}
		for col, v := range m.table(w.Table)[plan.EmployeeID] {
			row[col] = v
		}
		for i, col := range w.Columns {
			row[col] = w.Values[i]
		}
		staged[w.Table] = row
	}
	for table, row := range staged {
		m.table(table)[plan.EmployeeID] = row
	}
	return nil
}

func (m *memoryStore) rowCount(table string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tables[table])
}

func (m *memoryStore) snapshot() map[string]map[string]memoryRow {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]map[string]memoryRow, len(m.tables))
	for name, rows := range m.tables {
		copied := make(map[string]memoryRow, len(rows))
		for id, row := range rows {
			c := make(memoryRow, len(row))
			for col, v := range row {
				c[col] = v
			}
			copied[id] = c
		}
		out[name] = copied
	}
	return out
}

type staticDefinitions struct {
	def importmapping.Definition
	err error
}

func (s staticDefinitions) Definition(context.Context) (importmapping.Definition, error) {
	return s.def, s.err
}

type staticReferences struct {
	ref importmapping.ReferenceData
}

func (s staticReferences) ReferenceData(context.Context) (importmapping.ReferenceData, error) {
	return s.ref, nil
}

type recordingRunLogs struct {
	persisted []*importrun.Result
	err       error
}

func (r *recordingRunLogs) Persist(_ context.Context, result *importrun.Result) (Handles, error) {
	if r.err != nil {
		return Handles{}, r.err
	}
	r.persisted = append(r.persisted, result)
	return Handles{JSON: "run.json", CSV: "run.csv"}, nil
}

func (r *recordingRunLogs) Open(handle string) (io.ReadCloser, string, error) {
	if handle != "run.json" || len(r.persisted) == 0 {
		return nil, "", errors.New("not found")
	}
	return io.NopCloser(strings.NewReader(`{"runId":"x"}`)), "application/json", nil
}

func testDefinition() importmapping.Definition {
	return importmapping.Definition{
		Version: 1,
		Columns: []importmapping.Column{
			{Header: "Employee ID", Field: "employee_id", Indonesian: true, Expatriate: true, Example: "EMP-001"},
			{Header: "Full Name", Field: "full_name", Indonesian: true, Expatriate: true, Example: "Budi Santoso"},
			{Header: "Gender", Field: "gender", Indonesian: true, Expatriate: true, Example: "M"},
			{Header: "Date of Birth", Field: "date_of_birth", Indonesian: true, Expatriate: true, Example: "1990-01-31"},
			{Header: "Religion", Field: "religion", Indonesian: true, Example: "Islam"},
			{Header: "Passport Number", Field: "passport_number", Expatriate: true, Example: "X1234567"},
			{Header: "Department", Field: "department", Indonesian: true, Expatriate: true, Options: importmapping.OptionsDepartments},
			{Header: "Bank Account Number", Field: "bank_account_number", Indonesian: true, Expatriate: true, Example: "1234567890"},
			{Header: "Age", Indonesian: true, Expatriate: true, Computed: true},
		},
		Synonyms: map[string]string{"kode karyawan": "employee_id"},
	}
}

func testReferences() importmapping.ReferenceData {
	return importmapping.ReferenceData{Departments: []string{"Finance", "HR"}}
}

var fixedNow = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func newTestService(store *memoryStore, runLogs RunLogStore, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewService(store, staticReferences{ref: testReferences()}, staticDefinitions{def: testDefinition()}, runLogs, nil, opts...)
}
