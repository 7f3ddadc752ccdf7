package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/pkg/composables"
)

const (
	selectExistingIDsQuery = `SELECT employee_id FROM hrm_employees WHERE employee_id = ANY($1)`
	advisoryLockQuery      = `SELECT pg_advisory_xact_lock(hashtext($1))`
)

type EmployeeImportRepository struct {
	advisoryLock bool
}

// NewEmployeeImportRepository returns the import store. With advisoryLock set
// every row transaction first takes a transaction-scoped lock on its
// employee_id, serializing concurrent imports of the same employee.
func NewEmployeeImportRepository(advisoryLock bool) *EmployeeImportRepository {
	return &EmployeeImportRepository{advisoryLock: advisoryLock}
}

func (r *EmployeeImportRepository) ExistingEmployeeIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.Query(ctx, selectExistingIDsQuery, ids)
	if err != nil {
		return nil, errors.Wrap(err, "query existing employees")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, errors.Wrap(err, "scan employee id")
		}
		out[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate existing employees")
	}
	return out, nil
}

// CommitRow writes every sub-entity of plan inside one new transaction, in
// plan order. The first failing write rolls the whole row back.
func (r *EmployeeImportRepository) CommitRow(ctx context.Context, plan employee.WritePlan) error {
	if strings.TrimSpace(plan.EmployeeID) == "" {
		return errors.New("write plan has no employee_id")
	}
	return composables.InTx(ctx, func(txCtx context.Context) error {
		tx, err := composables.UseTx(txCtx)
		if err != nil {
			return err
		}
		if r.advisoryLock {
			if _, err := tx.Exec(txCtx, advisoryLockQuery, plan.EmployeeID); err != nil {
				return errors.Wrap(err, "acquire employee lock")
			}
		}
		for _, w := range plan.Writes {
			query, err := upsertQuery(w)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(txCtx, query, w.Values...); err != nil {
				return errors.Wrapf(err, "upsert %s", w.Table)
			}
		}
		return nil
	})
}

// upsertQuery renders an upsert keyed by employee_id. The columns of the write
// are overwritten on conflict; other columns keep their stored values. A
// key-only write just touches updated_at.
func upsertQuery(w employee.SubEntityWrite) (string, error) {
	if w.Table == "" || len(w.Columns) == 0 || len(w.Columns) != len(w.Values) {
		return "", fmt.Errorf("malformed write for %q: %d columns, %d values", w.Table, len(w.Columns), len(w.Values))
	}
	if w.Columns[0] != employee.FieldEmployeeID {
		return "", fmt.Errorf("write for %s must start with %s", w.Table, employee.FieldEmployeeID)
	}
	cols := make([]string, len(w.Columns))
	params := make([]string, len(w.Columns))
	sets := make([]string, 0, len(w.Columns))
	for i, c := range w.Columns {
		cols[i] = pgx.Identifier{c}.Sanitize()
		params[i] = fmt.Sprintf("$%d", i+1)
		if i > 0 {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", cols[i], cols[i]))
		}
	}
	sets = append(sets, "updated_at = now()")
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (employee_id) DO UPDATE SET %s",
		pgx.Identifier{w.Table}.Sanitize(),
		strings.Join(cols, ", "),
		strings.Join(params, ", "),
		strings.Join(sets, ", "),
	), nil
}
