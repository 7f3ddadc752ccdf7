package persistence

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/pkg/composables"
	"github.com/iota-uz/hrm-import/pkg/constants"
)

func newPlan(t *testing.T, values map[string]any) employee.WritePlan {
	t.Helper()
	agg, err := employee.NewAggregate(values)
	require.NoError(t, err)
	return agg.Plan(employee.ActionInsert)
}

func TestEmployeeImportRepository_CommitRow_WritesSubEntitiesInOrder(t *testing.T) {
	pool := &stubPool{}
	ctx := composables.WithPool(context.Background(), pool)
	repo := NewEmployeeImportRepository(false)

	err := repo.CommitRow(ctx, newPlan(t, map[string]any{
		"employee_id": "E-1",
		"full_name":   "Ana",
		"bank_name":   "BCA",
	}))
	require.NoError(t, err)
	require.Len(t, pool.txs, 1)

	tx := pool.txs[0]
	require.True(t, tx.committed)
	require.False(t, tx.rolledBack)
	require.Len(t, tx.execs, len(employee.WriteOrder))
	for i, entity := range employee.WriteOrder {
		require.Contains(t, tx.execs[i].sql, `INSERT INTO "`+entity.Table()+`"`)
		require.Contains(t, tx.execs[i].sql, "ON CONFLICT (employee_id) DO UPDATE SET")
		require.Equal(t, "E-1", tx.execs[i].args[0])
	}
	require.Contains(t, tx.execs[0].args, "Ana")
}

func TestEmployeeImportRepository_CommitRow_RollsBackOnFailedWrite(t *testing.T) {
	pool := &stubPool{newTx: func() *stubTx {
		return &stubTx{execFunc: func(ctx context.Context, sql string, args ...any) error {
			if strings.Contains(sql, "hrm_employee_bank") {
				return errors.New("value too long for type character varying(34)")
			}
			return nil
		}}
	}}
	ctx := composables.WithPool(context.Background(), pool)
	repo := NewEmployeeImportRepository(false)

	err := repo.CommitRow(ctx, newPlan(t, map[string]any{"employee_id": "E-2"}))
	require.Error(t, err)
	require.Contains(t, err.Error(), "upsert hrm_employee_bank")

	tx := pool.txs[0]
	require.False(t, tx.committed)
	require.True(t, tx.rolledBack)
	last := tx.execs[len(tx.execs)-1]
	require.Contains(t, last.sql, "hrm_employee_bank")
	for _, call := range tx.execs {
		require.NotContains(t, call.sql, "hrm_employee_travel")
	}
}

func TestEmployeeImportRepository_CommitRow_TakesAdvisoryLockFirst(t *testing.T) {
	pool := &stubPool{}
	ctx := composables.WithPool(context.Background(), pool)
	repo := NewEmployeeImportRepository(true)

	require.NoError(t, repo.CommitRow(ctx, newPlan(t, map[string]any{"employee_id": "E-3"})))

	tx := pool.txs[0]
	require.Len(t, tx.execs, len(employee.WriteOrder)+1)
	require.Contains(t, tx.execs[0].sql, "pg_advisory_xact_lock")
	require.Equal(t, []any{"E-3"}, tx.execs[0].args)
}

func TestEmployeeImportRepository_CommitRow_RequiresPool(t *testing.T) {
	repo := NewEmployeeImportRepository(false)
	err := repo.CommitRow(context.Background(), newPlan(t, map[string]any{"employee_id": "E-4"}))
	require.ErrorIs(t, err, composables.ErrNoPool)
}

func TestEmployeeImportRepository_ExistingEmployeeIDs(t *testing.T) {
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "FROM hrm_employees")
			require.Contains(t, sql, "= ANY($1)")
			require.Equal(t, []string{"E-1", "E-2"}, args[0])
			return &stubRows{data: [][]any{{"E-2"}}}, nil
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)
	repo := NewEmployeeImportRepository(false)

	got, err := repo.ExistingEmployeeIDs(ctx, []string{"E-1", "E-2"})
	require.NoError(t, err)
	require.Equal(t, map[string]struct{}{"E-2": {}}, got)
}

func TestEmployeeImportRepository_ExistingEmployeeIDs_NoIDsNoQuery(t *testing.T) {
	tx := &stubTx{}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	got, err := NewEmployeeImportRepository(false).ExistingEmployeeIDs(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestEmployeeImportRepository_ExistingEmployeeIDs_PropagatesRowsError(t *testing.T) {
	tx := &stubTx{
		queryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			return &stubRows{err: errors.New("connection reset")}, nil
		},
	}
	ctx := context.WithValue(context.Background(), constants.TxKey, tx)

	_, err := NewEmployeeImportRepository(false).ExistingEmployeeIDs(ctx, []string{"E-1"})
	require.ErrorContains(t, err, "connection reset")
}

func TestUpsertQuery(t *testing.T) {
	q, err := upsertQuery(employee.SubEntityWrite{
		Table:   "hrm_employee_bank",
		Columns: []string{"employee_id", "bank_name", "bank_branch"},
		Values:  []any{"E-1", "BCA", nil},
	})
	require.NoError(t, err)
	require.Equal(t,
		`INSERT INTO "hrm_employee_bank" ("employee_id", "bank_name", "bank_branch") VALUES ($1, $2, $3) `+
			`ON CONFLICT (employee_id) DO UPDATE SET "bank_name" = EXCLUDED."bank_name", "bank_branch" = EXCLUDED."bank_branch", updated_at = now()`,
		q,
	)

	_, err = upsertQuery(employee.SubEntityWrite{Table: "t", Columns: []string{"a"}, Values: nil})
	require.Error(t, err)
	_, err = upsertQuery(employee.SubEntityWrite{Table: "t", Columns: []string{"bank_name"}, Values: []any{"x"}})
	require.Error(t, err)
}

func TestUpsertQuery_KeyOnlyWriteTouchesRow(t *testing.T) {
	q, err := upsertQuery(employee.SubEntityWrite{
		Table:   "hrm_employee_travel",
		Columns: []string{"employee_id"},
		Values:  []any{"E-1"},
	})
	require.NoError(t, err)
	require.Equal(t,
		`INSERT INTO "hrm_employee_travel" ("employee_id") VALUES ($1) ON CONFLICT (employee_id) DO UPDATE SET updated_at = now()`,
		q,
	)
}

func TestEmployeeImportRepository_CommitRow_SetsOnlyCarriedColumns(t *testing.T) {
	pool := &stubPool{}
	ctx := composables.WithPool(context.Background(), pool)
	agg, err := employee.NewAggregate(map[string]any{"employee_id": "E-5", "full_name": "Ana"}, "employee_id", "full_name")
	require.NoError(t, err)

	require.NoError(t, NewEmployeeImportRepository(false).CommitRow(ctx, agg.Plan(employee.ActionUpdate)))

	tx := pool.txs[0]
	require.Contains(t, tx.execs[0].sql, `"full_name" = EXCLUDED."full_name"`)
	require.NotContains(t, tx.execs[0].sql, "date_of_birth")
	for _, call := range tx.execs[1:] {
		require.NotContains(t, call.sql, "EXCLUDED")
		require.Equal(t, []any{"E-5"}, call.args)
	}
}
