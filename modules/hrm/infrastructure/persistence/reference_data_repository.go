package persistence

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importmapping"
	"github.com/iota-uz/hrm-import/pkg/composables"
)

const (
	selectDepartmentsQuery = `SELECT name FROM hrm_departments ORDER BY name`
	selectOptionsQuery     = `SELECT list_name, value FROM hrm_reference_options ORDER BY list_name, position, value`
)

type ReferenceDataRepository struct{}

func NewReferenceDataRepository() *ReferenceDataRepository {
	return &ReferenceDataRepository{}
}

// ReferenceData reads option lists fresh on every call.
func (r *ReferenceDataRepository) ReferenceData(ctx context.Context) (importmapping.ReferenceData, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return importmapping.ReferenceData{}, err
	}
	out := importmapping.ReferenceData{Options: map[string][]string{}}

	rows, err := tx.Query(ctx, selectDepartmentsQuery)
	if err != nil {
		return importmapping.ReferenceData{}, errors.Wrap(err, "query departments")
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return importmapping.ReferenceData{}, errors.Wrap(err, "scan department")
		}
		out.Departments = append(out.Departments, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return importmapping.ReferenceData{}, errors.Wrap(err, "iterate departments")
	}

	rows, err = tx.Query(ctx, selectOptionsQuery)
	if err != nil {
		return importmapping.ReferenceData{}, errors.Wrap(err, "query reference options")
	}
	defer rows.Close()
	for rows.Next() {
		var list, value string
		if err := rows.Scan(&list, &value); err != nil {
			return importmapping.ReferenceData{}, errors.Wrap(err, "scan reference option")
		}
		out.Options[list] = append(out.Options[list], value)
	}
	if err := rows.Err(); err != nil {
		return importmapping.ReferenceData{}, errors.Wrap(err, "iterate reference options")
	}
	return out, nil
}
