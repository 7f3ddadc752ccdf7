package employeeimport

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
)

// Disposition is what happens to one row given existing keys and policy.
type Disposition string

const (
	DispositionInsert Disposition = "insert"
	DispositionUpdate Disposition = "update"
	DispositionSkip   Disposition = "skip"
	DispositionReject Disposition = "reject"
)

// ExistenceChecker answers which of ids are already stored.
type ExistenceChecker interface {
	ExistingEmployeeIDs(ctx context.Context, ids []string) (map[string]struct{}, error)
}

// PreloadExisting runs one existence query for every distinct non-blank
// employee_id of the batch. A batch with no ids issues no query.
func PreloadExisting(ctx context.Context, checker ExistenceChecker, rows []Row) (map[string]struct{}, error) {
	seen := map[string]struct{}{}
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		id := rowEmployeeID(r)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return map[string]struct{}{}, nil
	}
	existing, err := checker.ExistingEmployeeIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "preload existing employee ids")
	}
	if existing == nil {
		existing = map[string]struct{}{}
	}
	logWithFields(ctx, logrus.DebugLevel, "existing employees preloaded", logrus.Fields{
		"ids":      len(ids),
		"existing": len(existing),
	})
	return existing, nil
}

// Classify applies policy to one employee_id.
func Classify(id string, existing map[string]struct{}, policy Policy) Disposition {
	if _, ok := existing[id]; !ok {
		return DispositionInsert
	}
	switch policy {
	case PolicySkip:
		return DispositionSkip
	case PolicyError:
		return DispositionReject
	default:
		return DispositionUpdate
	}
}

func rowEmployeeID(r Row) string {
	return strings.TrimSpace(cellString(r.Values[employee.FieldEmployeeID]))
}
