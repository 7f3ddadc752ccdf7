package employeeimport

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/pkg/composables"
)

func logWithFields(ctx context.Context, level logrus.Level, msg string, fields logrus.Fields) {
	entry := composables.UseLogger(ctx).WithField("component", "hrm.employee_import")
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	entry.Log(level, msg)
}
