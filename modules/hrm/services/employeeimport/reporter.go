package employeeimport

import (
	"context"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
)

type Handles = importrun.LogHandles

// RunLogStore persists a finalized result as paired JSON and CSV artifacts
// and hands them back by handle.
type RunLogStore interface {
	Persist(ctx context.Context, result *importrun.Result) (Handles, error)
	Open(handle string) (io.ReadCloser, string, error)
}

// finalize stamps the result and stores its artifacts. A storage failure is
// reported as a batch warning; the run itself stands.
func finalize(ctx context.Context, result *importrun.Result, store RunLogStore, now time.Time) {
	result.FinishedAt = now
	if store == nil {
		return
	}
	handles, err := store.Persist(ctx, result)
	if err != nil {
		logWithFields(ctx, logrus.ErrorLevel, "persist run log failed", logrus.Fields{
			"run_id": result.ID.String(),
			"error":  err.Error(),
		})
		result.Add(importrun.BatchWarning("run log could not be written"))
		return
	}
	result.LogHandle = handles.JSON
	result.LogCSVHandle = handles.CSV
}
