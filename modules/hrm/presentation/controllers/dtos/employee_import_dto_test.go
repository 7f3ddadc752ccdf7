package dtos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
)

func TestImportForm_Ok(t *testing.T) {
	errs, ok := (&ImportForm{Profile: "expat_active"}).Ok()
	require.True(t, ok)
	require.Empty(t, errs)

	errs, ok = (&ImportForm{DuplicatePolicy: "merge"}).Ok()
	require.False(t, ok)
	require.Equal(t, "Profile is required", errs["Profile"])
	require.Equal(t, "DuplicatePolicy must be one of: update skip error", errs["DuplicatePolicy"])
}

func TestResponses(t *testing.T) {
	r := importrun.NewResult(importrun.ModeCommit, "expat_active", "update", "f.csv", time.Now())
	r.Rows = 3
	r.Processed = 2
	r.Skipped = 1
	r.LogHandle = "a.json"
	r.Add(importrun.HeaderWarning("", "unexpected column"))
	r.Add(importrun.RowError(4, "employee_id", "employee_id E1 already exists"))
	r.Add(importrun.RowWarning(2, "join_date", "bad date"))

	logURL := func(h string) string { return "/logs/" + h }

	dry := NewDryRunResponse(r, logURL)
	require.False(t, dry.Success)
	require.Equal(t, DryRunSummary{Rows: 3, Processed: 2, Skipped: 1, Errors: 1, Warnings: 1}, dry.Summary)
	require.Equal(t, []int{4}, dry.RowErrors)
	require.Equal(t, []Diagnostic{{Row: 4, Column: "employee_id", Message: "employee_id E1 already exists"}}, dry.Errors)
	require.Equal(t, "/logs/a.json", dry.LogURL)
	require.Empty(t, dry.LogCSVURL)

	commit := NewCommitResponse(r, logURL)
	require.Equal(t, CommitSummary{Rows: 3, ProcessedRows: 2, Errors: 1, Warnings: 1}, commit.Summary)
	require.Len(t, commit.Warnings, 1)
}
