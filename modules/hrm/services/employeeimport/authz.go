package employeeimport

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/iota-uz/hrm-import/pkg/composables"
)

const (
	actionDryRun   = "dry_run"
	actionCommit   = "commit"
	actionTemplate = "template"
	actionLogs     = "logs"
)

var authorizeImportFn = defaultAuthorizeImport

func authorizeImport(ctx context.Context, action string) error {
	return authorizeImportFn(ctx, action)
}

// defaultAuthorizeImport trusts the role an upstream gateway verified. HTTP
// requests without one are refused; callers with no request context (the CLI)
// are allowed.
func defaultAuthorizeImport(ctx context.Context, action string) error {
	if _, err := composables.UseRole(ctx); err == nil {
		return nil
	}
	if _, ok := composables.UseParams(ctx); ok {
		return errors.Wrapf(ErrForbidden, "action %s", action)
	}
	return nil
}
