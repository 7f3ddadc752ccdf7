package employeeimport

import "github.com/go-faster/errors"

// Definitional errors. Any of these stops a run before the row loop.
var (
	ErrUnknownProfile      = errors.New("unknown import profile")
	ErrUnknownPolicy       = errors.New("unknown duplicate policy")
	ErrTemplateUnavailable = errors.New("column mapping definition unavailable")
	ErrEmptySheet          = errors.New("uploaded file is empty")
	ErrMissingKeyColumn    = errors.New("uploaded file has no employee_id column")
	ErrForbidden           = errors.New("employee import is not allowed for this caller")
	ErrRunLogsDisabled     = errors.New("run log storage is not configured")
)

// IsDefinitional reports whether err rejects the whole request as a client error.
func IsDefinitional(err error) bool {
	return errors.Is(err, ErrUnknownProfile) ||
		errors.Is(err, ErrUnknownPolicy) ||
		errors.Is(err, ErrTemplateUnavailable) ||
		errors.Is(err, ErrEmptySheet) ||
		errors.Is(err, ErrMissingKeyColumn)
}
