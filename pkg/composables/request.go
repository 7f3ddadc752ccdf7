package composables

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/pkg/constants"
)

var (
	ErrNoLogger = errors.New("logger not found")
	ErrNoRole   = errors.New("no role found in context")
)

type Params struct {
	IP        string
	UserAgent string
	RequestID string
	Request   *http.Request
	Writer    http.ResponseWriter
}

// UseParams returns the request parameters from the context.
// If the parameters are not found, the second return value will be false.
func UseParams(ctx context.Context) (*Params, bool) {
	params, ok := ctx.Value(constants.ParamsKey).(*Params)
	return params, ok
}

// WithParams returns a new context with the request parameters.
func WithParams(ctx context.Context, params *Params) context.Context {
	return context.WithValue(ctx, constants.ParamsKey, params)
}

func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the request logger, or an entry on the standard logger
// when the context carries none.
func UseLogger(ctx context.Context) *logrus.Entry {
	switch typed := ctx.Value(constants.LoggerKey).(type) {
	case *logrus.Entry:
		return typed
	case *logrus.Logger:
		return logrus.NewEntry(typed)
	default:
		return logrus.NewEntry(logrus.StandardLogger())
	}
}

// WithRole attaches the caller's already-verified role.
func WithRole(ctx context.Context, role string) context.Context {
	return context.WithValue(ctx, constants.RoleKey, role)
}

func UseRole(ctx context.Context) (string, error) {
	role, ok := ctx.Value(constants.RoleKey).(string)
	if !ok || role == "" {
		return "", ErrNoRole
	}
	return role, nil
}
