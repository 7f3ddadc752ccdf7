package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
	"github.com/iota-uz/hrm-import/pkg/application"
)

// ImportEventsHandler writes the audit trail of employee imports.
type ImportEventsHandler struct {
	logger *logrus.Logger
}

func RegisterImportEventHandlers(app application.Application) *ImportEventsHandler {
	handler := &ImportEventsHandler{logger: app.Logger()}
	app.EventPublisher().Subscribe(handler.onRunCompleted)
	app.EventPublisher().Subscribe(handler.onEmployeeImported)
	return handler
}

func (h *ImportEventsHandler) onRunCompleted(event *importrun.CompletedEvent) {
	if event == nil || event.Result == nil {
		return
	}
	r := event.Result
	entry := h.logger.WithFields(logrus.Fields{
		"audit":     "hrm.employee_import.run",
		"run_id":    r.ID.String(),
		"mode":      string(r.Mode),
		"profile":   r.Profile,
		"policy":    r.Policy,
		"source":    r.SourceName,
		"role":      event.Role,
		"rows":      r.Rows,
		"processed": r.Processed,
		"skipped":   r.Skipped,
		"errors":    len(r.Errors()),
		"warnings":  len(r.Warnings()),
		"log":       r.LogHandle,
	})
	if r.Success() {
		entry.Info("employee import run completed")
		return
	}
	entry.Warn("employee import run completed with errors")
}

func (h *ImportEventsHandler) onEmployeeImported(event *employee.ImportedEvent) {
	if event == nil {
		return
	}
	h.logger.WithFields(logrus.Fields{
		"audit":       "hrm.employee_import.row",
		"run_id":      event.RunID.String(),
		"employee_id": event.EmployeeID,
		"action":      string(event.Action),
		"row":         event.Row,
	}).Info("employee record imported")
}
