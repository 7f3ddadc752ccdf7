package employeeimport

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/hrm-import/modules/hrm/domain/aggregates/employee"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importmapping"
	"github.com/iota-uz/hrm-import/modules/hrm/domain/entities/importrun"
	"github.com/iota-uz/hrm-import/pkg/composables"
	"github.com/iota-uz/hrm-import/pkg/eventbus"
	"github.com/iota-uz/hrm-import/pkg/metrics"
)

// RowStore is the persistence boundary of the pipeline.
type RowStore interface {
	ExistenceChecker
	// CommitRow writes every sub-entity of plan in one transaction.
	CommitRow(ctx context.Context, plan employee.WritePlan) error
}

type ReferenceDataSource interface {
	ReferenceData(ctx context.Context) (importmapping.ReferenceData, error)
}

type DefinitionSource interface {
	Definition(ctx context.Context) (importmapping.Definition, error)
}

type Option func(*Service)

func WithDefaultPolicy(p Policy) Option {
	return func(s *Service) { s.defaultPolicy = p }
}

func WithMetrics(m *metrics.ImportMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

type Service struct {
	store         RowStore
	references    ReferenceDataSource
	definitions   DefinitionSource
	runLogs       RunLogStore
	publisher     eventbus.EventBus
	metrics       *metrics.ImportMetrics
	defaultPolicy Policy
	now           func() time.Time
}

func NewService(
	store RowStore,
	references ReferenceDataSource,
	definitions DefinitionSource,
	runLogs RunLogStore,
	publisher eventbus.EventBus,
	opts ...Option,
) *Service {
	s := &Service{
		store:         store,
		references:    references,
		definitions:   definitions,
		runLogs:       runLogs,
		publisher:     publisher,
		defaultPolicy: PolicyUpdate,
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DryRun validates an upload without touching employee records.
func (s *Service) DryRun(ctx context.Context, req Request) (*importrun.Result, error) {
	if err := authorizeImport(ctx, actionDryRun); err != nil {
		return nil, err
	}
	return s.run(ctx, importrun.ModeDryRun, req)
}

// Commit validates an upload and writes every cleared row in its own transaction.
func (s *Service) Commit(ctx context.Context, req Request) (*importrun.Result, error) {
	if err := authorizeImport(ctx, actionCommit); err != nil {
		return nil, err
	}
	return s.run(ctx, importrun.ModeCommit, req)
}

// Template resolves the expected layout of profile with fresh reference data.
func (s *Service) Template(ctx context.Context, profile string) (Template, error) {
	if err := authorizeImport(ctx, actionTemplate); err != nil {
		return Template{}, err
	}
	p, err := ParseProfile(profile)
	if err != nil {
		return Template{}, err
	}
	def, ref, err := s.loadDefinition(ctx)
	if err != nil {
		return Template{}, err
	}
	return Resolve(p, def, ref)
}

// OpenLog returns a stored run artifact and its content type.
func (s *Service) OpenLog(ctx context.Context, handle string) (io.ReadCloser, string, error) {
	if err := authorizeImport(ctx, actionLogs); err != nil {
		return nil, "", err
	}
	if s.runLogs == nil {
		return nil, "", ErrRunLogsDisabled
	}
	return s.runLogs.Open(handle)
}

func (s *Service) loadDefinition(ctx context.Context) (importmapping.Definition, importmapping.ReferenceData, error) {
	var ref importmapping.ReferenceData
	if s.definitions == nil {
		return importmapping.Definition{}, ref, ErrTemplateUnavailable
	}
	def, err := s.definitions.Definition(ctx)
	if err != nil {
		return importmapping.Definition{}, ref, fmt.Errorf("%w: %w", ErrTemplateUnavailable, err)
	}
	if s.references != nil {
		ref, err = s.references.ReferenceData(ctx)
		if err != nil {
			return importmapping.Definition{}, ref, errors.Wrap(err, "load reference data")
		}
	}
	return def, ref, nil
}

func (s *Service) run(ctx context.Context, mode importrun.Mode, req Request) (*importrun.Result, error) {
	profile, err := ParseProfile(req.Profile)
	if err != nil {
		return nil, err
	}
	policy, err := ParsePolicy(req.Policy, s.defaultPolicy)
	if err != nil {
		return nil, err
	}
	def, ref, err := s.loadDefinition(ctx)
	if err != nil {
		return nil, err
	}
	tmpl, err := Resolve(profile, def, ref)
	if err != nil {
		return nil, err
	}

	result := importrun.NewResult(mode, string(profile), string(policy), req.SourceName, s.now())
	ctx = composables.WithLogger(ctx, composables.UseLogger(ctx).WithFields(logrus.Fields{
		"run_id": result.ID.String(),
		"mode":   string(mode),
	}))

	mapping := NewHeaderMapping(def.Synonyms, definitionHeaders(def))
	plan := mapping.MapColumns(ctx, req.Headers, tmpl.Computed)
	rows := buildRows(plan, req.Rows)
	if len(rows) == 0 {
		result.Fatal = ErrEmptySheet.Error()
		result.Add(importrun.BatchError(ErrEmptySheet.Error()))
		result.FinishedAt = s.now()
		return result, ErrEmptySheet
	}
	if !plan.HasField(employee.FieldEmployeeID) {
		return nil, ErrMissingKeyColumn
	}

	result.Header = ValidateHeaders(tmpl.Headers, req.Headers)
	for _, d := range headerDiagnostics(result.Header) {
		result.Add(d)
	}

	existing, err := PreloadExisting(ctx, s.store, rows)
	if err != nil {
		return nil, err
	}

	mapped := plan.MappedFields()
	seen := make(map[string]int, len(rows))
	for _, row := range rows {
		s.processRow(ctx, result, mode, policy, mapped, row, existing, seen)
	}

	finalize(ctx, result, s.runLogs, s.now())
	s.metrics.ObserveRun(string(mode), result.Duration(), result.Processed, result.Skipped, len(result.RowErrors()))
	if s.publisher != nil {
		role, _ := composables.UseRole(ctx)
		s.publisher.Publish(&importrun.CompletedEvent{Result: result, Role: role})
	}
	logWithFields(ctx, logrus.InfoLevel, "employee import finished", logrus.Fields{
		"rows":      result.Rows,
		"processed": result.Processed,
		"skipped":   result.Skipped,
		"errors":    len(result.Errors()),
		"warnings":  len(result.Warnings()),
	})
	return result, nil
}

// processRow moves one row to a terminal state: rejected, skipped, committed or
// failed. Every path that does not process the row leaves a diagnostic.
func (s *Service) processRow(
	ctx context.Context,
	result *importrun.Result,
	mode importrun.Mode,
	policy Policy,
	mapped []string,
	row Row,
	existing map[string]struct{},
	seen map[string]int,
) {
	result.Rows++
	outcome := validateRow(row, existing, seen, policy)
	for _, d := range outcome.diagnostics {
		result.Add(d)
	}

	switch outcome.disposition {
	case DispositionSkip:
		result.Skipped++
		return
	case DispositionReject:
		if outcome.id != "" {
			result.Skipped++
		}
		return
	}
	if _, dup := seen[outcome.id]; !dup {
		seen[outcome.id] = row.Ordinal
	}
	if mode == importrun.ModeDryRun {
		result.Processed++
		return
	}

	action := employee.ActionInsert
	if outcome.disposition == DispositionUpdate {
		action = employee.ActionUpdate
	}
	agg, err := employee.NewAggregate(outcome.values, mapped...)
	if err != nil {
		result.Add(importrun.RowError(row.Ordinal, "", err.Error()))
		return
	}
	if err := s.store.CommitRow(ctx, agg.Plan(action)); err != nil {
		logWithFields(ctx, logrus.WarnLevel, "employee row commit failed", logrus.Fields{
			"row":         row.Ordinal,
			"employee_id": outcome.id,
			"error":       err.Error(),
		})
		result.Add(importrun.RowError(row.Ordinal, "", fmt.Sprintf("employee_id %s was not saved: %v", outcome.id, err)))
		return
	}
	existing[outcome.id] = struct{}{}
	result.Processed++
	if s.publisher != nil {
		s.publisher.Publish(&employee.ImportedEvent{
			RunID:      result.ID,
			EmployeeID: outcome.id,
			Action:     action,
			Row:        row.Ordinal,
		})
	}
}

func definitionHeaders(def importmapping.Definition) map[string]string {
	out := make(map[string]string, len(def.Columns))
	for _, c := range def.Columns {
		if c.Field != "" {
			out[c.Header] = c.Field
		}
	}
	return out
}
