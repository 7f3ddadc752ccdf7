package hrm

import (
	"github.com/iota-uz/hrm-import/modules/hrm/handlers"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/columnmap"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/persistence"
	"github.com/iota-uz/hrm-import/modules/hrm/infrastructure/runlog"
	"github.com/iota-uz/hrm-import/modules/hrm/presentation/controllers"
	"github.com/iota-uz/hrm-import/modules/hrm/services/employeeimport"
	"github.com/iota-uz/hrm-import/pkg/application"
	"github.com/iota-uz/hrm-import/pkg/configuration"
	"github.com/iota-uz/hrm-import/pkg/metrics"
)

type ModuleOptions struct {
	Import  configuration.ImportOptions
	Metrics *metrics.ImportMetrics
}

func NewModule(opts *ModuleOptions) application.Module {
	return &Module{options: opts}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	service, err := NewImportService(app, m.options.Import, m.options.Metrics)
	if err != nil {
		return err
	}
	app.RegisterServices(service)
	app.RegisterControllers(
		controllers.NewEmployeeImportController(app, controllers.EmployeeImportControllerOptions{
			MaxUploadSize: m.options.Import.MaxUploadSize,
		}),
	)
	handlers.RegisterImportEventHandlers(app)
	return nil
}

func (m *Module) Name() string {
	return "hrm"
}

// NewImportService assembles the pipeline over the Postgres store, the YAML
// column mapping and the on-disk run logs.
func NewImportService(app application.Application, conf configuration.ImportOptions, m *metrics.ImportMetrics) (*employeeimport.Service, error) {
	policy, err := employeeimport.ParsePolicy(conf.DefaultPolicy, employeeimport.PolicyUpdate)
	if err != nil {
		return nil, err
	}
	return employeeimport.NewService(
		persistence.NewEmployeeImportRepository(conf.AdvisoryLock),
		persistence.NewReferenceDataRepository(),
		columnmap.NewFileLoader(conf.MappingPath),
		runlog.NewStore(conf.LogsDir),
		app.EventPublisher(),
		employeeimport.WithDefaultPolicy(policy),
		employeeimport.WithMetrics(m),
	), nil
}
