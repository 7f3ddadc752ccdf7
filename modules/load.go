package modules

import (
	"github.com/iota-uz/hrm-import/modules/hrm"
	"github.com/iota-uz/hrm-import/pkg/application"
	"github.com/iota-uz/hrm-import/pkg/configuration"
	"github.com/iota-uz/hrm-import/pkg/metrics"
)

// BuiltInModules lists the modules every binary registers.
func BuiltInModules(conf *configuration.Configuration, m *metrics.ImportMetrics) []application.Module {
	return []application.Module{
		hrm.NewModule(&hrm.ModuleOptions{
			Import:  conf.Import,
			Metrics: m,
		}),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	return application.LoadModules(app, externalModules...)
}
