package csvmap

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics of a factory and the mappers built from it.
type Metrics struct {
	Rows             prometheus.Counter
	Objects          prometheus.Counter
	CellErrors       prometheus.Counter
	PlansBuilt       prometheus.Counter
	PlanCacheLookups *prometheus.CounterVec
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	rows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatmapper_rows_total",
		Help: "Total rows read from sources",
	})

	objects := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatmapper_objects_total",
		Help: "Total objects produced",
	})

	cellErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatmapper_cell_errors_total",
		Help: "Total cells that failed to decode",
	})

	plansBuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "flatmapper_plans_built_total",
		Help: "Total mapping plans built",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flatmapper_plan_cache_lookups_total",
		Help: "Plan cache lookups of dynamic mappers, by result",
	}, []string{"result"})

	reg.MustRegister(rows, objects, cellErrors, plansBuilt, cacheLookups)

	return &Metrics{
		Rows:             rows,
		Objects:          objects,
		CellErrors:       cellErrors,
		PlansBuilt:       plansBuilt,
		PlanCacheLookups: cacheLookups,
	}
}
