package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Update outcomes reported by controllers.
const (
	OutcomeRan      = "ran"
	OutcomeNotDue   = "not_due"
	OutcomeInactive = "inactive"
	OutcomeFailed   = "failed"
)

// Collector owns the Prometheus series exported by a world. All methods are
// safe on a nil receiver so packages can take an optional collector.
type Collector struct {
	controllerUpdates *prometheus.CounterVec
	jointRangeErrors  *prometheus.CounterVec
	solverRestarts    prometheus.Counter
	tickDuration      prometheus.Histogram
	simTime           prometheus.Gauge
}

func NewCollector() *Collector {
	return &Collector{
		controllerUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jointsim_controller_updates_total",
				Help: "Controller update gate decisions by outcome",
			},
			[]string{"controller", "outcome"},
		),
		jointRangeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jointsim_joint_range_errors_total",
				Help: "Joint accesses with a mobility index out of range",
			},
			[]string{"joint", "op"},
		),
		solverRestarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jointsim_solver_restarts_total",
			Help: "Solver state rebuilds with joint state carried over",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jointsim_tick_duration_seconds",
			Help:    "Wall time spent per simulation tick",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		simTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "jointsim_sim_time_seconds",
			Help: "Current simulation time",
		}),
	}
}

// Register adds every series to reg.
func (c *Collector) Register(reg prometheus.Registerer) error {
	for _, col := range []prometheus.Collector{
		c.controllerUpdates, c.jointRangeErrors, c.solverRestarts, c.tickDuration, c.simTime,
	} {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) ControllerUpdate(controller, outcome string) {
	if c == nil {
		return
	}
	c.controllerUpdates.WithLabelValues(controller, outcome).Inc()
}

func (c *Collector) JointRangeError(joint, op string) {
	if c == nil {
		return
	}
	c.jointRangeErrors.WithLabelValues(joint, op).Inc()
}

func (c *Collector) SolverRestart() {
	if c == nil {
		return
	}
	c.solverRestarts.Inc()
}

func (c *Collector) ObserveTick(d time.Duration, simTime float64) {
	if c == nil {
		return
	}
	c.tickDuration.Observe(d.Seconds())
	c.simTime.Set(simTime)
}
