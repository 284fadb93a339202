package sweep

import (
	"context"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/jointsim/internal/config"
	"github.com/san-kum/jointsim/internal/world"
)

// BuildFunc returns a fresh base config for one grid point.
type BuildFunc func() (*config.Config, error)

type Point struct {
	Params   map[string]float64
	Metrics  map[string]float64
	Restarts int
	Err      error
}

type Runner struct {
	workers int
	logger  *zap.Logger
}

func NewRunner(workers int, logger *zap.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{workers: workers, logger: logger}
}

// Run simulates every point of grid, at most workers at a time. Per point
// failures are kept on the point. The returned error combines them and is
// nil only if every point ran.
func (r *Runner) Run(ctx context.Context, grid *Grid, build BuildFunc) ([]Point, error) {
	params := grid.Points()
	points := make([]Point, len(params))

	var g errgroup.Group
	g.SetLimit(r.workers)
	for i, p := range params {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				points[i] = Point{Params: p, Err: err}
				return nil
			}
			points[i] = r.runPoint(ctx, i, p, build)
			return nil
		})
	}
	_ = g.Wait()

	var err error
	for _, p := range points {
		if p.Err != nil {
			err = multierr.Append(err, fmt.Errorf("%v: %w", p.Params, p.Err))
		}
	}
	return points, err
}

func (r *Runner) runPoint(ctx context.Context, idx int, params map[string]float64, build BuildFunc) Point {
	pt := Point{Params: params}
	cfg, err := build()
	if err != nil {
		pt.Err = err
		return pt
	}
	// sweeps never pace against the wall clock
	cfg.Physics.RealTimeFactor = 0
	if err := Apply(cfg, params); err != nil {
		pt.Err = err
		return pt
	}

	logger := r.logger.With(zap.Int("point", idx))
	w, err := world.New(cfg, world.WithLogger(logger))
	if err != nil {
		pt.Err = err
		return pt
	}
	_, runErr := w.Run(ctx, cfg.Duration)
	pt.Metrics = w.Metrics()
	pt.Restarts = w.Restarts()
	pt.Err = multierr.Append(runErr, w.Fini())
	logger.Debug("point done", zap.Any("params", params), zap.Error(pt.Err))
	return pt
}

// Rank orders the successful points by metric, lowest first.
func Rank(points []Point, metric string) []Point {
	var ok []Point
	for _, p := range points {
		if p.Err != nil {
			continue
		}
		if v, found := p.Metrics[metric]; found && !math.IsNaN(v) {
			ok = append(ok, p)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].Metrics[metric] < ok[j].Metrics[metric]
	})
	return ok
}
