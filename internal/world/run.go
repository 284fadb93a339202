package world

import (
	"context"
	"math"

	"go.uber.org/zap"

	"github.com/san-kum/jointsim/internal/clock"
	"github.com/san-kum/jointsim/internal/storage"
)

// Run steps the world for duration seconds of sim time and records every
// tick, including the starting state. With a positive real time factor the
// loop is paced against the wall clock. Controller failures are logged and
// the run continues; solver failures and cancellation end it early with the
// partial recording.
func (w *World) Run(ctx context.Context, duration float64) (*storage.Recording, error) {
	if w.finalized {
		return nil, ErrFinalized
	}
	steps := int(math.Round(duration / w.clock.StepSize()))
	rec := &storage.Recording{
		Joints:     w.JointNames(),
		Times:      make([]float64, 0, steps+1),
		Angles:     make([][]float64, 0, steps+1),
		Velocities: make([][]float64, 0, steps+1),
		Torques:    make([][]float64, 0, steps+1),
	}
	record(rec, w.tick())

	pacer := clock.NewPacer(w.wall, w.cfg.Physics.RealTimeFactor)
	pacer.Start(w.clock.SimTime())

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return rec, ctx.Err()
		default:
		}

		if err := w.Step(); err != nil {
			if isSolverError(err) {
				w.logger.Error("solver failed, stopping run", zap.Error(err))
				return rec, err
			}
			w.logger.Warn("controller update failed", zap.Float64("time", w.clock.SimTime()), zap.Error(err))
		}
		record(rec, w.tick())

		if err := pacer.Wait(ctx, w.clock.SimTime()); err != nil {
			return rec, err
		}
	}

	joint, inside := w.LeastStableJoint()
	w.logger.Info("run finished",
		zap.Float64("time", w.clock.SimTime()),
		zap.Int("restarts", w.restarts),
		zap.String("least_stable_joint", joint),
		zap.Float64("least_stable_fraction", inside))
	return rec, nil
}

func record(rec *storage.Recording, t Tick) {
	angles := make([]float64, len(t.Joints))
	velocities := make([]float64, len(t.Joints))
	torques := make([]float64, len(t.Joints))
	for i, j := range t.Joints {
		angles[i] = j.Angle
		velocities[i] = j.Velocity
		torques[i] = j.Torque
	}
	rec.Times = append(rec.Times, t.Time)
	rec.Angles = append(rec.Angles, angles)
	rec.Velocities = append(rec.Velocities, velocities)
	rec.Torques = append(rec.Torques, torques)
}

// Background is a Run in its own goroutine.
type Background struct {
	cancel context.CancelFunc
	done   chan struct{}
	rec    *storage.Recording
	err    error
}

// RunBackground starts Run in a goroutine. The world must not be used by
// the caller until Wait or Stop has returned.
func (w *World) RunBackground(ctx context.Context, duration float64) *Background {
	ctx, cancel := context.WithCancel(ctx)
	b := &Background{cancel: cancel, done: make(chan struct{})}
	go func() {
		defer close(b.done)
		defer cancel()
		b.rec, b.err = w.Run(ctx, duration)
	}()
	return b
}

// Done is closed once the run has returned.
func (b *Background) Done() <-chan struct{} { return b.done }

// Wait blocks until the run returns.
func (b *Background) Wait() (*storage.Recording, error) {
	<-b.done
	return b.rec, b.err
}

// Stop cancels the run and waits for it.
func (b *Background) Stop() (*storage.Recording, error) {
	b.cancel()
	return b.Wait()
}
