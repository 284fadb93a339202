package world

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/san-kum/jointsim/internal/storage"
)

// Snapshot saves every joint into its cache and returns the caches.
func (w *World) Snapshot() *storage.Snapshot {
	snap := &storage.Snapshot{
		World:  w.cfg.Name,
		Time:   w.clock.SimTime(),
		Joints: make([]storage.JointSnapshot, 0, len(w.joints)),
	}
	for _, h := range w.joints {
		h.SaveState(w.system.State())
		c := h.Cache()
		snap.Joints = append(snap.Joints, storage.JointSnapshot{
			Name:       h.Name(),
			Positions:  c.Positions,
			Velocities: c.Velocities,
		})
	}
	return snap
}

// RestoreSnapshot loads each joint's cache from snap and writes it into the
// live state. Joints missing from snap keep their state, as do the positions
// or velocities of a joint whose snapshot leaves them empty. Unknown joints
// and sequences whose length differs from the solver's are an error and
// nothing is restored.
func (w *World) RestoreSnapshot(snap *storage.Snapshot) error {
	if w.finalized {
		return ErrFinalized
	}
	state := w.system.State()
	for _, js := range snap.Joints {
		idx, ok := w.jointIndex[js.Name]
		if !ok {
			return fmt.Errorf("snapshot %s: unknown joint %s", snap.ID, js.Name)
		}
		mobod := w.mobods[idx]
		if n := len(js.Positions); n != 0 && n != mobod.NumQ(state) {
			return fmt.Errorf("%w: %s has %d positions, want %d", ErrSnapshotLayout, js.Name, n, mobod.NumQ(state))
		}
		if n := len(js.Velocities); n != 0 && n != mobod.NumU(state) {
			return fmt.Errorf("%w: %s has %d velocities, want %d", ErrSnapshotLayout, js.Name, n, mobod.NumU(state))
		}
	}
	if snap.World != "" && snap.World != w.cfg.Name {
		w.logger.Warn("restoring snapshot from another world",
			zap.String("snapshot", snap.ID), zap.String("from", snap.World), zap.String("into", w.cfg.Name))
	}

	for _, js := range snap.Joints {
		h, _ := w.Joint(js.Name)
		h.SaveState(state)
		c := h.Cache()
		if len(js.Positions) != 0 {
			copy(c.Positions, js.Positions)
		}
		if len(js.Velocities) != 0 {
			copy(c.Velocities, js.Velocities)
		}
		h.SetCache(c)
		h.RestoreState(state)
	}
	return nil
}
