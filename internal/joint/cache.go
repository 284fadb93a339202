package joint

import (
	"github.com/san-kum/jointsim/internal/solver"
)

// MobilityState is a copy of one joint's generalized coordinates and
// velocities, independent of any solver state object.
type MobilityState struct {
	Positions  []float64 `json:"positions"`
	Velocities []float64 `json:"velocities"`
}

// Empty reports whether the cache has never been sized.
func (c *MobilityState) Empty() bool {
	return len(c.Positions) == 0 && len(c.Velocities) == 0
}

func (c MobilityState) Clone() MobilityState {
	out := MobilityState{
		Positions:  make([]float64, len(c.Positions)),
		Velocities: make([]float64, len(c.Velocities)),
	}
	copy(out.Positions, c.Positions)
	copy(out.Velocities, c.Velocities)
	return out
}

// save sizes each sequence on first use only, then copies from s.
func (c *MobilityState) save(m Mobilizer, s *solver.State) {
	if len(c.Positions) == 0 {
		c.Positions = make([]float64, m.NumQ(s))
	}
	if len(c.Velocities) == 0 {
		c.Velocities = make([]float64, m.NumU(s))
	}

	for i := range c.Positions {
		c.Positions[i] = m.OneQ(s, i)
	}
	for i := range c.Velocities {
		c.Velocities[i] = m.OneU(s, i)
	}
}

func (c *MobilityState) restore(m Mobilizer, s *solver.State) {
	for i, q := range c.Positions {
		m.SetOneQ(s, i, q)
	}
	for i, u := range c.Velocities {
		m.SetOneU(s, i, u)
	}
}
