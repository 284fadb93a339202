package metrics

import "math"

// Stability is the fraction of ticks on which every joint angle stayed
// within the limit. A NaN angle counts as outside. Each joint's own
// fraction is kept as well so the joint that escaped most can be named.
type Stability struct {
	limit   float64
	ticks   int
	escaped int

	joints  jointSet
	outside []int
}

func NewStability(limit float64) *Stability {
	return &Stability{limit: limit}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(sample Sample) {
	s.ticks++
	escaped := false
	for i, q := range sample.Angles {
		j := s.joints.slot(sample.joint(i))
		if j == len(s.outside) {
			s.outside = append(s.outside, 0)
		}
		if math.IsNaN(q) || math.Abs(q) > s.limit {
			s.outside[j]++
			escaped = true
		}
	}
	if escaped {
		s.escaped++
	}
}

func (s *Stability) fraction(outside int) float64 {
	if s.ticks == 0 {
		return 1
	}
	return 1 - float64(outside)/float64(s.ticks)
}

func (s *Stability) Value() float64 { return s.fraction(s.escaped) }

// Worst returns the joint that spent the most ticks outside the limit and
// its fraction of ticks inside. Ties go to the joint observed first. With
// no joints observed it returns "" and 1.
func (s *Stability) Worst() (string, float64) {
	worst := -1
	for j, n := range s.outside {
		if worst < 0 || n > s.outside[worst] {
			worst = j
		}
	}
	if worst < 0 {
		return "", 1
	}
	return s.joints.order[worst], s.fraction(s.outside[worst])
}

func (s *Stability) Values() map[string]float64 {
	out := map[string]float64{s.Name(): s.Value()}
	for j, name := range s.joints.order {
		out[JointKey(s.Name(), name)] = s.fraction(s.outside[j])
	}
	return out
}

func (s *Stability) Reset() {
	s.ticks = 0
	s.escaped = 0
	s.joints.reset()
	s.outside = nil
}
