package metrics

import "fmt"

// Sample is what the world loop hands to run metrics after every tick.
// Angles, Velocities and Forces are indexed like Joints.
type Sample struct {
	Time       float64
	Joints     []string
	Angles     []float64
	Velocities []float64
	Forces     []float64
	Energy     float64
}

func (s Sample) joint(i int) string {
	if i < len(s.Joints) {
		return s.Joints[i]
	}
	return fmt.Sprintf("joint%d", i)
}

type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	// Values is Value under Name plus any per-joint figures under
	// JointKey.
	Values() map[string]float64
	Reset()
}

// JointKey names a per-joint figure of a metric, e.g. "stability.elbow".
func JointKey(metric, joint string) string {
	return metric + "." + joint
}

// Defaults returns the metrics recorded for every saved run.
func Defaults(angleLimit float64) []Metric {
	return []Metric{
		NewEnergyDrift(),
		NewStability(angleLimit),
		NewControlEffort(),
	}
}

// jointSet keeps joints in the order they were first observed.
type jointSet struct {
	order []string
	index map[string]int
}

func (j *jointSet) slot(name string) int {
	if j.index == nil {
		j.index = make(map[string]int)
	}
	i, ok := j.index[name]
	if !ok {
		i = len(j.order)
		j.index[name] = i
		j.order = append(j.order, name)
	}
	return i
}

func (j *jointSet) reset() {
	j.order = nil
	j.index = nil
}
