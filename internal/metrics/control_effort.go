package metrics

import "math"

// ControlEffort is the mean over ticks of the summed absolute joint torque.
// Per joint it keeps the mean absolute torque and the peak.
type ControlEffort struct {
	ticks int

	joints jointSet
	sum    []float64
	peak   []float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{}
}

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(s Sample) {
	c.ticks++
	for i, tau := range s.Forces {
		j := c.joints.slot(s.joint(i))
		if j == len(c.sum) {
			c.sum = append(c.sum, 0)
			c.peak = append(c.peak, 0)
		}
		a := math.Abs(tau)
		c.sum[j] += a
		c.peak[j] = math.Max(c.peak[j], a)
	}
}

func (c *ControlEffort) Value() float64 {
	if c.ticks == 0 {
		return 0
	}
	total := 0.0
	for _, s := range c.sum {
		total += s
	}
	return total / float64(c.ticks)
}

// Joint returns the mean absolute torque and the peak torque of one joint.
func (c *ControlEffort) Joint(name string) (mean, peak float64, ok bool) {
	j, ok := c.joints.index[name]
	if !ok || c.ticks == 0 {
		return 0, 0, false
	}
	return c.sum[j] / float64(c.ticks), c.peak[j], true
}

func (c *ControlEffort) Values() map[string]float64 {
	out := map[string]float64{c.Name(): c.Value()}
	for _, name := range c.joints.order {
		mean, peak, _ := c.Joint(name)
		out[JointKey(c.Name(), name)] = mean
		out[JointKey("peak_torque", name)] = peak
	}
	return out
}

func (c *ControlEffort) Reset() {
	c.ticks = 0
	c.joints.reset()
	c.sum = nil
	c.peak = nil
}
