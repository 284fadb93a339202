package controller

import (
	"errors"
	"math"
)

var ErrNegativeRate = errors.New("controller: update rate must not be negative")

// Schedule decides whether a periodic update is due on the simulation clock.
// The zero value runs on every tick.
type Schedule struct {
	rate       float64
	period     float64
	lastUpdate float64
}

// SetUpdateRate sets the rate in Hz. A rate of 0 runs on every tick.
func (s *Schedule) SetUpdateRate(rate float64) error {
	if rate < 0 || math.IsNaN(rate) {
		return ErrNegativeRate
	}
	s.rate = rate
	if rate == 0 {
		s.period = 0
	} else {
		s.period = 1.0 / rate
	}
	return nil
}

func (s *Schedule) UpdateRate() float64 { return s.rate }

func (s *Schedule) UpdatePeriod() float64 { return s.period }

func (s *Schedule) LastUpdate() float64 { return s.lastUpdate }

// Init anchors the schedule at now.
func (s *Schedule) Init(now float64) {
	s.lastUpdate = now
}

// Due reports whether a full period has elapsed since the last update,
// counted in whole physics steps. A non-positive step compares the times
// directly.
func (s *Schedule) Due(now, step float64) bool {
	slack := now - s.lastUpdate - s.period
	if step <= 0 {
		return slack >= 0
	}
	return math.Floor(slack/step) >= 0
}

func (s *Schedule) MarkUpdated(now float64) {
	s.lastUpdate = now
}
