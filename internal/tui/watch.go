// Package tui renders a live view of a running world.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/jointsim/internal/world"
)

const historyLen = 60

// TickMsg carries one world tick into the program.
type TickMsg world.Tick

// DoneMsg reports that the world stopped producing ticks.
type DoneMsg struct{ Err error }

// Model is a read-only view over ticks produced by a world running in
// another goroutine.
type Model struct {
	name     string
	ticks    <-chan world.Tick
	done     <-chan error
	last     world.Tick
	history  map[string][]float64
	frames   int
	paused   bool
	finished bool
	err      error
	width    int
}

func New(name string, ticks <-chan world.Tick, done <-chan error) Model {
	return Model{
		name:    name,
		ticks:   ticks,
		done:    done,
		history: make(map[string][]float64),
		width:   80,
	}
}

func waitForTick(ticks <-chan world.Tick, done <-chan error) tea.Cmd {
	return func() tea.Msg {
		t, ok := <-ticks
		if !ok {
			var err error
			if done != nil {
				err = <-done
			}
			return DoneMsg{Err: err}
		}
		return TickMsg(t)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForTick(m.ticks, m.done)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ", "p":
			m.paused = !m.paused
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case TickMsg:
		if !m.paused {
			m.record(world.Tick(msg))
		}
		return m, waitForTick(m.ticks, m.done)
	case DoneMsg:
		m.finished = true
		m.err = msg.Err
		return m, nil
	}
	return m, nil
}

func (m *Model) record(t world.Tick) {
	m.last = t
	m.frames++
	for _, j := range t.Joints {
		h := append(m.history[j.Name], j.Angle)
		if len(h) > historyLen {
			h = h[len(h)-historyLen:]
		}
		m.history[j.Name] = h
	}
}

func (m Model) status() string {
	switch {
	case m.finished && m.err != nil:
		return statusDone.Render("stopped: " + m.err.Error())
	case m.finished:
		return statusDone.Render("finished")
	case m.paused:
		return statusPaused.Render("paused")
	default:
		return statusRunning.Render("running")
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(header.Render(fmt.Sprintf("%s  %s", title.Render(m.name), m.status())))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		metricLabel.Render("t"), metricValue.Render(fmt.Sprintf("%.3fs", m.last.Time)),
		metricLabel.Render("energy"), metricValue.Render(fmt.Sprintf("%.4f", m.last.Energy)),
		metricLabel.Render("restarts"), metricValue.Render(fmt.Sprintf("%d", m.last.Restarts)),
	))

	var joints strings.Builder
	for _, j := range m.last.Joints {
		joints.WriteString(fmt.Sprintf("%-14s %s %8.4f  %s %8.4f  %s %7.3f\n",
			j.Name,
			metricLabel.Render("q"), j.Angle,
			metricLabel.Render("u"), j.Velocity,
			metricLabel.Render("tau"), j.Torque,
		))
		joints.WriteString(fmt.Sprintf("%-14s %s\n", "", sparkline(m.history[j.Name], historyLen)))
	}
	if len(m.last.Joints) == 0 {
		joints.WriteString(subtle.Render("no joints"))
	}
	b.WriteString(panel.Render(strings.TrimRight(joints.String(), "\n")))
	b.WriteString("\n")

	if len(m.last.Controllers) > 0 {
		var ctrls strings.Builder
		for _, c := range m.last.Controllers {
			state := subtle.Render("idle")
			if c.Active {
				state = statusRunning.Render("active")
			}
			ctrls.WriteString(fmt.Sprintf("%-18s %-22s %6.1f Hz  last %.3fs  %s\n",
				c.Name, subtle.Render(c.Type), c.Rate, c.LastUpdate, state))
		}
		b.WriteString(panel.Render(strings.TrimRight(ctrls.String(), "\n")))
		b.WriteString("\n")
	}

	b.WriteString(keyHint.Render("space pause  q quit"))
	return b.String()
}

// Frames is the number of ticks rendered so far.
func (m Model) Frames() int { return m.frames }
