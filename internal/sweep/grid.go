// Package sweep runs a world across a grid of controller and physics
// settings and ranks the results by a metric.
package sweep

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/jointsim/internal/config"
)

var ErrBadParam = errors.New("sweep: bad parameter")

// Grid is the cartesian product of named value lists. Names are either
// "physics.step_size" or "<controller>.<setting>", where setting is
// update_rate or a plugin parameter.
type Grid struct {
	names  []string
	values [][]float64
}

func NewGrid(names []string, values [][]float64) (*Grid, error) {
	if len(names) != len(values) {
		return nil, fmt.Errorf("%w: %d names for %d value lists", ErrBadParam, len(names), len(values))
	}
	for i, name := range names {
		if len(values[i]) == 0 {
			return nil, fmt.Errorf("%w: %s has no values", ErrBadParam, name)
		}
	}
	return &Grid{names: names, values: values}, nil
}

// ParseGrid reads flag values of the form "hold.kp=10,20,40".
func ParseGrid(specs []string) (*Grid, error) {
	names := make([]string, 0, len(specs))
	values := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q is not name=v1,v2", ErrBadParam, spec)
		}
		var vals []float64
		for _, s := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %v", ErrBadParam, name, err)
			}
			vals = append(vals, v)
		}
		names = append(names, name)
		values = append(values, vals)
	}
	return NewGrid(names, values)
}

func (g *Grid) Names() []string { return append([]string(nil), g.names...) }

// Points enumerates every combination, varying the last name fastest.
func (g *Grid) Points() []map[string]float64 {
	var out []map[string]float64
	g.walk(0, map[string]float64{}, &out)
	return out
}

func (g *Grid) walk(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.names) {
		*out = append(*out, current)
		return
	}
	for _, v := range g.values[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, cv := range current {
			next[k] = cv
		}
		next[g.names[depth]] = v
		g.walk(depth+1, next, out)
	}
}

// Apply writes params into cfg.
func Apply(cfg *config.Config, params map[string]float64) error {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := params[key]
		target, setting, ok := strings.Cut(key, ".")
		if !ok || setting == "" {
			return fmt.Errorf("%w: %q", ErrBadParam, key)
		}
		if target == "physics" {
			if setting != "step_size" {
				return fmt.Errorf("%w: physics.%s cannot be swept", ErrBadParam, setting)
			}
			cfg.Physics.StepSize = v
			continue
		}

		idx := -1
		for i := range cfg.Controllers {
			if cfg.Controllers[i].Name == target {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: no controller %q", ErrBadParam, target)
		}
		c := &cfg.Controllers[idx]
		if setting == "update_rate" {
			c.UpdateRate = config.Float(v)
			continue
		}
		params := make(map[string]any, len(c.Params)+1)
		for pk, pv := range c.Params {
			params[pk] = pv
		}
		params[setting] = v
		c.Params = params
	}
	return cfg.Validate()
}
