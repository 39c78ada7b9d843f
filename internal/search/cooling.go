package search

import (
	"fmt"
	"math"
	"sort"
)

// Cooling maps the initial temperature and progress to the temperature of
// the current step.
type Cooling func(t0 float64, step, total int) float64

// linearFloor keeps the linear schedule strictly positive.
const linearFloor = 0.001

// Exponential decays by a constant factor per step.
func Exponential(t0 float64, step, _ int) float64 {
	return t0 * math.Pow(0.8, float64(step))
}

// Logarithmic decays with the log of the step.
func Logarithmic(t0 float64, step, _ int) float64 {
	return t0 / (1 + math.Log(1+float64(step)))
}

// Linear decays to the floor at the end of the run.
func Linear(t0 float64, step, total int) float64 {
	if total <= 0 {
		return t0
	}
	t := t0 - float64(step)*t0/float64(total)
	if t <= 0 {
		return linearFloor
	}
	return t
}

// Quadratic decays with the inverse square of the step.
func Quadratic(t0 float64, step, _ int) float64 {
	s := float64(step)
	return t0 / (1 + s*s)
}

var coolings = map[string]Cooling{
	"exponential": Exponential,
	"logarithmic": Logarithmic,
	"linear":      Linear,
	"quadratic":   Quadratic,
}

// CoolingByName returns the schedule registered under name.
func CoolingByName(name string) (Cooling, error) {
	c, ok := coolings[name]
	if !ok {
		return nil, fmt.Errorf("unknown cooling schedule %q (available: %v)", name, CoolingNames())
	}
	return c, nil
}

// CoolingNames lists the registered schedules in sorted order.
func CoolingNames() []string {
	names := make([]string, 0, len(coolings))
	for name := range coolings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
