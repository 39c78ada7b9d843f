package search

import "time"

// Observer receives progress events from the search strategies. Methods
// are called synchronously from the search loop and must be cheap.
type Observer interface {
	// OnStep is called after every mutation step or generation.
	OnStep(strategy string, step int, current float64, accepted bool)
	// OnImprovement is called whenever the best known schedule changes.
	OnImprovement(strategy string, step int, best float64)
	// OnPopulation is called once a population has been built. distinct
	// counts the different schedules in it and deadEnds the builds that
	// stopped before every order was served.
	OnPopulation(size, distinct, deadEnds int, elapsed time.Duration)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) OnStep(string, int, float64, bool) {}
func (NopObserver) OnImprovement(string, int, float64) {}
func (NopObserver) OnPopulation(int, int, int, time.Duration) {}
