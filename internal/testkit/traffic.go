// Package testkit generates synthetic visitors and conversion traffic for
// distribution tests and the simulation CLI.
package testkit

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/stat/distuv"

	"gosplit/domain/bucket"
	"gosplit/domain/experiment"
)

// TrafficGenerator produces deterministic synthetic visitors (seeded) and
// stochastic conversion draws.
type TrafficGenerator struct {
	rng *rand.Rand
}

// NewTrafficGenerator creates a generator with a fixed seed so distribution
// tests are reproducible.
func NewTrafficGenerator(seed int64) *TrafficGenerator {
	return &TrafficGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Visitors returns n anonymous visitors with distinct session IDs.
func (g *TrafficGenerator) Visitors(n int) []experiment.Visitor {
	visitors := make([]experiment.Visitor, n)
	for i := range visitors {
		visitors[i] = experiment.Visitor{
			SessionID: fmt.Sprintf("sess_%08x_%06d", g.rng.Uint32(), i),
		}
	}
	return visitors
}

// AssignmentDistribution runs every visitor through the engine and counts
// assignments per variant ID. Unenrolled visitors are counted under the
// empty key.
func AssignmentDistribution(exp *experiment.Experiment, visitors []experiment.Visitor) map[string]int {
	dist := make(map[string]int)
	for _, v := range visitors {
		if variant := bucket.Assign(exp, v); variant != nil {
			dist[variant.ID]++
		} else {
			dist[""]++
		}
	}
	return dist
}

// SimulateConversions draws a conversion count from a Bernoulli process at
// rate p over n participants. Stochastic by design; used by the simulator,
// not by assertions.
func (g *TrafficGenerator) SimulateConversions(p float64, n int) int {
	bern := distuv.Bernoulli{P: p}
	conversions := 0
	for i := 0; i < n; i++ {
		if bern.Rand() == 1 {
			conversions++
		}
	}
	return conversions
}
