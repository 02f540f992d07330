// Command simulate drives synthetic traffic through the assignment engine
// and prints the observed allocation and weight distribution, then a
// significance read-out over simulated conversions. Useful as a manual
// check of the engine's distribution properties.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"gosplit/domain/experiment"
	"gosplit/domain/stats"
	"gosplit/internal/testkit"
)

func main() {
	visitors := flag.Int("visitors", 100000, "number of synthetic visitors")
	allocation := flag.Int("allocation", 100, "traffic allocation percentage (0-100)")
	weights := flag.String("weights", "50,50", "comma-separated variant weights")
	seed := flag.Int64("seed", 42, "visitor generator seed")
	controlRate := flag.Float64("control-rate", 0.10, "simulated control conversion rate")
	variantRate := flag.Float64("variant-rate", 0.12, "simulated variant conversion rate")
	flag.Parse()

	exp, err := buildExperiment(*allocation, *weights)
	if err != nil {
		log.Fatalf("invalid experiment: %v", err)
	}

	gen := testkit.NewTrafficGenerator(*seed)
	dist := testkit.AssignmentDistribution(exp, gen.Visitors(*visitors))

	fmt.Printf("Experiment %s: allocation=%d%%, weights=%s, visitors=%d\n\n", exp.ID, exp.Allocation, *weights, *visitors)
	printDistribution(dist, *visitors)

	if len(exp.Variants) >= 2 {
		printSignificance(gen, dist, exp, *controlRate, *variantRate)
	}
}

func buildExperiment(allocation int, weightSpec string) (*experiment.Experiment, error) {
	parts := strings.Split(weightSpec, ",")
	variants := make([]experiment.Variant, 0, len(parts))
	for i, p := range parts {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("weight %q: %w", p, err)
		}
		variants = append(variants, experiment.Variant{
			ID:        fmt.Sprintf("v%d", i+1),
			Name:      fmt.Sprintf("Variant %d", i+1),
			Weight:    w,
			IsControl: i == 0,
		})
	}

	exp := &experiment.Experiment{
		ID:         "sim",
		Name:       "Simulation",
		Status:     experiment.StatusRunning,
		Allocation: allocation,
		Variants:   variants,
	}
	return exp, exp.Validate()
}

func printDistribution(dist map[string]int, total int) {
	ids := make([]string, 0, len(dist))
	for id := range dist {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	w := new(strings.Builder)
	for _, id := range ids {
		label := id
		if label == "" {
			label = "(not enrolled)"
		}
		count := dist[id]
		fmt.Fprintf(w, "  %-14s %8d  %6.2f%%\n", label, count, float64(count)/float64(total)*100)
	}
	fmt.Println("Assignment distribution:")
	fmt.Print(w.String())
	fmt.Println()
}

func printSignificance(gen *testkit.TrafficGenerator, dist map[string]int, exp *experiment.Experiment, controlRate, variantRate float64) {
	control := exp.Control()
	var other *experiment.Variant
	for i := range exp.Variants {
		if !exp.Variants[i].IsControl {
			other = &exp.Variants[i]
			break
		}
	}
	if control == nil || other == nil {
		return
	}

	n1 := dist[control.ID]
	n2 := dist[other.ID]
	c1 := gen.SimulateConversions(controlRate, n1)
	c2 := gen.SimulateConversions(variantRate, n2)

	r1 := stats.ConversionRate(c1, n1)
	r2 := stats.ConversionRate(c2, n2)
	confidence := stats.Significance(c1, n1, c2, n2)

	fmt.Printf("Simulated conversions (%s at %.1f%%, %s at %.1f%%):\n", control.ID, controlRate*100, other.ID, variantRate*100)
	fmt.Printf("  %s: %d/%d (%.2f%%)\n", control.ID, c1, n1, r1)
	fmt.Printf("  %s: %d/%d (%.2f%%)\n", other.ID, c2, n2, r2)
	fmt.Printf("  uplift: %.2f%%  confidence: %.0f%%  significant: %v\n", stats.Uplift(r1, r2), confidence, stats.IsSignificant(confidence, stats.DefaultSignificanceThreshold))

	if n, err := stats.RequiredSampleSize(r1, 20, 95, 80); err == nil {
		fmt.Printf("  sample size to detect +20%% at 95/80: %d per variant\n", n)
	}

}
