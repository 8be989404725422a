package commitgraph

import (
	"hash/fnv"
	"math"
	"math/rand"
	"sort"
)

const (
	// relaxIterations bounds the spreading passes.
	relaxIterations = 30

	// minSeparation is the x distance below which two same-lane nodes are
	// nudged apart.
	minSeparation = LayoutWidth / 100

	jitterAmplitude = minSeparation / 2
)

// Relax spreads same-lane nodes that landed too close together on the x
// axis. It is a presentation-only refinement: lanes never change, x stays
// within [0, LayoutWidth], and the jitter source is seeded from the commit
// set itself, so repeated builds of the same data reproduce. The deterministic
// Build placement remains the tested contract; callers opt into Relax purely
// for visual spacing.
func Relax(graph Graph) Graph {
	if len(graph.Nodes) < 2 {
		return graph
	}

	rng := rand.New(rand.NewSource(fingerprint(graph))) //nolint:gosec // layout jitter, not crypto.

	byLane := map[int][]int{}
	for i, node := range graph.Nodes {
		byLane[node.Lane] = append(byLane[node.Lane], i)
	}

	// Lanes are walked in a fixed order so the seeded rng draws reproduce.
	lanes := make([]int, 0, len(byLane))
	for lane := range byLane {
		lanes = append(lanes, lane)
	}

	sort.Ints(lanes)

	for iter := 0; iter < relaxIterations; iter++ {
		moved := false

		for _, lane := range lanes {
			indexes := byLane[lane]
			// Nodes arrive date-ordered, so same-lane neighbors are adjacent.
			for k := 1; k < len(indexes); k++ {
				prev := &graph.Nodes[indexes[k-1]]
				cur := &graph.Nodes[indexes[k]]

				gap := cur.X - prev.X
				if gap >= minSeparation {
					continue
				}

				push := (minSeparation-gap)/2 + rng.Float64()*jitterAmplitude
				prev.X = clampX(prev.X - push)
				cur.X = clampX(cur.X + push)
				moved = true
			}
		}

		if !moved {
			break
		}
	}

	return graph
}

func clampX(x float64) float64 {
	return math.Min(LayoutWidth, math.Max(0, x))
}

// fingerprint derives the jitter seed from the node hashes, which Build
// emits in a deterministic order.
func fingerprint(graph Graph) int64 {
	h := fnv.New64a()

	for _, node := range graph.Nodes {
		_, _ = h.Write([]byte(node.Hash))
	}

	return int64(h.Sum64()) //nolint:gosec // deliberate wraparound.
}
