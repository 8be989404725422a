// Package commitgraph builds a directed commit-lineage graph with
// deterministic lane and time placement for the graph view.
package commitgraph

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

// LayoutWidth is the bounded horizontal range commit timestamps are mapped
// onto. Renderers scale it to their viewport.
const LayoutWidth = 1000.0

// Node is one commit in the lineage graph. Lane is the fixed per-author
// vertical slot; X the linear time placement within [0, LayoutWidth].
type Node struct {
	Hash   string    `json:"hash"`
	Author string    `json:"author"`
	Date   time.Time `json:"date"`
	Impact int       `json:"impact"`
	Merge  bool      `json:"merge,omitempty"`
	Lane   int       `json:"lane"`
	X      float64   `json:"x"`
}

// Edge is one parent→child lineage link. Both endpoints are always present
// in the node set.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Graph is the graph view dataset, rebuilt in full on every refresh.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build constructs the lineage graph for the given commits. Duplicate hashes
// collapse into one node; edges whose parent is absent from the commit set
// (truncated history) are dropped. Identical input always yields identical
// lane and x assignments.
func Build(commits []model.CommitRecord) Graph {
	if len(commits) == 0 {
		return Graph{}
	}

	distinct := make([]model.CommitRecord, 0, len(commits))
	present := make(map[string]bool, len(commits))
	parents := make(map[string][]string, len(commits))

	for _, c := range commits {
		if present[c.Hash] {
			continue
		}

		present[c.Hash] = true
		parents[c.Hash] = c.ParentHashes
		distinct = append(distinct, c)
	}

	// Normalize to (date, hash) order before any ranking so the result
	// depends only on the commit set, never on input order.
	sort.Slice(distinct, func(i, j int) bool {
		if !distinct[i].Date.Equal(distinct[j].Date) {
			return distinct[i].Date.Before(distinct[j].Date)
		}

		return distinct[i].Hash < distinct[j].Hash
	})

	lanes := assignLanes(distinct)
	minDate, maxDate := distinct[0].Date, distinct[len(distinct)-1].Date

	graph := Graph{Nodes: make([]Node, 0, len(distinct))}

	for _, c := range distinct {
		graph.Nodes = append(graph.Nodes, Node{
			Hash:   c.Hash,
			Author: c.Author,
			Date:   c.Date,
			Impact: c.Impact(),
			Merge:  len(c.ParentHashes) > 1,
			Lane:   lanes[c.Author],
			X:      placeX(c.Date, minDate, maxDate),
		})
	}

	seen := map[Edge]bool{}

	for _, node := range graph.Nodes {
		for _, parent := range parents[node.Hash] {
			if !present[parent] {
				continue
			}

			edge := Edge{Source: parent, Target: node.Hash}
			if seen[edge] {
				continue
			}

			seen[edge] = true
			graph.Edges = append(graph.Edges, edge)
		}
	}

	return graph
}

// assignLanes gives every author a fixed lane index, ordered by descending
// commit count with first-appearance order breaking ties.
func assignLanes(commits []model.CommitRecord) map[string]int {
	counts := map[string]int{}

	var order []string

	for _, c := range commits {
		if _, ok := counts[c.Author]; !ok {
			order = append(order, c.Author)
		}

		counts[c.Author]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	lanes := make(map[string]int, len(order))
	for i, author := range order {
		lanes[author] = i
	}

	return lanes
}

// placeX maps a timestamp linearly onto [0, LayoutWidth]. A zero-length
// range places every commit at the midpoint.
func placeX(date, minDate, maxDate time.Time) float64 {
	span := maxDate.Sub(minDate)
	if span <= 0 {
		return LayoutWidth / 2
	}

	return LayoutWidth * float64(date.Sub(minDate)) / float64(span)
}
