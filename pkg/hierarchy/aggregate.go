// Package hierarchy folds a raw file tree into a weighted, author-annotated
// hierarchy suitable for treemap and sunburst views.
package hierarchy

import (
	"sort"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

// maxDepth caps the aggregation recursion. Well-formed file trees are far
// shallower; the cap keeps a malformed (cyclic) input from blowing the stack.
const maxDepth = 256

// Node is one node of the aggregated hierarchy. Value is the subtree line
// total and Authors the deduplicated union of all leaf authors beneath the
// node. A Node tree is rebuilt in full on every aggregation; it is never
// mutated in place.
type Node struct {
	Name      string   `json:"name"`
	Extension string   `json:"extension,omitempty"`
	Value     int      `json:"value"`
	Authors   []string `json:"authors,omitempty"`
	Children  []*Node  `json:"children,omitempty"`
}

// Aggregate builds the hierarchy for the given file tree. A nil input yields
// a nil output. Children at every level are ordered by descending Value;
// ties keep their original relative order.
func Aggregate(root *model.FileTreeNode) *Node {
	if root == nil {
		return nil
	}

	return aggregate(root, 0)
}

func aggregate(src *model.FileTreeNode, depth int) *Node {
	node := &Node{
		Name:      src.Name,
		Extension: src.Extension,
	}

	if src.IsLeaf() || depth >= maxDepth {
		node.Value = src.Value
		node.Authors = dedup(src.Authors)

		return node
	}

	node.Children = make([]*Node, 0, len(src.Children))

	seen := map[string]bool{}

	for _, child := range src.Children {
		if child == nil {
			continue
		}

		agg := aggregate(child, depth+1)
		node.Children = append(node.Children, agg)
		node.Value += agg.Value

		// Children arrive already unioned, so the parent union never
		// re-scans descendants.
		for _, author := range agg.Authors {
			if !seen[author] {
				seen[author] = true
				node.Authors = append(node.Authors, author)
			}
		}
	}

	sort.SliceStable(node.Children, func(i, j int) bool {
		return node.Children[i].Value > node.Children[j].Value
	})

	return node
}

// dedup removes duplicates from the author list, preserving first-seen order.
func dedup(authors []string) []string {
	if len(authors) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(authors))
	out := make([]string, 0, len(authors))

	for _, a := range authors {
		if !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}

	return out
}
