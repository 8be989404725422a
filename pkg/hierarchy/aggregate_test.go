package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

func TestAggregateNil(t *testing.T) {
	t.Parallel()

	if got := Aggregate(nil); got != nil {
		t.Fatalf("expected nil for nil input, got %+v", got)
	}
}

func TestAggregateTwoFiles(t *testing.T) {
	t.Parallel()

	root := &model.FileTreeNode{
		Name: "repo",
		Children: []*model.FileTreeNode{
			{Name: "a.js", Value: 100, Authors: []string{"alice"}},
			{Name: "b.py", Value: 50, Authors: []string{"bob"}},
		},
	}

	agg := Aggregate(root)
	require.NotNil(t, agg)
	assert.Equal(t, 150, agg.Value)
	assert.Equal(t, []string{"alice", "bob"}, agg.Authors)
}

func TestAggregateSubtreeSums(t *testing.T) {
	t.Parallel()

	root := &model.FileTreeNode{
		Name: "repo",
		Children: []*model.FileTreeNode{
			{
				Name: "src",
				Children: []*model.FileTreeNode{
					{Name: "main.go", Value: 10, Authors: []string{"alice"}},
					{Name: "util.go", Value: 30, Authors: []string{"bob", "alice"}},
				},
			},
			{Name: "README.md", Value: 5, Authors: []string{"carol"}},
		},
	}

	agg := Aggregate(root)
	require.Len(t, agg.Children, 2)

	require.Equal(t, 45, agg.Value)
	assert.Equal(t, []string{"alice", "bob", "carol"}, agg.Authors)

	// src (40) sorts before README.md (5).
	src := agg.Children[0]
	assert.Equal(t, "src", src.Name)
	assert.Equal(t, 40, src.Value)
	assert.Equal(t, []string{"alice", "bob"}, src.Authors)

	// util.go (30) sorts before main.go (10).
	assert.Equal(t, "util.go", src.Children[0].Name)
}

func TestAggregateStableTies(t *testing.T) {
	t.Parallel()

	root := &model.FileTreeNode{
		Name: "repo",
		Children: []*model.FileTreeNode{
			{Name: "first.go", Value: 10},
			{Name: "second.go", Value: 10},
			{Name: "third.go", Value: 10},
		},
	}

	agg := Aggregate(root)
	require.Len(t, agg.Children, 3)
	assert.Equal(t, "first.go", agg.Children[0].Name)
	assert.Equal(t, "second.go", agg.Children[1].Name)
	assert.Equal(t, "third.go", agg.Children[2].Name)
}

func TestAggregateMissingLeafValue(t *testing.T) {
	t.Parallel()

	root := &model.FileTreeNode{
		Name: "repo",
		Children: []*model.FileTreeNode{
			{Name: "binary.bin"},
			{Name: "code.go", Value: 7},
		},
	}

	agg := Aggregate(root)
	assert.Equal(t, 7, agg.Value)
}

func TestAggregateAuthorUnionIndependentOfShape(t *testing.T) {
	t.Parallel()

	flat := &model.FileTreeNode{
		Name: "r",
		Children: []*model.FileTreeNode{
			{Name: "a", Value: 1, Authors: []string{"x"}},
			{Name: "b", Value: 1, Authors: []string{"y"}},
		},
	}
	nested := &model.FileTreeNode{
		Name: "r",
		Children: []*model.FileTreeNode{
			{
				Name: "d",
				Children: []*model.FileTreeNode{
					{Name: "a", Value: 1, Authors: []string{"x"}},
					{Name: "b", Value: 1, Authors: []string{"y"}},
				},
			},
		},
	}

	assert.Equal(t, Aggregate(flat).Authors, Aggregate(nested).Authors)
	assert.Equal(t, Aggregate(flat).Value, Aggregate(nested).Value)
}

func TestAggregateDepthCap(t *testing.T) {
	t.Parallel()

	leaf := &model.FileTreeNode{Name: "leaf", Value: 1}
	node := leaf

	for i := 0; i < maxDepth-2; i++ {
		node = &model.FileTreeNode{Name: "dir", Children: []*model.FileTreeNode{node}}
	}

	agg := Aggregate(node)
	require.NotNil(t, agg)
	assert.Equal(t, 1, agg.Value)

	// Deeper than the cap still terminates; the subtree below the cap is
	// truncated rather than recursed into.
	deep := leaf
	for i := 0; i < maxDepth+10; i++ {
		deep = &model.FileTreeNode{Name: "dir", Children: []*model.FileTreeNode{deep}}
	}

	require.NotNil(t, Aggregate(deep))
}
