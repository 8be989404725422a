package commands

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/reposcope/internal/session"
	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

func snapshotFixture() session.Snapshot {
	analysis := &model.Analysis{
		Meta: model.Meta{RepoName: "fixture/repo", AnalyzedAt: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		FileTree: &model.FileTreeNode{
			Name: "repo",
			Children: []*model.FileTreeNode{
				{Name: "a.go", Value: 10, Authors: []string{"alice"}},
			},
		},
		History: []model.CommitRecord{
			{Hash: "abc", Author: "alice", Date: time.Date(2024, 4, 29, 0, 0, 0, 0, time.UTC), Insertions: 10},
		},
	}

	return session.BuildSnapshot(analysis)
}

func TestWriteSnapshotHTML(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, snapshotFixture(), formatHTML, "dark"))
	assert.Contains(t, buf.String(), "fixture/repo")
}

func TestWriteSnapshotText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, snapshotFixture(), formatText, "dark"))
	assert.Contains(t, buf.String(), "fixture/repo")
}

func TestWriteSnapshotJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, writeSnapshot(&buf, snapshotFixture(), "json", "dark"))
	assert.Contains(t, buf.String(), `"repo_name":"fixture/repo"`)
}

func TestWriteSnapshotUnknownFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.ErrorIs(t, writeSnapshot(&buf, snapshotFixture(), "csv", "dark"), ErrUnknownFormat)
}

func TestCommandFlags(t *testing.T) {
	t.Parallel()

	serve := NewServeCommand()
	assert.NotNil(t, serve.Flags().Lookup(configFlag))
	assert.NotNil(t, serve.Flags().Lookup(addrFlag))
	assert.NotNil(t, serve.Flags().Lookup(noWatchFlag))

	renderCmd := NewRenderCommand()
	assert.NotNil(t, renderCmd.Flags().Lookup(outputFlag))
	assert.NotNil(t, renderCmd.Flags().Lookup(formatFlag))
}
