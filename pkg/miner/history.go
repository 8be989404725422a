package miner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

// mineHistory walks the commit log newest first, up to limit commits, and
// extracts the per-commit stats the dashboard pipeline consumes.
func mineHistory(ctx context.Context, repo *git.Repository, limit int) ([]model.CommitRecord, error) {
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{
		From:  head.Hash(),
		Order: git.LogOrderCommitterTime,
	})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer iter.Close()

	records := make([]model.CommitRecord, 0, limit)

	err = iter.ForEach(func(commit *object.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if len(records) >= limit {
			return storer.ErrStop
		}

		records = append(records, toRecord(commit))

		return nil
	})
	if err != nil && !errors.Is(err, storer.ErrStop) {
		return nil, fmt.Errorf("walk log: %w", err)
	}

	return records, nil
}

func toRecord(commit *object.Commit) model.CommitRecord {
	record := model.CommitRecord{
		Hash:    commit.Hash.String(),
		Author:  commit.Author.Name,
		Date:    commit.Committer.When.UTC(),
		Message: firstLine(commit.Message),
	}

	for _, parent := range commit.ParentHashes {
		record.ParentHashes = append(record.ParentHashes, parent.String())
	}

	// Stats diff against the first parent; root commits diff against the
	// empty tree. Failures leave the counts at zero rather than aborting
	// the whole mine.
	stats, err := commit.Stats()
	if err != nil {
		return record
	}

	record.FilesChanged = len(stats)

	for _, stat := range stats {
		record.Insertions += stat.Addition
		record.Deletions += stat.Deletion
	}

	return record
}

func firstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")

	return strings.TrimSpace(line)
}
