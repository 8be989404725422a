// Package model defines the data contracts shared between the mining
// collaborator and the dashboard pipeline.
package model

import "time"

// FileTreeNode is one node of the raw file tree produced by the miner.
// Leaves carry a line count and extension; directories carry children.
// A node is exclusively owned by its parent.
type FileTreeNode struct {
	Name      string          `json:"name"`
	Value     int             `json:"value,omitempty"`
	Extension string          `json:"extension,omitempty"`
	Authors   []string        `json:"authors,omitempty"`
	Children  []*FileTreeNode `json:"children,omitempty"`
}

// IsLeaf reports whether the node is a file rather than a directory.
func (n *FileTreeNode) IsLeaf() bool {
	return len(n.Children) == 0
}

// CommitRecord is one mined commit. Immutable once fetched.
type CommitRecord struct {
	Hash         string    `json:"hash"`
	ParentHashes []string  `json:"parents,omitempty"`
	Author       string    `json:"author"`
	Date         time.Time `json:"date"`
	Insertions   int       `json:"insertions"`
	Deletions    int       `json:"deletions"`
	FilesChanged int       `json:"files_changed"`
	Message      string    `json:"msg"`
}

// Impact is the total number of changed lines in the commit.
func (c CommitRecord) Impact() int {
	return c.Insertions + c.Deletions
}

// Meta describes the analyzed repository.
type Meta struct {
	RepoName   string    `json:"repo_name"`
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Analysis is the complete payload one fetch produces. A successful fetch
// replaces the previous Analysis atomically; stages never merge partial data.
type Analysis struct {
	Meta     Meta           `json:"meta"`
	FileTree *FileTreeNode  `json:"file_tree"`
	History  []CommitRecord `json:"history"`
}

// HeadHash returns the hash of the newest commit in the history, or the
// empty string when the history is empty.
func (a *Analysis) HeadHash() string {
	var (
		head string
		best time.Time
	)

	for _, c := range a.History {
		if head == "" || c.Date.After(best) {
			head = c.Hash
			best = c.Date
		}
	}

	return head
}
