package miner

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

// ignoredFolders are never descended into during the file walk.
var ignoredFolders = map[string]bool{
	".git":         true,
	".idea":        true,
	".vscode":      true,
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	"env":          true,
	"dist":         true,
	"build":        true,
	"coverage":     true,
}

const lineCountChunkSize = 32 * 1024

// buildFileTree walks the checkout and produces the raw hierarchy the
// aggregator consumes. The root node carries the repository name.
func buildFileTree(root, repoName string) (*model.FileTreeNode, error) {
	node, err := walkPath(root)
	if err != nil {
		return nil, err
	}

	if node != nil {
		node.Name = repoName
	}

	return node, nil
}

func walkPath(path string) (*model.FileTreeNode, error) {
	name := filepath.Base(path)
	if ignoredFolders[name] {
		return nil, nil //nolint:nilnil // pruned subtree, not an error.
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	node := &model.FileTreeNode{Name: name}

	if !info.IsDir() {
		node.Value = countLines(path)
		node.Extension = strings.ToLower(filepath.Ext(name))

		return node, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	for _, entry := range entries {
		// Symlinks are pruned: a directory link can point back into the
		// tree and loop the walk.
		if entry.Type()&fs.ModeSymlink != 0 {
			continue
		}

		child, childErr := walkPath(filepath.Join(path, entry.Name()))
		if childErr != nil {
			return nil, childErr
		}

		if child != nil {
			node.Children = append(node.Children, child)
		}
	}

	return node, nil
}

// countLines counts newline-terminated lines plus a trailing partial line.
// Unreadable files count as zero lines.
func countLines(path string) int {
	file, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer file.Close()

	lines := 0
	endedWithNewline := true
	sawAny := false
	buf := make([]byte, lineCountChunkSize)

	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			sawAny = true
			lines += bytes.Count(buf[:n], []byte{'\n'})
			endedWithNewline = buf[n-1] == '\n'
		}

		if readErr == io.EOF {
			break
		}

		if readErr != nil {
			return 0
		}
	}

	if sawAny && !endedWithNewline {
		lines++
	}

	return lines
}
