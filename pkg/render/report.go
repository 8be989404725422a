package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Supported report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnsupportedFormat signals an unknown report format name.
var ErrUnsupportedFormat = errors.New("render: unsupported format")

// report is the flat machine-readable shape of one snapshot.
type report struct {
	Meta      reportMeta `json:"meta"      yaml:"meta"`
	FileTree  any        `json:"file_tree" yaml:"file_tree"`
	Series    any        `json:"series"    yaml:"series"`
	Lineage   any        `json:"lineage"   yaml:"lineage"`
	TotalRows int        `json:"total_weeks" yaml:"total_weeks"`
}

type reportMeta struct {
	RepoName   string `json:"repo_name"   yaml:"repo_name"`
	AnalyzedAt string `json:"analyzed_at" yaml:"analyzed_at"`
}

// WriteReport encodes the snapshot in the requested format.
func WriteReport(w io.Writer, in Input, format string) error {
	if in.Empty() {
		return ErrEmptyDataset
	}

	rep := report{
		Meta: reportMeta{
			RepoName:   in.Meta.RepoName,
			AnalyzedAt: in.Meta.AnalyzedAt.UTC().Format("2006-01-02T15:04:05Z"),
		},
		FileTree:  in.Tree,
		Series:    in.Series,
		Lineage:   in.Graph,
		TotalRows: len(in.Series.Rows),
	}

	switch format {
	case FormatJSON:
		return marshalAndWrite(rep, json.Marshal, w, "json")
	case FormatYAML:
		return marshalAndWrite(rep, yaml.Marshal, w, "yaml")
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// marshalAndWrite marshals data and writes the result to writer.
func marshalAndWrite(data any, marshal func(any) ([]byte, error), writer io.Writer, label string) error {
	encoded, err := marshal(data)
	if err != nil {
		return fmt.Errorf("%s encode: %w", label, err)
	}

	if _, writeErr := writer.Write(encoded); writeErr != nil {
		return fmt.Errorf("%s write: %w", label, writeErr)
	}

	return nil
}
