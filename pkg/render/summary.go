package render

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/reposcope/pkg/hierarchy"
	"github.com/Sumatoshi-tech/reposcope/pkg/timeseries"
)

const summaryTopAuthors = 10

// WriteSummary prints a human-readable overview of one snapshot: repository
// metadata, headline totals, and a top-contributor table.
func WriteSummary(w io.Writer, in Input) error {
	if in.Empty() {
		return ErrEmptyDataset
	}

	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "%s\n", in.Meta.RepoName)
	fmt.Fprintf(w, "analyzed %s\n\n", in.Meta.AnalyzedAt.Format(time.RFC1123))

	files, lines := countTree(in.Tree)
	totals := authorTotals(in.Series)

	fmt.Fprintf(w, "Files:   %s\n", humanize.Comma(int64(files)))
	fmt.Fprintf(w, "Lines:   %s\n", humanize.Comma(int64(lines)))
	fmt.Fprintf(w, "Commits: %s\n", humanize.Comma(int64(len(in.Graph.Nodes))))
	fmt.Fprintf(w, "Weeks:   %s\n\n", humanize.Comma(int64(len(in.Series.Rows))))

	if len(totals) > 0 {
		fmt.Fprintln(w, renderAuthorTable(totals))
	}

	return nil
}

type authorTotal struct {
	name       string
	insertions int
}

// authorTotals folds the weekly series back into per-key insertion sums,
// ordered by descending total.
func authorTotals(series timeseries.Series) []authorTotal {
	sums := make(map[string]int)

	for _, row := range series.Rows {
		for key, value := range row.Values {
			sums[key] += value
		}
	}

	totals := make([]authorTotal, 0, len(sums))
	for name, insertions := range sums {
		totals = append(totals, authorTotal{name: name, insertions: insertions})
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].insertions != totals[j].insertions {
			return totals[i].insertions > totals[j].insertions
		}

		return totals[i].name < totals[j].name
	})

	if len(totals) > summaryTopAuthors {
		totals = totals[:summaryTopAuthors]
	}

	return totals
}

func renderAuthorTable(totals []authorTotal) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false

	tbl.AppendHeader(table.Row{"Author", "Insertions"})

	for _, t := range totals {
		tbl.AppendRow(table.Row{t.name, humanize.Comma(int64(t.insertions))})
	}

	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d authors", len(totals)), ""})

	return tbl.Render()
}

func countTree(node *hierarchy.Node) (files, lines int) {
	if node == nil {
		return 0, 0
	}

	if len(node.Children) == 0 {
		return 1, node.Value
	}

	for _, child := range node.Children {
		f, l := countTree(child)
		files += f
		lines += l
	}

	return files, node.Value
}
