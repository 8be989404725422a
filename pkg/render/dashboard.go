// Package render exports a loaded repository snapshot as a standalone HTML
// dashboard, a terminal summary, or a machine-readable report.
package render

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/reposcope/pkg/commitgraph"
	"github.com/Sumatoshi-tech/reposcope/pkg/hierarchy"
	"github.com/Sumatoshi-tech/reposcope/pkg/model"
	"github.com/Sumatoshi-tech/reposcope/pkg/plotpage"
	"github.com/Sumatoshi-tech/reposcope/pkg/timeseries"
)

// Chart sizing and capping constants.
const (
	treeMapHeight = "560px"
	chartHeight   = "460px"

	treeMapLeafDepth = 2
	maxTreeChildren  = 40

	scatterSymbolMin = 6
	scatterSymbolMax = 28
	impactDivisor    = 50

	dataZoomEnd = 100

	borderWidth1 = 1
	borderWidth2 = 2

	weekLabelFormat = "2006-01-02"
)

// ErrEmptyDataset signals that the input carried no renderable data at all.
var ErrEmptyDataset = errors.New("render: empty dataset")

// Input bundles the per-view datasets of one snapshot for rendering.
type Input struct {
	Meta   model.Meta
	Tree   *hierarchy.Node
	Series timeseries.Series
	Graph  commitgraph.Graph
}

// Empty reports whether the input carries nothing to render.
func (in Input) Empty() bool {
	return in.Tree == nil && len(in.Series.Rows) == 0 && len(in.Graph.Nodes) == 0
}

// BuildPage assembles the full dashboard page for one snapshot. Views with
// no data are skipped rather than rendered empty.
func BuildPage(in Input, theme plotpage.Theme) (*plotpage.Page, error) {
	if in.Empty() {
		return nil, ErrEmptyDataset
	}

	description := fmt.Sprintf("Repository dashboard for %s, analyzed %s",
		in.Meta.RepoName, in.Meta.AnalyzedAt.Format(time.RFC3339))
	page := plotpage.NewPage(in.Meta.RepoName, description).WithTheme(theme)
	style := plotpage.DefaultStyle()

	if in.Tree != nil {
		page.Add(plotpage.Section{
			Title:    "Code Ownership TreeMap",
			Subtitle: "File hierarchy sized by lines of code",
			Chart:    createTreeMap(in.Tree, style),
		})
	}

	if len(in.Series.Rows) > 0 {
		page.Add(plotpage.Section{
			Title:    "Weekly Insertions by Author",
			Subtitle: "Top contributors stacked per calendar week",
			Chart:    createWeeklyBar(in.Series, style),
		})
	}

	if len(in.Graph.Nodes) > 0 {
		page.Add(plotpage.Section{
			Title:    "Commit Lineage",
			Subtitle: "Commits placed by time and author lane, sized by impact",
			Chart:    createLineageScatter(in.Graph, style),
		})
	}

	return page, nil
}

// RenderHTML builds the page and writes it to w in one step.
func RenderHTML(w io.Writer, in Input, theme plotpage.Theme) error {
	page, err := BuildPage(in, theme)
	if err != nil {
		return err
	}

	return page.Render(w)
}

func createTreeMap(root *hierarchy.Node, style plotpage.Style) *charts.TreeMap {
	tm := charts.NewTreeMap()
	tm.SetGlobalOptions(
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Width: style.Width, Height: treeMapHeight}),
	)

	tm.AddSeries("Ownership", []opts.TreeMapNode{toTreeMapNode(root)},
		charts.WithTreeMapOpts(opts.TreeMapChart{
			Animation:      opts.Bool(true),
			Roam:           opts.Bool(true),
			LeafDepth:      treeMapLeafDepth,
			ColorMappingBy: "value",
			Label:          &opts.Label{Show: opts.Bool(true), Formatter: "{b}"},
			UpperLabel:     &opts.UpperLabel{Show: opts.Bool(true)},
			Levels: &[]opts.TreeMapLevel{
				{
					ItemStyle:  &opts.ItemStyle{BorderColor: "#555", BorderWidth: borderWidth2, GapWidth: borderWidth2},
					UpperLabel: &opts.UpperLabel{Show: opts.Bool(true)},
				},
				{
					ItemStyle:       &opts.ItemStyle{BorderColor: "#999", BorderWidth: borderWidth1, GapWidth: borderWidth1},
					ColorSaturation: []float32{0.3, 0.6},
				},
			},
			Left: "2%", Right: "2%", Top: "10", Bottom: "2%",
		}))

	return tm
}

// toTreeMapNode converts a hierarchy node recursively. Children arrive
// pre-sorted by descending value; oversized sibling lists are truncated to
// keep the chart payload bounded.
func toTreeMapNode(node *hierarchy.Node) opts.TreeMapNode {
	out := opts.TreeMapNode{
		Name:  node.Name,
		Value: node.Value,
	}

	children := node.Children
	if len(children) > maxTreeChildren {
		children = children[:maxTreeChildren]
	}

	for _, child := range children {
		out.Children = append(out.Children, toTreeMapNode(child))
	}

	return out
}

func createWeeklyBar(series timeseries.Series, style plotpage.Style) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: style.Width, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "0", Left: "center"}),
		charts.WithGridOpts(opts.Grid{
			Top: "15%", Bottom: "12%", Left: "4%", Right: "4%",
			ContainLabel: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEnd},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "Week"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Insertions"}),
	)

	labels := make([]string, len(series.Rows))
	for i, row := range series.Rows {
		labels[i] = row.Week.Format(weekLabelFormat)
	}

	bar.SetXAxis(labels)

	for _, key := range series.Keys {
		data := make([]opts.BarData, len(series.Rows))
		for i, row := range series.Rows {
			data[i] = opts.BarData{Value: row.Values[key]}
		}

		bar.AddSeries(key, data, charts.WithBarChartOpts(opts.BarChart{Stack: "insertions"}))
	}

	return bar
}

func createLineageScatter(graph commitgraph.Graph, style plotpage.Style) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: style.Width, Height: chartHeight}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "item"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Lane", Type: "value"}),
		charts.WithGridOpts(opts.Grid{
			Top: "8%", Bottom: "10%", Left: "4%", Right: "4%",
			ContainLabel: opts.Bool(true),
		}),
	)

	byAuthor := make(map[string][]opts.ScatterData)

	for _, node := range graph.Nodes {
		byAuthor[node.Author] = append(byAuthor[node.Author], opts.ScatterData{
			Value:      []any{node.X, node.Lane, shortHash(node.Hash), node.Impact},
			SymbolSize: symbolSize(node.Impact),
		})
	}

	authors := make([]string, 0, len(byAuthor))
	for author := range byAuthor {
		authors = append(authors, author)
	}

	sort.Strings(authors)

	for _, author := range authors {
		scatter.AddSeries(author, byAuthor[author])
	}

	return scatter
}

func symbolSize(impact int) int {
	size := scatterSymbolMin + impact/impactDivisor
	if size > scatterSymbolMax {
		size = scatterSymbolMax
	}

	return size
}

func shortHash(hash string) string {
	const short = 8
	if len(hash) <= short {
		return hash
	}

	return hash[:short]
}
