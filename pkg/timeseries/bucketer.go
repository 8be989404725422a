// Package timeseries folds commit history into weekly, per-author stacked
// rows for the contribution stream view.
package timeseries

import (
	"sort"
	"time"

	"github.com/Sumatoshi-tech/reposcope/pkg/model"
)

const (
	// TopAuthors is the maximum number of authors kept as distinct series;
	// everyone else folds into the Other series.
	TopAuthors = 10

	// OtherKey is the series key for contributions by non-top authors.
	OtherKey = "Other"

	daysPerWeek = 7
)

// Row is one calendar week of stacked insertion counts. Values holds one
// entry per selected author key plus, when non-zero, OtherKey.
type Row struct {
	Week   time.Time
	Values map[string]int
}

// Series is the bucketer output: rows ascending by week and the stack keys
// in rank order, OtherKey last when present.
type Series struct {
	Rows []Row    `json:"rows"`
	Keys []string `json:"authorKeys"`
}

// Bucket builds the weekly stacked series for the given commits, which may
// arrive in any order. Empty input yields an empty row and key list.
func Bucket(commits []model.CommitRecord) Series {
	if len(commits) == 0 {
		return Series{}
	}

	sorted := make([]model.CommitRecord, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	keys := selectAuthors(sorted)

	selected := make(map[string]bool, len(keys))
	for _, k := range keys {
		selected[k] = true
	}

	rows := map[time.Time]Row{}
	sawOther := false

	for _, c := range sorted {
		week := WeekStart(c.Date)

		row, ok := rows[week]
		if !ok {
			row = Row{Week: week, Values: make(map[string]int, len(keys)+1)}
			for _, k := range keys {
				row.Values[k] = 0
			}

			rows[week] = row
		}

		if selected[c.Author] {
			row.Values[c.Author] += c.Insertions
		} else {
			row.Values[OtherKey] += c.Insertions
			sawOther = true
		}
	}

	out := Series{Keys: keys}

	for _, row := range rows {
		out.Rows = append(out.Rows, row)
	}

	sort.Slice(out.Rows, func(i, j int) bool {
		return out.Rows[i].Week.Before(out.Rows[j].Week)
	})

	if sawOther {
		out.Keys = append(out.Keys, OtherKey)
	}

	return out
}

// selectAuthors ranks authors by total insertions descending and keeps the
// top TopAuthors. Ties keep first-appearance order in the time-sorted input.
func selectAuthors(sorted []model.CommitRecord) []string {
	totals := map[string]int{}

	var order []string

	for _, c := range sorted {
		if _, ok := totals[c.Author]; !ok {
			order = append(order, c.Author)
		}

		totals[c.Author] += c.Insertions
	}

	sort.SliceStable(order, func(i, j int) bool {
		return totals[order[i]] > totals[order[j]]
	})

	if len(order) > TopAuthors {
		order = order[:TopAuthors]
	}

	return order
}

// WeekStart returns the most recent week boundary at or before t: Sunday
// 00:00 UTC, matching the frontend's week convention.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	return day.AddDate(0, 0, -int(day.Weekday()))
}
