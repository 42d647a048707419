// Package query is the tabular browsing engine for one partition. It is a
// pure function of (partition, spec): sorting, full-text search, date range,
// per-column value filters, and an incrementally growing pagination cursor.
// Input rows are never mutated; the engine works on its own copy.
package query

import (
	"strings"
	"time"

	"gagyebu/internal/core"
)

// DefaultPageSize is the initial pagination window.
const DefaultPageSize = 20

// Spec describes one view over a partition's rows.
type Spec struct {
	// Search is a case-insensitive substring matched against every column.
	Search string

	// From/To bound the detected date column, inclusive on both ends. The
	// range is active when either end is non-zero; active ranges exclude
	// rows whose date cell does not parse.
	From time.Time
	To   time.Time

	// SortColumn is the column index to sort by; negative means the default
	// sort (detected date column, descending). SortDesc only applies to an
	// explicit column.
	SortColumn int
	SortDesc   bool

	// Filters maps column index to the set of allowed values. An empty or
	// missing set leaves that column unfiltered.
	Filters map[int][]string

	// Visible is the pagination cursor: how many matched rows to
	// materialize. Zero or negative falls back to PageSize.
	Visible  int
	PageSize int
}

// Result is the materialized view.
type Result struct {
	Rows         [][]string
	TotalMatched int
	Visible      int
	// HasMore reports whether growing the cursor would reveal more rows.
	HasMore bool
}

// Default returns a Spec with the default sort and pagination.
func Default() Spec {
	return Spec{SortColumn: -1, PageSize: DefaultPageSize}
}

// More returns a copy of the spec with the cursor grown by one page.
func (s Spec) More() Spec {
	size := s.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if s.Visible <= 0 {
		s.Visible = size
	}
	s.Visible += size
	return s
}

// Apply runs the pipeline: sort, search, date range, column filters,
// pagination slice. Sort runs first so the default ordering holds even when
// no filter is active.
func Apply(p core.Partition, spec Spec) Result {
	rows := make([][]string, len(p.Rows))
	copy(rows, p.Rows)

	defaultYear := titleYear(p.Title)

	sortRows(rows, p.Headers, spec, defaultYear)

	if q := strings.ToLower(strings.TrimSpace(spec.Search)); q != "" {
		rows = filterSearch(rows, q)
	}

	if !spec.From.IsZero() || !spec.To.IsZero() {
		dateCol := core.ColumnIndex(p.Headers, core.RoleDate)
		rows = filterDateRange(rows, dateCol, spec.From, spec.To, defaultYear)
	}

	rows = filterColumns(rows, spec.Filters)

	total := len(rows)
	visible := spec.Visible
	if visible <= 0 {
		visible = spec.PageSize
	}
	if visible <= 0 {
		visible = DefaultPageSize
	}
	if visible > total {
		visible = total
	}

	return Result{
		Rows:         rows[:visible],
		TotalMatched: total,
		Visible:      visible,
		HasMore:      visible < total,
	}
}

// titleYear resolves the year used for month/day-only date cells. Partitions
// are monthly sheets, so the title normally carries it.
func titleYear(title string) int {
	if y, _, ok := core.ParseMonthlyTitle(title); ok {
		return y
	}
	return time.Now().Year()
}

func filterSearch(rows [][]string, q string) [][]string {
	out := rows[:0]
	for _, row := range rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), q) {
				out = append(out, row)
				break
			}
		}
	}
	return out
}

func filterDateRange(rows [][]string, dateCol int, from, to time.Time, defaultYear int) [][]string {
	out := rows[:0]
	for _, row := range rows {
		d, ok := core.ParseLooseDate(core.Cell(row, dateCol), defaultYear)
		if !ok {
			// An active range excludes rows without a parseable date.
			continue
		}
		if !from.IsZero() && d.Before(from) {
			continue
		}
		if !to.IsZero() && d.After(to) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func filterColumns(rows [][]string, filters map[int][]string) [][]string {
	if len(filters) == 0 {
		return rows
	}
	active := make(map[int]map[string]struct{}, len(filters))
	for col, values := range filters {
		if len(values) == 0 {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		active[col] = set
	}
	if len(active) == 0 {
		return rows
	}
	out := rows[:0]
	for _, row := range rows {
		keep := true
		for col, set := range active {
			if _, ok := set[core.Cell(row, col)]; !ok {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}
