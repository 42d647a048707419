package query

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"gagyebu/internal/core"
)

// sortRows orders rows in place. Without an explicit sort column, rows sort
// descending by the detected date column. Explicit columns compare by their
// detected role: amounts numerically, dates by calendar date, everything
// else by Korean collation. Rows whose date or amount cell does not parse
// sort after parseable ones in both directions; ties keep input order.
func sortRows(rows [][]string, headers []string, spec Spec, defaultYear int) {
	col := spec.SortColumn
	desc := spec.SortDesc
	role := core.RoleNone

	if col < 0 {
		col = core.ColumnIndex(headers, core.RoleDate)
		if col < 0 {
			return
		}
		role = core.RoleDate
		desc = true
	} else {
		role = core.DetectRole(core.Cell(headers, col))
	}

	switch role {
	case core.RoleAmount:
		sortByAmount(rows, col, desc)
	case core.RoleDate:
		sortByDate(rows, col, desc, defaultYear)
	default:
		sortByText(rows, col, desc)
	}
}

func sortByDate(rows [][]string, col int, desc bool, defaultYear int) {
	type parsed struct {
		t  time.Time
		ok bool
	}
	keys := make([]parsed, len(rows))
	for i, row := range rows {
		t, ok := core.ParseLooseDate(core.Cell(row, col), defaultYear)
		keys[i] = parsed{t, ok}
	}
	order := indexOrder(len(rows))
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		// Unparseable dates go last regardless of direction.
		if ka.ok != kb.ok {
			return ka.ok
		}
		if !ka.ok {
			return false
		}
		if desc {
			return ka.t.After(kb.t)
		}
		return ka.t.Before(kb.t)
	})
	reorder(rows, order)
}

func sortByAmount(rows [][]string, col int, desc bool) {
	type parsed struct {
		v  int64
		ok bool
	}
	keys := make([]parsed, len(rows))
	for i, row := range rows {
		v, ok := core.ParseAmount(core.Cell(row, col))
		keys[i] = parsed{v, ok}
	}
	order := indexOrder(len(rows))
	sort.SliceStable(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka.ok != kb.ok {
			return ka.ok
		}
		if !ka.ok {
			return false
		}
		if desc {
			return ka.v > kb.v
		}
		return ka.v < kb.v
	})
	reorder(rows, order)
}

func sortByText(rows [][]string, col int, desc bool) {
	cl := collate.New(language.Korean)
	order := indexOrder(len(rows))
	sort.SliceStable(order, func(a, b int) bool {
		cmp := cl.CompareString(core.Cell(rows[order[a]], col), core.Cell(rows[order[b]], col))
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
	reorder(rows, order)
}

func indexOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func reorder(rows [][]string, order []int) {
	tmp := make([][]string, len(rows))
	for i, idx := range order {
		tmp[i] = rows[idx]
	}
	copy(rows, tmp)
}
