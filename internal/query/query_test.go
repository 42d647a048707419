package query

import (
	"reflect"
	"testing"
	"time"

	"gagyebu/internal/core"
)

func samplePartition() core.Partition {
	return core.Partition{
		Title:   "2024년 3월",
		Headers: []string{"날짜", "내역", "분류", "사용처", "금액", "", "메모"},
		Rows: [][]string{
			{"2024. 3. 10", "라면", "생활비 지출", "편의점", "12,000", "", "memo"},
			{"2024. 3. 1", "월세", "고정 지출", "", "500,000"},
			{"2024. 3. 15", "기차표", "여행", "코레일", "45,000"},
			{"2024. 3. 5", "라면 한 박스", "생활비 지출", "마트", "24,000"},
			{"N/A", "이월", "기타 지출", "", "1,000"},
		},
	}
}

func TestApply_DefaultSortDescByDate(t *testing.T) {
	res := Apply(samplePartition(), Default())
	if res.TotalMatched != 5 {
		t.Fatalf("expected 5 rows, got %d", res.TotalMatched)
	}
	got := make([]string, len(res.Rows))
	for i, r := range res.Rows {
		got[i] = r[0]
	}
	want := []string{"2024. 3. 15", "2024. 3. 10", "2024. 3. 5", "2024. 3. 1", "N/A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected order %v, got %v", want, got)
	}
}

func TestApply_UnparseableDateSortsLastBothDirections(t *testing.T) {
	p := core.Partition{
		Title:   "2024년 3월",
		Headers: []string{"날짜", "내역"},
		Rows: [][]string{
			{"N/A", "bad"},
			{"3/1", "good"},
		},
	}
	for _, desc := range []bool{true, false} {
		spec := Default()
		spec.SortColumn = 0
		spec.SortDesc = desc
		res := Apply(p, spec)
		if res.Rows[0][1] != "good" || res.Rows[1][1] != "bad" {
			t.Fatalf("desc=%v: unparseable row must sort last, got %v", desc, res.Rows)
		}
	}
}

func TestApply_Search(t *testing.T) {
	spec := Default()
	spec.Search = "라면"
	res := Apply(samplePartition(), spec)
	if res.TotalMatched != 2 {
		t.Fatalf("expected 2 matches, got %d", res.TotalMatched)
	}
}

func TestApply_SearchMatchesAnyColumn(t *testing.T) {
	spec := Default()
	spec.Search = "코레일" // only present in the 사용처 column
	res := Apply(samplePartition(), spec)
	if res.TotalMatched != 1 {
		t.Fatalf("expected 1 match, got %d", res.TotalMatched)
	}
}

func TestApply_DateRange(t *testing.T) {
	spec := Default()
	spec.From = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	spec.To = time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	res := Apply(samplePartition(), spec)
	// Inclusive on both ends; the N/A row is excluded once a range is active.
	if res.TotalMatched != 3 {
		t.Fatalf("expected 3 matches, got %d", res.TotalMatched)
	}
	for _, r := range res.Rows {
		if r[0] == "N/A" {
			t.Fatalf("unparseable date must be excluded by an active range")
		}
	}
}

func TestApply_ColumnFilter(t *testing.T) {
	spec := Default()
	spec.Filters = map[int][]string{2: {"생활비 지출", "여행"}}
	res := Apply(samplePartition(), spec)
	if res.TotalMatched != 3 {
		t.Fatalf("expected 3 matches, got %d", res.TotalMatched)
	}

	// Empty selection set means no filtering on that column.
	spec.Filters = map[int][]string{2: {}}
	res = Apply(samplePartition(), spec)
	if res.TotalMatched != 5 {
		t.Fatalf("empty filter set: expected 5 rows, got %d", res.TotalMatched)
	}
}

func TestApply_AmountSort(t *testing.T) {
	spec := Default()
	spec.SortColumn = 4
	spec.SortDesc = true
	res := Apply(samplePartition(), spec)
	if res.Rows[0][4] != "500,000" {
		t.Fatalf("expected largest amount first, got %q", res.Rows[0][4])
	}
	if res.Rows[len(res.Rows)-1][4] != "1,000" {
		t.Fatalf("expected smallest amount last, got %q", res.Rows[len(res.Rows)-1][4])
	}
}

func TestApply_Pagination(t *testing.T) {
	p := samplePartition()
	spec := Default()
	spec.PageSize = 2
	res := Apply(p, spec)
	if len(res.Rows) != 2 || res.TotalMatched != 5 || !res.HasMore {
		t.Fatalf("page 1: got %d rows, total %d, more=%v", len(res.Rows), res.TotalMatched, res.HasMore)
	}

	res = Apply(p, spec.More())
	if len(res.Rows) != 4 || !res.HasMore {
		t.Fatalf("page 2: got %d rows, more=%v", len(res.Rows), res.HasMore)
	}

	res = Apply(p, spec.More().More())
	if len(res.Rows) != 5 || res.HasMore {
		t.Fatalf("page 3: got %d rows, more=%v", len(res.Rows), res.HasMore)
	}
}

func TestApply_Idempotent(t *testing.T) {
	p := samplePartition()
	spec := Default()
	spec.Search = "지출"
	spec.SortColumn = 4
	a := Apply(p, spec)
	b := Apply(p, spec)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("same spec twice must yield identical results")
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	p := samplePartition()
	before := make([]string, len(p.Rows))
	for i, r := range p.Rows {
		before[i] = r[0]
	}
	spec := Default()
	spec.SortColumn = 4
	Apply(p, spec)
	for i, r := range p.Rows {
		if r[0] != before[i] {
			t.Fatalf("input row order changed at %d", i)
		}
	}
}

func TestApply_RaggedRows(t *testing.T) {
	p := core.Partition{
		Title:   "2024년 3월",
		Headers: []string{"날짜", "내역", "분류", "사용처", "금액"},
		Rows: [][]string{
			{"3/1"},
			{"3/2", "커피", "생활비 지출", "카페", "4,500", "extra", "cells"},
		},
	}
	spec := Default()
	spec.SortColumn = 4
	res := Apply(p, spec)
	if res.TotalMatched != 2 {
		t.Fatalf("ragged rows must survive the pipeline, got %d", res.TotalMatched)
	}
}
