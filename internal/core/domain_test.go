package core

import "testing"

func TestParseMonthlyTitle(t *testing.T) {
	cases := []struct {
		in    string
		year  int
		month int
		ok    bool
	}{
		{"2024년 3월", 2024, 3, true},
		{"2024년 12월", 2024, 12, true},
		{"2023년1월", 2023, 1, true},
		{"가계부 2025년 7월", 2025, 7, true},
		{"2024년 13월", 0, 0, false},
		{"Dashboard", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tc := range cases {
		y, m, ok := ParseMonthlyTitle(tc.in)
		if ok != tc.ok || y != tc.year || m != tc.month {
			t.Fatalf("%q: expected (%d,%d,%v), got (%d,%d,%v)", tc.in, tc.year, tc.month, tc.ok, y, m, ok)
		}
	}
}

func TestDetectRole(t *testing.T) {
	cases := []struct {
		header string
		role   ColumnRole
	}{
		{"날짜", RoleDate},
		{"Date", RoleDate},
		{"내역", RoleElement},
		{"분류", RoleCategory},
		{"정산", RoleSummary},
		{"금액", RoleAmount},
		{"사용 금액", RoleAmount},
		{"메모", RoleMemo},
		{"", RoleNone},
		{"   ", RoleNone},
		{"알수없음", RoleNone},
	}
	for _, tc := range cases {
		if got := DetectRole(tc.header); got != tc.role {
			t.Fatalf("%q: expected role %d, got %d", tc.header, tc.role, got)
		}
	}
}

func TestDetectRole_FirstMatchWins(t *testing.T) {
	// A header containing keywords of two roles resolves to the one listed
	// earlier in the rule order.
	if got := DetectRole("날짜 금액"); got != RoleDate {
		t.Fatalf("expected RoleDate, got %d", got)
	}
}

func TestColumnIndex(t *testing.T) {
	headers := []string{"날짜", "내역", "분류", "정산", "금액", "", "메모"}
	if got := ColumnIndex(headers, RoleAmount); got != 4 {
		t.Fatalf("amount column: expected 4, got %d", got)
	}
	if got := ColumnIndex(headers, RoleCategory); got != 2 {
		t.Fatalf("category column: expected 2, got %d", got)
	}
	if got := ColumnIndex([]string{"a", "b"}, RoleDate); got != -1 {
		t.Fatalf("missing role: expected -1, got %d", got)
	}
}

func TestCell_RaggedRows(t *testing.T) {
	row := []string{"2024. 3. 10", "라면"}
	if got := Cell(row, 1); got != "라면" {
		t.Fatalf("expected 라면, got %q", got)
	}
	if got := Cell(row, 5); got != "" {
		t.Fatalf("out of range: expected empty, got %q", got)
	}
	if got := Cell(row, -1); got != "" {
		t.Fatalf("negative index: expected empty, got %q", got)
	}
}

func TestPartition_Clone(t *testing.T) {
	p := Partition{
		Title:   "2024년 3월",
		Headers: []string{"날짜", "금액"},
		Rows:    [][]string{{"3/1", "1,000"}},
		Budget:  300000,
	}
	cp := p.Clone()
	cp.Rows[0][1] = "mutated"
	if p.Rows[0][1] != "1,000" {
		t.Fatalf("clone must not share row storage with the original")
	}
}
