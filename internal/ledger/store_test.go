package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
	"gagyebu/internal/sheets/memory"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RequestInterval = 0
	return cfg
}

func seededSource() *memory.Store {
	src := memory.New()
	for m := 1; m <= 3; m++ {
		src.AddPartition(
			core.PartitionInfo{Title: fmt.Sprintf("2024년 %d월", m), SheetID: int64(m), Year: 2024, Month: m},
			[]string{"날짜", "내역", "분류", "금액"},
			[][]string{{fmt.Sprintf("%d/1", m), "항목", "생활비 지출", "10,000"}},
		)
	}
	src.AddPartition(core.PartitionInfo{Title: "Dashboard", SheetID: 99}, nil, nil)
	src.SetBudget("2024년 3월", "300,000")
	return src
}

func TestInitialize_FiltersSortsSelects(t *testing.T) {
	s := NewStore(seededSource(), nil, testConfig())
	now := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	if err := s.Initialize(context.Background(), now); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if s.State() != StateReady {
		t.Fatalf("expected ready, got %v", s.State())
	}

	parts := s.Partitions()
	if len(parts) != 3 {
		t.Fatalf("non-monthly sheets must be filtered, got %d", len(parts))
	}
	if parts[0].Title != "2024년 3월" || parts[2].Title != "2024년 1월" {
		t.Fatalf("expected newest-first order, got %v", parts)
	}
	if got := s.Selection(); got != "2024년 2월" {
		t.Fatalf("expected current month selected, got %q", got)
	}
}

func TestInitialize_NoCurrentMonthSelectsNewest(t *testing.T) {
	s := NewStore(seededSource(), nil, testConfig())
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if err := s.Initialize(context.Background(), now); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if got := s.Selection(); got != "2024년 3월" {
		t.Fatalf("expected newest partition, got %q", got)
	}
}

func TestInitialize_FailureIsAccessDenied(t *testing.T) {
	src := seededSource()
	src.FailPartition("*", fmt.Errorf("boom: %w", sheets.ErrAccessDenied))
	s := NewStore(src, nil, testConfig())
	if err := s.Initialize(context.Background(), time.Now()); err == nil {
		t.Fatalf("expected error")
	}
	if s.State() != StateAccessDenied {
		t.Fatalf("expected access denied state, got %v", s.State())
	}
	if len(s.Partitions()) != 0 {
		t.Fatalf("denied store must expose no partitions")
	}
}

func TestRefreshSelected(t *testing.T) {
	s := NewStore(seededSource(), nil, testConfig())
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if err := s.Initialize(ctx, now); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.RefreshSelected(ctx); err != nil {
		t.Fatalf("RefreshSelected: %v", err)
	}

	p, ok := s.Selected()
	if !ok {
		t.Fatalf("expected cached selection")
	}
	if p.Title != "2024년 3월" || len(p.Rows) != 1 || p.Budget != 300000 {
		t.Fatalf("unexpected partition: %+v", p)
	}
	if s.Refreshing() {
		t.Fatalf("refreshing flag must clear")
	}
}

func TestRefreshSelected_FailureKeepsPriorEntry(t *testing.T) {
	src := seededSource()
	s := NewStore(src, nil, testConfig())
	ctx := context.Background()
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if err := s.Initialize(ctx, now); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.RefreshSelected(ctx); err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	src.FailPartition("2024년 3월", fmt.Errorf("flaky: %w", sheets.ErrUnavailable))
	if err := s.RefreshSelected(ctx); err == nil {
		t.Fatalf("expected refresh error")
	}
	if s.Refreshing() {
		t.Fatalf("refreshing flag must clear after failure")
	}

	p, ok := s.Partition("2024년 3월")
	if !ok || len(p.Rows) != 1 {
		t.Fatalf("prior cache entry must survive a failed refresh")
	}
}

func TestRefreshSelected_NoSelectionIsNoop(t *testing.T) {
	s := NewStore(memory.New(), nil, testConfig())
	if err := s.RefreshSelected(context.Background()); err != nil {
		t.Fatalf("expected noop, got %v", err)
	}
}

func TestSelectPartition_UnknownDegradesToNoData(t *testing.T) {
	s := NewStore(seededSource(), nil, testConfig())
	ctx := context.Background()
	if err := s.Initialize(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	s.SelectPartition("1999년 1월")
	if _, ok := s.Selected(); ok {
		t.Fatalf("unknown selection must read as no data")
	}
}

func TestRefreshAll_SkipsFailedPartition(t *testing.T) {
	src := seededSource()
	src.FailPartition("2024년 2월", fmt.Errorf("flaky: %w", sheets.ErrUnavailable))
	s := NewStore(src, nil, testConfig())
	ctx := context.Background()
	if err := s.Initialize(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.RefreshAll(ctx); err != nil {
		t.Fatalf("RefreshAll must not fail the batch: %v", err)
	}

	if _, ok := s.Partition("2024년 1월"); !ok {
		t.Fatalf("partition 1 missing from cache")
	}
	if _, ok := s.Partition("2024년 2월"); ok {
		t.Fatalf("failed partition must not be cached")
	}
	if _, ok := s.Partition("2024년 3월"); !ok {
		t.Fatalf("partition 3 missing from cache")
	}
}

func TestRefreshAll_CancelledContextAborts(t *testing.T) {
	s := NewStore(seededSource(), nil, testConfig())
	ctx := context.Background()
	if err := s.Initialize(ctx, time.Now()); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := s.RefreshAll(cancelled); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

// reselectingSource switches the store's selection away while a fetch for
// the old selection is still in flight.
type reselectingSource struct {
	*memory.Store
	store    *Store
	newTitle string
	once     sync.Once
}

func (r *reselectingSource) ReadRange(ctx context.Context, title, rangeSpec string) ([][]string, error) {
	r.once.Do(func() { r.store.SelectPartition(r.newTitle) })
	return r.Store.ReadRange(ctx, title, rangeSpec)
}

func TestRefreshSelected_DiscardsStaleResult(t *testing.T) {
	src := seededSource()
	wrapped := &reselectingSource{Store: src, newTitle: "2024년 1월"}
	s := NewStore(wrapped, nil, testConfig())
	wrapped.store = s

	ctx := context.Background()
	if err := s.Initialize(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	// Selection is "2024년 3월"; the in-flight fetch triggers a reselect.
	if err := s.RefreshSelected(ctx); err != nil {
		t.Fatalf("RefreshSelected: %v", err)
	}
	if _, ok := s.Partition("2024년 3월"); ok {
		t.Fatalf("stale response must not be applied to the cache")
	}
}

func TestPartitionSnapshotIsIsolated(t *testing.T) {
	s := NewStore(seededSource(), nil, testConfig())
	ctx := context.Background()
	if err := s.Initialize(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.RefreshSelected(ctx); err != nil {
		t.Fatalf("RefreshSelected: %v", err)
	}
	p, _ := s.Selected()
	p.Rows[0][0] = "mutated"
	again, _ := s.Selected()
	if again.Rows[0][0] == "mutated" {
		t.Fatalf("consumers must not be able to mutate the cache")
	}
}

type fakeSnapshots struct {
	saved  []string
	stored []core.Partition
}

func (f *fakeSnapshots) Save(_ context.Context, p core.Partition) error {
	f.saved = append(f.saved, p.Title)
	return nil
}

func (f *fakeSnapshots) LoadAll(_ context.Context) ([]core.Partition, error) {
	return f.stored, nil
}

func TestWarmStartAndPersist(t *testing.T) {
	snaps := &fakeSnapshots{stored: []core.Partition{{Title: "2024년 2월", Rows: [][]string{{"x"}}}}}
	s := NewStore(seededSource(), snaps, testConfig())
	ctx := context.Background()

	s.WarmStart(ctx)
	if _, ok := s.Partition("2024년 2월"); !ok {
		t.Fatalf("warm start must populate the cache")
	}

	if err := s.Initialize(ctx, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if err := s.RefreshSelected(ctx); err != nil {
		t.Fatalf("RefreshSelected: %v", err)
	}
	if len(snaps.saved) != 1 || snaps.saved[0] != "2024년 3월" {
		t.Fatalf("completed fetch must persist a snapshot, saved=%v", snaps.saved)
	}
}
