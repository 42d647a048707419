// Package ledger owns the partition cache and its synchronization against
// the remote spreadsheet. The Store is the single writer of the cache;
// everything downstream reads snapshots. Cache entries are only ever
// replaced whole, never mutated in place.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gagyebu/internal/core"
	"gagyebu/internal/sheets"
)

// State is the synchronizer's lifecycle state.
type State int

const (
	StateUninitialized State = iota
	StateLoadingMetadata
	StateAccessDenied
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoadingMetadata:
		return "loading_metadata"
	case StateAccessDenied:
		return "access_denied"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// SnapshotStore persists fetched partitions so a restart can serve
// last-known data before the first remote call. Optional.
type SnapshotStore interface {
	Save(ctx context.Context, p core.Partition) error
	LoadAll(ctx context.Context) ([]core.Partition, error)
}

// Config holds the sheet layout convention and the request spacing.
type Config struct {
	// RowRange covers the header row and all data rows.
	RowRange string
	// BudgetCell addresses the month's total budget.
	BudgetCell string
	// DetailRange covers the fixed-expense detail block.
	DetailRange string
	// RequestInterval spaces the sequential fetches of RefreshAll.
	RequestInterval time.Duration
}

// DefaultConfig matches the household spreadsheet layout: summary block in
// row 1, header row in row 2, data below; budget and details to the right.
func DefaultConfig() Config {
	return Config{
		RowRange:        "A2:G",
		BudgetCell:      "I2",
		DetailRange:     "I5:J30",
		RequestInterval: 1200 * time.Millisecond,
	}
}

// Store is the partition cache and synchronizer.
type Store struct {
	source    sheets.Source
	snapshots SnapshotStore
	limiter   *Limiter
	cfg       Config

	mu         sync.RWMutex
	state      State
	partitions []core.PartitionInfo
	selection  string
	selGen     uint64
	cache      map[string]core.Partition
	refreshing bool
}

func NewStore(source sheets.Source, snapshots SnapshotStore, cfg Config) *Store {
	if cfg.RowRange == "" {
		cfg = DefaultConfig()
	}
	return &Store{
		source:    source,
		snapshots: snapshots,
		limiter:   NewLimiter(cfg.RequestInterval),
		cfg:       cfg,
		cache:     make(map[string]core.Partition),
	}
}

// WarmStart loads persisted partition snapshots into the cache. Call before
// Initialize; failures are logged, not fatal.
func (s *Store) WarmStart(ctx context.Context) {
	if s.snapshots == nil {
		return
	}
	parts, err := s.snapshots.LoadAll(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Snapshot warm start failed", "error", err)
		return
	}
	s.mu.Lock()
	for _, p := range parts {
		s.cache[p.Title] = p
	}
	s.mu.Unlock()
	slog.InfoContext(ctx, "Warm started partition cache", "partitions", len(parts))
}

// Initialize fetches sheet metadata, keeps the monthly partitions sorted
// newest first, and selects the current month's partition (or the newest
// when the current month is absent). Any failure leaves the store in
// StateAccessDenied with no partitions exposed.
func (s *Store) Initialize(ctx context.Context, now time.Time) error {
	s.mu.Lock()
	s.state = StateLoadingMetadata
	s.mu.Unlock()

	infos, err := s.source.ListPartitions(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = StateAccessDenied
		s.partitions = nil
		s.mu.Unlock()
		return fmt.Errorf("initialize: %w", err)
	}

	monthly := make([]core.PartitionInfo, 0, len(infos))
	for _, info := range infos {
		if _, _, ok := core.ParseMonthlyTitle(info.Title); ok {
			monthly = append(monthly, info)
		}
	}
	sort.SliceStable(monthly, func(i, j int) bool {
		if monthly[i].Year != monthly[j].Year {
			return monthly[i].Year > monthly[j].Year
		}
		return monthly[i].Month > monthly[j].Month
	})

	selection := ""
	for _, info := range monthly {
		if info.Year == now.Year() && info.Month == int(now.Month()) {
			selection = info.Title
			break
		}
	}
	if selection == "" && len(monthly) > 0 {
		selection = monthly[0].Title
	}

	s.mu.Lock()
	s.state = StateReady
	s.partitions = monthly
	s.selection = selection
	s.selGen++
	s.mu.Unlock()

	slog.InfoContext(ctx, "Partition metadata loaded",
		"partitions", len(monthly), "selected", selection)
	return nil
}

// SelectPartition changes the active partition. It does not fetch; callers
// refresh when the cache has no entry for the new selection. Unknown titles
// are accepted and simply read back as no data.
func (s *Store) SelectPartition(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if title == s.selection {
		return
	}
	s.selection = title
	s.selGen++
}

// Selection returns the active partition title, possibly empty.
func (s *Store) Selection() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selection
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Refreshing reports whether a refresh is in flight.
func (s *Store) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// Partitions returns the known monthly partitions, newest first.
func (s *Store) Partitions() []core.PartitionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.PartitionInfo(nil), s.partitions...)
}

// Partition returns a snapshot of one cached partition.
func (s *Store) Partition(title string) (core.Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.cache[title]
	if !ok {
		return core.Partition{}, false
	}
	return p.Clone(), true
}

// Selected returns a snapshot of the active partition. ok is false when
// nothing is selected or the selection has no cache entry yet.
func (s *Store) Selected() (core.Partition, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selection == "" {
		return core.Partition{}, false
	}
	p, ok := s.cache[s.selection]
	if !ok {
		return core.Partition{}, false
	}
	return p.Clone(), true
}

// CachedPartitions returns snapshots of every cached partition.
func (s *Store) CachedPartitions() []core.Partition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Partition, 0, len(s.cache))
	for _, p := range s.cache {
		out = append(out, p.Clone())
	}
	return out
}

// RefreshSelected re-fetches only the active partition, the default refresh
// action; it spends three requests, not one per known partition. A fetch
// that completes after the selection has moved on is discarded: the result
// is tagged with the selection generation at issue time.
func (s *Store) RefreshSelected(ctx context.Context) error {
	s.mu.Lock()
	title := s.selection
	gen := s.selGen
	if title == "" {
		s.mu.Unlock()
		return nil
	}
	s.refreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.refreshing = false
		s.mu.Unlock()
	}()

	p, err := s.fetchPartition(ctx, title)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", title, err)
	}

	s.mu.Lock()
	if s.selGen != gen {
		s.mu.Unlock()
		slog.InfoContext(ctx, "Discarding stale refresh result", "partition", title)
		return nil
	}
	s.cache[title] = p
	s.mu.Unlock()

	s.persist(ctx, p)
	return nil
}

// RefreshPartition re-fetches a single partition by title regardless of the
// current selection. Used by the worker after it applies a queued mutation.
func (s *Store) RefreshPartition(ctx context.Context, title string) error {
	if title == "" {
		return nil
	}
	p, err := s.fetchPartition(ctx, title)
	if err != nil {
		return fmt.Errorf("refresh %q: %w", title, err)
	}
	s.mu.Lock()
	s.cache[title] = p
	s.mu.Unlock()
	s.persist(ctx, p)
	return nil
}

// RefreshAll fetches every known monthly partition strictly sequentially,
// spaced by the request interval. One partition's failure is logged and
// skipped; the sweep continues. Only context cancellation aborts it.
func (s *Store) RefreshAll(ctx context.Context) error {
	infos := s.Partitions()
	fetched := 0
	for _, info := range infos {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		p, err := s.fetchPartition(ctx, info.Title)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			slog.WarnContext(ctx, "Skipping partition after fetch failure",
				"partition", info.Title, "error", err)
			continue
		}
		s.mu.Lock()
		s.cache[info.Title] = p
		s.mu.Unlock()
		s.persist(ctx, p)
		fetched++
	}
	slog.InfoContext(ctx, "Bulk refresh finished", "fetched", fetched, "known", len(infos))
	return nil
}

// fetchPartition issues the row-range, budget-cell, and detail-range reads
// back to back and waits for all three to settle.
func (s *Store) fetchPartition(ctx context.Context, title string) (core.Partition, error) {
	var (
		matrix    [][]string
		budgetRaw string
		details   [][]string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matrix, err = s.source.ReadRange(gctx, title, s.cfg.RowRange)
		return err
	})
	g.Go(func() error {
		var err error
		budgetRaw, err = s.source.ReadCell(gctx, title, s.cfg.BudgetCell)
		return err
	})
	g.Go(func() error {
		var err error
		details, err = s.source.ReadRange(gctx, title, s.cfg.DetailRange)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Partition{}, err
	}

	p := core.Partition{Title: title, Details: details}
	if len(matrix) > 0 {
		p.Headers = matrix[0]
		p.Rows = matrix[1:]
	}
	if budget, ok := core.ParseAbsAmount(budgetRaw); ok {
		p.Budget = budget
	}
	return p, nil
}

func (s *Store) persist(ctx context.Context, p core.Partition) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Save(ctx, p); err != nil {
		slog.WarnContext(ctx, "Snapshot save failed", "partition", p.Title, "error", err)
	}
}

// IsAuthError reports whether err should force re-authentication rather
// than a retry.
func IsAuthError(err error) bool {
	return errors.Is(err, sheets.ErrScope)
}

// IsAccessDenied reports whether err is the terminal no-permission case.
func IsAccessDenied(err error) bool {
	return errors.Is(err, sheets.ErrAccessDenied)
}
