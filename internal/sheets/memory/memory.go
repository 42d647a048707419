// Package memory is an in-memory Source used by tests and by local
// development without Google credentials. It mirrors the sheet layout
// convention of the Google adapter: range reads return the header row first,
// the budget lives in its own cell.
package memory

import (
	"context"
	"fmt"
	"sync"

	"gagyebu/internal/core"
	ports "gagyebu/internal/sheets"
)

type sheetData struct {
	info    core.PartitionInfo
	headers []string
	rows    [][]string
	budget  string
	details [][]string
}

type Store struct {
	mu     sync.Mutex
	sheets []*sheetData
	// failures maps partition title to the error every read of it returns.
	failures map[string]error
	// Calls records every remote-call invocation in order, for tests
	// asserting sequencing.
	Calls []string
}

var _ ports.Source = (*Store)(nil)

func New() *Store {
	return &Store{failures: make(map[string]error)}
}

// AddPartition registers a sheet with its header row and data rows.
func (s *Store) AddPartition(info core.PartitionInfo, headers []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sheets = append(s.sheets, &sheetData{info: info, headers: headers, rows: rows})
}

// SetBudget sets the budget cell value for a partition.
func (s *Store) SetBudget(title, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh := s.find(title); sh != nil {
		sh.budget = value
	}
}

// SetDetails sets the detail block for a partition.
func (s *Store) SetDetails(title string, details [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sh := s.find(title); sh != nil {
		sh.details = details
	}
}

// FailPartition makes every read of the named partition return err.
// A nil err clears the failure.
func (s *Store) FailPartition(title string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.failures, title)
		return
	}
	s.failures[title] = err
}

func (s *Store) find(title string) *sheetData {
	for _, sh := range s.sheets {
		if sh.info.Title == title {
			return sh
		}
	}
	return nil
}

func (s *Store) record(call string) {
	s.Calls = append(s.Calls, call)
}

func (s *Store) ListPartitions(_ context.Context) ([]core.PartitionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("list")
	if err, ok := s.failures["*"]; ok {
		return nil, err
	}
	out := make([]core.PartitionInfo, 0, len(s.sheets))
	for _, sh := range s.sheets {
		out = append(out, sh.info)
	}
	return out, nil
}

func (s *Store) ReadRange(_ context.Context, partitionTitle, rangeSpec string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("range:" + partitionTitle)
	if err := s.readErr(partitionTitle); err != nil {
		return nil, err
	}
	sh := s.find(partitionTitle)
	if sh == nil {
		return nil, fmt.Errorf("%w: no sheet %q", ports.ErrUnavailable, partitionTitle)
	}
	if rangeSpec == DetailRangeSpec {
		return cloneRows(sh.details), nil
	}
	out := make([][]string, 0, len(sh.rows)+1)
	out = append(out, append([]string(nil), sh.headers...))
	out = append(out, cloneRows(sh.rows)...)
	return out, nil
}

// DetailRangeSpec is the range the store serves the detail block for,
// matching the Google adapter's convention.
const DetailRangeSpec = "I5:J30"

func (s *Store) ReadCell(_ context.Context, partitionTitle, cellAddress string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("cell:" + partitionTitle + "!" + cellAddress)
	if err := s.readErr(partitionTitle); err != nil {
		return "", err
	}
	sh := s.find(partitionTitle)
	if sh == nil {
		return "", nil
	}
	return sh.budget, nil
}

func (s *Store) AppendRow(_ context.Context, partitionTitle string, cells []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("append:" + partitionTitle)
	if err := s.readErr(partitionTitle); err != nil {
		return err
	}
	sh := s.find(partitionTitle)
	if sh == nil {
		return fmt.Errorf("%w: no sheet %q", ports.ErrUnavailable, partitionTitle)
	}
	sh.rows = append(sh.rows, append([]string(nil), cells...))
	return nil
}

func (s *Store) DeleteRow(_ context.Context, sheetID int64, dataRowIndex int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(fmt.Sprintf("delete:%d:%d", sheetID, dataRowIndex))
	for _, sh := range s.sheets {
		if sh.info.SheetID != sheetID {
			continue
		}
		if dataRowIndex < 0 || dataRowIndex >= len(sh.rows) {
			return fmt.Errorf("row index %d out of range", dataRowIndex)
		}
		sh.rows = append(sh.rows[:dataRowIndex], sh.rows[dataRowIndex+1:]...)
		return nil
	}
	return fmt.Errorf("%w: no sheet id %d", ports.ErrUnavailable, sheetID)
}

func (s *Store) readErr(title string) error {
	if err, ok := s.failures["*"]; ok {
		return err
	}
	if err, ok := s.failures[title]; ok {
		return err
	}
	return nil
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
