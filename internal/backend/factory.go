package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gagyebu/internal/core"
	gsheet "gagyebu/internal/sheets/google"
	"gagyebu/internal/sheets/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateSource implements Factory.CreateSource
func (f *DefaultFactory) CreateSource(ctx context.Context, config Config) (*Result, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SheetsSource:
		return f.createSheetsSource(ctx)
	case MemorySource:
		return f.createMemorySource()
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSheetsSource(ctx context.Context) (*Result, error) {
	cli, err := gsheet.NewFromEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend")

	return &Result{
		Source:  cli,
		Cleanup: nil,
	}, nil
}

func (f *DefaultFactory) createMemorySource() (*Result, error) {
	store := memory.New()
	seedDemo(store, time.Now())

	f.logger.Info("Initialized memory backend with demo data")

	return &Result{
		Source:  store,
		Cleanup: nil,
	}, nil
}

// seedDemo registers a partition for the current month so local development
// starts with something to look at.
func seedDemo(store *memory.Store, now time.Time) {
	title := fmt.Sprintf("%d년 %d월", now.Year(), int(now.Month()))
	store.AddPartition(
		core.PartitionInfo{Title: title, SheetID: 1, Year: now.Year(), Month: int(now.Month())},
		[]string{"날짜", "내역", "분류", "정산", "금액", "메모"},
		[][]string{
			{fmt.Sprintf("%d. %d. 2", now.Year(), int(now.Month())), "점심", "생활비 지출", "", "12000", ""},
			{fmt.Sprintf("%d. %d. 3", now.Year(), int(now.Month())), "월세", "고정 지출", "", "500000", ""},
			{fmt.Sprintf("%d. %d. 5", now.Year(), int(now.Month())), "월급", "수입", "", "3000000", ""},
			{fmt.Sprintf("%d. %d. 7", now.Year(), int(now.Month())), "적금", "저축", "", "500000", ""},
		},
	)
	store.SetBudget(title, "300000")
	store.SetDetails(title, [][]string{
		{"생활비", "300000"},
		{"고정", "500000"},
	})
}
