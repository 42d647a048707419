package worker

import (
	"context"
	"fmt"
	"log/slog"

	"gagyebu/internal/amqp"
	"gagyebu/internal/ledger"
	"gagyebu/internal/sheets"
)

// SyncWorker applies queued row mutations to the remote spreadsheet and
// refreshes the local snapshot afterwards.
type SyncWorker struct {
	client *amqp.Client
	source sheets.Source
	store  *ledger.Store
}

func NewSyncWorker(client *amqp.Client, source sheets.Source, store *ledger.Store) *SyncWorker {
	return &SyncWorker{
		client: client,
		source: source,
		store:  store,
	}
}

// Start consumes mutations until the context is cancelled.
func (w *SyncWorker) Start(ctx context.Context) error {
	slog.InfoContext(ctx, "Starting sync worker")
	return w.client.ConsumeMutations(ctx, func(msg *amqp.RowMutationMessage) error {
		return w.handle(ctx, msg)
	})
}

func (w *SyncWorker) handle(ctx context.Context, msg *amqp.RowMutationMessage) error {
	switch msg.Kind {
	case amqp.KindAppend:
		if err := w.source.AppendRow(ctx, msg.Partition, msg.Cells); err != nil {
			return fmt.Errorf("append row to %q: %w", msg.Partition, err)
		}
	case amqp.KindDelete:
		if err := w.source.DeleteRow(ctx, msg.SheetID, msg.RowIndex); err != nil {
			return fmt.Errorf("delete row %d from %q: %w", msg.RowIndex, msg.Partition, err)
		}
	default:
		return fmt.Errorf("unknown mutation kind %q", msg.Kind)
	}

	slog.InfoContext(ctx, "Applied row mutation",
		"kind", msg.Kind,
		"partition", msg.Partition)

	if w.store != nil {
		if err := w.store.RefreshPartition(ctx, msg.Partition); err != nil {
			// The mutation already landed; a failed refresh only delays
			// the snapshot until the next scheduled pass.
			slog.WarnContext(ctx, "Snapshot refresh after mutation failed",
				"partition", msg.Partition,
				"error", err)
		}
	}

	return nil
}
