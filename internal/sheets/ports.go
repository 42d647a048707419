// Package sheets declares the ports for the remote tabular source. The core
// never talks wire-level APIs directly; it consumes these interfaces, with
// the Google adapter and the in-memory fake as implementations.
package sheets

import (
	"context"

	"gagyebu/internal/core"
)

type (
	// PartitionLister fetches the spreadsheet's sheet metadata.
	PartitionLister interface {
		ListPartitions(ctx context.Context) ([]core.PartitionInfo, error)
	}

	// RangeReader reads a rectangular range of a partition. The first row of
	// the returned matrix is the header row.
	RangeReader interface {
		ReadRange(ctx context.Context, partitionTitle, rangeSpec string) ([][]string, error)
	}

	// CellReader reads a single cell, e.g. the month's budget cell.
	CellReader interface {
		ReadCell(ctx context.Context, partitionTitle, cellAddress string) (string, error)
	}

	// RowAppender appends one row after the partition's existing data.
	RowAppender interface {
		AppendRow(ctx context.Context, partitionTitle string, cells []string) error
	}

	// RowDeleter removes a data row by its zero-based index (not counting
	// the header block).
	RowDeleter interface {
		DeleteRow(ctx context.Context, sheetID int64, dataRowIndex int) error
	}

	// Source is the full remote tabular source.
	Source interface {
		PartitionLister
		RangeReader
		CellReader
		RowAppender
		RowDeleter
	}
)
