package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Mutation kinds carried on the queue.
const (
	KindAppend = "append"
	KindDelete = "delete"
)

// RowMutationMessage is a fire-and-forget write against the remote
// spreadsheet. The API publishes it and answers immediately; the worker
// applies it to the sheet.
type RowMutationMessage struct {
	Kind      string    `json:"kind"`
	Partition string    `json:"partition"`
	Timestamp time.Time `json:"timestamp"`

	// Append
	Cells []string `json:"cells,omitempty"`

	// Delete
	SheetID  int64 `json:"sheet_id,omitempty"`
	RowIndex int   `json:"row_index,omitempty"`
}

// NewAppendMessage builds an append mutation.
func NewAppendMessage(partition string, cells []string) *RowMutationMessage {
	return &RowMutationMessage{
		Kind:      KindAppend,
		Partition: partition,
		Cells:     cells,
		Timestamp: time.Now(),
	}
}

// NewDeleteMessage builds a delete mutation for a zero-based data row.
func NewDeleteMessage(partition string, sheetID int64, rowIndex int) *RowMutationMessage {
	return &RowMutationMessage{
		Kind:      KindDelete,
		Partition: partition,
		SheetID:   sheetID,
		RowIndex:  rowIndex,
		Timestamp: time.Now(),
	}
}

// Validate rejects malformed mutations before they reach the queue.
func (m *RowMutationMessage) Validate() error {
	switch m.Kind {
	case KindAppend:
		if m.Partition == "" {
			return fmt.Errorf("append: missing partition")
		}
		if len(m.Cells) == 0 {
			return fmt.Errorf("append: no cells")
		}
	case KindDelete:
		if m.RowIndex < 0 {
			return fmt.Errorf("delete: negative row index")
		}
	default:
		return fmt.Errorf("unknown mutation kind %q", m.Kind)
	}
	return nil
}

func (m *RowMutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RowMutationMessageFromJSON(data []byte) (*RowMutationMessage, error) {
	var msg RowMutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
