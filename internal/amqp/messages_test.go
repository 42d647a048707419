package amqp

import (
	"testing"
	"time"
)

func TestNewAppendMessage(t *testing.T) {
	cells := []string{"2024. 3. 10", "점심", "생활비 지출", "", "12000", ""}
	msg := NewAppendMessage("2024년 3월", cells)

	if msg.Kind != KindAppend {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindAppend)
	}
	if msg.Partition != "2024년 3월" {
		t.Errorf("Partition = %q, want %q", msg.Partition, "2024년 3월")
	}
	if len(msg.Cells) != len(cells) {
		t.Errorf("len(Cells) = %d, want %d", len(msg.Cells), len(cells))
	}
	if msg.Timestamp.IsZero() {
		t.Error("Timestamp should be set")
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestNewDeleteMessage(t *testing.T) {
	msg := NewDeleteMessage("2024년 3월", 42, 7)

	if msg.Kind != KindDelete {
		t.Errorf("Kind = %q, want %q", msg.Kind, KindDelete)
	}
	if msg.SheetID != 42 {
		t.Errorf("SheetID = %d, want 42", msg.SheetID)
	}
	if msg.RowIndex != 7 {
		t.Errorf("RowIndex = %d, want 7", msg.RowIndex)
	}
	if err := msg.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestRowMutationMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     RowMutationMessage
		wantErr bool
	}{
		{
			name: "valid append",
			msg: RowMutationMessage{
				Kind:      KindAppend,
				Partition: "2024년 3월",
				Cells:     []string{"2024. 3. 10", "점심"},
				Timestamp: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "valid delete",
			msg: RowMutationMessage{
				Kind:      KindDelete,
				Partition: "2024년 3월",
				RowIndex:  0,
				Timestamp: time.Now(),
			},
			wantErr: false,
		},
		{
			name: "unknown kind",
			msg: RowMutationMessage{
				Kind:      "upsert",
				Partition: "2024년 3월",
				Timestamp: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "missing partition",
			msg: RowMutationMessage{
				Kind:      KindAppend,
				Cells:     []string{"a"},
				Timestamp: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "append without cells",
			msg: RowMutationMessage{
				Kind:      KindAppend,
				Partition: "2024년 3월",
				Timestamp: time.Now(),
			},
			wantErr: true,
		},
		{
			name: "delete with negative row index",
			msg: RowMutationMessage{
				Kind:      KindDelete,
				Partition: "2024년 3월",
				RowIndex:  -1,
				Timestamp: time.Now(),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRowMutationMessageJSONRoundTrip(t *testing.T) {
	original := NewDeleteMessage("2024년 1월", 314, 3)

	data, err := original.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() failed: %v", err)
	}

	decoded, err := RowMutationMessageFromJSON(data)
	if err != nil {
		t.Fatalf("RowMutationMessageFromJSON() failed: %v", err)
	}

	if decoded.Kind != original.Kind {
		t.Errorf("Kind = %q, want %q", decoded.Kind, original.Kind)
	}
	if decoded.Partition != original.Partition {
		t.Errorf("Partition = %q, want %q", decoded.Partition, original.Partition)
	}
	if decoded.SheetID != original.SheetID {
		t.Errorf("SheetID = %d, want %d", decoded.SheetID, original.SheetID)
	}
	if decoded.RowIndex != original.RowIndex {
		t.Errorf("RowIndex = %d, want %d", decoded.RowIndex, original.RowIndex)
	}
}

func TestRowMutationMessageFromJSONInvalid(t *testing.T) {
	if _, err := RowMutationMessageFromJSON([]byte("not json")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}
