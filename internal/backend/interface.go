package backend

import (
	"context"

	"gagyebu/internal/sheets"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Result contains the source instance and optional cleanup function
type Result struct {
	Source  sheets.Source
	Cleanup CleanupFunc
}

// Factory creates spreadsheet sources based on configuration
type Factory interface {
	CreateSource(ctx context.Context, config Config) (*Result, error)
}

// Config holds configuration for source creation
type Config struct {
	Type Type

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string
	ServiceAccountFile    string
	ServiceAccountJSON    string
}

// Type represents the kind of spreadsheet source
type Type string

const (
	SheetsSource Type = "sheets"
	MemorySource Type = "memory"
)

// String implements fmt.Stringer
func (t Type) String() string {
	return string(t)
}

// IsValid returns true if the source type is valid
func (t Type) IsValid() bool {
	switch t {
	case SheetsSource, MemorySource:
		return true
	default:
		return false
	}
}
