package sheets

import "errors"

// Error taxonomy for remote-source failures. The synchronizer switches on
// these with errors.Is; everything else counts as a recoverable
// network/server failure.
var (
	// ErrAccessDenied: the spreadsheet or its sheet listing is forbidden.
	// Terminal for the session.
	ErrAccessDenied = errors.New("spreadsheet access denied")

	// ErrScope: the credential is live but lacks the required permission.
	// Callers should force re-authentication instead of retrying.
	ErrScope = errors.New("credential lacks required scope")

	// ErrUnavailable: transient network or server failure; safe to retry.
	ErrUnavailable = errors.New("remote source unavailable")
)
