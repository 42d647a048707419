package google

import (
	"context"
	"errors"
	"os"
	"testing"

	"google.golang.org/api/googleapi"

	ports "gagyebu/internal/sheets"
)

func TestNewFromEnv_MissingSpreadsheetID(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without GOOGLE_SPREADSHEET_ID")
	}
}

func TestNewFromEnv_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_SPREADSHEET_ID", "sheet-id")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
	t.Setenv("GOOGLE_SERVICE_ACCOUNT_FILE", "")
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_JSON", "")
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")
	t.Setenv("GOOGLE_OAUTH_TOKEN_JSON", "")
	t.Setenv("GOOGLE_OAUTH_TOKEN_FILE", "")
	if _, err := NewFromEnv(context.Background()); err == nil {
		t.Fatalf("expected error without credentials")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"unauthorized", &googleapi.Error{Code: 401}, ports.ErrScope},
		{"forbidden", &googleapi.Error{Code: 403, Message: "The caller does not have permission"}, ports.ErrAccessDenied},
		{"insufficient scope", &googleapi.Error{Code: 403, Message: "Request had insufficient authentication scopes."}, ports.ErrScope},
		{"not found", &googleapi.Error{Code: 404}, ports.ErrAccessDenied},
		{"server error", &googleapi.Error{Code: 500}, ports.ErrUnavailable},
		{"plain error", errors.New("dial tcp: timeout"), ports.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify("op", tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestEnvOrFile(t *testing.T) {
	t.Setenv("TEST_INLINE", "inline-value")
	t.Setenv("TEST_FILE", "")
	raw, err := envOrFile("TEST_INLINE", "TEST_FILE")
	if err != nil || string(raw) != "inline-value" {
		t.Fatalf("inline: got %q, err=%v", raw, err)
	}

	dir := t.TempDir()
	path := dir + "/cred.json"
	if err := os.WriteFile(path, []byte("file-value"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TEST_INLINE", "")
	t.Setenv("TEST_FILE", path)
	raw, err = envOrFile("TEST_INLINE", "TEST_FILE")
	if err != nil || string(raw) != "file-value" {
		t.Fatalf("file: got %q, err=%v", raw, err)
	}

	t.Setenv("TEST_FILE", "")
	raw, err = envOrFile("TEST_INLINE", "TEST_FILE")
	if err != nil || raw != nil {
		t.Fatalf("unset: expected nil, got %q err=%v", raw, err)
	}
}

func TestToStrings(t *testing.T) {
	got := toStrings([]any{" 2024. 3. 10 ", 12000, true})
	if got[0] != "2024. 3. 10" || got[1] != "12000" || got[2] != "true" {
		t.Fatalf("unexpected conversion: %v", got)
	}
}
