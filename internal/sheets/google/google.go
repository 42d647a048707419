package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	ports "gagyebu/internal/sheets"
	"gagyebu/internal/core"
)

// Sheet layout convention: the first grid row carries the month summary
// block, the second is the column header row, data starts on the third.
// Zero-based grid index of the first data row:
const DataRowOffset = 2

// DefaultRowRange fetches the header row plus all data rows.
const DefaultRowRange = "A2:G"

// BudgetCell holds the month's total living budget.
const BudgetCell = "I2"

// DetailRange holds the fixed-expense detail block.
const DetailRange = "I5:J30"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ ports.Source = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Auth, in order of preference: GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE, or an OAuth pair
// (GOOGLE_OAUTH_CLIENT_JSON/FILE + GOOGLE_OAUTH_TOKEN_JSON/FILE, the token
// minted by cmd/oauth-init).
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	if creds, err := serviceAccountJSON(); err != nil {
		return nil, err
	} else if creds != nil {
		slog.InfoContext(ctx, "Creating Sheets service with service account", "credentials_size", len(creds))
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	httpClient, err := oauthHTTPClient(ctx)
	if err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "Creating Sheets service with OAuth token")
	return gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
}

func serviceAccountJSON() ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON")); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return raw, nil
}

func oauthHTTPClient(ctx context.Context) (*http.Client, error) {
	clientJSON, err := envOrFile("GOOGLE_OAUTH_CLIENT_JSON", "GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := envOrFile("GOOGLE_OAUTH_TOKEN_JSON", "GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	if clientJSON == nil || tokenJSON == nil {
		return nil, errors.New("missing credentials: set service account or OAuth client+token variables")
	}

	cfg, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth client config: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	return cfg.Client(ctx, &token), nil
}

func envOrFile(envKey, fileKey string) ([]byte, error) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(os.Getenv(fileKey))
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return raw, nil
}

// ListPartitions implements ports.PartitionLister. It returns every sheet;
// the synchronizer filters to the monthly naming pattern.
func (c *Client) ListPartitions(ctx context.Context) ([]core.PartitionInfo, error) {
	resp, err := c.svc.Spreadsheets.Get(c.spreadsheetID).
		Fields("sheets.properties(sheetId,title)").Context(ctx).Do()
	if err != nil {
		return nil, classify("list partitions", err)
	}
	out := make([]core.PartitionInfo, 0, len(resp.Sheets))
	for _, sh := range resp.Sheets {
		if sh.Properties == nil {
			continue
		}
		info := core.PartitionInfo{
			Title:   sh.Properties.Title,
			SheetID: sh.Properties.SheetId,
		}
		info.Year, info.Month, _ = core.ParseMonthlyTitle(info.Title)
		out = append(out, info)
	}
	return out, nil
}

// ReadRange implements ports.RangeReader.
func (c *Client) ReadRange(ctx context.Context, partitionTitle, rangeSpec string) ([][]string, error) {
	rng := fmt.Sprintf("%s!%s", partitionTitle, rangeSpec)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, classify("read "+rng, err)
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = toStrings(row)
	}
	return out, nil
}

// ReadCell implements ports.CellReader. An empty cell reads as "".
func (c *Client) ReadCell(ctx context.Context, partitionTitle, cellAddress string) (string, error) {
	rng := fmt.Sprintf("%s!%s", partitionTitle, cellAddress)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", classify("read "+rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		return "", nil
	}
	return strings.TrimSpace(fmt.Sprint(resp.Values[0][0])), nil
}

// AppendRow implements ports.RowAppender.
func (c *Client) AppendRow(ctx context.Context, partitionTitle string, cells []string) error {
	values := make([]any, len(cells))
	for i, v := range cells {
		values[i] = v
	}
	rng := fmt.Sprintf("%s!%s", partitionTitle, DefaultRowRange)
	vr := &gsheet.ValueRange{Values: [][]any{values}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return classify("append "+rng, err)
	}
	slog.InfoContext(ctx, "Appended ledger row", "partition", partitionTitle, "cells", len(cells))
	return nil
}

// DeleteRow implements ports.RowDeleter. dataRowIndex is zero-based and
// counts from the first data row, after the summary and header rows.
func (c *Client) DeleteRow(ctx context.Context, sheetID int64, dataRowIndex int) error {
	if dataRowIndex < 0 {
		return fmt.Errorf("invalid row index %d", dataRowIndex)
	}
	start := int64(DataRowOffset + dataRowIndex)
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: start,
					EndIndex:   start + 1,
				},
			},
		}},
	}
	_, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		return classify(fmt.Sprintf("delete row %d of sheet %d", dataRowIndex, sheetID), err)
	}
	slog.InfoContext(ctx, "Deleted ledger row", "sheet_id", sheetID, "row_index", dataRowIndex)
	return nil
}

// classify maps wire errors onto the sheets error taxonomy so the
// synchronizer can switch on errors.Is without importing googleapi.
func classify(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: %v", op, ports.ErrScope, err)
		case http.StatusForbidden:
			if strings.Contains(strings.ToLower(gerr.Message), "insufficient") {
				return fmt.Errorf("%s: %w: %v", op, ports.ErrScope, err)
			}
			return fmt.Errorf("%s: %w: %v", op, ports.ErrAccessDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w: %v", op, ports.ErrAccessDenied, err)
		}
	}
	return fmt.Errorf("%s: %w: %v", op, ports.ErrUnavailable, err)
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
