// Package google mirrors the run log to a Google Sheets spreadsheet using
// service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"warchest/internal/core"
	"warchest/internal/export"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	runsSheet     string
}

// Ensure interface conformance
var (
	_ export.RunWriter = (*Client)(nil)
	_ export.RunReader = (*Client)(nil)
)

// exportFields fixes the column layout after the timestamp column: one
// column per run field a derivable currency reads, in registry order.
var exportFields = runFieldColumns()

func runFieldColumns() []string {
	var out []string
	seen := map[string]bool{}
	for _, cur := range core.AllCurrencies() {
		for _, f := range cur.RunFields {
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	return out
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Optional: GOOGLE_RUNS_SHEET_NAME (default "Runs") and service account
// credentials via GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE
// or GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	runsSheet := strings.TrimSpace(os.Getenv("GOOGLE_RUNS_SHEET_NAME"))
	if runsSheet == "" {
		runsSheet = "Runs"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		runsSheet:     runsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// AppendRun writes the run as one row: timestamp in column A, then one
// column per exported field.
func (c *Client) AppendRun(ctx context.Context, run core.Run) (string, error) {
	if err := run.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := make([]any, 0, len(exportFields)+1)
	row = append(row, run.RunAt.UTC().Format(time.RFC3339))
	for _, f := range exportFields {
		row = append(row, run.Fields[f])
	}

	vr := &gsheet.ValueRange{Values: [][]any{row}}
	rng := fmt.Sprintf("%s!A:%c", c.runsSheet, 'A'+len(exportFields))
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append run to sheet %s: %w", c.runsSheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Run exported to sheet",
		"sheet", c.runsSheet,
		"range", ref,
		"run_at", run.RunAt)
	return ref, nil
}

// ListRuns reads every exported row back. Rows with an unparseable
// timestamp are skipped rather than failing the whole read.
func (c *Client) ListRuns(ctx context.Context) ([]core.Run, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:%c", c.runsSheet, 'A'+len(exportFields))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.runsSheet, err)
	}

	var runs []core.Run
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		ts, err := time.Parse(time.RFC3339, fmt.Sprint(row[0]))
		if err != nil {
			continue
		}
		run := core.Run{RunAt: ts, Fields: make(map[string]int64, len(exportFields))}
		for i, f := range exportFields {
			if i+1 >= len(row) {
				break
			}
			if v, err := strconv.ParseInt(fmt.Sprint(row[i+1]), 10, 64); err == nil && v != 0 {
				run.Fields[f] = v
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}
