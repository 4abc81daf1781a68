// Package sheets adapts a Google Sheets spreadsheet as the durable ledger.
// One sheet holds the transaction log; each entry is one appended row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"duit/internal/core"
	"duit/internal/ledger"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Row layout of the transactions sheet, columns A through I.
var headerRow = []any{
	"Timestamp", "Date", "Time", "Type", "Category",
	"Amount", "Description", "User ID", "User Name",
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

// Ensure interface conformance
var (
	_ ledger.Appender  = (*Client)(nil)
	_ ledger.RowSource = (*Client)(nil)
)

// New creates a Sheets-backed ledger client. Credentials are resolved from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
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

// EnsureSheet creates the transactions sheet with its header row when the
// spreadsheet does not have one yet.
func (c *Client) EnsureSheet(ctx context.Context) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			return nil
		}
	}

	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{
					Title:          c.sheetName,
					GridProperties: &gsheet.GridProperties{FrozenRowCount: 1},
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheet %s: %w", c.sheetName, err)
	}

	rng := fmt.Sprintf("%s!A1:I1", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{headerRow}}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	slog.InfoContext(ctx, "Transactions sheet created", "sheet", c.sheetName)
	return nil
}

// Append writes one entry as a new row and returns the updated range as the
// row reference.
func (c *Client) Append(ctx context.Context, e core.LedgerEntry) (string, error) {
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	row := []any{
		e.Timestamp.Format(time.RFC3339),
		e.OccurredOn.Format("2006-01-02"),
		e.Timestamp.Format("15:04:05"),
		string(e.Kind),
		e.Category,
		e.Amount.String(),
		e.Description,
		e.OwnerID,
		e.OwnerName,
	}

	rng := fmt.Sprintf("%s!A:I", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	return ref, nil
}

// QueryAll reads the whole transaction log below the header. Rows that do not
// parse are skipped rather than failing the feed; the log is user data and a
// single garbled row must not hide the rest.
func (c *Client) QueryAll(ctx context.Context) ([]core.LedgerEntry, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A2:I", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.LedgerEntry
	for i, row := range resp.Values {
		e, ok := parseRow(row)
		if !ok {
			slog.WarnContext(ctx, "Skipping unparsable ledger row", "sheet", c.sheetName, "row", i+2)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func parseRow(row []any) (core.LedgerEntry, bool) {
	cols := toStrings(row)
	if len(cols) < 8 {
		return core.LedgerEntry{}, false
	}

	ts, err := time.Parse(time.RFC3339, cols[0])
	if err != nil {
		ts = time.Time{}
	}
	day, err := time.Parse("2006-01-02", cols[1])
	if err != nil {
		return core.LedgerEntry{}, false
	}
	kind := core.EntryKind(strings.ToLower(cols[3]))
	if !kind.Valid() {
		return core.LedgerEntry{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(cols[5], ",", "."))
	if err != nil || amount.Sign() <= 0 {
		return core.LedgerEntry{}, false
	}

	e := core.LedgerEntry{
		Timestamp:   ts,
		OccurredOn:  core.DateOf(day),
		Kind:        kind,
		Category:    cols[4],
		Amount:      amount,
		Description: cols[6],
		OwnerID:     cols[7],
	}
	if len(cols) >= 9 {
		e.OwnerName = cols[8]
	}
	if e.OwnerName == "" {
		e.OwnerName = "Unknown"
	}
	return e, true
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}
