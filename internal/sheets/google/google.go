package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kakeibo/internal/core"
	ports "kakeibo/internal/sheets"
)

// Records live on the expenses sheet in columns A:D (date, amount,
// description, genre) below a header row, so the first record sits on
// sheet row 2. The category list lives on the config sheet in column A
// below its own header.
const (
	firstRecordRow   = 2
	firstCategoryRow = 2
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	recordsSheet  string
	configSheet   string
}

// Ensure interface conformance
var _ ports.Store = (*Client)(nil)

// New builds a client for the given spreadsheet and sheet names.
func New(svc *gsheet.Service, spreadsheetID, recordsSheet, configSheet string) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		recordsSheet:  recordsSheet,
		configSheet:   configSheet,
	}
}

// NewFromEnv creates a Sheets client using environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Optional sheet names: GOOGLE_SHEET_NAME (default "Expenses"),
// GOOGLE_CONFIG_SHEET_NAME (default "Config").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	recordsSheet := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if recordsSheet == "" {
		recordsSheet = "Expenses"
	}
	configSheet := strings.TrimSpace(os.Getenv("GOOGLE_CONFIG_SHEET_NAME"))
	if configSheet == "" {
		configSheet = "Config"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return New(svc, spreadsheetID, recordsSheet, configSheet), nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Uses GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS.
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

// FetchRecords reads all expense rows. The sheet row index is the record
// identifier: row numbers stay stable because rows are only appended.
func (c *Client) FetchRecords(ctx context.Context) ([]core.Expense, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A%d:D", c.recordsSheet, firstRecordRow)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return parseRecordRows(resp.Values, firstRecordRow), nil
}

// UpdateRecord writes only the provided fields of the target row:
// description to column C, genre to column D. Omitted fields keep their
// current cell values.
func (c *Client) UpdateRecord(ctx context.Context, u core.RecordUpdate) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := u.Validate(); err != nil {
		return err
	}

	// Verify the target row exists before writing.
	dimRange := fmt.Sprintf("%s!A:A", c.recordsSheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, dimRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get sheet dimensions for %s: %w", c.recordsSheet, err)
	}
	lastRow := int64(len(resp.Values))
	if u.RowNumber < firstRecordRow || u.RowNumber > lastRow {
		return core.ErrRowNotFound
	}

	if u.Description != nil {
		rng := fmt.Sprintf("%s!C%d", c.recordsSheet, u.RowNumber)
		vr := &gsheet.ValueRange{Values: [][]any{{*u.Description}}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update description in %s: %w", rng, err)
		}
	}
	if u.Genre != nil {
		rng := fmt.Sprintf("%s!D%d", c.recordsSheet, u.RowNumber)
		vr := &gsheet.ValueRange{Values: [][]any{{*u.Genre}}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update genre in %s: %w", rng, err)
		}
	}

	slog.DebugContext(ctx, "Updated sheet row",
		"row_number", u.RowNumber,
		"has_genre", u.Genre != nil,
		"has_description", u.Description != nil)
	return nil
}

// FetchCategories reads the persisted label list from the config sheet.
// A missing or empty column yields an empty list, which callers treat as
// "use the defaults".
func (c *Client) FetchCategories(ctx context.Context) ([]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := fmt.Sprintf("%s!A%d:A", c.configSheet, firstCategoryRow)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	var out []string
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		v := strings.TrimSpace(fmt.Sprint(row[0]))
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// ReplaceCategories clears the stored list and writes the new one. The
// store has no partial update, so concurrent replacements from two
// sessions clobber each other: the last call to complete wins.
func (c *Client) ReplaceCategories(ctx context.Context, labels []string) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	clearRng := fmt.Sprintf("%s!A%d:A", c.configSheet, firstCategoryRow)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRng, err)
	}
	if len(labels) == 0 {
		return nil
	}
	values := make([][]any, 0, len(labels))
	for _, l := range labels {
		values = append(values, []any{l})
	}
	writeRng := fmt.Sprintf("%s!A%d:A%d", c.configSheet, firstCategoryRow, firstCategoryRow+len(labels)-1)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, writeRng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", writeRng, err)
	}
	return nil
}
