// Package sheets talks to the Google Sheets worksheet that receives the
// order report, and owns all writes to it.
package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// API is the narrow sink surface the writer needs. Rows are addressed by
// absolute sheet row number; row 1 is the header.
type API interface {
	ColumnValues(ctx context.Context, column string, startRow int) ([]string, error)
	AllRows(ctx context.Context) ([][]string, error)
	Write(ctx context.Context, startRow int, rows [][]any) error
	ClearRows(ctx context.Context, fromRow, toRow int) error
}

// lastColumn is the rightmost report column (10 columns, A through J).
const lastColumn = "J"

// Client implements API against one spreadsheet worksheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewClient builds a Sheets client for the given spreadsheet and worksheet.
// Credentials come from GOOGLE_CREDENTIALS_FILE when set, otherwise from
// application default credentials.
func NewClient(ctx context.Context, spreadsheetID, sheetName string) (*Client, error) {
	opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if keyFile := os.Getenv("GOOGLE_CREDENTIALS_FILE"); keyFile != "" {
		opts = append(opts, option.WithCredentialsFile(keyFile))
	}

	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// ColumnValues reads one column from startRow downwards, as trimmed strings.
func (c *Client) ColumnValues(ctx context.Context, column string, startRow int) ([]string, error) {
	rng := fmt.Sprintf("%s!%s%d:%s", c.sheetName, column, startRow, column)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read column %s: %w", column, err)
	}

	values := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(row[0]))
	}
	return values, nil
}

// AllRows reads the full data range (header excluded), padding every row to
// the full column width. Sheets trims trailing empty cells on read.
func (c *Client) AllRows(ctx context.Context) ([][]string, error) {
	rng := fmt.Sprintf("%s!A2:%s", c.sheetName, lastColumn)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read data range: %w", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, columnCount)
		for i := 0; i < columnCount && i < len(raw); i++ {
			row[i] = fmt.Sprint(raw[i])
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Write overwrites the range starting at startRow with the given rows, using
// RAW input so values land exactly as rendered.
func (c *Client) Write(ctx context.Context, startRow int, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, startRow, lastColumn, startRow+len(rows)-1)
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write rows at %s: %w", rng, err)
	}
	return nil
}

// ClearRows blanks the inclusive row range.
func (c *Client) ClearRows(ctx context.Context, fromRow, toRow int) error {
	if toRow < fromRow {
		return nil
	}
	rng := fmt.Sprintf("%s!A%d:%s%d", c.sheetName, fromRow, lastColumn, toRow)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to clear rows at %s: %w", rng, err)
	}
	return nil
}
