package supermod

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"sync"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9\-_]+)`)

// spreadsheetIDFromURL extracts the spreadsheet ID from a full Google
// Sheets URL. A bare ID passes through unchanged.
func spreadsheetIDFromURL(url string) string {
	if m := spreadsheetIDPattern.FindStringSubmatch(url); m != nil {
		return m[1]
	}
	return url
}

// Worksheet is one tab of a spreadsheet. Implementations write through
// the shared rate limiter so bulk syncs stay under the API write quota.
type Worksheet interface {
	Title() string

	// Rows returns every populated row, including the header
	Rows(ctx context.Context) ([][]string, error)

	// AppendRow adds a row after the last populated one
	AppendRow(ctx context.Context, row []string) error

	// Clear removes all values, leaving formatting intact
	Clear(ctx context.Context) error

	// UpdateCell writes a single cell. row and col are zero-based.
	UpdateCell(ctx context.Context, row, col int, value string) error

	// DeleteRow removes the zero-based row entirely, shifting later
	// rows up
	DeleteRow(ctx context.Context, row int) error
}

// SheetsClient hands out worksheet handles by tab title or position.
type SheetsClient interface {
	Worksheet(url string, title string) Worksheet
	WorksheetByIndex(ctx context.Context, url string, index int) (Worksheet, error)
}

// Sheets wraps the Google Sheets API client. All writes across all
// worksheets share one rate limiter.
type Sheets struct {
	svc     *sheets.Service
	limiter *rate.Limiter
	logger  *slog.Logger

	mu       sync.Mutex
	sheetIDs map[string]map[string]int64
}

func newSheets(
	ctx context.Context,
	config *SheetsConfig,
	handler slog.Handler,
) (*Sheets, error) {
	data, err := os.ReadFile(config.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("error reading sheets credentials: %w", err)
	}
	creds, err := google.CredentialsFromJSON(
		ctx, data, sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("error parsing sheets credentials: %w", err)
	}
	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("error creating sheets service: %w", err)
	}

	interval := config.AppendInterval
	if interval <= 0 {
		interval = DefaultSheetAppendInterval
	}
	return &Sheets{
		svc:      svc,
		limiter:  rate.NewLimiter(rate.Every(interval), 1),
		logger:   slog.New(handler).With(loggerNameKey, "sheets"),
		sheetIDs: map[string]map[string]int64{},
	}, nil
}

// Worksheet returns a handle on the named tab of the spreadsheet at the
// given URL (or bare spreadsheet ID).
func (s *Sheets) Worksheet(url string, title string) Worksheet {
	return &worksheet{
		s:             s,
		spreadsheetID: spreadsheetIDFromURL(url),
		title:         title,
	}
}

// WorksheetByIndex returns a handle on the tab at the given zero-based
// position, resolving its title from the spreadsheet metadata.
func (s *Sheets) WorksheetByIndex(
	ctx context.Context,
	url string,
	index int,
) (Worksheet, error) {
	spreadsheetID := spreadsheetIDFromURL(url)
	meta, err := s.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error fetching spreadsheet metadata: %w", err)
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil && int(sheet.Properties.Index) == index {
			return s.Worksheet(spreadsheetID, sheet.Properties.Title), nil
		}
	}
	return nil, fmt.Errorf(
		"no worksheet at index %d in spreadsheet %s", index, spreadsheetID,
	)
}

// sheetID resolves a worksheet title to its numeric sheet ID, caching
// the result. The numeric ID is required for structural requests like
// row deletion.
func (s *Sheets) sheetID(
	ctx context.Context,
	spreadsheetID string,
	title string,
) (int64, error) {
	s.mu.Lock()
	if ids, ok := s.sheetIDs[spreadsheetID]; ok {
		if id, found := ids[title]; found {
			s.mu.Unlock()
			return id, nil
		}
	}
	s.mu.Unlock()

	meta, err := s.svc.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("error fetching spreadsheet metadata: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := map[string]int64{}
	for _, sheet := range meta.Sheets {
		if sheet.Properties != nil {
			ids[sheet.Properties.Title] = sheet.Properties.SheetId
		}
	}
	s.sheetIDs[spreadsheetID] = ids
	id, ok := ids[title]
	if !ok {
		return 0, fmt.Errorf("no worksheet %q in spreadsheet %s", title, spreadsheetID)
	}
	return id, nil
}

type worksheet struct {
	s             *Sheets
	spreadsheetID string
	title         string
}

func (w *worksheet) Title() string { return w.title }

// titleRange quotes the worksheet title for use as an A1 range covering
// the whole tab.
func (w *worksheet) titleRange() string {
	return fmt.Sprintf("'%s'", w.title)
}

func (w *worksheet) Rows(ctx context.Context) ([][]string, error) {
	resp, err := w.s.svc.Spreadsheets.Values.Get(
		w.spreadsheetID, w.titleRange(),
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("error reading worksheet %s: %w", w.title, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, raw := range resp.Values {
		row := make([]string, 0, len(raw))
		for _, cell := range raw {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (w *worksheet) AppendRow(ctx context.Context, row []string) error {
	if err := w.s.limiter.Wait(ctx); err != nil {
		return err
	}
	values := make([]any, len(row))
	for i, cell := range row {
		values[i] = cell
	}
	_, err := w.s.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		w.titleRange(),
		&sheets.ValueRange{Values: [][]any{values}},
	).ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error appending to worksheet %s: %w", w.title, err)
	}
	return nil
}

func (w *worksheet) Clear(ctx context.Context) error {
	if err := w.s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := w.s.svc.Spreadsheets.Values.Clear(
		w.spreadsheetID, w.titleRange(), &sheets.ClearValuesRequest{},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error clearing worksheet %s: %w", w.title, err)
	}
	return nil
}

func (w *worksheet) UpdateCell(ctx context.Context, row, col int, value string) error {
	if err := w.s.limiter.Wait(ctx); err != nil {
		return err
	}
	cell := fmt.Sprintf("'%s'!%s%d", w.title, columnLetter(col), row+1)
	_, err := w.s.svc.Spreadsheets.Values.Update(
		w.spreadsheetID,
		cell,
		&sheets.ValueRange{Values: [][]any{{value}}},
	).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("error updating %s: %w", cell, err)
	}
	return nil
}

func (w *worksheet) DeleteRow(ctx context.Context, row int) error {
	sheetID, err := w.s.sheetID(ctx, w.spreadsheetID, w.title)
	if err != nil {
		return err
	}
	if err = w.s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = w.s.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{
					DeleteDimension: &sheets.DeleteDimensionRequest{
						Range: &sheets.DimensionRange{
							SheetId:    sheetID,
							Dimension:  "ROWS",
							StartIndex: int64(row),
							EndIndex:   int64(row + 1),
						},
					},
				},
			},
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf(
			"error deleting row %d from worksheet %s: %w", row, w.title, err,
		)
	}
	return nil
}

// columnLetter converts a zero-based column index to its A1 letter(s).
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
