package grid

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gridsync/gridsync/iox"
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/source"
	"github.com/gridsync/gridsync/types"
)

const defaultSheetsBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// SheetsConfig configures the spreadsheet REST store.
type SheetsConfig struct {
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// HTTPClient must carry authentication (bearer token transport).
	// Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Spreadsheets maps group keys to spreadsheet document ids. Resolution
	// is deterministic: a group without a mapping fails with
	// ErrNoDestination rather than creating a document implicitly.
	Spreadsheets map[string]string
	Logger       *log.SugaredLogger
}

// SheetsStore is a Store over the spreadsheet REST API.
type SheetsStore struct {
	baseURL      string
	httpClient   *http.Client
	spreadsheets map[string]string
	logger       *log.SugaredLogger
}

var _ Store = (*SheetsStore)(nil)

// NewSheetsStore creates a SheetsStore.
func NewSheetsStore(cfg SheetsConfig) (*SheetsStore, error) {
	if len(cfg.Spreadsheets) == 0 {
		return nil, fmt.Errorf("sheets store: no spreadsheet mappings configured")
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultSheetsBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &SheetsStore{
		baseURL:      baseURL,
		httpClient:   httpClient,
		spreadsheets: cfg.Spreadsheets,
		logger:       cfg.Logger,
	}, nil
}

type sheetProperties struct {
	SheetID int64  `json:"sheetId"`
	Title   string `json:"title"`
	Grid    struct {
		RowCount    int `json:"rowCount"`
		ColumnCount int `json:"columnCount"`
	} `json:"gridProperties"`
}

type spreadsheetMeta struct {
	Sheets []struct {
		Properties sheetProperties `json:"properties"`
	} `json:"sheets"`
}

func (s *SheetsStore) ResolveDestination(ctx context.Context, groupKey string, network types.NetworkKind) (Destination, error) {
	spreadsheetID, ok := s.spreadsheets[groupKey]
	if !ok || spreadsheetID == "" {
		return Destination{}, fmt.Errorf("group %q: %w", groupKey, ErrNoDestination)
	}

	title := network.TabTitle()
	props, err := s.findSheet(ctx, spreadsheetID, title)
	if err == nil {
		return Destination{SpreadsheetID: spreadsheetID, SheetID: props.SheetID, Title: title, GroupKey: groupKey}, nil
	}
	if !errors.Is(err, errTabNotFound) {
		return Destination{}, err
	}

	sheetID, err := s.addSheet(ctx, spreadsheetID, title)
	if err != nil {
		return Destination{}, err
	}
	if s.logger != nil {
		s.logger.Infof("created tab %q in spreadsheet %s", title, spreadsheetID)
	}
	return Destination{SpreadsheetID: spreadsheetID, SheetID: sheetID, Title: title, GroupKey: groupKey}, nil
}

func (s *SheetsStore) findSheet(ctx context.Context, spreadsheetID, title string) (sheetProperties, error) {
	var meta spreadsheetMeta
	u := fmt.Sprintf("%s/%s?fields=sheets.properties", s.baseURL, spreadsheetID)
	if err := s.do(ctx, http.MethodGet, "resolve_destination", u, nil, &meta); err != nil {
		return sheetProperties{}, err
	}
	for _, sheet := range meta.Sheets {
		if sheet.Properties.Title == title {
			return sheet.Properties, nil
		}
	}
	return sheetProperties{}, fmt.Errorf("%w: %q in spreadsheet %s", errTabNotFound, title, spreadsheetID)
}

func (s *SheetsStore) addSheet(ctx context.Context, spreadsheetID, title string) (int64, error) {
	body := map[string]any{
		"requests": []any{
			map[string]any{"addSheet": map[string]any{"properties": map[string]any{"title": title}}},
		},
	}
	var reply struct {
		Replies []struct {
			AddSheet struct {
				Properties sheetProperties `json:"properties"`
			} `json:"addSheet"`
		} `json:"replies"`
	}
	u := fmt.Sprintf("%s/%s:batchUpdate", s.baseURL, spreadsheetID)
	if err := s.do(ctx, http.MethodPost, "add_sheet", u, body, &reply); err != nil {
		return -1, err
	}
	if len(reply.Replies) == 0 {
		// Tab exists but the reply shape is unexpected: structural identity
		// unknown, callers fall back to value clearing.
		return -1, nil
	}
	return reply.Replies[0].AddSheet.Properties.SheetID, nil
}

func (s *SheetsStore) ReadColumn(ctx context.Context, dest Destination, col int) ([]any, error) {
	letter := columnLetter(col)
	rangeRef := url.PathEscape(fmt.Sprintf("%s!%s:%s", dest.Title, letter, letter))
	u := fmt.Sprintf("%s/%s/values/%s?valueRenderOption=UNFORMATTED_VALUE", s.baseURL, dest.SpreadsheetID, rangeRef)

	var reply struct {
		Values [][]any `json:"values"`
	}
	if err := s.do(ctx, http.MethodGet, "read_column", u, nil, &reply); err != nil {
		return nil, err
	}
	out := make([]any, len(reply.Values))
	for i, row := range reply.Values {
		if len(row) > 0 {
			out[i] = row[0]
		}
	}
	return out, nil
}

func (s *SheetsStore) DeleteRows(ctx context.Context, dest Destination, ranges []RowRange) error {
	if len(ranges) == 0 {
		return nil
	}
	if !dest.Structural() {
		return fmt.Errorf("tab %q: structural identity unresolved, cannot delete rows", dest.Title)
	}
	requests := make([]any, 0, len(ranges))
	for _, r := range ranges {
		requests = append(requests, map[string]any{
			"deleteDimension": map[string]any{
				"range": map[string]any{
					"sheetId":    dest.SheetID,
					"dimension":  "ROWS",
					"startIndex": r.Start - 1, // 0-indexed half-open
					"endIndex":   r.End,
				},
			},
		})
	}
	u := fmt.Sprintf("%s/%s:batchUpdate", s.baseURL, dest.SpreadsheetID)
	return s.do(ctx, http.MethodPost, "delete_rows", u, map[string]any{"requests": requests}, nil)
}

func (s *SheetsStore) ClearRanges(ctx context.Context, dest Destination, ranges []RowRange) error {
	if len(ranges) == 0 {
		return nil
	}
	refs := make([]string, 0, len(ranges))
	for _, r := range ranges {
		refs = append(refs, fmt.Sprintf("%s!A%d:ZZ%d", dest.Title, r.Start, r.End))
	}
	u := fmt.Sprintf("%s/%s/values:batchClear", s.baseURL, dest.SpreadsheetID)
	return s.do(ctx, http.MethodPost, "clear_ranges", u, map[string]any{"ranges": refs}, nil)
}

func (s *SheetsStore) EnsureCapacity(ctx context.Context, dest Destination, minRows, minCols int) error {
	rows, cols, err := s.Dimensions(ctx, dest)
	if err != nil {
		return err
	}
	if rows >= minRows && cols >= minCols {
		return nil
	}
	if !dest.Structural() {
		// Cannot resize without a sheet id; let the write surface the
		// capacity failure instead.
		return nil
	}
	if minRows < rows {
		minRows = rows
	}
	if minCols < cols {
		minCols = cols
	}

	body := map[string]any{
		"requests": []any{
			map[string]any{
				"updateSheetProperties": map[string]any{
					"properties": map[string]any{
						"sheetId": dest.SheetID,
						"gridProperties": map[string]any{
							"rowCount":    minRows,
							"columnCount": minCols,
						},
					},
					"fields": "gridProperties.rowCount,gridProperties.columnCount",
				},
			},
		},
	}
	u := fmt.Sprintf("%s/%s:batchUpdate", s.baseURL, dest.SpreadsheetID)
	return s.do(ctx, http.MethodPost, "ensure_capacity", u, body, nil)
}

func (s *SheetsStore) WriteRows(ctx context.Context, dest Destination, startRow int, rows []types.Row) error {
	if len(rows) == 0 {
		return nil
	}
	rangeRef := url.PathEscape(fmt.Sprintf("%s!A%d", dest.Title, startRow))
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", s.baseURL, dest.SpreadsheetID, rangeRef)
	return s.do(ctx, http.MethodPut, "write_rows", u, map[string]any{"values": rows}, nil)
}

func (s *SheetsStore) WriteHeader(ctx context.Context, dest Destination, headers []string) error {
	row := make(types.Row, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	rangeRef := url.PathEscape(fmt.Sprintf("%s!A1", dest.Title))
	u := fmt.Sprintf("%s/%s/values/%s?valueInputOption=RAW", s.baseURL, dest.SpreadsheetID, rangeRef)
	return s.do(ctx, http.MethodPut, "write_header", u, map[string]any{"values": []types.Row{row}}, nil)
}

func (s *SheetsStore) Dimensions(ctx context.Context, dest Destination) (int, int, error) {
	props, err := s.findSheet(ctx, dest.SpreadsheetID, dest.Title)
	if err != nil {
		return 0, 0, err
	}
	return props.Grid.RowCount, props.Grid.ColumnCount, nil
}

// do performs one JSON request against the sink and classifies failures
// the same way the fetch layer does, so sink calls share the retry policy.
func (s *SheetsStore) do(ctx context.Context, method, op, u string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reqBody)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &source.FetchError{Class: source.ClassServer, Op: op, Err: err}
	}
	defer iox.DiscardClose(resp.Body)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return &source.FetchError{Class: source.ClassServer, Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if IsCapacity(fmt.Errorf("%s", msg)) {
			return fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, ErrCapacity)
		}
		return &source.FetchError{
			Class:      source.ClassifyStatus(resp.StatusCode, msg),
			Op:         op,
			Status:     resp.StatusCode,
			RetryAfter: retryAfterHeader(resp),
			Err:        fmt.Errorf("%s", msg),
		}
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return nil
}

func retryAfterHeader(resp *http.Response) time.Duration {
	header := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if header == "" {
		return 0
	}
	var seconds int
	if _, err := fmt.Sscanf(header, "%d", &seconds); err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// columnLetter converts a zero-indexed column to its A1-notation letter.
func columnLetter(col int) string {
	letters := ""
	for col >= 0 {
		letters = string(rune('A'+col%26)) + letters
		col = col/26 - 1
	}
	return letters
}
