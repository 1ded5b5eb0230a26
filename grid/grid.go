// Package grid abstracts the spreadsheet sink: destination resolution,
// column reads for reconciliation, structural row deletion, capacity
// management and row writes.
package grid

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridsync/gridsync/types"
)

// Destination identifies one tab inside one spreadsheet. It persists
// across runs; reconciliation mutates its row contents but never its
// identity.
type Destination struct {
	// SpreadsheetID is the sink-side document id.
	SpreadsheetID string
	// SheetID is the structural tab id. Negative when the tab's structural
	// identity could not be resolved; structural deletion is then
	// unavailable and callers fall back to value clearing.
	SheetID int64
	// Title is the tab title used in A1-notation ranges.
	Title string
	// GroupKey is the customer group this destination belongs to.
	GroupKey string
}

// Structural reports whether row deletion by sheet id is available.
func (d Destination) Structural() bool { return d.SheetID >= 0 }

// RowRange is a contiguous 1-indexed inclusive row span.
type RowRange struct {
	Start int
	End   int
}

func (r RowRange) String() string { return fmt.Sprintf("[%d,%d]", r.Start, r.End) }

// Len returns the number of rows in the range.
func (r RowRange) Len() int { return r.End - r.Start + 1 }

// Store is the spreadsheet sink port. All operations are synchronous and
// honor context cancellation.
type Store interface {
	// ResolveDestination finds or creates the tab for a group and network.
	ResolveDestination(ctx context.Context, groupKey string, network types.NetworkKind) (Destination, error)

	// ReadColumn returns every cell of a zero-indexed column, including the
	// header row. Trailing empty cells are not included.
	ReadColumn(ctx context.Context, dest Destination, col int) ([]any, error)

	// DeleteRows structurally deletes the given row ranges. Ranges must be
	// pre-sorted in descending start order; indices are interpreted against
	// the tab state at call time, applied in slice order.
	DeleteRows(ctx context.Context, dest Destination, ranges []RowRange) error

	// ClearRanges blanks cell values in the given row ranges, leaving empty
	// rows in place.
	ClearRanges(ctx context.Context, dest Destination, ranges []RowRange) error

	// EnsureCapacity grows the tab to at least minRows x minCols.
	// Never shrinks.
	EnsureCapacity(ctx context.Context, dest Destination, minRows, minCols int) error

	// WriteRows writes rows starting at the 1-indexed startRow.
	WriteRows(ctx context.Context, dest Destination, startRow int, rows []types.Row) error

	// WriteHeader writes the header row (row 1).
	WriteHeader(ctx context.Context, dest Destination, headers []string) error

	// Dimensions returns the tab's current grid size.
	Dimensions(ctx context.Context, dest Destination) (rows, cols int, err error)
}

// StubOp records one Store call for order-sensitive assertions.
type StubOp struct {
	Name   string
	Ranges []RowRange
	Start  int
	Rows   int
}

// StubStore is an in-memory Store for tests. Cells holds tab contents
// keyed by destination title; Ops records every mutating call in order.
type StubStore struct {
	mu sync.Mutex

	// Cells maps tab title to row-major cell contents, row 0 = header.
	Cells map[string][]types.Row
	// GridRows and GridCols are the reported grid size per tab title.
	GridRows map[string]int
	GridCols map[string]int
	// Ops is the ordered log of mutating calls.
	Ops []StubOp

	// Errs injects failures per operation name.
	Errs map[string]error
	// Unstructured makes resolved destinations report SheetID -1.
	Unstructured bool
}

var _ Store = (*StubStore)(nil)

// NewStubStore returns an empty stub with default 1000x26 grids.
func NewStubStore() *StubStore {
	return &StubStore{
		Cells:    make(map[string][]types.Row),
		GridRows: make(map[string]int),
		GridCols: make(map[string]int),
		Errs:     make(map[string]error),
	}
}

func (s *StubStore) fail(op string) error {
	if err, ok := s.Errs[op]; ok {
		return err
	}
	return nil
}

func (s *StubStore) ResolveDestination(_ context.Context, groupKey string, network types.NetworkKind) (Destination, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("resolve"); err != nil {
		return Destination{}, err
	}
	dest := Destination{
		SpreadsheetID: "sheet-" + groupKey,
		SheetID:       int64(len(s.Cells)),
		Title:         network.TabTitle(),
		GroupKey:      groupKey,
	}
	if s.Unstructured {
		dest.SheetID = -1
	}
	if _, ok := s.Cells[dest.Title]; !ok {
		s.Cells[dest.Title] = nil
		s.GridRows[dest.Title] = 1000
		s.GridCols[dest.Title] = 26
	}
	return dest, nil
}

func (s *StubStore) ReadColumn(_ context.Context, dest Destination, col int) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("read_column"); err != nil {
		return nil, err
	}
	var out []any
	for _, row := range s.Cells[dest.Title] {
		if col < len(row) {
			out = append(out, row[col])
		} else {
			out = append(out, nil)
		}
	}
	return out, nil
}

func (s *StubStore) DeleteRows(_ context.Context, dest Destination, ranges []RowRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("delete_rows"); err != nil {
		return err
	}
	s.Ops = append(s.Ops, StubOp{Name: "delete_rows", Ranges: append([]RowRange(nil), ranges...)})
	rows := s.Cells[dest.Title]
	for _, r := range ranges {
		start, end := r.Start-1, r.End // 0-indexed half-open
		if start < 0 || start >= len(rows) {
			continue
		}
		if end > len(rows) {
			end = len(rows)
		}
		rows = append(rows[:start], rows[end:]...)
	}
	s.Cells[dest.Title] = rows
	return nil
}

func (s *StubStore) ClearRanges(_ context.Context, dest Destination, ranges []RowRange) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("clear_ranges"); err != nil {
		return err
	}
	s.Ops = append(s.Ops, StubOp{Name: "clear_ranges", Ranges: append([]RowRange(nil), ranges...)})
	rows := s.Cells[dest.Title]
	for _, r := range ranges {
		for i := r.Start - 1; i < r.End && i < len(rows); i++ {
			if i >= 0 {
				rows[i] = make(types.Row, len(rows[i]))
			}
		}
	}
	return nil
}

func (s *StubStore) EnsureCapacity(_ context.Context, dest Destination, minRows, minCols int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("ensure_capacity"); err != nil {
		return err
	}
	s.Ops = append(s.Ops, StubOp{Name: "ensure_capacity", Start: minRows, Rows: minCols})
	if minRows > s.GridRows[dest.Title] {
		s.GridRows[dest.Title] = minRows
	}
	if minCols > s.GridCols[dest.Title] {
		s.GridCols[dest.Title] = minCols
	}
	return nil
}

func (s *StubStore) WriteRows(_ context.Context, dest Destination, startRow int, rows []types.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("write_rows"); err != nil {
		return err
	}
	s.Ops = append(s.Ops, StubOp{Name: "write_rows", Start: startRow, Rows: len(rows)})
	cells := s.Cells[dest.Title]
	for i, row := range rows {
		idx := startRow - 1 + i
		for len(cells) <= idx {
			cells = append(cells, nil)
		}
		cells[idx] = row
	}
	s.Cells[dest.Title] = cells
	return nil
}

func (s *StubStore) WriteHeader(_ context.Context, dest Destination, headers []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("write_header"); err != nil {
		return err
	}
	s.Ops = append(s.Ops, StubOp{Name: "write_header", Rows: len(headers)})
	row := make(types.Row, len(headers))
	for i, h := range headers {
		row[i] = h
	}
	cells := s.Cells[dest.Title]
	if len(cells) == 0 {
		cells = append(cells, row)
	} else {
		cells[0] = row
	}
	s.Cells[dest.Title] = cells
	return nil
}

func (s *StubStore) Dimensions(_ context.Context, dest Destination) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("dimensions"); err != nil {
		return 0, 0, err
	}
	return s.GridRows[dest.Title], s.GridCols[dest.Title], nil
}

// OpNames returns the recorded operation names in order.
func (s *StubStore) OpNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.Ops))
	for i, op := range s.Ops {
		names[i] = op.Name
	}
	return names
}
