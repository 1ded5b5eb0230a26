package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/gridsync/gridsync/types"
)

// serialEpoch is the spreadsheet date-serial epoch (1899-12-30 UTC).
// Serial N encodes the calendar date N days after this epoch.
var serialEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// genericLayouts are tried in order for date cells that are neither ISO
// nor serial. Locale-formatted strings left behind by hand edits mostly
// fall into these shapes.
var genericLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// CellDate normalizes a spreadsheet date cell to ISO YYYY-MM-DD.
//
// Three encodings are supported:
//   - ISO strings ("2025-04-01") pass through after validation
//   - numeric values (float64, int, numeric strings) are read as day-count
//     serials from the 1899-12-30 epoch
//   - anything else goes through generic layout parsing
//
// Returns ok=false for unparseable cells; the reconciler treats those as
// non-matching and never deletes them.
func CellDate(v any) (string, bool) {
	switch cell := v.(type) {
	case nil:
		return "", false
	case float64:
		return serialToISO(cell)
	case int:
		return serialToISO(float64(cell))
	case int64:
		return serialToISO(float64(cell))
	case string:
		return stringCellDate(cell)
	default:
		return "", false
	}
}

func stringCellDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}

	// Already ISO
	if t, err := time.Parse(types.ISODate, s); err == nil {
		return t.Format(types.ISODate), true
	}

	// Purely numeric string: spreadsheet serial
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		return serialToISO(serial)
	}

	for _, layout := range genericLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(types.ISODate), true
		}
	}
	return "", false
}

// serialToISO converts a day-count serial to an ISO date.
// The fractional part (time-of-day) is discarded.
func serialToISO(serial float64) (string, bool) {
	days := int(serial)
	if days <= 0 || days > 200000 {
		// Zero, negative and absurdly large serials are not dates
		return "", false
	}
	return serialEpoch.AddDate(0, 0, days).Format(types.ISODate), true
}

// SerialForDate returns the spreadsheet serial encoding an ISO date.
// Used by tests and by write-side serial rendering.
func SerialForDate(iso string) (int, error) {
	t, err := time.Parse(types.ISODate, iso)
	if err != nil {
		return 0, err
	}
	return int(t.Sub(serialEpoch).Hours() / 24), nil
}

// ReportingPeriod converts an upstream reporting-period value to ISO
// YYYY-MM-DD, discarding time-of-day. Accepts ISO dates, RFC3339
// timestamps and "YYYY-MM-DD HH:MM:SS" forms.
func ReportingPeriod(v any) (string, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	s = strings.TrimSpace(s)

	if t, err := time.Parse(types.ISODate, s); err == nil {
		return t.Format(types.ISODate), true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format(types.ISODate), true
		}
	}
	return "", false
}
