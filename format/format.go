// Package format turns canonical analytics records into spreadsheet rows.
//
// Each network has exactly one Formatter; ForNetwork is the only way to
// obtain one, so the compiler-checked switch there is the full registry.
package format

import (
	"fmt"

	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/types"
)

// Formatter maps canonical records to flat rows for one network's tab.
//
// Format returns nil when the record cannot produce a well-formed row;
// callers drop nil rows and never pad or truncate. A non-nil row always
// has exactly len(Headers()) cells.
type Formatter interface {
	Network() types.NetworkKind
	Headers() []string
	Format(rec types.CanonicalRecord, meta types.ProfileMeta) types.Row
}

// ForNetwork returns the formatter for a network.
func ForNetwork(kind types.NetworkKind) (Formatter, error) {
	switch kind {
	case types.NetworkInstagram:
		return instagramFormatter{}, nil
	case types.NetworkYouTube:
		return youtubeFormatter{}, nil
	case types.NetworkLinkedIn:
		return linkedinFormatter{}, nil
	case types.NetworkFacebook:
		return facebookFormatter{}, nil
	case types.NetworkTwitter:
		return twitterFormatter{}, nil
	default:
		return nil, fmt.Errorf("no formatter for network %q", kind)
	}
}

// Rows formats a batch of records, dropping any that fail to produce a row
// of the exact header width. Drops are logged, never fatal.
func Rows(f Formatter, records []types.CanonicalRecord, meta types.ProfileMeta, logger *log.SugaredLogger) []types.Row {
	width := len(f.Headers())
	out := make([]types.Row, 0, len(records))
	for _, rec := range records {
		row := f.Format(rec, meta)
		if row == nil {
			if logger != nil {
				logger.Warnf("dropping unformattable record: network=%s profile=%s date=%s",
					f.Network(), rec.ProfileID, rec.ISODate)
			}
			continue
		}
		if len(row) != width {
			if logger != nil {
				logger.Warnf("dropping row with width %d, header width %d: network=%s profile=%s date=%s",
					len(row), width, f.Network(), rec.ProfileID, rec.ISODate)
			}
			continue
		}
		out = append(out, row)
	}
	return out
}
