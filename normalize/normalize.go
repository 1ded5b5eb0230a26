// Package normalize converts raw analytics pages into canonical records.
//
// Normalization extracts the (profile, reporting day) identity from each
// raw data point, converts the reporting period to a date-only ISO form
// and deduplicates pagination overlap with first-wins semantics.
package normalize

import (
	"github.com/gridsync/gridsync/log"
	"github.com/gridsync/gridsync/types"
)

// Dimension keys accepted for the profile identity.
var profileKeys = []string{"profileId", "profile_id"}

// Dimension keys accepted for the reporting period. The by(day)-qualified
// key and the plain key are aliases of the same logical field; providers
// emit one or the other depending on the query grouping.
var periodKeys = []string{"time.by(day)", "time"}

// Normalizer builds canonical records from raw API pages.
type Normalizer struct {
	logger *log.SugaredLogger
}

// New creates a Normalizer. The logger is optional.
func New(logger *log.SugaredLogger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize converts one raw page into canonical records, also returning
// the number of points skipped as malformed.
//
// Points missing a profile id or reporting period are skipped (logged,
// never fatal). When several points describe the same (profile, date) the
// first one wins; later duplicates are discarded silently. Output order is
// the insertion order of first-seen keys.
func (n *Normalizer) Normalize(page []types.RawDataPoint) ([]types.CanonicalRecord, int) {
	seen := make(map[string]struct{}, len(page))
	records := make([]types.CanonicalRecord, 0, len(page))
	skipped := 0

	for _, point := range page {
		profileID, ok := dimensionString(point.Dimensions, profileKeys)
		if !ok {
			skipped++
			n.warnf("skipping data point without profile id: dims=%v", point.Dimensions)
			continue
		}

		period, ok := dimensionValue(point.Dimensions, periodKeys)
		if !ok {
			skipped++
			n.warnf("skipping data point without reporting period: profile=%s", profileID)
			continue
		}
		isoDate, ok := ReportingPeriod(period)
		if !ok {
			skipped++
			n.warnf("skipping data point with unparseable period %v: profile=%s", period, profileID)
			continue
		}

		record := types.CanonicalRecord{
			ProfileID: profileID,
			ISODate:   isoDate,
			Metrics:   point.Metrics,
		}
		if _, dup := seen[record.Key()]; dup {
			continue
		}
		seen[record.Key()] = struct{}{}
		records = append(records, record)
	}

	return records, skipped
}

func (n *Normalizer) warnf(template string, args ...any) {
	if n.logger != nil {
		n.logger.Warnf(template, args...)
	}
}

func dimensionValue(dims map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := dims[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func dimensionString(dims map[string]any, keys []string) (string, bool) {
	v, ok := dimensionValue(dims, keys)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}
