package types

// RawDataPoint is one entry of an analytics API response page, as decoded
// from JSON. Dimensions identify the observation (profile, reporting
// period); metrics carry the measured values. Shapes vary per network and
// per endpoint, so both maps stay loosely typed until normalization.
type RawDataPoint struct {
	Dimensions map[string]any `json:"dimensions"`
	Metrics    map[string]any `json:"metrics"`
}

// CanonicalRecord is the deduplicated, date-normalized intermediate form of
// one (profile, date) analytics observation. Built fresh per fetch cycle,
// never persisted.
type CanonicalRecord struct {
	// ProfileID identifies the social profile the observation belongs to.
	ProfileID string
	// ISODate is the reporting day in YYYY-MM-DD, time-of-day discarded.
	ISODate string
	// Metrics holds the raw metric values keyed by upstream metric name.
	// Values are whatever JSON decoding produced; formatters apply
	// safe-number coercion per column.
	Metrics map[string]any
}

// Key returns the dedupe key for first-wins collision handling.
func (r CanonicalRecord) Key() string {
	return r.ProfileID + "_" + r.ISODate
}

// ProfileMeta is the profile metadata formatters may fold into rows
// (display name, network handle). Supplied by the profile directory.
type ProfileMeta struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Handle  string      `json:"handle,omitempty"`
	Network NetworkKind `json:"network"`
	GroupID string      `json:"group_id,omitempty"`
}

// Row is one formatted spreadsheet row. Cell values are scalars only;
// composite metrics are serialized to strings before they reach a Row.
type Row []any
