package format

import (
	"math"
	"testing"

	"github.com/gridsync/gridsync/types"
)

func testMeta(network types.NetworkKind) types.ProfileMeta {
	return types.ProfileMeta{ID: "p1", Name: "Acme", Handle: "@acme", Network: network}
}

func TestForNetworkCoversEveryKind(t *testing.T) {
	for _, kind := range types.AllNetworks() {
		f, err := ForNetwork(kind)
		if err != nil {
			t.Fatalf("ForNetwork(%s): %v", kind, err)
		}
		if f.Network() != kind {
			t.Errorf("formatter for %s reports network %s", kind, f.Network())
		}
	}
	if _, err := ForNetwork("myspace"); err == nil {
		t.Error("unknown network should not resolve to a formatter")
	}
}

func TestRowWidthMatchesHeaders(t *testing.T) {
	rec := types.CanonicalRecord{
		ProfileID: "p1",
		ISODate:   "2025-04-01",
		Metrics:   map[string]any{"likes": 3.0},
	}
	for _, kind := range types.AllNetworks() {
		f, err := ForNetwork(kind)
		if err != nil {
			t.Fatalf("ForNetwork(%s): %v", kind, err)
		}
		row := f.Format(rec, testMeta(kind))
		if row == nil {
			t.Fatalf("%s: row is nil for a well-formed record", kind)
		}
		if len(row) != len(f.Headers()) {
			t.Errorf("%s: row width %d, header width %d", kind, len(row), len(f.Headers()))
		}
		if row[0] != "2025-04-01" {
			t.Errorf("%s: column A = %v, want the ISO date key", kind, row[0])
		}
	}
}

func TestFormatDropsRecordWithoutDate(t *testing.T) {
	for _, kind := range types.AllNetworks() {
		f, _ := ForNetwork(kind)
		row := f.Format(types.CanonicalRecord{ProfileID: "p1"}, testMeta(kind))
		if row != nil {
			t.Errorf("%s: record without a date should format to nil, got %v", kind, row)
		}
	}
}

func TestFacebookEngagementTotal(t *testing.T) {
	f, _ := ForNetwork(types.NetworkFacebook)
	rec := types.CanonicalRecord{
		ProfileID: "p1",
		ISODate:   "2025-04-01",
		Metrics: map[string]any{
			"likes":          10.0,
			"comments_count": 2.0,
			"shares_count":   1.0,
		},
	}
	row := f.Format(rec, testMeta(types.NetworkFacebook))
	if row == nil {
		t.Fatal("row is nil")
	}

	idx := headerIndex(t, f, "Engagement Total")
	if got := row[idx]; got != 13.0 {
		t.Errorf("engagement total = %v, want 13", got)
	}
}

func TestNumberCoercion(t *testing.T) {
	metrics := map[string]any{
		"f":    4.5,
		"i":    7,
		"s":    "12",
		"junk": "not a number",
		"m":    map[string]any{"x": 1.0},
		"nan":  math.NaN(),
		"inf":  math.Inf(1),
	}
	tests := []struct {
		key  string
		want float64
	}{
		{"f", 4.5},
		{"i", 7},
		{"s", 12},
		{"junk", 0},
		{"m", 0},
		{"nan", 0},
		{"inf", 0},
		{"absent", 0},
	}
	for _, tt := range tests {
		if got := number(metrics, tt.key); got != tt.want {
			t.Errorf("number(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}
}

func TestJSONCell(t *testing.T) {
	metrics := map[string]any{
		"composite": map[string]any{"photo": 3.0},
		"list":      []any{1.0, 2.0},
		"scalar":    5.0,
	}
	if got := jsonCell(metrics, "composite"); got != `{"photo":3}` {
		t.Errorf("jsonCell(composite) = %q", got)
	}
	if got := jsonCell(metrics, "list"); got != `[1,2]` {
		t.Errorf("jsonCell(list) = %q", got)
	}
	if got := jsonCell(metrics, "scalar"); got != "" {
		t.Errorf("jsonCell(scalar) = %q, want empty", got)
	}
	if got := jsonCell(metrics, "absent"); got != "" {
		t.Errorf("jsonCell(absent) = %q, want empty", got)
	}
}

func TestRowsDropsMismatched(t *testing.T) {
	f, _ := ForNetwork(types.NetworkTwitter)
	records := []types.CanonicalRecord{
		{ProfileID: "p1", ISODate: "2025-04-01", Metrics: map[string]any{"likes": 1.0}},
		{ProfileID: "p1"}, // no date, formats to nil
		{ProfileID: "p1", ISODate: "2025-04-02", Metrics: nil},
	}
	rows := Rows(f, records, testMeta(types.NetworkTwitter), nil)
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	for i, row := range rows {
		if len(row) != len(f.Headers()) {
			t.Errorf("rows[%d] width %d, want %d", i, len(row), len(f.Headers()))
		}
	}
}

func headerIndex(t *testing.T, f Formatter, name string) int {
	t.Helper()
	for i, h := range f.Headers() {
		if h == name {
			return i
		}
	}
	t.Fatalf("header %q not found in %v", name, f.Headers())
	return -1
}
