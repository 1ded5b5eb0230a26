package format

import (
	"encoding/json"
	"math"
	"strconv"
)

// number coerces a metric value to a finite float64. Absent keys,
// non-numeric values, NaN and infinities all coerce to 0 so that a row
// never carries a cell the spreadsheet backend would reject.
func number(metrics map[string]any, key string) float64 {
	v, ok := metrics[key]
	if !ok {
		return 0
	}
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		f, _ = strconv.ParseFloat(n, 64)
	default:
		return 0
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// sum coerces and adds several metric keys.
func sum(metrics map[string]any, keys ...string) float64 {
	var total float64
	for _, k := range keys {
		total += number(metrics, k)
	}
	return total
}

// jsonCell serializes a composite metric (map or slice) to a compact JSON
// string for a single cell. Scalars and absent values become "".
func jsonCell(metrics map[string]any, key string) string {
	v, ok := metrics[key]
	if !ok || v == nil {
		return ""
	}
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	default:
		return ""
	}
}
