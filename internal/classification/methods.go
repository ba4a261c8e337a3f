package classification

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"net/netip"
	"slices"
	"strconv"
	"strings"
	"time"

	dErrors "veil/pkg/domain-errors"
)

// Redacted replaces values that are destroyed rather than transformed.
const Redacted = "[REDACTED]"

// transform rewrites one field value. ok=false means the value could not be
// interpreted; the engine then redacts instead of passing it through.
type transform func(value any, params map[string]string) (out any, ok bool)

var transforms = map[Method]transform{
	MethodHash:         hashValue,
	MethodRedact:       func(any, map[string]string) (any, bool) { return Redacted, true },
	MethodAggregate:    aggregateValue,
	MethodNLPAnonymize: scrubValue,
	MethodTruncate:     truncateValue,
}

// validateRule checks the method and its parameters without a value.
func validateRule(r Rule) error {
	if _, ok := transforms[r.Method]; !ok {
		return unsupported(r.Method)
	}
	for key, raw := range r.Parameters {
		switch key {
		case "bucket":
			if v, err := strconv.ParseFloat(raw, 64); err != nil || v <= 0 {
				return dErrors.New(dErrors.CodeInvalidConfiguration, "bucket must be a positive number")
			}
		case "prefix", "ipv6_prefix", "decimals", "keep":
			if v, err := strconv.Atoi(raw); err != nil || v < 0 {
				return dErrors.New(dErrors.CodeInvalidConfiguration, key+" must be a non-negative integer")
			}
		case "granularity":
			if _, ok := granularities[raw]; !ok {
				return dErrors.New(dErrors.CodeInvalidConfiguration, "unknown granularity: "+raw)
			}
		}
	}
	return nil
}

func unsupported(m Method) error {
	return dErrors.New(dErrors.CodeUnsupportedRuleMethod, fmt.Sprintf("unsupported rule method %q", m))
}

// stringify renders a decoded JSON value the same way for every caller, so
// equal inputs hash equally across records.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func hashValue(v any, _ map[string]string) (any, bool) {
	sum := sha256.Sum256([]byte(stringify(v)))
	return hex.EncodeToString(sum[:]), true
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Aggregation

var granularities = map[string]func(time.Time) time.Time{
	"daily":   floorDay,
	"weekly":  floorISOWeek,
	"monthly": floorMonth,
}

func floorDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// floorISOWeek returns the Monday starting t's ISO week.
func floorISOWeek(t time.Time) time.Time {
	d := floorDay(t)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func floorMonth(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func parseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
			if parsed, err := time.Parse(layout, strings.TrimSpace(t)); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

// aggregateValue coarsens a value:
//   - numbers floor to a multiple of "bucket"
//   - timestamps floor to "granularity"
//   - series of {timestamp, value} samples collapse to one mean per period
func aggregateValue(v any, params map[string]string) (any, bool) {
	if series, ok := v.([]any); ok {
		return aggregateSeries(series, params)
	}
	if floor, ok := granularities[params["granularity"]]; ok {
		if t, ok := parseTime(v); ok {
			return floor(t).Format(time.RFC3339), true
		}
	}
	if raw, ok := params["bucket"]; ok {
		bucket, err := strconv.ParseFloat(raw, 64)
		if err != nil || bucket <= 0 {
			return nil, false
		}
		if f, ok := toFloat(v); ok {
			return math.Floor(f/bucket) * bucket, true
		}
	}
	return nil, false
}

type seriesPoint struct {
	Period string  `json:"period"`
	Mean   float64 `json:"mean"`
	Count  int     `json:"count"`
}

func aggregateSeries(series []any, params map[string]string) (any, bool) {
	floor, ok := granularities[params["granularity"]]
	if !ok {
		return nil, false
	}
	sums := make(map[time.Time]float64)
	counts := make(map[time.Time]int)
	var order []time.Time
	for _, item := range series {
		sample, ok := item.(map[string]any)
		if !ok {
			return nil, false
		}
		ts, ok := parseTime(sample["timestamp"])
		if !ok {
			return nil, false
		}
		val, ok := toFloat(sample["value"])
		if !ok {
			return nil, false
		}
		period := floor(ts)
		if _, seen := counts[period]; !seen {
			order = append(order, period)
		}
		sums[period] += val
		counts[period]++
	}
	out := make([]any, 0, len(order))
	for _, period := range sortTimes(order) {
		out = append(out, seriesPoint{
			Period: period.Format(time.RFC3339),
			Mean:   sums[period] / float64(counts[period]),
			Count:  counts[period],
		})
	}
	return out, true
}

func sortTimes(ts []time.Time) []time.Time {
	slices.SortFunc(ts, time.Time.Compare)
	return ts
}

// Truncation

func intParam(params map[string]string, key string, fallback int) int {
	if raw, ok := params[key]; ok {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}

// truncateValue keeps a structural prefix: an IP subnet, a fixed number of
// decimals, or the first "keep" characters followed by "***".
func truncateValue(v any, params map[string]string) (any, bool) {
	if _, ok := params["decimals"]; ok {
		f, ok := toFloat(v)
		if !ok {
			return nil, false
		}
		scale := math.Pow(10, float64(intParam(params, "decimals", 0)))
		return math.Trunc(f*scale) / scale, true
	}

	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	if addr, err := netip.ParseAddr(strings.TrimSpace(s)); err == nil {
		bits := intParam(params, "prefix", 24)
		if addr.Is6() && !addr.Is4In6() {
			bits = intParam(params, "ipv6_prefix", 48)
		}
		prefix, err := addr.Unmap().Prefix(min(bits, addr.Unmap().BitLen()))
		if err != nil {
			return nil, false
		}
		return prefix.String(), true
	}
	if _, ok := params["keep"]; ok {
		runes := []rune(s)
		keep := min(intParam(params, "keep", 0), len(runes))
		return string(runes[:keep]) + "***", true
	}
	return nil, false
}
