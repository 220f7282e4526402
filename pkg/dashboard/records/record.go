package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is one row of a batch fetched from the data source.
// The schema is owned by the data source; the engine only reads fields through a FieldTable.
type Record map[string]interface{}

var firstIntPattern = regexp.MustCompile(`\d+`)

// Serialize renders the whole record as JSON with sorted keys.
// Used by the text filter so that content outside the displayed columns is still searchable.
func (r Record) Serialize() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]interface{}(r)); err != nil {
		return fmt.Sprintf("%v", map[string]interface{}(r))
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// Text returns the raw value under an exact key as a trimmed string ("" when absent).
func (r Record) Text(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	return strings.TrimSpace(toString(v))
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		if t == math.Trunc(t) && math.Abs(t) < 1e15 {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return toString(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format(time.DateOnly)
		}
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// FirstInt extracts the first run of digits from any value ("415회" -> 415).
func FirstInt(v interface{}) (int, bool) {
	if v == nil {
		return 0, false
	}
	if _, isBool := v.(bool); isBool {
		return 0, false
	}
	m := firstIntPattern.FindString(toString(v))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SafeInt converts numeric-looking values ("2017", "2017.0", 2017.0) to int.
// Non-integral floats, booleans and garbage are rejected.
func SafeInt(v interface{}) (int, bool) {
	f, ok := SafeFloat(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// SafeFloat converts numeric-looking values to float64.
func SafeFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case nil, bool:
		return 0, false
	case float64:
		return t, !math.IsNaN(t) && !math.IsInf(t, 0)
	case float32:
		return SafeFloat(float64(t))
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	}
	s := strings.TrimSpace(toString(v))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
