// File: internal/jsonfmt/flatten.go
// Brief: Internal jsonfmt package implementation for 'flatten'.

// Package jsonfmt turns schema-less JSON log bodies into a tabular layout:
// values are flattened to path/value rows and an Analyzer discovers the
// column set from the data.
package jsonfmt

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// MaxDepth bounds flattening recursion. Containers nested deeper are kept as
// their compact JSON text under their own path.
const MaxDepth = 64

// Row maps a flattened path (e.g. "req.headers[0].name") to its string value.
type Row map[string]string

// Keys returns the row's paths in lexicographic order.
func (r Row) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode parses body as a single JSON value, keeping numbers as json.Number so
// they render exactly as written. Trailing data after the value is an error.
func Decode(body string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after JSON value")
	}
	return v, nil
}

// Flatten converts a decoded JSON value into a Row. Object fields join with
// ".", array elements append "[i]". A scalar is stored at prefix itself.
// Empty objects and arrays contribute no entries.
func Flatten(v any, prefix string) Row {
	out := Row{}
	flatten(v, prefix, 0, out)
	return out
}

func flatten(v any, prefix string, depth int, out Row) {
	switch val := v.(type) {
	case map[string]any:
		if depth >= MaxDepth {
			out[prefix] = compact(val)
			return
		}
		for k, child := range val {
			flatten(child, joinKey(prefix, k), depth+1, out)
		}
	case []any:
		if depth >= MaxDepth {
			out[prefix] = compact(val)
			return
		}
		for i, child := range val {
			flatten(child, fmt.Sprintf("%s[%d]", prefix, i), depth+1, out)
		}
	default:
		out[prefix] = Scalar(val)
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// Scalar renders a decoded JSON scalar: strings unquoted, numbers in
// canonical decimal (see canonicalNumber), booleans as true/false and null as "". Containers render as compact JSON.
func Scalar(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return canonicalNumber(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return fmt.Sprint(val)
	default:
		return compact(val)
	}
}

// canonicalNumber renders n in plain decimal without exponent or redundant
// zeros: 1e3 is "1000", 1.50 is "1.5", -0 is "0". Integers that overflow
// int64 keep their digits; values out of float64 range keep their literal.
func canonicalNumber(n json.Number) string {
	lit := n.String()
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if !strings.ContainsAny(lit, ".eE") {
		return lit
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return lit
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func compact(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprint(v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
