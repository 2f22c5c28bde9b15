// Package jsonfloat carries non-finite floats through encoding/json, which
// rejects NaN and ±Inf. They are written as the strings "NaN", "+Inf" and
// "-Inf"; finite values stay plain JSON numbers.
package jsonfloat

import (
	"encoding/json"
	"fmt"
	"math"
)

// Value returns f itself when finite, otherwise its string form.
func Value(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return f
}

// Parse accepts a JSON number, one of the non-finite strings, or null (0).
func Parse(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "+Inf", "Inf":
			return math.Inf(1), nil
		case "-Inf":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("jsonfloat: invalid float %q", s)
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		return 0, err
	}
	return f, nil
}
