package evaluation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ArgMatchRate computes the fraction of expected arguments that appear in the
// model-produced argument JSON with a matching value. Numbers are compared
// after normalization so "129.08" matches 129.08. Returns 1.0 when nothing is
// expected and 0.0 when the arguments do not parse.
func ArgMatchRate(expected map[string]string, rawArgs string) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	var produced map[string]interface{}
	if err := json.Unmarshal([]byte(rawArgs), &produced); err != nil {
		return 0.0
	}

	matched := 0
	for key, want := range expected {
		value, ok := produced[key]
		if !ok {
			continue
		}
		if argValuesEqual(want, value) {
			matched++
		}
	}

	return float64(matched) / float64(len(expected))
}

func argValuesEqual(want string, got interface{}) bool {
	switch v := got.(type) {
	case string:
		return strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(want))
	case float64:
		wantNum, err := strconv.ParseFloat(strings.TrimSpace(want), 64)
		if err != nil {
			return false
		}
		// Model-produced coordinates wobble in the last decimals
		return floatsClose(wantNum, v)
	case bool:
		return strings.TrimSpace(want) == fmt.Sprintf("%t", v)
	default:
		return false
	}
}

// floatsClose allows a small absolute tolerance, enough to absorb rounding
// differences in geocoded coordinates without accepting a different place.
func floatsClose(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 0.05
}
