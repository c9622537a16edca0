package convert

import (
	"fmt"
	"reflect"
	"strconv"
)

var errNotMap = fmt.Errorf("input data is not a map")
var errNotStringValue = fmt.Errorf("map value is not a string")

// ToStringMap converts map[string]any or map[string]string to map[string]string.
// Returns an error if input is not a map or if map[string]any contains
// non-string values. Returns nil map if input is nil.
func ToStringMap(data any) (map[string]string, error) {
	if data == nil {
		return nil, nil
	}
	if m, ok := data.(map[string]string); ok {
		return m, nil
	}
	if mAny, ok := data.(map[string]any); ok {
		result := make(map[string]string, len(mAny))
		for k, v := range mAny {
			if vStr, okStr := v.(string); okStr {
				result[k] = vStr
			} else {
				return nil, fmt.Errorf("key '%s': %w (type %T)", k, errNotStringValue, v)
			}
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: input type %T", errNotMap, data)
}

// ToString renders a decoded JSON scalar the way a human would expect:
// numbers without the float64 exponent noise, booleans and strings as-is,
// nil as the empty string. Non-scalar values fall back to fmt.Sprint.
func ToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}

// LooseEqual compares two decoded JSON values, treating numeric types as
// interchangeable so a float64 from one payload equals an int from another.
func LooseEqual(a, b any) bool {
	if na, ok := toFloat(a); ok {
		if nb, okb := toFloat(b); okb {
			return na == nb
		}
		return false
	}
	return reflect.DeepEqual(a, b)
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
	case int32:
		return float64(t), true
	default:
		return 0, false
	}
}
