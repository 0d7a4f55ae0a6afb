package generator

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/softbox-mx/captura/store"
)

// coerceRecord validates the recovered structure against the expected
// shape: a JSON object whose values are all arrays. Cells are
// stringified; null becomes the empty string.
func coerceRecord(v any) (map[string][]string, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("model output is %T, expected a JSON object", v)
	}
	out := make(map[string][]string, len(obj))
	for key, raw := range obj {
		arr, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("field %q: expected an array, got %T", key, raw)
		}
		cells := make([]string, len(arr))
		for i, e := range arr {
			cells[i] = stringify(e)
		}
		out[key] = cells
	}
	return out, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// Balance forces every field array to the literal length of the
// item_id array. Shorter arrays are padded: an empty array pads with
// the empty string, an array of one repeated value pads with that
// value, anything else pads with the empty string rather than guessing
// from partial data. Longer arrays are truncated. The input map is
// never mutated.
//
// The length key is the item_id array as the model returned it, with
// no deduplication: duplicate item_id entries produce duplicate rows.
func Balance(data map[string][]string) (map[string][]string, error) {
	ids, ok := data["item_id"]
	if !ok {
		return nil, &store.ValidationError{Name: "item_id"}
	}
	target := len(ids)

	balanced := make(map[string][]string, len(data))
	for key, lst := range data {
		out := append([]string(nil), lst...)
		switch {
		case len(out) < target:
			pad := ""
			if len(out) > 0 && allEqual(out) {
				pad = out[0]
			}
			for len(out) < target {
				out = append(out, pad)
			}
		case len(out) > target:
			out = out[:target]
		}
		balanced[key] = out
	}
	return balanced, nil
}

func allEqual(lst []string) bool {
	for _, v := range lst[1:] {
		if v != lst[0] {
			return false
		}
	}
	return true
}
