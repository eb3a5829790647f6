package validation

import (
	"encoding/json"
	"reflect"

	"github.com/MrEthical07/goConsole/catalog"
)

// asObject turns a candidate record into a field map. Catalog types are
// mapped directly so that values JSON cannot carry (NaN prices) still reach
// the type checks; anything else goes through a JSON round trip.
func asObject(input any) (map[string]any, bool) {
	switch v := input.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v, true
	case catalog.Credentials:
		return credentialsObject(v), true
	case *catalog.Credentials:
		if v == nil {
			return nil, false
		}
		return credentialsObject(*v), true
	case catalog.ProductInsideItem:
		return insideObject(v), true
	case *catalog.ProductInsideItem:
		if v == nil {
			return nil, false
		}
		return insideObject(*v), true
	case catalog.ProductRecord:
		return map[string]any{"row": v.Row, "insides": insideSequence(v.Insides)}, true
	case *catalog.ProductRecord:
		if v == nil {
			return nil, false
		}
		return map[string]any{"row": v.Row, "insides": insideSequence(v.Insides)}, true
	case catalog.ProductUpdate:
		return map[string]any{"row": v.Row, "data": insideSequence(v.Data)}, true
	case *catalog.ProductUpdate:
		if v == nil {
			return nil, false
		}
		return map[string]any{"row": v.Row, "data": insideSequence(v.Data)}, true
	case json.RawMessage:
		return decodeObject(v)
	case []byte:
		return decodeObject(v)
	case string, bool, float64, float32, int, int64, int32:
		return nil, false
	}

	data, err := json.Marshal(input)
	if err != nil {
		return nil, false
	}
	return decodeObject(data)
}

func decodeObject(data []byte) (map[string]any, bool) {
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, false
	}
	obj, ok := out.(map[string]any)
	return obj, ok
}

func credentialsObject(c catalog.Credentials) map[string]any {
	return map[string]any{"login": c.Login, "password": c.Password}
}

func insideObject(item catalog.ProductInsideItem) map[string]any {
	return map[string]any{
		"product":         item.Product,
		"activeSubstance": item.ActiveSubstance,
		"dosage":          item.Dosage,
		"availability":    item.Availability,
		"price":           item.Price,
		"id":              item.ID,
	}
}

func insideSequence(items []catalog.ProductInsideItem) any {
	if items == nil {
		return nil
	}
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out
}

func asSequence(raw any) ([]any, bool) {
	if items, ok := raw.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
