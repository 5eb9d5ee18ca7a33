// Package series converts raw warehouse rows into the year-keyed chart
// bundles of pkg/models: normalization of warehouse-native value wrappers,
// daily/cumulative/weekly bucketing, and year-over-year alignment.
package series

import (
	"fmt"
	"math/big"
	"reflect"
	"time"

	"cloud.google.com/go/civil"
	"github.com/rs/zerolog"

	"github.com/briefdash-labs/briefdash/internal/warehouse"
)

// Normalizer flattens warehouse-native scalar wrappers into plain values
// that survive JSON serialization. It is total: no input value causes it
// to panic; unconvertible fields degrade to nil with a logged warning.
type Normalizer struct {
	log zerolog.Logger
}

// NewNormalizer creates a Normalizer logging warnings to the given logger.
func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Rows normalizes a whole result set.
func (n *Normalizer) Rows(rows []warehouse.Row) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(rows))
	for _, row := range rows {
		m := make(map[string]interface{}, len(row))
		for k, v := range row {
			m[k] = n.Value(v)
		}
		out = append(out, m)
	}
	return out
}

// Value normalizes a single value, recursing into slices and maps.
// Date-like wrappers resolve in priority order: the wrapper's own value
// accessor, a plain string, then generic stringification. The last resort
// logs a warning since it means an unanticipated type reached us.
func (n *Normalizer) Value(v interface{}) interface{} {
	switch t := v.(type) {
	case nil:
		return nil
	case civil.Date:
		return t.String()
	case civil.DateTime:
		return t.String()
	case civil.Time:
		return t.String()
	case time.Time:
		return t.Format(time.RFC3339)
	case *big.Rat:
		if t == nil {
			return nil
		}
		f, _ := t.Float64()
		return f
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return t
	case []byte:
		return string(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = n.Value(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = n.Value(e)
		}
		return out
	case warehouse.Row:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = n.Value(e)
		}
		return out
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan:
		n.log.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("dropping unserializable value")
		return nil
	case reflect.Slice, reflect.Array:
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = n.Value(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		out := make(map[string]interface{}, rv.Len())
		for _, key := range rv.MapKeys() {
			out[fmt.Sprint(key.Interface())] = n.Value(rv.MapIndex(key).Interface())
		}
		return out
	}

	if s, ok := v.(fmt.Stringer); ok {
		n.log.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("stringifying unexpected value type")
		return s.String()
	}

	n.log.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("falling back to generic stringification")
	return fmt.Sprint(v)
}
