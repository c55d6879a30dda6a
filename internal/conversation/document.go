package conversation

import (
	"reflect"
	"time"

	"github.com/sorriso/simplehybridchat/internal/docstore"
)

// asDocument coerces a nested-document field to docstore.Document. It
// uses reflection rather than a type assertion because a value
// round-tripped through mongoadapter decodes as bson.M, a distinct
// named map type, not the map[string]any alias memstore hands back
// directly.
func asDocument(v any) (docstore.Document, bool) {
	if v == nil {
		return nil, false
	}
	if doc, ok := v.(docstore.Document); ok {
		return doc, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	out := make(docstore.Document, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

// asSlice coerces a nested-array field to []any for the same reason:
// mongoadapter decodes arrays as bson.A, a distinct named slice type.
func asSlice(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	if s, ok := v.([]any); ok {
		return s, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

func stringField(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func intField(doc docstore.Document, key string) int {
	switch n := doc[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func timeField(doc docstore.Document, key string) time.Time {
	t, _ := doc[key].(time.Time)
	return t
}

func stringSliceField(doc docstore.Document, key string) []string {
	switch v := doc[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
