package filecatalog

import (
	"reflect"
	"time"

	"github.com/sorriso/simplehybridchat/internal/docstore"
)

// asDocument coerces a nested-document field to docstore.Document,
// mirroring internal/conversation's coercion: a value round-tripped
// through mongoadapter decodes as bson.M, a distinct named map type,
// not the map[string]any alias memstore hands back directly.
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

func stringField(doc docstore.Document, key string) string {
	s, _ := doc[key].(string)
	return s
}

func boolField(doc docstore.Document, key string) bool {
	b, _ := doc[key].(bool)
	return b
}

func timeField(doc docstore.Document, key string) time.Time {
	t, _ := doc[key].(time.Time)
	return t
}

func int64Field(doc docstore.Document, key string) int64 {
	switch n := doc[key].(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func uint64Field(doc docstore.Document, key string) uint64 {
	switch n := doc[key].(type) {
	case uint64:
		return n
	case int64:
		return uint64(n)
	case int:
		return uint64(n)
	case float64:
		return uint64(n)
	default:
		return 0
	}
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
