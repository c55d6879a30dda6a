// Package memstore is an in-memory docstore.Store double used by every
// domain package's unit tests so they never need a live Mongo
// instance. It implements the same id-mapping contract as
// mongoadapter, minting ids with uuid.NewString() the same way.
package memstore

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sorriso/simplehybridchat/internal/apperr"
	"github.com/sorriso/simplehybridchat/internal/docstore"
)

type collection struct {
	docs    map[string]docstore.Document
	indexes []docstore.IndexSpec
}

// Store is a sync.RWMutex-guarded map-of-maps implementation of
// docstore.Store.
type Store struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// New returns an empty Store.
func New() *Store {
	return &Store{collections: make(map[string]*collection)}
}

func (s *Store) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]docstore.Document)}
		s.collections[name] = c
	}
	return c
}

func cloneDoc(d docstore.Document) docstore.Document {
	out := make(docstore.Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

func (s *Store) Create(ctx context.Context, collName string, doc docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(collName)
	out := cloneDoc(doc)
	id, _ := out["id"].(string)
	if id == "" {
		id = uuid.NewString()
		out["id"] = id
	}
	if _, exists := c.docs[id]; exists {
		return nil, apperr.New(apperr.Conflict, "document id already exists")
	}

	for _, idx := range c.indexes {
		if !idx.Unique {
			continue
		}
		if err := checkUnique(c, idx, out, ""); err != nil {
			return nil, err
		}
	}

	c.docs[id] = cloneDoc(out)
	return cloneDoc(out), nil
}

func (s *Store) GetByID(ctx context.Context, collName, id string) (docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.coll(collName)
	d, ok := c.docs[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	return cloneDoc(d), nil
}

func (s *Store) Query(ctx context.Context, collName string, filters docstore.Filters, skip, limit int, sortSpec []docstore.SortField) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.coll(collName)
	matched := make([]docstore.Document, 0, len(c.docs))
	for _, d := range c.docs {
		if matchesFilters(d, filters) {
			matched = append(matched, cloneDoc(d))
		}
	}

	if len(sortSpec) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, sf := range sortSpec {
				vi, vj := matched[i][sf.Field], matched[j][sf.Field]
				cmp := compareValues(vi, vj)
				if cmp == 0 {
					continue
				}
				if sf.Direction == docstore.Descending {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if skip > len(matched) {
		skip = len(matched)
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *Store) FindOne(ctx context.Context, collName string, filters docstore.Filters) (docstore.Document, error) {
	results, err := s.Query(ctx, collName, filters, 0, 1, nil)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}
	return results[0], nil
}

func (s *Store) Update(ctx context.Context, collName, id string, patch docstore.Document) (docstore.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(collName)
	existing, ok := c.docs[id]
	if !ok {
		return nil, apperr.New(apperr.NotFound, "document not found")
	}

	merged := cloneDoc(existing)
	for k, v := range patch {
		merged[k] = v
	}
	merged["id"] = id

	for _, idx := range c.indexes {
		if !idx.Unique {
			continue
		}
		if err := checkUnique(c, idx, merged, id); err != nil {
			return nil, err
		}
	}

	c.docs[id] = cloneDoc(merged)
	return cloneDoc(merged), nil
}

func (s *Store) Delete(ctx context.Context, collName, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.coll(collName)
	if _, ok := c.docs[id]; !ok {
		return false, nil
	}
	delete(c.docs, id)
	return true, nil
}

func (s *Store) Count(ctx context.Context, collName string, filters docstore.Filters) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.coll(collName)
	n := 0
	for _, d := range c.docs {
		if matchesFilters(d, filters) {
			n++
		}
	}
	return n, nil
}

func (s *Store) Exists(ctx context.Context, collName, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c := s.coll(collName)
	_, ok := c.docs[id]
	return ok, nil
}

func (s *Store) CreateCollection(ctx context.Context, collName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.coll(collName)
	return nil
}

func (s *Store) DropCollection(ctx context.Context, collName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collName)
	return nil
}

func (s *Store) TruncateCollection(ctx context.Context, collName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collName)
	c.docs = make(map[string]docstore.Document)
	return nil
}

func (s *Store) CreateIndex(ctx context.Context, collName string, spec docstore.IndexSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collName)
	c.indexes = append(c.indexes, spec)
	return nil
}

func (s *Store) DropIndex(ctx context.Context, collName, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.coll(collName)
	for i, idx := range c.indexes {
		if idx.Name == name {
			c.indexes = append(c.indexes[:i], c.indexes[i+1:]...)
			break
		}
	}
	return nil
}

// fieldValue resolves a possibly dot-pathed field name against a
// document, descending into nested documents the way Mongo addresses
// sub-document fields (e.g. "checksums.sha256").
func fieldValue(d docstore.Document, field string) any {
	parts := strings.Split(field, ".")
	var cur any = d
	for _, p := range parts {
		m, ok := cur.(docstore.Document)
		if !ok {
			return nil
		}
		cur = m[p]
	}
	return cur
}

func checkUnique(c *collection, idx docstore.IndexSpec, doc docstore.Document, skipID string) error {
	for _, d := range c.docs {
		id, _ := d["id"].(string)
		if id == skipID {
			continue
		}
		same := true
		for _, sf := range idx.Fields {
			if idx.Sparse && isNilOrEmpty(fieldValue(doc, sf.Field)) {
				same = false
				break
			}
			if !valuesEqual(fieldValue(d, sf.Field), fieldValue(doc, sf.Field)) {
				same = false
				break
			}
		}
		if same {
			return apperr.New(apperr.Conflict, "unique index violation on "+idx.Name)
		}
	}
	return nil
}

func isNilOrEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func matchesFilters(d docstore.Document, filters docstore.Filters) bool {
	for field, want := range filters {
		got := fieldValue(d, field)
		if rx, ok := want.(docstore.Regex); ok {
			s, _ := got.(string)
			pattern := rx.Pattern
			if rx.CaseInsensitive {
				pattern = "(?i)" + pattern
			}
			re, err := regexp.Compile(pattern)
			if err != nil || !re.MatchString(s) {
				return false
			}
			continue
		}
		if !valuesEqual(got, want) {
			return false
		}
	}
	return true
}

// valuesEqual mirrors Mongo's implicit array-contains-scalar equality:
// when the stored field is a slice and the filter value is a scalar,
// the predicate is membership, not identity, the same semantics a
// multikey index (e.g. shared_with_group_ids) gives for free in Mongo.
func valuesEqual(a, b any) bool {
	if a == b {
		return true
	}
	if ids, ok := toStringSlice(a); ok {
		if target, ok := b.(string); ok {
			for _, id := range ids {
				if id == target {
					return true
				}
			}
		}
	}
	return false
}

func toStringSlice(v any) ([]string, bool) {
	switch s := v.(type) {
	case []string:
		return s, true
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out, true
	default:
		return nil, false
	}
}

func compareValues(a, b any) int {
	at, aok := a.(time.Time)
	bt, bok := b.(time.Time)
	if aok && bok {
		switch {
		case at.Before(bt):
			return -1
		case at.After(bt):
			return 1
		default:
			return 0
		}
	}

	as, aok := a.(string)
	bs, bok := b.(string)
	if aok && bok {
		return strings.Compare(as, bs)
	}
	ai, aok := toFloat(a)
	bi, bok := toFloat(b)
	if aok && bok {
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		default:
			return 0
		}
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
