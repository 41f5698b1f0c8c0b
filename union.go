package network

import (
	"context"
	"reflect"
)

// UnionView is a deduplicating, lazily materialized composite over zero or
// more source collections. Record identity is primary-key equality, never
// structural equality, and on duplicates the earliest source wins.
//
// Lookup and materialization are decoupled: Find and FindMany query only the
// requested ids and stay cheap against arbitrarily large sources, while the
// full-collection operations (All, Each, Filter) load every source once and
// cache the merged result for the lifetime of the view instance.
//
// UnionView implements Collection, so views can be sources of other views;
// membership and size of a nested union equal those of the flattened union
// over all leaf sources.
//
// A view is not safe for concurrent use; each instance is owned by the caller
// that created it.
type UnionView[T Record] struct {
	sources []Collection[T]
	cached  []T
	loaded  bool
}

// Union returns a view over the given collections. Nil sources are dropped;
// the order of the remaining sources is the deduplication tie-break priority.
// A view over zero, nil, or empty sources has size 0 and never fails.
func Union[T Record](sources ...Collection[T]) *UnionView[T] {
	u := &UnionView[T]{}
	for _, s := range sources {
		if isNilSource(s) {
			continue
		}
		u.sources = append(u.sources, s)
	}
	return u
}

// isNilSource reports whether the collection interface holds no usable value,
// covering both nil interfaces and typed nil pointers.
func isNilSource[T Record](c Collection[T]) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func:
		return v.IsNil()
	}
	return false
}

// materialize loads every source, merges them with first-source-wins
// deduplication by primary key, and caches the result. Repeated calls reuse
// the cache.
func (u *UnionView[T]) materialize(ctx context.Context) ([]T, error) {
	if u.loaded {
		return u.cached, nil
	}
	seen := make(map[any]struct{})
	merged := make([]T, 0)
	for _, src := range u.sources {
		records, err := src.All(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			id := r.RecordID()
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			merged = append(merged, r)
		}
	}
	u.cached = merged
	u.loaded = true
	return u.cached, nil
}

// Size returns the number of distinct primary keys across all sources.
func (u *UnionView[T]) Size(ctx context.Context) (int, error) {
	records, err := u.materialize(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Empty reports whether the view holds no records. Unlike Size it needs no
// distinct count, so it asks the sources directly instead of materializing.
func (u *UnionView[T]) Empty(ctx context.Context) (bool, error) {
	if u.loaded {
		return len(u.cached) == 0, nil
	}
	for _, src := range u.sources {
		empty, err := src.Empty(ctx)
		if err != nil {
			return false, err
		}
		if !empty {
			return false, nil
		}
	}
	return true, nil
}

// All returns the deduplicated records of every source in source order. The
// first call materializes the view; later calls return the cached result.
func (u *UnionView[T]) All(ctx context.Context) ([]T, error) {
	return u.materialize(ctx)
}

// Each calls fn for every record of the materialized view in order, stopping
// at the first error.
func (u *UnionView[T]) Each(ctx context.Context, fn func(T) error) error {
	records, err := u.materialize(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		if err := fn(r); err != nil {
			return err
		}
	}
	return nil
}

// Filter returns the records of the materialized view for which keep reports
// true, preserving order.
func (u *UnionView[T]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	records, err := u.materialize(ctx)
	if err != nil {
		return nil, err
	}
	var kept []T
	for _, r := range records {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// WhereIDIn returns a derived view whose sources are narrowed to the given
// ids. No query runs until the derived view is consumed.
func (u *UnionView[T]) WhereIDIn(ids ...any) Collection[T] {
	derived := make([]Collection[T], len(u.sources))
	for i, src := range u.sources {
		derived[i] = src.WhereIDIn(ids...)
	}
	return Union(derived...)
}

// Contains reports whether a record with the given primary key exists in any
// source. It queries by id and does not materialize the view.
func (u *UnionView[T]) Contains(ctx context.Context, id any) (bool, error) {
	for _, src := range u.sources {
		empty, err := src.WhereIDIn(id).Empty(ctx)
		if err != nil {
			return false, err
		}
		if !empty {
			return true, nil
		}
	}
	return false, nil
}

// Find resolves a single record by primary key. It returns NotFoundError if
// no source holds the id. Like FindMany, it never touches the
// materialization cache.
func (u *UnionView[T]) Find(ctx context.Context, id any) (T, error) {
	records, err := u.lookup(ctx, []any{id})
	if err != nil {
		var zero T
		return zero, err
	}
	return records[0], nil
}

// FindMany resolves all requested ids across the union, or fails entirely.
//
// Duplicate requested ids collapse to a single match, as do records that
// appear in more than one source; the all-or-nothing check compares distinct
// requested ids against distinct resolved ids. On mismatch it returns
// NotFoundError carrying the full requested id list. Store errors propagate
// unchanged and are never conflated with NotFoundError.
func (u *UnionView[T]) FindMany(ctx context.Context, ids ...any) ([]T, error) {
	return u.lookup(ctx, ids)
}

// lookup queries only the non-empty sources for the requested ids,
// concatenates in source order, and deduplicates by primary key.
func (u *UnionView[T]) lookup(ctx context.Context, ids []any) ([]T, error) {
	distinct := make([]any, 0, len(ids))
	requested := make(map[any]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := requested[id]; ok {
			continue
		}
		requested[id] = struct{}{}
		distinct = append(distinct, id)
	}
	if len(distinct) == 0 {
		return nil, nil
	}
	seen := make(map[any]struct{}, len(distinct))
	var found []T
	for _, src := range u.sources {
		empty, err := src.Empty(ctx)
		if err != nil {
			return nil, err
		}
		if empty {
			continue
		}
		records, err := src.WhereIDIn(distinct...).All(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			id := r.RecordID()
			if _, ok := requested[id]; !ok {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			found = append(found, r)
		}
	}
	if len(seen) != len(distinct) {
		return nil, NewNotFoundError(ids...)
	}
	return found, nil
}
