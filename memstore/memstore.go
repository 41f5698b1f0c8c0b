// Package memstore provides an in-memory implementation of the network store
// contracts. It is the reference collaborator for tests and small programs:
// collections re-evaluate against the live tables on every call, mirroring
// the behavior of a real query-backed store without a database.
package memstore

import (
	"context"
	"fmt"

	network "github.com/ExamTime/acts-as-network"
)

// rowSource exposes a live column view of a table's rows. Entity tables and
// raw join tables both implement it, so a node table can traverse either an
// attribute-less join table or an edge-entity table by name.
type rowSource interface {
	columnRows() []map[string]any
}

// Store is a registry of named tables sharing one namespace, the in-memory
// analogue of a database schema.
type Store struct {
	sources map[string]rowSource
}

// New returns an empty store.
func New() *Store {
	return &Store{sources: make(map[string]rowSource)}
}

// JoinTable registers (or returns the existing) attribute-less join table
// under the given name.
func (s *Store) JoinTable(name string) *JoinTable {
	if src, ok := s.sources[name]; ok {
		if j, ok := src.(*JoinTable); ok {
			return j
		}
	}
	j := &JoinTable{}
	s.sources[name] = j
	return j
}

// rows returns the live column view of the named table.
func (s *Store) rows(name string) ([]map[string]any, error) {
	src, ok := s.sources[name]
	if !ok {
		return nil, fmt.Errorf("memstore: unknown table %q", name)
	}
	return src.columnRows(), nil
}

// JoinTable holds plain foreign-key rows with no entity identity.
type JoinTable struct {
	rows []map[string]any
}

// Add appends a join row.
func (j *JoinTable) Add(row map[string]any) {
	j.rows = append(j.rows, row)
}

func (j *JoinTable) columnRows() []map[string]any {
	return j.rows
}

// Table is an in-memory entity table implementing network.Store. The fields
// function exposes a record's column view, which is how predicates and
// foreign keys are evaluated; because it is applied at query time, mutating a
// stored record is immediately visible to open collections.
type Table[T network.Record] struct {
	store  *Store
	name   string
	fields func(T) map[string]any
	rows   []T
	err    error
}

// NewTable registers an entity table with the store. The fields function
// must include the record's foreign-key columns when the table backs a
// through-entity relation.
func NewTable[T network.Record](s *Store, name string, fields func(T) map[string]any) *Table[T] {
	t := &Table[T]{store: s, name: name, fields: fields}
	s.sources[name] = t
	return t
}

// Add appends records to the table.
func (t *Table[T]) Add(records ...T) {
	t.rows = append(t.rows, records...)
}

// Get returns the record with the given primary key.
func (t *Table[T]) Get(id any) (T, bool) {
	for _, r := range t.rows {
		if r.RecordID() == id {
			return r, true
		}
	}
	var zero T
	return zero, false
}

// Fail makes every subsequent query on this table's collections return err,
// simulating a store outage. Fail(nil) restores normal operation.
func (t *Table[T]) Fail(err error) {
	t.err = err
}

func (t *Table[T]) columnRows() []map[string]any {
	rows := make([]map[string]any, len(t.rows))
	for i, r := range t.rows {
		rows[i] = t.fields(r)
	}
	return rows
}

// ManyToMany implements network.Store.
func (t *Table[T]) ManyToMany(joinTable, localKey, remoteKey string, id any, filter network.Predicate) network.Collection[T] {
	return &collection[T]{eval: func(ctx context.Context) ([]T, error) {
		if t.err != nil {
			return nil, t.err
		}
		rows, err := t.store.rows(joinTable)
		if err != nil {
			return nil, err
		}
		var records []T
		for _, row := range rows {
			if row[localKey] != id || !filter.Match(row) {
				continue
			}
			if rec, ok := t.Get(row[remoteKey]); ok {
				records = append(records, rec)
			}
		}
		return records, nil
	}}
}

// OneToMany implements network.Store.
func (t *Table[T]) OneToMany(foreignKey string, id any, filter network.Predicate) network.Collection[T] {
	return &collection[T]{eval: func(ctx context.Context) ([]T, error) {
		if t.err != nil {
			return nil, t.err
		}
		var records []T
		for _, r := range t.rows {
			row := t.fields(r)
			if row[foreignKey] != id || !filter.Match(row) {
				continue
			}
			records = append(records, r)
		}
		return records, nil
	}}
}

// Records returns a collection over the whole table, useful as a plain union
// source in tests.
func (t *Table[T]) Records() network.Collection[T] {
	return &collection[T]{eval: func(ctx context.Context) ([]T, error) {
		if t.err != nil {
			return nil, t.err
		}
		return t.rows, nil
	}}
}

// collection is a lazy query over a table. The eval function re-runs on
// every call; ids, when non-nil, narrows the result by primary key.
type collection[T network.Record] struct {
	eval func(ctx context.Context) ([]T, error)
	ids  []any
}

func (c *collection[T]) load(ctx context.Context) ([]T, error) {
	records, err := c.eval(ctx)
	if err != nil {
		return nil, err
	}
	if c.ids == nil {
		return records, nil
	}
	want := make(map[any]struct{}, len(c.ids))
	for _, id := range c.ids {
		want[id] = struct{}{}
	}
	var matched []T
	for _, r := range records {
		if _, ok := want[r.RecordID()]; ok {
			matched = append(matched, r)
		}
	}
	return matched, nil
}

// Size implements network.Collection.
func (c *collection[T]) Size(ctx context.Context) (int, error) {
	records, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Empty implements network.Collection.
func (c *collection[T]) Empty(ctx context.Context) (bool, error) {
	n, err := c.Size(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// All implements network.Collection.
func (c *collection[T]) All(ctx context.Context) ([]T, error) {
	return c.load(ctx)
}

// WhereIDIn implements network.Collection.
func (c *collection[T]) WhereIDIn(ids ...any) network.Collection[T] {
	narrowed := ids
	if narrowed == nil {
		narrowed = []any{}
	}
	if c.ids != nil {
		// Intersect with the existing restriction.
		have := make(map[any]struct{}, len(c.ids))
		for _, id := range c.ids {
			have[id] = struct{}{}
		}
		narrowed = make([]any, 0, len(ids))
		for _, id := range ids {
			if _, ok := have[id]; ok {
				narrowed = append(narrowed, id)
			}
		}
	}
	return &collection[T]{eval: c.eval, ids: narrowed}
}
