package sql

import (
	"context"
	"fmt"
	"sort"
	"strings"

	network "github.com/ExamTime/acts-as-network"
	"github.com/ExamTime/acts-as-network/dialect"
)

// Scan maps one result row onto a record. It receives the row's Scan
// function and must read exactly the columns the table was declared with, in
// order.
type Scan[T network.Record] func(scan func(dest ...any) error) (T, error)

// Table is a SQL-backed entity table implementing network.Store. Collections
// returned from it are lazy query descriptors: every consumption renders and
// runs a fresh statement, so accessor results always reflect the database's
// live state.
type Table[T network.Record] struct {
	drv     dialect.Driver
	name    string
	idCol   string
	columns []string
	scan    Scan[T]
}

// NewTable declares a table with its primary-key column, selected columns,
// and row scanner. Malformed identifiers fail here with ConfigError rather
// than at first query.
func NewTable[T network.Record](drv dialect.Driver, name, idColumn string, columns []string, scan Scan[T]) (*Table[T], error) {
	if drv == nil {
		return nil, network.NewConfigError(name, "driver is required")
	}
	if scan == nil {
		return nil, network.NewConfigError(name, "row scanner is required")
	}
	if len(columns) == 0 {
		return nil, network.NewConfigError(name, "at least one column is required")
	}
	for _, ident := range append([]string{name, idColumn}, columns...) {
		if !isValidIdentifier(ident) {
			return nil, network.NewConfigError(name, "invalid identifier %q", ident)
		}
	}
	return &Table[T]{drv: drv, name: name, idCol: idColumn, columns: columns, scan: scan}, nil
}

// Name returns the table name.
func (t *Table[T]) Name() string { return t.name }

// ManyToMany implements network.Store.
func (t *Table[T]) ManyToMany(joinTable, localKey, remoteKey string, id any, filter network.Predicate) network.Collection[T] {
	return &query[T]{
		table:     t,
		joinTable: joinTable,
		localKey:  localKey,
		remoteKey: remoteKey,
		id:        id,
		filter:    filter,
	}
}

// OneToMany implements network.Store.
func (t *Table[T]) OneToMany(foreignKey string, id any, filter network.Predicate) network.Collection[T] {
	return &query[T]{
		table:    t,
		localKey: foreignKey,
		id:       id,
		filter:   filter,
	}
}

// Records returns a collection over the whole table.
func (t *Table[T]) Records() network.Collection[T] {
	return &query[T]{table: t, unscoped: true}
}

// Insert writes a row with the given column values. Column order in the
// statement is deterministic (sorted by name).
func (t *Table[T]) Insert(ctx context.Context, values map[string]any) error {
	return Insert(ctx, t.drv, t.name, values)
}

// Insert writes a row into any table, typically an attribute-less join
// table that has no Table declaration of its own.
func Insert(ctx context.Context, drv dialect.Driver, table string, values map[string]any) error {
	if !isValidIdentifier(table) {
		return fmt.Errorf("dialect/sql: invalid table %q", table)
	}
	cols := make([]string, 0, len(values))
	for col := range values {
		if !isValidIdentifier(col) {
			return fmt.Errorf("dialect/sql: invalid column %q", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)
	st := newStmt(drv.Dialect())
	st.raw("INSERT INTO ")
	st.ident(table)
	st.raw(" (")
	for i, col := range cols {
		if i > 0 {
			st.raw(", ")
		}
		st.ident(col)
	}
	st.raw(") VALUES (")
	for i, col := range cols {
		if i > 0 {
			st.raw(", ")
		}
		st.arg(values[col])
	}
	st.raw(")")
	return drv.Exec(ctx, st.String(), st.args, nil)
}

// query is a lazy SELECT over a table, optionally joined through a relation
// table and narrowed by ids.
type query[T network.Record] struct {
	table     *Table[T]
	joinTable string // non-empty for many-to-many
	localKey  string
	remoteKey string
	id        any
	filter    network.Predicate
	unscoped  bool
	ids       []any // non-nil after WhereIDIn
}

// Size implements network.Collection.
func (q *query[T]) Size(ctx context.Context) (int, error) {
	st, err := q.build(true)
	if err != nil {
		return 0, err
	}
	var rows Rows
	if err := q.table.drv.Query(ctx, st.String(), st.args, &rows); err != nil {
		return 0, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return 0, err
		}
		return 0, fmt.Errorf("dialect/sql: no rows returned for count on %q", q.table.name)
	}
	var n int
	if err := rows.Scan(&n); err != nil {
		return 0, err
	}
	return n, rows.Err()
}

// Empty implements network.Collection.
func (q *query[T]) Empty(ctx context.Context) (bool, error) {
	n, err := q.Size(ctx)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// All implements network.Collection.
func (q *query[T]) All(ctx context.Context) ([]T, error) {
	st, err := q.build(false)
	if err != nil {
		return nil, err
	}
	var rows Rows
	if err := q.table.drv.Query(ctx, st.String(), st.args, &rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []T
	for rows.Next() {
		rec, err := q.table.scan(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// WhereIDIn implements network.Collection.
func (q *query[T]) WhereIDIn(ids ...any) network.Collection[T] {
	narrowed := ids
	if narrowed == nil {
		narrowed = []any{}
	}
	if q.ids != nil {
		// Intersect with the existing restriction.
		have := make(map[any]struct{}, len(q.ids))
		for _, id := range q.ids {
			have[id] = struct{}{}
		}
		narrowed = make([]any, 0, len(ids))
		for _, id := range ids {
			if _, ok := have[id]; ok {
				narrowed = append(narrowed, id)
			}
		}
	}
	derived := *q
	derived.ids = narrowed
	return &derived
}

// build renders the SELECT (or COUNT) statement for the query's current
// shape.
func (q *query[T]) build(count bool) (*stmt, error) {
	for _, ident := range []string{q.joinTable, q.localKey, q.remoteKey} {
		if ident != "" && !isValidIdentifier(ident) {
			return nil, fmt.Errorf("dialect/sql: invalid identifier %q", ident)
		}
	}
	st := newStmt(q.table.drv.Dialect())
	st.raw("SELECT ")
	if count {
		st.raw("COUNT(*)")
	} else {
		for i, col := range q.table.columns {
			if i > 0 {
				st.raw(", ")
			}
			st.qualified("t", col)
		}
	}
	st.raw(" FROM ")
	st.ident(q.table.name)
	st.raw(" AS t")
	filterAlias := "t"
	var conds []func() error
	switch {
	case q.joinTable != "":
		st.raw(" JOIN ")
		st.ident(q.joinTable)
		st.raw(" AS j ON ")
		st.qualified("j", q.remoteKey)
		st.raw(" = ")
		st.qualified("t", q.table.idCol)
		filterAlias = "j"
		conds = append(conds, func() error {
			st.qualified("j", q.localKey)
			st.raw(" = ")
			st.arg(q.id)
			return nil
		})
	case !q.unscoped:
		conds = append(conds, func() error {
			st.qualified("t", q.localKey)
			st.raw(" = ")
			st.arg(q.id)
			return nil
		})
	}
	for _, c := range q.filter {
		cond := c
		conds = append(conds, func() error {
			return st.cond(filterAlias, cond)
		})
	}
	if q.ids != nil {
		conds = append(conds, func() error {
			st.inList("t", q.table.idCol, q.ids)
			return nil
		})
	}
	for i, cond := range conds {
		if i == 0 {
			st.raw(" WHERE ")
		} else {
			st.raw(" AND ")
		}
		if err := cond(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// stmt accumulates a statement with dialect-aware identifier quoting and
// placeholder numbering.
type stmt struct {
	strings.Builder
	dialect string
	args    []any
}

func newStmt(d string) *stmt {
	return &stmt{dialect: d}
}

func (s *stmt) raw(text string) {
	s.WriteString(text)
}

func (s *stmt) ident(name string) {
	quote := `"`
	if s.dialect == dialect.MySQL {
		quote = "`"
	}
	s.WriteString(quote + name + quote)
}

func (s *stmt) qualified(alias, column string) {
	s.WriteString(alias + ".")
	s.ident(column)
}

func (s *stmt) arg(v any) {
	s.args = append(s.args, v)
	if s.dialect == dialect.Postgres {
		fmt.Fprintf(s, "$%d", len(s.args))
		return
	}
	s.WriteString("?")
}

// inList renders alias.column IN (...); an empty list renders a
// never-matching condition.
func (s *stmt) inList(alias, column string, vs []any) {
	if len(vs) == 0 {
		s.raw("1 = 0")
		return
	}
	s.qualified(alias, column)
	s.raw(" IN (")
	for i, v := range vs {
		if i > 0 {
			s.raw(", ")
		}
		s.arg(v)
	}
	s.raw(")")
}

// cond compiles one predicate condition against the given alias.
func (s *stmt) cond(alias string, c network.Cond) error {
	if !isValidIdentifier(c.Field) {
		return fmt.Errorf("dialect/sql: invalid predicate field %q", c.Field)
	}
	switch c.Op {
	case network.OpEQ:
		s.qualified(alias, c.Field)
		s.raw(" = ")
		s.arg(c.Value)
	case network.OpNEQ:
		s.qualified(alias, c.Field)
		s.raw(" <> ")
		s.arg(c.Value)
	case network.OpIn:
		s.inList(alias, c.Field, c.Values)
	default:
		return fmt.Errorf("dialect/sql: unsupported operator %v", c.Op)
	}
	return nil
}
