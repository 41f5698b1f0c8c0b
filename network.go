// Package network lets any entity type declare itself a node in one or more
// named directed networks, such as "friends" or "contacts".
//
// A network is backed either by a symmetric join table (two foreign-key
// columns, no attributes) or by an independent edge entity that carries its
// own attributes, e.g. an invite with an acceptance flag. For every declared
// network the package exposes an outbound collection, an inbound collection,
// and a combined bidirectional view that behaves like a single deduplicated
// set for iteration, counting, and primary-key lookup.
//
// # Declaring a network
//
// Relations are built once at type-setup time from a declarative [Config]
// and bound to node instances through a [Hub]:
//
//	friends, err := network.Build[*Person]("friends", network.Config{
//	    Table: "people",
//	}, people)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p := NewPerson(store)
//	friends.Bind(&p.Networks, p) // registers friends_out, friends_in, friends
//
// Foreign-key and join-table names are derived from the node table when not
// given explicitly: "people" yields the foreign key "person_id", the
// association key "person_id_target", and the join table "people_people".
//
// # Through entities
//
// A network mediated by an edge entity additionally exposes the raw edges in
// both directions, and an optional filter restricts which edge rows count:
//
//	colleagues, err := network.BuildThrough[*Person, *Invite]("colleagues",
//	    network.Config{
//	        Table:   "people",
//	        Through: "invites",
//	        Filter:  network.Predicate{network.EQ("accepted", true)},
//	    }, people, invites)
//
// # Union views
//
// The bidirectional accessor is a [UnionView]: a lazy, deduplicating
// composite over its source collections. Full iteration materializes every
// source once per view instance; id lookup stays cheap and never loads the
// whole union. Unions nest, so a view over other union accessors is
// equivalent to the flattened union over all leaf sources:
//
//	p.Networks.Union("associates", "friends", "colleagues")
//
// The package performs no locking. Builders run during single-threaded type
// setup, and each UnionView instance is owned by the caller that created it.
package network

import "context"

// Record is the minimal contract for anything held in a collection. The
// returned primary key must be stable and of a comparable dynamic type; it is
// the sole notion of identity used for deduplication and lookup.
type Record interface {
	RecordID() any
}

// Collection is the read surface the package requires from a queryable set of
// records. Implementations are expected to be lazy: construction is free and
// every method call may reach out to the backing store.
type Collection[T Record] interface {
	// Size returns the number of records in the collection.
	Size(ctx context.Context) (int, error)

	// Empty reports whether the collection holds no records.
	Empty(ctx context.Context) (bool, error)

	// All loads and returns every record in the collection.
	All(ctx context.Context) ([]T, error)

	// WhereIDIn narrows the collection to records whose primary key matches
	// one of the given ids. The result is a derived collection; no query runs
	// until it is consumed.
	WhereIDIn(ids ...any) Collection[T]
}

// Store is the relation-declaration surface consumed from the persistent
// store. The returned collections must re-evaluate on every call so that
// accessors always reflect live state.
//
// The dialect/sql package provides a SQL-backed implementation and memstore
// an in-memory one.
type Store[T Record] interface {
	// ManyToMany returns the records of T reachable from the node with the
	// given id: rows of joinTable whose localKey column equals id resolve to
	// T through their remoteKey column. The filter applies to the join rows.
	ManyToMany(joinTable, localKey, remoteKey string, id any, filter Predicate) Collection[T]

	// OneToMany returns the records of T whose foreignKey column equals id,
	// with the filter applied.
	OneToMany(foreignKey string, id any, filter Predicate) Collection[T]
}

// Accessor produces a collection for the instance it was registered on. A nil
// return is treated as an empty source by union accessors.
type Accessor[T Record] func() Collection[T]

// Map applies fn to every record of the collection and returns the results in
// collection order. If c is a *UnionView, this materializes it.
func Map[T Record, R any](ctx context.Context, c Collection[T], fn func(T) R) ([]R, error) {
	records, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]R, len(records))
	for i, r := range records {
		result[i] = fn(r)
	}
	return result, nil
}
