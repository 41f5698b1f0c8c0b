package network

import "sort"

// Hub is a per-instance registry of named collection accessors and the
// union-declaration capability built on top of it. A node type opts in by
// composing a Hub per record type it exposes:
//
//	type Person struct {
//	    ID       int64
//	    Networks network.Hub[*Person]
//	}
//
// Relation builders register accessors such as "friends_out" and "friends_in"
// and declare "friends" as their union; applications may declare further
// unions over any registered accessors, including other unions.
//
// The zero value is ready to use. Registration happens during type setup and
// is not synchronized.
type Hub[T Record] struct {
	accessors map[string]Accessor[T]
}

// Register binds an accessor under the given name. Registering an empty
// name, a nil accessor, or a name that is already taken returns ConfigError.
func (h *Hub[T]) Register(name string, fn Accessor[T]) error {
	if name == "" {
		return NewConfigError(name, "accessor name must not be empty")
	}
	if fn == nil {
		return NewConfigError(name, "accessor must not be nil")
	}
	if _, ok := h.accessors[name]; ok {
		return NewConfigError(name, "accessor already registered")
	}
	if h.accessors == nil {
		h.accessors = make(map[string]Accessor[T])
	}
	h.accessors[name] = fn
	return nil
}

// Union declares an accessor that, on every call, re-evaluates the named
// source accessors on the current instance and wraps their results in a
// fresh UnionView. Sources may themselves be union accessors; the result is
// equivalent to the flattened union over all leaf sources, independent of
// declaration order of the names.
//
// All source names must already be registered; unknown names return
// ConfigError at declaration time, never at first use.
func (h *Hub[T]) Union(name string, sources ...string) error {
	if len(sources) == 0 {
		return NewConfigError(name, "union needs at least one source accessor")
	}
	fns := make([]Accessor[T], len(sources))
	for i, src := range sources {
		fn, ok := h.accessors[src]
		if !ok {
			return NewConfigError(name, "union source %q is not a registered accessor", src)
		}
		fns[i] = fn
	}
	return h.Register(name, func() Collection[T] {
		evaluated := make([]Collection[T], len(fns))
		for i, fn := range fns {
			evaluated[i] = fn()
		}
		return Union(evaluated...)
	})
}

// Get evaluates the named accessor and returns its collection. Unknown names
// return ConfigError.
func (h *Hub[T]) Get(name string) (Collection[T], error) {
	fn, ok := h.accessors[name]
	if !ok {
		return nil, NewConfigError(name, "no such accessor")
	}
	return fn(), nil
}

// Has reports whether an accessor is registered under the given name.
func (h *Hub[T]) Has(name string) bool {
	_, ok := h.accessors[name]
	return ok
}

// Names returns the registered accessor names in sorted order.
func (h *Hub[T]) Names() []string {
	names := make([]string, 0, len(h.accessors))
	for name := range h.accessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
