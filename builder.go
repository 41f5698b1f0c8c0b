package network

import (
	"regexp"

	"github.com/go-openapi/inflect"
)

// validNameRe validates table and column names used in relation wiring.
var validNameRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config declares how a named network is backed. Zero-value fields are
// derived from Table during Build:
//
//   - ForeignKey defaults to the singularized table name plus "_id"
//     ("people" -> "person_id").
//   - AssociationForeignKey defaults to ForeignKey plus "_target".
//   - JoinTable defaults to the self-referential "<table>_<table>" and is
//     only meaningful without a through entity.
//   - Through names the edge-entity relation ("invites") and switches the
//     network to through mode; EdgeTable defaults to its underscored form.
//
// Filter, when set, restricts which join or edge rows count toward the
// relation. It applies to the rows of the join or edge table, never to the
// node rows.
type Config struct {
	Table                 string
	ForeignKey            string
	AssociationForeignKey string
	JoinTable             string
	Through               string
	EdgeTable             string
	Filter                Predicate
}

// normalize derives the defaulted key and table names and validates them.
// All failures surface here, at declaration time, as ConfigError.
func (c Config) normalize(name string, through bool) (Config, error) {
	if name == "" {
		return c, NewConfigError(name, "relationship name must not be empty")
	}
	if c.Table == "" {
		return c, NewConfigError(name, "node table is required")
	}
	if c.ForeignKey == "" {
		c.ForeignKey = inflect.Singularize(c.Table) + "_id"
	}
	if c.AssociationForeignKey == "" {
		c.AssociationForeignKey = c.ForeignKey + "_target"
	}
	switch {
	case through:
		if c.Through == "" {
			return c, NewConfigError(name, "through-entity relation name is required")
		}
		if c.JoinTable != "" {
			return c, NewConfigError(name, "join table cannot be combined with a through entity")
		}
		if c.EdgeTable == "" {
			c.EdgeTable = inflect.Underscore(c.Through)
		}
	default:
		if c.Through != "" || c.EdgeTable != "" {
			return c, NewConfigError(name, "through entity requires BuildThrough")
		}
		if c.JoinTable == "" {
			c.JoinTable = c.Table + "_" + c.Table
		}
	}
	for _, ident := range []string{c.Table, c.ForeignKey, c.AssociationForeignKey, c.JoinTable, c.Through, c.EdgeTable} {
		if ident == "" {
			continue
		}
		if !validNameRe.MatchString(ident) {
			return c, NewConfigError(name, "invalid identifier %q", ident)
		}
	}
	return c, nil
}

// Network is the set of relation accessors built for one direct,
// join-table-backed network. It is immutable after Build and holds no
// per-instance state; accessors take the node id (or, through Bind, read it
// from the owning record at call time).
type Network[N Record] struct {
	name      string
	joinTable string
	localKey  string
	remoteKey string
	filter    Predicate
	nodes     Store[N]
}

// Build constructs the accessors for a direct join-table network. It
// normalizes cfg as documented on Config and fails with ConfigError on an
// invalid declaration; a relation that fails to build registers nothing.
func Build[N Record](name string, cfg Config, nodes Store[N]) (*Network[N], error) {
	if nodes == nil {
		return nil, NewConfigError(name, "node store is required")
	}
	cfg, err := cfg.normalize(name, false)
	if err != nil {
		return nil, err
	}
	return &Network[N]{
		name:      name,
		joinTable: cfg.JoinTable,
		localKey:  cfg.ForeignKey,
		remoteKey: cfg.AssociationForeignKey,
		filter:    cfg.Filter,
		nodes:     nodes,
	}, nil
}

// Name returns the relationship name.
func (n *Network[N]) Name() string { return n.name }

// Out returns the outbound collection for the node with the given id: nodes
// referenced by join rows whose local foreign key equals id.
func (n *Network[N]) Out(id any) Collection[N] {
	return n.nodes.ManyToMany(n.joinTable, n.localKey, n.remoteKey, id, n.filter)
}

// In returns the inbound collection for the node with the given id, with the
// foreign-key roles of Out swapped.
func (n *Network[N]) In(id any) Collection[N] {
	return n.nodes.ManyToMany(n.joinTable, n.remoteKey, n.localKey, id, n.filter)
}

// Union returns a fresh bidirectional view over Out and In for the given id.
func (n *Network[N]) Union(id any) *UnionView[N] {
	return Union(n.Out(id), n.In(id))
}

// Bind registers the accessors "<name>_out" and "<name>_in" on the hub and
// declares "<name>" as their union. The accessors read owner.RecordID() on
// every call, so they follow the owner's live state.
func (n *Network[N]) Bind(h *Hub[N], owner N) error {
	if err := h.Register(n.name+"_out", func() Collection[N] { return n.Out(owner.RecordID()) }); err != nil {
		return err
	}
	if err := h.Register(n.name+"_in", func() Collection[N] { return n.In(owner.RecordID()) }); err != nil {
		return err
	}
	return h.Union(n.name, n.name+"_out", n.name+"_in")
}

// ThroughNetwork is the accessor set for a network mediated by an
// independent edge entity. The node-side accessors traverse the edge table
// like a join table, with the configured filter applied to the edge rows;
// the edge-side accessors expose the raw edges themselves.
type ThroughNetwork[N, E Record] struct {
	Network[N]
	through string
	edges   Store[E]
}

// BuildThrough constructs the accessors for a through-entity network.
// cfg.Through is required and names the edge relation ("invites"); the edge
// store backs the raw-edge accessors. Like Build, every configuration
// failure surfaces here as ConfigError.
func BuildThrough[N, E Record](name string, cfg Config, nodes Store[N], edges Store[E]) (*ThroughNetwork[N, E], error) {
	if nodes == nil {
		return nil, NewConfigError(name, "node store is required")
	}
	if edges == nil {
		return nil, NewConfigError(name, "edge store is required")
	}
	cfg, err := cfg.normalize(name, true)
	if err != nil {
		return nil, err
	}
	return &ThroughNetwork[N, E]{
		Network: Network[N]{
			name:      name,
			joinTable: cfg.EdgeTable,
			localKey:  cfg.ForeignKey,
			remoteKey: cfg.AssociationForeignKey,
			filter:    cfg.Filter,
			nodes:     nodes,
		},
		through: cfg.Through,
		edges:   edges,
	}, nil
}

// Through returns the edge relation name.
func (n *ThroughNetwork[N, E]) Through() string { return n.through }

// EdgesOut returns the edge records originating from the node with the given
// id.
func (n *ThroughNetwork[N, E]) EdgesOut(id any) Collection[E] {
	return n.edges.OneToMany(n.localKey, id, n.filter)
}

// EdgesIn returns the edge records targeting the node with the given id.
func (n *ThroughNetwork[N, E]) EdgesIn(id any) Collection[E] {
	return n.edges.OneToMany(n.remoteKey, id, n.filter)
}

// EdgeUnion returns a fresh view over the raw edges in both directions.
func (n *ThroughNetwork[N, E]) EdgeUnion(id any) *UnionView[E] {
	return Union(n.EdgesOut(id), n.EdgesIn(id))
}

// Bind registers the node accessors "<name>_out", "<name>_in" and union
// "<name>" on nodes, and the edge accessors "<through>_out", "<through>_in"
// and union "<through>" on edges.
func (n *ThroughNetwork[N, E]) Bind(nodes *Hub[N], edges *Hub[E], owner N) error {
	if err := n.Network.Bind(nodes, owner); err != nil {
		return err
	}
	if err := edges.Register(n.through+"_out", func() Collection[E] { return n.EdgesOut(owner.RecordID()) }); err != nil {
		return err
	}
	if err := edges.Register(n.through+"_in", func() Collection[E] { return n.EdgesIn(owner.RecordID()) }); err != nil {
		return err
	}
	return edges.Union(n.through, n.through+"_out", n.through+"_in")
}
