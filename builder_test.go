package network_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	network "github.com/ExamTime/acts-as-network"
	"github.com/ExamTime/acts-as-network/memstore"
)

// person is a node in the test networks.
type person struct {
	ID       int64
	Name     string
	Networks network.Hub[*person]
	Invites  network.Hub[*invite]
}

func (p *person) RecordID() any { return p.ID }

// invite is an edge entity carrying its own attributes.
type invite struct {
	ID             int64
	PersonID       int64
	PersonIDTarget int64
	Accepted       bool
}

func (i *invite) RecordID() any { return i.ID }

// social is a populated in-memory world for relation tests.
type social struct {
	store   *memstore.Store
	people  *memstore.Table[*person]
	invites *memstore.Table[*invite]
}

func newSocial(t *testing.T) *social {
	t.Helper()
	store := memstore.New()
	people := memstore.NewTable(store, "people", func(p *person) map[string]any {
		return map[string]any{"id": p.ID, "name": p.Name}
	})
	invites := memstore.NewTable(store, "invites", func(i *invite) map[string]any {
		return map[string]any{
			"id":               i.ID,
			"person_id":        i.PersonID,
			"person_id_target": i.PersonIDTarget,
			"accepted":         i.Accepted,
		}
	})
	return &social{store: store, people: people, invites: invites}
}

func (s *social) addPerson(id int64, name string) *person {
	p := &person{ID: id, Name: name}
	s.people.Add(p)
	return p
}

// befriend appends a directed join row from -> to.
func (s *social) befriend(from, to *person) {
	s.store.JoinTable("people_people").Add(map[string]any{
		"person_id":        from.ID,
		"person_id_target": to.ID,
	})
}

func buildFriends(t *testing.T, s *social) *network.Network[*person] {
	t.Helper()
	friends, err := network.Build[*person]("friends", network.Config{Table: "people"}, s.people)
	require.NoError(t, err)
	return friends
}

func buildColleagues(t *testing.T, s *social) *network.ThroughNetwork[*person, *invite] {
	t.Helper()
	colleagues, err := network.BuildThrough[*person, *invite]("colleagues", network.Config{
		Table:   "people",
		Through: "invites",
		Filter:  network.Where(network.EQ("accepted", true)),
	}, s.people, s.invites)
	require.NoError(t, err)
	return colleagues
}

func TestBuildConfigErrors(t *testing.T) {
	t.Parallel()
	s := newSocial(t)

	tests := []struct {
		name  string
		build func() error
	}{
		{
			name: "empty relationship name",
			build: func() error {
				_, err := network.Build[*person]("", network.Config{Table: "people"}, s.people)
				return err
			},
		},
		{
			name: "missing node table",
			build: func() error {
				_, err := network.Build[*person]("friends", network.Config{}, s.people)
				return err
			},
		},
		{
			name: "nil node store",
			build: func() error {
				_, err := network.Build[*person]("friends", network.Config{Table: "people"}, nil)
				return err
			},
		},
		{
			name: "through entity on direct build",
			build: func() error {
				_, err := network.Build[*person]("friends", network.Config{Table: "people", Through: "invites"}, s.people)
				return err
			},
		},
		{
			name: "invalid join table identifier",
			build: func() error {
				_, err := network.Build[*person]("friends", network.Config{Table: "people", JoinTable: "people; drop"}, s.people)
				return err
			},
		},
		{
			name: "missing through name",
			build: func() error {
				_, err := network.BuildThrough[*person, *invite]("colleagues", network.Config{Table: "people"}, s.people, s.invites)
				return err
			},
		},
		{
			name: "join table combined with through entity",
			build: func() error {
				_, err := network.BuildThrough[*person, *invite]("colleagues", network.Config{
					Table: "people", Through: "invites", JoinTable: "people_people",
				}, s.people, s.invites)
				return err
			},
		},
		{
			name: "nil edge store",
			build: func() error {
				_, err := network.BuildThrough[*person, *invite]("colleagues", network.Config{
					Table: "people", Through: "invites",
				}, s.people, nil)
				return err
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build()
			require.Error(t, err)
			assert.True(t, network.IsConfig(err), "want ConfigError, got %v", err)
		})
	}
}

func TestDirectNetwork(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	b := s.addPerson(2, "bob")
	c := s.addPerson(3, "cam")
	friends := buildFriends(t, s)
	assert.Equal(t, "friends", friends.Name())

	// A gains B as an inbound friend: the join row points from B to A.
	s.befriend(b, a)
	s.befriend(c, a)

	ok, err := friends.Union(a.ID).Contains(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok, "a.friends should include b")

	ok, err = network.Union(friends.Out(b.ID)).Contains(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok, "b.friends_out should include a")

	out, err := friends.Out(a.ID).Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, out)

	in, err := friends.In(a.ID).Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, in)

	// Reciprocal rows dedupe in the bidirectional view.
	s.befriend(a, b)
	n, err := friends.Union(a.ID).Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDirectNetworkCustomKeys(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	b := s.addPerson(2, "bob")

	contacts, err := network.Build[*person]("contacts", network.Config{
		Table:                 "people",
		JoinTable:             "contact_links",
		ForeignKey:            "owner_id",
		AssociationForeignKey: "contact_id",
	}, s.people)
	require.NoError(t, err)

	s.store.JoinTable("contact_links").Add(map[string]any{
		"owner_id":   a.ID,
		"contact_id": b.ID,
	})

	records, err := contacts.Out(a.ID).All(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Same(t, b, records[0])
}

func TestThroughNetwork(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	b := s.addPerson(2, "bob")
	colleagues := buildColleagues(t, s)
	assert.Equal(t, "invites", colleagues.Through())

	inv := &invite{ID: 10, PersonID: a.ID, PersonIDTarget: b.ID, Accepted: false}
	s.invites.Add(inv)

	// The unaccepted invite must not count toward the relation.
	ok, err := colleagues.Union(a.ID).Contains(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := colleagues.EdgeUnion(a.ID).Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "the edge filter applies to the raw invites too")

	// Accepting flips membership in both directions on the next access.
	inv.Accepted = true

	ok, err = colleagues.Union(a.ID).Contains(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = colleagues.Union(b.ID).Contains(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	edgesOut, err := colleagues.EdgesOut(a.ID).All(ctx)
	require.NoError(t, err)
	require.Len(t, edgesOut, 1)
	assert.Same(t, inv, edgesOut[0])

	edgesIn, err := colleagues.EdgesIn(b.ID).All(ctx)
	require.NoError(t, err)
	require.Len(t, edgesIn, 1)

	n, err = colleagues.EdgeUnion(a.ID).Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestThroughNetworkUnfiltered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	b := s.addPerson(2, "bob")

	invitations, err := network.BuildThrough[*person, *invite]("invitations", network.Config{
		Table:   "people",
		Through: "invites",
	}, s.people, s.invites)
	require.NoError(t, err)

	s.invites.Add(&invite{ID: 10, PersonID: a.ID, PersonIDTarget: b.ID})

	ok, err := invitations.Union(a.ID).Contains(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, ok, "without a filter every edge row counts")
}

func TestBind(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	b := s.addPerson(2, "bob")
	friends := buildFriends(t, s)
	colleagues := buildColleagues(t, s)

	require.NoError(t, friends.Bind(&a.Networks, a))
	require.NoError(t, colleagues.Bind(&a.Networks, &a.Invites, a))

	assert.Equal(t, []string{
		"colleagues", "colleagues_in", "colleagues_out",
		"friends", "friends_in", "friends_out",
	}, a.Networks.Names())
	assert.Equal(t, []string{"invites", "invites_in", "invites_out"}, a.Invites.Names())

	s.befriend(b, a)
	s.invites.Add(&invite{ID: 10, PersonID: b.ID, PersonIDTarget: a.ID, Accepted: true})

	for name, want := range map[string]int{
		"friends":        1,
		"friends_in":     1,
		"friends_out":    0,
		"colleagues":     1,
		"colleagues_in":  1,
		"colleagues_out": 0,
	} {
		c, err := a.Networks.Get(name)
		require.NoError(t, err)
		n, err := c.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, n, name)
	}

	edges, err := a.Invites.Get("invites")
	require.NoError(t, err)
	n, err := edges.Size(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	t.Run("RebindFails", func(t *testing.T) {
		err := friends.Bind(&a.Networks, a)
		assert.True(t, network.IsConfig(err))
	})
}

func TestDeclaredUnionAcrossNetworks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	b := s.addPerson(2, "bob")
	c := s.addPerson(3, "cam")
	friends := buildFriends(t, s)
	colleagues := buildColleagues(t, s)

	require.NoError(t, friends.Bind(&a.Networks, a))
	require.NoError(t, colleagues.Bind(&a.Networks, &a.Invites, a))
	require.NoError(t, a.Networks.Union("associates", "friends", "colleagues"))
	require.NoError(t, a.Networks.Union("setaicossa", "colleagues", "friends"))

	// b is a friend and a colleague, c only a colleague.
	s.befriend(b, a)
	s.invites.Add(&invite{ID: 10, PersonID: a.ID, PersonIDTarget: b.ID, Accepted: true})
	s.invites.Add(&invite{ID: 11, PersonID: c.ID, PersonIDTarget: a.ID, Accepted: true})

	for _, name := range []string{"associates", "setaicossa"} {
		col, err := a.Networks.Get(name)
		require.NoError(t, err)
		n, err := col.Size(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, n, name)
	}
}

func TestNetworkStoreErrorPropagation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	s := newSocial(t)
	a := s.addPerson(1, "ann")
	friends := buildFriends(t, s)

	storeErr := errors.New("disk on fire")
	s.people.Fail(storeErr)

	_, err := friends.Union(a.ID).Size(ctx)
	require.ErrorIs(t, err, storeErr)
	assert.False(t, network.IsNotFound(err))
}
