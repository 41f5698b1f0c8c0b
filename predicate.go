package network

// Op is a comparison operator for a Cond.
type Op int

// Comparison operators.
const (
	OpEQ  Op = iota // equals
	OpNEQ           // not equals
	OpIn            // contained in a value list
)

// String returns the operator name.
func (o Op) String() string {
	switch o {
	case OpEQ:
		return "="
	case OpNEQ:
		return "<>"
	case OpIn:
		return "IN"
	}
	return "?"
}

// Cond is a single field condition applied to join or edge rows at query
// time. Conditions are plain values rather than closures so that every store
// implementation can interpret them against its own query representation.
type Cond struct {
	Field  string
	Op     Op
	Value  any   // comparison operand for OpEQ/OpNEQ
	Values []any // operand list for OpIn
}

// Predicate is a conjunction of conditions. A nil or empty predicate matches
// every row.
type Predicate []Cond

// EQ returns a condition matching rows whose field equals v.
func EQ(field string, v any) Cond {
	return Cond{Field: field, Op: OpEQ, Value: v}
}

// NEQ returns a condition matching rows whose field does not equal v.
func NEQ(field string, v any) Cond {
	return Cond{Field: field, Op: OpNEQ, Value: v}
}

// In returns a condition matching rows whose field equals one of vs.
func In(field string, vs ...any) Cond {
	return Cond{Field: field, Op: OpIn, Values: vs}
}

// Where combines conditions into a predicate.
func Where(conds ...Cond) Predicate {
	return Predicate(conds)
}

// Match evaluates the predicate against a column view of a row. It is the
// reference semantics for in-memory stores; SQL stores compile the same
// conditions into WHERE clauses instead.
func (p Predicate) Match(row map[string]any) bool {
	for _, c := range p {
		v, ok := row[c.Field]
		switch c.Op {
		case OpEQ:
			if !ok || v != c.Value {
				return false
			}
		case OpNEQ:
			if ok && v == c.Value {
				return false
			}
		case OpIn:
			if !ok {
				return false
			}
			found := false
			for _, want := range c.Values {
				if v == want {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
	}
	return true
}
