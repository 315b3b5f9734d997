package cpa

// ConstraintSet is an append-only ordered collection of constraints. Order is
// irrelevant to the solver but kept deterministic for reproducible dumps.
type ConstraintSet struct {
	items []*Constraint
}

// Add appends a constraint.
func (s *ConstraintSet) Add(c *Constraint) {
	s.items = append(s.items, c)
}

// Items returns a read-only view of the constraints in emission order.
func (s *ConstraintSet) Items() []*Constraint {
	return s.items
}

func (s *ConstraintSet) Len() int {
	return len(s.items)
}

// TypeVarSet is an append-only ordered collection of type-variable terms.
type TypeVarSet struct {
	vars []*Term
}

// Add appends a variable term.
func (s *TypeVarSet) Add(t *Term) {
	s.vars = append(s.vars, t)
}

// Items returns a read-only view of the variables in allocation order.
func (s *TypeVarSet) Items() []*Term {
	return s.vars
}

func (s *TypeVarSet) Len() int {
	return len(s.vars)
}
