package cpa

import (
	"tyco/internal/ir"
	"tyco/internal/types"
)

// Context owns the terms of one analysis scope. Concrete IR-type terms are
// interned so repeated resolution of the same type shares one instance; type
// variables are always fresh. A Context must not be shared across
// concurrently analyzed functions.
type Context struct {
	irTerms map[types.TypeID]*Term
	nextVar VarID
}

// NewContext creates an empty analysis context.
func NewContext() *Context {
	return &Context{
		irTerms: make(map[types.TypeID]*Term, 16),
	}
}

// NewTypeVar allocates a fresh type variable spawned by the given value.
func (c *Context) NewTypeVar(value ir.ValueID) *Term {
	t := &Term{
		Kind:  TermTypeVar,
		Var:   c.nextVar,
		Value: value,
	}
	c.nextVar++
	return t
}

// IRValueType returns the interned concrete term for an IR type.
func (c *Context) IRValueType(id types.TypeID) *Term {
	if t, ok := c.irTerms[id]; ok {
		return t
	}
	t := &Term{Kind: TermIRType, Type: id}
	c.irTerms[id] = t
	return t
}

// NewConstraint allocates a directed subtype constraint.
func (c *Context) NewConstraint(super, sub *Term, origin ir.OpID) *Constraint {
	return &Constraint{Super: super, Sub: sub, Origin: origin}
}

// NumVars returns how many type variables were allocated so far.
func (c *Context) NumVars() int {
	return int(c.nextVar)
}
