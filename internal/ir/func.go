package ir

import (
	"tyco/internal/source"
	"tyco/internal/types"
)

// Value is a typed SSA-like value. Values are opaque handles from the
// analyses' perspective; the declared type may be the unknown marker.
type Value struct {
	Name string
	Type types.TypeID
	Def  OpID // defining op, NoOpID for function parameters
}

// Func is one function body: a value arena, an op arena and the top-level
// op list in program order.
type Func struct {
	Name   string
	Span   source.Span
	Params []ValueID
	Values []Value
	Ops    []Op
	Body   []OpID
}

// Value returns the value with the given ID.
func (f *Func) Value(id ValueID) *Value {
	return &f.Values[id]
}

// Op returns the operation with the given ID.
func (f *Func) Op(id OpID) *Op {
	return &f.Ops[id]
}

// NumValues returns the size of the value arena.
func (f *Func) NumValues() int {
	return len(f.Values)
}

// Empty reports whether the function has no body operations.
func (f *Func) Empty() bool {
	return len(f.Body) == 0
}

// Module is an ordered collection of functions.
type Module struct {
	Funcs []*Func
}

// FuncByName returns the first function with the given name, or nil.
func (m *Module) FuncByName(name string) *Func {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
