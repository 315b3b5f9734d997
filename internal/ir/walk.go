package ir

// Walk visits every operation of the function in program order: pre-order
// over nested regions, an op before the ops it contains. The visitor returns
// false to interrupt the walk; Walk then returns false immediately.
func (f *Func) Walk(visit func(id OpID, op *Op) bool) bool {
	return f.walkList(f.Body, visit)
}

func (f *Func) walkList(list []OpID, visit func(id OpID, op *Op) bool) bool {
	for _, id := range list {
		op := &f.Ops[id]
		if !visit(id, op) {
			return false
		}
		for _, region := range op.Regions {
			if !f.walkList(region, visit) {
				return false
			}
		}
	}
	return true
}
