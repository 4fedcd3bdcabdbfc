package sgraph

import "fmt"

// CycleError reports a zero-delay cycle detected during Build: every
// cycle through the graph must pass through at least one node carrying a
// sample of delay state, the compile-time check behind §7's CycleError.
type CycleError struct {
	Members []NodeId
	Kinds   []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("sgraph: zero-delay cycle through nodes %v (kinds %v) — every feedback loop needs a delay, filter, or envelope node", e.Members, e.Kinds)
}

// DanglingRefError reports an Input.Ref pointing outside the arena,
// grounded on the teacher's validateGraph discipline of checking
// references before anything touches live state.
type DanglingRefError struct {
	From, To NodeId
}

func (e *DanglingRefError) Error() string {
	return fmt.Sprintf("sgraph: node %d references unknown node %d", e.From, e.To)
}
