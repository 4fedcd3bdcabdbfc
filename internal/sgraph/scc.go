package sgraph

// tarjan computes the strongly connected components of the directed
// graph described by adj (adj[u] lists every v such that u depends on
// v's current-sample output), grounded on the textbook algorithm the way
// the teacher hand-rolls small closed-form graph passes rather than
// pulling in a general graph library (see DESIGN.md). Components are
// returned in reverse topological order: if component A depends on
// component B, B appears before A.
func tarjan(n int, adj [][]NodeId) [][]NodeId {
	index := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	for i := range index {
		index[i] = -1
	}
	var stack []NodeId
	var comps [][]NodeId
	next := 0

	var strongconnect func(v NodeId)
	strongconnect = func(v NodeId) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range adj[v] {
			if index[w] == -1 {
				strongconnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] {
				if index[w] < low[v] {
					low[v] = index[w]
				}
			}
		}

		if low[v] == index[v] {
			var comp []NodeId
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			comps = append(comps, comp)
		}
	}

	for v := 0; v < n; v++ {
		if index[v] == -1 {
			strongconnect(NodeId(v))
		}
	}
	return comps
}
