package nestedset

import "encoding/json"

// TreeNode is one assembled node of an in-memory tree.
type TreeNode[T Node] struct {
	Node     T
	Children []*TreeNode[T]
}

// MarshalJSON renders the node's own JSON object with a "children" array
// spliced in, so an assembled tree serializes the way flat rows do.
func (n *TreeNode[T]) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(n.Node)
	if err != nil {
		return nil, err
	}
	children := []byte("[]")
	if len(n.Children) > 0 {
		children, err = json.Marshal(n.Children)
		if err != nil {
			return nil, err
		}
	}
	if len(base) < 2 || base[0] != '{' || base[len(base)-1] != '}' {
		return base, nil
	}
	out := make([]byte, 0, len(base)+len(children)+12)
	out = append(out, base[:len(base)-1]...)
	if len(base) > 2 {
		out = append(out, ',')
	}
	out = append(out, `"children":`...)
	out = append(out, children...)
	out = append(out, '}')
	return out, nil
}

// BuildTree assembles the parent/child structure from a flat slice of rows,
// typically loaded with the Ordered scope. It is purely in-memory and runs
// no queries.
//
// A node whose parent id is absent from the slice becomes a top-level
// entry: a full-table load yields the root alone at the top, a subtree load
// yields that subtree's head, and a load with ExcludeRoot yields the root's
// children. Input order is preserved among siblings.
func BuildTree[T Node](nodes []T) ([]*TreeNode[T], error) {
	wrapped := make([]*TreeNode[T], len(nodes))
	index := make(map[int64]*TreeNode[T], len(nodes))
	for i, n := range nodes {
		wrapped[i] = &TreeNode[T]{Node: n}
		index[n.GetID()] = wrapped[i]
	}

	var roots []*TreeNode[T]
	for i, n := range nodes {
		parent, ok := index[n.GetParentID()]
		if !ok || n.GetParentID() == n.GetID() {
			roots = append(roots, wrapped[i])
			continue
		}
		parent.Children = append(parent.Children, wrapped[i])
	}

	// Every node attaches to at most one parent, so whatever the roots
	// reach is a forest; a cyclic parent chain is unreachable and would
	// otherwise vanish from the result without a trace.
	seen := 0
	stack := make([]*TreeNode[T], len(roots))
	copy(stack, roots)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		seen++
		stack = append(stack, n.Children...)
	}
	if seen != len(nodes) {
		return nil, ErrCyclicParent
	}
	return roots, nil
}
