package nestedset

// Interval is one node's (left, right) pair. A node's interval strictly
// contains the intervals of all of its descendants; width is always odd
// because every node contributes one left/right slot pair.
type Interval struct {
	Left  int64
	Right int64
}

// Width returns the number of slots the interval spans, including its own
// two bounds. A leaf has width 2.
func (iv Interval) Width() int64 {
	return iv.Right - iv.Left + 1
}

// Contains reports whether other lies strictly inside iv, i.e. whether the
// node owning iv is an ancestor of the node owning other.
func (iv Interval) Contains(other Interval) bool {
	return iv.Left < other.Left && other.Right < iv.Right
}

// Bound identifies which interval column a Shift updates.
type Bound int

const (
	LeftBound Bound = iota
	RightBound
)

// Shift is one range-predicate bulk update: every row whose Bound column is
// greater than Pivot (or equal, when OrEqual is set) has Delta added to that
// column. Shifts within a plan must be applied in slice order; later
// predicates assume earlier shifts took effect.
type Shift struct {
	Bound   Bound
	Pivot   int64
	Delta   int64
	OrEqual bool
}

// leafWidth is the interval width of a node without descendants.
const leafWidth = 2

// InsertPlan makes room for a node appended as its parent's last child.
type InsertPlan struct {
	// Node is the interval the new node will occupy.
	Node Interval

	// Shifts open the slot: rights first, then lefts, in two disjoint
	// passes. A row whose right moves but whose left is not past the
	// insertion point may still be an ancestor of the new node and must
	// keep its left.
	Shifts [2]Shift
}

// PlanInsert computes the insertion of a subtree of the given width at the
// right edge of a parent whose current right bound is parentRight. New leaf
// nodes have width 2.
func PlanInsert(parentRight, width int64) InsertPlan {
	return InsertPlan{
		Node: Interval{Left: parentRight, Right: parentRight + width - 1},
		Shifts: [2]Shift{
			{Bound: RightBound, Pivot: parentRight, Delta: width, OrEqual: true},
			{Bound: LeftBound, Pivot: parentRight, Delta: width},
		},
	}
}

// DeletePlan removes one node, promoting its children one level up.
type DeletePlan struct {
	// Subtree is the deleted node's interval; rows strictly inside it
	// collapse inward by SubtreeDelta on both bounds, filling the slot
	// pair the deleted node vacates.
	Subtree      Interval
	SubtreeDelta int64

	// Shifts close the remaining two-slot gap for everything to the right.
	Shifts [2]Shift
}

// PlanDelete computes the removal of the node occupying iv.
func PlanDelete(iv Interval) DeletePlan {
	return DeletePlan{
		Subtree:      iv,
		SubtreeDelta: -1,
		Shifts: [2]Shift{
			{Bound: RightBound, Pivot: iv.Right, Delta: -leafWidth},
			{Bound: LeftBound, Pivot: iv.Right, Delta: -leafWidth},
		},
	}
}

// DetachPlan is the first half of a move: it closes the gap the moving
// subtree leaves behind. Rows strictly inside Subtree must be quarantined
// before the shifts run, and restored after the matching AttachPlan using
// its Distance.
type DetachPlan struct {
	// Subtree is the moving node's interval before the move.
	Subtree Interval

	Shifts [2]Shift
}

// PlanDetach computes the gap-close for moving the node that occupies iv.
// The moving node itself must be excluded from the shifts; its bounds are
// rewritten by the attach step.
func PlanDetach(iv Interval) DetachPlan {
	width := iv.Width()
	return DetachPlan{
		Subtree: iv,
		Shifts: [2]Shift{
			{Bound: RightBound, Pivot: iv.Right, Delta: -width},
			{Bound: LeftBound, Pivot: iv.Right, Delta: -width},
		},
	}
}

// AttachPlan is the second half of a move: it opens a slot under the
// destination parent and re-places the subtree root there.
type AttachPlan struct {
	// Node is the moving node's re-placed interval.
	Node Interval

	Shifts [2]Shift

	// Distance is the displacement of the whole subtree: old coordinates
	// plus Distance yield new coordinates for every quarantined row.
	Distance int64
}

// PlanAttach computes the re-placement of a detached subtree. iv is the
// subtree root's interval before the move; newParentRight is the destination
// parent's right bound observed after the DetachPlan shifts have run, not
// before. The moving node is again excluded from the shifts.
func PlanAttach(iv Interval, newParentRight int64) AttachPlan {
	width := iv.Width()
	placed := Interval{Left: newParentRight, Right: newParentRight + width - 1}
	return AttachPlan{
		Node: placed,
		Shifts: [2]Shift{
			{Bound: RightBound, Pivot: newParentRight, Delta: width, OrEqual: true},
			{Bound: LeftBound, Pivot: newParentRight, Delta: width},
		},
		Distance: placed.Right - iv.Right,
	}
}
