package nestedset

import "errors"

var (
	// ErrMissingTable is returned by New when the config names no table.
	ErrMissingTable = errors.New("nestedset: config has no table name")

	// ErrMissingDB is returned by New when no database handle is given.
	ErrMissingDB = errors.New("nestedset: nil *gorm.DB")

	// ErrParentNotFound is returned when a node references a parent that
	// does not exist in the table.
	ErrParentNotFound = errors.New("nestedset: parent node not found")

	// ErrNodeNotFound is returned when the node a mutation operates on has
	// no persisted row.
	ErrNodeNotFound = errors.New("nestedset: node not found")

	// ErrRootImmutable is returned when a mutation targets the sentinel
	// root node. The root anchors the interval space and is never moved
	// or deleted.
	ErrRootImmutable = errors.New("nestedset: the root node cannot be moved or deleted")

	// ErrMoveIntoSubtree is returned when the destination parent of a move
	// lies inside the moving node's own subtree (or is the node itself).
	ErrMoveIntoSubtree = errors.New("nestedset: cannot move a node into its own subtree")

	// ErrCyclicParent is returned by BuildTree when some input rows form a
	// parent cycle and can therefore not be placed in any tree.
	ErrCyclicParent = errors.New("nestedset: cyclic parent chain in input")
)
