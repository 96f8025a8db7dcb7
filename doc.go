// Package nestedset maintains a tree inside one relational table using the
// nested set model: every row carries a (left, right) interval, a node's
// interval strictly contains the intervals of all of its descendants, and a
// sentinel root encloses everything. Subtree and ancestor reads become
// single range queries, paid for by bulk interval shifts on every mutation.
//
// The package is built on GORM. A [Tree] binds one table's column mapping
// and rewrites the intervals when rows are created, reparented or deleted;
// the host model stays an ordinary GORM model.
//
// # The Stored Shape
//
// One designated row, the root, anchors the interval space. An empty tree
// holds only the root at (1, 2). Every other row keeps its parent's primary
// key in parent_id and sits strictly inside the parent's interval. New
// nodes are appended as their parent's last child; deleting a node promotes
// its children to the deleted node's parent.
//
// # Wiring Through Lifecycle Hooks
//
// Embed [Model] (or implement [Node]) and call the tree from the host
// model's GORM hooks:
//
//	type Category struct {
//	    nestedset.Model
//	    Name string
//	}
//
//	func (c *Category) BeforeCreate(tx *gorm.DB) error { return catTree.OnCreating(tx, c) }
//	func (c *Category) BeforeUpdate(tx *gorm.DB) error { return catTree.OnUpdating(tx, c) }
//	func (c *Category) AfterDelete(tx *gorm.DB) error  { return catTree.OnDeleted(tx, c) }
//
// Plain GORM calls then keep the intervals consistent: Create allocates the
// new node's slot, Save with a changed ParentID relocates the whole
// subtree, Delete closes the gap. Reparented nodes must be persisted with
// Save so the hook sees the full row.
//
// # Hook-Free Use
//
// The [Tree.Create], [Tree.Move] and [Tree.Delete] convenience methods run
// the same renumbering inside their own transaction, for hosts that keep
// their models hook-free. Seeding the root bypasses the tree entirely:
//
//	db.Session(&gorm.Session{SkipHooks: true}).
//	    FirstOrCreate(&root, Category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}})
//
// # Reading
//
// Reads are GORM scopes combinable with the host's own conditions, plus
// [BuildTree] to assemble flat rows into a nested structure:
//
//	var rows []*Category
//	db.Scopes(catTree.SubtreeOf(&cat), catTree.Ordered()).Find(&rows)
//	tree, err := nestedset.BuildTree(rows)
//
// # Consistency
//
// Mutations run in a transaction and lock the rows they read. Concurrent
// inserts under one parent serialize on that parent's row lock; any other
// mix of concurrent structural writes must be serialized by the caller,
// because the bulk shifts assume the interval space does not change under
// them. Plain reads need no coordination.
//
// # Errors
//
//   - [ErrParentNotFound] - referenced parent row does not exist
//   - [ErrNodeNotFound] - mutation target has no persisted row
//   - [ErrRootImmutable] - attempt to move or delete the sentinel root
//   - [ErrMoveIntoSubtree] - destination parent lies inside the moving subtree
//   - [ErrCyclicParent] - BuildTree input rows form a parent cycle
package nestedset
