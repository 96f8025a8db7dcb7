package nestedset

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Tree maintains the interval encoding of one table. Every mutation runs
// inside a transaction: the convenience methods open one on the bound DB,
// and the On* hooks join the transaction GORM hands to the host model's
// callbacks. Inserts under one parent serialize on that parent's row lock;
// other concurrent structural writes must be serialized by the caller.
type Tree struct {
	db  *gorm.DB
	cfg Config
}

// New binds a Tree to db. cfg.Table is required, blank column names fall
// back to the DefaultConfig names.
func New(db *gorm.DB, cfg Config) (*Tree, error) {
	if db == nil {
		return nil, ErrMissingDB
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Tree{db: db, cfg: cfg}, nil
}

// Session returns a Tree bound to tx with the same configuration, for
// running reads or convenience mutators inside an open transaction.
func (t *Tree) Session(tx *gorm.DB) *Tree {
	return &Tree{db: tx, cfg: t.cfg}
}

// rowState is the tree's snapshot of one row.
type rowState struct {
	ParentID int64
	Lft      int64
	Rgt      int64
}

func (st rowState) interval() Interval {
	return Interval{Left: st.Lft, Right: st.Rgt}
}

// fetchRow reads one row's hierarchy columns, locking the row when
// forUpdate is set. The table is addressed directly, so soft-deleted rows
// are visible here.
func (t *Tree) fetchRow(tx *gorm.DB, id int64, forUpdate bool) (rowState, error) {
	var st rowState
	q := tx.Table(t.cfg.Table).
		Select("? AS parent_id, ? AS lft, ? AS rgt",
			clause.Column{Name: t.cfg.ParentIDColumn},
			clause.Column{Name: t.cfg.LeftColumn},
			clause.Column{Name: t.cfg.RightColumn}).
		Where("? = ?", clause.Column{Name: t.cfg.IDColumn}, id)
	if forUpdate {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Take(&st).Error
	return st, err
}

// applyShift runs one bulk boundary update. excludeID, when non-zero, pins
// that row so the statement cannot touch it.
func (t *Tree) applyShift(tx *gorm.DB, s Shift, excludeID int64) error {
	col := t.cfg.LeftColumn
	if s.Bound == RightBound {
		col = t.cfg.RightColumn
	}
	cond := "? > ?"
	if s.OrEqual {
		cond = "? >= ?"
	}
	q := tx.Table(t.cfg.Table).Where(cond, clause.Column{Name: col}, s.Pivot)
	if excludeID != 0 {
		q = q.Where("? <> ?", clause.Column{Name: t.cfg.IDColumn}, excludeID)
	}
	return q.UpdateColumn(col, gorm.Expr("? + ?", clause.Column{Name: col}, s.Delta)).Error
}

// OnCreating allocates the interval for a node about to be inserted as the
// last child of its parent, and stamps the bounds onto the node so the
// insert itself carries them. Wire it from the host model's BeforeCreate.
// A zero parent id places the node under the root.
func (t *Tree) OnCreating(tx *gorm.DB, node Node) error {
	pid := node.GetParentID()
	if pid == 0 {
		pid = t.cfg.RootID
	}
	parent, err := t.fetchRow(tx, pid, true)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrParentNotFound
		}
		return err
	}
	plan := PlanInsert(parent.Rgt, leafWidth)
	for _, s := range plan.Shifts {
		if err := t.applyShift(tx, s, 0); err != nil {
			return err
		}
	}
	node.SetParentID(pid)
	node.SetLeft(plan.Node.Left)
	node.SetRight(plan.Node.Right)
	return nil
}

// OnUpdating reparents a node whose parent id changed, renumbering the
// whole table accordingly, and stamps the new bounds onto the node. Wire it
// from the host model's BeforeUpdate and persist reparented nodes with Save
// so the hook sees the full row. Saves that keep the parent untouched are a
// no-op.
func (t *Tree) OnUpdating(tx *gorm.DB, node Node) error {
	return t.reparent(tx, node, node.GetParentID())
}

// OnDeleted repairs the tree after a node's row was removed: children are
// reattached to the removed node's parent, the former subtree collapses one
// slot inward on each side, and the remaining gap closes. Wire it from the
// host model's AfterDelete; a failure rolls back the surrounding
// transaction, delete included. Delete one freshly loaded node at a time.
func (t *Tree) OnDeleted(tx *gorm.DB, node Node) error {
	id := node.GetID()
	if id == 0 {
		return ErrNodeNotFound
	}
	if id == t.cfg.RootID {
		return ErrRootImmutable
	}

	// Soft-deleted rows are still stored and give authoritative bounds;
	// after a hard delete only the loaded struct knows them.
	st, err := t.fetchRow(tx, id, false)
	if err == gorm.ErrRecordNotFound {
		st = rowState{ParentID: node.GetParentID(), Lft: node.GetLeft(), Rgt: node.GetRight()}
	} else if err != nil {
		return err
	}
	plan := PlanDelete(st.interval())

	// Children step up one level; deeper descendants keep their parents.
	err = tx.Table(t.cfg.Table).
		Where("? = ?", clause.Column{Name: t.cfg.ParentIDColumn}, id).
		UpdateColumn(t.cfg.ParentIDColumn, st.ParentID).Error
	if err != nil {
		return err
	}

	left := clause.Column{Name: t.cfg.LeftColumn}
	right := clause.Column{Name: t.cfg.RightColumn}
	err = tx.Table(t.cfg.Table).
		Where("? > ? AND ? < ?", left, plan.Subtree.Left, right, plan.Subtree.Right).
		UpdateColumns(map[string]interface{}{
			t.cfg.LeftColumn:  gorm.Expr("? + ?", left, plan.SubtreeDelta),
			t.cfg.RightColumn: gorm.Expr("? + ?", right, plan.SubtreeDelta),
		}).Error
	if err != nil {
		return err
	}

	for _, s := range plan.Shifts {
		if err := t.applyShift(tx, s, 0); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts node as the last child of its parent inside one
// transaction, without requiring lifecycle hooks on the host model.
func (t *Tree) Create(node Node) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		if err := t.OnCreating(tx, node); err != nil {
			return err
		}
		return tx.Session(&gorm.Session{SkipHooks: true}).
			Table(t.cfg.Table).Create(node).Error
	})
}

// Move reparents node under newParentID, the hook-free counterpart of
// saving a node with a changed parent id. A zero newParentID moves the node
// under the root.
func (t *Tree) Move(node Node, newParentID int64) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		return t.reparent(tx, node, newParentID)
	})
}

// Delete removes node's row and repairs the surrounding intervals, without
// requiring lifecycle hooks on the host model.
func (t *Tree) Delete(node Node) error {
	return t.db.Transaction(func(tx *gorm.DB) error {
		id := node.GetID()
		if id == 0 {
			return ErrNodeNotFound
		}
		if id == t.cfg.RootID {
			return ErrRootImmutable
		}
		st, err := t.fetchRow(tx, id, true)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNodeNotFound
			}
			return err
		}
		node.SetParentID(st.ParentID)
		node.SetLeft(st.Lft)
		node.SetRight(st.Rgt)
		err = tx.Session(&gorm.Session{SkipHooks: true}).
			Table(t.cfg.Table).
			Where("? = ?", clause.Column{Name: t.cfg.IDColumn}, id).
			Delete(node).Error
		if err != nil {
			return err
		}
		return t.OnDeleted(tx, node)
	})
}

// reparent validates a parent change and runs the move. The no-op guard
// compares against the stored parent id before and after resolving a zero
// parent to the root, so re-saving the root row stays legal.
func (t *Tree) reparent(tx *gorm.DB, node Node, newParentID int64) error {
	id := node.GetID()
	if id == 0 {
		return ErrNodeNotFound
	}
	cur, err := t.fetchRow(tx, id, true)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrNodeNotFound
		}
		return err
	}
	if newParentID == cur.ParentID {
		// Sync the bounds so a full-row save cannot write back stale
		// values from a struct loaded before earlier shifts.
		node.SetLeft(cur.Lft)
		node.SetRight(cur.Rgt)
		return nil
	}
	if newParentID == 0 {
		newParentID = t.cfg.RootID
	}
	if newParentID == cur.ParentID {
		node.SetParentID(newParentID)
		node.SetLeft(cur.Lft)
		node.SetRight(cur.Rgt)
		return nil
	}
	if id == t.cfg.RootID {
		return ErrRootImmutable
	}
	placed, err := t.move(tx, id, cur, newParentID)
	if err != nil {
		return err
	}
	node.SetParentID(newParentID)
	node.SetLeft(placed.Left)
	node.SetRight(placed.Right)
	return nil
}

// move runs the four-phase reparenting of row id, currently at cur, under
// newParentID, and returns the row's new interval.
func (t *Tree) move(tx *gorm.DB, id int64, cur rowState, newParentID int64) (Interval, error) {
	if newParentID == id {
		return Interval{}, ErrMoveIntoSubtree
	}
	parent, err := t.fetchRow(tx, newParentID, true)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Interval{}, ErrParentNotFound
		}
		return Interval{}, err
	}
	iv := cur.interval()
	if iv.Contains(parent.interval()) {
		return Interval{}, ErrMoveIntoSubtree
	}

	left := clause.Column{Name: t.cfg.LeftColumn}
	right := clause.Column{Name: t.cfg.RightColumn}

	// Phase 1: quarantine the subtree by flipping its bounds negative,
	// out of reach of the bulk shifts.
	err = tx.Table(t.cfg.Table).
		Where("? > ? AND ? < ?", left, iv.Left, right, iv.Right).
		UpdateColumns(map[string]interface{}{
			t.cfg.LeftColumn:  gorm.Expr("0 - ?", left),
			t.cfg.RightColumn: gorm.Expr("0 - ?", right),
		}).Error
	if err != nil {
		return Interval{}, err
	}

	// Phase 2: close the gap the subtree leaves behind.
	for _, s := range PlanDetach(iv).Shifts {
		if err := t.applyShift(tx, s, id); err != nil {
			return Interval{}, err
		}
	}

	// Phase 3: open a slot under the new parent, whose bounds may just
	// have shifted, and re-place the moving row there.
	parent, err = t.fetchRow(tx, newParentID, false)
	if err != nil {
		return Interval{}, err
	}
	attach := PlanAttach(iv, parent.Rgt)
	for _, s := range attach.Shifts {
		if err := t.applyShift(tx, s, id); err != nil {
			return Interval{}, err
		}
	}
	err = tx.Table(t.cfg.Table).
		Where("? = ?", clause.Column{Name: t.cfg.IDColumn}, id).
		UpdateColumns(map[string]interface{}{
			t.cfg.ParentIDColumn: newParentID,
			t.cfg.LeftColumn:     attach.Node.Left,
			t.cfg.RightColumn:    attach.Node.Right,
		}).Error
	if err != nil {
		return Interval{}, err
	}

	// Phase 4: restore the quarantined rows, displaced with their subtree.
	err = tx.Table(t.cfg.Table).
		Where("? > ? AND ? < ?", left, -iv.Right, left, -iv.Left).
		UpdateColumns(map[string]interface{}{
			t.cfg.LeftColumn:  gorm.Expr("(0 - ?) + ?", left, attach.Distance),
			t.cfg.RightColumn: gorm.Expr("(0 - ?) + ?", right, attach.Distance),
		}).Error
	if err != nil {
		return Interval{}, err
	}
	return attach.Node, nil
}
