package nestedset

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The reader methods return GORM scopes, to be combined freely with the
// host model's own conditions:
//
//	db.Scopes(tree.DescendantsOf(&cat), tree.Ordered()).Find(&rows)
//
// Each scope captures the node's bounds when it is built, so reads see the
// node as the caller loaded it.

// AncestorsOf narrows a query to the nodes whose intervals strictly enclose
// node's interval, i.e. its ancestor chain up to and including the root.
func (t *Tree) AncestorsOf(node Node) func(*gorm.DB) *gorm.DB {
	left, right := node.GetLeft(), node.GetRight()
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? < ? AND ? > ?",
			clause.Column{Name: t.cfg.LeftColumn}, left,
			clause.Column{Name: t.cfg.RightColumn}, right)
	}
}

// DescendantsOf narrows a query to the nodes strictly inside node's
// interval, at any depth.
func (t *Tree) DescendantsOf(node Node) func(*gorm.DB) *gorm.DB {
	left, right := node.GetLeft(), node.GetRight()
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? > ? AND ? < ?",
			clause.Column{Name: t.cfg.LeftColumn}, left,
			clause.Column{Name: t.cfg.RightColumn}, right)
	}
}

// SubtreeOf is DescendantsOf plus the node itself.
func (t *Tree) SubtreeOf(node Node) func(*gorm.DB) *gorm.DB {
	left, right := node.GetLeft(), node.GetRight()
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? >= ? AND ? <= ?",
			clause.Column{Name: t.cfg.LeftColumn}, left,
			clause.Column{Name: t.cfg.RightColumn}, right)
	}
}

// ChildrenOf narrows a query to node's direct children.
func (t *Tree) ChildrenOf(node Node) func(*gorm.DB) *gorm.DB {
	id := node.GetID()
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? = ?", clause.Column{Name: t.cfg.ParentIDColumn}, id)
	}
}

// ExcludeRoot drops the sentinel root row from a result set. List endpoints
// usually want the forest the root anchors, not the anchor itself.
func (t *Tree) ExcludeRoot() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("? <> ?", clause.Column{Name: t.cfg.IDColumn}, t.cfg.RootID)
	}
}

// Ordered sorts a result set depth-first by the left bound, the order
// BuildTree expects its input in.
func (t *Tree) Ordered() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: t.cfg.LeftColumn}})
	}
}

// Root loads the sentinel root row into dest.
func (t *Tree) Root(dest interface{}) error {
	err := t.db.Table(t.cfg.Table).
		Where("? = ?", clause.Column{Name: t.cfg.IDColumn}, t.cfg.RootID).
		Take(dest).Error
	if err == gorm.ErrRecordNotFound {
		return ErrNodeNotFound
	}
	return err
}
