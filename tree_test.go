package nestedset_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/jacentio/nestedset"
)

// category exercises the hook-free convenience methods.
type category struct {
	nestedset.Model
	Name string `json:"name"`
}

func (category) TableName() string { return "categories" }

var _ nestedset.Node = (*category)(nil)

// dept exercises the lifecycle-hook wiring; deptTree is assigned by the
// tests that use it, the way an application wires a package-level tree.
type dept struct {
	nestedset.Model
	Name string `json:"name"`
}

func (dept) TableName() string { return "departments" }

var deptTree *nestedset.Tree

func (d *dept) BeforeCreate(tx *gorm.DB) error { return deptTree.OnCreating(tx, d) }
func (d *dept) BeforeUpdate(tx *gorm.DB) error { return deptTree.OnUpdating(tx, d) }
func (d *dept) AfterDelete(tx *gorm.DB) error  { return deptTree.OnDeleted(tx, d) }

// menu satisfies Node without embedding Model, on its own column names.
type menu struct {
	MenuID int64  `gorm:"primaryKey;column:menu_id"`
	PID    int64  `gorm:"column:pid"`
	Lft    int64  `gorm:"column:lft"`
	Rgt    int64  `gorm:"column:rgt"`
	Label  string `gorm:"column:label"`
}

func (menu) TableName() string      { return "menus" }
func (m *menu) GetID() int64        { return m.MenuID }
func (m *menu) GetParentID() int64  { return m.PID }
func (m *menu) SetParentID(v int64) { m.PID = v }
func (m *menu) GetLeft() int64      { return m.Lft }
func (m *menu) SetLeft(v int64)     { m.Lft = v }
func (m *menu) GetRight() int64     { return m.Rgt }
func (m *menu) SetRight(v int64)    { m.Rgt = v }

// newTestDB opens a uniquely named shared in-memory SQLite database and
// migrates the given models into it.
func newTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(models...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newCategoryTree(t *testing.T, db *gorm.DB) *nestedset.Tree {
	t.Helper()
	tree, err := nestedset.New(db, nestedset.DefaultConfig("categories"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return tree
}

func seedRoot(t *testing.T, db *gorm.DB, root interface{}) {
	t.Helper()
	if err := db.Session(&gorm.Session{SkipHooks: true}).Create(root).Error; err != nil {
		t.Fatalf("seed root: %v", err)
	}
}

func createCategory(t *testing.T, tree *nestedset.Tree, name string, parentID int64) *category {
	t.Helper()
	c := &category{Model: nestedset.Model{ParentID: parentID}, Name: name}
	if err := tree.Create(c); err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return c
}

func loadIntervals(t *testing.T, db *gorm.DB) map[string]nestedset.Interval {
	t.Helper()
	var rows []category
	if err := db.Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("load categories: %v", err)
	}
	out := make(map[string]nestedset.Interval, len(rows))
	for _, r := range rows {
		out[r.Name] = nestedset.Interval{Left: r.Left, Right: r.Right}
	}
	return out
}

func loadParents(t *testing.T, db *gorm.DB) map[string]int64 {
	t.Helper()
	var rows []category
	if err := db.Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("load categories: %v", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Name] = r.ParentID
	}
	return out
}

// assertEncoding checks the structural invariants of the stored tree: the
// bounds of n rows form exactly 1..2n, the root spans all of them, every
// interval has an odd left-to-right distance and every non-root row sits
// strictly inside its parent.
func assertEncoding(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	var rows []nestedset.Model
	if err := db.Table(table).Find(&rows).Error; err != nil {
		t.Fatalf("load %s: %v", table, err)
	}
	byID := make(map[int64]nestedset.Model, len(rows))
	bounds := make(map[int64]bool, 2*len(rows))
	for _, r := range rows {
		byID[r.ID] = r
		for _, b := range []int64{r.Left, r.Right} {
			if bounds[b] {
				t.Errorf("%s: bound %d used twice", table, b)
			}
			bounds[b] = true
		}
		if (r.Right-r.Left)%2 != 1 {
			t.Errorf("%s: node %d has even-width interval (%d,%d)", table, r.ID, r.Left, r.Right)
		}
	}
	max := int64(2 * len(rows))
	for b := int64(1); b <= max; b++ {
		if !bounds[b] {
			t.Errorf("%s: bound %d unused", table, b)
		}
	}
	root, ok := byID[1]
	if !ok {
		t.Fatalf("%s: root row missing", table)
	}
	if root.Left != 1 || root.Right != max {
		t.Errorf("%s: root spans (%d,%d), want (1,%d)", table, root.Left, root.Right, max)
	}
	for _, r := range rows {
		if r.ID == root.ID {
			continue
		}
		p, ok := byID[r.ParentID]
		if !ok {
			t.Errorf("%s: node %d references missing parent %d", table, r.ID, r.ParentID)
			continue
		}
		if p.Left >= r.Left || r.Right >= p.Right {
			t.Errorf("%s: node %d (%d,%d) not inside parent %d (%d,%d)",
				table, r.ID, r.Left, r.Right, p.ID, p.Left, p.Right)
		}
	}
}

func TestNewValidation(t *testing.T) {
	db := newTestDB(t, &category{})

	if _, err := nestedset.New(nil, nestedset.DefaultConfig("categories")); !errors.Is(err, nestedset.ErrMissingDB) {
		t.Errorf("New(nil, ...) = %v, want ErrMissingDB", err)
	}
	if _, err := nestedset.New(db, nestedset.Config{}); !errors.Is(err, nestedset.ErrMissingTable) {
		t.Errorf("New(db, zero config) = %v, want ErrMissingTable", err)
	}
	if _, err := nestedset.New(db, nestedset.Config{Table: "categories"}); err != nil {
		t.Errorf("New with only a table name: %v", err)
	}
}

func TestTreeCreate(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	a := createCategory(t, tree, "a", 0) // zero parent lands under the root
	if a.ID == 0 {
		t.Fatal("created node has no id")
	}
	if a.ParentID != 1 {
		t.Errorf("a.ParentID = %d, want 1", a.ParentID)
	}
	checkRows(t, "after a", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 4},
		"a":    {Left: 2, Right: 3},
	})

	createCategory(t, tree, "b", 1)
	checkRows(t, "after b", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 6},
		"a":    {Left: 2, Right: 3},
		"b":    {Left: 4, Right: 5},
	})

	c := createCategory(t, tree, "c", a.ID)
	if c.ParentID != a.ID {
		t.Errorf("c.ParentID = %d, want %d", c.ParentID, a.ID)
	}
	checkRows(t, "after c", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 8},
		"a":    {Left: 2, Right: 5},
		"c":    {Left: 3, Right: 4},
		"b":    {Left: 6, Right: 7},
	})
	assertEncoding(t, db, "categories")
}

func TestTreeCreateParentMissing(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	err := tree.Create(&category{Model: nestedset.Model{ParentID: 99}, Name: "orphan"})
	if !errors.Is(err, nestedset.ErrParentNotFound) {
		t.Fatalf("Create with missing parent = %v, want ErrParentNotFound", err)
	}
	var n int64
	db.Table("categories").Count(&n)
	if n != 1 {
		t.Errorf("row count = %d, want 1", n)
	}
	checkRows(t, "untouched", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 2},
	})
}

func TestTreeMove(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	a := createCategory(t, tree, "a", 0)
	c := createCategory(t, tree, "c", a.ID)
	b := createCategory(t, tree, "b", 0)
	checkRows(t, "setup", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 8},
		"a":    {Left: 2, Right: 5},
		"c":    {Left: 3, Right: 4},
		"b":    {Left: 6, Right: 7},
	})

	// The subtree travels right, child included.
	if err := tree.Move(a, b.ID); err != nil {
		t.Fatalf("move a under b: %v", err)
	}
	if a.ParentID != b.ID {
		t.Errorf("a.ParentID = %d, want %d", a.ParentID, b.ID)
	}
	checkRows(t, "a under b", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 8},
		"b":    {Left: 2, Right: 7},
		"a":    {Left: 3, Right: 6},
		"c":    {Left: 4, Right: 5},
	})
	assertEncoding(t, db, "categories")

	// And back left, appended as the root's last child.
	if err := tree.Move(a, 0); err != nil {
		t.Fatalf("move a back under root: %v", err)
	}
	if a.ParentID != 1 {
		t.Errorf("a.ParentID = %d, want 1", a.ParentID)
	}
	checkRows(t, "a under root", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 8},
		"b":    {Left: 2, Right: 3},
		"a":    {Left: 4, Right: 7},
		"c":    {Left: 5, Right: 6},
	})
	assertEncoding(t, db, "categories")

	if c.ID == 0 {
		t.Fatal("sanity: c was never created")
	}
}

func TestTreeMoveGuards(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	a := createCategory(t, tree, "a", 0)
	c := createCategory(t, tree, "c", a.ID)
	b := createCategory(t, tree, "b", 0)
	before := loadIntervals(t, db)

	tests := []struct {
		name    string
		node    *category
		parent  int64
		wantErr error
	}{
		{"root is pinned", &category{Model: nestedset.Model{ID: 1}}, b.ID, nestedset.ErrRootImmutable},
		{"into own child", a, c.ID, nestedset.ErrMoveIntoSubtree},
		{"onto itself", a, a.ID, nestedset.ErrMoveIntoSubtree},
		{"unknown node", &category{Model: nestedset.Model{ID: 999}}, b.ID, nestedset.ErrNodeNotFound},
		{"unknown parent", a, 999, nestedset.ErrParentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tree.Move(tt.node, tt.parent); !errors.Is(err, tt.wantErr) {
				t.Errorf("Move = %v, want %v", err, tt.wantErr)
			}
			checkRows(t, "untouched", loadIntervals(t, db), before)
		})
	}

	t.Run("same parent is a no-op", func(t *testing.T) {
		if err := tree.Move(a, 1); err != nil {
			t.Fatalf("Move to current parent: %v", err)
		}
		checkRows(t, "untouched", loadIntervals(t, db), before)
	})
	t.Run("zero parent resolves to current root parent", func(t *testing.T) {
		if err := tree.Move(a, 0); err != nil {
			t.Fatalf("Move to zero parent: %v", err)
		}
		checkRows(t, "untouched", loadIntervals(t, db), before)
	})
}

func TestTreeDelete(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	a := createCategory(t, tree, "a", 0)
	createCategory(t, tree, "b", 0)
	c := createCategory(t, tree, "c", a.ID)

	// Deleting a mid-level node promotes its child one level up.
	if err := tree.Delete(a); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	checkRows(t, "a deleted", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 6},
		"c":    {Left: 2, Right: 3},
		"b":    {Left: 4, Right: 5},
	})
	if parents := loadParents(t, db); parents["c"] != 1 {
		t.Errorf("c.parent_id = %d, want 1 after promotion", parents["c"])
	}
	assertEncoding(t, db, "categories")

	// Deleting a leaf just closes its slot pair.
	if err := tree.Delete(c); err != nil {
		t.Fatalf("delete c: %v", err)
	}
	checkRows(t, "c deleted", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 4},
		"b":    {Left: 2, Right: 3},
	})
	assertEncoding(t, db, "categories")

	if err := tree.Delete(&category{Model: nestedset.Model{ID: 1}}); !errors.Is(err, nestedset.ErrRootImmutable) {
		t.Errorf("delete root = %v, want ErrRootImmutable", err)
	}
	if err := tree.Delete(&category{Model: nestedset.Model{ID: 999}}); !errors.Is(err, nestedset.ErrNodeNotFound) {
		t.Errorf("delete unknown = %v, want ErrNodeNotFound", err)
	}
}

func TestTreeDeleteKeepsGrandchildren(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	a := createCategory(t, tree, "a", 0)
	c := createCategory(t, tree, "c", a.ID)
	d := createCategory(t, tree, "d", c.ID)
	createCategory(t, tree, "b", 0)

	if err := tree.Delete(a); err != nil {
		t.Fatalf("delete a: %v", err)
	}
	checkRows(t, "a deleted", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 8},
		"c":    {Left: 2, Right: 5},
		"d":    {Left: 3, Right: 4},
		"b":    {Left: 6, Right: 7},
	})
	parents := loadParents(t, db)
	if parents["c"] != 1 {
		t.Errorf("c.parent_id = %d, want 1: only direct children are promoted", parents["c"])
	}
	if parents["d"] != c.ID {
		t.Errorf("d.parent_id = %d, want %d: grandchildren keep their parent", parents["d"], c.ID)
	}
	if d.ID == 0 {
		t.Fatal("sanity: d was never created")
	}
	assertEncoding(t, db, "categories")
}

func TestTreeLifecycleHooks(t *testing.T) {
	db := newTestDB(t, &dept{})
	var err error
	deptTree, err = nestedset.New(db, nestedset.DefaultConfig("departments"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	seedRoot(t, db, &dept{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})

	// Plain Create allocates the slot through BeforeCreate.
	a := &dept{Name: "eng"}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create eng: %v", err)
	}
	if a.Left != 2 || a.Right != 3 || a.ParentID != 1 {
		t.Fatalf("eng placed at (%d,%d) parent %d, want (2,3) parent 1", a.Left, a.Right, a.ParentID)
	}

	b := &dept{Name: "ops"}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("create ops: %v", err)
	}
	c := &dept{Name: "qa", Model: nestedset.Model{ParentID: a.ID}}
	if err := db.Create(c).Error; err != nil {
		t.Fatalf("create qa: %v", err)
	}
	if c.Left != 3 || c.Right != 4 {
		t.Fatalf("qa placed at (%d,%d), want (3,4)", c.Left, c.Right)
	}

	// A rename travels through BeforeUpdate without renumbering.
	c.Name = "quality"
	if err := db.Save(c).Error; err != nil {
		t.Fatalf("rename qa: %v", err)
	}
	if c.Left != 3 || c.Right != 4 {
		t.Errorf("rename shifted bounds to (%d,%d)", c.Left, c.Right)
	}

	// Changing ParentID on Save relocates the node.
	c.ParentID = b.ID
	if err := db.Save(c).Error; err != nil {
		t.Fatalf("reparent qa: %v", err)
	}
	if c.Left != 5 || c.Right != 6 {
		t.Errorf("reparented qa at (%d,%d), want (5,6)", c.Left, c.Right)
	}
	assertEncoding(t, db, "departments")

	// Deleting a freshly loaded row closes its gap through AfterDelete.
	var fresh dept
	if err := db.First(&fresh, a.ID).Error; err != nil {
		t.Fatalf("reload eng: %v", err)
	}
	if err := db.Delete(&fresh).Error; err != nil {
		t.Fatalf("delete eng: %v", err)
	}
	assertEncoding(t, db, "departments")

	var rows []dept
	if err := db.Order("id").Find(&rows).Error; err != nil {
		t.Fatalf("load departments: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}

	// A hook failure aborts the whole statement.
	bad := &dept{Name: "lost", Model: nestedset.Model{ParentID: 999}}
	if err := db.Create(bad).Error; !errors.Is(err, nestedset.ErrParentNotFound) {
		t.Errorf("create with missing parent = %v, want ErrParentNotFound", err)
	}
	var n int64
	db.Table("departments").Count(&n)
	if n != 3 {
		t.Errorf("row count after failed create = %d, want 3", n)
	}
}

func TestTreeSessionJoinsTransaction(t *testing.T) {
	db := newTestDB(t, &category{})
	seedRoot(t, db, &category{Model: nestedset.Model{ID: 1, Left: 1, Right: 2}, Name: "root"})
	tree := newCategoryTree(t, db)

	abort := errors.New("abort")
	err := db.Transaction(func(tx *gorm.DB) error {
		s := tree.Session(tx)
		if err := s.Create(&category{Name: "doomed"}); err != nil {
			return err
		}
		return abort
	})
	if !errors.Is(err, abort) {
		t.Fatalf("transaction = %v, want abort", err)
	}
	checkRows(t, "rolled back", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 2},
	})

	err = db.Transaction(func(tx *gorm.DB) error {
		return tree.Session(tx).Create(&category{Name: "kept"})
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	checkRows(t, "committed", loadIntervals(t, db), map[string]nestedset.Interval{
		"root": {Left: 1, Right: 4},
		"kept": {Left: 2, Right: 3},
	})
}

func TestTreeCustomColumns(t *testing.T) {
	db := newTestDB(t, &menu{})
	seedRoot(t, db, &menu{MenuID: 1, Lft: 1, Rgt: 2, Label: "root"})
	tree, err := nestedset.New(db, nestedset.Config{
		Table:          "menus",
		IDColumn:       "menu_id",
		ParentIDColumn: "pid",
		LeftColumn:     "lft",
		RightColumn:    "rgt",
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	a := &menu{Label: "a"}
	if err := tree.Create(a); err != nil {
		t.Fatalf("create a: %v", err)
	}
	b := &menu{Label: "b"}
	if err := tree.Create(b); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if err := tree.Move(b, a.MenuID); err != nil {
		t.Fatalf("move b under a: %v", err)
	}
	if err := tree.Delete(a); err != nil {
		t.Fatalf("delete a: %v", err)
	}

	var rows []menu
	if err := db.Order("menu_id").Find(&rows).Error; err != nil {
		t.Fatalf("load menus: %v", err)
	}
	want := []menu{
		{MenuID: 1, PID: 0, Lft: 1, Rgt: 4, Label: "root"},
		{MenuID: 3, PID: 1, Lft: 2, Rgt: 3, Label: "b"},
	}
	if len(rows) != len(want) {
		t.Fatalf("row count = %d, want %d", len(rows), len(want))
	}
	for i, w := range want {
		if rows[i] != w {
			t.Errorf("row %d = %+v, want %+v", i, rows[i], w)
		}
	}
}
