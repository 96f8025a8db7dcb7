package nestedset

// Node is the view a Tree needs of one stored row. Model implements it;
// embed Model in the table's GORM struct, or satisfy Node directly when the
// table brings its own column layout.
type Node interface {
	GetID() int64
	GetParentID() int64
	SetParentID(int64)
	GetLeft() int64
	SetLeft(int64)
	GetRight() int64
	SetRight(int64)
}

// Model is a drop-in set of hierarchy columns for a GORM table, matching
// the DefaultConfig column names. A zero ParentID stands for "child of the
// root".
type Model struct {
	ID       int64 `gorm:"primaryKey" json:"id"`
	ParentID int64 `gorm:"column:parent_id;index;not null;default:0" json:"parent_id"`
	Left     int64 `gorm:"column:left;not null" json:"left"`
	Right    int64 `gorm:"column:right;not null" json:"right"`
}

func (m *Model) GetID() int64         { return m.ID }
func (m *Model) GetParentID() int64   { return m.ParentID }
func (m *Model) SetParentID(id int64) { m.ParentID = id }
func (m *Model) GetLeft() int64       { return m.Left }
func (m *Model) SetLeft(v int64)      { m.Left = v }
func (m *Model) GetRight() int64      { return m.Right }
func (m *Model) SetRight(v int64)     { m.Right = v }
