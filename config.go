package nestedset

// Config describes how one table stores its hierarchy. Every column name is
// overridable so the library can attach to existing schemas; the zero value
// of each field falls back to the defaults below.
type Config struct {
	// Table is the host table holding the hierarchy rows. Required.
	Table string

	// IDColumn is the primary key column.
	// Default: "id"
	IDColumn string

	// ParentIDColumn references the logical parent's primary key.
	// Default: "parent_id"
	ParentIDColumn string

	// LeftColumn holds the interval's lower bound.
	// Default: "left"
	LeftColumn string

	// RightColumn holds the interval's upper bound.
	// Default: "right"
	RightColumn string

	// RootID is the primary key of the sentinel root node whose interval
	// contains every other node's interval.
	// Default: 1
	RootID int64
}

// DefaultConfig returns the default column mapping for the given table.
func DefaultConfig(table string) Config {
	return Config{
		Table:          table,
		IDColumn:       "id",
		ParentIDColumn: "parent_id",
		LeftColumn:     "left",
		RightColumn:    "right",
		RootID:         1,
	}
}

// validate fills zero-value fields with defaults and reports a missing table.
func (c *Config) validate() error {
	if c.Table == "" {
		return ErrMissingTable
	}
	if c.IDColumn == "" {
		c.IDColumn = "id"
	}
	if c.ParentIDColumn == "" {
		c.ParentIDColumn = "parent_id"
	}
	if c.LeftColumn == "" {
		c.LeftColumn = "left"
	}
	if c.RightColumn == "" {
		c.RightColumn = "right"
	}
	if c.RootID == 0 {
		c.RootID = 1
	}
	return nil
}
