package main

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jacentio/nestedset"
)

// rootCategoryID is the sentinel row anchoring the interval space. It is
// hidden from the public endpoints.
const rootCategoryID int64 = 1

// Categories maintains the interval encoding of the categories table; set
// once at startup.
var Categories *nestedset.Tree

// Category is one taxonomy entry. The hierarchy columns live in the
// embedded nested set model; Slug is the stable public identifier.
type Category struct {
	nestedset.Model
	Slug      string    `gorm:"type:varchar(36);uniqueIndex" json:"slug"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Category) TableName() string {
	return "categories"
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.Slug == "" {
		c.Slug = uuid.New().String()
	}
	return Categories.OnCreating(tx, c)
}

func (c *Category) BeforeUpdate(tx *gorm.DB) error {
	return Categories.OnUpdating(tx, c)
}

func (c *Category) AfterDelete(tx *gorm.DB) error {
	return Categories.OnDeleted(tx, c)
}

// SeedRoot makes sure the sentinel root row exists. It bypasses the
// lifecycle hooks: the root anchors the interval space the hooks rely on.
func SeedRoot(db *gorm.DB) error {
	root := Category{
		Model: nestedset.Model{ID: rootCategoryID, Left: 1, Right: 2},
		Slug:  "root",
		Name:  "Root",
	}
	return db.Session(&gorm.Session{SkipHooks: true}).
		Where("id = ?", rootCategoryID).
		FirstOrCreate(&root).Error
}
