package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/jacentio/nestedset"
)

type CreateCategoryRequest struct {
	Name     string `json:"name"`
	ParentID int64  `json:"parent_id"`
}

type UpdateCategoryRequest struct {
	Name     *string `json:"name"`
	ParentID *int64  `json:"parent_id"`
}

// writeTreeError maps the nested set sentinels onto API responses.
func writeTreeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, nestedset.ErrParentNotFound):
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Parent category not found"})
	case errors.Is(err, nestedset.ErrMoveIntoSubtree):
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "A category cannot be moved into its own subtree"})
	case errors.Is(err, nestedset.ErrRootImmutable):
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "The root category cannot be changed"})
	case errors.Is(err, nestedset.ErrNodeNotFound):
		WriteJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: "Category not found"})
	default:
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Server error"})
	}
}

// loadCategory resolves the {id} route variable to a fresh row. The
// sentinel root is not addressable through the public endpoints.
func loadCategory(w http.ResponseWriter, r *http.Request) (*Category, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Invalid category id"})
		return nil, false
	}
	var c Category
	if err := DB.First(&c, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			WriteJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: "Category not found"})
			return nil, false
		}
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Server error"})
		return nil, false
	}
	if c.ID == rootCategoryID {
		WriteJSON(w, http.StatusNotFound, APIResponse{Success: false, Message: "Category not found"})
		return nil, false
	}
	return &c, true
}

// GET /api/categories
func ListCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	var rows []*Category
	if err := DB.Scopes(Categories.ExcludeRoot(), Categories.Ordered()).Find(&rows).Error; err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load categories"})
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: rows})
}

// POST /api/categories
func CreateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Name is required"})
		return
	}

	c := &Category{Name: name, Model: nestedset.Model{ParentID: req.ParentID}}
	if err := DB.Create(c).Error; err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, APIResponse{Success: true, Message: "Category created", Data: c})
}

// GET /api/categories/tree
func CategoryTreeHandler(w http.ResponseWriter, r *http.Request) {
	var rows []*Category
	if err := DB.Scopes(Categories.ExcludeRoot(), Categories.Ordered()).Find(&rows).Error; err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load categories"})
		return
	}
	tree, err := nestedset.BuildTree(rows)
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to assemble tree"})
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: tree})
}

// GET /api/categories/{id}
func GetCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCategory(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: c})
}

// PUT /api/categories/{id}
func UpdateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCategory(w, r)
	if !ok {
		return
	}
	var req UpdateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Not valid JSON"})
		return
	}
	if req.Name == nil && req.ParentID == nil {
		WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Nothing to update"})
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			WriteJSON(w, http.StatusBadRequest, APIResponse{Success: false, Message: "Name is required"})
			return
		}
		c.Name = name
	}
	if req.ParentID != nil {
		c.ParentID = *req.ParentID
	}

	// Save runs the relocation through the lifecycle hooks when the
	// parent changed.
	if err := DB.Save(c).Error; err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Category updated", Data: c})
}

// DELETE /api/categories/{id}
func DeleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCategory(w, r)
	if !ok {
		return
	}
	if err := DB.Delete(c).Error; err != nil {
		writeTreeError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Category deleted. Its children moved up one level."})
}

// GET /api/categories/{id}/children
func CategoryChildrenHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCategory(w, r)
	if !ok {
		return
	}
	var rows []*Category
	if err := DB.Scopes(Categories.ChildrenOf(c), Categories.Ordered()).Find(&rows).Error; err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load children"})
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: rows})
}

// GET /api/categories/{id}/descendants
func CategoryDescendantsHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCategory(w, r)
	if !ok {
		return
	}
	var rows []*Category
	if err := DB.Scopes(Categories.SubtreeOf(c), Categories.Ordered()).Find(&rows).Error; err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load subtree"})
		return
	}
	tree, err := nestedset.BuildTree(rows)
	if err != nil || len(tree) != 1 {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to assemble subtree"})
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: tree[0]})
}

// GET /api/categories/{id}/ancestors
func CategoryAncestorsHandler(w http.ResponseWriter, r *http.Request) {
	c, ok := loadCategory(w, r)
	if !ok {
		return
	}
	var rows []*Category
	err := DB.Scopes(Categories.AncestorsOf(c), Categories.ExcludeRoot(), Categories.Ordered()).
		Find(&rows).Error
	if err != nil {
		WriteJSON(w, http.StatusInternalServerError, APIResponse{Success: false, Message: "Failed to load ancestors"})
		return
	}
	WriteJSON(w, http.StatusOK, APIResponse{Success: true, Message: "Successfully", Data: rows})
}
