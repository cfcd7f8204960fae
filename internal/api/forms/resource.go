// Package forms parses and validates the portal's HTML form submissions.
package forms

import (
	"net/http"
	"strconv"
	"strings"
)

// ResourceForm is the submitted create/edit form for a resource.
type ResourceForm struct {
	Type     string
	Name     string
	ParentID uint // 0 means no parent

	Errors map[string]string
}

// ParseResourceForm reads a resource form from the request.
func ParseResourceForm(r *http.Request) *ResourceForm {
	_ = r.ParseForm()
	form := &ResourceForm{
		Type:   strings.TrimSpace(r.PostForm.Get("type")),
		Name:   strings.TrimSpace(r.PostForm.Get("name")),
		Errors: map[string]string{},
	}
	if raw := r.PostForm.Get("parent_id"); raw != "" {
		parentID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			form.Errors["parent_id"] = "Invalid parent"
		} else {
			form.ParentID = uint(parentID)
		}
	}
	return form
}

// Validate checks required fields and records field errors.
func (f *ResourceForm) Validate() bool {
	if f.Type == "" {
		f.Errors["type"] = "Type is required"
	}
	if f.Name == "" {
		f.Errors["name"] = "Name is required"
	}
	return len(f.Errors) == 0
}

// Parent returns the selected parent ID, or nil for a root resource.
func (f *ResourceForm) Parent() *uint {
	if f.ParentID == 0 {
		return nil
	}
	id := f.ParentID
	return &id
}
