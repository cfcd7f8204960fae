package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mapadmin/config-portal/internal/api/forms"
	"github.com/mapadmin/config-portal/internal/api/middleware"
	"github.com/mapadmin/config-portal/internal/db/models"
	"github.com/mapadmin/config-portal/internal/generator"
)

// listQueryFromRequest reads search, type filter, sort and pagination
// parameters. A trailing "-" on the sort parameter selects descending order.
func listQueryFromRequest(r *http.Request) models.ListQuery {
	query := models.ListQuery{
		Search:  r.URL.Query().Get("search"),
		Type:    r.URL.Query().Get("type"),
		SortAsc: true,
	}
	if sort := r.URL.Query().Get("sort"); sort != "" {
		if strings.HasSuffix(sort, "-") {
			query.SortAsc = false
			sort = strings.TrimSuffix(sort, "-")
		}
		query.SortBy = sort
	}
	query.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	query.PerPage, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	return query
}

// idParam reads the numeric {id} route parameter.
func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 32)
	return uint(id), err
}

// ListResources shows the filtered, sorted, paginated resources list.
func ListResources(resources *models.ResourceService, types *models.ResourceTypeService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := listQueryFromRequest(r)

		rows, pagination, err := resources.List(query)
		if err != nil {
			middleware.Logger(r.Context()).Errorf("listing resources: %v", err)
			view.Flash(w, r, "error", "Database error: %v", err)
		}

		typeNames, descriptions, err := types.Descriptions()
		if err != nil {
			middleware.Logger(r.Context()).Errorf("listing resource types: %v", err)
		}

		sortParam := query.SortBy
		view.Render(w, r, "resources_index", map[string]interface{}{
			"Resources":          rows,
			"Pagination":         pagination,
			"SearchText":         query.Search,
			"ActiveResourceType": query.Type,
			"Sort":               sortParam,
			"SortAsc":            query.SortAsc,
			"ResourceTypeNames":  typeNames,
			"ResourceTypes":      descriptions,
		})
	}
}

// resourceFormData assembles the template data of the resource form.
func resourceFormData(resources *models.ResourceService, types *models.ResourceTypeService,
	form *forms.ResourceForm, title, action string) (map[string]interface{}, error) {

	typeChoices, err := types.List()
	if err != nil {
		return nil, err
	}
	parentGroups, err := resources.ParentChoices()
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"Title":               title,
		"Action":              action,
		"Form":                form,
		"ResourceTypeChoices": typeChoices,
		"ParentGroups":        parentGroups,
	}, nil
}

// NewResource shows the create resource form.
func NewResource(resources *models.ResourceService, types *models.ResourceTypeService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := &forms.ResourceForm{Errors: map[string]string{}}
		// pre-select the type from the query, e.g. when adding a map
		form.Type = r.URL.Query().Get("type")

		data, err := resourceFormData(resources, types, form, "New resource", "/resources")
		if err != nil {
			middleware.Logger(r.Context()).Errorf("assembling resource form: %v", err)
			view.Flash(w, r, "error", "Database error: %v", err)
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}
		view.Render(w, r, "resources_form", data)
	}
}

// CreateResource creates a new resource from the submitted form.
func CreateResource(resources *models.ResourceService, types *models.ResourceTypeService,
	timestamps *models.ConfigTimestampService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form := forms.ParseResourceForm(r)
		if !form.Validate() {
			data, err := resourceFormData(resources, types, form, "New resource", "/resources")
			if err != nil {
				view.Flash(w, r, "error", "Database error: %v", err)
				http.Redirect(w, r, "/resources", http.StatusSeeOther)
				return
			}
			view.Render(w, r, "resources_form", data)
			return
		}

		resource := &models.Resource{Type: form.Type, Name: form.Name, ParentID: form.Parent()}
		if err := resources.Create(resource); err != nil {
			middleware.Logger(r.Context()).Errorf("creating resource: %v", err)
			view.Flash(w, r, "error", "Could not create resource: %v", err)
		} else {
			touchConfig(r, timestamps)
			view.Flash(w, r, "success", "Resource %s has been created.", resource.Name)
		}
		http.Redirect(w, r, "/resources", http.StatusSeeOther)
	}
}

// EditResource shows the edit form for an existing resource.
func EditResource(resources *models.ResourceService, types *models.ResourceTypeService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		resource, err := resources.GetByID(id)
		if err != nil {
			view.NotFound(w)
			return
		}

		form := &forms.ResourceForm{
			Type:   resource.Type,
			Name:   resource.Name,
			Errors: map[string]string{},
		}
		if resource.ParentID != nil {
			form.ParentID = *resource.ParentID
		}

		action := fmt.Sprintf("/resources/%d", resource.ID)
		data, err := resourceFormData(resources, types, form, "Edit resource", action)
		if err != nil {
			view.Flash(w, r, "error", "Database error: %v", err)
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}
		view.Render(w, r, "resources_form", data)
	}
}

// UpdateResource applies the submitted form to an existing resource.
func UpdateResource(resources *models.ResourceService, types *models.ResourceTypeService,
	timestamps *models.ConfigTimestampService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		resource, err := resources.GetByID(id)
		if err != nil {
			view.NotFound(w)
			return
		}

		form := forms.ParseResourceForm(r)
		if !form.Validate() {
			action := fmt.Sprintf("/resources/%d", resource.ID)
			data, err := resourceFormData(resources, types, form, "Edit resource", action)
			if err != nil {
				view.Flash(w, r, "error", "Database error: %v", err)
				http.Redirect(w, r, "/resources", http.StatusSeeOther)
				return
			}
			view.Render(w, r, "resources_form", data)
			return
		}

		resource.Type = form.Type
		resource.Name = form.Name
		resource.ParentID = form.Parent()
		if err := resources.Update(resource); err != nil {
			middleware.Logger(r.Context()).Errorf("updating resource %d: %v", id, err)
			view.Flash(w, r, "error", "Could not update resource: %v", err)
		} else {
			touchConfig(r, timestamps)
			view.Flash(w, r, "success", "Resource %s has been updated.", resource.Name)
		}
		http.Redirect(w, r, "/resources", http.StatusSeeOther)
	}
}

// DeleteResourceCascaded deletes a resource together with all of its
// descendants. HTML forms submit it as POST with a "_method" override; any
// other effective method is rejected with 405.
func DeleteResourceCascaded(resources *models.ResourceService,
	timestamps *models.ConfigTimestampService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			view.MethodNotAllowed(w)
			return
		}
		id, err := idParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		parentID, err := resources.DeleteCascaded(id)
		if errors.Is(err, models.ErrResourceNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("cascade delete of resource %d: %v", id, err)
			view.Flash(w, r, "error", "Could not delete resource: %v", err)
		} else {
			touchConfig(r, timestamps)
			view.Flash(w, r, "success", "Resource and its children have been deleted.")
		}

		if parentID != nil {
			http.Redirect(w, r, fmt.Sprintf("/resources/%d/hierarchy", *parentID), http.StatusSeeOther)
		} else {
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
		}
	}
}

// ShowHierarchy renders the full tree containing the given resource.
func ShowHierarchy(resources *models.ResourceService, types *models.ResourceTypeService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		items, err := resources.Hierarchy(id)
		if errors.Is(err, models.ErrResourceNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("hierarchy of resource %d: %v", id, err)
			view.Flash(w, r, "error", "Database error: %v", err)
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}

		_, descriptions, err := types.Descriptions()
		if err != nil {
			middleware.Logger(r.Context()).Errorf("listing resource types: %v", err)
		}

		view.Render(w, r, "resources_hierarchy", map[string]interface{}{
			"Items":          items,
			"SelectedItemID": id,
			"ResourceTypes":  descriptions,
		})
	}
}

// ImportMaps pulls the map list from the config generator service and inserts
// the maps missing from the database.
func ImportMaps(client *generator.Client, resources *models.ResourceService,
	timestamps *models.ConfigTimestampService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := client.Maps(r.Context())
		if err != nil {
			middleware.Logger(r.Context()).Errorf("could not get maps: %v", err)
			view.Flash(w, r, "error", "Could not import maps: %v", err)
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}

		count, err := resources.ImportMaps(names)
		if err != nil {
			middleware.Logger(r.Context()).Errorf("could not import maps: %v", err)
			view.Flash(w, r, "error", "Could not import maps: %v", err)
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}

		if count > 0 {
			touchConfig(r, timestamps)
			view.Flash(w, r, "success", "%d new maps have been added.", count)
		} else {
			view.Flash(w, r, "info", "No additional maps found.")
		}
		http.Redirect(w, r, "/resources?type=map", http.StatusSeeOther)
	}
}

// ImportChildren imports the child resources of a resource: the layers of a
// map.
func ImportChildren(client *generator.Client, resources *models.ResourceService,
	timestamps *models.ConfigTimestampService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		resource, err := resources.GetByID(id)
		if err != nil {
			view.NotFound(w)
			return
		}

		switch {
		case !client.Configured():
			view.Flash(w, r, "error", "Config generator URL is not defined")
		case resource.Type == models.MapType:
			importLayers(w, r, client, resources, timestamps, resource, view)
		default:
			view.Flash(w, r, "warning", "Child import not supported for this resource type.")
		}

		http.Redirect(w, r, fmt.Sprintf("/resources/%d/hierarchy", id), http.StatusSeeOther)
	}
}

// importLayers inserts the layers of the map that are missing from the
// database.
func importLayers(w http.ResponseWriter, r *http.Request, client *generator.Client,
	resources *models.ResourceService, timestamps *models.ConfigTimestampService,
	mapResource *models.Resource, view *View) {

	details, err := client.Map(r.Context(), mapResource.Name)
	if err != nil {
		middleware.Logger(r.Context()).Errorf("could not get map details: %v", err)
		view.Flash(w, r, "error", "Could not import layers: %v", err)
		return
	}
	if len(details.Layers) == 0 {
		view.Flash(w, r, "warning", "No layers found for this map.")
		return
	}

	count, err := resources.ImportLayers(mapResource.ID, details.Layers)
	if err != nil {
		middleware.Logger(r.Context()).Errorf("could not import layers: %v", err)
		view.Flash(w, r, "error", "Could not import layers: %v", err)
		return
	}
	if count > 0 {
		touchConfig(r, timestamps)
		view.Flash(w, r, "success", "%d new layers have been added.", count)
	} else {
		view.Flash(w, r, "info", "No additional layers found.")
	}
}

// HierarchyItemResponse is the JSON shape of one hierarchy row.
type HierarchyItemResponse struct {
	Depth          int    `json:"depth"`
	ID             uint   `json:"id"`
	Type           string `json:"type"`
	Name           string `json:"name"`
	HasPermissions bool   `json:"has_permissions"`
}

// APIHierarchy returns the flattened hierarchy of a resource as JSON.
func APIHierarchy(resources *models.ResourceService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := idParam(r)
		if err != nil {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "resource not found"})
			return
		}
		items, err := resources.Hierarchy(id)
		if errors.Is(err, models.ErrResourceNotFound) {
			render.Status(r, http.StatusNotFound)
			render.JSON(w, r, map[string]string{"error": "resource not found"})
			return
		}
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}

		response := make([]HierarchyItemResponse, 0, len(items))
		for _, item := range items {
			response = append(response, HierarchyItemResponse{
				Depth:          item.Depth,
				ID:             item.Resource.ID,
				Type:           item.Resource.Type,
				Name:           item.Resource.Name,
				HasPermissions: item.HasPermissions,
			})
		}
		render.JSON(w, r, response)
	}
}

// touchConfig bumps the config timestamp after a successful mutation.
func touchConfig(r *http.Request, timestamps *models.ConfigTimestampService) {
	if err := timestamps.Touch(); err != nil {
		middleware.Logger(r.Context()).Errorf("updating config timestamp: %v", err)
	}
}
