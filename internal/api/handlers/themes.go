package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mapadmin/config-portal/internal/api/forms"
	"github.com/mapadmin/config-portal/internal/api/middleware"
	"github.com/mapadmin/config-portal/internal/db/models"
	"github.com/mapadmin/config-portal/internal/themes"
)

// tidParam reads the numeric {tid} route parameter.
func tidParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "tid"))
}

// gidParam reads the optional {gid} route parameter, nil when absent.
func gidParam(r *http.Request) (*int, error) {
	raw := chi.URLParam(r, "gid")
	if raw == "" {
		return nil, nil
	}
	gid, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &gid, nil
}

// themeEntry is one theme row of the themes index.
type themeEntry struct {
	Name string
}

// themeGroupEntry is one group of the themes index.
type themeGroupEntry struct {
	Title string
	Items []themeEntry
}

// ListThemes shows the theme list.
func ListThemes(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Load()
		if err != nil {
			middleware.Logger(r.Context()).Errorf("loading themes config: %v", err)
			view.Flash(w, r, "error", "%v", err)
			http.Redirect(w, r, "/resources", http.StatusSeeOther)
			return
		}

		items := make([]themeEntry, 0, len(doc.Themes.Items))
		for i := range doc.Themes.Items {
			items = append(items, themeEntry{Name: doc.Themes.Items[i].DisplayName()})
		}
		groups := make([]themeGroupEntry, 0, len(doc.Themes.Groups))
		for _, group := range doc.Themes.Groups {
			entry := themeGroupEntry{Title: group.Title}
			for i := range group.Items {
				entry.Items = append(entry.Items, themeEntry{Name: group.Items[i].DisplayName()})
			}
			groups = append(groups, entry)
		}

		view.Render(w, r, "themes_index", map[string]interface{}{
			"Items":  items,
			"Groups": groups,
		})
	}
}

// themeFormAction returns the form submit URL for the given operation and
// addressing.
func themeFormAction(operation string, tid int, gid *int) string {
	action := fmt.Sprintf("/themes/%s", operation)
	if tid >= 0 {
		action = fmt.Sprintf("%s/%d", action, tid)
	}
	if gid != nil {
		action = fmt.Sprintf("%s/%d", action, *gid)
	}
	return action
}

// NewTheme shows the create theme form, pre-filled from the first existing
// theme as a template.
func NewTheme(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gid, err := gidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		form := &forms.ThemeForm{Errors: map[string]string{}}
		if doc, err := store.Load(); err == nil {
			if len(doc.Themes.Items) > 0 {
				form = forms.ThemeFormFromItem(&doc.Themes.Items[0])
			} else if len(doc.Themes.Groups) > 0 && len(doc.Themes.Groups[0].Items) > 0 {
				form = forms.ThemeFormFromItem(&doc.Themes.Groups[0].Items[0])
			}
		}

		view.Render(w, r, "themes_form", map[string]interface{}{
			"Title":  "Create theme",
			"Action": themeFormAction("create", -1, gid),
			"Form":   form,
		})
	}
}

// CreateTheme appends a new theme item and creates the paired map resource.
func CreateTheme(store *themes.Store, resources *models.ResourceService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gid, err := gidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		form := forms.ParseThemeForm(r)
		if !form.Validate() {
			view.Flash(w, r, "warning", "Could not create theme %s.", form.Title)
			view.Render(w, r, "themes_form", map[string]interface{}{
				"Title":  "Create theme",
				"Action": themeFormAction("create", -1, gid),
				"Form":   form,
			})
			return
		}

		item := form.Item()

		// pair the theme with a map resource named by the URL basename;
		// database failures are flashed but do not abort the file write
		if err := resources.CreateMap(item.MapName()); err != nil {
			middleware.Logger(r.Context()).Errorf("creating map resource %q: %v", item.MapName(), err)
			view.Flash(w, r, "warning", "Resource for map '%s' already exists!", item.MapName())
		}

		_, err = store.Update(func(doc *themes.Document) error {
			return doc.AppendItem(item, gid)
		})
		if errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("creating theme: %v", err)
			view.Flash(w, r, "error", "%v", err)
		} else {
			view.Flash(w, r, "success", "Theme %s created.", form.Title)
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// EditTheme shows the edit form of an existing theme item.
func EditTheme(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, err := tidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		gid, err := gidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		doc, err := store.Load()
		if err != nil {
			middleware.Logger(r.Context()).Errorf("loading themes config: %v", err)
			view.Flash(w, r, "error", "%v", err)
			http.Redirect(w, r, "/themes", http.StatusSeeOther)
			return
		}
		item, err := doc.Item(tid, gid)
		if err != nil {
			view.NotFound(w)
			return
		}

		view.Render(w, r, "themes_form", map[string]interface{}{
			"Title":  "Edit theme",
			"Action": themeFormAction("update", tid, gid),
			"Form":   forms.ThemeFormFromItem(item),
		})
	}
}

// UpdateTheme replaces an existing theme item and renames the paired map
// resource.
func UpdateTheme(store *themes.Store, resources *models.ResourceService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, err := tidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		gid, err := gidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		form := forms.ParseThemeForm(r)
		if !form.Validate() {
			view.Flash(w, r, "warning", "Could not update theme %s.", form.Title)
			view.Render(w, r, "themes_form", map[string]interface{}{
				"Title":  "Edit theme",
				"Action": themeFormAction("update", tid, gid),
				"Form":   form,
			})
			return
		}

		var previous themes.ThemeItem
		_, err = store.Update(func(doc *themes.Document) error {
			previous, err = doc.ReplaceItem(tid, gid, form.Item())
			return err
		})
		if errors.Is(err, themes.ErrItemNotFound) || errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("updating theme: %v", err)
			view.Flash(w, r, "error", "%v", err)
			http.Redirect(w, r, "/themes", http.StatusSeeOther)
			return
		}

		// rename the paired map resource, looked up by its prior name
		oldName := previous.MapName()
		newName := themes.MapNameFromURL(form.URL)
		if oldName != newName {
			if err := resources.RenameMap(oldName, newName); err != nil {
				middleware.Logger(r.Context()).Errorf("renaming map resource %q: %v", oldName, err)
				view.Flash(w, r, "warning", "Could not update resource for map '%s'.", newName)
			}
		}

		view.Flash(w, r, "success", "Updated theme %s.", form.Title)
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// DeleteTheme removes a theme item and deletes the paired map resource.
func DeleteTheme(store *themes.Store, resources *models.ResourceService, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, err := tidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		gid, err := gidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}

		var removed themes.ThemeItem
		_, err = store.Update(func(doc *themes.Document) error {
			removed, err = doc.RemoveItem(tid, gid)
			return err
		})
		if errors.Is(err, themes.ErrItemNotFound) || errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("deleting theme: %v", err)
			view.Flash(w, r, "error", "%v", err)
			http.Redirect(w, r, "/themes", http.StatusSeeOther)
			return
		}

		if err := resources.DeleteMapByName(removed.MapName()); err != nil {
			middleware.Logger(r.Context()).Errorf("deleting map resource %q: %v", removed.MapName(), err)
			view.Flash(w, r, "warning", "Could not delete resource for map '%s'.", removed.MapName())
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// MoveTheme swaps a theme item with its neighbor. Moves beyond either end of
// the list are no-ops.
func MoveTheme(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tid, err := tidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		gid, err := gidParam(r)
		if err != nil {
			view.NotFound(w)
			return
		}
		direction := chi.URLParam(r, "direction")

		_, err = store.Update(func(doc *themes.Document) error {
			return doc.MoveItem(tid, gid, direction)
		})
		if errors.Is(err, themes.ErrItemNotFound) || errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("moving theme: %v", err)
			view.Flash(w, r, "error", "%v", err)
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// AddThemeGroup appends a new empty theme group.
func AddThemeGroup(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, err := store.Update(func(doc *themes.Document) error {
			doc.AddGroup()
			return nil
		})
		if err != nil {
			middleware.Logger(r.Context()).Errorf("adding theme group: %v", err)
			view.Flash(w, r, "error", "%v", err)
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// DeleteThemeGroup removes a theme group with its items.
func DeleteThemeGroup(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
		if err != nil {
			view.NotFound(w)
			return
		}

		_, err = store.Update(func(doc *themes.Document) error {
			_, err := doc.RemoveGroup(gid)
			return err
		})
		if errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("deleting theme group: %v", err)
			view.Flash(w, r, "error", "%v", err)
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// UpdateThemeGroup renames a theme group.
func UpdateThemeGroup(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
		if err != nil {
			view.NotFound(w)
			return
		}
		_ = r.ParseForm()
		title := r.PostForm.Get("group_title")

		_, err = store.Update(func(doc *themes.Document) error {
			return doc.RenameGroup(gid, title)
		})
		if errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("renaming theme group: %v", err)
			view.Flash(w, r, "error", "%v", err)
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// MoveThemeGroup swaps a theme group with its neighbor. Moves beyond either
// end of the list are no-ops.
func MoveThemeGroup(store *themes.Store, view *View) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
		if err != nil {
			view.NotFound(w)
			return
		}
		direction := chi.URLParam(r, "direction")

		_, err = store.Update(func(doc *themes.Document) error {
			return doc.MoveGroup(gid, direction)
		})
		if errors.Is(err, themes.ErrGroupNotFound) {
			view.NotFound(w)
			return
		}
		if err != nil {
			middleware.Logger(r.Context()).Errorf("moving theme group: %v", err)
			view.Flash(w, r, "error", "%v", err)
		}
		http.Redirect(w, r, "/themes", http.StatusSeeOther)
	}
}

// APIThemes returns the themes configuration document as JSON.
func APIThemes(store *themes.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doc, err := store.Load()
		if err != nil {
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": err.Error()})
			return
		}
		render.JSON(w, r, doc)
	}
}
