// Package themes manages the themes configuration document of the mapping
// application: an ordered JSON file with a flat theme list and titled theme
// groups, edited wholesale through the portal.
package themes

import (
	"errors"
	"strings"

	"github.com/goccy/go-json"
)

// Move directions for theme items and groups
const (
	MoveUp   = "up"
	MoveDown = "down"
)

// Sentinel errors for positional lookups
var (
	ErrItemNotFound  = errors.New("theme item not found")
	ErrGroupNotFound = errors.New("theme group not found")
)

// Document is the themes configuration document.
type Document struct {
	Themes        ThemesSection `json:"themes"`
	DefaultScales []int         `json:"defaultScales,omitempty"`
}

// ThemesSection holds the flat theme list, the theme groups and the shared
// background layer definitions. Background layer definitions are carried
// through untouched.
type ThemesSection struct {
	Items            []ThemeItem       `json:"items"`
	Groups           []ThemeGroup      `json:"groups"`
	BackgroundLayers []json.RawMessage `json:"backgroundLayers,omitempty"`
}

// ThemeGroup is a titled sub-list of theme items.
type ThemeGroup struct {
	Title string      `json:"title"`
	Items []ThemeItem `json:"items"`
}

// ThemeItem is one theme entry. Optional fields use pointers or omitempty so
// a load/save cycle reproduces the document it read.
type ThemeItem struct {
	URL                           string               `json:"url"`
	Title                         string               `json:"title,omitempty"`
	Thumbnail                     string               `json:"thumbnail,omitempty"`
	Attribution                   *string              `json:"attribution,omitempty"`
	AttributionURL                string               `json:"attributionUrl,omitempty"`
	Default                       *bool                `json:"default,omitempty"`
	Format                        string               `json:"format,omitempty"`
	MapCRS                        string               `json:"mapCrs,omitempty"`
	AdditionalMouseCRS            []int                `json:"additionalMouseCrs,omitempty"`
	Scales                        []int                `json:"scales,omitempty"`
	PrintScales                   []int                `json:"printScales,omitempty"`
	PrintResolutions              []int                `json:"printResolutions,omitempty"`
	SearchProviders               []string             `json:"searchProviders,omitempty"`
	CollapseLayerGroupsBelowLevel *int                 `json:"collapseLayerGroupsBelowLevel,omitempty"`
	SkipEmptyFeatureAttributes    *bool                `json:"skipEmptyFeatureAttributes,omitempty"`
	Tiled                         *bool                `json:"tiled,omitempty"`
	BackgroundLayers              []BackgroundLayerRef `json:"backgroundLayers,omitempty"`
}

// BackgroundLayerRef references a background layer from a theme item.
type BackgroundLayerRef struct {
	Name       string `json:"name"`
	PrintLayer string `json:"printLayer,omitempty"`
	Visibility *bool  `json:"visibility,omitempty"`
}

// DisplayName returns the item's title, falling back to its URL.
func (t *ThemeItem) DisplayName() string {
	if t.Title != "" {
		return t.Title
	}
	return t.URL
}

// MapName returns the map resource name paired with the item: the final path
// segment of its URL.
func (t *ThemeItem) MapName() string {
	return MapNameFromURL(t.URL)
}

// MapNameFromURL returns the final path segment of a theme URL.
func MapNameFromURL(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

// items returns the addressed item list: the flat list for gid == nil, the
// group's list otherwise.
func (d *Document) items(gid *int) (*[]ThemeItem, error) {
	if gid == nil {
		return &d.Themes.Items, nil
	}
	if *gid < 0 || *gid >= len(d.Themes.Groups) {
		return nil, ErrGroupNotFound
	}
	return &d.Themes.Groups[*gid].Items, nil
}

// Item returns the item at position tid in the flat list or in group gid.
func (d *Document) Item(tid int, gid *int) (*ThemeItem, error) {
	items, err := d.items(gid)
	if err != nil {
		return nil, err
	}
	if tid < 0 || tid >= len(*items) {
		return nil, ErrItemNotFound
	}
	return &(*items)[tid], nil
}

// AppendItem appends an item to the flat list or to group gid.
func (d *Document) AppendItem(item ThemeItem, gid *int) error {
	items, err := d.items(gid)
	if err != nil {
		return err
	}
	*items = append(*items, item)
	return nil
}

// ReplaceItem replaces the item at position tid and returns the previous
// item.
func (d *Document) ReplaceItem(tid int, gid *int, item ThemeItem) (ThemeItem, error) {
	target, err := d.Item(tid, gid)
	if err != nil {
		return ThemeItem{}, err
	}
	previous := *target
	*target = item
	return previous, nil
}

// RemoveItem splices the item at position tid out of its list and returns it.
func (d *Document) RemoveItem(tid int, gid *int) (ThemeItem, error) {
	items, err := d.items(gid)
	if err != nil {
		return ThemeItem{}, err
	}
	if tid < 0 || tid >= len(*items) {
		return ThemeItem{}, ErrItemNotFound
	}
	removed := (*items)[tid]
	*items = append((*items)[:tid], (*items)[tid+1:]...)
	return removed, nil
}

// MoveItem swaps the item at position tid with its neighbor in the given
// direction. Moving the first item up or the last item down is a no-op.
func (d *Document) MoveItem(tid int, gid *int, direction string) error {
	items, err := d.items(gid)
	if err != nil {
		return err
	}
	if tid < 0 || tid >= len(*items) {
		return ErrItemNotFound
	}
	switch direction {
	case MoveUp:
		if tid > 0 {
			(*items)[tid-1], (*items)[tid] = (*items)[tid], (*items)[tid-1]
		}
	case MoveDown:
		if tid < len(*items)-1 {
			(*items)[tid], (*items)[tid+1] = (*items)[tid+1], (*items)[tid]
		}
	}
	return nil
}

// AddGroup appends a new empty group.
func (d *Document) AddGroup() {
	d.Themes.Groups = append(d.Themes.Groups, ThemeGroup{
		Title: "new group",
		Items: []ThemeItem{},
	})
}

// RemoveGroup splices the group at position gid out of the group list and
// returns it.
func (d *Document) RemoveGroup(gid int) (ThemeGroup, error) {
	if gid < 0 || gid >= len(d.Themes.Groups) {
		return ThemeGroup{}, ErrGroupNotFound
	}
	removed := d.Themes.Groups[gid]
	d.Themes.Groups = append(d.Themes.Groups[:gid], d.Themes.Groups[gid+1:]...)
	return removed, nil
}

// RenameGroup sets the title of the group at position gid.
func (d *Document) RenameGroup(gid int, title string) error {
	if gid < 0 || gid >= len(d.Themes.Groups) {
		return ErrGroupNotFound
	}
	d.Themes.Groups[gid].Title = title
	return nil
}

// MoveGroup swaps the group at position gid with its neighbor in the given
// direction. Moving the first group up or the last group down is a no-op.
func (d *Document) MoveGroup(gid int, direction string) error {
	groups := d.Themes.Groups
	if gid < 0 || gid >= len(groups) {
		return ErrGroupNotFound
	}
	switch direction {
	case MoveUp:
		if gid > 0 {
			groups[gid-1], groups[gid] = groups[gid], groups[gid-1]
		}
	case MoveDown:
		if gid < len(groups)-1 {
			groups[gid], groups[gid+1] = groups[gid+1], groups[gid]
		}
	}
	return nil
}
