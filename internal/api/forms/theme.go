package forms

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mapadmin/config-portal/internal/themes"
)

// ThemeForm is the submitted create/edit form for a theme item. Number list
// fields are submitted as comma separated values; background layers as
// aligned background_layer_* field slices.
type ThemeForm struct {
	URL                           string
	Title                         string
	Thumbnail                     string
	Attribution                   string
	AttributionURL                string
	Format                        string
	MapCRS                        string
	AdditionalMouseCRS            string
	Scales                        string
	PrintScales                   string
	PrintResolutions              string
	SearchProviders               string
	CollapseLayerGroupsBelowLevel string
	Default                       bool
	Tiled                         bool
	SkipEmptyFeatureAttributes    bool
	BackgroundLayers              []BackgroundLayerForm

	Errors map[string]string
}

// BackgroundLayerForm is one background layer row of the theme form.
type BackgroundLayerForm struct {
	Name       string
	PrintLayer string
	Visibility bool
}

// ParseThemeForm reads a theme form from the request.
func ParseThemeForm(r *http.Request) *ThemeForm {
	_ = r.ParseForm()
	form := &ThemeForm{
		URL:                           strings.TrimSpace(r.PostForm.Get("url")),
		Title:                         strings.TrimSpace(r.PostForm.Get("title")),
		Thumbnail:                     strings.TrimSpace(r.PostForm.Get("thumbnail")),
		Attribution:                   strings.TrimSpace(r.PostForm.Get("attribution")),
		AttributionURL:                strings.TrimSpace(r.PostForm.Get("attribution_url")),
		Format:                        strings.TrimSpace(r.PostForm.Get("format")),
		MapCRS:                        strings.TrimSpace(r.PostForm.Get("map_crs")),
		AdditionalMouseCRS:            strings.TrimSpace(r.PostForm.Get("additional_mouse_crs")),
		Scales:                        strings.TrimSpace(r.PostForm.Get("scales")),
		PrintScales:                   strings.TrimSpace(r.PostForm.Get("print_scales")),
		PrintResolutions:              strings.TrimSpace(r.PostForm.Get("print_resolutions")),
		SearchProviders:               strings.TrimSpace(r.PostForm.Get("search_providers")),
		CollapseLayerGroupsBelowLevel: strings.TrimSpace(r.PostForm.Get("collapse_layer_groups_below_level")),
		Default:                       checked(r.PostForm.Get("default")),
		Tiled:                         checked(r.PostForm.Get("tiled")),
		SkipEmptyFeatureAttributes:    checked(r.PostForm.Get("skip_empty_feature_attributes")),
		Errors:                        map[string]string{},
	}

	names := r.PostForm["background_layer_name"]
	printLayers := r.PostForm["background_layer_print"]
	visibilities := r.PostForm["background_layer_visible"]
	for i, name := range names {
		if name == "" {
			continue
		}
		layer := BackgroundLayerForm{Name: name}
		if i < len(printLayers) {
			layer.PrintLayer = printLayers[i]
		}
		if i < len(visibilities) {
			layer.Visibility = checked(visibilities[i])
		}
		form.BackgroundLayers = append(form.BackgroundLayers, layer)
	}

	return form
}

// Validate checks required fields and number lists, recording field errors.
func (f *ThemeForm) Validate() bool {
	if f.URL == "" {
		f.Errors["url"] = "URL is required"
	} else if themes.MapNameFromURL(f.URL) == "" {
		f.Errors["url"] = "URL must end in a map name"
	}
	for field, value := range map[string]string{
		"additional_mouse_crs": f.AdditionalMouseCRS,
		"scales":               f.Scales,
		"print_scales":         f.PrintScales,
		"print_resolutions":    f.PrintResolutions,
	} {
		if _, err := splitInts(value); err != nil {
			f.Errors[field] = "Must be a comma separated list of numbers"
		}
	}
	if f.CollapseLayerGroupsBelowLevel != "" {
		if _, err := strconv.Atoi(f.CollapseLayerGroupsBelowLevel); err != nil {
			f.Errors["collapse_layer_groups_below_level"] = "Must be a number"
		}
	}
	return len(f.Errors) == 0
}

// Item builds the theme item represented by the form. Validate must have
// succeeded.
func (f *ThemeForm) Item() themes.ThemeItem {
	attribution := f.Attribution
	isDefault := f.Default
	skipEmpty := f.SkipEmptyFeatureAttributes

	item := themes.ThemeItem{
		URL:                        f.URL,
		Title:                      f.Title,
		Thumbnail:                  f.Thumbnail,
		Attribution:                &attribution,
		AttributionURL:             f.AttributionURL,
		Default:                    &isDefault,
		Format:                     f.Format,
		MapCRS:                     f.MapCRS,
		SkipEmptyFeatureAttributes: &skipEmpty,
	}
	if f.Tiled {
		tiled := true
		item.Tiled = &tiled
	}
	item.AdditionalMouseCRS, _ = splitInts(f.AdditionalMouseCRS)
	item.Scales, _ = splitInts(f.Scales)
	item.PrintScales, _ = splitInts(f.PrintScales)
	item.PrintResolutions, _ = splitInts(f.PrintResolutions)
	item.SearchProviders = splitStrings(f.SearchProviders)
	if f.CollapseLayerGroupsBelowLevel != "" {
		if level, err := strconv.Atoi(f.CollapseLayerGroupsBelowLevel); err == nil {
			item.CollapseLayerGroupsBelowLevel = &level
		}
	}
	for _, layer := range f.BackgroundLayers {
		visible := layer.Visibility
		item.BackgroundLayers = append(item.BackgroundLayers, themes.BackgroundLayerRef{
			Name:       layer.Name,
			PrintLayer: layer.PrintLayer,
			Visibility: &visible,
		})
	}
	return item
}

// ThemeFormFromItem pre-fills the form from an existing theme item for the
// edit view.
func ThemeFormFromItem(item *themes.ThemeItem) *ThemeForm {
	form := &ThemeForm{
		URL:                        item.URL,
		Title:                      item.Title,
		Thumbnail:                  item.Thumbnail,
		AttributionURL:             item.AttributionURL,
		Format:                     item.Format,
		MapCRS:                     item.MapCRS,
		AdditionalMouseCRS:         joinInts(item.AdditionalMouseCRS),
		Scales:                     joinInts(item.Scales),
		PrintScales:                joinInts(item.PrintScales),
		PrintResolutions:           joinInts(item.PrintResolutions),
		SearchProviders:            strings.Join(item.SearchProviders, ", "),
		Errors:                     map[string]string{},
	}
	if item.Attribution != nil {
		form.Attribution = *item.Attribution
	}
	if item.Default != nil {
		form.Default = *item.Default
	}
	if item.Tiled != nil {
		form.Tiled = *item.Tiled
	}
	if item.SkipEmptyFeatureAttributes != nil {
		form.SkipEmptyFeatureAttributes = *item.SkipEmptyFeatureAttributes
	}
	if item.CollapseLayerGroupsBelowLevel != nil {
		form.CollapseLayerGroupsBelowLevel = strconv.Itoa(*item.CollapseLayerGroupsBelowLevel)
	}
	for _, layer := range item.BackgroundLayers {
		row := BackgroundLayerForm{Name: layer.Name, PrintLayer: layer.PrintLayer}
		if layer.Visibility != nil {
			row.Visibility = *layer.Visibility
		}
		form.BackgroundLayers = append(form.BackgroundLayers, row)
	}
	return form
}

func checked(value string) bool {
	switch strings.ToLower(value) {
	case "on", "true", "1", "y", "yes":
		return true
	}
	return false
}

// splitInts parses a comma separated list of integers, ignoring whitespace.
func splitInts(value string) ([]int, error) {
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return nil, nil
	}
	parts := strings.Split(value, ",")
	numbers := make([]int, 0, len(parts))
	for _, part := range parts {
		number, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		numbers = append(numbers, number)
	}
	return numbers, nil
}

// splitStrings parses a comma separated list of strings, ignoring whitespace.
func splitStrings(value string) []string {
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func joinInts(numbers []int) string {
	parts := make([]string, 0, len(numbers))
	for _, number := range numbers {
		parts = append(parts, strconv.Itoa(number))
	}
	return strings.Join(parts, ", ")
}
