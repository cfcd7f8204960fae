package models

import (
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"
)

// Sentinel errors for resource lookups
var (
	ErrResourceNotFound = errors.New("resource not found")
)

// Pagination defaults
var (
	DefaultPerPage = 10
	PerPageOptions = []int{10, 25, 50, 100}
)

// Resource is a node in the permissions hierarchy (e.g. a map or a layer),
// identified by type and name and optionally parented to another resource.
type Resource struct {
	ID        uint      `json:"id" gorm:"primarykey"`
	Type      string    `json:"type" gorm:"size:64;not null;index"`
	Name      string    `json:"name" gorm:"size:255;not null"`
	ParentID  *uint     `json:"parent_id" gorm:"index"`
	Parent    *Resource `json:"parent,omitempty" gorm:"foreignKey:ParentID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for the Resource model
func (Resource) TableName() string {
	return "resources"
}

// ListQuery describes the filtered, sorted, paginated resource listing.
type ListQuery struct {
	Search  string
	Type    string
	SortBy  string // "id", "type" or "name"; empty for default order
	SortAsc bool
	Page    int
	PerPage int
}

// Pagination is the metadata accompanying one page of results.
type Pagination struct {
	Page           int
	NumPages       int
	PerPage        int
	PerPageOptions []int
	Total          int64
}

// HierarchyItem is one row of the flattened resource tree.
type HierarchyItem struct {
	Depth          int
	Resource       *Resource
	HasPermissions bool
}

// ParentOption is a selectable parent resource in the resource form.
type ParentOption struct {
	ID   uint
	Name string
}

// ParentGroup groups parent options of one resource type.
type ParentGroup struct {
	ResourceType string
	GroupLabel   string
	Options      []ParentOption
}

// ResourceService provides methods for interacting with resources in the
// database
type ResourceService struct {
	db *gorm.DB
}

// NewResourceService creates a new resource service with the given database
// connection
func NewResourceService(db *gorm.DB) *ResourceService {
	return &ResourceService{db: db}
}

// sortableColumns maps a sort key to its order_by columns. Only the first
// column follows the requested direction, the rest break ties.
var sortableColumns = map[string][]string{
	"id":   {"resources.id"},
	"type": {"resource_types.name", "resources.name", "resources.id"},
	"name": {"resources.name", "resource_types.list_order", "resources.type", "resources.id"},
}

// joined returns the resource query joined to the resource type lookup table.
func (s *ResourceService) joined() *gorm.DB {
	return s.db.Model(&Resource{}).
		Joins("JOIN resource_types ON resource_types.name = resources.type")
}

// filtered applies the search and type filters of a list query.
func (s *ResourceService) filtered(q ListQuery) *gorm.DB {
	query := s.joined()
	if q.Search != "" {
		query = query.Where("LOWER(resources.name) LIKE LOWER(?)", "%"+q.Search+"%")
	}
	if q.Type != "" {
		query = query.Where("resources.type = ?", q.Type)
	}
	return query
}

// List retrieves one page of resources matching the query, together with
// pagination metadata. An out-of-range page yields an empty page, not an
// error.
func (s *ResourceService) List(q ListQuery) ([]*Resource, Pagination, error) {
	page := q.Page
	if page < 1 {
		page = 1
	}
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}

	var total int64
	if err := s.filtered(q).Count(&total).Error; err != nil {
		return nil, Pagination{}, err
	}

	query := s.filtered(q)
	if columns, ok := sortableColumns[q.SortBy]; ok {
		direction := ""
		if !q.SortAsc {
			direction = " DESC"
		}
		query = query.Order(columns[0] + direction)
		for _, column := range columns[1:] {
			query = query.Order(column)
		}
	} else {
		query = defaultResourceOrder(query)
	}

	var resources []*Resource
	err := query.
		Preload("Parent").
		Limit(perPage).
		Offset((page - 1) * perPage).
		Find(&resources).Error
	if err != nil {
		return nil, Pagination{}, err
	}

	pagination := Pagination{
		Page:           page,
		NumPages:       int((total + int64(perPage) - 1) / int64(perPage)),
		PerPage:        perPage,
		PerPageOptions: PerPageOptions,
		Total:          total,
	}
	return resources, pagination, nil
}

// defaultResourceOrder orders joined resources by type list order, type, name
// and id.
func defaultResourceOrder(query *gorm.DB) *gorm.DB {
	return query.
		Order("resource_types.list_order").
		Order("resources.type").
		Order("resources.name").
		Order("resources.id")
}

// GetByID retrieves a resource by its ID
func (s *ResourceService) GetByID(id uint) (*Resource, error) {
	var resource Resource
	err := s.db.First(&resource, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return &resource, nil
}

// Create inserts a new resource into the database
func (s *ResourceService) Create(resource *Resource) error {
	return s.db.Create(resource).Error
}

// Update updates an existing resource in the database
func (s *ResourceService) Update(resource *Resource) error {
	return s.db.Save(resource).Error
}

// Delete removes a single resource from the database
func (s *ResourceService) Delete(id uint) error {
	return s.db.Delete(&Resource{}, id).Error
}

// DeleteCascaded removes a resource and all of its descendants, depth first,
// in one transaction. It returns the parent ID of the deleted resource so the
// caller can redirect to the parent's hierarchy view.
func (s *ResourceService) DeleteCascaded(id uint) (*uint, error) {
	resource, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	parentID := resource.ParentID

	err = s.db.Transaction(func(tx *gorm.DB) error {
		return deleteSubtree(tx, resource.ID)
	})
	// the parent ID is reported even when the transaction was rolled back,
	// so the caller can still redirect to the parent's view
	return parentID, err
}

// deleteSubtree recursively deletes the children of a resource before the
// resource itself.
func deleteSubtree(tx *gorm.DB, id uint) error {
	var children []*Resource
	if err := tx.Where("parent_id = ?", id).Find(&children).Error; err != nil {
		return err
	}
	for _, child := range children {
		if err := deleteSubtree(tx, child.ID); err != nil {
			return err
		}
	}
	return tx.Delete(&Resource{}, id).Error
}

// Hierarchy flattens the full tree containing the given resource into a
// depth-ordered pre-order sequence. It walks parent links up to the tree root,
// then descends depth first with children ordered by type list order, type,
// name and id.
func (s *ResourceService) Hierarchy(id uint) ([]HierarchyItem, error) {
	// load all resources in display order and rebuild the adjacency per
	// request
	var resources []*Resource
	err := defaultResourceOrder(s.joined()).Find(&resources).Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uint]*Resource, len(resources))
	children := make(map[uint][]*Resource)
	for _, r := range resources {
		byID[r.ID] = r
	}
	for _, r := range resources {
		if r.ParentID != nil {
			children[*r.ParentID] = append(children[*r.ParentID], r)
		}
	}

	resource, ok := byID[id]
	if !ok {
		return nil, ErrResourceNotFound
	}

	// find root resource
	root := resource
	for root.ParentID != nil {
		parent, ok := byID[*root.ParentID]
		if !ok {
			break
		}
		root = parent
	}

	// resources with at least one permission
	var permitted []uint
	err = s.db.Model(&Permission{}).Distinct("resource_id").Pluck("resource_id", &permitted).Error
	if err != nil {
		return nil, err
	}
	hasPermissions := make(map[uint]bool, len(permitted))
	for _, rid := range permitted {
		hasPermissions[rid] = true
	}

	var items []HierarchyItem
	var collect func(r *Resource, depth int)
	collect = func(r *Resource, depth int) {
		items = append(items, HierarchyItem{
			Depth:          depth,
			Resource:       r,
			HasPermissions: hasPermissions[r.ID],
		})
		for _, child := range children[r.ID] {
			collect(child, depth+1)
		}
	}
	collect(root, 0)

	return items, nil
}

// ParentChoices returns all resources as selectable parent options, grouped by
// resource type and ordered by type list order, type and name.
func (s *ResourceService) ParentChoices() ([]ParentGroup, error) {
	descriptions := make(map[string]string)
	var types []*ResourceType
	if err := s.db.Find(&types).Error; err != nil {
		return nil, err
	}
	for _, t := range types {
		descriptions[t.Name] = t.Description
	}

	var resources []*Resource
	err := s.joined().
		Order("resource_types.list_order").
		Order("resources.type").
		Order("resources.name").
		Find(&resources).Error
	if err != nil {
		return nil, err
	}

	var groups []ParentGroup
	for _, r := range resources {
		if len(groups) == 0 || groups[len(groups)-1].ResourceType != r.Type {
			groups = append(groups, ParentGroup{
				ResourceType: r.Type,
				GroupLabel:   descriptions[r.Type],
			})
		}
		group := &groups[len(groups)-1]
		group.Options = append(group.Options, ParentOption{ID: r.ID, Name: r.Name})
	}
	return groups, nil
}

// ImportMaps inserts the given map names that do not exist yet as type "map"
// resources, in lexicographic order, and returns the number of inserted rows.
func (s *ResourceService) ImportMaps(names []string) (int, error) {
	return s.importMissing(names, MapType, nil)
}

// ImportLayers inserts the given layer names that do not exist yet as type
// "layer" children of the given map resource, in lexicographic order, and
// returns the number of inserted rows.
func (s *ResourceService) ImportLayers(mapID uint, names []string) (int, error) {
	return s.importMissing(names, LayerType, &mapID)
}

// importMissing inserts the lexicographically sorted set difference of names
// against the existing resources of the given type (and parent), all staged
// in one transaction.
func (s *ResourceService) importMissing(names []string, resourceType string, parentID *uint) (int, error) {
	query := s.db.Model(&Resource{}).Where("type = ?", resourceType)
	if parentID != nil {
		query = query.Where("parent_id = ?", *parentID)
	}
	var existing []string
	if err := query.Pluck("name", &existing).Error; err != nil {
		return 0, err
	}

	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	var missing []string
	for _, name := range names {
		if !known[name] {
			known[name] = true
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)

	if len(missing) == 0 {
		return 0, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, name := range missing {
			resource := &Resource{Type: resourceType, Name: name, ParentID: parentID}
			if err := tx.Create(resource).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(missing), nil
}

// GetMapByName retrieves the type "map" resource with the given name.
func (s *ResourceService) GetMapByName(name string) (*Resource, error) {
	var resource Resource
	err := s.db.Where("type = ? AND name = ?", MapType, name).First(&resource).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, err
	}
	return &resource, nil
}

// CreateMap inserts a new type "map" resource with the given name.
func (s *ResourceService) CreateMap(name string) error {
	return s.db.Create(&Resource{Type: MapType, Name: name}).Error
}

// RenameMap renames the map resource currently called oldName to newName.
// A missing map resource is reported as ErrResourceNotFound.
func (s *ResourceService) RenameMap(oldName, newName string) error {
	resource, err := s.GetMapByName(oldName)
	if err != nil {
		return err
	}
	resource.Name = newName
	return s.db.Save(resource).Error
}

// DeleteMapByName removes the map resource with the given name. Deleting a
// missing map resource is not an error.
func (s *ResourceService) DeleteMapByName(name string) error {
	resource, err := s.GetMapByName(name)
	if errors.Is(err, ErrResourceNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return s.db.Delete(resource).Error
}
