package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens an in-memory database with the migrated schema and seeded
// resource types.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// a single connection keeps the in-memory database alive
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&ResourceType{}, &Resource{}, &Permission{}, &ConfigTimestamp{}))
	require.NoError(t, SeedResourceTypes(db))
	return db
}

// seedTree creates the tree
//
//	mapA
//	├── layer1
//	│   └── attr1
//	└── layer2
//	mapB
//	└── layer3
//
// and returns the resources by name.
func seedTree(t *testing.T, db *gorm.DB) map[string]*Resource {
	t.Helper()
	service := NewResourceService(db)

	tree := map[string]*Resource{}
	add := func(name, resourceType string, parent *Resource) *Resource {
		resource := &Resource{Type: resourceType, Name: name}
		if parent != nil {
			resource.ParentID = &parent.ID
		}
		require.NoError(t, service.Create(resource))
		tree[name] = resource
		return resource
	}

	mapA := add("mapA", MapType, nil)
	layer1 := add("layer1", LayerType, mapA)
	add("attr1", "attribute", layer1)
	add("layer2", LayerType, mapA)
	mapB := add("mapB", MapType, nil)
	add("layer3", LayerType, mapB)
	return tree
}

func TestDeleteCascadedRemovesSubtree(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	service := NewResourceService(db)

	parentID, err := service.DeleteCascaded(tree["mapA"].ID)
	require.NoError(t, err)
	assert.Nil(t, parentID)

	var names []string
	require.NoError(t, db.Model(&Resource{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"layer3", "mapB"}, names)
}

func TestDeleteCascadedInnerNode(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	service := NewResourceService(db)

	parentID, err := service.DeleteCascaded(tree["layer1"].ID)
	require.NoError(t, err)
	require.NotNil(t, parentID)
	assert.Equal(t, tree["mapA"].ID, *parentID)

	// attr1 went with layer1, everything else is untouched
	var names []string
	require.NoError(t, db.Model(&Resource{}).Order("name").Pluck("name", &names).Error)
	assert.Equal(t, []string{"layer2", "layer3", "mapA", "mapB"}, names)
}

func TestDeleteCascadedNotFound(t *testing.T) {
	db := testDB(t)
	service := NewResourceService(db)

	_, err := service.DeleteCascaded(12345)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestHierarchyFromAnyNode(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	service := NewResourceService(db)

	// starting from a leaf reaches the same root as starting from the root
	for _, start := range []string{"mapA", "layer1", "attr1", "layer2"} {
		items, err := service.Hierarchy(tree[start].ID)
		require.NoError(t, err)
		require.NotEmpty(t, items)
		assert.Equal(t, "mapA", items[0].Resource.Name, "start=%s", start)
		assert.Equal(t, 0, items[0].Depth)
	}
}

func TestHierarchyDepthsAndOrder(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	service := NewResourceService(db)

	items, err := service.Hierarchy(tree["attr1"].ID)
	require.NoError(t, err)

	names := make([]string, 0, len(items))
	depths := make([]int, 0, len(items))
	for _, item := range items {
		names = append(names, item.Resource.Name)
		depths = append(depths, item.Depth)
	}
	assert.Equal(t, []string{"mapA", "layer1", "attr1", "layer2"}, names)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)

	// child depth is always parent depth + 1
	depthByID := map[uint]int{}
	for _, item := range items {
		depthByID[item.Resource.ID] = item.Depth
	}
	for _, item := range items {
		if item.Resource.ParentID != nil {
			assert.Equal(t, depthByID[*item.Resource.ParentID]+1, item.Depth)
		}
	}
}

func TestHierarchyReportsPermissions(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	service := NewResourceService(db)

	require.NoError(t, db.Create(&Permission{RoleID: 1, ResourceID: tree["layer1"].ID}).Error)

	items, err := service.Hierarchy(tree["mapA"].ID)
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, item.Resource.ID == tree["layer1"].ID, item.HasPermissions,
			"resource %s", item.Resource.Name)
	}
}

func TestHierarchyNotFound(t *testing.T) {
	db := testDB(t)
	seedTree(t, db)
	service := NewResourceService(db)

	_, err := service.Hierarchy(99999)
	assert.ErrorIs(t, err, ErrResourceNotFound)
}

func TestListPagination(t *testing.T) {
	db := testDB(t)
	seedTree(t, db)
	service := NewResourceService(db)

	rows, pagination, err := service.List(ListQuery{Page: 1, PerPage: 4})
	require.NoError(t, err)
	assert.Len(t, rows, 4)
	assert.Equal(t, 2, pagination.NumPages)
	assert.Equal(t, int64(6), pagination.Total)

	// last page is partial
	rows, _, err = service.List(ListQuery{Page: 2, PerPage: 4})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	// out-of-range page yields an empty page, not an error
	rows, pagination, err = service.List(ListQuery{Page: 7, PerPage: 4})
	require.NoError(t, err)
	assert.Empty(t, rows)
	assert.Equal(t, 2, pagination.NumPages)
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	seedTree(t, db)
	service := NewResourceService(db)

	// case-insensitive substring search
	rows, _, err := service.List(ListQuery{Search: "LAYER"})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, _, err = service.List(ListQuery{Type: MapType})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, MapType, row.Type)
	}
}

func TestListSorting(t *testing.T) {
	db := testDB(t)
	seedTree(t, db)
	service := NewResourceService(db)

	rows, _, err := service.List(ListQuery{SortBy: "name", SortAsc: true})
	require.NoError(t, err)
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	assert.Equal(t, []string{"attr1", "layer1", "layer2", "layer3", "mapA", "mapB"}, names)

	rows, _, err = service.List(ListQuery{SortBy: "name", SortAsc: false})
	require.NoError(t, err)
	assert.Equal(t, "mapB", rows[0].Name)

	// default order groups by resource type list order
	rows, _, err = service.List(ListQuery{})
	require.NoError(t, err)
	types := make([]string, 0, len(rows))
	for _, row := range rows {
		types = append(types, row.Type)
	}
	assert.Equal(t, []string{MapType, MapType, LayerType, LayerType, LayerType, "attribute"}, types)
}

func TestImportMapsSetDifference(t *testing.T) {
	db := testDB(t)
	service := NewResourceService(db)

	require.NoError(t, service.CreateMap("existing"))

	count, err := service.ImportMaps([]string{"zeta", "existing", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// inserted in lexicographic order, no duplicates
	var names []string
	require.NoError(t, db.Model(&Resource{}).
		Where("type = ?", MapType).Order("id").Pluck("name", &names).Error)
	assert.Equal(t, []string{"existing", "alpha", "zeta"}, names)

	// importing again inserts nothing
	count, err = service.ImportMaps([]string{"zeta", "existing", "alpha"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestImportLayersScopedToParent(t *testing.T) {
	db := testDB(t)
	tree := seedTree(t, db)
	service := NewResourceService(db)

	// layer1 and layer2 already exist below mapA
	count, err := service.ImportLayers(tree["mapA"].ID, []string{"layer1", "layer2", "layer9"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var layers []*Resource
	require.NoError(t, db.Where("type = ? AND parent_id = ?", LayerType, tree["mapA"].ID).
		Find(&layers).Error)
	assert.Len(t, layers, 3)

	// layer3 exists below mapB, so it counts as new for mapA
	count, err = service.ImportLayers(tree["mapA"].ID, []string{"layer3"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRenameAndDeleteMap(t *testing.T) {
	db := testDB(t)
	service := NewResourceService(db)

	require.NoError(t, service.CreateMap("oldname"))
	require.NoError(t, service.RenameMap("oldname", "newname"))

	_, err := service.GetMapByName("oldname")
	assert.ErrorIs(t, err, ErrResourceNotFound)
	resource, err := service.GetMapByName("newname")
	require.NoError(t, err)
	assert.Equal(t, MapType, resource.Type)

	require.NoError(t, service.DeleteMapByName("newname"))
	_, err = service.GetMapByName("newname")
	assert.ErrorIs(t, err, ErrResourceNotFound)

	// deleting a missing map is not an error
	assert.NoError(t, service.DeleteMapByName("missing"))
	// renaming a missing map is
	assert.ErrorIs(t, service.RenameMap("missing", "other"), ErrResourceNotFound)
}

func TestParentChoicesGrouping(t *testing.T) {
	db := testDB(t)
	seedTree(t, db)
	service := NewResourceService(db)

	groups, err := service.ParentChoices()
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, MapType, groups[0].ResourceType)
	assert.Equal(t, "Map", groups[0].GroupLabel)
	assert.Len(t, groups[0].Options, 2)
	assert.Equal(t, "mapA", groups[0].Options[0].Name)

	assert.Equal(t, LayerType, groups[1].ResourceType)
	assert.Len(t, groups[1].Options, 3)
	assert.Equal(t, "attribute", groups[2].ResourceType)
}
