package models

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Well-known resource types
const (
	MapType   = "map"
	LayerType = "layer"
)

// ResourceType is a lookup entry defining display order and description for a
// resource's type.
type ResourceType struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"size:64;not null;uniqueIndex"`
	Description string    `json:"description" gorm:"size:255"`
	ListOrder   int       `json:"list_order" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName sets the table name for the ResourceType model
func (ResourceType) TableName() string {
	return "resource_types"
}

// SeedResourceTypes inserts the default resource types if they are missing.
func SeedResourceTypes(db *gorm.DB) error {
	defaults := []ResourceType{
		{Name: MapType, Description: "Map", ListOrder: 0},
		{Name: LayerType, Description: "Layer", ListOrder: 1},
		{Name: "attribute", Description: "Attribute", ListOrder: 2},
		{Name: "data", Description: "Data", ListOrder: 3},
	}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&defaults).Error
}

// ResourceTypeService provides methods for interacting with resource types in
// the database
type ResourceTypeService struct {
	db *gorm.DB
}

// NewResourceTypeService creates a new resource type service with the given
// database connection
func NewResourceTypeService(db *gorm.DB) *ResourceTypeService {
	return &ResourceTypeService{db: db}
}

// List retrieves all resource types ordered by list order and name
func (s *ResourceTypeService) List() ([]*ResourceType, error) {
	var types []*ResourceType
	err := s.db.Order("list_order").Order("name").Find(&types).Error
	return types, err
}

// Descriptions returns a name to description mapping of all resource types,
// together with the names in display order.
func (s *ResourceTypeService) Descriptions() ([]string, map[string]string, error) {
	types, err := s.List()
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(types))
	descriptions := make(map[string]string, len(types))
	for _, t := range types {
		names = append(names, t.Name)
		descriptions[t.Name] = t.Description
	}
	return names, descriptions, nil
}
