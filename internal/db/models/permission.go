package models

import (
	"time"

	"gorm.io/gorm"
)

// Permission grants a role access to a resource. The portal only reports
// whether permissions exist when rendering the hierarchy; permission
// management itself lives in a separate service.
type Permission struct {
	ID         uint      `json:"id" gorm:"primarykey"`
	RoleID     uint      `json:"role_id" gorm:"not null"`
	ResourceID uint      `json:"resource_id" gorm:"not null;index"`
	Resource   Resource  `json:"resource" gorm:"foreignKey:ResourceID"`
	Priority   int       `json:"priority" gorm:"not null;default:0"`
	Write      bool      `json:"write" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the table name for the Permission model
func (Permission) TableName() string {
	return "permissions"
}

// PermissionService provides methods for interacting with permissions in the
// database
type PermissionService struct {
	db *gorm.DB
}

// NewPermissionService creates a new permission service with the given
// database connection
func NewPermissionService(db *gorm.DB) *PermissionService {
	return &PermissionService{db: db}
}

// HasPermissions reports whether at least one permission references the given
// resource.
func (s *PermissionService) HasPermissions(resourceID uint) (bool, error) {
	var count int64
	err := s.db.Model(&Permission{}).Where("resource_id = ?", resourceID).Count(&count).Error
	return count > 0, err
}

// ListByResource retrieves all permissions for a resource
func (s *PermissionService) ListByResource(resourceID uint) ([]*Permission, error) {
	var perms []*Permission
	err := s.db.Where("resource_id = ?", resourceID).Find(&perms).Error
	return perms, err
}
