package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base contains common columns for all tables
type Base struct {
	ID        string     `gorm:"type:uuid;primary_key" json:"id"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	DeletedAt *time.Time `gorm:"index;default:NULL" json:"-"`
	IsDeleted bool       `gorm:"not null;default:false" json:"isDeleted"`
}

// BeforeCreate will set a UUID rather than numeric ID
func (base *Base) BeforeCreate(tx *gorm.DB) error {
	if base.ID == "" {
		base.ID = uuid.New().String()
	}
	return nil
}

// UserType is the coarse classification of a membership.
type UserType string

const (
	UserTypePublisher  UserType = "PUBLISHER"
	UserTypeAdvertiser UserType = "ADVERTISER"
)

// RoleType is the role a user holds inside an account.
type RoleType string

const (
	RoleTypeSuperAdmin RoleType = "SUPER_ADMIN"
	RoleTypeAdmin      RoleType = "ADMIN"
	RoleTypeManager    RoleType = "MANAGER"
	RoleTypeMember     RoleType = "MEMBER"
)

// NodeStatus is the soft-delete lifecycle of folders and files.
type NodeStatus string

const (
	NodeStatusActive   NodeStatus = "active"
	NodeStatusInactive NodeStatus = "inactive"
	NodeStatusArchived NodeStatus = "archived"
	NodeStatusDeleted  NodeStatus = "deleted"
)

type BrandStatus string

const (
	BrandStatusActive   BrandStatus = "ACTIVE"
	BrandStatusInactive BrandStatus = "INACTIVE"
)

// IsValidUserType checks if a given user type is valid
func IsValidUserType(t UserType) bool {
	switch t {
	case UserTypePublisher, UserTypeAdvertiser:
		return true
	default:
		return false
	}
}

// IsValidRoleType checks if a given role is valid
func IsValidRoleType(role RoleType) bool {
	switch role {
	case RoleTypeSuperAdmin, RoleTypeAdmin, RoleTypeManager, RoleTypeMember:
		return true
	default:
		return false
	}
}

// IsValidNodeStatus checks a folder/file status against the fixed set.
func IsValidNodeStatus(s NodeStatus) bool {
	switch s {
	case NodeStatusActive, NodeStatusInactive, NodeStatusArchived, NodeStatusDeleted:
		return true
	default:
		return false
	}
}
