package models

import (
	"gorm.io/datatypes"
)

type User struct {
	Base
	Email            string           `gorm:"uniqueIndex;not null" json:"email"`
	Password         string           `gorm:"not null" json:"-"`
	FirstName        string           `json:"firstName"`
	LastName         string           `json:"lastName"`
	CurrentAccountID string           `gorm:"type:uuid;default:NULL" json:"currentAccountId,omitempty"`
	Memberships      []UserAccount    `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
	Permissions      []UserPermission `gorm:"foreignKey:UserID" json:"permissions,omitempty"`
}

// Account is the tenant boundary; every other entity carries an AccountID.
type Account struct {
	Base
	Name     string         `gorm:"uniqueIndex;not null" json:"name" validate:"required,min=2"`
	Settings datatypes.JSON `gorm:"type:jsonb" json:"settings,omitempty"`
	Members  []UserAccount  `gorm:"foreignKey:AccountID" json:"members,omitempty"`
}

// UserAccount links a user to an account. Exactly one row per (user, account).
type UserAccount struct {
	Base
	UserID         string             `gorm:"type:uuid;not null;uniqueIndex:idx_user_account" json:"userId"`
	User           *User              `json:"user,omitempty"`
	AccountID      string             `gorm:"type:uuid;not null;uniqueIndex:idx_user_account" json:"accountId"`
	Account        *Account           `json:"account,omitempty"`
	RoleType       RoleType           `gorm:"not null;default:'MEMBER'" json:"roleType" validate:"required,role_type"`
	UserType       UserType           `gorm:"not null" json:"userType" validate:"required,user_type"`
	AllowAllBrands bool               `gorm:"not null;default:true" json:"allowAllBrands"`
	Brands         []UserAccountBrand `gorm:"foreignKey:UserBrandAccessID;constraint:OnDelete:CASCADE" json:"brands,omitempty"`
}

// UserAccountBrand is one explicit brand grant on a membership.
type UserAccountBrand struct {
	Base
	UserBrandAccessID string `gorm:"type:uuid;not null;uniqueIndex:idx_membership_brand" json:"userBrandAccessId"`
	BrandID           string `gorm:"type:uuid;not null;uniqueIndex:idx_membership_brand" json:"brandId"`
	Brand             *Brand `json:"brand,omitempty"`
}
