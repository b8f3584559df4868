package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"adops/internal/events"
)

type ParentCompany struct {
	Base
	AccountID string  `gorm:"type:uuid;not null;uniqueIndex:idx_account_parent_company" json:"accountId" validate:"omitempty,uuid"`
	Name      string  `gorm:"not null;uniqueIndex:idx_account_parent_company" json:"name" validate:"required,min=2"`
	Brands    []Brand `gorm:"foreignKey:ParentCompanyID" json:"brands,omitempty"`
}

// Brand belongs to an account and optionally to a parent company. Name is unique per account.
type Brand struct {
	Base
	AccountID          string         `gorm:"type:uuid;not null;uniqueIndex:idx_account_brand_name" json:"accountId"`
	Account            *Account       `json:"account,omitempty"`
	ParentCompanyID    *string        `gorm:"type:uuid;default:NULL" json:"parentCompanyId,omitempty"`
	ParentCompany      *ParentCompany `json:"parentCompany,omitempty"`
	Name               string         `gorm:"not null;uniqueIndex:idx_account_brand_name" json:"name"`
	Status             BrandStatus    `gorm:"not null;default:'ACTIVE'" json:"status"`
	PublisherSharePerc float64        `gorm:"not null;default:0" json:"publisherSharePerc"`
	AllowAllProducts   bool           `gorm:"not null;default:true" json:"allowAllProducts"`
	CreatedByID        string         `gorm:"type:uuid" json:"createdById"`
}

func (b *Brand) AfterCreate(tx *gorm.DB) error {
	events.Emit("brands.created", b)
	return nil
}

// Playlist is digital-signage content; its items are kept as an opaque JSON document.
type Playlist struct {
	Base
	AccountID   string         `gorm:"type:uuid;not null;index" json:"accountId" validate:"omitempty,uuid"`
	BrandID     *string        `gorm:"type:uuid;default:NULL" json:"brandId,omitempty" validate:"omitempty,uuid"`
	Name        string         `gorm:"not null" json:"name" validate:"required,min=1"`
	Description string         `json:"description"`
	Items       datatypes.JSON `gorm:"type:jsonb" json:"items,omitempty"`
	Status      string         `gorm:"not null;default:'DRAFT'" json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
}
