package models

// Folder is a tree node; ParentID nil means the folder sits at the account root.
type Folder struct {
	Base
	AccountID      string              `gorm:"type:uuid;not null;index:idx_folder_parent" json:"accountId"`
	ParentID       *string             `gorm:"type:uuid;default:NULL;index:idx_folder_parent" json:"parentId,omitempty"`
	Parent         *Folder             `json:"parent,omitempty"`
	OwnerID        string              `gorm:"type:uuid;not null" json:"ownerId"`
	Name           string              `gorm:"not null" json:"name"`
	AllowAllBrands bool                `gorm:"not null;default:true" json:"allowAllBrands"`
	Status         NodeStatus          `gorm:"not null;default:'active'" json:"status"`
	BrandAccess    []FolderBrandAccess `gorm:"foreignKey:FolderID;constraint:OnDelete:CASCADE" json:"brandAccess,omitempty"`
}

// File is a leaf node; FolderID nil means a root-level file.
type File struct {
	Base
	AccountID        string            `gorm:"type:uuid;not null;index:idx_file_folder" json:"accountId"`
	FolderID         *string           `gorm:"type:uuid;default:NULL;index:idx_file_folder" json:"folderId,omitempty"`
	Folder           *Folder           `json:"folder,omitempty"`
	OwnerID          string            `gorm:"type:uuid;not null" json:"ownerId"`
	Name             string            `gorm:"not null" json:"name"`
	OriginalFilename string            `gorm:"not null" json:"originalFilename"`
	StorageKey       string            `gorm:"not null" json:"storageKey"`
	ContentType      string            `json:"contentType"`
	Size             int64             `gorm:"not null;default:0" json:"size"`
	AllowAllBrands   bool              `gorm:"not null;default:true" json:"allowAllBrands"`
	Status           NodeStatus        `gorm:"not null;default:'active'" json:"status"`
	BrandAccess      []FileBrandAccess `gorm:"foreignKey:FileID;constraint:OnDelete:CASCADE" json:"brandAccess,omitempty"`
}

// FolderBrandAccess grants a brand visibility into a restricted folder.
type FolderBrandAccess struct {
	FolderID string `gorm:"type:uuid;primaryKey" json:"folderId"`
	BrandID  string `gorm:"type:uuid;primaryKey" json:"brandId"`
}

// FileBrandAccess grants a brand visibility into a restricted file.
type FileBrandAccess struct {
	FileID  string `gorm:"type:uuid;primaryKey" json:"fileId"`
	BrandID string `gorm:"type:uuid;primaryKey" json:"brandId"`
}
