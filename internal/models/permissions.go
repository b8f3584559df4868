package models

// PermissionType is a named capability domain, each with its own access-level lattice.
type PermissionType string

const (
	PermissionUserManagement     PermissionType = "USER_MANAGEMENT"
	PermissionBrandManagement    PermissionType = "BRAND_MANAGEMENT"
	PermissionFileManagement     PermissionType = "FILE_MANAGEMENT"
	PermissionPlaylistManagement PermissionType = "PLAYLIST_MANAGEMENT"
	PermissionAccountSettings    PermissionType = "ACCOUNT_SETTINGS"
	PermissionWallet             PermissionType = "WALLET"
	PermissionReportGeneration   PermissionType = "REPORT_GENERATION"
	PermissionApprovalRequests   PermissionType = "APPROVAL_REQUESTS"
)

// AccessLevel is an ordinal token inside a permission type's lattice.
type AccessLevel string

const (
	AccessNone            AccessLevel = "NO_ACCESS"
	AccessView            AccessLevel = "VIEW_ACCESS"
	AccessManageWallet    AccessLevel = "MANAGE_WALLET"
	AccessGenerateReports AccessLevel = "GENERATE_REPORTS"
	AccessApproveRequests AccessLevel = "APPROVE_REQUESTS"
	AccessFull            AccessLevel = "FULL_ACCESS"
)

// AllPermissionTypes lists every permission type known to the product.
var AllPermissionTypes = []PermissionType{
	PermissionUserManagement,
	PermissionBrandManagement,
	PermissionFileManagement,
	PermissionPlaylistManagement,
	PermissionAccountSettings,
	PermissionWallet,
	PermissionReportGeneration,
	PermissionApprovalRequests,
}

// UserPermission stores one access level per (user, account, permission type).
type UserPermission struct {
	Base
	UserID         string         `gorm:"type:uuid;not null;uniqueIndex:idx_user_account_permission" json:"userId"`
	User           *User          `json:"user,omitempty"`
	AccountID      string         `gorm:"type:uuid;not null;uniqueIndex:idx_user_account_permission" json:"accountId"`
	Account        *Account       `json:"account,omitempty"`
	PermissionType PermissionType `gorm:"not null;uniqueIndex:idx_user_account_permission" json:"permissionType" validate:"required,permission_type"`
	AccessLevel    AccessLevel    `gorm:"not null;default:'NO_ACCESS'" json:"accessLevel" validate:"required,access_level"`
}
