package events

// Event names emitted outside of generic CRUD.
const (
	PermissionsUpdated      = "permissions.updated"
	MembershipBrandsUpdated = "memberships.brands_updated"
	MemberInvited           = "members.invited"
	FilePayloadMissing      = "files.payload_missing"
)

// PermissionChanged is emitted after a user's access level on one permission type is set.
type PermissionChanged struct {
	UserID         string
	AccountID      string
	PermissionType string
	AccessLevel    string
	ChangedBy      string
}

// Invitation is emitted when a user is added to an account.
type Invitation struct {
	UserID            string
	AccountID         string
	InvitedByID       string
	TemporaryPassword string
}
