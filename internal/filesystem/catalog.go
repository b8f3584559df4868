// Package filesystem keeps the folder/file tree of an account and enforces brand ACLs on it.
package filesystem

import (
	"context"
	"time"

	"adops/internal/models"
)

type Kind string

const (
	KindFolder Kind = "folder"
	KindFile   Kind = "file"
)

// Mode is the ACL mode of a node.
type Mode string

const (
	ModeAllBrands  Mode = "ALL_BRANDS"
	ModeRestricted Mode = "RESTRICTED"
)

// Node is the catalog view of a folder or file. For files ParentID is the containing folder.
type Node struct {
	ID               string            `json:"id"`
	Kind             Kind              `json:"kind"`
	AccountID        string            `json:"accountId"`
	ParentID         *string           `json:"parentId,omitempty"`
	OwnerID          string            `json:"ownerId"`
	Name             string            `json:"name"`
	OriginalFilename string            `json:"originalFilename,omitempty"`
	AllowAllBrands   bool              `json:"allowAllBrands"`
	BrandIDs         []string          `json:"brandIds"`
	Status           models.NodeStatus `json:"status"`
	StorageKey       string            `json:"storageKey,omitempty"`
	ContentType      string            `json:"contentType,omitempty"`
	Size             int64             `json:"size,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

func (n *Node) Mode() Mode {
	if n.AllowAllBrands {
		return ModeAllBrands
	}
	return ModeRestricted
}

// uniqueName is the name siblings must not share: folder name, or a file's original filename.
func (n *Node) uniqueName() string {
	if n.Kind == KindFile {
		return n.OriginalFilename
	}
	return n.Name
}

// Catalog stores tree structure and brand rows. It holds no ACL logic.
type Catalog interface {
	// GetNode returns common.ErrNodeNotFound when id does not exist in accountID.
	GetNode(ctx context.Context, accountID string, kind Kind, id string) (*Node, error)
	// GetChildren returns the direct folders and files under parentID (nil is the root),
	// each group ordered by name, whatever their status.
	GetChildren(ctx context.Context, accountID string, parentID *string) (folders, files []Node, err error)
	GetBrandSet(ctx context.Context, kind Kind, id string) ([]string, error)
	// GetBrandSets batches GetBrandSet. Ids without rows are absent from the result.
	GetBrandSets(ctx context.Context, kind Kind, ids []string) (map[string][]string, error)
	SetBrandSet(ctx context.Context, kind Kind, id string, brandIDs []string) error
	SetMode(ctx context.Context, kind Kind, id string, allowAllBrands bool) error
	// CreateNode persists n and fills in its ID and CreatedAt.
	CreateNode(ctx context.Context, n *Node) error
	NameTaken(ctx context.Context, accountID string, kind Kind, parentID *string, name string) (bool, error)
	// UnknownBrands returns the ids in brandIDs that are not live brands of accountID.
	UnknownBrands(ctx context.Context, accountID string, brandIDs []string) ([]string, error)

	// Atomically runs fn with writes to accountID serialised and rolled back if fn fails.
	Atomically(ctx context.Context, accountID string, fn func(Catalog) error) error
	// Snapshot runs fn against a consistent read-only view.
	Snapshot(ctx context.Context, fn func(Catalog) error) error
}
