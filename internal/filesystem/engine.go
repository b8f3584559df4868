package filesystem

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"adops/internal/brands"
	"adops/internal/common"
	"adops/internal/events"
	"adops/internal/models"
	"adops/internal/utils/logger"
)

// BrandAccessResolver tells the engine which brands a caller may see.
type BrandAccessResolver interface {
	AccessibleBrands(ctx context.Context, userID, accountID string) brands.Access
}

// ACL is the requested access mode of a node. BrandIDs is ignored when AllowAllBrands is set.
type ACL struct {
	AllowAllBrands bool     `json:"allowAllBrands"`
	BrandIDs       []string `json:"brandIds"`
}

type CreateFolderInput struct {
	UserID    string
	AccountID string
	ParentID  *string
	Name      string
	ACL       ACL
}

type CreateFileInput struct {
	UserID           string
	AccountID        string
	FolderID         *string
	Name             string
	OriginalFilename string
	StorageKey       string
	ContentType      string
	Size             int64
	ACL              ACL
}

type SetAclInput struct {
	UserID    string
	AccountID string
	NodeID    string
	ACL       ACL
}

// ListInput selects the direct children of ParentID (nil is the account root).
// Statuses defaults to active nodes only.
type ListInput struct {
	UserID    string
	AccountID string
	ParentID  *string
	Statuses  []models.NodeStatus
}

type Listing struct {
	Folders []Node `json:"folders"`
	Files   []Node `json:"files"`
}

// Engine enforces brand ACLs over a Catalog: a child never allows more than its parent,
// restrictions cascade down the subtree, and listings hide what the caller cannot see.
type Engine struct {
	catalog  Catalog
	resolver BrandAccessResolver
	log      *logger.Logger
}

func NewEngine(catalog Catalog, resolver BrandAccessResolver) *Engine {
	return &Engine{catalog: catalog, resolver: resolver, log: logger.New("acl_engine")}
}

func (e *Engine) CreateFolder(ctx context.Context, in CreateFolderInput) (*Node, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: folder name is required", common.ErrInvalidInput)
	}

	node := &Node{
		Kind:           KindFolder,
		AccountID:      in.AccountID,
		ParentID:       in.ParentID,
		OwnerID:        in.UserID,
		Name:           name,
		AllowAllBrands: in.ACL.AllowAllBrands,
		Status:         models.NodeStatusActive,
	}
	if err := e.create(ctx, node, in.ACL); err != nil {
		return nil, err
	}

	e.log.Info("Folder %s created in account %s", node.ID, node.AccountID)
	events.Emit("folders.created", node)
	return node, nil
}

func (e *Engine) CreateFile(ctx context.Context, in CreateFileInput) (*Node, error) {
	original := strings.TrimSpace(in.OriginalFilename)
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = original
	}
	if original == "" {
		original = name
	}
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", common.ErrInvalidInput)
	}
	if in.StorageKey == "" {
		return nil, fmt.Errorf("%w: storage key is required", common.ErrInvalidInput)
	}

	node := &Node{
		Kind:             KindFile,
		AccountID:        in.AccountID,
		ParentID:         in.FolderID,
		OwnerID:          in.UserID,
		Name:             name,
		OriginalFilename: original,
		AllowAllBrands:   in.ACL.AllowAllBrands,
		Status:           models.NodeStatusActive,
		StorageKey:       in.StorageKey,
		ContentType:      in.ContentType,
		Size:             in.Size,
	}
	if err := e.create(ctx, node, in.ACL); err != nil {
		return nil, err
	}

	e.log.Info("File %s created in account %s", node.ID, node.AccountID)
	events.Emit("files.created", node)
	return node, nil
}

func (e *Engine) create(ctx context.Context, node *Node, acl ACL) error {
	brandIDs := normalize(acl)

	return e.catalog.Atomically(ctx, node.AccountID, func(cat Catalog) error {
		if err := checkBrands(ctx, cat, node.AccountID, brandIDs); err != nil {
			return err
		}
		if err := e.checkParent(ctx, cat, node.AccountID, node.ParentID, acl.AllowAllBrands, brandIDs); err != nil {
			return err
		}

		taken, err := cat.NameTaken(ctx, node.AccountID, node.Kind, node.ParentID, node.uniqueName())
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: %s %q already exists here", common.ErrDuplicateName, node.Kind, node.uniqueName())
		}

		if err := cat.CreateNode(ctx, node); err != nil {
			return err
		}
		if len(brandIDs) > 0 {
			if err := cat.SetBrandSet(ctx, node.Kind, node.ID, brandIDs); err != nil {
				return err
			}
		}
		node.BrandIDs = brandIDs
		return nil
	})
}

func (e *Engine) SetFolderAcl(ctx context.Context, in SetAclInput) (*Node, error) {
	node, err := e.setAcl(ctx, KindFolder, in)
	if err != nil {
		return nil, err
	}
	events.Emit("folders.acl_updated", node)
	return node, nil
}

func (e *Engine) SetFileAcl(ctx context.Context, in SetAclInput) (*Node, error) {
	node, err := e.setAcl(ctx, KindFile, in)
	if err != nil {
		return nil, err
	}
	events.Emit("files.acl_updated", node)
	return node, nil
}

// setAcl validates the new ACL against the node's parent, stores it and, when restricting
// a folder, narrows every descendant. The whole sequence runs in one Atomically call.
func (e *Engine) setAcl(ctx context.Context, kind Kind, in SetAclInput) (*Node, error) {
	brandIDs := normalize(in.ACL)

	var node *Node
	err := e.catalog.Atomically(ctx, in.AccountID, func(cat Catalog) error {
		var err error
		node, err = cat.GetNode(ctx, in.AccountID, kind, in.NodeID)
		if err != nil {
			return err
		}
		if err := checkBrands(ctx, cat, in.AccountID, brandIDs); err != nil {
			return err
		}
		if err := e.checkParent(ctx, cat, in.AccountID, node.ParentID, in.ACL.AllowAllBrands, brandIDs); err != nil {
			return err
		}

		if err := cat.SetMode(ctx, kind, node.ID, in.ACL.AllowAllBrands); err != nil {
			return err
		}
		if err := cat.SetBrandSet(ctx, kind, node.ID, brandIDs); err != nil {
			return err
		}
		node.AllowAllBrands = in.ACL.AllowAllBrands
		node.BrandIDs = brandIDs

		if in.ACL.AllowAllBrands || kind != KindFolder {
			return nil
		}
		return e.cascade(ctx, cat, in.AccountID, node.ID, brandIDs)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("ACL of %s %s set to %s %v by %s", kind, node.ID, node.Mode(), node.BrandIDs, in.UserID)
	return node, nil
}

type cascadeFrame struct {
	folderID string
	bound    []string
}

// cascade walks the subtree under rootID depth first. Each descendant keeps only the brands
// it already had that its parent still allows, and ALL_BRANDS descendants become RESTRICTED.
// A folder left with no brands constrains nothing, so its subtree is not touched.
// Descendants of every status are visited.
func (e *Engine) cascade(ctx context.Context, cat Catalog, accountID, rootID string, bound []string) error {
	stack := []cascadeFrame{{folderID: rootID, bound: bound}}
	visited := 0

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if len(frame.bound) == 0 {
			continue
		}

		parentID := frame.folderID
		folders, files, err := cat.GetChildren(ctx, accountID, &parentID)
		if err != nil {
			return err
		}

		for _, group := range []struct {
			kind  Kind
			nodes []Node
		}{{KindFolder, folders}, {KindFile, files}} {
			if len(group.nodes) == 0 {
				continue
			}
			prior, err := cat.GetBrandSets(ctx, group.kind, ids(group.nodes))
			if err != nil {
				return err
			}

			for _, child := range group.nodes {
				narrowed := intersect(prior[child.ID], frame.bound)
				if child.AllowAllBrands {
					if err := cat.SetMode(ctx, group.kind, child.ID, false); err != nil {
						return err
					}
				}
				if len(narrowed) != len(prior[child.ID]) {
					if err := cat.SetBrandSet(ctx, group.kind, child.ID, narrowed); err != nil {
						return err
					}
				}
				if group.kind == KindFolder {
					stack = append(stack, cascadeFrame{folderID: child.ID, bound: narrowed})
				}
				visited++
			}
		}
	}

	e.log.Debug("Cascade from folder %s visited %d descendants", rootID, visited)
	return nil
}

// ListVisible returns the children of in.ParentID that the caller may see, each group
// in the catalog's name order. A restricted node with no brand rows is visible to everyone.
func (e *Engine) ListVisible(ctx context.Context, in ListInput) (*Listing, error) {
	statuses := in.Statuses
	if len(statuses) == 0 {
		statuses = []models.NodeStatus{models.NodeStatusActive}
	}
	access := e.resolver.AccessibleBrands(ctx, in.UserID, in.AccountID)

	listing := &Listing{Folders: []Node{}, Files: []Node{}}
	err := e.catalog.Snapshot(ctx, func(cat Catalog) error {
		if in.ParentID != nil {
			if _, err := cat.GetNode(ctx, in.AccountID, KindFolder, *in.ParentID); err != nil {
				return err
			}
		}

		folders, files, err := cat.GetChildren(ctx, in.AccountID, in.ParentID)
		if err != nil {
			return err
		}
		if listing.Folders, err = e.visible(ctx, cat, KindFolder, folders, statuses, access); err != nil {
			return err
		}
		listing.Files, err = e.visible(ctx, cat, KindFile, files, statuses, access)
		return err
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

func (e *Engine) visible(ctx context.Context, cat Catalog, kind Kind, nodes []Node, statuses []models.NodeStatus, access brands.Access) ([]Node, error) {
	candidates := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if hasStatus(statuses, n.Status) {
			candidates = append(candidates, n)
		}
	}

	sets, err := cat.GetBrandSets(ctx, kind, restrictedIDs(candidates))
	if err != nil {
		return nil, err
	}

	out := make([]Node, 0, len(candidates))
	for _, n := range candidates {
		if !n.AllowAllBrands {
			n.BrandIDs = sets[n.ID]
			if len(n.BrandIDs) > 0 && !access.AllowsAny(n.BrandIDs) {
				continue
			}
		}
		out = append(out, n)
	}
	return out, nil
}

// checkParent loads the parent folder's ACL, if any, and validates the child against it.
func (e *Engine) checkParent(ctx context.Context, cat Catalog, accountID string, parentID *string, allowAll bool, brandIDs []string) error {
	if parentID == nil {
		return nil
	}
	parent, err := cat.GetNode(ctx, accountID, KindFolder, *parentID)
	if err != nil {
		return err
	}
	if parent.AllowAllBrands {
		return nil
	}
	parentSet, err := cat.GetBrandSet(ctx, KindFolder, parent.ID)
	if err != nil {
		return err
	}
	return validate(parentSet, allowAll, brandIDs)
}

// checkBrands rejects brand ids that are not live brands of the account.
func checkBrands(ctx context.Context, cat Catalog, accountID string, brandIDs []string) error {
	if len(brandIDs) == 0 {
		return nil
	}
	unknown, err := cat.UnknownBrands(ctx, accountID, brandIDs)
	if err != nil {
		return err
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%w: unknown brand %v", common.ErrInvalidInput, unknown)
	}
	return nil
}

// validate applies the parent-subset rule for a restricted parent with brand set parentSet.
// An empty parentSet imposes no constraint.
func validate(parentSet []string, allowAll bool, brandIDs []string) error {
	if len(parentSet) == 0 {
		return nil
	}
	if allowAll {
		return &common.AclViolationError{Allowed: parentSet}
	}

	allowed := toSet(parentSet)
	var offending []string
	for _, id := range brandIDs {
		if _, ok := allowed[id]; !ok {
			offending = append(offending, id)
		}
	}
	if len(offending) > 0 {
		return &common.AclViolationError{Offending: offending, Allowed: parentSet}
	}
	return nil
}

// normalize drops blanks and duplicates and sorts. ALL_BRANDS carries no brand rows.
func normalize(acl ACL) []string {
	if acl.AllowAllBrands {
		return nil
	}
	seen := make(map[string]struct{}, len(acl.BrandIDs))
	out := make([]string, 0, len(acl.BrandIDs))
	for _, id := range acl.BrandIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func intersect(have, bound []string) []string {
	allowed := toSet(bound)
	out := make([]string, 0, len(have))
	for _, id := range have {
		if _, ok := allowed[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// missing returns the ids in want that are absent from have.
func missing(want, have []string) []string {
	present := toSet(have)
	var out []string
	for _, id := range want {
		if _, ok := present[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func ids(nodes []Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func restrictedIDs(nodes []Node) []string {
	var out []string
	for _, n := range nodes {
		if !n.AllowAllBrands {
			out = append(out, n.ID)
		}
	}
	return out
}

func hasStatus(statuses []models.NodeStatus, status models.NodeStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
