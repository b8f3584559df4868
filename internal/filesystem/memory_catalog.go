package filesystem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"adops/internal/common"

	"github.com/google/uuid"
)

type nodeKey struct {
	kind Kind
	id   string
}

// memoryState implements Catalog without locking. MemoryCatalog guards it.
type memoryState struct {
	nodes  map[nodeKey]Node
	brands map[nodeKey][]string
	// known holds the brand ids of each account
	known map[string]map[string]struct{}
}

func newMemoryState() *memoryState {
	return &memoryState{
		nodes:  make(map[nodeKey]Node),
		brands: make(map[nodeKey][]string),
		known:  make(map[string]map[string]struct{}),
	}
}

func (s *memoryState) clone() *memoryState {
	out := newMemoryState()
	for k, n := range s.nodes {
		out.nodes[k] = n
	}
	for k, set := range s.brands {
		out.brands[k] = append([]string(nil), set...)
	}
	for account, ids := range s.known {
		out.known[account] = make(map[string]struct{}, len(ids))
		for id := range ids {
			out.known[account][id] = struct{}{}
		}
	}
	return out
}

func (s *memoryState) registerBrands(accountID string, brandIDs ...string) {
	if s.known[accountID] == nil {
		s.known[accountID] = make(map[string]struct{})
	}
	for _, id := range brandIDs {
		s.known[accountID][id] = struct{}{}
	}
}

func (s *memoryState) GetNode(_ context.Context, accountID string, kind Kind, id string) (*Node, error) {
	n, ok := s.nodes[nodeKey{kind, id}]
	if !ok || n.AccountID != accountID {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNodeNotFound, kind, id)
	}
	return &n, nil
}

func (s *memoryState) GetChildren(_ context.Context, accountID string, parentID *string) ([]Node, []Node, error) {
	var folders, files []Node
	for _, n := range s.nodes {
		if n.AccountID != accountID || !sameParent(n.ParentID, parentID) {
			continue
		}
		if n.Kind == KindFolder {
			folders = append(folders, n)
		} else {
			files = append(files, n)
		}
	}
	sortByName(folders)
	sortByName(files)
	return folders, files, nil
}

func (s *memoryState) GetBrandSet(_ context.Context, kind Kind, id string) ([]string, error) {
	return append([]string(nil), s.brands[nodeKey{kind, id}]...), nil
}

func (s *memoryState) GetBrandSets(_ context.Context, kind Kind, ids []string) (map[string][]string, error) {
	out := make(map[string][]string, len(ids))
	for _, id := range ids {
		if set := s.brands[nodeKey{kind, id}]; len(set) > 0 {
			out[id] = append([]string(nil), set...)
		}
	}
	return out, nil
}

func (s *memoryState) SetBrandSet(_ context.Context, kind Kind, id string, brandIDs []string) error {
	key := nodeKey{kind, id}
	if _, ok := s.nodes[key]; !ok {
		return fmt.Errorf("%w: %s %s", common.ErrNodeNotFound, kind, id)
	}
	if len(brandIDs) == 0 {
		delete(s.brands, key)
		return nil
	}
	s.brands[key] = append([]string(nil), brandIDs...)
	return nil
}

func (s *memoryState) SetMode(_ context.Context, kind Kind, id string, allowAllBrands bool) error {
	key := nodeKey{kind, id}
	n, ok := s.nodes[key]
	if !ok {
		return fmt.Errorf("%w: %s %s", common.ErrNodeNotFound, kind, id)
	}
	n.AllowAllBrands = allowAllBrands
	s.nodes[key] = n
	return nil
}

func (s *memoryState) CreateNode(_ context.Context, n *Node) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	n.CreatedAt = time.Now()
	stored := *n
	stored.BrandIDs = nil
	s.nodes[nodeKey{n.Kind, n.ID}] = stored
	return nil
}

func (s *memoryState) NameTaken(_ context.Context, accountID string, kind Kind, parentID *string, name string) (bool, error) {
	for _, n := range s.nodes {
		if n.Kind == kind && n.AccountID == accountID && sameParent(n.ParentID, parentID) && n.uniqueName() == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *memoryState) UnknownBrands(_ context.Context, accountID string, brandIDs []string) ([]string, error) {
	var unknown []string
	for _, id := range brandIDs {
		if _, ok := s.known[accountID][id]; !ok {
			unknown = append(unknown, id)
		}
	}
	return unknown, nil
}

func (s *memoryState) Atomically(_ context.Context, _ string, fn func(Catalog) error) error {
	return fn(s)
}

func (s *memoryState) Snapshot(_ context.Context, fn func(Catalog) error) error {
	return fn(s)
}

// MemoryCatalog is an in-process Catalog. Writers take the lock exclusively for the whole
// Atomically call, so readers inside Snapshot never see half of a cascade.
type MemoryCatalog struct {
	mu    sync.RWMutex
	state *memoryState
}

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{state: newMemoryState()}
}

// RegisterBrands makes brandIDs usable in ACLs of accountID.
func (c *MemoryCatalog) RegisterBrands(accountID string, brandIDs ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.registerBrands(accountID, brandIDs...)
}

func (c *MemoryCatalog) GetNode(ctx context.Context, accountID string, kind Kind, id string) (*Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.GetNode(ctx, accountID, kind, id)
}

func (c *MemoryCatalog) GetChildren(ctx context.Context, accountID string, parentID *string) ([]Node, []Node, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.GetChildren(ctx, accountID, parentID)
}

func (c *MemoryCatalog) GetBrandSet(ctx context.Context, kind Kind, id string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.GetBrandSet(ctx, kind, id)
}

func (c *MemoryCatalog) GetBrandSets(ctx context.Context, kind Kind, ids []string) (map[string][]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.GetBrandSets(ctx, kind, ids)
}

func (c *MemoryCatalog) SetBrandSet(ctx context.Context, kind Kind, id string, brandIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SetBrandSet(ctx, kind, id, brandIDs)
}

func (c *MemoryCatalog) SetMode(ctx context.Context, kind Kind, id string, allowAllBrands bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SetMode(ctx, kind, id, allowAllBrands)
}

func (c *MemoryCatalog) CreateNode(ctx context.Context, n *Node) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.CreateNode(ctx, n)
}

func (c *MemoryCatalog) NameTaken(ctx context.Context, accountID string, kind Kind, parentID *string, name string) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.NameTaken(ctx, accountID, kind, parentID, name)
}

func (c *MemoryCatalog) UnknownBrands(ctx context.Context, accountID string, brandIDs []string) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.UnknownBrands(ctx, accountID, brandIDs)
}

// Atomically restores the previous state when fn fails.
func (c *MemoryCatalog) Atomically(ctx context.Context, _ string, fn func(Catalog) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	backup := c.state.clone()
	if err := fn(c.state); err != nil {
		c.state = backup
		return err
	}
	return nil
}

func (c *MemoryCatalog) Snapshot(ctx context.Context, fn func(Catalog) error) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return fn(c.state)
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortByName(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Name != nodes[j].Name {
			return nodes[i].Name < nodes[j].Name
		}
		return nodes[i].ID < nodes[j].ID
	})
}
