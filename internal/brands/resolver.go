// Package brands resolves which brands a member may see and manages the brand catalogue.
package brands

import (
	"context"
	"sort"

	"adops/internal/utils/logger"
)

// MembershipStore returns the explicit brand grants of a user's membership in an account.
type MembershipStore interface {
	BrandGrants(ctx context.Context, userID, accountID string) ([]string, error)
}

// Access is the set of brands visible to a member. Unrestricted means every brand.
type Access struct {
	Unrestricted bool
	IDs          map[string]struct{}
}

// Allows reports whether brandID is visible under a.
func (a Access) Allows(brandID string) bool {
	if a.Unrestricted {
		return true
	}
	_, ok := a.IDs[brandID]
	return ok
}

// AllowsAny reports whether at least one of brandIDs is visible under a.
func (a Access) AllowsAny(brandIDs []string) bool {
	if a.Unrestricted {
		return true
	}
	for _, id := range brandIDs {
		if _, ok := a.IDs[id]; ok {
			return true
		}
	}
	return false
}

// List returns the explicit brand ids sorted. It is nil for unrestricted access.
func (a Access) List() []string {
	if a.Unrestricted {
		return nil
	}
	out := make([]string, 0, len(a.IDs))
	for id := range a.IDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type Resolver struct {
	store MembershipStore
	log   *logger.Logger
}

func NewResolver(store MembershipStore) *Resolver {
	return &Resolver{store: store, log: logger.New("brand_resolver")}
}

// AccessibleBrands computes the brands userID may see in accountID.
//
// A membership with no grant rows is unrestricted whatever its allowAllBrands flag says,
// and a failed lookup is unrestricted too. Both are kept for compatibility with existing data.
func (r *Resolver) AccessibleBrands(ctx context.Context, userID, accountID string) Access {
	grants, err := r.store.BrandGrants(ctx, userID, accountID)
	if err != nil {
		r.log.Warn("Brand lookup failed for user %s in account %s, allowing all brands: %v", userID, accountID, err)
		return Access{Unrestricted: true}
	}
	if len(grants) == 0 {
		return Access{Unrestricted: true}
	}

	ids := make(map[string]struct{}, len(grants))
	for _, id := range grants {
		ids[id] = struct{}{}
	}
	return Access{IDs: ids}
}

func (r *Resolver) HasBrandAccess(ctx context.Context, userID, accountID, brandID string) bool {
	return r.AccessibleBrands(ctx, userID, accountID).Allows(brandID)
}
