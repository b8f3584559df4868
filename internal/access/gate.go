package access

import (
	"adops/internal/models"
	"adops/internal/utils/logger"
)

// Grant is one (permission type, access level) assignment held by a user in an account.
type Grant struct {
	Type  models.PermissionType `json:"permissionType"`
	Level models.AccessLevel    `json:"accessLevel"`
}

// GrantsFrom converts stored permission rows into grants.
func GrantsFrom(perms []models.UserPermission) []Grant {
	grants := make([]Grant, 0, len(perms))
	for _, p := range perms {
		grants = append(grants, Grant{Type: p.PermissionType, Level: p.AccessLevel})
	}
	return grants
}

// Gate is a pure decision function over a lattice; it holds no per-request state.
type Gate struct {
	lattice *Lattice
	log     *logger.Logger
}

func NewGate(lattice *Lattice) *Gate {
	return &Gate{lattice: lattice, log: logger.New("access_gate")}
}

func (g *Gate) Lattice() *Lattice {
	return g.lattice
}

// Authorize reports whether the grant for pt meets required. No grant for pt means no access.
func (g *Gate) Authorize(grants []Grant, pt models.PermissionType, required models.AccessLevel) bool {
	if _, err := g.lattice.Rank(pt, required); err != nil {
		g.log.Warn("Denying %s: %v", pt, err)
		return false
	}

	grant, ok := find(grants, pt)
	if !ok {
		return false
	}

	if !g.lattice.IsValid(pt, grant.Level) {
		g.log.Warn("Denying %s: stored level %s is not in the lattice", pt, grant.Level)
		return false
	}
	return g.lattice.MeetsOrExceeds(pt, grant.Level, required)
}

// CanAssign reports whether a holder of assignerGrants may grant level on pt to someone else.
// An assigner without a grant for pt ranks at the bottom of the lattice.
func (g *Gate) CanAssign(assignerGrants []Grant, pt models.PermissionType, level models.AccessLevel) bool {
	target, err := g.lattice.Rank(pt, level)
	if err != nil {
		g.log.Warn("Refusing to assign %s on %s: %v", level, pt, err)
		return false
	}

	assignerRank := 0
	if grant, ok := find(assignerGrants, pt); ok {
		if rank, err := g.lattice.Rank(pt, grant.Level); err == nil {
			assignerRank = rank
		}
	}
	return target <= assignerRank
}

func find(grants []Grant, pt models.PermissionType) (Grant, bool) {
	for _, grant := range grants {
		if grant.Type == pt {
			return grant, true
		}
	}
	return Grant{}, false
}
