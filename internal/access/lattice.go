// Package access ranks access levels per permission type and decides whether a
// user's grants satisfy a required level.
package access

import (
	"fmt"
	"sort"

	"adops/internal/common"
	"adops/internal/models"
)

// Lattice holds, per permission type, its access levels ordered weakest first.
// It is immutable after construction.
type Lattice struct {
	levels map[models.PermissionType][]models.AccessLevel
	ranks  map[models.PermissionType]map[models.AccessLevel]int
}

var standardLevels = []models.AccessLevel{models.AccessNone, models.AccessView, models.AccessFull}

// DefaultConfig is the product lattice configuration.
func DefaultConfig() map[models.PermissionType][]models.AccessLevel {
	return map[models.PermissionType][]models.AccessLevel{
		models.PermissionUserManagement:     standardLevels,
		models.PermissionBrandManagement:    standardLevels,
		models.PermissionFileManagement:     standardLevels,
		models.PermissionPlaylistManagement: standardLevels,
		models.PermissionAccountSettings:    standardLevels,
		models.PermissionWallet: {
			models.AccessNone, models.AccessView, models.AccessManageWallet, models.AccessFull,
		},
		models.PermissionReportGeneration: {
			models.AccessNone, models.AccessView, models.AccessGenerateReports, models.AccessFull,
		},
		models.PermissionApprovalRequests: {
			models.AccessNone, models.AccessView, models.AccessApproveRequests, models.AccessFull,
		},
	}
}

// NewLattice builds a lattice from cfg. A level listed twice for one type is rejected.
func NewLattice(cfg map[models.PermissionType][]models.AccessLevel) (*Lattice, error) {
	l := &Lattice{
		levels: make(map[models.PermissionType][]models.AccessLevel, len(cfg)),
		ranks:  make(map[models.PermissionType]map[models.AccessLevel]int, len(cfg)),
	}
	for pt, levels := range cfg {
		if len(levels) == 0 {
			return nil, fmt.Errorf("permission type %s has no access levels", pt)
		}
		ranks := make(map[models.AccessLevel]int, len(levels))
		for i, level := range levels {
			if _, dup := ranks[level]; dup {
				return nil, fmt.Errorf("permission type %s lists %s twice", pt, level)
			}
			ranks[level] = i
		}
		l.levels[pt] = append([]models.AccessLevel(nil), levels...)
		l.ranks[pt] = ranks
	}
	return l, nil
}

// DefaultLattice returns the lattice for DefaultConfig.
func DefaultLattice() *Lattice {
	l, err := NewLattice(DefaultConfig())
	if err != nil {
		panic(err)
	}
	return l
}

// AllowedLevels returns the ordered levels of pt, weakest first.
func (l *Lattice) AllowedLevels(pt models.PermissionType) ([]models.AccessLevel, error) {
	levels, ok := l.levels[pt]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrUnknownPermissionType, pt)
	}
	return append([]models.AccessLevel(nil), levels...), nil
}

// Rank returns the index of level inside the lattice of pt.
func (l *Lattice) Rank(pt models.PermissionType, level models.AccessLevel) (int, error) {
	ranks, ok := l.ranks[pt]
	if !ok {
		return 0, fmt.Errorf("%w: %s", common.ErrUnknownPermissionType, pt)
	}
	rank, ok := ranks[level]
	if !ok {
		return 0, fmt.Errorf("%w: %s for %s", common.ErrUnknownAccessLevel, level, pt)
	}
	return rank, nil
}

// MeetsOrExceeds reports whether have ranks at or above required. Unknown types or
// levels on either side yield false.
func (l *Lattice) MeetsOrExceeds(pt models.PermissionType, have, required models.AccessLevel) bool {
	haveRank, err := l.Rank(pt, have)
	if err != nil {
		return false
	}
	requiredRank, err := l.Rank(pt, required)
	if err != nil {
		return false
	}
	return haveRank >= requiredRank
}

// Types returns the permission types known to the lattice, product types first.
func (l *Lattice) Types() []models.PermissionType {
	out := make([]models.PermissionType, 0, len(l.levels))
	seen := make(map[models.PermissionType]bool, len(l.levels))
	for _, pt := range models.AllPermissionTypes {
		if _, ok := l.levels[pt]; ok {
			out = append(out, pt)
			seen[pt] = true
		}
	}
	var extra []models.PermissionType
	for pt := range l.levels {
		if !seen[pt] {
			extra = append(extra, pt)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(out, extra...)
}

// IsValid reports whether level belongs to the lattice of pt.
func (l *Lattice) IsValid(pt models.PermissionType, level models.AccessLevel) bool {
	_, err := l.Rank(pt, level)
	return err == nil
}
