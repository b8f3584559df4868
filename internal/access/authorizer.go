package access

import (
	"context"
	"fmt"

	"adops/internal/common"
	"adops/internal/events"
	"adops/internal/models"
	"adops/internal/utils/logger"
)

// Authorizer answers authorization questions for stored users by combining a Store with a Gate.
type Authorizer struct {
	store Store
	gate  *Gate
	log   *logger.Logger
}

func NewAuthorizer(store Store, gate *Gate) *Authorizer {
	return &Authorizer{store: store, gate: gate, log: logger.New("authorizer")}
}

func (a *Authorizer) Gate() *Gate {
	return a.gate
}

// AuthorizeAction loads the user's grants in accountID and checks pt against required.
func (a *Authorizer) AuthorizeAction(ctx context.Context, userID, accountID string, pt models.PermissionType, required models.AccessLevel) (bool, error) {
	grants, err := a.store.Grants(ctx, userID, accountID)
	if err != nil {
		return false, a.log.Error("Failed to load grants for user %s", err, userID)
	}
	return a.gate.Authorize(grants, pt, required), nil
}

// GrantsFor returns the stored grants, filling types without a row with the lattice bottom.
func (a *Authorizer) GrantsFor(ctx context.Context, userID, accountID string) ([]Grant, error) {
	grants, err := a.store.Grants(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	out := make([]Grant, 0, len(a.gate.lattice.Types()))
	for _, pt := range a.gate.lattice.Types() {
		if grant, ok := find(grants, pt); ok {
			out = append(out, grant)
			continue
		}
		out = append(out, Grant{Type: pt, Level: a.gate.lattice.levels[pt][0]})
	}
	return out, nil
}

// AssignLevel sets targetID's level on pt. The assigner needs full user management and
// may not hand out more than they hold on pt.
func (a *Authorizer) AssignLevel(ctx context.Context, assignerID, targetID, accountID string, pt models.PermissionType, level models.AccessLevel) error {
	return a.AssignLevels(ctx, assignerID, targetID, accountID, []Grant{{Type: pt, Level: level}})
}

// AssignLevels applies AssignLevel's rules to every assignment before storing any of them.
// A later assignment of the same type replaces an earlier one.
func (a *Authorizer) AssignLevels(ctx context.Context, assignerID, targetID, accountID string, assignments []Grant) error {
	for _, g := range assignments {
		if !a.gate.lattice.IsValid(g.Type, g.Level) {
			return fmt.Errorf("%w: %s is not a level of %s", common.ErrInvalidInput, g.Level, g.Type)
		}
	}

	grants, err := a.store.Grants(ctx, assignerID, accountID)
	if err != nil {
		return a.log.Error("Failed to load grants for assigner %s", err, assignerID)
	}

	if !a.gate.Authorize(grants, models.PermissionUserManagement, models.AccessFull) {
		return fmt.Errorf("%w: assigning permissions requires %s %s",
			common.ErrUnauthorizedAction, models.PermissionUserManagement, models.AccessFull)
	}
	for _, g := range assignments {
		if !a.gate.CanAssign(grants, g.Type, g.Level) {
			return fmt.Errorf("%w: cannot grant %s on %s above own level",
				common.ErrUnauthorizedAction, g.Level, g.Type)
		}
	}

	batch := lastPerType(assignments)
	if err := a.store.SetLevels(ctx, targetID, accountID, batch); err != nil {
		return a.log.Error("Failed to set permissions for user %s", err, targetID)
	}
	for _, g := range batch {
		a.log.Info("User %s set %s=%s for user %s", assignerID, g.Type, g.Level, targetID)
		events.Emit(events.PermissionsUpdated, events.PermissionChanged{
			UserID:         targetID,
			AccountID:      accountID,
			PermissionType: string(g.Type),
			AccessLevel:    string(g.Level),
			ChangedBy:      assignerID,
		})
	}
	return nil
}

func lastPerType(assignments []Grant) []Grant {
	index := make(map[models.PermissionType]int, len(assignments))
	out := make([]Grant, 0, len(assignments))
	for _, g := range assignments {
		if i, ok := index[g.Type]; ok {
			out[i] = g
			continue
		}
		index[g.Type] = len(out)
		out = append(out, g)
	}
	return out
}
