package tasks

import (
	"context"
	"fmt"

	"adops/internal/events"
	"adops/internal/mail"
	"adops/internal/models"
	"adops/internal/utils/logger"

	"gorm.io/gorm"
)

// Notifier turns domain events into email:send tasks.
type Notifier struct {
	db        *gorm.DB
	queue     Enqueuer
	publicURL string
	logger    *logger.Logger
}

func NewNotifier(db *gorm.DB, queue Enqueuer, publicURL string) *Notifier {
	return &Notifier{db: db, queue: queue, publicURL: publicURL, logger: logger.New("notifier")}
}

// Subscribe registers the notifier on the global event bus.
func (n *Notifier) Subscribe() {
	events.On(events.PermissionsUpdated, func(data interface{}) {
		if e, ok := data.(events.PermissionChanged); ok {
			n.logFailure(n.PermissionChanged(context.Background(), e))
		}
	})
	events.On(events.MembershipBrandsUpdated, func(data interface{}) {
		if m, ok := data.(*models.UserAccount); ok {
			n.logFailure(n.BrandAccessChanged(context.Background(), m))
		}
	})
	events.On(events.MemberInvited, func(data interface{}) {
		if e, ok := data.(events.Invitation); ok {
			n.logFailure(n.Invited(context.Background(), e))
		}
	})
}

func (n *Notifier) logFailure(err error) {
	if err != nil {
		n.logger.Warn("Notification not queued: %v", err)
	}
}

func (n *Notifier) lookup(ctx context.Context, userID, accountID string) (*models.User, *models.Account, error) {
	db := n.db.WithContext(ctx)

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return nil, nil, fmt.Errorf("user %s: %w", userID, err)
	}
	var account models.Account
	if err := db.Where("id = ? AND is_deleted = ?", accountID, false).First(&account).Error; err != nil {
		return nil, nil, fmt.Errorf("account %s: %w", accountID, err)
	}
	return &user, &account, nil
}

func (n *Notifier) PermissionChanged(ctx context.Context, e events.PermissionChanged) error {
	user, account, err := n.lookup(ctx, e.UserID, e.AccountID)
	if err != nil {
		return err
	}
	return n.queue.Enqueue(ctx, TaskTypeSendEmail, EmailPayload{
		To:       user.Email,
		Template: mail.TemplatePermissionsChanged,
		Data: map[string]interface{}{
			"AccountName":    account.Name,
			"PermissionType": e.PermissionType,
			"AccessLevel":    e.AccessLevel,
		},
	})
}

func (n *Notifier) BrandAccessChanged(ctx context.Context, m *models.UserAccount) error {
	user, account, err := n.lookup(ctx, m.UserID, m.AccountID)
	if err != nil {
		return err
	}
	brandIDs := make([]string, 0, len(m.Brands))
	for _, b := range m.Brands {
		brandIDs = append(brandIDs, b.BrandID)
	}
	return n.queue.Enqueue(ctx, TaskTypeSendEmail, EmailPayload{
		To:       user.Email,
		Template: mail.TemplateBrandAccessChanged,
		Data: map[string]interface{}{
			"AccountName":    account.Name,
			"AllowAllBrands": m.AllowAllBrands,
			"BrandIDs":       brandIDs,
		},
	})
}

func (n *Notifier) Invited(ctx context.Context, e events.Invitation) error {
	user, account, err := n.lookup(ctx, e.UserID, e.AccountID)
	if err != nil {
		return err
	}
	invitedBy := "An administrator"
	var inviter models.User
	if err := n.db.WithContext(ctx).Where("id = ?", e.InvitedByID).First(&inviter).Error; err == nil {
		invitedBy = inviter.FirstName + " " + inviter.LastName
	}

	role := models.RoleTypeMember
	if membership, err := models.GetMembership(e.UserID, e.AccountID, n.db.WithContext(ctx)); err == nil {
		role = membership.RoleType
	}

	return n.queue.Enqueue(ctx, TaskTypeSendEmail, EmailPayload{
		To:       user.Email,
		Template: mail.TemplateInvitation,
		Data: map[string]interface{}{
			"FirstName":         user.FirstName,
			"InvitedBy":         invitedBy,
			"AccountName":       account.Name,
			"RoleType":          string(role),
			"TemporaryPassword": e.TemporaryPassword,
			"LoginURL":          n.publicURL + "/api/v1/auth/login",
		},
	})
}
