package models

import (
	"adops/internal/events"

	"gorm.io/gorm"
)

func (m *UserAccount) AfterCreate(tx *gorm.DB) error {
	log.Info("Membership created user=%s account=%s type=%s", m.UserID, m.AccountID, m.UserType)
	events.Emit("memberships.created", m)
	return nil
}

func (a *Account) AfterCreate(tx *gorm.DB) error {
	events.Emit("accounts.created", a)
	return nil
}
