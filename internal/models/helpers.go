package models

import (
	"gorm.io/gorm"
)

// GetAccountByName retrieves an account from the database by its name
func GetAccountByName(name string, db *gorm.DB) (*Account, error) {
	account := &Account{}
	if err := db.Where("name = ? AND is_deleted = false", name).First(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// GetMembership returns the single UserAccount row for (userID, accountID).
func GetMembership(userID, accountID string, db *gorm.DB) (*UserAccount, error) {
	membership := &UserAccount{}
	if err := db.Where("user_id = ? AND account_id = ? AND is_deleted = false", userID, accountID).First(membership).Error; err != nil {
		return nil, err
	}
	return membership, nil
}

func GetUserByEmail(email string, db *gorm.DB) (*User, error) {
	user := &User{}
	if err := db.Where("email = ? AND is_deleted = false", email).First(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}
