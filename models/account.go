package models

import (
	"time"

	"gorm.io/gorm"
)

// Account is a chart-of-accounts node. Read-only to the posting core;
// created and edited by chart-of-accounts management.
//
// An account is "leaf" (postable) iff no other account references it as
// parent. Only leaf accounts may appear on journal lines.
type Account struct {
	ID              int               `gorm:"primary_key" json:"id"`
	TenantId        string            `gorm:"index;size:36;not null" json:"tenant_id"`
	Code            string            `gorm:"size:100" json:"code"`
	Name            string            `gorm:"index;size:100;not null" json:"name"`
	MainType        AccountMainType   `gorm:"index;size:10;not null" json:"main_type"`
	DetailType      AccountDetailType `gorm:"index;size:50;not null" json:"detail_type"`
	ParentAccountId int               `gorm:"index;not null;default:0" json:"parent_account_id"`
	IsActive        *bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetAccounts loads the tenant's full chart of accounts.
func GetAccounts(tx *gorm.DB, tenantId string) ([]*Account, error) {
	var accounts []*Account
	err := tx.Where("tenant_id = ?", tenantId).Order("id ASC").Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// LeafAccounts filters accounts down to postable leaves: active accounts that
// no other account names as parent.
func LeafAccounts(accounts []*Account) []*Account {
	parents := make(map[int]struct{}, len(accounts))
	for _, a := range accounts {
		if a.ParentAccountId > 0 {
			parents[a.ParentAccountId] = struct{}{}
		}
	}
	leaves := make([]*Account, 0, len(accounts))
	for _, a := range accounts {
		if a.IsActive != nil && !*a.IsActive {
			continue
		}
		if _, isParent := parents[a.ID]; isParent {
			continue
		}
		leaves = append(leaves, a)
	}
	return leaves
}

func GetAccount(tx *gorm.DB, tenantId string, id int) (*Account, error) {
	var account Account
	if err := tx.Where("tenant_id = ? AND id = ?", tenantId, id).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}
