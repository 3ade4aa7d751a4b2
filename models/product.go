package models

import (
	"time"
)

// Product carries no cost field on purpose: cost figures come exclusively
// from FIFO lot history.
type Product struct {
	ID             int       `gorm:"primary_key" json:"id"`
	TenantId       string    `gorm:"index;size:36;not null" json:"tenant_id"`
	Name           string    `gorm:"size:255;not null" json:"name"`
	Sku            string    `gorm:"index;size:100" json:"sku"`
	TrackInventory *bool     `gorm:"not null;default:true" json:"track_inventory"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type Customer struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;size:36;not null" json:"tenant_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type Supplier struct {
	ID        int       `gorm:"primary_key" json:"id"`
	TenantId  string    `gorm:"index;size:36;not null" json:"tenant_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
