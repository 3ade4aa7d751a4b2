package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// Tenant is the owning company. Branch/warehouse/cost-center scope narrows
// within a tenant, it never crosses one.
type Tenant struct {
	ID       uuid.UUID `gorm:"type:char(36);primary_key" json:"id"`
	Name     string    `gorm:"size:255;not null" json:"name"`
	Timezone string    `gorm:"size:64" json:"timezone"`

	// Period lock dates. Zero value means the module family is not locked.
	SalesLockDate      time.Time `json:"sales_lock_date"`
	PurchaseLockDate   time.Time `json:"purchase_lock_date"`
	AccountantLockDate time.Time `json:"accountant_lock_date"`
	MigrationDate      time.Time `json:"migration_date"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func GetTenantById(tx *gorm.DB, tenantId string) (*Tenant, error) {
	id, err := uuid.Parse(tenantId)
	if err != nil {
		return nil, errors.New("invalid tenant id")
	}
	var tenant Tenant
	if err := tx.Where("id = ?", id).First(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &tenant, nil
}

// ValidatePeriodOpen rejects a posting whose date falls on or before the
// tenant's lock date for the given module family. Must run before any entry
// is persisted, including on retries.
func ValidatePeriodOpen(tx *gorm.DB, tenantId string, transactionDate time.Time, lockType PeriodLockType) error {
	tenant, err := GetTenantById(tx, tenantId)
	if err != nil {
		return err
	}
	var lockDate time.Time
	switch lockType {
	case SalesPeriodLock:
		lockDate = tenant.SalesLockDate
	case PurchasePeriodLock:
		lockDate = tenant.PurchaseLockDate
	case AccountantPeriodLock:
		lockDate = tenant.AccountantLockDate
	default:
		return errors.New("invalid period lock type")
	}

	tDate, err := utils.ConvertToDate(transactionDate, tenant.Timezone)
	if err != nil {
		return err
	}
	if !lockDate.IsZero() {
		lDate, err := utils.ConvertToDate(lockDate, tenant.Timezone)
		if err != nil {
			return err
		}
		if !tDate.After(lDate) {
			return &utils.LockedPeriodError{
				TenantId:        tenantId,
				LockType:        string(lockType),
				LockDate:        lDate,
				TransactionDate: tDate,
			}
		}
	}
	if !tenant.MigrationDate.IsZero() {
		mDate, err := utils.ConvertToDate(tenant.MigrationDate, tenant.Timezone)
		if err != nil {
			return err
		}
		if !tDate.After(mDate) {
			return &utils.LockedPeriodError{
				TenantId:        tenantId,
				LockType:        "MigrationLock",
				LockDate:        mDate,
				TransactionDate: tDate,
			}
		}
	}
	return nil
}
