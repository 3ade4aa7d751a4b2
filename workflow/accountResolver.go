package workflow

import (
	"time"

	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// AccountRole names a posting slot. Preparers ask for accounts by role, never
// by id, so the chart of accounts stays tenant-configurable.
type AccountRole string

const (
	RoleReceivable       AccountRole = "receivable"
	RolePayable          AccountRole = "payable"
	RoleRevenue          AccountRole = "revenue"
	RoleInventory        AccountRole = "inventory"
	RoleCogs             AccountRole = "cogs"
	RoleCash             AccountRole = "cash"
	RoleBank             AccountRole = "bank"
	RoleOutputTax        AccountRole = "output_tax"
	RoleInputTax         AccountRole = "input_tax"
	RoleCustomerAdvances AccountRole = "customer_advances"
	RoleSupplierAdvances AccountRole = "supplier_advances"
	RoleShippingCharge   AccountRole = "shipping_charge"
	RoleOtherCharges     AccountRole = "other_charges"
	RoleWriteOffExpense  AccountRole = "write_off_expense"
)

// roleDetailTypes maps each role to the chart detail type it resolves to.
var roleDetailTypes = map[AccountRole]models.AccountDetailType{
	RoleReceivable:       models.AccountDetailTypeAccountsReceivable,
	RolePayable:          models.AccountDetailTypeAccountsPayable,
	RoleRevenue:          models.AccountDetailTypeSales,
	RoleInventory:        models.AccountDetailTypeStock,
	RoleCogs:             models.AccountDetailTypeCostOfGoodsSold,
	RoleCash:             models.AccountDetailTypeCash,
	RoleBank:             models.AccountDetailTypeBank,
	RoleOutputTax:        models.AccountDetailTypeOutputTax,
	RoleInputTax:         models.AccountDetailTypeInputTax,
	RoleCustomerAdvances: models.AccountDetailTypeCustomerAdvances,
	RoleSupplierAdvances: models.AccountDetailTypeSupplierAdvances,
	RoleShippingCharge:   models.AccountDetailTypeShippingCharge,
	RoleOtherCharges:     models.AccountDetailTypeOtherCharges,
	RoleWriteOffExpense:  models.AccountDetailTypeWriteOffExpense,
}

// requiredRoles must resolve before any posting path runs. The rest resolve
// lazily and fail only when a preparer actually needs them.
var requiredRoles = []AccountRole{
	RoleReceivable, RolePayable, RoleRevenue, RoleInventory, RoleCogs,
}

// optionalRoleFallbacks maps the optional roles to the main type whose first
// leaf account stands in when no leaf carries the role's detail type.
// Required roles never fall back: a chart without a receivable account is a
// configuration error, not a guessing game.
var optionalRoleFallbacks = map[AccountRole]models.AccountMainType{
	RoleCash:             models.AccountMainTypeAsset,
	RoleBank:             models.AccountMainTypeAsset,
	RoleOutputTax:        models.AccountMainTypeLiability,
	RoleInputTax:         models.AccountMainTypeAsset,
	RoleCustomerAdvances: models.AccountMainTypeLiability,
	RoleSupplierAdvances: models.AccountMainTypeAsset,
	RoleWriteOffExpense:  models.AccountMainTypeExpense,
}

// SystemAccounts maps roles to leaf account ids for one tenant.
type SystemAccounts map[AccountRole]int

// Get returns the account id for a role, or a configuration error naming the
// missing role. It never invents a substitute account.
func (s SystemAccounts) Get(role AccountRole) (int, error) {
	id, ok := s[role]
	if !ok || id == 0 {
		return 0, &utils.ConfigurationError{
			Role:   string(role),
			Detail: "no active leaf account with detail type " + string(roleDetailTypes[role]),
		}
	}
	return id, nil
}

// Require checks a set of roles up front so a posting fails before any write
// happens rather than halfway through.
func (s SystemAccounts) Require(roles ...AccountRole) error {
	for _, role := range roles {
		if _, err := s.Get(role); err != nil {
			return err
		}
	}
	return nil
}

// ResolveSystemAccounts maps every role to the tenant's first active leaf
// account of the matching detail type (lowest id wins, so resolution is
// deterministic for a given chart). Optional roles with no detail-type match
// fall back to the first leaf of their main type. The result is cached;
// chart edits must call InvalidateSystemAccounts.
//
// All required roles must resolve or the whole resolution fails with a
// configuration error.
func ResolveSystemAccounts(tx *gorm.DB, tenantId string) (SystemAccounts, error) {
	var cached SystemAccounts
	exists, err := config.GetRedisObject("SystemAccounts:"+tenantId, &cached)
	if err != nil {
		return nil, err
	}
	if exists {
		return cached, nil
	}

	accounts, err := models.GetAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	leaves := models.LeafAccounts(accounts)

	byDetailType := make(map[models.AccountDetailType]int)
	byMainType := make(map[models.AccountMainType]int)
	for _, a := range leaves {
		if _, ok := byDetailType[a.DetailType]; !ok {
			byDetailType[a.DetailType] = a.ID
		}
		if _, ok := byMainType[a.MainType]; !ok {
			byMainType[a.MainType] = a.ID
		}
	}

	resolved := make(SystemAccounts, len(roleDetailTypes))
	for role, detailType := range roleDetailTypes {
		if id, ok := byDetailType[detailType]; ok {
			resolved[role] = id
			continue
		}
		if mainType, optional := optionalRoleFallbacks[role]; optional {
			if id, ok := byMainType[mainType]; ok {
				resolved[role] = id
			}
		}
	}
	if err := resolved.Require(requiredRoles...); err != nil {
		return nil, err
	}

	if err := config.SetRedisObject("SystemAccounts:"+tenantId, &resolved, 30*time.Minute); err != nil {
		return nil, err
	}
	return resolved, nil
}

// InvalidateSystemAccounts drops the cached resolution after a chart edit.
func InvalidateSystemAccounts(tenantId string) error {
	return config.RemoveRedisKey("SystemAccounts:" + tenantId)
}
