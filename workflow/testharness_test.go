package workflow

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/models"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := models.MigrateTable(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// seedTenant creates a tenant with no period locks and returns its id.
func seedTenant(t *testing.T, db *gorm.DB) string {
	t.Helper()
	tenant := models.Tenant{ID: uuid.New(), Name: "Test Co", Timezone: "UTC"}
	if err := db.Create(&tenant).Error; err != nil {
		t.Fatalf("seed tenant: %v", err)
	}
	return tenant.ID.String()
}

type chart struct {
	receivable, payable, revenue, inventory, cogs     int
	cash, bank, outputTax, inputTax                   int
	customerAdvances, supplierAdvances                int
	shipping, otherCharges, writeOffExpense           int
}

// seedChart creates one leaf account per posting role.
func seedChart(t *testing.T, db *gorm.DB, tenantId string) chart {
	t.Helper()
	mk := func(name string, mainType models.AccountMainType, detailType models.AccountDetailType) int {
		acc := models.Account{
			TenantId:   tenantId,
			Name:       name,
			MainType:   mainType,
			DetailType: detailType,
		}
		if err := db.Create(&acc).Error; err != nil {
			t.Fatalf("seed account %s: %v", name, err)
		}
		return acc.ID
	}
	return chart{
		receivable:       mk("Accounts Receivable", models.AccountMainTypeAsset, models.AccountDetailTypeAccountsReceivable),
		payable:          mk("Accounts Payable", models.AccountMainTypeLiability, models.AccountDetailTypeAccountsPayable),
		revenue:          mk("Sales", models.AccountMainTypeIncome, models.AccountDetailTypeSales),
		inventory:        mk("Inventory", models.AccountMainTypeAsset, models.AccountDetailTypeStock),
		cogs:             mk("Cost of Goods Sold", models.AccountMainTypeExpense, models.AccountDetailTypeCostOfGoodsSold),
		cash:             mk("Cash on Hand", models.AccountMainTypeAsset, models.AccountDetailTypeCash),
		bank:             mk("Main Bank", models.AccountMainTypeAsset, models.AccountDetailTypeBank),
		outputTax:        mk("Output VAT", models.AccountMainTypeLiability, models.AccountDetailTypeOutputTax),
		inputTax:         mk("Input VAT", models.AccountMainTypeAsset, models.AccountDetailTypeInputTax),
		customerAdvances: mk("Customer Advances", models.AccountMainTypeLiability, models.AccountDetailTypeCustomerAdvances),
		supplierAdvances: mk("Supplier Advances", models.AccountMainTypeAsset, models.AccountDetailTypeSupplierAdvances),
		shipping:         mk("Shipping Charges", models.AccountMainTypeIncome, models.AccountDetailTypeShippingCharge),
		otherCharges:     mk("Other Charges", models.AccountMainTypeIncome, models.AccountDetailTypeOtherCharges),
		writeOffExpense:  mk("Inventory Write Off", models.AccountMainTypeExpense, models.AccountDetailTypeWriteOffExpense),
	}
}

type site struct {
	branchId    int
	warehouseId int
}

func seedSite(t *testing.T, db *gorm.DB, tenantId string) site {
	t.Helper()
	branch := models.Branch{TenantId: tenantId, Name: "Main Branch"}
	if err := db.Create(&branch).Error; err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	warehouse := models.Warehouse{TenantId: tenantId, BranchId: branch.ID, Name: "Main Warehouse"}
	if err := db.Create(&warehouse).Error; err != nil {
		t.Fatalf("seed warehouse: %v", err)
	}
	return site{branchId: branch.ID, warehouseId: warehouse.ID}
}

func seedProduct(t *testing.T, db *gorm.DB, tenantId, name string, tracked bool) int {
	t.Helper()
	product := models.Product{TenantId: tenantId, Name: name, TrackInventory: &tracked}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product.ID
}

func seedLot(t *testing.T, db *gorm.DB, tenantId string, warehouseId, productId int,
	lotDate time.Time, qty, unitCost float64) int {
	t.Helper()
	lot, err := CreateLot(db, testLogger(), tenantId, NewLot{
		ProductId:   productId,
		WarehouseId: warehouseId,
		LotDate:     lotDate,
		LotType:     models.LotTypeOpeningStock,
		Qty:         decimal.NewFromFloat(qty),
		UnitCost:    decimal.NewFromFloat(unitCost),
		SourceType:  models.ReferenceTypeOpeningStock,
	})
	if err != nil {
		t.Fatalf("seed lot: %v", err)
	}
	return lot.ID
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func assertDecimal(t *testing.T, got decimal.Decimal, want float64, what string) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Fatalf("%s: got %s, want %s", what, got.String(), dec(want).String())
	}
}
