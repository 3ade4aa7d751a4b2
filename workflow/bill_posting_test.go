package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/models"
	"gorm.io/gorm"
)

func seedBill(t *testing.T, db *gorm.DB, tenantId string, s site, productId int,
	qty, unitCost, tax float64) models.Bill {
	t.Helper()
	supplier := models.Supplier{TenantId: tenantId, Name: "Supplies Inc"}
	if err := db.Create(&supplier).Error; err != nil {
		t.Fatalf("seed supplier: %v", err)
	}
	subTotal := dec(qty).Mul(dec(unitCost))
	bill := models.Bill{
		TenantId:    tenantId,
		BranchId:    s.branchId,
		WarehouseId: s.warehouseId,
		SupplierId:  supplier.ID,
		BillNumber:  "BILL-001",
		BillDate:    date(2025, time.April, 1),
		SubTotal:    subTotal,
		TaxAmount:   dec(tax),
		TotalAmount: subTotal.Add(dec(tax)),
		Status:      string(models.BillStatusConfirmed),
		Details: []models.BillDetail{
			{ProductId: productId, Qty: dec(qty), UnitCost: dec(unitCost), TaxAmount: dec(tax), Amount: subTotal},
		},
	}
	if err := db.Create(&bill).Error; err != nil {
		t.Fatalf("seed bill: %v", err)
	}
	return bill
}

func TestBillPostingOpensLots(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	bill := seedBill(t, db, tenantId, s, productId, 10, 8, 4)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeBill, bill.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.AlreadyPosted {
		t.Fatal("fresh bill should not be already posted")
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeBill, bill.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = line.Debit.Sub(line.Credit)
	}
	assertDecimal(t, byAccount[c.inventory], 80, "inventory debit")
	assertDecimal(t, byAccount[c.inputTax], 4, "input tax debit")
	assertDecimal(t, byAccount[c.payable], -84, "payable credit")

	var lot models.FIFOLot
	if err := db.Where("tenant_id = ? AND source_type = ? AND source_id = ?",
		tenantId, models.ReferenceTypeBill, bill.ID).First(&lot).Error; err != nil {
		t.Fatalf("bill lot: %v", err)
	}
	assertDecimal(t, lot.OriginalQty, 10, "lot qty")
	assertDecimal(t, lot.UnitCost, 8, "lot cost")
	if lot.SourceDetailId != bill.Details[0].ID {
		t.Fatal("lot not tagged with its bill line")
	}

	onHand, err := models.OnHandQty(db, tenantId, s.warehouseId, productId)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	assertDecimal(t, onHand, 10, "received quantity")
}

func TestBillPostingIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	bill := seedBill(t, db, tenantId, s, productId, 10, 8, 0)

	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeBill, bill.ID); err != nil {
		t.Fatalf("first post: %v", err)
	}
	second, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeBill, bill.ID)
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	if !second.AlreadyPosted {
		t.Fatal("second post should be already posted")
	}

	var lotCount int64
	db.Model(&models.FIFOLot{}).Where("tenant_id = ?", tenantId).Count(&lotCount)
	if lotCount != 1 {
		t.Fatalf("expected one lot, found %d", lotCount)
	}
}
