package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/models"
	"gorm.io/gorm"
)

func seedPurchaseReturn(t *testing.T, db *gorm.DB, tenantId string, s site, bill models.Bill,
	qty, unitCost float64, method models.SettlementMethod) models.PurchaseReturn {
	t.Helper()
	subTotal := dec(qty).Mul(dec(unitCost))
	purchaseReturn := models.PurchaseReturn{
		TenantId:         tenantId,
		BranchId:         s.branchId,
		WarehouseId:      s.warehouseId,
		BillId:           bill.ID,
		SupplierId:       bill.SupplierId,
		ReturnNumber:     "PR-001",
		ReturnDate:       date(2025, time.April, 20),
		SubTotal:         subTotal,
		TotalAmount:      subTotal,
		SettlementMethod: string(method),
		Details: []models.PurchaseReturnDetail{
			{
				BillDetailId: bill.Details[0].ID,
				ProductId:    bill.Details[0].ProductId,
				Qty:          dec(qty),
				UnitCost:     dec(unitCost),
			},
		},
	}
	if err := db.Create(&purchaseReturn).Error; err != nil {
		t.Fatalf("seed purchase return: %v", err)
	}
	return purchaseReturn
}

func TestPurchaseReturnDrawsDownBillLots(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)

	// an unrelated cheaper lot that plain FIFO order would pick first
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.March, 1), 10, 5)

	bill := seedBill(t, db, tenantId, s, productId, 10, 8, 0)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeBill, bill.ID); err != nil {
		t.Fatalf("post bill: %v", err)
	}
	bill, err := models.GetBill(db, tenantId, bill.ID)
	if err != nil {
		t.Fatalf("reload bill: %v", err)
	}

	purchaseReturn := seedPurchaseReturn(t, db, tenantId, s, bill, 4, 8, models.SettlementMethodVendorCredit)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypePurchaseReturn, purchaseReturn.ID); err != nil {
		t.Fatalf("post return: %v", err)
	}

	// the bill's own lot was drawn, not the older cheap lot
	var billLot models.FIFOLot
	if err := db.Where("tenant_id = ? AND source_type = ? AND source_id = ?",
		tenantId, models.ReferenceTypeBill, bill.ID).First(&billLot).Error; err != nil {
		t.Fatalf("bill lot: %v", err)
	}
	assertDecimal(t, billLot.RemainingQty, 6, "bill lot drawn")

	var cheapLot models.FIFOLot
	if err := db.Where("tenant_id = ? AND source_type = ?", tenantId, models.ReferenceTypeOpeningStock).First(&cheapLot).Error; err != nil {
		t.Fatalf("cheap lot: %v", err)
	}
	assertDecimal(t, cheapLot.RemainingQty, 10, "unrelated lot untouched")

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypePurchaseReturn, purchaseReturn.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = byAccount[line.AccountId].Add(line.Debit.Sub(line.Credit))
	}
	// bill is fully unpaid: the whole 32 settles against payable
	assertDecimal(t, byAccount[c.payable], 32, "payable debit")
	assertDecimal(t, byAccount[c.inventory], -32, "inventory credit")

	// no cost ledger rows for a purchase return
	var cogsCount int64
	db.Model(&models.COGSTransaction{}).Where("tenant_id = ?", tenantId).Count(&cogsCount)
	if cogsCount != 0 {
		t.Fatalf("purchase return must not write cost rows, found %d", cogsCount)
	}

	var reloaded models.Bill
	if err := db.First(&reloaded, bill.ID).Error; err != nil {
		t.Fatalf("reload bill: %v", err)
	}
	assertDecimal(t, reloaded.ReturnedAmount, 32, "bill returned amount")
	if reloaded.Status != string(models.BillStatusPartiallyReturned) {
		t.Fatalf("expected partially_returned, got %s", reloaded.Status)
	}
}

func TestPurchaseReturnExcessBecomesVendorCredit(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)

	bill := seedBill(t, db, tenantId, s, productId, 10, 8, 0)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeBill, bill.ID); err != nil {
		t.Fatalf("post bill: %v", err)
	}
	// bill fully paid, so the return value cannot settle against payable
	if err := db.Model(&models.Bill{}).Where("id = ?", bill.ID).Update("paid_amount", dec(80)).Error; err != nil {
		t.Fatalf("set paid: %v", err)
	}
	bill, err := models.GetBill(db, tenantId, bill.ID)
	if err != nil {
		t.Fatalf("reload bill: %v", err)
	}

	purchaseReturn := seedPurchaseReturn(t, db, tenantId, s, bill, 3, 8, models.SettlementMethodVendorCredit)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypePurchaseReturn, purchaseReturn.ID); err != nil {
		t.Fatalf("post return: %v", err)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypePurchaseReturn, purchaseReturn.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = byAccount[line.AccountId].Add(line.Debit.Sub(line.Credit))
	}
	assertDecimal(t, byAccount[c.supplierAdvances], 24, "advances debit")
	assertDecimal(t, byAccount[c.inventory], -24, "inventory credit")

	var credit models.VendorCredit
	if err := db.Where("tenant_id = ? AND reference_id = ?", tenantId, purchaseReturn.ID).First(&credit).Error; err != nil {
		t.Fatalf("vendor credit: %v", err)
	}
	assertDecimal(t, credit.Amount, 24, "vendor credit amount")
}

func TestPurchaseReturnCashRefund(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)

	bill := seedBill(t, db, tenantId, s, productId, 10, 8, 0)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeBill, bill.ID); err != nil {
		t.Fatalf("post bill: %v", err)
	}
	if err := db.Model(&models.Bill{}).Where("id = ?", bill.ID).Update("paid_amount", dec(80)).Error; err != nil {
		t.Fatalf("set paid: %v", err)
	}
	bill, err := models.GetBill(db, tenantId, bill.ID)
	if err != nil {
		t.Fatalf("reload bill: %v", err)
	}

	purchaseReturn := seedPurchaseReturn(t, db, tenantId, s, bill, 2, 8, models.SettlementMethodCashRefund)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypePurchaseReturn, purchaseReturn.ID); err != nil {
		t.Fatalf("post return: %v", err)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypePurchaseReturn, purchaseReturn.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = byAccount[line.AccountId].Add(line.Debit.Sub(line.Credit))
	}
	assertDecimal(t, byAccount[c.cash], 16, "cash debit")

	// cash refunds do not mint vendor credit
	var creditCount int64
	db.Model(&models.VendorCredit{}).Where("tenant_id = ?", tenantId).Count(&creditCount)
	if creditCount != 0 {
		t.Fatalf("cash refund should not create vendor credit, found %d", creditCount)
	}
}
