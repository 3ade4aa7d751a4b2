package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// soldInvoice seeds stock, an invoice, and posts both the revenue and cost
// sides so a return has something to reverse.
func soldInvoice(t *testing.T, db *gorm.DB, tenantId string, s site, productId int,
	qty, unitPrice float64) models.SalesInvoice {
	t.Helper()
	invoice := seedInvoice(t, db, tenantId, s, productId, qty, unitPrice, 0)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoice, invoice.ID); err != nil {
		t.Fatalf("post invoice: %v", err)
	}
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID); err != nil {
		t.Fatalf("post cogs: %v", err)
	}
	reloaded, err := models.GetSalesInvoice(db, tenantId, invoice.ID)
	if err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	return reloaded
}

func seedSalesReturn(t *testing.T, db *gorm.DB, tenantId string, s site, invoice models.SalesInvoice,
	qty, damaged float64) models.SalesReturn {
	t.Helper()
	salesReturn := models.SalesReturn{
		TenantId:     tenantId,
		BranchId:     s.branchId,
		WarehouseId:  s.warehouseId,
		InvoiceId:    invoice.ID,
		CustomerId:   invoice.CustomerId,
		ReturnNumber: "SR-001",
		ReturnDate:   date(2025, time.June, 20),
		Details: []models.SalesReturnDetail{
			{
				InvoiceDetailId: invoice.Details[0].ID,
				ProductId:       invoice.Details[0].ProductId,
				Qty:             dec(qty),
				DamagedQty:      dec(damaged),
			},
		},
	}
	if err := db.Create(&salesReturn).Error; err != nil {
		t.Fatalf("seed return: %v", err)
	}
	return salesReturn
}

func TestSalesReturnSplitsSettlementAndCredit(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 20, 10)

	// invoice total 100, customer has paid 40, returns goods worth 80
	invoice := soldInvoice(t, db, tenantId, s, productId, 5, 20)
	if err := db.Model(&models.SalesInvoice{}).Where("id = ?", invoice.ID).Update("paid_amount", dec(40)).Error; err != nil {
		t.Fatalf("set paid: %v", err)
	}
	invoice.PaidAmount = dec(40)
	salesReturn := seedSalesReturn(t, db, tenantId, s, invoice, 4, 0)

	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeSalesReturn, salesReturn.ID); err != nil {
		t.Fatalf("post return: %v", err)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeSalesReturn, salesReturn.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = byAccount[line.AccountId].Add(line.Debit.Sub(line.Credit))
	}
	// returned value 80: 60 settles the unpaid balance, 20 becomes credit
	assertDecimal(t, byAccount[c.revenue], 80, "revenue reversal")
	assertDecimal(t, byAccount[c.receivable], -60, "receivable settlement")
	assertDecimal(t, byAccount[c.customerAdvances], -20, "store credit")
	// restock leg at original FIFO cost: 4 @ 10
	assertDecimal(t, byAccount[c.inventory], 40, "restock debit")
	assertDecimal(t, byAccount[c.cogs], -40, "cogs reversal")

	var credit models.CustomerCredit
	if err := db.Where("tenant_id = ? AND reference_id = ?", tenantId, salesReturn.ID).First(&credit).Error; err != nil {
		t.Fatalf("customer credit: %v", err)
	}
	assertDecimal(t, credit.Amount, 20, "credit amount")

	var reloaded models.SalesInvoice
	if err := db.First(&reloaded, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	assertDecimal(t, reloaded.ReturnedAmount, 80, "invoice returned amount")
	if reloaded.Status != string(models.InvoiceStatusPartiallyReturned) {
		t.Fatalf("expected partially_returned, got %s", reloaded.Status)
	}
}

func TestSalesReturnRestocksAtOriginalCost(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 5, 10)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 5), 5, 12)

	invoice := soldInvoice(t, db, tenantId, s, productId, 7, 20)
	salesReturn := seedSalesReturn(t, db, tenantId, s, invoice, 7, 0)

	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeSalesReturn, salesReturn.ID); err != nil {
		t.Fatalf("post return: %v", err)
	}

	// both lots are back where they started
	var lots []*models.FIFOLot
	if err := db.Where("tenant_id = ?", tenantId).Find(&lots).Error; err != nil {
		t.Fatalf("reload lots: %v", err)
	}
	for _, lot := range lots {
		if !lot.RemainingQty.Equal(lot.OriginalQty) {
			t.Fatalf("lot %d not restored: %s of %s", lot.ID, lot.RemainingQty.String(), lot.OriginalQty.String())
		}
	}

	// the cost ledger nets to zero: 74 out, 74 back
	var cogsRows []*models.COGSTransaction
	if err := db.Where("tenant_id = ?", tenantId).Find(&cogsRows).Error; err != nil {
		t.Fatalf("cogs rows: %v", err)
	}
	net := decimal.Zero
	for _, row := range cogsRows {
		net = net.Add(row.TotalCost)
	}
	assertDecimal(t, net, 0, "net cost after round trip")

	var reloaded models.SalesInvoice
	if err := db.First(&reloaded, invoice.ID).Error; err != nil {
		t.Fatalf("reload invoice: %v", err)
	}
	if reloaded.Status != string(models.InvoiceStatusFullyReturned) {
		t.Fatalf("expected fully_returned, got %s", reloaded.Status)
	}
}

func TestSecondReturnCannotRestockTheSameSale(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 10)

	invoice := soldInvoice(t, db, tenantId, s, productId, 5, 20)
	first := seedSalesReturn(t, db, tenantId, s, invoice, 5, 0)
	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeSalesReturn, first.ID); err != nil {
		t.Fatalf("post first return: %v", err)
	}

	// a second return document against the same invoice line has nothing
	// left to restock
	second := seedSalesReturn(t, db, tenantId, s, invoice, 5, 0)
	_, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeSalesReturn, second.ID)
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := FindJournalEntry(db, tenantId, models.ReferenceTypeSalesReturn, second.ID, false); err == nil {
		t.Fatal("failed return must not leave a journal entry")
	}

	var lot models.FIFOLot
	if err := db.Where("tenant_id = ?", tenantId).First(&lot).Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	assertDecimal(t, lot.RemainingQty, 10, "restocked exactly once")

	var creditCount int64
	db.Model(&models.CustomerCredit{}).Where("tenant_id = ?", tenantId).Count(&creditCount)
	if creditCount > 1 {
		t.Fatalf("expected at most one credit, found %d", creditCount)
	}
}

func TestDamagedQuantityIsNotRestocked(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 10)

	invoice := soldInvoice(t, db, tenantId, s, productId, 5, 20)
	// 4 returned, 3 damaged: only 1 goes back on the shelf
	salesReturn := seedSalesReturn(t, db, tenantId, s, invoice, 4, 3)

	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeSalesReturn, salesReturn.ID); err != nil {
		t.Fatalf("post return: %v", err)
	}

	var lot models.FIFOLot
	if err := db.Where("tenant_id = ?", tenantId).First(&lot).Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	// 10 - 5 sold + 1 restocked
	assertDecimal(t, lot.RemainingQty, 6, "lot remaining")

	onHand, err := models.OnHandQty(db, tenantId, s.warehouseId, productId)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	assertDecimal(t, onHand, -4, "net inventory")
}
