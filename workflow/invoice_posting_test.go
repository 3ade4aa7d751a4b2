package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

func seedInvoice(t *testing.T, db *gorm.DB, tenantId string, s site, productId int,
	qty, unitPrice, tax float64) models.SalesInvoice {
	t.Helper()
	customer := models.Customer{TenantId: tenantId, Name: "Acme"}
	if err := db.Create(&customer).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	subTotal := dec(qty).Mul(dec(unitPrice))
	invoice := models.SalesInvoice{
		TenantId:      tenantId,
		BranchId:      s.branchId,
		WarehouseId:   s.warehouseId,
		CustomerId:    customer.ID,
		InvoiceNumber: "INV-001",
		InvoiceDate:   date(2025, time.June, 1),
		SubTotal:      subTotal,
		TaxAmount:     dec(tax),
		TotalAmount:   subTotal.Add(dec(tax)),
		Status:        string(models.InvoiceStatusConfirmed),
		Details: []models.SalesInvoiceDetail{
			{ProductId: productId, Qty: dec(qty), UnitPrice: dec(unitPrice), TaxAmount: dec(tax), Amount: subTotal},
		},
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return invoice
}

func TestInvoicePostingJournal(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.May, 1), 10, 10)
	invoice := seedInvoice(t, db, tenantId, s, productId, 5, 20, 5)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoice, invoice.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.AlreadyPosted || result.Skipped {
		t.Fatalf("unexpected result %+v", result)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeInvoice, invoice.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	if !entry.DebitTotal().Equal(entry.CreditTotal()) {
		t.Fatal("entry not balanced")
	}
	assertDecimal(t, entry.DebitTotal(), 105, "entry total")

	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = line.Debit.Sub(line.Credit)
	}
	assertDecimal(t, byAccount[c.receivable], 105, "receivable debit")
	assertDecimal(t, byAccount[c.revenue], -100, "revenue credit")
	assertDecimal(t, byAccount[c.outputTax], -5, "tax credit")
}

func TestInvoiceCogsPostingConsumesFIFO(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 5, 10)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 5), 5, 12)
	invoice := seedInvoice(t, db, tenantId, s, productId, 7, 20, 0)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.Skipped {
		t.Fatalf("unexpected skip: %s", result.SkipReason)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	assertDecimal(t, entry.DebitTotal(), 74, "cogs amount")

	var cogsRows []*models.COGSTransaction
	if err := db.Where("tenant_id = ? AND source_id = ?", tenantId, invoice.ID).Find(&cogsRows).Error; err != nil {
		t.Fatalf("cogs rows: %v", err)
	}
	total := decimal.Zero
	for _, row := range cogsRows {
		if row.SourceType != models.CogsSourceInvoice {
			t.Fatalf("wrong source type %s", row.SourceType)
		}
		if row.FifoConsumptionId == nil {
			t.Fatal("cost row not linked to its consumption")
		}
		total = total.Add(row.TotalCost)
	}
	assertDecimal(t, total, 74, "cost ledger total")

	onHand, err := models.OnHandQty(db, tenantId, s.warehouseId, productId)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	assertDecimal(t, onHand, -7, "inventory movement")

	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = line.Debit.Sub(line.Credit)
	}
	assertDecimal(t, byAccount[c.cogs], 74, "cogs debit")
	assertDecimal(t, byAccount[c.inventory], -74, "inventory credit")
}

func TestCommitTwiceConsumesStockOnce(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 20, 10)
	invoice := seedInvoice(t, db, tenantId, s, productId, 7, 20, 0)

	first, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID)
	if err != nil {
		t.Fatalf("first post: %v", err)
	}
	second, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID)
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	if !second.AlreadyPosted {
		t.Fatal("second post should short-circuit to already posted")
	}
	if second.JournalEntryId != first.JournalEntryId {
		t.Fatalf("entry ids differ: %d vs %d", second.JournalEntryId, first.JournalEntryId)
	}

	var entryCount int64
	db.Model(&models.JournalEntry{}).Where("tenant_id = ?", tenantId).Count(&entryCount)
	if entryCount != 1 {
		t.Fatalf("expected one journal entry, found %d", entryCount)
	}

	var lot models.FIFOLot
	if err := db.Where("tenant_id = ?", tenantId).First(&lot).Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	assertDecimal(t, lot.RemainingQty, 13, "stock consumed exactly once")
}

func TestZeroCostInvoiceAbstainsFromCogs(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Freebie", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 0)
	invoice := seedInvoice(t, db, tenantId, s, productId, 5, 20, 0)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !result.Skipped {
		t.Fatal("zero cost should abstain, not post")
	}

	if _, err := FindJournalEntry(db, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID, false); err == nil {
		t.Fatal("abstention must not create a journal entry")
	}

	// the journal abstains but the goods still leave the warehouse
	var lot models.FIFOLot
	if err := db.Where("tenant_id = ?", tenantId).First(&lot).Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	assertDecimal(t, lot.RemainingQty, 5, "zero cost stock still consumed")

	onHand, err := models.OnHandQty(db, tenantId, s.warehouseId, productId)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	assertDecimal(t, onHand, -5, "inventory movement at zero cost")

	// a retry sees the recorded movement and does not consume again
	second, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID)
	if err != nil {
		t.Fatalf("second post: %v", err)
	}
	if !second.Skipped {
		t.Fatalf("unexpected result %+v", second)
	}
	if err := db.First(&lot, lot.ID).Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	assertDecimal(t, lot.RemainingQty, 5, "stock consumed exactly once")
}

func TestDraftInvoiceIsSkippedNotRejected(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	invoice := seedInvoice(t, db, tenantId, s, productId, 5, 20, 0)
	if err := db.Model(&models.SalesInvoice{}).Where("id = ?", invoice.ID).
		Update("status", string(models.InvoiceStatusDraft)).Error; err != nil {
		t.Fatalf("set draft: %v", err)
	}

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoice, invoice.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !result.Skipped {
		t.Fatal("draft should skip, posting happens on confirmation")
	}
	if _, err := FindJournalEntry(db, tenantId, models.ReferenceTypeInvoice, invoice.ID, false); err == nil {
		t.Fatal("draft must not create a journal entry")
	}
}

func TestVoidInvoiceCannotPost(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	invoice := seedInvoice(t, db, tenantId, s, productId, 5, 20, 0)
	if err := db.Model(&models.SalesInvoice{}).Where("id = ?", invoice.ID).
		Update("status", string(models.InvoiceStatusVoid)).Error; err != nil {
		t.Fatalf("set void: %v", err)
	}

	_, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoice, invoice.ID)
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUntrackedProductInvoiceAbstainsFromCogs(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Service Fee", false)
	invoice := seedInvoice(t, db, tenantId, s, productId, 1, 50, 0)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeInvoiceCogs, invoice.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !result.Skipped {
		t.Fatal("untracked lines should abstain from cost posting")
	}
}
