package workflow

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

func seedWriteOff(t *testing.T, db *gorm.DB, tenantId string, s site, productId int, qty float64, status models.WriteOffStatus) models.InventoryWriteOff {
	t.Helper()
	writeOff := models.InventoryWriteOff{
		TenantId:     tenantId,
		BranchId:     s.branchId,
		WarehouseId:  s.warehouseId,
		WriteOffDate: date(2025, time.July, 1),
		Reason:       "water damage",
		Status:       string(status),
		Details: []models.InventoryWriteOffDetail{
			{ProductId: productId, Qty: dec(qty)},
		},
	}
	if err := db.Create(&writeOff).Error; err != nil {
		t.Fatalf("seed write off: %v", err)
	}
	return writeOff
}

func TestApprovedWriteOffPostsAtFIFOCost(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 5, 10)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.February, 1), 5, 14)
	writeOff := seedWriteOff(t, db, tenantId, s, productId, 6, models.WriteOffStatusApproved)

	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeWriteOff, writeOff.ID); err != nil {
		t.Fatalf("post: %v", err)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeWriteOff, writeOff.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	// 5 @ 10 + 1 @ 14
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = line.Debit.Sub(line.Credit)
	}
	assertDecimal(t, byAccount[c.writeOffExpense], 64, "expense debit")
	assertDecimal(t, byAccount[c.inventory], -64, "inventory credit")

	onHand, err := models.OnHandQty(db, tenantId, s.warehouseId, productId)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	assertDecimal(t, onHand, -6, "stock decrement")
}

func TestPendingWriteOffPosts(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 10)
	writeOff := seedWriteOff(t, db, tenantId, s, productId, 2, models.WriteOffStatusPending)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeWriteOff, writeOff.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if result.Skipped || result.AlreadyPosted {
		t.Fatalf("unexpected result %+v", result)
	}

	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeWriteOff, writeOff.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = line.Debit.Sub(line.Credit)
	}
	assertDecimal(t, byAccount[c.writeOffExpense], 20, "expense debit")
}

func TestRejectedWriteOffCannotPost(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 10)
	writeOff := seedWriteOff(t, db, tenantId, s, productId, 2, models.WriteOffStatusRejected)

	_, err := PrepareWriteOffPosting(db, testLogger(), tenantId, writeOff.ID)
	if !utils.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestZeroCostWriteOffAbstains(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Sample", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 0)
	writeOff := seedWriteOff(t, db, tenantId, s, productId, 3, models.WriteOffStatusApproved)

	result, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeWriteOff, writeOff.ID)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if !result.Skipped {
		t.Fatal("zero cost write off should abstain")
	}
	if _, err := FindJournalEntry(db, tenantId, models.ReferenceTypeWriteOff, writeOff.ID, false); err == nil {
		t.Fatal("abstention must not create a journal entry")
	}

	// the journal abstains but the goods still leave the warehouse
	var lot models.FIFOLot
	if err := db.Where("tenant_id = ?", tenantId).First(&lot).Error; err != nil {
		t.Fatalf("reload lot: %v", err)
	}
	assertDecimal(t, lot.RemainingQty, 7, "zero cost stock still consumed")

	onHand, err := models.OnHandQty(db, tenantId, s.warehouseId, productId)
	if err != nil {
		t.Fatalf("on hand: %v", err)
	}
	assertDecimal(t, onHand, -3, "inventory movement at zero cost")
}

func TestWriteOffFallsBackToExpenseMainType(t *testing.T) {
	db := newTestDB(t)
	tenantId := seedTenant(t, db)
	c := seedChart(t, db, tenantId)
	s := seedSite(t, db, tenantId)
	productId := seedProduct(t, db, tenantId, "Widget", true)
	seedLot(t, db, tenantId, s.warehouseId, productId, date(2025, time.January, 1), 10, 10)
	writeOff := seedWriteOff(t, db, tenantId, s, productId, 2, models.WriteOffStatusApproved)

	// with the dedicated write off account gone, the posting lands on the
	// first active expense leaf instead of failing configuration
	if err := db.Model(&models.Account{}).Where("id = ?", c.writeOffExpense).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	if _, err := PostReference(db, testLogger(), nil, tenantId, models.ReferenceTypeWriteOff, writeOff.ID); err != nil {
		t.Fatalf("post: %v", err)
	}
	entry, err := FindJournalEntry(db, tenantId, models.ReferenceTypeWriteOff, writeOff.ID, false)
	if err != nil {
		t.Fatalf("find entry: %v", err)
	}
	byAccount := map[int]decimal.Decimal{}
	for _, line := range entry.Lines {
		byAccount[line.AccountId] = line.Debit.Sub(line.Credit)
	}
	assertDecimal(t, byAccount[c.cogs], 20, "expense fallback debit")
}
