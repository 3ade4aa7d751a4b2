package workflow

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
)

// JournalDraft is a journal entry that has been prepared but not persisted.
// Balance is validated at persist time, not at build time, so preparers can
// assemble lines incrementally.
type JournalDraft struct {
	ReferenceType models.ReferenceType `json:"reference_type"`
	ReferenceId   int                  `json:"reference_id"`
	EntryDate     time.Time            `json:"entry_date"`
	Description   string               `json:"description"`
	BranchId      int                  `json:"branch_id"`
	CostCenterId  int                  `json:"cost_center_id"`
	Lines         []models.JournalLine `json:"lines"`
}

// LotConsumption is one planned draw against a specific lot. UnitCost is
// frozen from the lot at planning time.
type LotConsumption struct {
	LotId     int             `json:"lot_id"`
	Qty       decimal.Decimal `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// FIFOPlan is the planned consumption for one document line: which lots to
// draw from, how much, and at what (frozen) cost. Planning reads lots without
// mutating them; ApplyFIFOPlan performs the decrement inside the posting
// transaction.
type FIFOPlan struct {
	ProductId         int                  `json:"product_id"`
	WarehouseId       int                  `json:"warehouse_id"`
	BranchId          int                  `json:"branch_id"`
	ReferenceType     models.ReferenceType `json:"reference_type"`
	ReferenceId       int                  `json:"reference_id"`
	ReferenceDetailId int                  `json:"reference_detail_id"`
	ConsumptionDate   time.Time            `json:"consumption_date"`
	Consumptions      []LotConsumption     `json:"consumptions"`
	Qty               decimal.Decimal      `json:"qty"`
	TotalCost         decimal.Decimal      `json:"total_cost"`

	// InsufficientStock signals that open lots could not cover Qty.
	// The plan still carries the partial allocation and its cost;
	// MissingQty is the uncovered remainder. Callers choose between
	// blocking (RequireFullStock) and applying the partial plan.
	InsufficientStock bool            `json:"insufficient_stock"`
	MissingQty        decimal.Decimal `json:"missing_qty"`

	// EmitCOGS: record a cost ledger row per consumption when the plan is
	// applied. Purchase-side draws set this false.
	EmitCOGS   bool                  `json:"emit_cogs"`
	CogsSource models.CogsSourceType `json:"cogs_source"`
}

// RequireFullStock converts a partial plan into the typed insufficient stock
// error, for callers that block the business event on shortage.
func (p *FIFOPlan) RequireFullStock() error {
	if !p.InsufficientStock {
		return nil
	}
	return &utils.InsufficientStockError{
		ProductId:   p.ProductId,
		WarehouseId: p.WarehouseId,
		Requested:   p.Qty,
		Available:   p.Qty.Sub(p.MissingQty),
	}
}

// LotReversal puts quantity back on a specific lot at the exact unit cost the
// original consumption recorded.
type LotReversal struct {
	LotId     int             `json:"lot_id"`
	Qty       decimal.Decimal `json:"qty"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// FIFOReversalPlan undoes part of a document's earlier consumption,
// lot by lot, newest consumption first.
type FIFOReversalPlan struct {
	ProductId         int                  `json:"product_id"`
	WarehouseId       int                  `json:"warehouse_id"`
	BranchId          int                  `json:"branch_id"`
	ReferenceType     models.ReferenceType `json:"reference_type"`
	ReferenceId       int                  `json:"reference_id"`
	ReferenceDetailId int                  `json:"reference_detail_id"`
	ReversalDate      time.Time            `json:"reversal_date"`
	Reversals         []LotReversal        `json:"reversals"`
	Qty               decimal.Decimal      `json:"qty"`
	TotalCost         decimal.Decimal      `json:"total_cost"`

	// EmitCOGS: append a negative cost ledger row per restored lot when the
	// reversal is applied (sales return restocks).
	EmitCOGS   bool                  `json:"emit_cogs"`
	CogsSource models.CogsSourceType `json:"cogs_source"`
}

// NewLot describes a lot to create when the posting commits (bill lines,
// opening stock).
type NewLot struct {
	ProductId      int                  `json:"product_id"`
	WarehouseId    int                  `json:"warehouse_id"`
	BranchId       int                  `json:"branch_id"`
	LotDate        time.Time            `json:"lot_date"`
	LotType        models.LotType       `json:"lot_type"`
	Qty            decimal.Decimal      `json:"qty"`
	UnitCost       decimal.Decimal      `json:"unit_cost"`
	SourceType     models.ReferenceType `json:"source_type"`
	SourceId       int                  `json:"source_id"`
	SourceDetailId int                  `json:"source_detail_id"`
}

// InventoryMove is one signed quantity ledger row to append at commit.
type InventoryMove struct {
	ProductId         int                  `json:"product_id"`
	WarehouseId       int                  `json:"warehouse_id"`
	BranchId          int                  `json:"branch_id"`
	Qty               decimal.Decimal      `json:"qty"`
	ReferenceType     models.ReferenceType `json:"reference_type"`
	ReferenceId       int                  `json:"reference_id"`
	ReferenceDetailId int                  `json:"reference_detail_id"`
	TransactionDate   time.Time            `json:"transaction_date"`
	Description       string               `json:"description"`
}

// PostingPayload is everything a posting will write, assembled by a preparer
// from committed document state. Preparers never write; the orchestrator
// applies the payload inside a single transaction.
type PostingPayload struct {
	TenantId      string                `json:"tenant_id"`
	ReferenceType models.ReferenceType  `json:"reference_type"`
	ReferenceId   int                   `json:"reference_id"`
	LockType      models.PeriodLockType `json:"lock_type"`
	EntryDate     time.Time             `json:"entry_date"`
	BranchId      int                   `json:"branch_id"`
	WarehouseId   int                   `json:"warehouse_id"`
	CostCenterId  int                   `json:"cost_center_id"`

	Journal *JournalDraft `json:"journal"`

	NewLots        []NewLot                  `json:"new_lots"`
	FIFOPlans      []FIFOPlan                `json:"fifo_plans"`
	ReversalPlans  []FIFOReversalPlan        `json:"reversal_plans"`
	InventoryMoves []InventoryMove           `json:"inventory_moves"`
	COGSRows       []models.COGSTransaction  `json:"cogs_rows"`
	CustomerCredit *models.CustomerCredit    `json:"customer_credit"`
	VendorCredit   *models.VendorCredit      `json:"vendor_credit"`

	InvoiceUpdate *models.SalesInvoice `json:"invoice_update"`
	BillUpdate    *models.Bill         `json:"bill_update"`
}

// PrepareResult wraps a payload with the preparer's decision. Skipped means
// the preparer declined to write a journal for a structured, non-error
// reason. A skipped result may still carry a journal-less payload: a zero
// cost write off abstains from the journal but its stock still moves.
type PrepareResult struct {
	Payload    *PostingPayload `json:"payload"`
	Skipped    bool            `json:"skipped"`
	SkipReason string          `json:"skip_reason"`
}

// LockTypeForReferenceType maps a document family to the period lock that
// governs it. Customer payments carry the sales lock and supplier payments
// the purchase lock, so payment preparers override this default.
func LockTypeForReferenceType(refType models.ReferenceType) models.PeriodLockType {
	switch refType {
	case models.ReferenceTypeInvoice, models.ReferenceTypeInvoiceCogs,
		models.ReferenceTypeSalesReturn, models.ReferenceTypePayment:
		return models.SalesPeriodLock
	case models.ReferenceTypeBill, models.ReferenceTypePurchaseReturn:
		return models.PurchasePeriodLock
	default:
		return models.AccountantPeriodLock
	}
}

// CommitResult reports what the orchestrator actually did. AlreadyPosted is
// the idempotent outcome: the reference had a journal entry before this call.
type CommitResult struct {
	JournalEntryId int    `json:"journal_entry_id"`
	AlreadyPosted  bool   `json:"already_posted"`
	Skipped        bool   `json:"skipped"`
	SkipReason     string `json:"skip_reason"`
}
