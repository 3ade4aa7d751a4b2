package workflow

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// PreparePosting dispatches to the preparer for a reference type. Preparers
// read committed document state and assemble a payload; they never write.
func PreparePosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, refType models.ReferenceType, refId int) (*PrepareResult, error) {
	switch refType {
	case models.ReferenceTypeInvoice:
		return PrepareInvoicePosting(tx, logger, tenantId, refId)
	case models.ReferenceTypeInvoiceCogs:
		return PrepareInvoiceCogsPosting(tx, logger, tenantId, refId)
	case models.ReferenceTypePayment:
		return PreparePaymentPosting(tx, logger, tenantId, refId)
	case models.ReferenceTypeBill:
		return PrepareBillPosting(tx, logger, tenantId, refId)
	case models.ReferenceTypeWriteOff:
		return PrepareWriteOffPosting(tx, logger, tenantId, refId)
	case models.ReferenceTypeSalesReturn:
		return PrepareSalesReturnPosting(tx, logger, tenantId, refId)
	case models.ReferenceTypePurchaseReturn:
		return PreparePurchaseReturnPosting(tx, logger, tenantId, refId)
	default:
		return nil, &utils.ValidationError{
			Invariant: "reference type",
			Detail:    fmt.Sprintf("no posting path for reference type %q", refType),
		}
	}
}

// Commit applies a prepared payload in one transaction: everything the
// posting writes (journal, lots, consumptions, inventory rows, cost rows,
// credits, document status) lands together or not at all.
//
// The journal entry goes in first. If the reference already has one, the
// whole commit short-circuits to AlreadyPosted and writes nothing else, so a
// retried posting can never double-consume stock. Period locks and
// governance scope are checked inside the transaction, before any write.
//
// A payload without a journal is a journal abstention that still moves
// stock (zero-cost consumption). Its idempotency anchor is the inventory
// ledger instead of the journal: a reference that already produced
// inventory rows short-circuits the same way.
func Commit(db *gorm.DB, logger *logrus.Logger, scope *models.GovernanceScope, result *PrepareResult) (*CommitResult, error) {
	if result.Payload == nil {
		if result.Skipped {
			return &CommitResult{Skipped: true, SkipReason: result.SkipReason}, nil
		}
		return nil, &utils.ValidationError{
			Invariant: "posting payload",
			Detail:    "a non-skipped posting needs a payload",
		}
	}
	payload := result.Payload
	if scope != nil {
		if err := scope.ValidateWrite(payload.BranchId, payload.WarehouseId, payload.CostCenterId); err != nil {
			return nil, err
		}
	}

	commitResult := CommitResult{Skipped: result.Skipped, SkipReason: result.SkipReason}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := models.ValidatePeriodOpen(tx, payload.TenantId, payload.EntryDate, payload.LockType); err != nil {
			return err
		}

		if payload.Journal != nil {
			entry, alreadyPosted, err := PersistJournalEntry(tx, logger, payload.TenantId, payload.Journal)
			if err != nil {
				return err
			}
			commitResult.JournalEntryId = entry.ID
			if alreadyPosted {
				commitResult.AlreadyPosted = true
				return nil
			}
		} else {
			refType, refId := movementReference(payload)
			moved, err := models.HasInventoryTransactions(tx, payload.TenantId, refType, refId)
			if err != nil {
				return err
			}
			if moved {
				commitResult.AlreadyPosted = true
				return nil
			}
		}

		for _, spec := range payload.NewLots {
			if _, err := CreateLot(tx, logger, payload.TenantId, spec); err != nil {
				return err
			}
		}
		for _, move := range payload.InventoryMoves {
			row := models.InventoryTransaction{
				TenantId:          payload.TenantId,
				BranchId:          move.BranchId,
				WarehouseId:       move.WarehouseId,
				ProductId:         move.ProductId,
				Qty:               move.Qty,
				ReferenceType:     move.ReferenceType,
				ReferenceId:       move.ReferenceId,
				ReferenceDetailId: move.ReferenceDetailId,
				TransactionDate:   move.TransactionDate,
				Description:       move.Description,
			}
			if err := tx.Create(&row).Error; err != nil {
				config.LogError(logger, "orchestrator.go", "Commit", "create inventory transaction", move, err)
				return err
			}
		}
		for i := range payload.FIFOPlans {
			if _, err := ApplyFIFOPlan(tx, logger, payload.TenantId, &payload.FIFOPlans[i], payload.CostCenterId); err != nil {
				return err
			}
		}
		for i := range payload.ReversalPlans {
			plan := &payload.ReversalPlans[i]
			if _, err := ApplyFIFOReversal(tx, logger, payload.TenantId, plan,
				payload.ReferenceType, payload.ReferenceId, plan.ReferenceDetailId, payload.CostCenterId); err != nil {
				return err
			}
		}
		for i := range payload.COGSRows {
			if err := RecordCOGS(tx, logger, &payload.COGSRows[i]); err != nil {
				return err
			}
		}
		if payload.CustomerCredit != nil {
			if err := tx.Create(payload.CustomerCredit).Error; err != nil {
				config.LogError(logger, "orchestrator.go", "Commit", "create customer credit", payload.CustomerCredit, err)
				return err
			}
		}
		if payload.VendorCredit != nil {
			if err := tx.Create(payload.VendorCredit).Error; err != nil {
				config.LogError(logger, "orchestrator.go", "Commit", "create vendor credit", payload.VendorCredit, err)
				return err
			}
		}
		if payload.InvoiceUpdate != nil {
			if err := models.SaveInvoiceStatus(tx, payload.InvoiceUpdate); err != nil {
				return err
			}
			if err := syncSalesOrderStatus(tx, payload.TenantId, payload.InvoiceUpdate); err != nil {
				return err
			}
		}
		if payload.BillUpdate != nil {
			if err := models.SaveBillStatus(tx, payload.BillUpdate); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &commitResult, nil
}

// movementReference picks the reference the payload's inventory rows are
// written under. Plans may reference a different document than the journal
// (invoice cost postings consume under the invoice itself).
func movementReference(payload *PostingPayload) (models.ReferenceType, int) {
	if len(payload.FIFOPlans) > 0 {
		return payload.FIFOPlans[0].ReferenceType, payload.FIFOPlans[0].ReferenceId
	}
	if len(payload.InventoryMoves) > 0 {
		return payload.InventoryMoves[0].ReferenceType, payload.InventoryMoves[0].ReferenceId
	}
	return payload.ReferenceType, payload.ReferenceId
}

// PostReference is the one-call path: prepare and commit under the posting
// lock types the preparer chose.
func PostReference(db *gorm.DB, logger *logrus.Logger, scope *models.GovernanceScope,
	tenantId string, refType models.ReferenceType, refId int) (*CommitResult, error) {
	result, err := PreparePosting(db, logger, tenantId, refType, refId)
	if err != nil {
		return nil, err
	}
	return Commit(db, logger, scope, result)
}

// syncSalesOrderStatus moves a linked sales order when the invoice's return
// state changes.
func syncSalesOrderStatus(tx *gorm.DB, tenantId string, invoice *models.SalesInvoice) error {
	if invoice.SalesOrderId == nil {
		return nil
	}
	var status models.OrderStatus
	switch invoice.Status {
	case string(models.InvoiceStatusFullyReturned):
		status = models.OrderStatusFullyReturned
	case string(models.InvoiceStatusPartiallyReturned):
		status = models.OrderStatusPartiallyReturned
	default:
		return nil
	}
	err := tx.Model(&models.SalesOrder{}).
		Where("tenant_id = ? AND id = ?", tenantId, *invoice.SalesOrderId).
		Update("status", string(status)).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}
