package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// PrepareBillPosting builds the purchase posting for a supplier bill:
//
//	Dr  inventory       tracked line cost
//	Dr  other charges   untracked line cost
//	Dr  input tax       tax
//	Cr  accounts payable  total
//
// Each tracked line also opens a FIFO lot dated at the bill date, priced at
// the line's unit cost, tagged with the bill line as its source so purchase
// returns can draw down the exact lots the bill created.
func PrepareBillPosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, billId int) (*PrepareResult, error) {
	bill, err := models.GetBill(tx, tenantId, billId)
	if err != nil {
		config.LogError(logger, "billPosting.go", "PrepareBillPosting", "load bill", billId, err)
		return nil, err
	}
	if bill.Status == string(models.BillStatusDraft) || bill.Status == string(models.BillStatusVoid) {
		return nil, &utils.ValidationError{
			Invariant: "bill status",
			Detail:    fmt.Sprintf("bill %d is %s and cannot post", billId, bill.Status),
		}
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	inventoryId, err := accounts.Get(RoleInventory)
	if err != nil {
		return nil, err
	}
	payableId, err := accounts.Get(RolePayable)
	if err != nil {
		return nil, err
	}

	costCenterId := utils.DereferencePtr(bill.CostCenterId)
	trackedCost := decimal.Zero
	untrackedCost := decimal.Zero
	var newLots []NewLot
	var moves []InventoryMove
	for _, detail := range bill.Details {
		lineCost := detail.Qty.Mul(detail.UnitCost)
		tracked, err := isTrackedProduct(tx, tenantId, detail.ProductId)
		if err != nil {
			return nil, err
		}
		if !tracked {
			untrackedCost = untrackedCost.Add(lineCost)
			continue
		}
		trackedCost = trackedCost.Add(lineCost)
		newLots = append(newLots, NewLot{
			ProductId:      detail.ProductId,
			WarehouseId:    bill.WarehouseId,
			BranchId:       bill.BranchId,
			LotDate:        bill.BillDate,
			LotType:        models.LotTypePurchase,
			Qty:            detail.Qty,
			UnitCost:       detail.UnitCost,
			SourceType:     models.ReferenceTypeBill,
			SourceId:       bill.ID,
			SourceDetailId: detail.ID,
		})
		moves = append(moves, InventoryMove{
			ProductId:         detail.ProductId,
			WarehouseId:       bill.WarehouseId,
			BranchId:          bill.BranchId,
			Qty:               detail.Qty,
			ReferenceType:     models.ReferenceTypeBill,
			ReferenceId:       bill.ID,
			ReferenceDetailId: detail.ID,
			TransactionDate:   bill.BillDate,
			Description:       "Bill " + bill.BillNumber,
		})
	}

	draft := JournalDraft{
		ReferenceType: models.ReferenceTypeBill,
		ReferenceId:   bill.ID,
		EntryDate:     bill.BillDate,
		Description:   "Bill " + bill.BillNumber,
		BranchId:      bill.BranchId,
		CostCenterId:  costCenterId,
	}
	if trackedCost.IsPositive() {
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: inventoryId, Debit: trackedCost, BranchId: bill.BranchId, CostCenterId: costCenterId,
		})
	}
	if untrackedCost.IsPositive() {
		otherId, err := accounts.Get(RoleOtherCharges)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: otherId, Debit: untrackedCost, BranchId: bill.BranchId, CostCenterId: costCenterId,
		})
	}
	if bill.TaxAmount.IsPositive() {
		taxId, err := accounts.Get(RoleInputTax)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: taxId, Debit: bill.TaxAmount, BranchId: bill.BranchId, CostCenterId: costCenterId,
		})
	}
	draft.Lines = append(draft.Lines, models.JournalLine{
		AccountId: payableId, Credit: bill.TotalAmount, BranchId: bill.BranchId, CostCenterId: costCenterId,
	})

	return &PrepareResult{
		Payload: &PostingPayload{
			TenantId:       tenantId,
			ReferenceType:  models.ReferenceTypeBill,
			ReferenceId:    bill.ID,
			LockType:       models.PurchasePeriodLock,
			EntryDate:      bill.BillDate,
			BranchId:       bill.BranchId,
			WarehouseId:    bill.WarehouseId,
			CostCenterId:   costCenterId,
			Journal:        &draft,
			NewLots:        newLots,
			InventoryMoves: moves,
		},
	}, nil
}
