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

// PreparePurchaseReturnPosting sends stock back to the supplier. The returned
// quantity draws down the exact lots the originating bill line created before
// falling back to general FIFO order, so in the common case the inventory
// credit matches the bill price exactly.
//
//	Dr  accounts payable    settled portion (caps at what is still owed)
//	Dr  supplier advances / cash / bank   excess, per settlement method
//	Cr  inventory           FIFO cost of the drawn lots
//	Cr  input tax           returned tax
//	Cr/Dr  other charges    price variance, when lot cost differs from value
//
// Returned stock leaves at cost, not at sale: no cost ledger rows are
// written for purchase returns.
func PreparePurchaseReturnPosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, returnId int) (*PrepareResult, error) {
	purchaseReturn, err := models.GetPurchaseReturn(tx, tenantId, returnId)
	if err != nil {
		config.LogError(logger, "purchaseReturnPosting.go", "PreparePurchaseReturnPosting", "load return", returnId, err)
		return nil, err
	}
	bill, err := models.GetBill(tx, tenantId, purchaseReturn.BillId)
	if err != nil {
		return nil, err
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	payableId, err := accounts.Get(RolePayable)
	if err != nil {
		return nil, err
	}
	inventoryId, err := accounts.Get(RoleInventory)
	if err != nil {
		return nil, err
	}

	costCenterId := utils.DereferencePtr(purchaseReturn.CostCenterId)
	drawnCost := decimal.Zero
	var plans []FIFOPlan
	for _, detail := range purchaseReturn.Details {
		plan, err := planBillSourcedDrawdown(tx, tenantId, &purchaseReturn, &detail)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
		drawnCost = drawnCost.Add(plan.TotalCost)
	}

	returnedValue := purchaseReturn.TotalAmount
	outstanding := bill.TotalAmount.Sub(bill.PaidAmount).Sub(bill.ReturnedAmount)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	settled := utils.MinDecimal(returnedValue, outstanding)
	excess := returnedValue.Sub(settled)

	draft := JournalDraft{
		ReferenceType: models.ReferenceTypePurchaseReturn,
		ReferenceId:   purchaseReturn.ID,
		EntryDate:     purchaseReturn.ReturnDate,
		Description:   "Purchase return " + purchaseReturn.ReturnNumber,
		BranchId:      purchaseReturn.BranchId,
		CostCenterId:  costCenterId,
	}
	if settled.IsPositive() {
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: payableId, Debit: settled, BranchId: purchaseReturn.BranchId, CostCenterId: costCenterId,
		})
	}

	payload := PostingPayload{
		TenantId:      tenantId,
		ReferenceType: models.ReferenceTypePurchaseReturn,
		ReferenceId:   purchaseReturn.ID,
		LockType:      models.PurchasePeriodLock,
		EntryDate:     purchaseReturn.ReturnDate,
		BranchId:      purchaseReturn.BranchId,
		WarehouseId:   purchaseReturn.WarehouseId,
		CostCenterId:  costCenterId,
		FIFOPlans:     plans,
	}

	if excess.IsPositive() {
		settleAccountId, err := settlementAccount(accounts, &purchaseReturn)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: settleAccountId, Debit: excess, BranchId: purchaseReturn.BranchId, CostCenterId: costCenterId,
		})
		if purchaseReturn.SettlementMethod == string(models.SettlementMethodVendorCredit) {
			payload.VendorCredit = &models.VendorCredit{
				TenantId:      tenantId,
				SupplierId:    purchaseReturn.SupplierId,
				ReferenceType: models.ReferenceTypePurchaseReturn,
				ReferenceId:   purchaseReturn.ID,
				Amount:        excess,
				Status:        models.CreditStatusOpen,
			}
		}
	}

	draft.Lines = append(draft.Lines, models.JournalLine{
		AccountId: inventoryId, Credit: drawnCost, BranchId: purchaseReturn.BranchId, CostCenterId: costCenterId,
	})
	if purchaseReturn.TaxAmount.IsPositive() {
		taxId, err := accounts.Get(RoleInputTax)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: taxId, Credit: purchaseReturn.TaxAmount, BranchId: purchaseReturn.BranchId, CostCenterId: costCenterId,
		})
	}
	variance := returnedValue.Sub(purchaseReturn.TaxAmount).Sub(drawnCost)
	if !utils.WithinTolerance(variance, decimal.Zero) {
		otherId, err := accounts.Get(RoleOtherCharges)
		if err != nil {
			return nil, err
		}
		line := models.JournalLine{AccountId: otherId, BranchId: purchaseReturn.BranchId, CostCenterId: costCenterId}
		if variance.IsPositive() {
			line.Credit = variance
		} else {
			line.Debit = variance.Neg()
		}
		draft.Lines = append(draft.Lines, line)
	}

	bill.ReturnedAmount = bill.ReturnedAmount.Add(returnedValue)
	payload.Journal = &draft
	payload.BillUpdate = &bill
	return &PrepareResult{Payload: &payload}, nil
}

// planBillSourcedDrawdown allocates the returned quantity against the lots
// the bill line created first (oldest first), then against remaining open
// lots in standard order.
func planBillSourcedDrawdown(tx *gorm.DB, tenantId string, purchaseReturn *models.PurchaseReturn, detail *models.PurchaseReturnDetail) (*FIFOPlan, error) {
	if !detail.Qty.IsPositive() {
		return nil, &utils.ValidationError{
			Invariant: "return quantity",
			Detail:    fmt.Sprintf("purchase return line %d quantity must be positive", detail.ID),
		}
	}

	var sourceLots []*models.FIFOLot
	err := tx.
		Where("tenant_id = ? AND warehouse_id = ? AND product_id = ? AND remaining_qty > 0", tenantId, purchaseReturn.WarehouseId, detail.ProductId).
		Where("source_type = ? AND source_id = ? AND source_detail_id = ?", models.ReferenceTypeBill, purchaseReturn.BillId, detail.BillDetailId).
		Order("lot_date ASC, id ASC").
		Find(&sourceLots).Error
	if err != nil {
		return nil, err
	}

	plan := FIFOPlan{
		ProductId:         detail.ProductId,
		WarehouseId:       purchaseReturn.WarehouseId,
		BranchId:          purchaseReturn.BranchId,
		ReferenceType:     models.ReferenceTypePurchaseReturn,
		ReferenceId:       purchaseReturn.ID,
		ReferenceDetailId: detail.ID,
		ConsumptionDate:   purchaseReturn.ReturnDate,
		Qty:               detail.Qty,
	}

	remaining := detail.Qty
	taken := make(map[int]struct{}, len(sourceLots))
	for _, lot := range sourceLots {
		if !remaining.IsPositive() {
			break
		}
		take := utils.MinDecimal(remaining, lot.RemainingQty)
		plan.Consumptions = append(plan.Consumptions, LotConsumption{
			LotId:     lot.ID,
			Qty:       take,
			UnitCost:  lot.UnitCost,
			TotalCost: take.Mul(lot.UnitCost),
		})
		plan.TotalCost = plan.TotalCost.Add(take.Mul(lot.UnitCost))
		remaining = remaining.Sub(take)
		taken[lot.ID] = struct{}{}
	}

	if remaining.IsPositive() {
		openLots, err := models.OpenLotsFIFO(tx, tenantId, purchaseReturn.WarehouseId, detail.ProductId)
		if err != nil {
			return nil, err
		}
		for _, lot := range openLots {
			if _, alreadyPlanned := taken[lot.ID]; alreadyPlanned {
				continue
			}
			if !remaining.IsPositive() {
				break
			}
			take := utils.MinDecimal(remaining, lot.RemainingQty)
			plan.Consumptions = append(plan.Consumptions, LotConsumption{
				LotId:     lot.ID,
				Qty:       take,
				UnitCost:  lot.UnitCost,
				TotalCost: take.Mul(lot.UnitCost),
			})
			plan.TotalCost = plan.TotalCost.Add(take.Mul(lot.UnitCost))
			remaining = remaining.Sub(take)
		}
	}

	if remaining.IsPositive() {
		return nil, &utils.InsufficientStockError{
			ProductId:   detail.ProductId,
			WarehouseId: purchaseReturn.WarehouseId,
			Requested:   detail.Qty,
			Available:   detail.Qty.Sub(remaining),
		}
	}
	return &plan, nil
}

func settlementAccount(accounts SystemAccounts, purchaseReturn *models.PurchaseReturn) (int, error) {
	if purchaseReturn.SettleAccountId != nil && *purchaseReturn.SettleAccountId > 0 {
		return *purchaseReturn.SettleAccountId, nil
	}
	switch purchaseReturn.SettlementMethod {
	case string(models.SettlementMethodVendorCredit):
		return accounts.Get(RoleSupplierAdvances)
	case string(models.SettlementMethodCashRefund):
		return accounts.Get(RoleCash)
	case string(models.SettlementMethodBankRefund):
		return accounts.Get(RoleBank)
	default:
		return 0, &utils.ValidationError{
			Invariant: "settlement method",
			Detail:    fmt.Sprintf("unknown settlement method %q", purchaseReturn.SettlementMethod),
		}
	}
}
