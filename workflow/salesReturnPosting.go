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

// PrepareSalesReturnPosting reverses revenue proportionally to the returned
// quantities and splits the returned value between settling the customer's
// outstanding balance on the invoice and issuing store credit:
//
//	Dr  sales              returned subtotal
//	Dr  output tax         returned tax
//	Cr  accounts receivable  settled portion (caps at what is still owed)
//	Cr  customer advances    excess as store credit
//
// Undamaged quantities go back on the shelf at the exact FIFO cost their sale
// consumed, moving that cost out of the cost ledger:
//
//	Dr  inventory          restock cost
//	Cr  cost of goods sold restock cost
//
// Damaged quantities are not restocked; their cost stays recognized.
func PrepareSalesReturnPosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, returnId int) (*PrepareResult, error) {
	salesReturn, err := models.GetSalesReturn(tx, tenantId, returnId)
	if err != nil {
		config.LogError(logger, "salesReturnPosting.go", "PrepareSalesReturnPosting", "load return", returnId, err)
		return nil, err
	}
	invoice, err := models.GetSalesInvoice(tx, tenantId, salesReturn.InvoiceId)
	if err != nil {
		return nil, err
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	revenueId, err := accounts.Get(RoleRevenue)
	if err != nil {
		return nil, err
	}
	receivableId, err := accounts.Get(RoleReceivable)
	if err != nil {
		return nil, err
	}

	invoiceDetails := make(map[int]*models.SalesInvoiceDetail, len(invoice.Details))
	for i := range invoice.Details {
		invoiceDetails[invoice.Details[i].ID] = &invoice.Details[i]
	}

	costCenterId := utils.DereferencePtr(salesReturn.CostCenterId)
	returnedSub := decimal.Zero
	returnedTax := decimal.Zero
	restockCost := decimal.Zero
	var reversalPlans []FIFOReversalPlan
	for _, detail := range salesReturn.Details {
		invDetail, ok := invoiceDetails[detail.InvoiceDetailId]
		if !ok {
			return nil, &utils.ValidationError{
				Invariant: "return line origin",
				Detail:    fmt.Sprintf("return line %d names invoice line %d which is not on invoice %d", detail.ID, detail.InvoiceDetailId, invoice.ID),
			}
		}
		if detail.Qty.Cmp(invDetail.Qty) > 0 {
			return nil, &utils.ValidationError{
				Invariant: "return quantity",
				Detail: fmt.Sprintf("return line %d returns %s but invoice line sold %s",
					detail.ID, detail.Qty.String(), invDetail.Qty.String()),
			}
		}
		if detail.DamagedQty.Cmp(detail.Qty) > 0 {
			return nil, &utils.ValidationError{
				Invariant: "damaged quantity",
				Detail:    fmt.Sprintf("return line %d damaged %s exceeds returned %s", detail.ID, detail.DamagedQty.String(), detail.Qty.String()),
			}
		}

		ratio := detail.Qty.Div(invDetail.Qty)
		returnedSub = returnedSub.Add(invDetail.Amount.Mul(ratio))
		returnedTax = returnedTax.Add(invDetail.TaxAmount.Mul(ratio))

		restockQty := detail.Qty.Sub(detail.DamagedQty)
		if !restockQty.IsPositive() {
			continue
		}
		tracked, err := isTrackedProduct(tx, tenantId, detail.ProductId)
		if err != nil {
			return nil, err
		}
		if !tracked {
			continue
		}
		plan, err := PlanFIFOReversal(tx, tenantId, models.ReferenceTypeInvoice, invoice.ID, invDetail.ID,
			restockQty, salesReturn.ReturnDate)
		if err != nil {
			return nil, err
		}
		plan.ProductId = detail.ProductId
		plan.WarehouseId = salesReturn.WarehouseId
		plan.BranchId = salesReturn.BranchId
		plan.EmitCOGS = true
		plan.CogsSource = models.CogsSourceReturn
		reversalPlans = append(reversalPlans, *plan)
		restockCost = restockCost.Add(plan.TotalCost)
	}

	returnedValue := returnedSub.Add(returnedTax)
	outstanding := invoice.TotalAmount.Sub(invoice.PaidAmount).Sub(invoice.ReturnedAmount)
	if outstanding.IsNegative() {
		outstanding = decimal.Zero
	}
	settled := utils.MinDecimal(returnedValue, outstanding)
	credited := returnedValue.Sub(settled)

	draft := JournalDraft{
		ReferenceType: models.ReferenceTypeSalesReturn,
		ReferenceId:   salesReturn.ID,
		EntryDate:     salesReturn.ReturnDate,
		Description:   "Sales return " + salesReturn.ReturnNumber,
		BranchId:      salesReturn.BranchId,
		CostCenterId:  costCenterId,
		Lines: []models.JournalLine{
			{AccountId: revenueId, Debit: returnedSub, BranchId: salesReturn.BranchId, CostCenterId: costCenterId},
		},
	}
	if returnedTax.IsPositive() {
		taxId, err := accounts.Get(RoleOutputTax)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: taxId, Debit: returnedTax, BranchId: salesReturn.BranchId, CostCenterId: costCenterId,
		})
	}
	if settled.IsPositive() {
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: receivableId, Credit: settled, BranchId: salesReturn.BranchId, CostCenterId: costCenterId,
		})
	}
	if credited.IsPositive() {
		advancesId, err := accounts.Get(RoleCustomerAdvances)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: advancesId, Credit: credited, BranchId: salesReturn.BranchId, CostCenterId: costCenterId,
		})
	}
	if restockCost.IsPositive() {
		inventoryId, err := accounts.Get(RoleInventory)
		if err != nil {
			return nil, err
		}
		cogsId, err := accounts.Get(RoleCogs)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines,
			models.JournalLine{AccountId: inventoryId, Debit: restockCost, BranchId: salesReturn.BranchId, CostCenterId: costCenterId},
			models.JournalLine{AccountId: cogsId, Credit: restockCost, BranchId: salesReturn.BranchId, CostCenterId: costCenterId},
		)
	}

	invoice.ReturnedAmount = invoice.ReturnedAmount.Add(returnedValue)
	payload := PostingPayload{
		TenantId:      tenantId,
		ReferenceType: models.ReferenceTypeSalesReturn,
		ReferenceId:   salesReturn.ID,
		LockType:      models.SalesPeriodLock,
		EntryDate:     salesReturn.ReturnDate,
		BranchId:      salesReturn.BranchId,
		WarehouseId:   salesReturn.WarehouseId,
		CostCenterId:  costCenterId,
		Journal:       &draft,
		ReversalPlans: reversalPlans,
		InvoiceUpdate: &invoice,
	}
	if credited.IsPositive() {
		payload.CustomerCredit = &models.CustomerCredit{
			TenantId:      tenantId,
			CustomerId:    salesReturn.CustomerId,
			ReferenceType: models.ReferenceTypeSalesReturn,
			ReferenceId:   salesReturn.ID,
			Amount:        credited,
			Status:        models.CreditStatusOpen,
		}
	}
	return &PrepareResult{Payload: &payload}, nil
}
