package workflow

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// PrepareInvoicePosting builds the revenue-side journal for a confirmed
// sales invoice:
//
//	Dr  accounts receivable   total
//	Cr  sales                 subtotal
//	Cr  output tax            tax
//	Cr  shipping charge       shipping
//	Cr  other charges         other
//
// Cost recognition is a separate posting (see PrepareInvoiceCogsPosting) so
// a chart misconfiguration on the cost side never blocks revenue, and vice
// versa.
func PrepareInvoicePosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, invoiceId int) (*PrepareResult, error) {
	invoice, err := models.GetSalesInvoice(tx, tenantId, invoiceId)
	if err != nil {
		config.LogError(logger, "invoicePosting.go", "PrepareInvoicePosting", "load invoice", invoiceId, err)
		return nil, err
	}
	// revenue recognizes on the draft -> non-draft transition; a draft has
	// not transitioned yet, so posting it is a structured skip
	if invoice.Status == string(models.InvoiceStatusDraft) {
		return &PrepareResult{
			Skipped:    true,
			SkipReason: fmt.Sprintf("invoice %d is still draft", invoiceId),
		}, nil
	}
	if invoice.Status == string(models.InvoiceStatusVoid) {
		return nil, &utils.ValidationError{
			Invariant: "invoice status",
			Detail:    fmt.Sprintf("invoice %d is void and cannot post", invoiceId),
		}
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}
	receivableId, err := accounts.Get(RoleReceivable)
	if err != nil {
		return nil, err
	}
	revenueId, err := accounts.Get(RoleRevenue)
	if err != nil {
		return nil, err
	}

	costCenterId := utils.DereferencePtr(invoice.CostCenterId)
	draft := JournalDraft{
		ReferenceType: models.ReferenceTypeInvoice,
		ReferenceId:   invoice.ID,
		EntryDate:     invoice.InvoiceDate,
		Description:   "Sales invoice " + invoice.InvoiceNumber,
		BranchId:      invoice.BranchId,
		CostCenterId:  costCenterId,
		Lines: []models.JournalLine{
			{AccountId: receivableId, Debit: invoice.TotalAmount, BranchId: invoice.BranchId, CostCenterId: costCenterId},
			{AccountId: revenueId, Credit: invoice.SubTotal, BranchId: invoice.BranchId, CostCenterId: costCenterId},
		},
	}
	if invoice.TaxAmount.IsPositive() {
		taxId, err := accounts.Get(RoleOutputTax)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: taxId, Credit: invoice.TaxAmount, BranchId: invoice.BranchId, CostCenterId: costCenterId,
		})
	}
	if invoice.ShippingFee.IsPositive() {
		shippingId, err := accounts.Get(RoleShippingCharge)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: shippingId, Credit: invoice.ShippingFee, BranchId: invoice.BranchId, CostCenterId: costCenterId,
		})
	}
	if invoice.OtherCharges.IsPositive() {
		otherId, err := accounts.Get(RoleOtherCharges)
		if err != nil {
			return nil, err
		}
		draft.Lines = append(draft.Lines, models.JournalLine{
			AccountId: otherId, Credit: invoice.OtherCharges, BranchId: invoice.BranchId, CostCenterId: costCenterId,
		})
	}

	return &PrepareResult{
		Payload: &PostingPayload{
			TenantId:      tenantId,
			ReferenceType: models.ReferenceTypeInvoice,
			ReferenceId:   invoice.ID,
			LockType:      models.SalesPeriodLock,
			EntryDate:     invoice.InvoiceDate,
			BranchId:      invoice.BranchId,
			WarehouseId:   invoice.WarehouseId,
			CostCenterId:  costCenterId,
			Journal:       &draft,
		},
	}, nil
}
