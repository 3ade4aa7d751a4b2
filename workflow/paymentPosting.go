package workflow

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// PreparePaymentPosting handles both directions:
//
//	customer payment:  Dr deposit account / Cr accounts receivable
//	supplier payment:  Dr accounts payable / Cr deposit account
//
// The deposit account is chosen on the payment document; the preparer only
// verifies it exists and is postable. When the payment is applied against a
// specific invoice or bill, the document's paid amount and status move with
// the posting.
func PreparePaymentPosting(tx *gorm.DB, logger *logrus.Logger, tenantId string, paymentId int) (*PrepareResult, error) {
	payment, err := models.GetPayment(tx, tenantId, paymentId)
	if err != nil {
		config.LogError(logger, "paymentPosting.go", "PreparePaymentPosting", "load payment", paymentId, err)
		return nil, err
	}
	if (payment.CustomerId == nil) == (payment.SupplierId == nil) {
		return nil, &utils.ValidationError{
			Invariant: "payment party",
			Detail:    fmt.Sprintf("payment %d must name exactly one of customer or supplier", paymentId),
		}
	}
	if !payment.Amount.IsPositive() {
		return nil, &utils.ValidationError{
			Invariant: "payment amount",
			Detail:    fmt.Sprintf("payment %d amount must be positive", paymentId),
		}
	}
	if _, err := models.GetAccount(tx, tenantId, payment.DepositAccountId); err != nil {
		return nil, &utils.ConfigurationError{
			Role:   "deposit",
			Detail: fmt.Sprintf("deposit account %d not found", payment.DepositAccountId),
		}
	}

	accounts, err := ResolveSystemAccounts(tx, tenantId)
	if err != nil {
		return nil, err
	}

	costCenterId := utils.DereferencePtr(payment.CostCenterId)
	payload := PostingPayload{
		TenantId:      tenantId,
		ReferenceType: models.ReferenceTypePayment,
		ReferenceId:   payment.ID,
		EntryDate:     payment.PaymentDate,
		BranchId:      payment.BranchId,
		CostCenterId:  costCenterId,
	}
	draft := JournalDraft{
		ReferenceType: models.ReferenceTypePayment,
		ReferenceId:   payment.ID,
		EntryDate:     payment.PaymentDate,
		Description:   "Payment " + payment.PaymentNumber,
		BranchId:      payment.BranchId,
		CostCenterId:  costCenterId,
	}

	if payment.CustomerId != nil {
		receivableId, err := accounts.Get(RoleReceivable)
		if err != nil {
			return nil, err
		}
		payload.LockType = models.SalesPeriodLock
		draft.Lines = []models.JournalLine{
			{AccountId: payment.DepositAccountId, Debit: payment.Amount, BranchId: payment.BranchId, CostCenterId: costCenterId},
			{AccountId: receivableId, Credit: payment.Amount, BranchId: payment.BranchId, CostCenterId: costCenterId},
		}
		if payment.InvoiceId != nil {
			invoice, err := models.GetSalesInvoice(tx, tenantId, *payment.InvoiceId)
			if err != nil {
				return nil, err
			}
			invoice.PaidAmount = invoice.PaidAmount.Add(payment.Amount)
			payload.InvoiceUpdate = &invoice
		}
	} else {
		payableId, err := accounts.Get(RolePayable)
		if err != nil {
			return nil, err
		}
		payload.LockType = models.PurchasePeriodLock
		draft.Lines = []models.JournalLine{
			{AccountId: payableId, Debit: payment.Amount, BranchId: payment.BranchId, CostCenterId: costCenterId},
			{AccountId: payment.DepositAccountId, Credit: payment.Amount, BranchId: payment.BranchId, CostCenterId: costCenterId},
		}
		if payment.BillId != nil {
			bill, err := models.GetBill(tx, tenantId, *payment.BillId)
			if err != nil {
				return nil, err
			}
			bill.PaidAmount = bill.PaidAmount.Add(payment.Amount)
			payload.BillUpdate = &bill
		}
	}

	payload.Journal = &draft
	return &PrepareResult{Payload: &payload}, nil
}
