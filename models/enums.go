package models

type AccountMainType string

const (
	AccountMainTypeAsset     AccountMainType = "Asset"
	AccountMainTypeLiability AccountMainType = "Liability"
	AccountMainTypeEquity    AccountMainType = "Equity"
	AccountMainTypeIncome    AccountMainType = "Income"
	AccountMainTypeExpense   AccountMainType = "Expense"
)

// AccountDetailType is the subtype tag the account resolver keys on.
type AccountDetailType string

const (
	AccountDetailTypeAccountsReceivable AccountDetailType = "AccountsReceivable"
	AccountDetailTypeAccountsPayable    AccountDetailType = "AccountsPayable"
	AccountDetailTypeSales              AccountDetailType = "Sales"
	AccountDetailTypeStock              AccountDetailType = "Stock"
	AccountDetailTypeCostOfGoodsSold    AccountDetailType = "CostOfGoodsSold"
	AccountDetailTypeCash               AccountDetailType = "Cash"
	AccountDetailTypeBank               AccountDetailType = "Bank"
	AccountDetailTypeInputTax           AccountDetailType = "InputTax"
	AccountDetailTypeOutputTax          AccountDetailType = "OutputTax"
	AccountDetailTypeCustomerAdvances   AccountDetailType = "CustomerAdvances"
	AccountDetailTypeSupplierAdvances   AccountDetailType = "SupplierAdvances"
	AccountDetailTypeShippingCharge     AccountDetailType = "ShippingCharge"
	AccountDetailTypeOtherCharges       AccountDetailType = "OtherCharges"
	AccountDetailTypeWriteOffExpense    AccountDetailType = "WriteOffExpense"
	AccountDetailTypeOtherCurrentAsset  AccountDetailType = "OtherCurrentAsset"
	AccountDetailTypeOtherLiability     AccountDetailType = "OtherLiability"
	AccountDetailTypeIncome             AccountDetailType = "Income"
	AccountDetailTypeExpense            AccountDetailType = "Expense"
	AccountDetailTypeEquity             AccountDetailType = "Equity"
)

// ReferenceType ties a journal entry (and its side effects) back to the
// business document that produced it. One journal per (type, id).
type ReferenceType string

const (
	ReferenceTypeInvoice        ReferenceType = "invoice"
	ReferenceTypeInvoiceCogs    ReferenceType = "invoice_cogs"
	ReferenceTypePayment        ReferenceType = "payment"
	ReferenceTypeBill           ReferenceType = "bill"
	ReferenceTypeWriteOff       ReferenceType = "write_off"
	ReferenceTypeSalesReturn    ReferenceType = "sales_return"
	ReferenceTypePurchaseReturn ReferenceType = "purchase_return"
	ReferenceTypeOpeningStock   ReferenceType = "opening_stock"
)

type LotType string

const (
	LotTypeOpeningStock LotType = "opening_stock"
	LotTypePurchase     LotType = "purchase"
	LotTypeAdjustment   LotType = "adjustment"
)

type CogsSourceType string

const (
	CogsSourceInvoice    CogsSourceType = "invoice"
	CogsSourceReturn     CogsSourceType = "return"
	CogsSourceAdjustment CogsSourceType = "adjustment"
	CogsSourceWriteOff   CogsSourceType = "write_off"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft             InvoiceStatus = "draft"
	InvoiceStatusConfirmed         InvoiceStatus = "confirmed"
	InvoiceStatusPartiallyPaid     InvoiceStatus = "partially_paid"
	InvoiceStatusPaid              InvoiceStatus = "paid"
	InvoiceStatusPartiallyReturned InvoiceStatus = "partially_returned"
	InvoiceStatusFullyReturned     InvoiceStatus = "fully_returned"
	InvoiceStatusVoid              InvoiceStatus = "void"
)

type BillStatus string

const (
	BillStatusDraft             BillStatus = "draft"
	BillStatusConfirmed         BillStatus = "confirmed"
	BillStatusPartiallyPaid     BillStatus = "partially_paid"
	BillStatusPaid              BillStatus = "paid"
	BillStatusPartiallyReturned BillStatus = "partially_returned"
	BillStatusFullyReturned     BillStatus = "fully_returned"
	BillStatusVoid              BillStatus = "void"
)

type OrderStatus string

const (
	OrderStatusOpen              OrderStatus = "open"
	OrderStatusInvoiced          OrderStatus = "invoiced"
	OrderStatusPartiallyReturned OrderStatus = "partially_returned"
	OrderStatusFullyReturned     OrderStatus = "fully_returned"
	OrderStatusClosed            OrderStatus = "closed"
)

type WriteOffStatus string

const (
	WriteOffStatusPending  WriteOffStatus = "pending"
	WriteOffStatusApproved WriteOffStatus = "approved"
	WriteOffStatusRejected WriteOffStatus = "rejected"
)

// SettlementMethod picks how a purchase return's value comes back from the
// vendor once the bill's outstanding balance is exhausted.
type SettlementMethod string

const (
	SettlementMethodVendorCredit SettlementMethod = "vendor_credit"
	SettlementMethodCashRefund   SettlementMethod = "cash_refund"
	SettlementMethodBankRefund   SettlementMethod = "bank_refund"
)

type CreditStatus string

const (
	CreditStatusOpen   CreditStatus = "open"
	CreditStatusUsed   CreditStatus = "used"
	CreditStatusClosed CreditStatus = "closed"
)

type PeriodLockType string

const (
	SalesPeriodLock      PeriodLockType = "SalesPeriodLock"
	PurchasePeriodLock   PeriodLockType = "PurchasePeriodLock"
	AccountantPeriodLock PeriodLockType = "AccountantPeriodLock"
)

// RoleScopeLevel controls governance scope derivation.
type RoleScopeLevel string

const (
	RoleScopeCompany RoleScopeLevel = "company"
	RoleScopeBranch  RoleScopeLevel = "branch"
	RoleScopeSingle  RoleScopeLevel = "single"
)
