package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// JournalEntry is one balanced posting tied to exactly one business document.
// The unique index on (tenant, reference_type, reference_id, is_reversal)
// makes "one journal per reference" a storage-level guarantee rather than an
// application-level existence check.
//
// Entries are never mutated after creation. Voiding a document appends a
// mirroring reversal entry instead.
type JournalEntry struct {
	ID            int           `gorm:"primary_key" json:"id"`
	TenantId      string        `gorm:"size:36;not null;uniqueIndex:idx_journal_reference" json:"tenant_id"`
	ReferenceType ReferenceType `gorm:"size:32;not null;uniqueIndex:idx_journal_reference" json:"reference_type"`
	ReferenceId   int           `gorm:"not null;uniqueIndex:idx_journal_reference" json:"reference_id"`
	IsReversal    bool          `gorm:"not null;default:false;uniqueIndex:idx_journal_reference" json:"is_reversal"`

	EntryDate    time.Time       `gorm:"index;not null" json:"entry_date"`
	Description  string          `gorm:"size:255" json:"description"`
	BranchId     int             `gorm:"index" json:"branch_id"`
	CostCenterId int             `gorm:"index" json:"cost_center_id"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"total_amount"`

	ReversesEntryId   *int    `json:"reverses_entry_id"`
	ReversedByEntryId *int    `json:"reversed_by_entry_id"`
	ReversalReason    *string `gorm:"size:255" json:"reversal_reason"`

	Lines []JournalLine `gorm:"foreignKey:JournalEntryId" json:"lines"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// JournalLine is owned exclusively by its entry. Exactly one of Debit/Credit
// is non-zero in a well-formed line.
type JournalLine struct {
	ID             int             `gorm:"primary_key" json:"id"`
	JournalEntryId int             `gorm:"index;not null" json:"journal_entry_id"`
	AccountId      int             `gorm:"index;not null" json:"account_id"`
	Description    string          `gorm:"size:255" json:"description"`
	Debit          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"debit"`
	Credit         decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"credit"`
	BranchId       int             `json:"branch_id"`
	CostCenterId   int             `json:"cost_center_id"`
}

// DebitTotal sums the entry's debit side.
func (e *JournalEntry) DebitTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// CreditTotal sums the entry's credit side.
func (e *JournalEntry) CreditTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}
