package workflow

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// ValidateBalance rejects drafts whose debit and credit totals differ by more
// than the rounding tolerance, and drafts with no lines or a line carrying
// both sides.
func ValidateBalance(draft *JournalDraft) error {
	if len(draft.Lines) == 0 {
		return &utils.ValidationError{
			Invariant: "journal lines",
			Detail:    "a journal entry needs at least one line",
		}
	}
	entry := models.JournalEntry{Lines: draft.Lines}
	for _, l := range draft.Lines {
		if l.Debit.IsNegative() || l.Credit.IsNegative() {
			return &utils.ValidationError{
				Invariant: "journal line sign",
				Detail:    fmt.Sprintf("negative amount on account %d", l.AccountId),
			}
		}
		if l.Debit.IsPositive() && l.Credit.IsPositive() {
			return &utils.ValidationError{
				Invariant: "journal line side",
				Detail:    fmt.Sprintf("account %d has both a debit and a credit", l.AccountId),
			}
		}
	}
	debit, credit := entry.DebitTotal(), entry.CreditTotal()
	if !utils.WithinTolerance(debit, credit) {
		return &utils.ValidationError{
			Invariant: "journal balance",
			Detail:    fmt.Sprintf("debits %s != credits %s", debit.String(), credit.String()),
		}
	}
	return nil
}

// FindJournalEntry loads the existing entry for a reference, or returns
// utils.ErrorRecordNotFound.
func FindJournalEntry(tx *gorm.DB, tenantId string, refType models.ReferenceType, refId int, isReversal bool) (*models.JournalEntry, error) {
	var entry models.JournalEntry
	err := tx.Preload("Lines").
		Where("tenant_id = ? AND reference_type = ? AND reference_id = ? AND is_reversal = ?",
			tenantId, refType, refId, isReversal).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &entry, nil
}

// isDuplicateKey covers both the translated gorm error and the raw driver
// error, since translation depends on dialector support.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

// PersistJournalEntry validates balance and inserts the entry with its lines.
// At most one live entry can exist per (tenant, reference type, reference id):
// the unique index enforces it, so two concurrent posting attempts cannot
// both succeed. The loser of that race gets (existing, true, nil).
func PersistJournalEntry(tx *gorm.DB, logger *logrus.Logger, tenantId string, draft *JournalDraft) (*models.JournalEntry, bool, error) {
	if err := ValidateBalance(draft); err != nil {
		return nil, false, err
	}

	existing, err := FindJournalEntry(tx, tenantId, draft.ReferenceType, draft.ReferenceId, false)
	if err == nil {
		return existing, true, nil
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		return nil, false, err
	}

	entry := models.JournalEntry{
		TenantId:      tenantId,
		ReferenceType: draft.ReferenceType,
		ReferenceId:   draft.ReferenceId,
		EntryDate:     draft.EntryDate,
		Description:   draft.Description,
		BranchId:      draft.BranchId,
		CostCenterId:  draft.CostCenterId,
		Lines:         draft.Lines,
	}
	entry.TotalAmount = entry.DebitTotal()

	if err := tx.Create(&entry).Error; err != nil {
		if isDuplicateKey(err) {
			winner, findErr := FindJournalEntry(tx, tenantId, draft.ReferenceType, draft.ReferenceId, false)
			if findErr != nil {
				return nil, false, findErr
			}
			return winner, true, nil
		}
		config.LogError(logger, "journalEngine.go", "PersistJournalEntry", "create journal entry", draft, err)
		return nil, false, err
	}
	return &entry, false, nil
}

// ReverseJournalEntry appends a mirror entry (debits and credits swapped,
// line by line) and cross-links the pair. Voiding never deletes: the original
// stays, marked reversed.
//
// Reversing an already-reversed entry is idempotent and returns the existing
// reversal.
func ReverseJournalEntry(tx *gorm.DB, logger *logrus.Logger, tenantId string, entryId int, reason string) (*models.JournalEntry, error) {
	var original models.JournalEntry
	err := tx.Preload("Lines").
		Where("tenant_id = ? AND id = ?", tenantId, entryId).
		First(&original).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	if original.IsReversal {
		return nil, &utils.ValidationError{
			Invariant: "journal reversal",
			Detail:    fmt.Sprintf("entry %d is itself a reversal", entryId),
		}
	}
	if original.ReversedByEntryId != nil {
		return FindJournalEntry(tx, tenantId, original.ReferenceType, original.ReferenceId, true)
	}
	if err := models.ValidatePeriodOpen(tx, tenantId, original.EntryDate, LockTypeForReferenceType(original.ReferenceType)); err != nil {
		return nil, err
	}

	reversal := models.JournalEntry{
		TenantId:        tenantId,
		ReferenceType:   original.ReferenceType,
		ReferenceId:     original.ReferenceId,
		IsReversal:      true,
		EntryDate:       original.EntryDate,
		Description:     "Reversal: " + original.Description,
		BranchId:        original.BranchId,
		CostCenterId:    original.CostCenterId,
		TotalAmount:     original.TotalAmount,
		ReversesEntryId: &original.ID,
		ReversalReason:  &reason,
	}
	for _, l := range original.Lines {
		reversal.Lines = append(reversal.Lines, models.JournalLine{
			AccountId:    l.AccountId,
			Description:  l.Description,
			Debit:        l.Credit,
			Credit:       l.Debit,
			BranchId:     l.BranchId,
			CostCenterId: l.CostCenterId,
		})
	}
	if err := tx.Create(&reversal).Error; err != nil {
		if isDuplicateKey(err) {
			return FindJournalEntry(tx, tenantId, original.ReferenceType, original.ReferenceId, true)
		}
		config.LogError(logger, "journalEngine.go", "ReverseJournalEntry", "create reversal", entryId, err)
		return nil, err
	}
	if err := tx.Model(&models.JournalEntry{}).
		Where("id = ?", original.ID).
		Update("reversed_by_entry_id", reversal.ID).Error; err != nil {
		config.LogError(logger, "journalEngine.go", "ReverseJournalEntry", "link reversal", original.ID, err)
		return nil, err
	}
	return &reversal, nil
}
