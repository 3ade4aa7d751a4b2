package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrorRecordNotFound = errors.New("record not found")

// ConfigurationError means the tenant's chart of accounts (or similar setup)
// cannot satisfy a posting requirement. Operators must fix configuration;
// retrying does not help.
type ConfigurationError struct {
	Role   string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("missing required account for role %q: %s", e.Role, e.Detail)
	}
	return fmt.Sprintf("missing required account for role %q", e.Role)
}

// ValidationError aborts a single operation. Invariant names the violated
// rule so operators can correct root cause without guessing.
type ValidationError struct {
	Invariant string
	Detail    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Invariant, e.Detail)
}

// LockedPeriodError is distinct from generic validation failures: the entry
// date falls into a closed accounting period.
type LockedPeriodError struct {
	TenantId        string
	LockType        string
	LockDate        time.Time
	TransactionDate time.Time
}

func (e *LockedPeriodError) Error() string {
	return fmt.Sprintf("transaction date %s falls in a locked period (%s locked through %s)",
		e.TransactionDate.Format("2006-01-02"), e.LockType, e.LockDate.Format("2006-01-02"))
}

// InsufficientStockError: open lots cannot cover the requested quantity.
// Carries the shortfall so callers can surface it without re-querying.
type InsufficientStockError struct {
	ProductId   int
	WarehouseId int
	Requested   decimal.Decimal
	Available   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d in warehouse %d: requested %s, available %s",
		e.ProductId, e.WarehouseId, e.Requested.String(), e.Available.String())
}

// ConflictError: a row changed between read and write inside the same
// posting. The posting rolled back cleanly and can be retried.
type ConflictError struct {
	Resource string
	Detail   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Detail)
}

// GovernanceError: a write targeted a branch/warehouse/cost-center outside
// the actor's scope. Writes are rejected, never silently narrowed.
type GovernanceError struct {
	TenantId string
	Detail   string
}

func (e *GovernanceError) Error() string {
	return "governance violation: " + e.Detail
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsLockedPeriodError(err error) bool {
	var le *LockedPeriodError
	return errors.As(err, &le)
}

func IsInsufficientStockError(err error) bool {
	var ie *InsufficientStockError
	return errors.As(err, &ie)
}

func IsGovernanceError(err error) bool {
	var ge *GovernanceError
	return errors.As(err, &ge)
}

func IsConflictError(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
