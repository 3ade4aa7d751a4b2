package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// AmountTolerance is the rounding slack allowed when comparing money figures
// (journal balance, quantity*unitCost cross-checks).
var AmountTolerance = decimal.NewFromFloat(0.01)

// WithinTolerance reports whether |a-b| <= AmountTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(AmountTolerance) <= 0
}

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func MergeIntSlices(slice1, slice2 []int) []int {
	merged := make([]int, 0, len(slice1)+len(slice2))
	seen := make(map[int]struct{}, len(slice1)+len(slice2))
	for _, s := range [][]int{slice1, slice2} {
		for _, v := range s {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			merged = append(merged, v)
		}
	}
	return merged
}

func DereferencePtr[T any](ptr *T, defaults ...T) T {
	if ptr != nil {
		return *ptr
	}
	if len(defaults) > 0 {
		return defaults[0]
	}
	var zero T
	return zero
}

// ConvertToDate truncates t to midnight in the tenant's timezone. Falls back
// to UTC when the timezone string is empty or unknown.
func ConvertToDate(t time.Time, timezone string) (time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		l, err := time.LoadLocation(timezone)
		if err != nil {
			return time.Time{}, err
		}
		loc = l
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc), nil
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}
