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

// LotCorrection records one repaired lot remainder.
type LotCorrection struct {
	LotId        int             `json:"lot_id"`
	OldRemaining decimal.Decimal `json:"old_remaining"`
	NewRemaining decimal.Decimal `json:"new_remaining"`
}

// RebuildLotRemainders recomputes every lot's remaining quantity from its
// consumption history (original minus the signed sum of consumption rows,
// where reversal rows carry negative quantity) and repairs lots that have
// drifted. Consumption rows themselves are never touched; they are the
// source of truth this derives from.
//
// Run under the tenant posting lock so no posting races the repair.
func RebuildLotRemainders(tx *gorm.DB, logger *logrus.Logger, tenantId string, warehouseId, productId int) ([]LotCorrection, error) {
	q := tx.Where("tenant_id = ?", tenantId)
	if warehouseId > 0 {
		q = q.Where("warehouse_id = ?", warehouseId)
	}
	if productId > 0 {
		q = q.Where("product_id = ?", productId)
	}
	var lots []*models.FIFOLot
	if err := q.Order("id ASC").Find(&lots).Error; err != nil {
		return nil, err
	}

	var corrections []LotCorrection
	for _, lot := range lots {
		var consumptions []*models.FIFOConsumption
		err := tx.Where("tenant_id = ? AND lot_id = ?", tenantId, lot.ID).Find(&consumptions).Error
		if err != nil {
			return nil, err
		}
		consumed := decimal.Zero
		for _, c := range consumptions {
			consumed = consumed.Add(c.Qty)
		}
		expected := lot.OriginalQty.Sub(consumed)
		if expected.IsNegative() || expected.Cmp(lot.OriginalQty) > 0 {
			return nil, &utils.ValidationError{
				Invariant: "lot remaining quantity",
				Detail:    fmt.Sprintf("consumption history of lot %d is itself inconsistent", lot.ID),
			}
		}
		if expected.Equal(lot.RemainingQty) {
			continue
		}
		if err := tx.Model(&models.FIFOLot{}).
			Where("id = ?", lot.ID).
			Update("remaining_qty", expected).Error; err != nil {
			config.LogError(logger, "fifoRebuild.go", "RebuildLotRemainders", "repair lot", lot.ID, err)
			return nil, err
		}
		corrections = append(corrections, LotCorrection{
			LotId:        lot.ID,
			OldRemaining: lot.RemainingQty,
			NewRemaining: expected,
		})
	}
	return corrections, nil
}
