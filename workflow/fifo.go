package workflow

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/zentabooks/erpcore_backend/config"
	"github.com/zentabooks/erpcore_backend/models"
	"github.com/zentabooks/erpcore_backend/utils"
	"gorm.io/gorm"
)

// CreateLot opens a new dated cost layer. Bills and opening stock are the two
// producers; nothing else may create lots.
func CreateLot(tx *gorm.DB, logger *logrus.Logger, tenantId string, spec NewLot) (*models.FIFOLot, error) {
	if !spec.Qty.IsPositive() {
		return nil, &utils.ValidationError{
			Invariant: "lot quantity",
			Detail:    fmt.Sprintf("lot quantity must be positive, got %s", spec.Qty.String()),
		}
	}
	if spec.UnitCost.IsNegative() {
		return nil, &utils.ValidationError{
			Invariant: "lot unit cost",
			Detail:    fmt.Sprintf("lot unit cost must not be negative, got %s", spec.UnitCost.String()),
		}
	}
	lot := models.FIFOLot{
		TenantId:       tenantId,
		WarehouseId:    spec.WarehouseId,
		ProductId:      spec.ProductId,
		LotDate:        spec.LotDate,
		LotType:        spec.LotType,
		OriginalQty:    spec.Qty,
		RemainingQty:   spec.Qty,
		UnitCost:       spec.UnitCost,
		SourceType:     spec.SourceType,
		SourceId:       spec.SourceId,
		SourceDetailId: spec.SourceDetailId,
	}
	if err := tx.Create(&lot).Error; err != nil {
		config.LogError(logger, "fifo.go", "CreateLot", "create lot", spec, err)
		return nil, err
	}
	return &lot, nil
}

// PlanFIFOConsumption walks open lots in consumption order and allocates the
// requested quantity across them without mutating anything. Costs are frozen
// from the lots at planning time.
//
// A shortage is a signaled condition, not an error: the returned plan holds
// the partial allocation with InsufficientStock set and MissingQty carrying
// the uncovered remainder. Callers that must block call RequireFullStock.
func PlanFIFOConsumption(tx *gorm.DB, tenantId string, warehouseId, productId int,
	qty decimal.Decimal, refType models.ReferenceType, refId, refDetailId int,
	consumptionDate time.Time) (*FIFOPlan, error) {

	if !qty.IsPositive() {
		return nil, &utils.ValidationError{
			Invariant: "consumption quantity",
			Detail:    fmt.Sprintf("consumption quantity must be positive, got %s", qty.String()),
		}
	}

	lots, err := models.OpenLotsFIFO(tx, tenantId, warehouseId, productId)
	if err != nil {
		return nil, err
	}

	plan := FIFOPlan{
		ProductId:         productId,
		WarehouseId:       warehouseId,
		ReferenceType:     refType,
		ReferenceId:       refId,
		ReferenceDetailId: refDetailId,
		ConsumptionDate:   consumptionDate,
		Qty:               qty,
	}

	remaining := qty
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		take := utils.MinDecimal(remaining, lot.RemainingQty)
		cost := take.Mul(lot.UnitCost)
		plan.Consumptions = append(plan.Consumptions, LotConsumption{
			LotId:     lot.ID,
			Qty:       take,
			UnitCost:  lot.UnitCost,
			TotalCost: cost,
		})
		plan.TotalCost = plan.TotalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		plan.InsufficientStock = true
		plan.MissingQty = remaining
	}
	return &plan, nil
}

// setLotRemaining moves a lot's remainder from a known value to a new one.
// The read value is part of the predicate, so a lot that changed between the
// caller's read and this write is a zero-row update and surfaces as a
// conflict instead of silently corrupting the remainder.
func setLotRemaining(tx *gorm.DB, lotId int, from, to decimal.Decimal) error {
	res := tx.Model(&models.FIFOLot{}).
		Where("id = ? AND remaining_qty = ?", lotId, from).
		Update("remaining_qty", to)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &utils.ConflictError{
			Resource: "fifo lot",
			Detail:   fmt.Sprintf("lot %d changed while posting, retry the posting", lotId),
		}
	}
	return nil
}

// ApplyFIFOPlan executes a plan inside the posting transaction: decrement the
// planned lots, append consumption rows and a signed inventory row, and (when
// the plan asks for it) one cost ledger row per consumption.
//
// The plan's lots are re-read so a stale plan fails loudly instead of driving
// a lot negative.
func ApplyFIFOPlan(tx *gorm.DB, logger *logrus.Logger, tenantId string, plan *FIFOPlan, costCenterId int) ([]*models.FIFOConsumption, error) {
	created := make([]*models.FIFOConsumption, 0, len(plan.Consumptions))
	for _, c := range plan.Consumptions {
		var lot models.FIFOLot
		if err := tx.Where("tenant_id = ? AND id = ?", tenantId, c.LotId).First(&lot).Error; err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOPlan", "load lot", c, err)
			return nil, err
		}
		if lot.RemainingQty.Cmp(c.Qty) < 0 {
			return nil, &utils.InsufficientStockError{
				ProductId:   plan.ProductId,
				WarehouseId: plan.WarehouseId,
				Requested:   c.Qty,
				Available:   lot.RemainingQty,
			}
		}
		if err := setLotRemaining(tx, lot.ID, lot.RemainingQty, lot.RemainingQty.Sub(c.Qty)); err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOPlan", "decrement lot", lot.ID, err)
			return nil, err
		}

		consumption := models.FIFOConsumption{
			TenantId:          tenantId,
			LotId:             lot.ID,
			ReferenceType:     plan.ReferenceType,
			ReferenceId:       plan.ReferenceId,
			ReferenceDetailId: plan.ReferenceDetailId,
			Qty:               c.Qty,
			UnitCost:          c.UnitCost,
			TotalCost:         c.TotalCost,
			ConsumptionDate:   plan.ConsumptionDate,
		}
		if err := tx.Create(&consumption).Error; err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOPlan", "create consumption", consumption, err)
			return nil, err
		}
		created = append(created, &consumption)

		if plan.EmitCOGS {
			cogsRow := models.COGSTransaction{
				TenantId:          tenantId,
				BranchId:          plan.BranchId,
				CostCenterId:      costCenterId,
				WarehouseId:       plan.WarehouseId,
				ProductId:         plan.ProductId,
				SourceType:        plan.CogsSource,
				SourceId:          plan.ReferenceId,
				Qty:               c.Qty,
				UnitCost:          c.UnitCost,
				TotalCost:         c.TotalCost,
				TransactionDate:   plan.ConsumptionDate,
				FifoConsumptionId: &consumption.ID,
			}
			if err := RecordCOGS(tx, logger, &cogsRow); err != nil {
				return nil, err
			}
		}
	}

	// the signed row reflects what actually moved; a partial plan moves
	// only the allocated quantity
	move := models.InventoryTransaction{
		TenantId:          tenantId,
		BranchId:          plan.BranchId,
		WarehouseId:       plan.WarehouseId,
		ProductId:         plan.ProductId,
		Qty:               plan.Qty.Sub(plan.MissingQty).Neg(),
		ReferenceType:     plan.ReferenceType,
		ReferenceId:       plan.ReferenceId,
		ReferenceDetailId: plan.ReferenceDetailId,
		TransactionDate:   plan.ConsumptionDate,
	}
	if err := tx.Create(&move).Error; err != nil {
		config.LogError(logger, "fifo.go", "ApplyFIFOPlan", "create inventory transaction", move, err)
		return nil, err
	}
	return created, nil
}

// ConsumeFIFO plans and applies in one step, for callers that do not need to
// inspect the plan first. When open lots cannot cover the quantity, nothing
// is applied and the partial plan comes back with InsufficientStock set so
// the caller decides what to do with it.
func ConsumeFIFO(tx *gorm.DB, logger *logrus.Logger, tenantId string, warehouseId, branchId, costCenterId, productId int,
	qty decimal.Decimal, refType models.ReferenceType, refId, refDetailId int,
	consumptionDate time.Time, emitCOGS bool, cogsSource models.CogsSourceType) (*FIFOPlan, error) {

	plan, err := PlanFIFOConsumption(tx, tenantId, warehouseId, productId, qty, refType, refId, refDetailId, consumptionDate)
	if err != nil {
		return nil, err
	}
	plan.BranchId = branchId
	plan.EmitCOGS = emitCOGS
	plan.CogsSource = cogsSource
	if plan.InsufficientStock {
		return plan, nil
	}
	if _, err := ApplyFIFOPlan(tx, logger, tenantId, plan, costCenterId); err != nil {
		return nil, err
	}
	return plan, nil
}

// PlanFIFOReversal allocates a quantity to put back against the lots a
// document line originally consumed, newest consumption first, at the exact
// unit costs those consumptions recorded. Reversing more than was consumed is
// a validation failure.
func PlanFIFOReversal(tx *gorm.DB, tenantId string, refType models.ReferenceType, refId, refDetailId int,
	qty decimal.Decimal, reversalDate time.Time) (*FIFOReversalPlan, error) {

	if !qty.IsPositive() {
		return nil, &utils.ValidationError{
			Invariant: "reversal quantity",
			Detail:    fmt.Sprintf("reversal quantity must be positive, got %s", qty.String()),
		}
	}

	consumptions, err := models.ConsumptionsForReference(tx, tenantId, refType, refId, refDetailId)
	if err != nil {
		return nil, err
	}

	plan := FIFOReversalPlan{
		ReferenceType:     refType,
		ReferenceId:       refId,
		ReferenceDetailId: refDetailId,
		ReversalDate:      reversalDate,
		Qty:               qty,
	}

	// Prior reversal rows sit under the same reference with negative
	// quantities. Net them out per lot before allocating, so quantity a
	// previous return already restored is not reversible again.
	remaining := qty
	netConsumed := decimal.Zero
	reversedByLot := make(map[int]decimal.Decimal)
	for i := len(consumptions) - 1; i >= 0; i-- {
		c := consumptions[i]
		netConsumed = netConsumed.Add(c.Qty)
		if c.Qty.IsNegative() {
			reversedByLot[c.LotId] = reversedByLot[c.LotId].Add(c.Qty.Neg())
			continue
		}
		avail := c.Qty
		if prior := reversedByLot[c.LotId]; prior.IsPositive() {
			used := utils.MinDecimal(prior, avail)
			avail = avail.Sub(used)
			reversedByLot[c.LotId] = prior.Sub(used)
		}
		if !remaining.IsPositive() || !avail.IsPositive() {
			continue
		}
		take := utils.MinDecimal(remaining, avail)
		cost := take.Mul(c.UnitCost)
		plan.Reversals = append(plan.Reversals, LotReversal{
			LotId:     c.LotId,
			Qty:       take,
			UnitCost:  c.UnitCost,
			TotalCost: cost,
		})
		plan.TotalCost = plan.TotalCost.Add(cost)
		remaining = remaining.Sub(take)
	}

	if remaining.IsPositive() {
		return nil, &utils.ValidationError{
			Invariant: "reversal quantity",
			Detail: fmt.Sprintf("cannot reverse %s: only %s of %s %d's consumption is still reversible",
				qty.String(), netConsumed.String(), refType, refId),
		}
	}
	return &plan, nil
}

// ApplyFIFOReversal restores lot remainders per the plan. Each restoration is
// recorded as a negative-quantity consumption row under the ORIGINAL
// document's reference, with the reversing document in the ReversedBy
// columns. Keeping the original reference is what makes the reversible
// balance a running sum: a second return against the same line sees the
// prior reversal and cannot restore the same quantity twice. One positive
// inventory row covers the restocked quantity, and when the plan asks for it
// a negative cost ledger row is appended per restored lot.
func ApplyFIFOReversal(tx *gorm.DB, logger *logrus.Logger, tenantId string, plan *FIFOReversalPlan,
	byRefType models.ReferenceType, byRefId, byRefDetailId, costCenterId int) ([]*models.FIFOConsumption, error) {

	created := make([]*models.FIFOConsumption, 0, len(plan.Reversals))
	for _, r := range plan.Reversals {
		var lot models.FIFOLot
		if err := tx.Where("tenant_id = ? AND id = ?", tenantId, r.LotId).First(&lot).Error; err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOReversal", "load lot", r, err)
			return nil, err
		}
		newRemaining := lot.RemainingQty.Add(r.Qty)
		if newRemaining.Cmp(lot.OriginalQty) > 0 {
			return nil, &utils.ValidationError{
				Invariant: "lot remaining quantity",
				Detail: fmt.Sprintf("reversal would push lot %d remaining %s above original %s",
					lot.ID, newRemaining.String(), lot.OriginalQty.String()),
			}
		}
		if err := setLotRemaining(tx, lot.ID, lot.RemainingQty, newRemaining); err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOReversal", "restore lot", lot.ID, err)
			return nil, err
		}

		consumption := models.FIFOConsumption{
			TenantId:           tenantId,
			LotId:              lot.ID,
			ReferenceType:      plan.ReferenceType,
			ReferenceId:        plan.ReferenceId,
			ReferenceDetailId:  plan.ReferenceDetailId,
			ReversedByType:     byRefType,
			ReversedById:       byRefId,
			ReversedByDetailId: byRefDetailId,
			Qty:                r.Qty.Neg(),
			UnitCost:           r.UnitCost,
			TotalCost:          r.TotalCost.Neg(),
			ConsumptionDate:    plan.ReversalDate,
		}
		if err := tx.Create(&consumption).Error; err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOReversal", "create reversal consumption", consumption, err)
			return nil, err
		}
		created = append(created, &consumption)

		if plan.EmitCOGS {
			cogsRow := models.COGSTransaction{
				TenantId:          tenantId,
				BranchId:          plan.BranchId,
				CostCenterId:      costCenterId,
				WarehouseId:       plan.WarehouseId,
				ProductId:         plan.ProductId,
				SourceType:        plan.CogsSource,
				SourceId:          byRefId,
				Qty:               r.Qty.Neg(),
				UnitCost:          r.UnitCost,
				TotalCost:         r.TotalCost.Neg(),
				TransactionDate:   plan.ReversalDate,
				FifoConsumptionId: &consumption.ID,
			}
			if err := RecordCOGS(tx, logger, &cogsRow); err != nil {
				return nil, err
			}
		}
	}

	if plan.Qty.IsPositive() && plan.WarehouseId > 0 {
		move := models.InventoryTransaction{
			TenantId:          tenantId,
			BranchId:          plan.BranchId,
			WarehouseId:       plan.WarehouseId,
			ProductId:         plan.ProductId,
			Qty:               plan.Qty,
			ReferenceType:     byRefType,
			ReferenceId:       byRefId,
			ReferenceDetailId: byRefDetailId,
			TransactionDate:   plan.ReversalDate,
		}
		if err := tx.Create(&move).Error; err != nil {
			config.LogError(logger, "fifo.go", "ApplyFIFOReversal", "create inventory transaction", move, err)
			return nil, err
		}
	}
	return created, nil
}

// ReverseFIFO plans and applies a reversal in one step.
func ReverseFIFO(tx *gorm.DB, logger *logrus.Logger, tenantId string, warehouseId, branchId, productId int,
	refType models.ReferenceType, refId, refDetailId int, qty decimal.Decimal, reversalDate time.Time,
	byRefType models.ReferenceType, byRefId, byRefDetailId int) (*FIFOReversalPlan, error) {

	plan, err := PlanFIFOReversal(tx, tenantId, refType, refId, refDetailId, qty, reversalDate)
	if err != nil {
		return nil, err
	}
	plan.ProductId = productId
	plan.WarehouseId = warehouseId
	plan.BranchId = branchId
	if _, err := ApplyFIFOReversal(tx, logger, tenantId, plan, byRefType, byRefId, byRefDetailId, 0); err != nil {
		return nil, err
	}
	return plan, nil
}
