package sales

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox/payloads"
)

// settlement summarizes what a settle call did, for logging and metrics
// once the database transaction has committed.
type settlement struct {
	changeID        uuid.UUID
	paymentMethod   enums.PaymentMethod
	ingredientCount int
	clamped         []ClampedIngredient
}

// consumption is the base-unit draw on one ingredient and the products that caused it.
type consumption struct {
	baseUnits decimal.Decimal
	products  []string
}

// aggregateConsumption sums the base units each ingredient loses to the sold items.
// Linked products draw one base unit per sold unit on top of any recipe lines.
func aggregateConsumption(items []models.TransactionItem, products map[uuid.UUID]*models.Product) map[uuid.UUID]*consumption {
	out := make(map[uuid.UUID]*consumption)
	add := func(ingredientID uuid.UUID, amount decimal.Decimal, product string) {
		if !amount.IsPositive() {
			return
		}
		c, ok := out[ingredientID]
		if !ok {
			c = &consumption{baseUnits: decimal.Zero}
			out[ingredientID] = c
		}
		c.baseUnits = c.baseUnits.Add(amount)
		for _, name := range c.products {
			if name == product {
				return
			}
		}
		c.products = append(c.products, product)
	}

	for _, item := range items {
		product, ok := products[item.ProductID]
		if !ok {
			continue
		}
		sold := decimal.NewFromInt(int64(item.Quantity))
		if product.LinkedIngredientID != nil {
			add(*product.LinkedIngredientID, sold, product.Name)
		}
		for _, line := range product.RecipeItems {
			add(line.IngredientID, line.BaseQuantity.Mul(sold), product.Name)
		}
	}
	return out
}

func sortedIDs[V any](m map[uuid.UUID]V) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// orderNote renders "Order #12: Burger Steak x2, Fries x1".
func orderNote(orderNumber int64, items []models.TransactionItem) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s x%d", item.ProductName, item.Quantity))
	}
	return fmt.Sprintf("Order #%d: %s", orderNumber, strings.Join(parts, ", "))
}

// settleTx applies every stock effect of a sale on tx and marks it settled.
func (s *service) settleTx(
	ctx context.Context,
	tx *gorm.DB,
	txn *models.Transaction,
	products map[uuid.UUID]*models.Product,
	method enums.PaymentMethod,
	actor ledger.Actor,
) (*settlement, error) {
	txRepo := s.repo.WithTx(tx)
	out := &settlement{paymentMethod: method}
	changeID := uuid.New()
	note := orderNote(txn.OrderNumber, txn.Items)
	reason := "sale"

	usage := aggregateConsumption(txn.Items, products)
	ids := sortedIDs(usage)
	locked, err := txRepo.LockIngredients(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock ingredients")
	}

	var consumed []payloads.IngredientConsumption
	for _, id := range ids {
		ing, ok := locked[id]
		if !ok {
			continue
		}
		logCtx := s.logg.WithIngredientID(ctx, id.String())
		if !ing.IsActive {
			s.logg.Warn(logCtx, "skipping inactive ingredient during settlement")
			continue
		}
		base := usage[id].baseUnits
		delta := base.Neg()
		res, err := s.ledger.AdjustTx(ctx, tx, ledger.AdjustInput{
			IngredientID:   id,
			BaseUnitsDelta: &delta,
			ChangeID:       changeID,
			Source:         enums.HistorySourceSale,
			Reason:         &reason,
			ReasonNote:     &note,
			Actor:          actor,
		})
		if err != nil {
			return nil, err
		}
		out.ingredientCount++
		if res.Clamped {
			out.clamped = append(out.clamped, ClampedIngredient{
				IngredientID: id,
				Name:         ing.Name,
				Shortfall:    res.Shortfall,
			})
		}
		consumed = append(consumed, payloads.IngredientConsumption{
			IngredientID: id,
			BaseUnits:    base,
			Packages:     res.Before.Quantity.Sub(res.After.Quantity),
			Clamped:      res.Clamped,
		})
		if err := s.emitStockDrop(ctx, tx, &res.Before, &res.After, actor); err != nil {
			return nil, err
		}
	}

	for _, item := range txn.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.TrackStock {
			continue
		}
		qty := int64(item.Quantity)
		if err := txRepo.AdjustProductStock(ctx, product.ID, -qty, qty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: adjust product stock")
		}
	}

	overhead, err := s.costing.TransactionOverhead(ctx, tx)
	if err != nil {
		return nil, err
	}

	settledAt := s.now()
	if txn.CustomerID != nil {
		if err := s.loyalty.RecordVisit(ctx, tx, *txn.CustomerID, txn.Total, settledAt); err != nil {
			return nil, err
		}
	}

	paymentStatus := method.SettledPaymentStatus()
	updates := map[string]any{
		"status":         enums.TransactionStatusSettled,
		"payment_method": method,
		"payment_status": paymentStatus,
		"settled_at":     settledAt,
		"overhead_cost":  overhead,
	}
	if paymentStatus == enums.PaymentStatusConfirmed {
		updates["payment_confirmed_at"] = settledAt
	}
	var settlementChangeID *uuid.UUID
	if out.ingredientCount > 0 {
		out.changeID = changeID
		settlementChangeID = &changeID
		updates["settlement_change_id"] = changeID
	}
	if err := txRepo.UpdateTransaction(ctx, txn.ID, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: settle transaction")
	}

	sold := make([]payloads.SoldItem, 0, len(txn.Items))
	for _, item := range txn.Items {
		sold = append(sold, payloads.SoldItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventTransactionSettled,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txn.ID,
		Actor:         outbox.NewActorRef(actor.UserID, actor.UserName),
		Data: payloads.TransactionSettledEvent{
			TransactionID: txn.ID,
			OrderNumber:   txn.OrderNumber,
			PaymentMethod: method,
			PaymentStatus: paymentStatus,
			CustomerID:    txn.CustomerID,
			Total:         txn.Total,
			OverheadCost:  overhead,
			ChangeID:      settlementChangeID,
			Items:         sold,
			Consumption:   consumed,
			SettledAt:     settledAt,
		},
	}); err != nil {
		return nil, err
	}
	return out, nil
}

// emitStockDrop queues a stock-low event when a sale moved the ingredient
// to a worse status that is not available.
func (s *service) emitStockDrop(ctx context.Context, tx *gorm.DB, before, after *models.Ingredient, actor ledger.Actor) error {
	prev := availability.StockStatus(before.Quantity, before.ParLevel, s.thresholds)
	next := availability.StockStatus(after.Quantity, after.ParLevel, s.thresholds)
	if next.Severity() <= prev.Severity() {
		return nil
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventIngredientStockLow,
		AggregateType: enums.AggregateIngredient,
		AggregateID:   after.ID,
		Actor:         outbox.NewActorRef(actor.UserID, actor.UserName),
		Data: payloads.IngredientStockLowEvent{
			IngredientID: after.ID,
			Name:         after.Name,
			Status:       next,
			Quantity:     after.Quantity,
			ParLevel:     after.ParLevel,
		},
	})
}

// reverseTx puts back exactly what the settlement history recorded under a
// new change id and undoes product stock and loyalty. It returns the
// reversal change id, or nil when the settlement touched no ingredient.
func (s *service) reverseTx(ctx context.Context, tx *gorm.DB, txn *models.Transaction, actor ledger.Actor) (*uuid.UUID, error) {
	txRepo := s.repo.WithTx(tx)

	restore := make(map[uuid.UUID]decimal.Decimal)
	if txn.SettlementChangeID != nil {
		rows, err := s.ledger.ListByChangeID(ctx, tx, *txn.SettlementChangeID)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if row.Field != enums.HistoryFieldQuantity || row.OldValue == nil || row.NewValue == nil {
				continue
			}
			oldValue, err := decimal.NewFromString(*row.OldValue)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse history value")
			}
			newValue, err := decimal.NewFromString(*row.NewValue)
			if err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse history value")
			}
			restore[row.IngredientID] = restore[row.IngredientID].Add(oldValue.Sub(newValue))
		}
	}

	var reversalID *uuid.UUID
	if len(restore) > 0 {
		changeID := uuid.New()
		note := fmt.Sprintf("Reversal of order #%d", txn.OrderNumber)
		reason := "sale_reversal"
		ids := sortedIDs(restore)
		if _, err := txRepo.LockIngredients(ctx, ids); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock ingredients")
		}
		for _, id := range ids {
			delta := restore[id]
			if delta.IsZero() {
				continue
			}
			if _, err := s.ledger.AdjustTx(ctx, tx, ledger.AdjustInput{
				IngredientID:  id,
				QuantityDelta: &delta,
				ChangeID:      changeID,
				Source:        enums.HistorySourceSale,
				Reason:        &reason,
				ReasonNote:    &note,
				Actor:         actor,
			}); err != nil {
				return nil, err
			}
		}
		reversalID = &changeID
	}

	ids := make([]uuid.UUID, 0, len(txn.Items))
	for _, item := range txn.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := txRepo.LoadProducts(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
	}
	for _, item := range txn.Items {
		product, ok := products[item.ProductID]
		if !ok || !product.TrackStock {
			continue
		}
		qty := int64(item.Quantity)
		if err := txRepo.AdjustProductStock(ctx, product.ID, qty, -qty); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: restore product stock")
		}
	}

	if txn.CustomerID != nil {
		if err := s.loyalty.ReverseVisit(ctx, tx, *txn.CustomerID, txn.Total); err != nil {
			return nil, err
		}
	}
	return reversalID, nil
}
