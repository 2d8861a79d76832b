// Package sales records sales and applies their stock effects: settlement
// draws down ingredients and tracked products, cancellation puts back
// exactly what settlement took.
package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/internal/loyalty"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/metrics"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox/payloads"
)

const (
	orderNumberConstraint  = "ux_transactions_order_number"
	maxOrderNumberAttempts = 3
)

var errOrderNumberTaken = errors.New("order number already taken")

// Service exposes the sale lifecycle.
type Service interface {
	// CreateTransaction records a sale. A sale created as settled is settled
	// in the same database transaction.
	CreateTransaction(ctx context.Context, input CreateInput, actor ledger.Actor) (*TransactionDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	// Settle settles a pending sale.
	Settle(ctx context.Context, id uuid.UUID, method enums.PaymentMethod, actor ledger.Actor) (*TransactionDTO, error)
	// ConfirmPayment confirms an online payment. The sale can no longer be cancelled afterwards.
	ConfirmPayment(ctx context.Context, id uuid.UUID) (*TransactionDTO, error)
	// Cancel releases a pending sale or reverses a settled one awaiting payment confirmation.
	Cancel(ctx context.Context, id uuid.UUID, actor ledger.Actor) (*TransactionDTO, error)
}

// CreateInput describes a new sale.
type CreateInput struct {
	Status        enums.TransactionStatus
	PaymentMethod enums.PaymentMethod
	CustomerID    *uuid.UUID
	Items         []ItemInput
}

// ItemInput is one sold line. A nil UnitPrice uses the product's current price.
type ItemInput struct {
	ProductID uuid.UUID
	Quantity  int
	UnitPrice *decimal.Decimal
}

type service struct {
	repo       Repository
	dbClient   *db.Client
	ledger     ledger.Service
	costing    costing.Service
	loyalty    loyalty.Service
	outbox     *outbox.Service
	thresholds availability.Thresholds
	metrics    *metrics.InventoryMetrics
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the sales service. metrics and logg are optional.
func NewService(
	repo Repository,
	dbClient *db.Client,
	ledgerSvc ledger.Service,
	costingSvc costing.Service,
	loyaltySvc loyalty.Service,
	outboxSvc *outbox.Service,
	thresholds availability.Thresholds,
	m *metrics.InventoryMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if costingSvc == nil {
		return nil, fmt.Errorf("costing service required")
	}
	if loyaltySvc == nil {
		return nil, fmt.Errorf("loyalty service required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		repo:       repo,
		dbClient:   dbClient,
		ledger:     ledgerSvc,
		costing:    costingSvc,
		loyalty:    loyaltySvc,
		outbox:     outboxSvc,
		thresholds: thresholds,
		metrics:    m,
		logg:       logg,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) CreateTransaction(ctx context.Context, input CreateInput, actor ledger.Actor) (*TransactionDTO, error) {
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	if input.CustomerID != nil {
		if _, err := s.loyalty.Get(ctx, *input.CustomerID); err != nil {
			return nil, err
		}
	}

	started := time.Now()
	var (
		txn     *models.Transaction
		outcome *settlement
		err     error
	)
	for attempt := 1; ; attempt++ {
		txn, outcome, err = s.createTx(ctx, input, actor)
		if err == nil {
			break
		}
		if errors.Is(err, errOrderNumberTaken) {
			if attempt < maxOrderNumberAttempts {
				s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order number taken, retrying")
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken, retry")
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create transaction")
	}

	logCtx := s.logg.WithTransactionID(ctx, txn.ID.String())
	if outcome != nil {
		s.recordSettled(logCtx, txn, outcome, time.Since(started))
	} else {
		s.logg.Info(logCtx, "transaction held")
	}
	return s.result(ctx, txn.ID, outcome)
}

// createTx inserts the sale under the next order number and settles it when
// requested. A concurrent insert that took the same number is reported as
// errOrderNumberTaken with the database transaction rolled back.
func (s *service) createTx(ctx context.Context, input CreateInput, actor ledger.Actor) (*models.Transaction, *settlement, error) {
	var (
		txn     *models.Transaction
		outcome *settlement
	)
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		products, err := txRepo.LoadProducts(ctx, productIDs(input.Items))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
		}
		txn, err = buildTransaction(input, products)
		if err != nil {
			return err
		}
		number, err := txRepo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: next order number")
		}
		txn.OrderNumber = number
		if err := txRepo.CreateTransaction(ctx, txn); err != nil {
			if db.IsUniqueViolation(err, orderNumberConstraint) || db.IsUniqueViolation(err, "order_number") {
				return fmt.Errorf("%w: %v", errOrderNumberTaken, err)
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert transaction")
		}
		if input.Status != enums.TransactionStatusSettled {
			return nil
		}
		outcome, err = s.settleTx(ctx, tx, txn, products, input.PaymentMethod, actor)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return txn, outcome, nil
}

func validateCreate(input CreateInput) error {
	switch input.Status {
	case enums.TransactionStatusPending, enums.TransactionStatusSettled:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "status must be pending or settled")
	}
	if !input.PaymentMethod.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "product_id is required").
				WithDetails(map[string]any{"index": i})
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be greater than zero").
				WithDetails(map[string]any{"index": i})
		}
		if item.UnitPrice != nil && item.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative").
				WithDetails(map[string]any{"index": i})
		}
	}
	return nil
}

func productIDs(items []ItemInput) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

// buildTransaction creates the pending row. Settlement fields are filled in by settleTx.
func buildTransaction(input CreateInput, products map[uuid.UUID]*models.Product) (*models.Transaction, error) {
	txn := &models.Transaction{
		Status:        enums.TransactionStatusPending,
		PaymentMethod: input.PaymentMethod,
		PaymentStatus: enums.PaymentStatusUnpaid,
		CustomerID:    input.CustomerID,
		OverheadCost:  decimal.Zero,
	}
	total := decimal.Zero
	for i, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").
				WithDetails(map[string]any{"index": i, "product_id": item.ProductID.String()})
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %q is inactive", product.Name)).
				WithDetails(map[string]any{"index": i, "product_id": product.ID.String()})
		}
		price := product.Price
		if item.UnitPrice != nil {
			price = *item.UnitPrice
		}
		txn.Items = append(txn.Items, models.TransactionItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
		})
		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	txn.Total = total.Round(2)
	return txn, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	txn, err := s.repo.FindTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load transaction")
	}
	dto := NewTransactionDTO(txn)
	return &dto, nil
}

func (s *service) Settle(ctx context.Context, id uuid.UUID, method enums.PaymentMethod, actor ledger.Actor) (*TransactionDTO, error) {
	if !method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	started := time.Now()
	var (
		txn     *models.Transaction
		outcome *settlement
	)
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		var err error
		txn, err = s.lockTransaction(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if txn.Status != enums.TransactionStatusPending {
			return invalidTransition(txn, "settle")
		}
		ids := make([]uuid.UUID, 0, len(txn.Items))
		for _, item := range txn.Items {
			ids = append(ids, item.ProductID)
		}
		products, err := txRepo.LoadProducts(ctx, ids)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load products")
		}
		outcome, err = s.settleTx(ctx, tx, txn, products, method, actor)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "settle transaction")
	}

	s.recordSettled(s.logg.WithTransactionID(ctx, id.String()), txn, outcome, time.Since(started))
	return s.result(ctx, id, outcome)
}

func (s *service) ConfirmPayment(ctx context.Context, id uuid.UUID) (*TransactionDTO, error) {
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txn, err := s.lockTransaction(ctx, txRepo, id)
		if err != nil {
			return err
		}
		if txn.Status != enums.TransactionStatusSettled || txn.PaymentStatus != enums.PaymentStatusPendingConfirmation {
			return invalidTransition(txn, "confirm payment")
		}
		if err := txRepo.UpdateTransaction(ctx, id, map[string]any{
			"payment_status":       enums.PaymentStatusConfirmed,
			"payment_confirmed_at": s.now(),
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: confirm payment")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm payment")
	}

	s.logg.Info(s.logg.WithTransactionID(ctx, id.String()), "payment confirmed")
	return s.Get(ctx, id)
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID, actor ledger.Actor) (*TransactionDTO, error) {
	var from enums.TransactionStatus
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txn, err := s.lockTransaction(ctx, txRepo, id)
		if err != nil {
			return err
		}
		from = txn.Status

		var reversalID *uuid.UUID
		switch {
		case txn.Status == enums.TransactionStatusPending:
		case txn.Status == enums.TransactionStatusSettled && txn.PaymentStatus == enums.PaymentStatusPendingConfirmation:
			reversalID, err = s.reverseTx(ctx, tx, txn, actor)
			if err != nil {
				return err
			}
		default:
			return invalidTransition(txn, "cancel")
		}

		cancelledAt := s.now()
		updates := map[string]any{
			"status":       enums.TransactionStatusCancelled,
			"cancelled_at": cancelledAt,
		}
		if reversalID != nil {
			updates["reversal_change_id"] = *reversalID
		}
		if err := txRepo.UpdateTransaction(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: cancel transaction")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventTransactionCancelled,
			AggregateType: enums.AggregateTransaction,
			AggregateID:   id,
			Actor:         outbox.NewActorRef(actor.UserID, actor.UserName),
			Data: payloads.TransactionCancelledEvent{
				TransactionID:    id,
				OrderNumber:      txn.OrderNumber,
				FromStatus:       from,
				ReversalChangeID: reversalID,
				CancelledAt:      cancelledAt,
			},
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel transaction")
	}

	s.metrics.IncCancelled(from.String())
	logCtx := s.logg.WithTransactionID(ctx, id.String())
	s.logg.Info(s.logg.WithField(logCtx, "from_status", from.String()), "transaction cancelled")
	return s.Get(ctx, id)
}

func (s *service) lockTransaction(ctx context.Context, repo Repository, id uuid.UUID) (*models.Transaction, error) {
	txn, err := repo.FindTransactionForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock transaction")
	}
	return txn, nil
}

func invalidTransition(txn *models.Transaction, action string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot %s a %s transaction", action, txn.Status)).
		WithDetails(map[string]any{
			"status":         txn.Status,
			"payment_status": txn.PaymentStatus,
		})
}

func (s *service) recordSettled(ctx context.Context, txn *models.Transaction, outcome *settlement, elapsed time.Duration) {
	s.metrics.IncSettled(outcome.paymentMethod.String())
	s.metrics.ObserveSettlement(elapsed)
	for range outcome.clamped {
		s.metrics.IncClamped()
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"order_number":   txn.OrderNumber,
		"payment_method": outcome.paymentMethod,
		"ingredients":    outcome.ingredientCount,
	})
	if outcome.changeID != uuid.Nil {
		logCtx = s.logg.WithChangeID(logCtx, outcome.changeID.String())
	}
	for _, c := range outcome.clamped {
		warnCtx := s.logg.WithIngredientID(logCtx, c.IngredientID.String())
		s.logg.Warn(s.logg.WithField(warnCtx, "shortfall", c.Shortfall.String()), "sale clamped ingredient stock at zero")
	}
	s.logg.Info(logCtx, "transaction settled")
}

func (s *service) result(ctx context.Context, id uuid.UUID, outcome *settlement) (*TransactionDTO, error) {
	dto, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if outcome != nil && len(outcome.clamped) > 0 {
		dto.Clamped = outcome.clamped
	}
	return dto, nil
}
