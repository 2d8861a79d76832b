package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/pagination"
)

// Service records every stock and cost mutation of an ingredient.
type Service interface {
	// Record writes history rows for the diff between Before and After
	// without touching the ingredient row.
	Record(ctx context.Context, tx *gorm.DB, input ApplyInput) (*Result, error)
	// Apply persists After and records the diff, on the caller's transaction.
	Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*Result, error)
	// Adjust locks the ingredient and applies the requested change in its own transaction.
	Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error)
	// AdjustTx is Adjust on the caller's transaction.
	AdjustTx(ctx context.Context, tx *gorm.DB, input AdjustInput) (*AdjustResult, error)
	List(ctx context.Context, query HistoryQuery) (pagination.Page[models.IngredientHistory], error)
	ListByChangeID(ctx context.Context, tx *gorm.DB, changeID uuid.UUID) ([]models.IngredientHistory, error)
}

// Actor identifies who made a change. Both fields are optional.
type Actor struct {
	UserID   *string
	UserName *string
}

// ApplyInput describes one audited ingredient change.
type ApplyInput struct {
	Before     *models.Ingredient
	After      *models.Ingredient
	ChangeID   uuid.UUID
	Source     enums.HistorySource
	Reason     *string
	ReasonNote *string
	Actor      Actor
}

// Result is the outcome of Record or Apply. ChangeID is uuid.Nil when nothing changed.
type Result struct {
	ChangeID uuid.UUID
	Entries  []models.IngredientHistory
}

// AdjustInput is a stock or cost change addressed by ingredient id.
// QuantityDelta and SetQuantity are in package units, BaseUnitsDelta is in
// base units; at most one of the three is set.
type AdjustInput struct {
	IngredientID   uuid.UUID
	QuantityDelta  *decimal.Decimal
	// BaseUnitsDelta is applied to the stock in base units and converted back
	// to packages once.
	BaseUnitsDelta *decimal.Decimal
	SetQuantity    *decimal.Decimal
	CostPerPackage *decimal.Decimal
	PackageSize    *decimal.Decimal
	ParLevel       *decimal.Decimal
	ChangeID       uuid.UUID
	Source         enums.HistorySource
	Reason         *string
	ReasonNote     *string
	Actor          Actor
}

// AdjustResult carries the ingredient before and after the adjustment.
// Clamped is set when a sale would have driven the quantity below zero;
// Shortfall is the uncovered amount in base units.
type AdjustResult struct {
	Result
	Before    models.Ingredient
	After     models.Ingredient
	Clamped   bool
	Shortfall decimal.Decimal
}

type service struct {
	repo     Repository
	dbClient *db.Client
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, dbClient *db.Client) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	return &service{repo: repo, dbClient: dbClient}, nil
}

func (s *service) Record(ctx context.Context, tx *gorm.DB, input ApplyInput) (*Result, error) {
	if input.After == nil {
		return nil, fmt.Errorf("ingredient is required")
	}
	if !input.Source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid history source %q", input.Source))
	}

	changes := Diff(input.Before, input.After)
	if len(changes) == 0 {
		return &Result{}, nil
	}

	changeID := input.ChangeID
	if changeID == uuid.Nil {
		changeID = uuid.New()
	}

	entries := make([]models.IngredientHistory, 0, len(changes))
	for _, change := range changes {
		entries = append(entries, models.IngredientHistory{
			IngredientID: input.After.ID,
			ChangeID:     changeID,
			Field:        change.Field,
			OldValue:     change.OldValue,
			NewValue:     change.NewValue,
			Source:       input.Source,
			Reason:       input.Reason,
			ReasonNote:   input.ReasonNote,
			UserID:       input.Actor.UserID,
			UserName:     input.Actor.UserName,
		})
	}
	if err := s.repo.WithTx(tx).CreateEntries(ctx, entries); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert ingredient history")
	}
	return &Result{ChangeID: changeID, Entries: entries}, nil
}

func (s *service) Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*Result, error) {
	if input.After == nil {
		return nil, fmt.Errorf("ingredient is required")
	}
	if input.After.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	input.After.Quantity = units.RoundQuantity(input.After.Quantity)
	units.RefreshCache(input.After)

	audited := input.Before == nil || len(Diff(input.Before, input.After)) > 0
	if !audited && input.Before.ParLevel.Equal(input.After.ParLevel) {
		return &Result{}, nil
	}
	if err := s.repo.WithTx(tx).UpdateStock(ctx, input.After); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update ingredient stock")
	}
	// Par level is stored with the stock but never audited.
	if !audited {
		return &Result{}, nil
	}
	return s.Record(ctx, tx, input)
}

func (s *service) Adjust(ctx context.Context, input AdjustInput) (*AdjustResult, error) {
	var result *AdjustResult
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		result, err = s.AdjustTx(ctx, tx, input)
		return err
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust ingredient")
	}
	return result, nil
}

func (s *service) AdjustTx(ctx context.Context, tx *gorm.DB, input AdjustInput) (*AdjustResult, error) {
	if countSet(input.QuantityDelta != nil, input.SetQuantity != nil, input.BaseUnitsDelta != nil) > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity delta and absolute quantity are mutually exclusive")
	}

	current, err := s.repo.WithTx(tx).LockIngredient(ctx, input.IngredientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock ingredient")
	}
	if !current.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ingredient is inactive")
	}

	before := *current
	after := *current
	if input.PackageSize != nil || input.CostPerPackage != nil {
		size := after.PackageSize
		if input.PackageSize != nil {
			size = *input.PackageSize
		}
		cost := after.CostPerPackage
		if input.CostPerPackage != nil {
			cost = *input.CostPerPackage
		}
		if err := units.ValidatePackaging(size, cost); err != nil {
			return nil, err
		}
		after.PackageSize = size
		after.CostPerPackage = cost
	}
	if input.ParLevel != nil {
		if input.ParLevel.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "par level cannot be negative")
		}
		after.ParLevel = *input.ParLevel
	}

	switch {
	case input.BaseUnitsDelta != nil:
		after.Quantity = units.DrawBaseUnits(&before, input.BaseUnitsDelta.Neg())
	case input.QuantityDelta != nil:
		after.Quantity = before.Quantity.Add(*input.QuantityDelta)
	case input.SetQuantity != nil:
		after.Quantity = *input.SetQuantity
	}
	after.Quantity = units.RoundQuantity(after.Quantity)

	clamped := false
	shortfall := decimal.Zero
	if after.Quantity.IsNegative() {
		if input.Source != enums.HistorySourceSale {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot go below zero").
				WithDetails(map[string]any{"ingredient_id": before.ID.String(), "available": before.Quantity.String()})
		}
		shortfall = units.RoundBaseUnits(units.FromIngredient(&after).TotalBaseUnits(after.Quantity.Neg()))
		after.Quantity = decimal.Zero
		clamped = true
	}

	res, err := s.Apply(ctx, tx, ApplyInput{
		Before:     &before,
		After:      &after,
		ChangeID:   input.ChangeID,
		Source:     input.Source,
		Reason:     input.Reason,
		ReasonNote: input.ReasonNote,
		Actor:      input.Actor,
	})
	if err != nil {
		return nil, err
	}
	return &AdjustResult{Result: *res, Before: before, After: after, Clamped: clamped, Shortfall: shortfall}, nil
}

func (s *service) List(ctx context.Context, query HistoryQuery) (pagination.Page[models.IngredientHistory], error) {
	if query.Source != nil && !query.Source.IsValid() {
		return pagination.Page[models.IngredientHistory]{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid history source")
	}
	if query.From != nil && query.To != nil && query.From.After(*query.To) {
		return pagination.Page[models.IngredientHistory]{}, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	if _, err := pagination.ParseCursor(query.Pagination.Cursor); err != nil {
		return pagination.Page[models.IngredientHistory]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, query)
	if err != nil {
		return pagination.Page[models.IngredientHistory]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list ingredient history")
	}
	return pagination.Trim(rows, query.Pagination.Limit, func(h models.IngredientHistory) pagination.Cursor {
		return pagination.Cursor{CreatedAt: h.CreatedAt, ID: h.ID}
	}), nil
}

func (s *service) ListByChangeID(ctx context.Context, tx *gorm.DB, changeID uuid.UUID) ([]models.IngredientHistory, error) {
	rows, err := s.repo.WithTx(tx).ListByChangeID(ctx, changeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list history by change")
	}
	return rows, nil
}

func countSet(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
