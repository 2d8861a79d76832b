// Package ingredients manages the stocked raw materials of the kitchen: intake,
// edits, restocks, physical counts and their audit trail.
package ingredients

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/catalogsync"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/internal/units"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/kitchenpos-backend/pkg/pagination"
)

// Service exposes ingredient management operations.
type Service interface {
	Create(ctx context.Context, input CreateInput, actor ledger.Actor) (*IngredientDTO, error)
	Import(ctx context.Context, inputs []CreateInput, actor ledger.Actor) ([]IngredientDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*IngredientDTO, error)
	List(ctx context.Context, filter ListFilter) ([]IngredientDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor ledger.Actor) (*MutationResult, error)
	Restock(ctx context.Context, id uuid.UUID, input RestockInput, actor ledger.Actor) (*RestockResult, error)
	Count(ctx context.Context, id uuid.UUID, input CountInput, actor ledger.Actor) (*MutationResult, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	SetAliases(ctx context.Context, id uuid.UUID, aliases []AliasInput) (*IngredientDTO, error)
	SetSellable(ctx context.Context, id uuid.UUID, sellable bool, category *string) (*catalogsync.Result, error)
	History(ctx context.Context, query ledger.HistoryQuery) (pagination.Page[HistoryEntryDTO], error)
}

// CreateInput holds the validated payload for a new ingredient. Leaving both
// PackageSize and CostPerPackage nil creates a single-unit ingredient priced
// by CostPerUnit.
type CreateInput struct {
	Name                   string
	Category               string
	Unit                   string
	CostPerUnit            decimal.Decimal
	BaseUnit               string
	PackageUnit            string
	PackageSize            *decimal.Decimal
	CostPerPackage         *decimal.Decimal
	Quantity               decimal.Decimal
	ParLevel               decimal.Decimal
	Sellable               bool
	IsOverhead             bool
	OverheadPerTransaction decimal.Decimal
	Aliases                []AliasInput
}

// AliasInput is one named unit.
type AliasInput struct {
	Name               string
	BaseUnitMultiplier decimal.Decimal
	IsDefault          bool
}

// UpdateInput holds optional changes. Only quantity, cost and par level
// changes are audited.
type UpdateInput struct {
	Name                   *string
	Category               *string
	Unit                   *string
	BaseUnit               *string
	PackageUnit            *string
	CostPerUnit            *decimal.Decimal
	PackageSize            *decimal.Decimal
	CostPerPackage         *decimal.Decimal
	Quantity               *decimal.Decimal
	ParLevel               *decimal.Decimal
	IsOverhead             *bool
	OverheadPerTransaction *decimal.Decimal
	Sellable               *bool
	Reason                 *string
	ReasonNote             *string
}

// RestockInput adds Quantity packages and optionally reprices the ingredient.
type RestockInput struct {
	Quantity       decimal.Decimal
	CostPerPackage *decimal.Decimal
	PackageSize    *decimal.Decimal
	Reason         *string
	ReasonNote     *string
}

// CountInput records a physical count in package units.
type CountInput struct {
	Quantity   decimal.Decimal
	Reason     *string
	ReasonNote *string
}

// MutationResult pairs the updated ingredient with the change id of its
// history rows. ChangeID is nil when no audited field changed.
type MutationResult struct {
	Ingredient IngredientDTO `json:"ingredient"`
	ChangeID   *uuid.UUID    `json:"change_id,omitempty"`
}

type service struct {
	repo       Repository
	dbClient   *db.Client
	ledger     ledger.Service
	sync       catalogsync.Service
	costing    costing.Service
	outbox     *outbox.Service
	thresholds availability.Thresholds
	logg       *logger.Logger
}

// NewService wires the ingredient service.
func NewService(
	repo Repository,
	dbClient *db.Client,
	ledgerSvc ledger.Service,
	syncSvc catalogsync.Service,
	costingSvc costing.Service,
	outboxSvc *outbox.Service,
	thresholds availability.Thresholds,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ingredient repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if syncSvc == nil {
		return nil, fmt.Errorf("catalog sync service required")
	}
	if costingSvc == nil {
		return nil, fmt.Errorf("costing service required")
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
		sync:       syncSvc,
		costing:    costingSvc,
		outbox:     outboxSvc,
		thresholds: thresholds,
		logg:       logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput, actor ledger.Actor) (*IngredientDTO, error) {
	dtos, err := s.create(ctx, []CreateInput{input}, enums.HistorySourceManualEdit, actor)
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}

// Import creates every row or none. All initial history rows share one change id.
func (s *service) Import(ctx context.Context, inputs []CreateInput, actor ledger.Actor) ([]IngredientDTO, error) {
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one ingredient is required")
	}
	return s.create(ctx, inputs, enums.HistorySourceImport, actor)
}

type pendingIngredient struct {
	ingredient *models.Ingredient
	aliases    []models.UnitAlias
	sellable   bool
}

func (s *service) create(ctx context.Context, inputs []CreateInput, source enums.HistorySource, actor ledger.Actor) ([]IngredientDTO, error) {
	pending := make([]pendingIngredient, 0, len(inputs))
	for i, input := range inputs {
		ingredient, aliases, err := buildIngredient(input)
		if err != nil {
			if len(inputs) > 1 {
				if typed := pkgerrors.As(err); typed != nil {
					return nil, typed.WithDetails(map[string]any{"index": i, "name": input.Name})
				}
			}
			return nil, err
		}
		pending = append(pending, pendingIngredient{ingredient: ingredient, aliases: aliases, sellable: input.Sellable})
	}

	changeID := uuid.New()
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		for _, p := range pending {
			if err := txRepo.Create(ctx, p.ingredient); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert ingredient")
			}
			if err := txRepo.ReplaceAliases(ctx, p.ingredient.ID, p.aliases); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert unit aliases")
			}
			if _, err := s.ledger.Record(ctx, tx, ledger.ApplyInput{
				After:    p.ingredient,
				ChangeID: changeID,
				Source:   source,
				Actor:    actor,
			}); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create ingredients")
	}

	out := make([]IngredientDTO, 0, len(pending))
	for _, p := range pending {
		if p.sellable {
			s.syncSellable(ctx, p.ingredient.ID, true)
		}
		dto, err := s.Get(ctx, p.ingredient.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, *dto)
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{"count": len(out), "source": source, "change_id": changeID.String()})
	s.logg.Info(logCtx, "ingredients created")
	return out, nil
}

func buildIngredient(input CreateInput) (*models.Ingredient, []models.UnitAlias, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if input.Quantity.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.ParLevel.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "par level cannot be negative")
	}
	if input.CostPerUnit.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per unit cannot be negative")
	}
	if input.OverheadPerTransaction.IsNegative() {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "overhead per transaction cannot be negative")
	}

	ingredient := &models.Ingredient{
		Name:                   name,
		Category:               strings.TrimSpace(input.Category),
		Unit:                   strings.TrimSpace(input.Unit),
		CostPerUnit:            input.CostPerUnit,
		Quantity:               units.RoundQuantity(input.Quantity),
		ParLevel:               input.ParLevel,
		IsOverhead:             input.IsOverhead,
		OverheadPerTransaction: input.OverheadPerTransaction,
		IsActive:               true,
		SyncStatus:             enums.SyncStatusSynced,
	}

	baseUnit := strings.TrimSpace(input.BaseUnit)
	if baseUnit == "" {
		baseUnit = ingredient.Unit
	}
	if baseUnit == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "base unit is required")
	}
	ingredient.BaseUnit = baseUnit

	if input.PackageSize == nil && input.CostPerPackage == nil {
		ingredient.PackageUnit = baseUnit
		ingredient.PackageSize = decimal.NewFromInt(1)
	} else {
		size := decimal.Zero
		if input.PackageSize != nil {
			size = *input.PackageSize
		}
		cost := decimal.Zero
		if input.CostPerPackage != nil {
			cost = *input.CostPerPackage
		}
		if err := units.ValidatePackaging(size, cost); err != nil {
			return nil, nil, err
		}
		ingredient.PackageSize = size
		ingredient.CostPerPackage = cost
		ingredient.PackageUnit = strings.TrimSpace(input.PackageUnit)
		if ingredient.PackageUnit == "" {
			ingredient.PackageUnit = baseUnit
		}
	}
	units.RefreshCache(ingredient)

	aliases, err := buildAliases(input.Aliases)
	if err != nil {
		return nil, nil, err
	}
	return ingredient, aliases, nil
}

// buildAliases validates the alias set. When several aliases claim the
// default flag the last one keeps it.
func buildAliases(inputs []AliasInput) ([]models.UnitAlias, error) {
	aliases := make([]models.UnitAlias, 0, len(inputs))
	seen := make(map[string]struct{}, len(inputs))
	defaultIdx := -1
	for i, input := range inputs {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "alias name is required")
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("duplicate alias %q", name))
		}
		seen[key] = struct{}{}
		if !input.BaseUnitMultiplier.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("alias %q multiplier must be greater than zero", name))
		}
		if input.IsDefault {
			defaultIdx = i
		}
		aliases = append(aliases, models.UnitAlias{
			Name:               name,
			BaseUnitMultiplier: input.BaseUnitMultiplier,
		})
	}
	if defaultIdx >= 0 {
		aliases[defaultIdx].IsDefault = true
	}
	return aliases, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*IngredientDTO, error) {
	ingredient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load ingredient")
	}
	dto := NewIngredientDTO(ingredient, s.thresholds)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]IngredientDTO, error) {
	rows, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list ingredients")
	}
	out := make([]IngredientDTO, 0, len(rows))
	for i := range rows {
		out = append(out, NewIngredientDTO(&rows[i], s.thresholds))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actor ledger.Actor) (*MutationResult, error) {
	if err := validateUpdate(input); err != nil {
		return nil, err
	}

	var (
		before   models.Ingredient
		changeID uuid.UUID
	)
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := s.lockActive(ctx, txRepo, id)
		if err != nil {
			return err
		}
		before = *current
		after := *current

		metadata := applyMetadata(&after, input)
		repackaged := input.PackageSize != nil || input.CostPerPackage != nil
		if input.CostPerUnit != nil {
			after.CostPerUnit = *input.CostPerUnit
		}
		if input.PackageSize != nil {
			after.PackageSize = *input.PackageSize
		}
		if input.CostPerPackage != nil {
			after.CostPerPackage = *input.CostPerPackage
		}
		if repackaged && !units.IsLegacy(&after) {
			if err := units.ValidatePackaging(after.PackageSize, after.CostPerPackage); err != nil {
				return err
			}
		}
		if input.Quantity != nil {
			after.Quantity = *input.Quantity
		}
		if input.ParLevel != nil {
			after.ParLevel = *input.ParLevel
		}

		if err := txRepo.UpdateFields(ctx, id, metadata); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update ingredient")
		}
		res, err := s.ledger.Apply(ctx, tx, ledger.ApplyInput{
			Before:     &before,
			After:      &after,
			Source:     enums.HistorySourceManualEdit,
			Reason:     input.Reason,
			ReasonNote: input.ReasonNote,
			Actor:      actor,
		})
		if err != nil {
			return err
		}
		changeID = res.ChangeID

		if !before.CostPerBaseUnit.Equal(after.CostPerBaseUnit) {
			return s.recostDependents(ctx, tx, id)
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update ingredient")
	}

	nameChanged := input.Name != nil && strings.TrimSpace(*input.Name) != before.Name
	switch {
	case input.Sellable != nil && *input.Sellable != before.Sellable:
		s.syncSellable(ctx, id, *input.Sellable)
	case nameChanged && before.Sellable:
		s.syncSellable(ctx, id, true)
	}

	return s.mutationResult(ctx, id, changeID)
}

func validateUpdate(input UpdateInput) error {
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
	}
	if input.Quantity != nil && input.Quantity.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative")
	}
	if input.ParLevel != nil && input.ParLevel.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "par level cannot be negative")
	}
	if input.CostPerUnit != nil && input.CostPerUnit.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost per unit cannot be negative")
	}
	if input.PackageSize != nil && !input.PackageSize.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "package size must be greater than zero")
	}
	if input.CostPerPackage != nil && input.CostPerPackage.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "cost per package must not be negative")
	}
	if input.OverheadPerTransaction != nil && input.OverheadPerTransaction.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "overhead per transaction cannot be negative")
	}
	if input.BaseUnit != nil && strings.TrimSpace(*input.BaseUnit) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "base unit cannot be empty")
	}
	return nil
}

// applyMetadata copies the unaudited fields onto ing and returns the column updates.
func applyMetadata(ing *models.Ingredient, input UpdateInput) map[string]any {
	updates := map[string]any{}
	if input.Name != nil {
		ing.Name = strings.TrimSpace(*input.Name)
		updates["name"] = ing.Name
	}
	if input.Category != nil {
		ing.Category = strings.TrimSpace(*input.Category)
		updates["category"] = ing.Category
	}
	if input.Unit != nil {
		ing.Unit = strings.TrimSpace(*input.Unit)
		updates["unit"] = ing.Unit
	}
	if input.BaseUnit != nil {
		ing.BaseUnit = strings.TrimSpace(*input.BaseUnit)
		updates["base_unit"] = ing.BaseUnit
	}
	if input.PackageUnit != nil {
		ing.PackageUnit = strings.TrimSpace(*input.PackageUnit)
		updates["package_unit"] = ing.PackageUnit
	}
	if input.IsOverhead != nil {
		ing.IsOverhead = *input.IsOverhead
		updates["is_overhead"] = ing.IsOverhead
	}
	if input.OverheadPerTransaction != nil {
		ing.OverheadPerTransaction = *input.OverheadPerTransaction
		updates["overhead_per_transaction"] = ing.OverheadPerTransaction
	}
	return updates
}

func (s *service) Restock(ctx context.Context, id uuid.UUID, input RestockInput, actor ledger.Actor) (*RestockResult, error) {
	if !input.Quantity.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock quantity must be greater than zero")
	}
	if input.PackageSize != nil && !input.PackageSize.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "package size must be greater than zero")
	}
	if input.CostPerPackage != nil && input.CostPerPackage.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cost per package must not be negative")
	}

	var adjusted *ledger.AdjustResult
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		var err error
		adjusted, err = s.ledger.AdjustTx(ctx, tx, ledger.AdjustInput{
			IngredientID:   id,
			QuantityDelta:  &input.Quantity,
			CostPerPackage: input.CostPerPackage,
			PackageSize:    input.PackageSize,
			Source:         enums.HistorySourceRestock,
			Reason:         input.Reason,
			ReasonNote:     input.ReasonNote,
			Actor:          actor,
		})
		if err != nil {
			return err
		}
		if !adjusted.Before.CostPerBaseUnit.Equal(adjusted.After.CostPerBaseUnit) {
			if err := s.recostDependents(ctx, tx, id); err != nil {
				return err
			}
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventIngredientRestocked,
			AggregateType: enums.AggregateIngredient,
			AggregateID:   id,
			Actor:         outbox.NewActorRef(actor.UserID, actor.UserName),
			Data: payloads.IngredientRestockedEvent{
				IngredientID:    id,
				Name:            adjusted.After.Name,
				ChangeID:        adjusted.ChangeID,
				AddedPackages:   input.Quantity,
				Quantity:        adjusted.After.Quantity,
				CostPerBaseUnit: adjusted.After.CostPerBaseUnit,
			},
		})
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restock ingredient")
	}

	dto, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	logCtx := s.logg.WithIngredientID(ctx, id.String())
	logCtx = s.logg.WithChangeID(logCtx, adjusted.ChangeID.String())
	s.logg.Info(logCtx, "ingredient restocked")

	return &RestockResult{
		Ingredient:      *dto,
		ChangeID:        changeIDPtr(adjusted.ChangeID),
		CostPerBaseUnit: adjusted.After.CostPerBaseUnit,
		Summary:         restockSummary(&adjusted.Before, &adjusted.After, input.Quantity),
	}, nil
}

// restockSummary renders a one-line description of a restock for the operator.
func restockSummary(before, after *models.Ingredient, added decimal.Decimal) string {
	model := units.FromIngredient(after)
	var b strings.Builder
	fmt.Fprintf(&b, "Added %s %s of %s (%s %s).",
		added.String(), model.PackageUnit(), after.Name,
		units.RoundBaseUnits(model.TotalBaseUnits(added)).String(), model.BaseUnit())
	fmt.Fprintf(&b, " Stock is now %s %s.", after.Quantity.String(), model.PackageUnit())
	if !before.PackageSize.Equal(after.PackageSize) {
		fmt.Fprintf(&b, " Package size changed from %s to %s %s.",
			before.PackageSize.String(), after.PackageSize.String(), model.BaseUnit())
	}
	if !before.CostPerPackage.Equal(after.CostPerPackage) {
		fmt.Fprintf(&b, " Cost per %s changed from %s to %s.",
			model.PackageUnit(), before.CostPerPackage.StringFixed(2), after.CostPerPackage.StringFixed(2))
	}
	return b.String()
}

func (s *service) Count(ctx context.Context, id uuid.UUID, input CountInput, actor ledger.Actor) (*MutationResult, error) {
	if input.Quantity.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "counted quantity cannot be negative")
	}
	adjusted, err := s.ledger.Adjust(ctx, ledger.AdjustInput{
		IngredientID: id,
		SetQuantity:  &input.Quantity,
		Source:       enums.HistorySourceInventoryCount,
		Reason:       input.Reason,
		ReasonNote:   input.ReasonNote,
		Actor:        actor,
	})
	if err != nil {
		return nil, err
	}
	return s.mutationResult(ctx, id, adjusted.ChangeID)
}

// Deactivate soft-deletes the ingredient. It writes no history row.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	ingredient, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load ingredient")
	}
	if !ingredient.IsActive {
		return nil
	}
	if err := s.repo.UpdateFields(ctx, id, map[string]any{"is_active": false}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: deactivate ingredient")
	}
	s.logg.Info(s.logg.WithIngredientID(ctx, id.String()), "ingredient deactivated")
	return nil
}

func (s *service) SetAliases(ctx context.Context, id uuid.UUID, inputs []AliasInput) (*IngredientDTO, error) {
	aliases, err := buildAliases(inputs)
	if err != nil {
		return nil, err
	}
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := s.lockActive(ctx, txRepo, id)
		if err != nil {
			return err
		}
		for _, alias := range aliases {
			if strings.EqualFold(alias.Name, current.BaseUnit) {
				return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("alias %q shadows the base unit", alias.Name))
			}
		}
		if err := txRepo.ReplaceAliases(ctx, id, aliases); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: replace unit aliases")
		}
		return nil
	}); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace unit aliases")
	}
	return s.Get(ctx, id)
}

func (s *service) SetSellable(ctx context.Context, id uuid.UUID, sellable bool, category *string) (*catalogsync.Result, error) {
	return s.sync.SetSellable(ctx, id, sellable, category)
}

func (s *service) History(ctx context.Context, query ledger.HistoryQuery) (pagination.Page[HistoryEntryDTO], error) {
	if query.IngredientID != nil {
		if _, err := s.Get(ctx, *query.IngredientID); err != nil {
			return pagination.Page[HistoryEntryDTO]{}, err
		}
	}
	page, err := s.ledger.List(ctx, query)
	if err != nil {
		return pagination.Page[HistoryEntryDTO]{}, err
	}
	return NewHistoryPage(page), nil
}

func (s *service) lockActive(ctx context.Context, repo Repository, id uuid.UUID) (*models.Ingredient, error) {
	ingredient, err := repo.FindForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "ingredient not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock ingredient")
	}
	if !ingredient.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "ingredient is inactive")
	}
	return ingredient, nil
}

// recostDependents refreshes the cached cost of every product whose recipe uses the ingredient.
func (s *service) recostDependents(ctx context.Context, tx *gorm.DB, ingredientID uuid.UUID) error {
	productIDs, err := s.repo.WithTx(tx).RecipeProductIDs(ctx, ingredientID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list dependent products")
	}
	for _, productID := range productIDs {
		if _, err := s.costing.Recost(ctx, tx, productID); err != nil {
			return err
		}
	}
	return nil
}

// syncSellable runs the catalog sync after the triggering edit committed.
// Link failures are already stored on the ingredient; anything else is logged.
func (s *service) syncSellable(ctx context.Context, id uuid.UUID, sellable bool) {
	if _, err := s.sync.SetSellable(ctx, id, sellable, nil); err != nil {
		s.logg.Error(s.logg.WithIngredientID(ctx, id.String()), "catalog sync failed", err)
	}
}

func (s *service) mutationResult(ctx context.Context, id, changeID uuid.UUID) (*MutationResult, error) {
	dto, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &MutationResult{Ingredient: *dto, ChangeID: changeIDPtr(changeID)}, nil
}

func changeIDPtr(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}
