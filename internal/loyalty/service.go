// Package loyalty keeps the per-customer visit aggregates that settled sales feed.
package loyalty

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitchenpos-backend/internal/repo"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
)

// Service records customer visits.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CustomerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error)
	// RecordVisit adds one visit and amount to the customer's totals on tx.
	RecordVisit(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal, at time.Time) error
	// ReverseVisit undoes RecordVisit on tx. Totals never drop below zero.
	ReverseVisit(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal) error
}

// CreateInput registers a customer.
type CreateInput struct {
	Name  string
	Phone *string
}

// CustomerDTO is the customer payload returned to clients.
type CustomerDTO struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Phone       *string         `json:"phone,omitempty"`
	VisitCount  int64           `json:"visit_count"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	LastVisitAt *time.Time      `json:"last_visit_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newCustomerDTO(c *models.Customer) CustomerDTO {
	return CustomerDTO{
		ID:          c.ID,
		Name:        c.Name,
		Phone:       c.Phone,
		VisitCount:  c.VisitCount,
		TotalSpent:  c.TotalSpent,
		LastVisitAt: c.LastVisitAt,
		CreatedAt:   c.CreatedAt,
	}
}

type service struct {
	base repo.Base
}

// NewService builds the loyalty service over conn.
func NewService(conn *gorm.DB) (Service, error) {
	if conn == nil {
		return nil, fmt.Errorf("db required")
	}
	return &service{base: repo.NewBase(conn)}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CustomerDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	customer := &models.Customer{Name: name, Phone: input.Phone, TotalSpent: decimal.Zero}
	if err := s.base.DB(ctx).Create(customer).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert customer")
	}
	dto := newCustomerDTO(customer)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CustomerDTO, error) {
	customer, err := s.load(ctx, nil, id, false)
	if err != nil {
		return nil, err
	}
	dto := newCustomerDTO(customer)
	return &dto, nil
}

func (s *service) RecordVisit(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal, at time.Time) error {
	customer, err := s.load(ctx, tx, customerID, true)
	if err != nil {
		return err
	}
	at = at.UTC()
	return s.save(ctx, tx, customer.ID, map[string]any{
		"visit_count":   customer.VisitCount + 1,
		"total_spent":   customer.TotalSpent.Add(amount),
		"last_visit_at": at,
	})
}

func (s *service) ReverseVisit(ctx context.Context, tx *gorm.DB, customerID uuid.UUID, amount decimal.Decimal) error {
	customer, err := s.load(ctx, tx, customerID, true)
	if err != nil {
		return err
	}
	visits := customer.VisitCount - 1
	if visits < 0 {
		visits = 0
	}
	spent := customer.TotalSpent.Sub(amount)
	if spent.IsNegative() {
		spent = decimal.Zero
	}
	return s.save(ctx, tx, customer.ID, map[string]any{
		"visit_count": visits,
		"total_spent": spent,
	})
}

func (s *service) load(ctx context.Context, tx *gorm.DB, id uuid.UUID, lock bool) (*models.Customer, error) {
	query := s.base.Conn(ctx, tx)
	if lock {
		query = db.ForUpdate(query)
	}
	var customer models.Customer
	if err := query.First(&customer, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "customer not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load customer")
	}
	return &customer, nil
}

func (s *service) save(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]any) error {
	if err := s.base.Conn(ctx, tx).Model(&models.Customer{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update customer totals")
	}
	return nil
}
