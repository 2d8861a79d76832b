package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/api/responses"
	"github.com/angelmondragon/kitchenpos-backend/api/validators"
	"github.com/angelmondragon/kitchenpos-backend/internal/sales"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

type transactionItemRequest struct {
	ProductID string           `json:"product_id" validate:"required"`
	Quantity  int              `json:"quantity" validate:"required,min=1,max=1000"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

type createTransactionRequest struct {
	Status        string                   `json:"status" validate:"required"`
	PaymentMethod string                   `json:"payment_method" validate:"required"`
	CustomerID    *string                  `json:"customer_id,omitempty"`
	Items         []transactionItemRequest `json:"items" validate:"required,min=1,max=200,dive"`
}

func (r createTransactionRequest) toInput() (sales.CreateInput, error) {
	status, err := enums.ParseTransactionStatus(strings.TrimSpace(r.Status))
	if err != nil {
		return sales.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	method, err := enums.ParsePaymentMethod(strings.TrimSpace(r.PaymentMethod))
	if err != nil {
		return sales.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	input := sales.CreateInput{Status: status, PaymentMethod: method}
	if r.CustomerID != nil && strings.TrimSpace(*r.CustomerID) != "" {
		id, err := validators.ParseUUIDParam(*r.CustomerID, "customer_id")
		if err != nil {
			return sales.CreateInput{}, err
		}
		input.CustomerID = &id
	}
	for i, item := range r.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return sales.CreateInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product_id").
				WithDetails(map[string]any{"index": i})
		}
		input.Items = append(input.Items, sales.ItemInput{
			ProductID: productID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return input, nil
}

type settleRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
}

// TransactionCreate records a sale. With status=settled the sale draws down
// stock before the response is written.
func TransactionCreate(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		var payload createTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.CreateTransaction(r.Context(), input, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, txn)
	}
}

func TransactionGet(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		id, err := uuidParam(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

// TransactionSettle settles a held sale.
func TransactionSettle(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		id, err := uuidParam(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload settleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(strings.TrimSpace(payload.PaymentMethod))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}
		txn, err := svc.Settle(r.Context(), id, method, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

func TransactionConfirmPayment(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		id, err := uuidParam(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.ConfirmPayment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}

// TransactionCancel releases a held sale or reverses an unconfirmed one.
func TransactionCancel(svc sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, serviceUnavailable("sales"))
			return
		}
		id, err := uuidParam(r, "transactionId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		txn, err := svc.Cancel(r.Context(), id, actorFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txn)
	}
}
