package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitchenpos-backend/api/middleware"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/internal/sales"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitchenpos-backend/pkg/errors"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
)

type stubSalesService struct {
	createInput sales.CreateInput
	actor       ledger.Actor
	cancelErr   error
	settled     enums.PaymentMethod
}

func (s *stubSalesService) CreateTransaction(_ context.Context, input sales.CreateInput, actor ledger.Actor) (*sales.TransactionDTO, error) {
	s.createInput = input
	s.actor = actor
	return &sales.TransactionDTO{ID: uuid.New(), OrderNumber: 1, Status: input.Status, PaymentMethod: input.PaymentMethod}, nil
}

func (s *stubSalesService) Get(_ context.Context, id uuid.UUID) (*sales.TransactionDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
}

func (s *stubSalesService) Settle(_ context.Context, id uuid.UUID, method enums.PaymentMethod, _ ledger.Actor) (*sales.TransactionDTO, error) {
	s.settled = method
	return &sales.TransactionDTO{ID: id, Status: enums.TransactionStatusSettled, PaymentMethod: method}, nil
}

func (s *stubSalesService) ConfirmPayment(_ context.Context, id uuid.UUID) (*sales.TransactionDTO, error) {
	return &sales.TransactionDTO{ID: id}, nil
}

func (s *stubSalesService) Cancel(_ context.Context, id uuid.UUID, _ ledger.Actor) (*sales.TransactionDTO, error) {
	if s.cancelErr != nil {
		return nil, s.cancelErr
	}
	return &sales.TransactionDTO{ID: id, Status: enums.TransactionStatusCancelled}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withURLParam(req *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestTransactionCreate(t *testing.T) {
	productID := uuid.New()

	t.Run("settled sale with actor", func(t *testing.T) {
		stub := &stubSalesService{}
		body := `{"status":"settled","payment_method":"cash","items":[{"product_id":"` + productID.String() + `","quantity":2}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body))
		ctx := middleware.WithUserID(req.Context(), "u-7")
		ctx = middleware.WithUserName(ctx, "Ana")
		rec := httptest.NewRecorder()
		TransactionCreate(stub, testLogger()).ServeHTTP(rec, req.WithContext(ctx))

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, enums.TransactionStatusSettled, stub.createInput.Status)
		assert.Equal(t, enums.PaymentMethodCash, stub.createInput.PaymentMethod)
		require.Len(t, stub.createInput.Items, 1)
		assert.Equal(t, productID, stub.createInput.Items[0].ProductID)
		assert.Equal(t, 2, stub.createInput.Items[0].Quantity)
		require.NotNil(t, stub.actor.UserID)
		assert.Equal(t, "u-7", *stub.actor.UserID)
		assert.Equal(t, "Ana", *stub.actor.UserName)
	})

	t.Run("unknown status", func(t *testing.T) {
		body := `{"status":"paid","payment_method":"cash","items":[{"product_id":"` + productID.String() + `","quantity":1}]}`
		rec := httptest.NewRecorder()
		TransactionCreate(&stubSalesService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad product id", func(t *testing.T) {
		body := `{"status":"pending","payment_method":"card","items":[{"product_id":"nope","quantity":1}]}`
		rec := httptest.NewRecorder()
		TransactionCreate(&stubSalesService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("empty items", func(t *testing.T) {
		body := `{"status":"pending","payment_method":"card","items":[]}`
		rec := httptest.NewRecorder()
		TransactionCreate(&stubSalesService{}, testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transactions", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, string(pkgerrors.CodeValidation), errorCode(t, rec))
	})
}

func TestTransactionSettleParsesMethod(t *testing.T) {
	stub := &stubSalesService{}
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+id.String()+"/settle", strings.NewReader(`{"payment_method":"online"}`)), "transactionId", id.String())
	rec := httptest.NewRecorder()
	TransactionSettle(stub, testLogger()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.PaymentMethodOnline, stub.settled)
}

func TestTransactionCancelMapsStateConflict(t *testing.T) {
	stub := &stubSalesService{cancelErr: pkgerrors.New(pkgerrors.CodeStateConflict, "cannot cancel a cancelled transaction")}
	id := uuid.New()
	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/v1/transactions/"+id.String()+"/cancel", nil), "transactionId", id.String())
	rec := httptest.NewRecorder()
	TransactionCancel(stub, testLogger()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeStateConflict), errorCode(t, rec))
}

func TestTransactionGetRejectsBadID(t *testing.T) {
	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/transactions/abc", nil), "transactionId", "abc")
	rec := httptest.NewRecorder()
	TransactionGet(&stubSalesService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	id := uuid.New()
	req = withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/transactions/"+id.String(), nil), "transactionId", id.String())
	rec = httptest.NewRecorder()
	TransactionGet(&stubSalesService{}, testLogger()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
