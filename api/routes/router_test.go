package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitchenpos-backend/internal/availability"
	"github.com/angelmondragon/kitchenpos-backend/internal/catalogsync"
	"github.com/angelmondragon/kitchenpos-backend/internal/costing"
	"github.com/angelmondragon/kitchenpos-backend/internal/ingredients"
	"github.com/angelmondragon/kitchenpos-backend/internal/ledger"
	"github.com/angelmondragon/kitchenpos-backend/internal/loyalty"
	"github.com/angelmondragon/kitchenpos-backend/internal/products"
	"github.com/angelmondragon/kitchenpos-backend/internal/recipes"
	"github.com/angelmondragon/kitchenpos-backend/internal/sales"
	"github.com/angelmondragon/kitchenpos-backend/pkg/config"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitchenpos-backend/pkg/logger"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func testConfig() *config.Config {
	return &config.Config{App: config.AppConfig{Env: "test", Port: "0"}}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: io.Discard})
}

func buildServices(t *testing.T) Services {
	t.Helper()
	conn := dbtest.New(t)
	client := db.Wrap(conn)
	thresholds := availability.DefaultThresholds()
	logg := testLogger()

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), client)
	require.NoError(t, err)
	syncSvc, err := catalogsync.NewService(catalogsync.NewRepository(conn), client, logg, nil)
	require.NoError(t, err)
	costingSvc, err := costing.NewService(client, decimal.NewFromInt(18), logg)
	require.NoError(t, err)
	availabilitySvc, err := availability.NewService(conn, thresholds)
	require.NoError(t, err)
	loyaltySvc, err := loyalty.NewService(conn)
	require.NoError(t, err)
	outboxSvc := outbox.NewService(outbox.NewRepository(conn), logg)

	ingredientSvc, err := ingredients.NewService(ingredients.NewRepository(conn), client, ledgerSvc, syncSvc, costingSvc, outboxSvc, thresholds, logg)
	require.NoError(t, err)
	recipeSvc, err := recipes.NewService(recipes.NewRepository(conn), client, costingSvc, logg)
	require.NoError(t, err)
	productSvc, err := products.NewService(products.NewRepository(conn), client, costingSvc, availabilitySvc, logg)
	require.NoError(t, err)
	salesSvc, err := sales.NewService(sales.NewRepository(conn), client, ledgerSvc, costingSvc, loyaltySvc, outboxSvc, thresholds, nil, logg)
	require.NoError(t, err)

	return Services{
		Ingredients: ingredientSvc,
		Recipes:     recipeSvc,
		Products:    productSvc,
		Sales:       salesSvc,
		Customers:   loyaltySvc,
		Costing:     costingSvc,
	}
}

func call(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func TestHealthRoutes(t *testing.T) {
	router := NewRouter(testConfig(), testLogger(), Dependencies{DB: stubPinger{}}, Services{})

	rec := call(t, router, http.MethodGet, "/health/live", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-KitchenPOS-Env"))

	rec = call(t, router, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	failing := NewRouter(testConfig(), testLogger(), Dependencies{DB: stubPinger{}, Redis: stubPinger{err: errors.New("down")}}, Services{})
	rec = call(t, failing, http.MethodGet, "/health/ready", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRouteMountedWhenProvided(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	})
	router := NewRouter(testConfig(), testLogger(), Dependencies{Metrics: metrics}, Services{})
	rec := call(t, router, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# metrics", rec.Body.String())

	bare := NewRouter(testConfig(), testLogger(), Dependencies{}, Services{})
	rec = call(t, bare, http.MethodGet, "/metrics", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMissingServiceAnswersServerError(t *testing.T) {
	router := NewRouter(testConfig(), testLogger(), Dependencies{}, Services{})
	rec := call(t, router, http.MethodGet, "/api/v1/ingredients", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIdempotencyRequiredOnTransactionCreate(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	router := NewRouter(testConfig(), testLogger(), Dependencies{Idempotency: store}, buildServices(t))

	rec := call(t, router, http.MethodPost, "/api/v1/transactions", map[string]any{"status": "pending"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSaleFlowOverHTTP(t *testing.T) {
	router := NewRouter(testConfig(), testLogger(), Dependencies{}, buildServices(t))
	actor := map[string]string{"X-User-Id": "cashier-1", "X-User-Name": "Ana"}

	rec := call(t, router, http.MethodPost, "/api/v1/ingredients", map[string]any{
		"name":             "Ground Beef",
		"base_unit":        "kg",
		"package_unit":     "kg",
		"package_size":     "1",
		"cost_per_package": "400",
		"quantity":         "10",
		"par_level":        "2",
	}, actor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ingredient ingredients.IngredientDTO
	decodeData(t, rec, &ingredient)

	rec = call(t, router, http.MethodPost, "/api/v1/products", map[string]any{"name": "Burger Steak", "price": "150"}, actor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var product products.ProductDTO
	decodeData(t, rec, &product)

	rec = call(t, router, http.MethodPut, "/api/v1/recipes/"+product.ID.String(), map[string]any{
		"items": []map[string]any{{"ingredient_id": ingredient.ID.String(), "quantity": "0.15", "unit": "kg"}},
	}, actor)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/v1/transactions", map[string]any{
		"status":         "settled",
		"payment_method": "online",
		"items":          []map[string]any{{"product_id": product.ID.String(), "quantity": 2}},
	}, actor)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var txn sales.TransactionDTO
	decodeData(t, rec, &txn)
	assert.Equal(t, int64(1), txn.OrderNumber)
	require.NotNil(t, txn.SettlementChangeID)

	rec = call(t, router, http.MethodGet, "/api/v1/ingredients/"+ingredient.ID.String(), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after ingredients.IngredientDTO
	decodeData(t, rec, &after)
	assert.True(t, after.Quantity.Equal(decimal.RequireFromString("9.7")), after.Quantity.String())

	rec = call(t, router, http.MethodGet, "/api/v1/history?source=sale", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodPost, "/api/v1/transactions/"+txn.ID.String()+"/cancel", nil, actor)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, router, http.MethodGet, "/api/v1/ingredients/"+ingredient.ID.String(), nil, nil)
	decodeData(t, rec, &after)
	assert.True(t, after.Quantity.Equal(decimal.NewFromInt(10)), after.Quantity.String())

	rec = call(t, router, http.MethodPost, "/api/v1/transactions/"+txn.ID.String()+"/cancel", nil, actor)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
