package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/kitchenpos-backend/pkg/config"
	"github.com/angelmondragon/kitchenpos-backend/pkg/db/models"
	"github.com/angelmondragon/kitchenpos-backend/pkg/enums"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox"
	"github.com/angelmondragon/kitchenpos-backend/pkg/outbox/payloads"
)

func TestEventRegistryResolveSuccess(t *testing.T) {
	reg := newTestEventRegistry(t)

	txID := uuid.New()
	payloadBytes := mustMarshal(t, payloads.TransactionSettledEvent{
		TransactionID: txID,
		OrderNumber:   42,
		PaymentMethod: enums.PaymentMethodCash,
		PaymentStatus: enums.PaymentStatusConfirmed,
		Total:         decimal.RequireFromString("12.50"),
		Items: []payloads.SoldItem{
			{ProductID: uuid.New(), ProductName: "Burger Steak", Quantity: 2, UnitPrice: decimal.RequireFromString("6.25")},
		},
	})

	event := models.OutboxEvent{
		EventType:     enums.EventTransactionSettled,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   txID,
		Payload:       mustEnvelope(t, payloadBytes),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "sales-channel" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
	payload, ok := resolved.Payload.(*payloads.TransactionSettledEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", resolved.Payload)
	}
	if payload.TransactionID != txID || payload.OrderNumber != 42 {
		t.Fatalf("payload mismatch %+v", payload)
	}
	if len(payload.Items) != 1 || payload.Items[0].Quantity != 2 {
		t.Fatalf("items mismatch %+v", payload.Items)
	}
	if resolved.Envelope.EventID == "" {
		t.Fatalf("envelope missing event id")
	}
	if resolved.Envelope.OccurredAt.IsZero() {
		t.Fatalf("envelope missing occurred_at")
	}
}

func TestEventRegistryStockEventsUseStockChannel(t *testing.T) {
	reg := newTestEventRegistry(t)

	ingredientID := uuid.New()
	event := models.OutboxEvent{
		EventType:     enums.EventIngredientRestocked,
		AggregateType: enums.AggregateIngredient,
		AggregateID:   ingredientID,
		Payload: mustEnvelope(t, mustMarshal(t, payloads.IngredientRestockedEvent{
			IngredientID:  ingredientID,
			Name:          "Burger Patty",
			ChangeID:      uuid.New(),
			AddedPackages: decimal.NewFromInt(5),
			Quantity:      decimal.NewFromInt(15),
		})),
	}

	resolved, err := reg.Resolve(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resolved.Descriptor.Topic != "stock-channel" {
		t.Fatalf("unexpected topic %q", resolved.Descriptor.Topic)
	}
}

func TestEventRegistryResolveUnknownEvent(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.OutboxEventType("order_created"),
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"reason":"none"}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error, got %T", err)
	}
}

func TestEventRegistryResolveAggregateMismatch(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventTransactionSettled,
		AggregateType: enums.AggregateIngredient,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte(`{"transaction_id":"00000000-0000-0000-0000-000000000000","items":[]}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveMissingAggregateID(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventTransactionCancelled,
		AggregateType: enums.AggregateTransaction,
		AggregateID:   uuid.Nil,
		Payload:       mustEnvelope(t, []byte(`{}`)),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestEventRegistryResolveNullPayload(t *testing.T) {
	reg := newTestEventRegistry(t)

	event := models.OutboxEvent{
		EventType:     enums.EventIngredientStockLow,
		AggregateType: enums.AggregateIngredient,
		AggregateID:   uuid.New(),
		Payload:       mustEnvelope(t, []byte("null")),
	}

	_, err := reg.Resolve(event)
	if err == nil {
		t.Fatalf("expected error")
	}
	var nonRetry NonRetryableError
	if !errors.As(err, &nonRetry) {
		t.Fatalf("expected non-retryable error")
	}
}

func TestNewEventRegistryRequiresChannels(t *testing.T) {
	if _, err := NewEventRegistry(config.OutboxConfig{StockChannel: "stock"}); err == nil {
		t.Fatalf("expected missing sales channel error")
	}
	if _, err := NewEventRegistry(config.OutboxConfig{SalesChannel: "sales"}); err == nil {
		t.Fatalf("expected missing stock channel error")
	}
}

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	cfg := config.OutboxConfig{
		SalesChannel: "sales-channel",
		StockChannel: "stock-channel",
	}
	reg, err := NewEventRegistry(cfg)
	if err != nil {
		t.Fatalf("build registry: %v", err)
	}
	return reg
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return data
}

func mustEnvelope(t *testing.T, payload []byte) json.RawMessage {
	t.Helper()
	envelope := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return data
}
