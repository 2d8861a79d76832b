package enums

import "fmt"

// OutboxAggregateType names the entity an outbox event is about.
type OutboxAggregateType string

const (
	AggregateTransaction OutboxAggregateType = "transaction"
	AggregateIngredient  OutboxAggregateType = "ingredient"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateTransaction,
	AggregateIngredient,
}

// IsValid reports whether the value is a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType names a domain event queued in the outbox.
type OutboxEventType string

const (
	EventTransactionSettled   OutboxEventType = "transaction_settled"
	EventTransactionCancelled OutboxEventType = "transaction_cancelled"
	EventIngredientRestocked  OutboxEventType = "ingredient_restocked"
	EventIngredientStockLow   OutboxEventType = "ingredient_stock_low"
)

var validOutboxEventTypes = []OutboxEventType{
	EventTransactionSettled,
	EventTransactionCancelled,
	EventIngredientRestocked,
	EventIngredientStockLow,
}

// IsValid reports whether the value is a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
