package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotEditable  = errors.New("only pending orders can be edited")
	ErrInvalidTransition = errors.New("invalid order status transition")

	// Wastage registration requires a quantity basis from the prior stage
	ErrDeliveryNotRecorded = errors.New("delivery has not been recorded for this order")
	ErrReceiptNotRecorded  = errors.New("receipt has not been recorded for this order")
)

// FieldError pinpoints a single validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every violation found in a draft order so the
// caller can re-prompt once instead of fixing fields one at a time
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, 0, len(v))
	for _, fe := range v {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// WastageViolation reports one line item whose wastage submission exceeds its
// quantity basis
type WastageViolation struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Wastage     int       `json:"wastage"`
	NotReceived int       `json:"not_received"`
	Limit       int       `json:"limit"`
	Excess      int       `json:"excess"`
}

// ConstraintViolationError rejects a wastage submission outright. It is never
// downgraded to a warning: the attempted mutation is not applied.
type ConstraintViolationError struct {
	Level      string             `json:"level"`
	Violations []WastageViolation `json:"violations"`
}

func (e *ConstraintViolationError) Error() string {
	return fmt.Sprintf("%s wastage exceeds available quantity on %d item(s)", e.Level, len(e.Violations))
}

// QuantityWarning flags a delivered/received value above the prior stage's
// quantity. The mutation proceeds; the caller surfaces it for human review.
// It is never upgraded to a hard failure.
type QuantityWarning struct {
	OrderItemID uuid.UUID `json:"order_item_id"`
	Field       string    `json:"field"`
	Value       int       `json:"value"`
	Limit       int       `json:"limit"`
	Message     string    `json:"message"`
}
