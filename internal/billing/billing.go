// Package billing is the boundary to the external subscription billing
// provider. Callers depend on Provider; StripeProvider is the production
// implementation.
package billing

import (
	"context"
	"errors"
)

// Subscription is the provider's view of a subscription after a call.
type Subscription struct {
	ID     string
	Status string
}

// Provider is the set of billing operations the subscription flow uses.
type Provider interface {
	// ValidatePrice confirms the price exists at the provider.
	ValidatePrice(ctx context.Context, priceID string) error
	// CreateCustomer registers a billing customer and returns its id.
	CreateCustomer(ctx context.Context, email string) (string, error)
	AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error
	CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error)
}

// Kind classifies provider failures.
type Kind int

const (
	// KindProvider is any failure that is not the caller's fault.
	KindProvider Kind = iota
	// KindCardDeclined means the payment method was rejected.
	KindCardDeclined
	// KindInvalidRequest means the provider rejected the request itself,
	// such as an unknown price or customer.
	KindInvalidRequest
)

func (k Kind) String() string {
	switch k {
	case KindCardDeclined:
		return "card_declined"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "provider"
	}
}

// Error is returned by every Provider method on failure. Message is the
// provider's own explanation and is safe to show to the client.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return "billing " + e.Kind.String() + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or KindProvider when err is not an *Error.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return KindProvider
}
