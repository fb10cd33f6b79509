package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"equity/internal/billing"
	apperrors "equity/internal/errors"
	"equity/internal/events"
	"equity/internal/logger"
	"equity/internal/models"
)

// subscriptionService drives the subscription lifecycle against the billing
// provider and caches the resulting status on the user row.
type subscriptionService struct {
	db        *gorm.DB
	guard     OwnershipGuard
	provider  billing.Provider
	priceID   string
	publisher events.Publisher
	now       func() time.Time
}

// NewSubscriptionService creates a new SubscriptionServicer. provider may be
// nil when billing is not configured; subscribe and cancel then fail with
// ErrBillingNotConfigured.
func NewSubscriptionService(db *gorm.DB, guard OwnershipGuard, provider billing.Provider, priceID string, publisher events.Publisher) SubscriptionServicer {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &subscriptionService{
		db:        db,
		guard:     guard,
		provider:  provider,
		priceID:   priceID,
		publisher: publisher,
		now:       time.Now,
	}
}

// Subscribe attaches the payment method to the user's billing customer,
// creating the customer on first use, and starts a subscription to the
// configured price.
func (s *subscriptionService) Subscribe(ctx context.Context, subject, paymentMethodID string) (*SubscriptionResult, error) {
	paymentMethodID = strings.TrimSpace(paymentMethodID)
	if paymentMethodID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Payment method ID is required")
	}

	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return nil, err
	}

	if s.provider == nil || s.priceID == "" {
		return nil, apperrors.ErrBillingNotConfigured
	}

	if err := s.provider.ValidatePrice(ctx, s.priceID); err != nil {
		if billing.KindOf(err) == billing.KindInvalidRequest {
			logger.Get().Errorw("configured price rejected by billing provider", "price_id", s.priceID, "error", err)
			return nil, apperrors.Wrap(apperrors.ErrInvalidPriceConfig, err)
		}
		return nil, s.providerError(user, "validate_price", err)
	}

	customerID, err := s.ensureCustomer(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.provider.AttachPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		return nil, s.providerError(user, "attach_payment_method", err)
	}
	if err := s.provider.SetDefaultPaymentMethod(ctx, customerID, paymentMethodID); err != nil {
		return nil, s.providerError(user, "set_default_payment_method", err)
	}

	sub, err := s.provider.CreateSubscription(ctx, customerID, s.priceID)
	if err != nil {
		return nil, s.providerError(user, "create_subscription", err)
	}

	status := models.SubscriptionStatus(sub.Status)
	err = s.db.Model(user).Updates(map[string]interface{}{
		"subscription_id":     sub.ID,
		"subscription_status": status,
	}).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publish(ctx, events.SubscriptionCreated, user, customerID, sub.ID, status)

	return &SubscriptionResult{SubscriptionID: sub.ID, Status: status}, nil
}

// ensureCustomer returns the user's billing customer, creating and
// persisting one when the user has none yet.
func (s *subscriptionService) ensureCustomer(ctx context.Context, user *models.User) (string, error) {
	if user.CustomerID != nil && *user.CustomerID != "" {
		return *user.CustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, user.Email)
	if err != nil {
		return "", s.providerError(user, "create_customer", err)
	}

	if err := s.db.Model(user).Update("customer_id", customerID).Error; err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.CustomerID = &customerID
	return customerID, nil
}

// Cancel cancels the user's subscription at the provider and marks it
// canceled locally.
func (s *subscriptionService) Cancel(ctx context.Context, subject string) (*SubscriptionResult, error) {
	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return nil, err
	}

	if user.SubscriptionID == nil || *user.SubscriptionID == "" {
		return nil, apperrors.ErrNoSubscription
	}
	if s.provider == nil {
		return nil, apperrors.ErrBillingNotConfigured
	}

	subscriptionID := *user.SubscriptionID
	if _, err := s.provider.CancelSubscription(ctx, subscriptionID); err != nil {
		return nil, s.providerError(user, "cancel_subscription", err)
	}

	if err := s.db.Model(user).Update("subscription_status", models.SubscriptionCanceled).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	customerID := ""
	if user.CustomerID != nil {
		customerID = *user.CustomerID
	}
	s.publish(ctx, events.SubscriptionCanceled, user, customerID, subscriptionID, models.SubscriptionCanceled)

	return &SubscriptionResult{SubscriptionID: subscriptionID, Status: models.SubscriptionCanceled}, nil
}

// IsSubscribed reports the cached status without calling the provider.
func (s *subscriptionService) IsSubscribed(subject string) (bool, error) {
	user, err := s.guard.ResolveUser(subject)
	if err != nil {
		return false, err
	}
	return user.IsSubscribed(), nil
}

// providerError maps a billing failure to the client-facing error. Card
// declines carry the provider's explanation as detail; everything else is
// a provider error with the provider's message.
func (s *subscriptionService) providerError(user *models.User, step string, err error) error {
	var be *billing.Error
	if !errors.As(err, &be) {
		be = &billing.Error{Kind: billing.KindProvider, Message: err.Error(), Err: err}
	}

	if be.Kind == billing.KindCardDeclined {
		logger.Get().Infow("payment method declined", "user_id", user.ID, "step", step, "reason", be.Message)
		return apperrors.WithDetail(apperrors.ErrPaymentDeclined, be.Message, err)
	}

	logger.Get().Errorw("billing provider error", "user_id", user.ID, "step", step, "kind", be.Kind.String(), "error", err)
	return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrProvider, be.Message), err)
}

func (s *subscriptionService) publish(ctx context.Context, routingKey string, user *models.User, customerID, subscriptionID string, status models.SubscriptionStatus) {
	event := events.SubscriptionEvent{
		UserID:         user.ID,
		Email:          user.Email,
		CustomerID:     customerID,
		SubscriptionID: subscriptionID,
		Status:         string(status),
		OccurredAt:     s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		logger.Get().Warnw("failed to publish subscription event", "routing_key", routingKey, "user_id", user.ID, "error", err)
	}
}
