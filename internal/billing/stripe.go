package billing

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"equity/internal/config"
	"equity/internal/logger"
)

// StripeProvider implements Provider against the Stripe API.
type StripeProvider struct {
	sc *client.API
}

// NewStripeProvider builds a client with its own HTTP client and retry
// budget. APIURL overrides the Stripe endpoint, which tests point at a
// local server.
func NewStripeProvider(cfg config.StripeConfig) *StripeProvider {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        httpClient,
		MaxNetworkRetries: stripe.Int64(cfg.MaxRetries),
		LeveledLogger:     logger.Get(),
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}

	sc := &client.API{}
	sc.Init(cfg.SecretKey, backends)
	return &StripeProvider{sc: sc}
}

// ValidatePrice fetches the price.
func (p *StripeProvider) ValidatePrice(ctx context.Context, priceID string) error {
	params := &stripe.PriceParams{}
	params.Context = ctx
	if _, err := p.sc.Prices.Get(priceID, params); err != nil {
		return classify(err)
	}
	return nil
}

// CreateCustomer creates a customer keyed by email.
func (p *StripeProvider) CreateCustomer(ctx context.Context, email string) (string, error) {
	params := &stripe.CustomerParams{Email: stripe.String(email)}
	params.Context = ctx
	cust, err := p.sc.Customers.New(params)
	if err != nil {
		return "", classify(err)
	}
	return cust.ID, nil
}

// AttachPaymentMethod attaches the payment method to the customer.
func (p *StripeProvider) AttachPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.PaymentMethodAttachParams{Customer: stripe.String(customerID)}
	params.Context = ctx
	if _, err := p.sc.PaymentMethods.Attach(paymentMethodID, params); err != nil {
		return classify(err)
	}
	return nil
}

// SetDefaultPaymentMethod makes the payment method the customer's default
// for invoices.
func (p *StripeProvider) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	params := &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	}
	params.Context = ctx
	if _, err := p.sc.Customers.Update(customerID, params); err != nil {
		return classify(err)
	}
	return nil
}

// CreateSubscription subscribes the customer to a single price.
func (p *StripeProvider) CreateSubscription(ctx context.Context, customerID, priceID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(customerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(priceID)},
		},
	}
	params.AddExpand("latest_invoice.payment_intent")
	params.Context = ctx

	sub, err := p.sc.Subscriptions.New(params)
	if err != nil {
		return nil, classify(err)
	}
	return &Subscription{ID: sub.ID, Status: string(sub.Status)}, nil
}

// CancelSubscription cancels immediately.
func (p *StripeProvider) CancelSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionCancelParams{}
	params.Context = ctx

	sub, err := p.sc.Subscriptions.Cancel(subscriptionID, params)
	if err != nil {
		return nil, classify(err)
	}
	return &Subscription{ID: sub.ID, Status: string(sub.Status)}, nil
}

func classify(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &Error{Kind: KindProvider, Message: err.Error(), Err: err}
	}

	msg := se.Msg
	if msg == "" {
		msg = err.Error()
	}

	switch se.Type {
	case stripe.ErrorTypeCard:
		return &Error{Kind: KindCardDeclined, Message: msg, Err: err}
	case stripe.ErrorTypeInvalidRequest:
		return &Error{Kind: KindInvalidRequest, Message: msg, Err: err}
	default:
		return &Error{Kind: KindProvider, Message: msg, Err: err}
	}
}
