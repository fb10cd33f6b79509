package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"equity/internal/billing"
	apperrors "equity/internal/errors"
	"equity/internal/events"
	"equity/internal/models"
	"equity/internal/testutil"
)

// fakeProvider is a scripted billing.Provider that records the calls made.
type fakeProvider struct {
	validatePriceErr error
	customerID       string
	createCustErr    error
	attachErr        error
	setDefaultErr    error
	subscription     *billing.Subscription
	createSubErr     error
	cancelErr        error

	calls []string
}

var _ billing.Provider = (*fakeProvider)(nil)

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		customerID:   "cus_new",
		subscription: &billing.Subscription{ID: "sub_1", Status: "active"},
	}
}

func (f *fakeProvider) ValidatePrice(_ context.Context, priceID string) error {
	f.calls = append(f.calls, "ValidatePrice:"+priceID)
	return f.validatePriceErr
}

func (f *fakeProvider) CreateCustomer(_ context.Context, email string) (string, error) {
	f.calls = append(f.calls, "CreateCustomer:"+email)
	if f.createCustErr != nil {
		return "", f.createCustErr
	}
	return f.customerID, nil
}

func (f *fakeProvider) AttachPaymentMethod(_ context.Context, customerID, pm string) error {
	f.calls = append(f.calls, "AttachPaymentMethod:"+customerID+":"+pm)
	return f.attachErr
}

func (f *fakeProvider) SetDefaultPaymentMethod(_ context.Context, customerID, pm string) error {
	f.calls = append(f.calls, "SetDefaultPaymentMethod:"+customerID+":"+pm)
	return f.setDefaultErr
}

func (f *fakeProvider) CreateSubscription(_ context.Context, customerID, priceID string) (*billing.Subscription, error) {
	f.calls = append(f.calls, "CreateSubscription:"+customerID+":"+priceID)
	if f.createSubErr != nil {
		return nil, f.createSubErr
	}
	return f.subscription, nil
}

func (f *fakeProvider) CancelSubscription(_ context.Context, subscriptionID string) (*billing.Subscription, error) {
	f.calls = append(f.calls, "CancelSubscription:"+subscriptionID)
	if f.cancelErr != nil {
		return nil, f.cancelErr
	}
	return &billing.Subscription{ID: subscriptionID, Status: "canceled"}, nil
}

func (f *fakeProvider) called(prefix string) bool {
	for _, c := range f.calls {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

type publishedEvent struct {
	key     string
	payload events.SubscriptionEvent
}

type fakePublisher struct {
	published []publishedEvent
	err       error
}

func (p *fakePublisher) Publish(_ context.Context, key string, payload any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, publishedEvent{key: key, payload: payload.(events.SubscriptionEvent)})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func newTestSubscriptionService(db *gorm.DB, provider billing.Provider, publisher events.Publisher) SubscriptionServicer {
	return NewSubscriptionService(db, NewOwnershipGuard(db), provider, "price_123", publisher)
}

func reloadUser(t *testing.T, db *gorm.DB, id string) models.User {
	t.Helper()
	var user models.User
	if err := db.First(&user, "id = ?", id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return user
}

func TestSubscribe(t *testing.T) {
	t.Run("new_customer", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		publisher := &fakePublisher{}
		svc := newTestSubscriptionService(db, provider, publisher)
		user := testutil.CreateTestUser(t, db)

		result, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertNoError(t, err)

		if result.SubscriptionID != "sub_1" || result.Status != models.SubscriptionActive {
			t.Errorf("unexpected result %+v", result)
		}

		stored := reloadUser(t, db, user.ID)
		if stored.CustomerID == nil || *stored.CustomerID != "cus_new" {
			t.Errorf("expected customer id persisted, got %v", stored.CustomerID)
		}
		if stored.SubscriptionID == nil || *stored.SubscriptionID != "sub_1" {
			t.Errorf("expected subscription id persisted, got %v", stored.SubscriptionID)
		}
		if !stored.IsSubscribed() {
			t.Errorf("expected active status, got %s", stored.SubscriptionStatus)
		}

		want := []string{
			"ValidatePrice:price_123",
			"CreateCustomer:" + user.Email,
			"AttachPaymentMethod:cus_new:pm_card",
			"SetDefaultPaymentMethod:cus_new:pm_card",
			"CreateSubscription:cus_new:price_123",
		}
		if len(provider.calls) != len(want) {
			t.Fatalf("calls = %v, want %v", provider.calls, want)
		}
		for i := range want {
			if provider.calls[i] != want[i] {
				t.Errorf("call %d = %q, want %q", i, provider.calls[i], want[i])
			}
		}

		if len(publisher.published) != 1 || publisher.published[0].key != events.SubscriptionCreated {
			t.Fatalf("expected one subscription.created event, got %+v", publisher.published)
		}
		if publisher.published[0].payload.UserID != user.ID {
			t.Errorf("event user = %s, want %s", publisher.published[0].payload.UserID, user.ID)
		}
	})

	t.Run("existing_customer_is_reused", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)
		existing := "cus_existing"
		testutil.SetSubscription(t, db, user, &existing, nil, models.SubscriptionCanceled)

		_, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertNoError(t, err)

		if provider.called("CreateCustomer") {
			t.Error("expected existing customer to be reused")
		}
		if !provider.called("CreateSubscription:cus_existing") {
			t.Errorf("expected subscription for existing customer, calls = %v", provider.calls)
		}
	})

	t.Run("incomplete_status_is_stored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		provider.subscription = &billing.Subscription{ID: "sub_2", Status: "incomplete"}
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)

		result, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertNoError(t, err)
		if result.Status != models.SubscriptionIncomplete {
			t.Errorf("expected incomplete, got %s", result.Status)
		}

		subscribed, err := svc.IsSubscribed(user.ID)
		testutil.AssertNoError(t, err)
		if subscribed {
			t.Error("incomplete subscription should not count as subscribed")
		}
	})

	t.Run("missing_payment_method", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Subscribe(context.Background(), user.ID, "  ")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
		if len(provider.calls) != 0 {
			t.Errorf("provider should not be called, got %v", provider.calls)
		}
	})

	t.Run("billing_not_configured", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		user := testutil.CreateTestUser(t, db)

		noProvider := NewSubscriptionService(db, NewOwnershipGuard(db), nil, "price_123", nil)
		_, err := noProvider.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertAppError(t, err, "BILLING_NOT_CONFIGURED")

		noPrice := NewSubscriptionService(db, NewOwnershipGuard(db), newFakeProvider(), "", nil)
		_, err = noPrice.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertAppError(t, err, "BILLING_NOT_CONFIGURED")
	})

	t.Run("invalid_price", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		provider.validatePriceErr = &billing.Error{Kind: billing.KindInvalidRequest, Message: "No such price"}
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertAppError(t, err, "INVALID_PRICE_CONFIG")
		if provider.called("CreateCustomer") {
			t.Error("no customer should be created for an invalid price")
		}
	})

	t.Run("card_declined", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		provider.attachErr = &billing.Error{Kind: billing.KindCardDeclined, Message: "Your card was declined."}
		publisher := &fakePublisher{}
		svc := newTestSubscriptionService(db, provider, publisher)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Subscribe(context.Background(), user.ID, "pm_declined")
		testutil.AssertAppError(t, err, "PAYMENT_DECLINED")

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Message != "Payment method declined" || appErr.Detail != "Your card was declined." {
				t.Errorf("unexpected declined error %+v", appErr)
			}
		}

		stored := reloadUser(t, db, user.ID)
		if stored.CustomerID == nil || *stored.CustomerID != "cus_new" {
			t.Error("customer created before the decline should stay persisted")
		}
		if stored.SubscriptionID != nil || stored.SubscriptionStatus != models.SubscriptionInactive {
			t.Errorf("subscription should be untouched, got %v %s", stored.SubscriptionID, stored.SubscriptionStatus)
		}
		if len(publisher.published) != 0 {
			t.Error("no event should be published on decline")
		}
	})

	t.Run("card_declined_on_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		provider.createSubErr = &billing.Error{Kind: billing.KindCardDeclined, Message: "Insufficient funds."}
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertAppError(t, err, "PAYMENT_DECLINED")
	})

	t.Run("provider_failure", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		provider.createSubErr = &billing.Error{Kind: billing.KindProvider, Message: "Something went wrong"}
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertAppError(t, err, "PROVIDER_ERROR")

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Message != "Something went wrong" {
			t.Errorf("expected provider message, got %q", appErr.Message)
		}
	})

	t.Run("publish_failure_does_not_fail_request", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestSubscriptionService(db, newFakeProvider(), &fakePublisher{err: errors.New("broker down")})
		user := testutil.CreateTestUser(t, db)

		_, err := svc.Subscribe(context.Background(), user.ID, "pm_card")
		testutil.AssertNoError(t, err)
	})

	t.Run("unknown_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := newTestSubscriptionService(db, newFakeProvider(), nil)

		_, err := svc.Subscribe(context.Background(), "01890a5d-ac96-774b-bcce-b302099a8057", "pm_card")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestCancelSubscription(t *testing.T) {
	t.Run("no_subscription", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)
		testutil.SetSubscription(t, db, user, nil, nil, models.SubscriptionPastDue)

		_, err := svc.Cancel(context.Background(), user.ID)
		testutil.AssertAppError(t, err, "NO_SUBSCRIPTION")

		stored := reloadUser(t, db, user.ID)
		if stored.SubscriptionStatus != models.SubscriptionPastDue {
			t.Errorf("status should be unchanged, got %s", stored.SubscriptionStatus)
		}
		if len(provider.calls) != 0 {
			t.Errorf("provider should not be called, got %v", provider.calls)
		}
	})

	t.Run("cancels", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		publisher := &fakePublisher{}
		svc := newTestSubscriptionService(db, provider, publisher)
		user := testutil.CreateTestUser(t, db)
		cus, sub := "cus_1", "sub_1"
		testutil.SetSubscription(t, db, user, &cus, &sub, models.SubscriptionActive)

		result, err := svc.Cancel(context.Background(), user.ID)
		testutil.AssertNoError(t, err)
		if result.Status != models.SubscriptionCanceled {
			t.Errorf("expected canceled result, got %s", result.Status)
		}

		stored := reloadUser(t, db, user.ID)
		if stored.SubscriptionStatus != models.SubscriptionCanceled {
			t.Errorf("expected canceled status, got %s", stored.SubscriptionStatus)
		}
		if !provider.called("CancelSubscription:sub_1") {
			t.Errorf("expected provider cancel, calls = %v", provider.calls)
		}
		if len(publisher.published) != 1 || publisher.published[0].key != events.SubscriptionCanceled {
			t.Errorf("expected one subscription.canceled event, got %+v", publisher.published)
		}

		subscribed, err := svc.IsSubscribed(user.ID)
		testutil.AssertNoError(t, err)
		if subscribed {
			t.Error("canceled user should not be subscribed")
		}
	})

	t.Run("provider_failure_keeps_status", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		provider := newFakeProvider()
		provider.cancelErr = &billing.Error{Kind: billing.KindInvalidRequest, Message: "No such subscription: 'sub_1'"}
		svc := newTestSubscriptionService(db, provider, nil)
		user := testutil.CreateTestUser(t, db)
		sub := "sub_1"
		testutil.SetSubscription(t, db, user, nil, &sub, models.SubscriptionActive)

		_, err := svc.Cancel(context.Background(), user.ID)
		testutil.AssertAppError(t, err, "PROVIDER_ERROR")

		stored := reloadUser(t, db, user.ID)
		if !stored.IsSubscribed() {
			t.Errorf("status should be unchanged, got %s", stored.SubscriptionStatus)
		}
	})
}

func TestIsSubscribed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newTestSubscriptionService(db, nil, nil)
	user := testutil.CreateTestUser(t, db)

	subscribed, err := svc.IsSubscribed(user.ID)
	testutil.AssertNoError(t, err)
	if subscribed {
		t.Error("new user should not be subscribed")
	}

	testutil.SetSubscription(t, db, user, nil, nil, models.SubscriptionActive)
	subscribed, err = svc.IsSubscribed(user.ID)
	testutil.AssertNoError(t, err)
	if !subscribed {
		t.Error("active user should be subscribed")
	}
}
