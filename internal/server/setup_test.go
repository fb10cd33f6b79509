package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"equity/internal/billing"
	"equity/internal/config"
	"equity/internal/logger"
	"equity/internal/middleware"
	"equity/internal/services"
	"equity/internal/testutil"
	"equity/internal/tokenstore"
	"equity/internal/validator"
)

const metricsKey = "metrics-key"

// testApp holds the full application stack.
type testApp struct {
	DB       *gorm.DB
	Router   *gin.Engine
	Issuer   *middleware.TokenIssuer
	Provider *stubProvider
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

func testConfig() *config.Config {
	return &config.Config{
		Env:           "test",
		JWT:           config.JWTConfig{Secret: "router-test-secret", ExpiresIn: time.Hour, BlacklistEnabled: true},
		Stripe:        config.StripeConfig{PriceID: "price_123"},
		RateLimit:     config.RateLimitConfig{AuthPerSecond: 1000, AuthBurst: 1000},
		MetricsAPIKey: metricsKey,
		CORSOrigins:   []string{"*"},
	}
}

// setupApp creates a full application stack backed by an isolated in-memory
// SQLite database and a stub billing provider.
func setupApp(t *testing.T, mutate ...func(*config.Config)) *testApp {
	t.Helper()

	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}

	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	store, err := tokenstore.Open(context.Background(), cfg.JWT, cfg.Redis, db)
	if err != nil {
		t.Fatalf("failed to open token store: %v", err)
	}
	issuer := middleware.NewTokenIssuer(cfg.JWT, store)
	provider := &stubProvider{}

	guard := services.NewOwnershipGuard(db)
	router := NewRouter(Deps{
		Config:        cfg,
		Issuer:        issuer,
		Health:        sqlPinger{db},
		Users:         services.NewUserService(db),
		Assets:        services.NewAssetService(db, guard),
		Subscriptions: services.NewSubscriptionService(db, guard, provider, cfg.Stripe.PriceID, nil),
		Audit:         services.NewAuditService(db),
	})

	return &testApp{DB: db, Router: router, Issuer: issuer, Provider: provider}
}

type sqlPinger struct{ db *gorm.DB }

func (p sqlPinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// stubProvider is a billing provider that accepts everything unless told
// to decline.
type stubProvider struct {
	declineAttach bool
	customers     int
}

func (p *stubProvider) ValidatePrice(context.Context, string) error { return nil }

func (p *stubProvider) CreateCustomer(context.Context, string) (string, error) {
	p.customers++
	return fmt.Sprintf("cus_%d", p.customers), nil
}

func (p *stubProvider) AttachPaymentMethod(context.Context, string, string) error {
	if p.declineAttach {
		return &billing.Error{Kind: billing.KindCardDeclined, Message: "Your card was declined."}
	}
	return nil
}

func (p *stubProvider) SetDefaultPaymentMethod(context.Context, string, string) error { return nil }

func (p *stubProvider) CreateSubscription(_ context.Context, customerID, _ string) (*billing.Subscription, error) {
	return &billing.Subscription{ID: "sub_" + customerID, Status: "active"}, nil
}

func (p *stubProvider) CancelSubscription(_ context.Context, id string) (*billing.Subscription, error) {
	return &billing.Subscription{ID: id, Status: "canceled"}, nil
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the token.
func (app *testApp) registerUser(t *testing.T, email, password string) string {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["token"].(string)
}

// loginUser logs in and returns the response body.
func (app *testApp) loginUser(t *testing.T, email, password string) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)
}

// createAsset creates an asset and returns its JSON form.
func (app *testApp) createAsset(t *testing.T, token, sector string, value float64) map[string]interface{} {
	t.Helper()
	body := fmt.Sprintf(`{"sectorType":%q,"name":"Holding","price":%v,"acquisitionPrice":%v,"amount":1,"value":%v,"profitLoss":0,"profitLossPercentage":0}`,
		sector, value, value, value)
	rec := app.request("POST", "/api/equity/assets", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create asset failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["asset"].(map[string]interface{})
}
