package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"equity/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plaintext password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	hashed := string(hash)

	user := &models.User{
		Email:              email,
		PasswordHash:       &hashed,
		SubscriptionStatus: models.SubscriptionInactive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAsset creates an asset in the given sector with value as both
// price and value and an amount of one.
func CreateTestAsset(t *testing.T, db *gorm.DB, userID, sector string, value float64) *models.Asset {
	t.Helper()

	asset := &models.Asset{
		UserID:               userID,
		SectorType:           sector,
		Name:                 fmt.Sprintf("Asset %d", nextID()),
		Price:                value,
		AcquisitionPrice:     value,
		Amount:               1,
		Value:                value,
		ProfitLoss:           0,
		ProfitLossPercentage: 0,
	}
	if err := db.Create(asset).Error; err != nil {
		t.Fatalf("failed to create test asset: %v", err)
	}
	return asset
}

// SetSubscription overwrites the user's billing columns.
func SetSubscription(t *testing.T, db *gorm.DB, user *models.User, customerID, subscriptionID *string, status models.SubscriptionStatus) {
	t.Helper()

	user.CustomerID = customerID
	user.SubscriptionID = subscriptionID
	user.SubscriptionStatus = status
	if err := db.Save(user).Error; err != nil {
		t.Fatalf("failed to update subscription: %v", err)
	}
}
