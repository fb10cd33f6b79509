package models

// SubscriptionStatus mirrors the billing provider's subscription status.
type SubscriptionStatus string

const (
	SubscriptionInactive          SubscriptionStatus = "inactive"
	SubscriptionActive            SubscriptionStatus = "active"
	SubscriptionPastDue           SubscriptionStatus = "past_due"
	SubscriptionCanceled          SubscriptionStatus = "canceled"
	SubscriptionIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionTrialing          SubscriptionStatus = "trialing"
	SubscriptionUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionPaused            SubscriptionStatus = "paused"
)

// User is an account holder. Billing columns stay NULL until the user
// first subscribes.
type User struct {
	Base
	Email              string             `gorm:"uniqueIndex;not null;size:120" json:"email"`
	PasswordHash       *string            `gorm:"size:256" json:"-"`
	CustomerID         *string            `gorm:"size:120" json:"-"`
	SubscriptionID     *string            `gorm:"size:120" json:"-"`
	SubscriptionStatus SubscriptionStatus `gorm:"size:50;not null;default:inactive" json:"subscription_status"`
	Assets             []Asset            `gorm:"foreignKey:UserID" json:"assets,omitempty"`
}

// IsSubscribed reports whether the locally cached status is active.
func (u *User) IsSubscribed() bool {
	return u.SubscriptionStatus == SubscriptionActive
}
