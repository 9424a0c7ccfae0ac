package models

import "time"

// Subscription statuses
const (
	SubscriptionNone     = "none"
	SubscriptionTrial    = "trial"
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionExpired  = "expired"
)

// Roles carried in access tokens
const (
	RoleParent = "parent"
	RoleAdmin  = "admin"
)

// User represents a parent account. Subscription fields are kept in sync by
// the billing process.
type User struct {
	ID                    int64      `json:"id"`
	Email                 string     `json:"email"`
	Name                  string     `json:"name"`
	Role                  string     `json:"role"`
	SubscriptionStatus    string     `json:"subscriptionStatus"`
	SubscriptionExpiresAt *time.Time `json:"subscriptionExpiresAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// IsPremium reports whether the user has an active or trial subscription at now
func (u *User) IsPremium(now time.Time) bool {
	if u == nil {
		return false
	}
	if u.SubscriptionStatus != SubscriptionActive && u.SubscriptionStatus != SubscriptionTrial {
		return false
	}
	return u.SubscriptionExpiresAt == nil || u.SubscriptionExpiresAt.After(now)
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
