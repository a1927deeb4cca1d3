package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SubscriptionStatus is the billing state of a profile.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionInactive SubscriptionStatus = "inactive"
	SubscriptionTrial    SubscriptionStatus = "trial"
)

// Plan is the subscription tier of a profile.
type Plan string

const (
	PlanBasic      Plan = "basic"
	PlanPremium    Plan = "premium"
	PlanEnterprise Plan = "enterprise"
)

// User is the account and profile of a vehicle owner.
type User struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email              string             `bson:"email" json:"email"`
	PasswordHash       string             `bson:"password_hash" json:"-"`
	FullName           string             `bson:"full_name" json:"full_name"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	SubscriptionStatus SubscriptionStatus `bson:"subscription_status" json:"subscription_status"`
	Plan               Plan               `bson:"subscription_plan" json:"subscription_plan"`
	IsActive           bool               `bson:"is_active" json:"is_active"`
	LastLogin          *time.Time         `bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// SignInRequest carries email and password credentials.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest represents a new account.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// SessionResponse is returned after sign-in, registration and session lookups.
type SessionResponse struct {
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

// SessionEvent is posted by the client whenever its auth state changes.
type SessionEvent struct {
	Event   string `json:"event"`
	Session *struct {
		AccessToken string `json:"access_token"`
	} `json:"session"`
}

const (
	SessionSignedIn       = "SIGNED_IN"
	SessionTokenRefreshed = "TOKEN_REFRESHED"
	SessionSignedOut      = "SIGNED_OUT"
)

// ProfileUpdate holds the editable profile fields. Empty fields are left unchanged.
type ProfileUpdate struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// PasswordChange is the body of a password change.
type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Claims represents the session token claims.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Exp    int64  `json:"exp"`
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidSubscription checks a stored subscription status.
func IsValidSubscription(s SubscriptionStatus) bool {
	switch s {
	case SubscriptionActive, SubscriptionInactive, SubscriptionTrial:
		return true
	default:
		return false
	}
}

// IsValidPlan checks a stored plan.
func IsValidPlan(p Plan) bool {
	switch p {
	case PlanBasic, PlanPremium, PlanEnterprise:
		return true
	default:
		return false
	}
}
