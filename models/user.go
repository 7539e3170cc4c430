package models

import "time"

// Code is a one-time numeric code with an expiry, stored on the user record.
type Code struct {
	Code      string    `json:"code" bson:"code"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

func (c *Code) Expired(now time.Time) bool {
	return c == nil || !now.Before(c.ExpiresAt)
}

// User is stored at users/{uid}. Credentials and one-time codes live in
// the same document but are only decoded by the auth package.
type User struct {
	UserID        string    `json:"userid" bson:"userid"`
	Email         string    `json:"email" bson:"email"`
	Name          string    `json:"name,omitempty" bson:"name,omitempty"`
	Role          string    `json:"role" bson:"role"`
	EmailVerified bool      `json:"email_verified" bson:"email_verified"`
	Profile       Profile   `json:"profile" bson:"profile"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
	LastLogin     time.Time `json:"last_login" bson:"last_login"`
}

// Profile is the identity block embedded in the user record. SubmittedAt is
// nil until the user submits, and is cleared again by a denial.
type Profile struct {
	FullName     string     `json:"fullName,omitempty" bson:"fullName,omitempty"`
	Birthday     string     `json:"birthday,omitempty" bson:"birthday,omitempty"`
	Phone        string     `json:"phone,omitempty" bson:"phone,omitempty"`
	Street       string     `json:"street,omitempty" bson:"street,omitempty"`
	Barangay     string     `json:"barangay,omitempty" bson:"barangay,omitempty"`
	City         string     `json:"city,omitempty" bson:"city,omitempty"`
	Province     string     `json:"province,omitempty" bson:"province,omitempty"`
	IDType       string     `json:"idType,omitempty" bson:"idType,omitempty"`
	IDURL        string     `json:"idUrl,omitempty" bson:"idUrl,omitempty"`
	SubmittedAt  *time.Time `json:"submittedAt" bson:"submittedAt"`
	Verified     bool       `json:"verified" bson:"verified"`
	VerifiedBy   string     `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	Denied       bool       `json:"denied" bson:"denied"`
	DenialReason string     `json:"denialReason,omitempty" bson:"denialReason,omitempty"`
	DeniedBy     string     `json:"deniedBy,omitempty" bson:"deniedBy,omitempty"`
	DeniedAt     *time.Time `json:"deniedAt,omitempty" bson:"deniedAt,omitempty"`
}

// Actor is whoever is performing an operation.
type Actor struct {
	ID    string
	Name  string
	Email string
	Admin bool
}

// Label is the identity stamped onto audit fields.
func (a Actor) Label() string {
	if a.Email != "" {
		return a.Email
	}
	if a.Name != "" {
		return a.Name
	}
	return a.ID
}
