package profile

import (
	"slices"
	"time"

	"caintamart/models"
)

// IDTypes are the government IDs accepted for verification.
var IDTypes = []string{
	"Passport",
	"Driver's License",
	"UMID",
	"PhilSys National ID",
	"SSS ID",
	"PRC ID",
	"Postal ID",
	"Voter's ID",
}

const (
	MinAge          = 18
	MinDenialReason = 10
	birthdayLayout  = "2006-01-02"
)

type Status string

const (
	StatusUnsubmitted Status = "unsubmitted"
	StatusPending     Status = "pending"
	StatusVerified    Status = "verified"
	StatusDenied      Status = "denied"
)

// StatusOf derives the verification state of p. A denied profile keeps
// showing its reason until the user submits again.
func StatusOf(p models.Profile) Status {
	switch {
	case p.Verified:
		return StatusVerified
	case p.SubmittedAt != nil:
		return StatusPending
	case p.Denied:
		return StatusDenied
	default:
		return StatusUnsubmitted
	}
}

func validIDType(t string) bool { return slices.Contains(IDTypes, t) }

// ageOn is the age in whole years of someone born on birth at now.
func ageOn(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		years--
	}
	return years
}
