// Package profile runs the ID verification workflow: users submit their
// identity and address, admins verify or deny.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"caintamart/docstore"
	"caintamart/models"
	"caintamart/utils"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrNotSubmitted = errors.New("profile has not been submitted for verification")
	ErrNoIDDocument = errors.New("upload a photo of your ID")
)

type Service struct {
	store docstore.Store
	now   func() time.Time
	newID func() string
}

func New(store docstore.Store) *Service {
	return &Service{store: store, now: time.Now, newID: utils.GetUUID}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func userPath(uid string) string { return docstore.Join("users", uid) }

func (s *Service) user(ctx context.Context, uid string) (models.User, error) {
	var u models.User
	if uid == "" {
		return u, ErrUserNotFound
	}
	if err := s.store.Read(ctx, userPath(uid), &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return u, ErrUserNotFound
		}
		return u, fmt.Errorf("profile: read user %s: %w", uid, err)
	}
	u.UserID = uid
	return u, nil
}

func (s *Service) saveProfile(ctx context.Context, uid string, p models.Profile) error {
	err := s.store.Merge(ctx, userPath(uid), map[string]any{
		"profile":    p,
		"updated_at": s.now(),
	})
	if err != nil {
		return fmt.Errorf("profile: save %s: %w", uid, err)
	}
	return nil
}

// Get returns uid's profile.
func (s *Service) Get(ctx context.Context, uid string) (models.Profile, error) {
	u, err := s.user(ctx, uid)
	return u.Profile, err
}

// Verify marks a submitted profile as verified.
func (s *Service) Verify(ctx context.Context, actor models.Actor, uid string) (models.Profile, error) {
	if !actor.Admin {
		return models.Profile{}, models.ErrForbidden
	}
	u, err := s.user(ctx, uid)
	if err != nil {
		return u.Profile, err
	}
	p := u.Profile
	if p.SubmittedAt == nil {
		return p, ErrNotSubmitted
	}
	now := s.now()
	p.Verified = true
	p.VerifiedBy = actor.Label()
	p.VerifiedAt = &now
	p.Denied = false
	p.DenialReason = ""
	if err := s.saveProfile(ctx, uid, p); err != nil {
		return p, err
	}
	log.Printf("[profile] %s verified by %s", uid, actor.Label())
	return p, nil
}

// Deny rejects a profile with reason. The submission is cleared so the
// user can resubmit, and the denial is recorded in denialLogs.
func (s *Service) Deny(ctx context.Context, actor models.Actor, uid, reason string) (models.Profile, error) {
	if !actor.Admin {
		return models.Profile{}, models.ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < MinDenialReason {
		return models.Profile{}, models.Invalid("reason", fmt.Sprintf("must be at least %d characters", MinDenialReason))
	}
	u, err := s.user(ctx, uid)
	if err != nil {
		return u.Profile, err
	}
	before := u.Profile
	now := s.now()

	p := before
	p.Verified = false
	p.VerifiedBy = ""
	p.VerifiedAt = nil
	p.Denied = true
	p.DenialReason = reason
	p.DeniedBy = actor.Label()
	p.DeniedAt = &now
	p.SubmittedAt = nil
	if err := s.saveProfile(ctx, uid, p); err != nil {
		return p, err
	}

	entry := models.DenialLog{
		ID:       s.newID(),
		UserID:   uid,
		Reason:   reason,
		DeniedBy: actor.Label(),
		DeniedAt: now,
		Profile:  before,
	}
	if err := s.store.Write(ctx, docstore.Join("denialLogs", entry.ID), entry); err != nil {
		return p, fmt.Errorf("profile: write denial log for %s: %w", uid, err)
	}
	log.Printf("[profile] %s denied by %s: %s", uid, actor.Label(), reason)
	return p, nil
}

// Pending is one row of the admin verification queue.
type Pending struct {
	UserID  string         `json:"userId"`
	Email   string         `json:"email"`
	Profile models.Profile `json:"profile"`
}

// Pending lists profiles awaiting review, oldest submission first.
func (s *Service) Pending(ctx context.Context, actor models.Actor) ([]Pending, error) {
	if !actor.Admin {
		return nil, models.ErrForbidden
	}
	recs, err := s.store.List(ctx, "users")
	if err != nil {
		return nil, fmt.Errorf("profile: list users: %w", err)
	}
	out := []Pending{}
	for _, rec := range recs {
		var u models.User
		if err := rec.Decode(&u); err != nil {
			log.Printf("[profile] skip user %s: %v", rec.ID, err)
			continue
		}
		if StatusOf(u.Profile) != StatusPending {
			continue
		}
		out = append(out, Pending{UserID: rec.ID, Email: u.Email, Profile: u.Profile})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Profile.SubmittedAt.Before(*out[j].Profile.SubmittedAt)
	})
	return out, nil
}
