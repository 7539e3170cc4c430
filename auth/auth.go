// Package auth manages accounts: registration with an emailed
// verification code, login with a throttle on failures, and password
// reset.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"caintamart/docstore"
	"caintamart/globals"
	"caintamart/mailer"
	"caintamart/middleware"
	"caintamart/models"
	"caintamart/utils"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	CodeLength        = 6
	CodeTTL           = 15 * time.Minute
	MaxFailedLogins   = 5
	FailureWindow     = 15 * time.Minute
	TokenTTL          = 12 * time.Hour
)

// Counter is the throttle store, satisfied by rdx.Cache.
type Counter interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

type Options struct {
	AdminEmails    []string
	ServiceID      string
	VerifyTemplate string
	ResetTemplate  string
}

// account is the full user document including credentials.
type account struct {
	models.User      `bson:",inline"`
	PasswordHash     string       `json:"password_hash" bson:"password_hash"`
	VerificationCode *models.Code `json:"verification_code,omitempty" bson:"verification_code,omitempty"`
	ResetCode        *models.Code `json:"reset_code,omitempty" bson:"reset_code,omitempty"`
}

type emailIndex struct {
	UserID string `json:"userId" bson:"userId"`
}

type Service struct {
	store    docstore.Store
	throttle Counter
	mail     mailer.Sender
	opts     Options
	now      func() time.Time
	newID    func() string
	newCode  func() string
}

func New(store docstore.Store, throttle Counter, mail mailer.Sender, opts Options) *Service {
	return &Service{
		store:    store,
		throttle: throttle,
		mail:     mail,
		opts:     opts,
		now:      time.Now,
		newID:    utils.GetUUID,
		newCode:  func() string { return utils.GenerateRandomDigitString(CodeLength) },
	}
}

// SetClock replaces the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func userPath(uid string) string    { return docstore.Join("users", uid) }
func emailPath(email string) string { return docstore.Join("userEmails", email) }
func failKey(email string) string   { return "login:fail:" + email }

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || strings.Contains(email, "/") {
		return "", ErrInvalidEmail
	}
	return email, nil
}

func (s *Service) lookup(ctx context.Context, email string) (account, error) {
	var acc account
	var idx emailIndex
	if err := s.store.Read(ctx, emailPath(email), &idx); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return acc, ErrUserNotFound
		}
		return acc, fmt.Errorf("auth: read email index: %w", err)
	}
	if err := s.store.Read(ctx, userPath(idx.UserID), &acc); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return acc, ErrUserNotFound
		}
		return acc, fmt.Errorf("auth: read user %s: %w", idx.UserID, err)
	}
	acc.UserID = idx.UserID
	return acc, nil
}

func (s *Service) issueCode() *models.Code {
	return &models.Code{Code: s.newCode(), ExpiresAt: s.now().Add(CodeTTL)}
}

func (s *Service) sendCode(ctx context.Context, template string, acc account, code string) {
	_, err := s.mail.SendTemplateEmail(ctx, s.opts.ServiceID, template, map[string]string{
		"to_email": acc.Email,
		"to_name":  acc.Name,
		"code":     code,
		"minutes":  strconv.Itoa(int(CodeTTL / time.Minute)),
	})
	if err != nil {
		log.Printf("[auth] send %s to %s: %v", template, acc.Email, err)
	}
}

func checkCode(c *models.Code, given string, now time.Time) error {
	if c == nil || strings.TrimSpace(given) != c.Code {
		return ErrInvalidCode
	}
	if c.Expired(now) {
		return ErrExpiredCode
	}
	return nil
}

// Register creates an account and emails a verification code.
func (s *Service) Register(ctx context.Context, email, password, name string) (models.User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return models.User{}, err
	}
	if len(password) < MinPasswordLength {
		return models.User{}, ErrWeakPassword
	}
	if _, err := s.lookup(ctx, email); err == nil {
		return models.User{}, ErrEmailInUse
	} else if !errors.Is(err, ErrUserNotFound) {
		return models.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("auth: hash password: %w", err)
	}
	now := s.now()
	role := globals.RoleCustomer
	if slices.Contains(s.opts.AdminEmails, email) {
		role = globals.RoleAdmin
	}
	acc := account{
		User: models.User{
			UserID:    s.newID(),
			Email:     email,
			Name:      strings.TrimSpace(name),
			Role:      role,
			CreatedAt: now,
			UpdatedAt: now,
		},
		PasswordHash:     string(hash),
		VerificationCode: s.issueCode(),
	}
	if err := s.store.Write(ctx, userPath(acc.UserID), acc); err != nil {
		return models.User{}, fmt.Errorf("auth: write user: %w", err)
	}
	if err := s.store.Write(ctx, emailPath(email), emailIndex{UserID: acc.UserID}); err != nil {
		return models.User{}, fmt.Errorf("auth: write email index: %w", err)
	}
	log.Printf("[auth] registered %s as %s", email, role)
	s.sendCode(ctx, s.opts.VerifyTemplate, acc, acc.VerificationCode.Code)
	return acc.User, nil
}

// VerifyEmail consumes the signup code.
func (s *Service) VerifyEmail(ctx context.Context, email, code string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if acc.EmailVerified {
		return nil
	}
	if err := checkCode(acc.VerificationCode, code, s.now()); err != nil {
		return err
	}
	return s.store.Merge(ctx, userPath(acc.UserID), map[string]any{
		"email_verified":    true,
		"verification_code": nil,
		"updated_at":        s.now(),
	})
}

// Session is a successful login.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login checks credentials. After MaxFailedLogins wrong passwords within
// FailureWindow every attempt for that email is refused until the window
// passes.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return Session{}, err
	}
	if s.throttled(ctx, email) {
		return Session{}, ErrTooManyRequests
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		if _, err := s.throttle.Incr(ctx, failKey(email), FailureWindow); err != nil {
			log.Printf("[auth] count failed login for %s: %v", email, err)
		}
		return Session{}, ErrWrongPassword
	}
	if err := s.throttle.Del(ctx, failKey(email)); err != nil {
		log.Printf("[auth] reset failed logins for %s: %v", email, err)
	}

	now := s.now()
	token, err := middleware.NewToken(acc.UserID, acc.Email, acc.Name, acc.Role, now, TokenTTL)
	if err != nil {
		return Session{}, fmt.Errorf("auth: sign token: %w", err)
	}
	if err := s.store.Merge(ctx, userPath(acc.UserID), map[string]any{"last_login": now}); err != nil {
		log.Printf("[auth] record login for %s: %v", acc.UserID, err)
	}
	acc.LastLogin = now
	return Session{Token: token, User: acc.User}, nil
}

func (s *Service) throttled(ctx context.Context, email string) bool {
	v, ok, err := s.throttle.Get(ctx, failKey(email))
	if err != nil {
		log.Printf("[auth] read failed logins for %s: %v", email, err)
		return false
	}
	if !ok {
		return false
	}
	n, _ := strconv.Atoi(v)
	return n >= MaxFailedLogins
}

// RequestPasswordReset emails a reset code.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	code := s.issueCode()
	err = s.store.Merge(ctx, userPath(acc.UserID), map[string]any{
		"reset_code": code,
		"updated_at": s.now(),
	})
	if err != nil {
		return fmt.Errorf("auth: store reset code: %w", err)
	}
	s.sendCode(ctx, s.opts.ResetTemplate, acc, code.Code)
	return nil
}

// ResetPassword consumes a reset code and sets a new password. It also
// clears the failed-login throttle.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if len(newPassword) < MinPasswordLength {
		return ErrWeakPassword
	}
	acc, err := s.lookup(ctx, email)
	if err != nil {
		return err
	}
	if err := checkCode(acc.ResetCode, code, s.now()); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("auth: hash password: %w", err)
	}
	err = s.store.Merge(ctx, userPath(acc.UserID), map[string]any{
		"password_hash": string(hash),
		"reset_code":    nil,
		"updated_at":    s.now(),
	})
	if err != nil {
		return fmt.Errorf("auth: store password: %w", err)
	}
	if err := s.throttle.Del(ctx, failKey(email)); err != nil {
		log.Printf("[auth] reset failed logins for %s: %v", email, err)
	}
	return nil
}

// Me returns the public user record for uid.
func (s *Service) Me(ctx context.Context, uid string) (models.User, error) {
	var u models.User
	if err := s.store.Read(ctx, userPath(uid), &u); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return u, ErrUserNotFound
		}
		return u, fmt.Errorf("auth: read user %s: %w", uid, err)
	}
	u.UserID = uid
	return u, nil
}
