package auth

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"caintamart/docstore"
	"caintamart/globals"
	"caintamart/mailer"
	"caintamart/middleware"
	"caintamart/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memCounter is an in-process Counter; windows are not enforced.
type memCounter struct {
	mu sync.Mutex
	n  map[string]int64
}

func (c *memCounter) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.n[key]
	return strconv.FormatInt(v, 10), ok, nil
}

func (c *memCounter) Incr(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[key]++
	return c.n[key], nil
}

func (c *memCounter) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.n, k)
	}
	return nil
}

var testNow = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc   *Service
	store *docstore.Memory
	mail  *mailer.LogSender
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: docstore.NewMemory(), mail: &mailer.LogSender{}, clock: testNow}
	f.svc = New(f.store, &memCounter{n: map[string]int64{}}, f.mail, Options{
		AdminEmails:    []string{"owner@caintamart.ph"},
		ServiceID:      "svc",
		VerifyTemplate: "signup_code",
		ResetTemplate:  "reset_code",
	})
	f.svc.SetClock(func() time.Time { return f.clock })
	codes := 0
	f.svc.newCode = func() string {
		codes++
		return []string{"111111", "222222", "333333"}[(codes-1)%3]
	}
	return f
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.svc.Register(ctx, " Maria@Mail.PH ", "secret1", "Maria")
	require.NoError(t, err)
	assert.Equal(t, "maria@mail.ph", u.Email)
	assert.Equal(t, globals.RoleCustomer, u.Role)
	assert.False(t, u.EmailVerified)

	sent := f.mail.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "signup_code", sent[0].TemplateID)
	assert.Equal(t, "111111", sent[0].Params["code"])
	assert.Equal(t, "15", sent[0].Params["minutes"])

	_, err = f.svc.Register(ctx, "maria@mail.ph", "another1", "")
	assert.ErrorIs(t, err, ErrEmailInUse)
	_, err = f.svc.Register(ctx, "not-an-email", "secret1", "")
	assert.ErrorIs(t, err, ErrInvalidEmail)
	_, err = f.svc.Register(ctx, "new@mail.ph", "12345", "")
	assert.ErrorIs(t, err, ErrWeakPassword)

	owner, err := f.svc.Register(ctx, "owner@caintamart.ph", "secret1", "Owner")
	require.NoError(t, err)
	assert.Equal(t, globals.RoleAdmin, owner.Role)

	var pub models.User
	require.NoError(t, f.store.Read(ctx, userPath(u.UserID), &pub))
	assert.Equal(t, u.Email, pub.Email)
}

func TestVerifyEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.svc.Register(ctx, "maria@mail.ph", "secret1", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "maria@mail.ph", "999999"), ErrInvalidCode)

	f.clock = testNow.Add(CodeTTL)
	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "maria@mail.ph", "111111"), ErrExpiredCode)

	f.clock = testNow.Add(CodeTTL - time.Second)
	require.NoError(t, f.svc.VerifyEmail(ctx, "maria@mail.ph", "111111"))
	me, err := f.svc.Me(ctx, u.UserID)
	require.NoError(t, err)
	assert.True(t, me.EmailVerified)

	assert.ErrorIs(t, f.svc.VerifyEmail(ctx, "nobody@mail.ph", "111111"), ErrUserNotFound)
}

func TestLoginIssuesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u, err := f.svc.Register(ctx, "maria@mail.ph", "secret1", "Maria")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "ghost@mail.ph", "secret1")
	assert.ErrorIs(t, err, ErrUserNotFound)

	// Tokens are checked against the wall clock, so issue this one now.
	f.clock = time.Now().Truncate(time.Second)
	sess, err := f.svc.Login(ctx, "MARIA@mail.ph", "secret1")
	require.NoError(t, err)
	assert.Equal(t, u.UserID, sess.User.UserID)

	claims, err := middleware.ValidateJWT("Bearer " + sess.Token)
	require.NoError(t, err)
	assert.Equal(t, u.UserID, claims.UserID)
	assert.Equal(t, globals.RoleCustomer, claims.Role)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, f.clock.Add(TokenTTL), claims.ExpiresAt.Time, time.Second)
}

func TestLoginThrottle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "maria@mail.ph", "secret1", "")
	require.NoError(t, err)

	for i := 0; i < MaxFailedLogins; i++ {
		_, err := f.svc.Login(ctx, "maria@mail.ph", "wrong")
		assert.ErrorIs(t, err, ErrWrongPassword)
	}
	_, err = f.svc.Login(ctx, "maria@mail.ph", "secret1")
	assert.ErrorIs(t, err, ErrTooManyRequests)

	// A password reset lifts the throttle.
	require.NoError(t, f.svc.RequestPasswordReset(ctx, "maria@mail.ph"))
	require.NoError(t, f.svc.ResetPassword(ctx, "maria@mail.ph", "222222", "newsecret"))
	_, err = f.svc.Login(ctx, "maria@mail.ph", "newsecret")
	assert.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, "maria@mail.ph", "secret1", "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "maria@mail.ph", "111111", "newsecret"), ErrInvalidCode)

	require.NoError(t, f.svc.RequestPasswordReset(ctx, "maria@mail.ph"))
	sent := f.mail.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "reset_code", sent[1].TemplateID)

	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "maria@mail.ph", "222222", "short"), ErrWeakPassword)
	require.NoError(t, f.svc.ResetPassword(ctx, "maria@mail.ph", "222222", "newsecret"))
	assert.ErrorIs(t, f.svc.ResetPassword(ctx, "maria@mail.ph", "222222", "again123"), ErrInvalidCode, "codes are single use")

	_, err = f.svc.Login(ctx, "maria@mail.ph", "secret1")
	assert.ErrorIs(t, err, ErrWrongPassword)
	_, err = f.svc.Login(ctx, "maria@mail.ph", "newsecret")
	assert.NoError(t, err)
}
