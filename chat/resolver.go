package chat

import (
	"crypto/rand"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	GuestCookie = "cm_guest_chat"
	guestPrefix = "guest_"
	base36      = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Session is per-visitor storage that lives as long as the browser session.
type Session interface {
	Get(key string) string
	Set(key, value string)
}

// ResolveThreadID returns userID when the visitor is signed in, otherwise
// the guest id kept in session, creating one on first use.
func ResolveThreadID(userID string, session Session, now time.Time) string {
	if userID != "" {
		return userID
	}
	if id := session.Get(GuestCookie); IsGuestID(id) {
		return id
	}
	id := NewGuestID(now)
	session.Set(GuestCookie, id)
	return id
}

// NewGuestID builds "guest_<millis base36>_<6 random base36 chars>".
func NewGuestID(now time.Time) string {
	var b strings.Builder
	b.WriteString(guestPrefix)
	b.WriteString(strconv.FormatInt(now.UnixMilli(), 36))
	b.WriteByte('_')
	max := big.NewInt(int64(len(base36)))
	for i := 0; i < 6; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			n = big.NewInt(now.UnixNano() % int64(len(base36)))
		}
		b.WriteByte(base36[n.Int64()])
	}
	return b.String()
}

func IsGuestID(id string) bool {
	if !strings.HasPrefix(id, guestPrefix) {
		return false
	}
	rest := strings.TrimPrefix(id, guestPrefix)
	stamp, suffix, ok := strings.Cut(rest, "_")
	if !ok || stamp == "" || len(suffix) != 6 {
		return false
	}
	for _, r := range stamp + suffix {
		if !strings.ContainsRune(base36, r) {
			return false
		}
	}
	return true
}

// CookieSession keeps the guest id in a session cookie.
type CookieSession struct {
	W http.ResponseWriter
	R *http.Request
}

func (s CookieSession) Get(key string) string {
	c, err := s.R.Cookie(key)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s CookieSession) Set(key, value string) {
	http.SetCookie(s.W, &http.Cookie{
		Name:     key,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   s.R.TLS != nil,
	})
}
