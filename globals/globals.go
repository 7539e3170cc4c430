package globals

var (
	// JwtSecret signs and verifies access tokens. Set from config at startup.
	JwtSecret = []byte("change-me")
)

// Context keys
type ContextKey string

const RoleKey ContextKey = "role"
const UserIDKey ContextKey = "userId"
const NameKey ContextKey = "name"
const EmailKey ContextKey = "email"

const RoleAdmin = "admin"
const RoleCustomer = "customer"

// SetJWTSecret replaces the signing secret; empty values are ignored.
func SetJWTSecret(secret string) {
	if secret == "" {
		return
	}
	JwtSecret = []byte(secret)
}
