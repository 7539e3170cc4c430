package utils

import (
	"net/http"

	"caintamart/globals"
	"caintamart/models"
)

func GetUserIDFromRequest(r *http.Request) string {
	requestingUserID, ok := r.Context().Value(globals.UserIDKey).(string)
	if !ok || requestingUserID == "" {
		return ""
	}
	return requestingUserID
}

func IsAdmin(r *http.Request) bool {
	role, _ := r.Context().Value(globals.RoleKey).(string)
	return role == globals.RoleAdmin
}

// ActorFromRequest is the authenticated caller, or a zero Actor.
func ActorFromRequest(r *http.Request) models.Actor {
	ctx := r.Context()
	name, _ := ctx.Value(globals.NameKey).(string)
	email, _ := ctx.Value(globals.EmailKey).(string)
	return models.Actor{
		ID:    GetUserIDFromRequest(r),
		Name:  name,
		Email: email,
		Admin: IsAdmin(r),
	}
}
