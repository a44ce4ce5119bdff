package cont

import (
	"ZapDesk/entity"
	"context"
)

type ctxKey int

const userKey ctxKey = iota

// PutUser stores the authenticated user in the request context.
func PutUser(ctx context.Context, user *entity.UserAuth) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// GetUser returns the authenticated user, or nil when the request
// passed through no auth middleware.
func GetUser(ctx context.Context) *entity.UserAuth {
	user, _ := ctx.Value(userKey).(*entity.UserAuth)
	return user
}
