package auth

import "context"

type contextKey struct{}

// AuthContext describes the caller of an authenticated request.
type AuthContext struct {
	UserID  int64
	TokenID string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

// WithUserID is shorthand for WithAuth when only the user is known.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return WithAuth(ctx, AuthContext{UserID: userID})
}

// UserID returns the authenticated user, or false when the request carries none.
func UserID(ctx context.Context) (int64, bool) {
	ac, ok := FromContext(ctx)
	if !ok || ac.UserID == 0 {
		return 0, false
	}
	return ac.UserID, true
}
