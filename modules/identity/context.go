package identity

import "context"

type sessionContextKey struct{}

// SetSessionToContext stores the verified session for downstream handlers.
func SetSessionToContext(ctx context.Context, session Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, session)
}

// GetSessionFromContext retrieves the verified session.
// The second return value is false if no session was stored.
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	session, ok := ctx.Value(sessionContextKey{}).(Session)
	return session, ok
}
