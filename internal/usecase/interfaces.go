package usecase

import "context"

// AuthUserInfo is the identity provider's view of a user: a verified subject
// identifier plus whatever profile data the provider holds. Handlers and
// usecases only ever see resolved identifiers, never raw tokens.
type AuthUserInfo struct {
	UID         string
	Email       string
	DisplayName string
}

type AuthClient interface {
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	SignInWithEmailPassword(email, password string) (string, error)
	GetUserInfo(ctx context.Context, uid string) (*AuthUserInfo, error)
}
