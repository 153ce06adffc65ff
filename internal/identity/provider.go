package identity

import (
	"context"
	"errors"
)

// ErrMissingUserID is returned when the provider accepted a sign-up but the
// response carried no user id.
var ErrMissingUserID = errors.New("identity: provider returned no user id")

// RejectedError is a refusal reported by the auth provider itself, such as an
// already registered email or a weak password. Message is safe to show users.
type RejectedError struct {
	Status  int
	Code    string
	Message string
}

func (e *RejectedError) Error() string {
	return "identity: rejected: " + e.Message
}

// Provider is the auth backend used by the account flows.
type Provider interface {
	SignUp(ctx context.Context, input SignUpInput) (User, error)
	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	UpdatePassword(ctx context.Context, accessToken, password string) error
	SignOut(ctx context.Context, accessToken string) error
	GetUser(ctx context.Context, accessToken string) (User, error)
}

// AsRejected reports whether err carries a provider refusal.
func AsRejected(err error) (*RejectedError, bool) {
	var rejected *RejectedError
	if errors.As(err, &rejected) {
		return rejected, true
	}
	return nil, false
}
