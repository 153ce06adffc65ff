package identity

import (
	"context"
	"errors"
	"net/http"

	"github.com/paycasso/paycasso/internal/supabase"
)

// SupabaseProvider implements Provider against Supabase GoTrue.
type SupabaseProvider struct {
	client *supabase.Client
}

// NewSupabaseProvider wraps a Supabase client.
func NewSupabaseProvider(client *supabase.Client) *SupabaseProvider {
	return &SupabaseProvider{client: client}
}

// SignUp registers the credential and returns the new auth user.
func (p *SupabaseProvider) SignUp(ctx context.Context, input SignUpInput) (User, error) {
	user, err := p.client.SignUp(ctx, input.Email, input.Password, input.RedirectTo)
	if err != nil {
		return User{}, translate(err)
	}
	if user == nil || user.ID == "" {
		return User{}, ErrMissingUserID
	}
	return User{ID: user.ID, Email: user.Email}, nil
}

// SignInWithPassword exchanges credentials for a session.
func (p *SupabaseProvider) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	session, err := p.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Session{}, translate(err)
	}
	out := Session{
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		ExpiresIn:    session.ExpiresIn,
	}
	if session.User != nil {
		out.User = User{ID: session.User.ID, Email: session.User.Email}
	}
	return out, nil
}

// ResetPasswordForEmail sends the recovery email.
func (p *SupabaseProvider) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return translate(p.client.ResetPasswordForEmail(ctx, email, redirectTo))
}

// UpdatePassword changes the password of the session's user.
func (p *SupabaseProvider) UpdatePassword(ctx context.Context, accessToken, password string) error {
	return translate(p.client.UpdatePassword(ctx, accessToken, password))
}

// SignOut ends the session.
func (p *SupabaseProvider) SignOut(ctx context.Context, accessToken string) error {
	return translate(p.client.SignOut(ctx, accessToken))
}

// GetUser resolves an access token.
func (p *SupabaseProvider) GetUser(ctx context.Context, accessToken string) (User, error) {
	user, err := p.client.GetUser(ctx, accessToken)
	if err != nil {
		return User{}, translate(err)
	}
	if user.ID == "" {
		return User{}, ErrMissingUserID
	}
	return User{ID: user.ID, Email: user.Email}, nil
}

// Client errors (4xx) are the provider speaking; 5xx and transport failures
// stay as they are.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
		return &RejectedError{Status: apiErr.Status, Code: apiErr.Code, Message: apiErr.Message}
	}
	return err
}
