package supabase

import (
	"context"
	"net/http"
	"net/url"
)

// User represents a Supabase auth user.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Session is returned by password sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// SignUp registers a credential. Depending on the project's email confirmation
// setting GoTrue answers with the bare user or with a session wrapping it.
func (c *Client) SignUp(ctx context.Context, email, password, redirectTo string) (*User, error) {
	var out struct {
		User
		Wrapped *User `json:"user"`
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		query:  redirectQuery(redirectTo),
		apiKey: c.anonKey,
		body:   map[string]string{"email": email, "password": password},
	}, &out)
	if err != nil {
		return nil, err
	}
	if out.Wrapped != nil && out.Wrapped.ID != "" {
		return out.Wrapped, nil
	}
	return &out.User, nil
}

// SignInWithPassword exchanges an email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  "grant_type=password",
		apiKey: c.anonKey,
		body:   map[string]string{"email": email, "password": password},
	}, &session)
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// ResetPasswordForEmail asks GoTrue to mail a recovery link pointing at redirectTo.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		query:  redirectQuery(redirectTo),
		apiKey: c.anonKey,
		body:   map[string]string{"email": email},
	}, nil)
}

// UpdatePassword sets a new password for the user owning accessToken.
func (c *Client) UpdatePassword(ctx context.Context, accessToken, password string) error {
	return c.do(ctx, request{
		method: http.MethodPut,
		path:   "/auth/v1/user",
		apiKey: c.anonKey,
		bearer: accessToken,
		body:   map[string]string{"password": password},
	}, nil)
}

// SignOut revokes the refresh tokens of the session owning accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		apiKey: c.anonKey,
		bearer: accessToken,
	}, nil)
}

// GetUser resolves an access token to its user.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		apiKey: c.anonKey,
		bearer: accessToken,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func redirectQuery(redirectTo string) string {
	if redirectTo == "" {
		return ""
	}
	return url.Values{"redirect_to": {redirectTo}}.Encode()
}
