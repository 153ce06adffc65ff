package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/paycasso/paycasso/internal/supabase"
)

func TestMemoryProviderSignUpAndSignIn(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()

	user, err := p.SignUp(ctx, SignUpInput{Email: "Jane@Paycasso.io", Password: "secret1"})
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" || user.Email != "jane@paycasso.io" {
		t.Fatalf("unexpected user %+v", user)
	}

	session, err := p.SignInWithPassword(ctx, "jane@paycasso.io", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	got, err := p.GetUser(ctx, session.AccessToken)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, got.ID)
	}
}

func TestMemoryProviderRejectsDuplicateEmail(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	if _, err := p.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	_, err := p.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "secret1"})
	rejected, ok := AsRejected(err)
	if !ok {
		t.Fatalf("expected rejection, got %v", err)
	}
	if rejected.Message != "User already registered" {
		t.Fatalf("unexpected message %q", rejected.Message)
	}
}

func TestMemoryProviderPasswordUpdateAndSignOut(t *testing.T) {
	p := NewMemoryProvider()
	ctx := context.Background()
	if _, err := p.SignUp(ctx, SignUpInput{Email: "a@b.com", Password: "secret1"}); err != nil {
		t.Fatalf("sign up: %v", err)
	}
	session, err := p.SignInWithPassword(ctx, "a@b.com", "secret1")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if err := p.UpdatePassword(ctx, session.AccessToken, "secret2"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := p.SignInWithPassword(ctx, "a@b.com", "secret1"); err == nil {
		t.Fatalf("expected old password to be rejected")
	}
	if _, err := p.SignInWithPassword(ctx, "a@b.com", "secret2"); err != nil {
		t.Fatalf("sign in with new password: %v", err)
	}
	if err := p.SignOut(ctx, session.AccessToken); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if _, err := p.GetUser(ctx, session.AccessToken); err == nil {
		t.Fatalf("expected revoked token to be rejected")
	}
}

func TestSupabaseProviderTranslatesErrors(t *testing.T) {
	status := http.StatusBadRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(`{"msg":"Signup requires a valid password"}`))
	}))
	defer srv.Close()

	client, err := supabase.New(supabase.Config{URL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	p := NewSupabaseProvider(client)

	_, err = p.SignUp(context.Background(), SignUpInput{Email: "a@b.com", Password: "x"})
	rejected, ok := AsRejected(err)
	if !ok || rejected.Message != "Signup requires a valid password" {
		t.Fatalf("expected provider rejection, got %v", err)
	}

	status = http.StatusBadGateway
	_, err = p.SignUp(context.Background(), SignUpInput{Email: "a@b.com", Password: "x"})
	if _, ok := AsRejected(err); ok {
		t.Fatalf("server errors must not be reported as rejections")
	}
}

func TestSupabaseProviderMissingUserID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"email":"a@b.com"}`))
	}))
	defer srv.Close()

	client, err := supabase.New(supabase.Config{URL: srv.URL, AnonKey: "anon"})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	if _, err := NewSupabaseProvider(client).SignUp(context.Background(), SignUpInput{Email: "a@b.com", Password: "secret1"}); err != ErrMissingUserID {
		t.Fatalf("expected ErrMissingUserID, got %v", err)
	}
}
