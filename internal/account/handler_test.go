package account

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func setupAccountApp(t *testing.T) (*fiber.App, *harness) {
	t.Helper()
	h := newHarness(t, testConfig())
	handler := NewHandler(h.svc, false)
	app := fiber.New()
	app.Post("/sign-up", handler.SignUp)
	app.Post("/sign-in", handler.SignIn)
	app.Post("/sign-out", handler.SignOut)
	return app, h
}

func TestHandlerJSONFailureStatus(t *testing.T) {
	app, h := setupAccountApp(t)

	req := httptest.NewRequest(fiber.MethodPost, "/sign-up", strings.NewReader(`{"email":"a@b.com","password":"secret1","full-name":"Jo"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Full name must be between 3 and 255 characters" {
		t.Fatalf("unexpected body %v", body)
	}
	if h.externalCalls() != 0 {
		t.Fatalf("expected zero external calls")
	}
}

func TestHandlerFormPostRedirects(t *testing.T) {
	app, _ := setupAccountApp(t)

	form := url.Values{"email": {"a@b.com"}, "password": {"secret1"}, "full-name": {"Jane Doe"}, "company-name": {"Acme Ltd"}}
	req := httptest.NewRequest(fiber.MethodPost, "/sign-up", strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	req.Header.Set(fiber.HeaderAccept, "text/html")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusSeeOther || resp.Header.Get(fiber.HeaderLocation) != "/dashboard" {
		t.Fatalf("expected 303 to /dashboard, got %d %q", resp.StatusCode, resp.Header.Get(fiber.HeaderLocation))
	}

	signIn := url.Values{"email": {"a@b.com"}, "password": {"nope-nope"}}
	req = httptest.NewRequest(fiber.MethodPost, "/sign-in", strings.NewReader(signIn.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if loc := resp.Header.Get(fiber.HeaderLocation); loc != "/sign-in?error=Invalid%20login%20credentials" {
		t.Fatalf("unexpected redirect %q", loc)
	}
}

func TestHandlerSignInSetsCookies(t *testing.T) {
	app, h := setupAccountApp(t)
	if result := h.svc.SignUp(context.Background(), validSignUp()); !result.OK() {
		t.Fatalf("sign-up: %+v", result.Failure)
	}

	req := httptest.NewRequest(fiber.MethodPost, "/sign-in", strings.NewReader(`{"email":"a@b.com","password":"secret1"}`))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var access string
	for _, c := range resp.Cookies() {
		if c.Name == AccessTokenCookie {
			access = c.Value
			if !c.HttpOnly {
				t.Fatalf("session cookie must be http-only")
			}
		}
	}
	if access == "" {
		t.Fatalf("expected access token cookie")
	}

	req = httptest.NewRequest(fiber.MethodPost, "/sign-out", nil)
	req.Header.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	req.AddCookie(&http.Cookie{Name: AccessTokenCookie, Value: access})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK || h.identity.signOuts != 1 {
		t.Fatalf("expected sign out with cookie token, got %d / %d", resp.StatusCode, h.identity.signOuts)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:        400,
		KindUpstreamRejection: 400,
		KindConfiguration:     500,
		KindUpstreamMalformed: 502,
		KindUnexpected:        503,
	}
	for kind, want := range cases {
		if got := StatusFor(kind); got != want {
			t.Fatalf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}
