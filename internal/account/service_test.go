package account

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/paycasso/paycasso/internal/circle"
	"github.com/paycasso/paycasso/internal/config"
	"github.com/paycasso/paycasso/internal/identity"
	"github.com/paycasso/paycasso/internal/logging"
	"github.com/paycasso/paycasso/internal/notification"
	"github.com/paycasso/paycasso/internal/profile"
	"github.com/paycasso/paycasso/internal/wallet"
)

type countingIdentity struct {
	identity.Provider
	signUps  int
	signIns  int
	resets   int
	updates  int
	signOuts int
	err      error
	panicky  bool
}

func (c *countingIdentity) SignUp(ctx context.Context, in identity.SignUpInput) (identity.User, error) {
	c.signUps++
	if c.panicky {
		panic("connection reset")
	}
	if c.err != nil {
		return identity.User{}, c.err
	}
	return c.Provider.SignUp(ctx, in)
}

func (c *countingIdentity) SignInWithPassword(ctx context.Context, email, password string) (identity.Session, error) {
	c.signIns++
	return c.Provider.SignInWithPassword(ctx, email, password)
}

func (c *countingIdentity) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	c.resets++
	if c.err != nil {
		return c.err
	}
	return c.Provider.ResetPasswordForEmail(ctx, email, redirectTo)
}

func (c *countingIdentity) UpdatePassword(ctx context.Context, token, password string) error {
	c.updates++
	return c.Provider.UpdatePassword(ctx, token, password)
}

func (c *countingIdentity) SignOut(ctx context.Context, token string) error {
	c.signOuts++
	return c.Provider.SignOut(ctx, token)
}

type fakeProvisioner struct {
	setCalls    int
	walletCalls int
	set         circle.WalletSet
	wallet      circle.Wallet
	setErr      error
	walletErr   error
	lastSetName string
}

func (f *fakeProvisioner) CreateWalletSet(_ context.Context, in circle.CreateWalletSetInput) (circle.WalletSet, error) {
	f.setCalls++
	f.lastSetName = in.Name
	return f.set, f.setErr
}

func (f *fakeProvisioner) CreateWallet(_ context.Context, in circle.CreateWalletInput) (circle.Wallet, error) {
	f.walletCalls++
	if f.wallet.ID != "" {
		f.wallet.WalletSetID = in.WalletSetID
	}
	return f.wallet, f.walletErr
}

type countingProfiles struct {
	profile.Repository
	calls  int
	err    error
	dropID bool
}

func (c *countingProfiles) Upsert(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	c.calls++
	if c.err != nil {
		return profile.Profile{}, c.err
	}
	out, err := c.Repository.Upsert(ctx, p)
	if c.dropID {
		out.ID = ""
	}
	return out, err
}

type countingRecords struct {
	wallet.Repository
	calls int
	err   error
	last  wallet.Wallet
}

func (c *countingRecords) Create(ctx context.Context, w wallet.Wallet) (wallet.Wallet, error) {
	c.calls++
	c.last = w
	if c.err != nil {
		return wallet.Wallet{}, c.err
	}
	return c.Repository.Create(ctx, w)
}

type recordingNotifier struct {
	messages []notification.Message
}

func (r *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	r.messages = append(r.messages, m)
	return nil
}

type harness struct {
	svc      *Service
	identity *countingIdentity
	wallets  *fakeProvisioner
	profiles *countingProfiles
	records  *countingRecords
	notifier *recordingNotifier
}

func testConfig() config.Config {
	return config.Config{
		SiteURL:  "http://localhost:3000",
		Supabase: config.SupabaseConfig{AuthProvider: config.AuthProviderMemory},
		Circle: config.CircleConfig{
			APIKey:       "key",
			EntitySecret: "secret",
			Blockchain:   "ETH-SEPOLIA",
			AccountType:  "EOA",
		},
	}
}

func newHarness(t *testing.T, cfg config.Config) *harness {
	t.Helper()
	h := &harness{
		identity: &countingIdentity{Provider: identity.NewMemoryProvider()},
		wallets: &fakeProvisioner{
			set:    circle.WalletSet{ID: "ws-1", CustodyType: "DEVELOPER"},
			wallet: circle.Wallet{ID: "w-1", CustodyType: "DEVELOPER", Address: "0xabc", AccountType: "EOA", Blockchain: "ETH-SEPOLIA"},
		},
		profiles: &countingProfiles{Repository: profile.NewMemoryRepository()},
		records:  &countingRecords{Repository: wallet.NewMemoryRepository()},
		notifier: &recordingNotifier{},
	}
	h.svc = NewService(cfg, Deps{
		Identity: h.identity,
		Wallets:  h.wallets,
		Profiles: h.profiles,
		Records:  h.records,
		Notifier: h.notifier,
		Logger:   logging.Discard(),
	})
	return h
}

func (h *harness) externalCalls() int {
	return h.identity.signUps + h.wallets.setCalls + h.wallets.walletCalls + h.profiles.calls + h.records.calls
}

func validSignUp() SignUpInput {
	return SignUpInput{Email: "a@b.com", Password: "secret1", FullName: "Jane Doe"}
}

func TestSignUpSucceeds(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	result := h.svc.SignUp(ctx, validSignUp())
	if !result.OK() || result.Failure != nil {
		t.Fatalf("expected success, got %+v", result.Failure)
	}
	if result.Success.RedirectTo != "/dashboard" {
		t.Fatalf("expected /dashboard, got %s", result.Success.RedirectTo)
	}
	if h.identity.signUps != 1 || h.profiles.calls != 1 || h.records.calls != 1 {
		t.Fatalf("expected one credential, profile and wallet record, got %d/%d/%d", h.identity.signUps, h.profiles.calls, h.records.calls)
	}
	if h.wallets.lastSetName != "a@b.com" {
		t.Fatalf("expected wallet set named after the email, got %q", h.wallets.lastSetName)
	}

	rec := h.records.last
	if rec.CircleWalletID != "w-1" || rec.WalletSetID != "ws-1" || rec.Currency != "USDC" || rec.WalletType != "DEVELOPER" || rec.WalletAddress != "0xabc" {
		t.Fatalf("unexpected wallet record %+v", rec)
	}
	profiles, err := h.profiles.ListOthers(ctx, "")
	if err != nil {
		t.Fatalf("list profiles: %v", err)
	}
	if len(profiles) != 1 || profiles[0].Name != "Jane Doe" || profiles[0].ID != rec.ProfileID {
		t.Fatalf("expected one profile referenced by the wallet record, got %+v", profiles)
	}
	if len(h.notifier.messages) != 1 || h.notifier.messages[0].Kind != notification.KindAccountProvisioned {
		t.Fatalf("expected one provisioning notification, got %+v", h.notifier.messages)
	}
}

func TestSignUpValidationMakesNoCalls(t *testing.T) {
	long := strings.Repeat("x", 256)
	cases := []struct {
		name  string
		input SignUpInput
		want  string
	}{
		{"short name", SignUpInput{Email: "a@b.com", Password: "secret1", FullName: "Jo"}, "Full name must be between 3 and 255 characters"},
		{"long name", SignUpInput{Email: "a@b.com", Password: "secret1", FullName: long}, "Full name must be between 3 and 255 characters"},
		{"padded short name", SignUpInput{Email: "a@b.com", Password: "secret1", FullName: "  Jo  "}, "Full name must be between 3 and 255 characters"},
		{"short company", SignUpInput{Email: "a@b.com", Password: "secret1", CompanyName: "AB"}, "Company name must be between 3 and 255 characters"},
		{"long company", SignUpInput{Email: "a@b.com", Password: "secret1", CompanyName: long}, "Company name must be between 3 and 255 characters"},
		{"missing email", SignUpInput{Password: "secret1"}, "Email and password are required"},
		{"missing password", SignUpInput{Email: "a@b.com"}, "Email and password are required"},
		{"name checked before credentials", SignUpInput{FullName: "Jo", CompanyName: "AB"}, "Full name must be between 3 and 255 characters"},
		{"company checked before credentials", SignUpInput{CompanyName: "AB"}, "Company name must be between 3 and 255 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, testConfig())
			result := h.svc.SignUp(context.Background(), tc.input)
			if result.OK() {
				t.Fatalf("expected failure")
			}
			if result.Failure.Kind != KindValidation || result.Failure.Message != tc.want {
				t.Fatalf("expected validation %q, got %s %q", tc.want, result.Failure.Kind, result.Failure.Message)
			}
			if n := h.externalCalls(); n != 0 {
				t.Fatalf("expected zero external calls, got %d", n)
			}
		})
	}
}

func TestSignUpBoundaryLengthsAccepted(t *testing.T) {
	h := newHarness(t, testConfig())
	in := validSignUp()
	in.FullName = "Joe"
	in.CompanyName = strings.Repeat("é", 255)
	if result := h.svc.SignUp(context.Background(), in); !result.OK() {
		t.Fatalf("expected 3 and 255 characters to be accepted, got %+v", result.Failure)
	}
}

func TestSignUpMissingConfiguration(t *testing.T) {
	cfg := testConfig()
	cfg.Circle.EntitySecret = ""
	h := newHarness(t, cfg)

	result := h.svc.SignUp(context.Background(), SignUpInput{FullName: "Jo"})
	if result.OK() || result.Failure.Kind != KindConfiguration {
		t.Fatalf("expected configuration failure before validation, got %+v", result.Failure)
	}
	if result.Failure.Message != "Server configuration error. Please try again later." {
		t.Fatalf("unexpected message %q", result.Failure.Message)
	}
	if h.externalCalls() != 0 {
		t.Fatalf("expected zero external calls")
	}
}

func TestSignUpRegistrarRejectionShortCircuits(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	if result := h.svc.SignUp(ctx, validSignUp()); !result.OK() {
		t.Fatalf("first sign-up: %+v", result.Failure)
	}
	setCalls := h.wallets.setCalls

	result := h.svc.SignUp(ctx, validSignUp())
	if result.OK() {
		t.Fatalf("expected duplicate sign-up to fail")
	}
	f := result.Failure
	if f.Kind != KindUpstreamRejection || f.Message != "User already registered" {
		t.Fatalf("unexpected failure %+v", f)
	}
	if f.RedirectTo != "/sign-up?error=User%20already%20registered" {
		t.Fatalf("unexpected redirect %q", f.RedirectTo)
	}
	if h.wallets.setCalls != setCalls {
		t.Fatalf("wallet provisioner must not run after a registrar failure")
	}
}

func TestSignUpRegistrarTransportError(t *testing.T) {
	h := newHarness(t, testConfig())
	h.identity.err = errors.New("dial tcp: connection refused")

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Kind != KindUnexpected {
		t.Fatalf("expected unexpected failure, got %+v", result.Failure)
	}
	if result.Failure.Message != "Network error. Please check your connection and try again." {
		t.Fatalf("unexpected message %q", result.Failure.Message)
	}
	if h.wallets.setCalls != 0 {
		t.Fatalf("wallet provisioner must not run")
	}
}

func TestSignUpRecoversPanics(t *testing.T) {
	h := newHarness(t, testConfig())
	h.identity.panicky = true

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Kind != KindUnexpected {
		t.Fatalf("expected recovered failure, got %+v", result)
	}
	if result.Failure.Message != "Network error. Please check your connection and try again." {
		t.Fatalf("unexpected message %q", result.Failure.Message)
	}
}

func TestSignUpWalletSetWithoutID(t *testing.T) {
	h := newHarness(t, testConfig())
	h.wallets.set = circle.WalletSet{}

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() {
		t.Fatalf("expected failure")
	}
	if result.Failure.Message != "Wallet setup data is invalid" || result.Failure.Kind != KindUpstreamMalformed {
		t.Fatalf("unexpected failure %+v", result.Failure)
	}
	if h.wallets.walletCalls != 0 {
		t.Fatalf("wallet must not be created without a wallet set id")
	}
	if h.profiles.calls != 0 || h.records.calls != 0 {
		t.Fatalf("profile and wallet record writers must not run, got %d/%d", h.profiles.calls, h.records.calls)
	}
}

func TestSignUpWalletWithoutID(t *testing.T) {
	h := newHarness(t, testConfig())
	h.wallets.wallet = circle.Wallet{}

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Message != "Wallet setup data is invalid" {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
	if h.records.calls != 0 {
		t.Fatalf("wallet record writer must not run")
	}
}

func TestSignUpVendorMalformedError(t *testing.T) {
	h := newHarness(t, testConfig())
	h.wallets.setErr = circle.ErrMalformedResponse

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Message != "Wallet setup data is invalid" {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
}

func TestSignUpVendorRejection(t *testing.T) {
	h := newHarness(t, testConfig())
	h.wallets.walletErr = &circle.APIError{Status: 400, Code: 2, Message: "Invalid blockchain"}

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Kind != KindUpstreamRejection {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
	if result.Failure.Message != "Failed to set up user account. Please try again." {
		t.Fatalf("unexpected message %q", result.Failure.Message)
	}
	if h.profiles.calls != 0 || h.records.calls != 0 {
		t.Fatalf("writers must not run after a provisioning failure")
	}
}

func TestSignUpProfileFailures(t *testing.T) {
	h := newHarness(t, testConfig())
	h.profiles.err = errors.New("duplicate key value violates unique constraint")

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Message != "Could not create user profile" {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
	if h.records.calls != 0 {
		t.Fatalf("wallet record writer must not run")
	}

	h = newHarness(t, testConfig())
	h.profiles.dropID = true
	result = h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Message != "Profile data is invalid" || result.Failure.Kind != KindUpstreamMalformed {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
	if h.records.calls != 0 {
		t.Fatalf("wallet record writer must not run")
	}
}

func TestSignUpWalletRecordFailure(t *testing.T) {
	h := newHarness(t, testConfig())
	h.records.err = errors.New("insert failed")

	result := h.svc.SignUp(context.Background(), validSignUp())
	if result.OK() || result.Failure.Message != "Could not create wallet" {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
	if h.records.calls != 1 {
		t.Fatalf("expected exactly one wallet record attempt, got %d", h.records.calls)
	}
	if len(h.notifier.messages) != 0 {
		t.Fatalf("no notification expected on failure")
	}
}

func TestSignInWrongPassword(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	if result := h.svc.SignUp(ctx, validSignUp()); !result.OK() {
		t.Fatalf("sign-up: %+v", result.Failure)
	}

	result := h.svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "wrong-password"})
	if result.OK() {
		t.Fatalf("expected failure")
	}
	if result.Failure.Kind != KindUpstreamRejection || result.Failure.Message != "Invalid login credentials" {
		t.Fatalf("unexpected failure %+v", result.Failure)
	}
	if result.Failure.RedirectTo != "/sign-in?error=Invalid%20login%20credentials" {
		t.Fatalf("unexpected redirect %q", result.Failure.RedirectTo)
	}

	result = h.svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "secret1"})
	if !result.OK() || result.Success.Session == nil || result.Success.Session.AccessToken == "" {
		t.Fatalf("expected session, got %+v", result)
	}
	if result.Success.RedirectTo != "/dashboard" {
		t.Fatalf("unexpected redirect %q", result.Success.RedirectTo)
	}
}

func TestSignInRequiresCredentials(t *testing.T) {
	h := newHarness(t, testConfig())
	result := h.svc.SignIn(context.Background(), SignInInput{Email: "a@b.com"})
	if result.OK() || result.Failure.Kind != KindValidation {
		t.Fatalf("expected validation failure, got %+v", result)
	}
	if h.identity.signIns != 0 {
		t.Fatalf("provider must not be called")
	}
}

func TestWhitespaceEmailIsLeftToProvider(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	result := h.svc.SignUp(ctx, SignUpInput{Email: "   ", Password: "secret1"})
	if h.identity.signUps != 1 {
		t.Fatalf("expected sign-up to reach the provider, got %d calls", h.identity.signUps)
	}
	if result.OK() || result.Failure.Kind != KindUpstreamRejection {
		t.Fatalf("expected the provider to reject the address, got %+v", result)
	}
	if h.wallets.setCalls != 0 {
		t.Fatalf("rejected sign-up must not provision a wallet")
	}
	h.svc.SignIn(ctx, SignInInput{Email: " ", Password: "secret1"})
	if h.identity.signIns != 1 {
		t.Fatalf("expected sign-in to reach the provider, got %d calls", h.identity.signIns)
	}

	result = h.svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "   "})
	if result.OK() || result.Failure.Kind != KindValidation {
		t.Fatalf("expected blank password to fail validation, got %+v", result)
	}
	if h.identity.signIns != 1 {
		t.Fatalf("blank password must not reach the provider")
	}
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()

	result := h.svc.ForgotPassword(ctx, ForgotPasswordInput{})
	if result.OK() || result.Failure.RedirectTo != "/forgot-password?error=Email%20is%20required" {
		t.Fatalf("unexpected result %+v", result.Failure)
	}

	result = h.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "a@b.com"})
	want := "/forgot-password?success=Check%20your%20email%20for%20a%20link%20to%20reset%20your%20password."
	if !result.OK() || result.Success.RedirectTo != want {
		t.Fatalf("expected %q, got %+v", want, result)
	}

	result = h.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "a@b.com", CallbackURL: "/dashboard/settings"})
	if !result.OK() || result.Success.RedirectTo != "/dashboard/settings" {
		t.Fatalf("expected callback redirect, got %+v", result)
	}

	result = h.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "a@b.com", CallbackURL: "//evil.example"})
	if !result.OK() || result.Success.RedirectTo != want {
		t.Fatalf("expected off-site callback to be ignored, got %+v", result)
	}

	h.identity.err = errors.New("rate limited")
	result = h.svc.ForgotPassword(ctx, ForgotPasswordInput{Email: "a@b.com"})
	if result.OK() || result.Failure.RedirectTo != "/forgot-password?error=Could%20not%20reset%20password" {
		t.Fatalf("unexpected result %+v", result.Failure)
	}
}

func TestResetPassword(t *testing.T) {
	h := newHarness(t, testConfig())
	ctx := context.Background()
	if result := h.svc.SignUp(ctx, validSignUp()); !result.OK() {
		t.Fatalf("sign-up: %+v", result.Failure)
	}
	signIn := h.svc.SignIn(ctx, SignInInput{Email: "a@b.com", Password: "secret1"})
	token := signIn.Success.Session.AccessToken

	cases := []struct {
		in   ResetPasswordInput
		want string
	}{
		{ResetPasswordInput{AccessToken: token, Password: "secret2"}, "/dashboard/reset-password?error=Password%20and%20confirm%20password%20are%20required"},
		{ResetPasswordInput{AccessToken: token, Password: "secret2", ConfirmPassword: "secret3"}, "/dashboard/reset-password?error=Passwords%20do%20not%20match"},
		{ResetPasswordInput{AccessToken: "bogus", Password: "secret2", ConfirmPassword: "secret2"}, "/dashboard/reset-password?error=Password%20update%20failed"},
	}
	for _, tc := range cases {
		result := h.svc.ResetPassword(ctx, tc.in)
		if result.OK() || result.Failure.RedirectTo != tc.want {
			t.Fatalf("expected %q, got %+v", tc.want, result)
		}
	}

	result := h.svc.ResetPassword(ctx, ResetPasswordInput{AccessToken: token, Password: "secret2", ConfirmPassword: "secret2"})
	if !result.OK() || result.Success.RedirectTo != "/dashboard/reset-password?success=Password%20updated" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestSignOutAlwaysRedirects(t *testing.T) {
	cfg := testConfig()
	cfg.Supabase = config.SupabaseConfig{}
	h := newHarness(t, cfg)
	if result := h.svc.SignOut(context.Background(), "token"); !result.OK() || result.Success.RedirectTo != "/sign-in" {
		t.Fatalf("expected /sign-in without configuration, got %+v", result)
	}
	if h.identity.signOuts != 0 {
		t.Fatalf("provider must not be called without configuration")
	}

	h = newHarness(t, testConfig())
	if result := h.svc.SignOut(context.Background(), "unknown-token"); !result.OK() || result.Success.RedirectTo != "/sign-in" {
		t.Fatalf("expected /sign-in, got %+v", result)
	}
	if h.identity.signOuts != 1 {
		t.Fatalf("expected provider sign out")
	}
}

func TestEncodeURIComponent(t *testing.T) {
	cases := map[string]string{
		"User already registered": "User%20already%20registered",
		"a+b=c&d":                 "a%2Bb%3Dc%26d",
		"don't (panic)!*~":        "don't%20(panic)!*~",
		"é":                       "%C3%A9",
	}
	for in, want := range cases {
		if got := encodeURIComponent(in); got != want {
			t.Fatalf("encodeURIComponent(%q) = %q, want %q", in, got, want)
		}
	}
}
