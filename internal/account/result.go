package account

import (
	"net/url"
	"strings"

	"github.com/paycasso/paycasso/internal/identity"
)

// Kind classifies a failed flow.
type Kind string

const (
	// KindConfiguration means a required backend credential is missing.
	KindConfiguration Kind = "configuration"
	// KindValidation means the submitted fields were rejected.
	KindValidation Kind = "validation"
	// KindUpstreamRejection means an upstream service returned an error payload.
	KindUpstreamRejection Kind = "upstream_rejection"
	// KindUpstreamMalformed means an upstream success lacked expected fields.
	KindUpstreamMalformed Kind = "upstream_malformed"
	// KindUnexpected covers transport failures and recovered panics.
	KindUnexpected Kind = "unexpected"
)

// Messages shown to users. Detail stays in the logs.
const (
	msgConfiguration   = "Server configuration error. Please try again later."
	msgNetwork         = "Network error. Please check your connection and try again."
	msgAccountSetup    = "Failed to set up user account. Please try again."
	msgWalletSetupData = "Wallet setup data is invalid"
	msgProfileWrite    = "Could not create user profile"
	msgProfileData     = "Profile data is invalid"
	msgWalletWrite     = "Could not create wallet"
	msgResetRequest    = "Could not reset password"
	msgResetSent       = "Check your email for a link to reset your password."
	msgPasswordUpdate  = "Password update failed"
	msgPasswordUpdated = "Password updated"
	dashboardPath      = "/dashboard"
	signInPath         = "/sign-in"
	signUpPath         = "/sign-up"
	forgotPasswordPath = "/forgot-password"
	resetPasswordPath  = "/dashboard/reset-password"
	authCallbackPath   = "/auth/callback"
)

// Success is a completed flow. Session is set by sign-in only.
type Success struct {
	RedirectTo string
	Session    *identity.Session
}

// Failure is a flow that stopped. RedirectTo, when set, is a path carrying the
// message in its query string for the page to display.
type Failure struct {
	Kind       Kind
	Message    string
	RedirectTo string
}

func (f *Failure) Error() string {
	return string(f.Kind) + ": " + f.Message
}

// Result is the outcome of an account flow. Exactly one of Success and
// Failure is set.
type Result struct {
	Success *Success
	Failure *Failure
}

// OK reports whether the flow succeeded.
func (r Result) OK() bool {
	return r.Success != nil
}

// RedirectTo returns where the user should be sent, if anywhere.
func (r Result) RedirectTo() string {
	if r.Success != nil {
		return r.Success.RedirectTo
	}
	if r.Failure != nil {
		return r.Failure.RedirectTo
	}
	return ""
}

func succeeded(redirectTo string) Result {
	return Result{Success: &Success{RedirectTo: redirectTo}}
}

func failed(f *Failure) Result {
	return Result{Failure: f}
}

func fail(kind Kind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// failWithRedirect attaches the message to path under the given query key.
func failWithRedirect(kind Kind, key, path, message string) *Failure {
	return &Failure{Kind: kind, Message: message, RedirectTo: encodedRedirect(key, path, message)}
}

// encodedRedirect renders path?key=message with the message escaped the way
// browsers' encodeURIComponent does, so pages can decode it verbatim.
func encodedRedirect(key, path, message string) string {
	return path + "?" + key + "=" + encodeURIComponent(message)
}

var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

func encodeURIComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
