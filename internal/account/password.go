package account

import (
	"context"
	"net/url"
	"strings"

	"github.com/paycasso/paycasso/internal/logging"
)

// ForgotPassword asks the provider to mail a recovery link that lands on the
// reset-password page.
func (s *Service) ForgotPassword(ctx context.Context, in ForgotPasswordInput) (result Result) {
	defer s.recoverFlow("forgot_password", &result)

	if f := s.configured("forgot_password", false); f != nil {
		return failed(f)
	}

	redirectTo := s.origin(in.Origin) + authCallbackPath + "?redirect_to=" + resetPasswordPath
	steps := []step{
		{state: StateValidating, run: func(context.Context) *Failure { return ValidateForgotPassword(in) }},
		{state: StateRequestingReset, run: func(ctx context.Context) *Failure {
			if err := s.identity.ResetPasswordForEmail(ctx, in.Email, redirectTo); err != nil {
				s.logger.Warn("password reset request failed", "error", err, logging.Email(in.Email))
				return failWithRedirect(KindUpstreamRejection, "error", forgotPasswordPath, msgResetRequest)
			}
			return nil
		}},
	}
	if f := runSteps(ctx, s.logger, "forgot_password", steps); f != nil {
		return failed(f)
	}

	if callback := safeCallback(in.CallbackURL); callback != "" {
		return succeeded(callback)
	}
	return succeeded(encodedRedirect("success", forgotPasswordPath, msgResetSent))
}

// ResetPassword sets a new password for the user of a recovery session.
func (s *Service) ResetPassword(ctx context.Context, in ResetPasswordInput) (result Result) {
	defer s.recoverFlow("reset_password", &result)

	if f := s.configured("reset_password", false); f != nil {
		return failed(f)
	}

	steps := []step{
		{state: StateValidating, run: func(context.Context) *Failure { return ValidateResetPassword(in) }},
		{state: StateUpdatingPassword, run: func(ctx context.Context) *Failure {
			if err := s.identity.UpdatePassword(ctx, in.AccessToken, in.Password); err != nil {
				s.logger.Warn("password update failed", "error", err)
				return failWithRedirect(KindUpstreamRejection, "error", resetPasswordPath, msgPasswordUpdate)
			}
			return nil
		}},
	}
	if f := runSteps(ctx, s.logger, "reset_password", steps); f != nil {
		return failed(f)
	}
	return succeeded(encodedRedirect("success", resetPasswordPath, msgPasswordUpdated))
}

// safeCallback accepts only same-site relative paths so the form cannot be
// used as an open redirect.
func safeCallback(raw string) string {
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.HasPrefix(raw, "/\\") {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host != "" || u.Scheme != "" {
		return ""
	}
	return raw
}
