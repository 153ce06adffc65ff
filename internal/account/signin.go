package account

import (
	"context"

	"github.com/paycasso/paycasso/internal/identity"
	"github.com/paycasso/paycasso/internal/logging"
)

// SignIn verifies a password. A provider refusal is returned with a redirect
// back to the sign-in page carrying the provider's message.
func (s *Service) SignIn(ctx context.Context, in SignInInput) (result Result) {
	defer s.recoverFlow("sign_in", &result)

	if f := s.configured("sign_in", false); f != nil {
		return failed(f)
	}

	var session identity.Session
	steps := []step{
		{state: StateValidating, run: func(context.Context) *Failure { return ValidateSignIn(in) }},
		{state: StateSigningIn, run: func(ctx context.Context) *Failure {
			var err error
			session, err = s.identity.SignInWithPassword(ctx, in.Email, in.Password)
			if err == nil {
				return nil
			}
			if rejected, ok := identity.AsRejected(err); ok {
				return failWithRedirect(KindUpstreamRejection, "error", signInPath, rejected.Message)
			}
			s.logger.Error("auth provider unreachable", "error", err, logging.Email(in.Email))
			return fail(KindUnexpected, msgNetwork)
		}},
	}
	if f := runSteps(ctx, s.logger, "sign_in", steps); f != nil {
		return failed(f)
	}
	return Result{Success: &Success{RedirectTo: dashboardPath, Session: &session}}
}
