package account

import (
	"context"
	"fmt"
)

// SignOut ends the session. It always lands on the sign-in page; failures are
// only logged.
func (s *Service) SignOut(ctx context.Context, accessToken string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("account flow panicked", "flow", "sign_out", "panic", fmt.Sprint(r))
			result = succeeded(signInPath)
		}
	}()

	if f := s.configured("sign_out", false); f != nil || accessToken == "" {
		return succeeded(signInPath)
	}
	if err := s.identity.SignOut(ctx, accessToken); err != nil {
		s.logger.Warn("sign out failed", "error", err)
	}
	return succeeded(signInPath)
}
