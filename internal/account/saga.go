package account

import (
	"context"
	"log/slog"
)

// State names a step of an account flow. Logs carry it so a failed sign-up
// shows how far it got.
type State string

const (
	StateValidating          State = "validating"
	StateRegistering         State = "registering"
	StateProvisioningWallet  State = "provisioning_wallet"
	StateWritingProfile      State = "writing_profile"
	StateWritingWalletRecord State = "writing_wallet_record"
	StateSigningIn           State = "signing_in"
	StateRequestingReset     State = "requesting_reset"
	StateUpdatingPassword    State = "updating_password"
)

// step is one unit of a flow. compensate, when set, undoes run after a later
// step fails.
type step struct {
	state      State
	run        func(ctx context.Context) *Failure
	compensate func(ctx context.Context)
}

// runSteps executes steps in order and stops at the first failure. Completed
// steps are compensated in reverse order.
func runSteps(ctx context.Context, logger *slog.Logger, flow string, steps []step) *Failure {
	for i, st := range steps {
		f := st.run(ctx)
		if f == nil {
			continue
		}
		logger.Warn("account flow stopped", "flow", flow, "state", st.state, "kind", f.Kind, "reason", f.Message)
		for j := i - 1; j >= 0; j-- {
			if steps[j].compensate != nil {
				logger.Info("compensating step", "flow", flow, "state", steps[j].state)
				steps[j].compensate(ctx)
			}
		}
		return f
	}
	return nil
}
