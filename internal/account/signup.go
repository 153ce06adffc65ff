package account

import (
	"context"
	"errors"

	"github.com/paycasso/paycasso/internal/circle"
	"github.com/paycasso/paycasso/internal/identity"
	"github.com/paycasso/paycasso/internal/logging"
	"github.com/paycasso/paycasso/internal/notification"
	"github.com/paycasso/paycasso/internal/profile"
	"github.com/paycasso/paycasso/internal/wallet"
)

// signUp carries the values each step hands to the next.
type signUp struct {
	input     SignUpInput
	user      identity.User
	walletSet circle.WalletSet
	wallet    circle.Wallet
	profile   profile.Profile
	record    wallet.Wallet
}

// SignUp registers a credential, provisions a custodial wallet, writes the
// profile and stores the wallet record, in that order. The first failing
// step ends the flow; earlier steps are not undone.
func (s *Service) SignUp(ctx context.Context, in SignUpInput) (result Result) {
	defer s.recoverFlow("sign_up", &result)

	if f := s.configured("sign_up", true); f != nil {
		return failed(f)
	}

	su := &signUp{input: in}
	steps := []step{
		{state: StateValidating, run: su.validate},
		{state: StateRegistering, run: func(ctx context.Context) *Failure { return s.register(ctx, su) }},
		{state: StateProvisioningWallet, run: func(ctx context.Context) *Failure { return s.provisionWallet(ctx, su) }},
		{state: StateWritingProfile, run: func(ctx context.Context) *Failure { return s.writeProfile(ctx, su) }},
		{state: StateWritingWalletRecord, run: func(ctx context.Context) *Failure { return s.writeWalletRecord(ctx, su) }},
	}
	if f := runSteps(ctx, s.logger, "sign_up", steps); f != nil {
		return failed(f)
	}

	s.logger.Info("account provisioned", "auth_user_id", su.user.ID, "profile_id", su.profile.ID, "wallet_id", su.record.ID, logging.Email(su.input.Email))
	if s.notifier != nil {
		msg := notification.Message{
			Kind:        notification.KindAccountProvisioned,
			Destination: su.input.Email,
			Body:        "Your Paycasso account and " + su.wallet.Blockchain + " wallet are ready.",
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.logger.Warn("account notification failed", "auth_user_id", su.user.ID, "error", err)
		}
	}
	return succeeded(dashboardPath)
}

func (su *signUp) validate(context.Context) *Failure {
	in, f := ValidateSignUp(su.input)
	su.input = in
	return f
}

func (s *Service) register(ctx context.Context, su *signUp) *Failure {
	user, err := s.identity.SignUp(ctx, identity.SignUpInput{
		Email:      su.input.Email,
		Password:   su.input.Password,
		RedirectTo: s.origin(su.input.Origin) + authCallbackPath,
	})
	if err != nil {
		if rejected, ok := identity.AsRejected(err); ok {
			s.logger.Warn("sign-up rejected by auth provider", "code", rejected.Code, "reason", rejected.Message, logging.Email(su.input.Email))
			return failWithRedirect(KindUpstreamRejection, "error", signUpPath, rejected.Message)
		}
		if errors.Is(err, identity.ErrMissingUserID) {
			s.logger.Error("auth provider returned no user id", logging.Email(su.input.Email))
			return fail(KindUpstreamMalformed, msgAccountSetup)
		}
		s.logger.Error("auth provider unreachable", "error", err)
		return fail(KindUnexpected, msgNetwork)
	}
	if user.ID == "" {
		return fail(KindUpstreamMalformed, msgAccountSetup)
	}
	su.user = user
	return nil
}

// provisionWallet creates the wallet set, then one wallet in it. Both ids are
// checked here so the profile is never written for a sign-up without a wallet.
func (s *Service) provisionWallet(ctx context.Context, su *signUp) *Failure {
	set, err := s.wallets.CreateWalletSet(ctx, circle.CreateWalletSetInput{Name: su.input.Email})
	if err != nil {
		return s.provisioningFailure("create wallet set", su, err)
	}
	if set.ID == "" {
		return s.provisioningFailure("create wallet set", su, circle.ErrMalformedResponse)
	}
	su.walletSet = set

	w, err := s.wallets.CreateWallet(ctx, circle.CreateWalletInput{
		WalletSetID: set.ID,
		Blockchain:  s.cfg.Circle.Blockchain,
		AccountType: s.cfg.Circle.AccountType,
	})
	if err != nil {
		return s.provisioningFailure("create wallet", su, err)
	}
	if w.ID == "" {
		return s.provisioningFailure("create wallet", su, circle.ErrMalformedResponse)
	}
	su.wallet = w
	return nil
}

func (s *Service) provisioningFailure(call string, su *signUp, err error) *Failure {
	s.logger.Error("wallet provisioning failed", "call", call, "auth_user_id", su.user.ID, "wallet_set_id", su.walletSet.ID, "error", err)
	var apiErr *circle.APIError
	switch {
	case errors.Is(err, circle.ErrMalformedResponse):
		return fail(KindUpstreamMalformed, msgWalletSetupData)
	case errors.As(err, &apiErr):
		return fail(KindUpstreamRejection, msgAccountSetup)
	default:
		return fail(KindUnexpected, msgAccountSetup)
	}
}

func (s *Service) writeProfile(ctx context.Context, su *signUp) *Failure {
	p, err := s.profiles.Upsert(ctx, profile.Profile{
		AuthUserID:  su.user.ID,
		Email:       su.input.Email,
		Name:        su.input.FullName,
		CompanyName: su.input.CompanyName,
	})
	if err != nil {
		s.logger.Error("profile upsert failed", "auth_user_id", su.user.ID, "error", err)
		return fail(KindUpstreamRejection, msgProfileWrite)
	}
	if p.ID == "" {
		s.logger.Error("profile upsert returned no id", "auth_user_id", su.user.ID)
		return fail(KindUpstreamMalformed, msgProfileData)
	}
	su.profile = p
	return nil
}

func (s *Service) writeWalletRecord(ctx context.Context, su *signUp) *Failure {
	if su.profile.ID == "" || su.wallet.ID == "" || su.walletSet.ID == "" {
		s.logger.Error("wallet record precondition failed", "profile_id", su.profile.ID, "wallet_id", su.wallet.ID, "wallet_set_id", su.walletSet.ID)
		return fail(KindUpstreamMalformed, msgWalletSetupData)
	}
	record, err := s.records.Create(ctx, wallet.Wallet{
		ProfileID:      su.profile.ID,
		CircleWalletID: su.wallet.ID,
		WalletSetID:    su.walletSet.ID,
		WalletAddress:  su.wallet.Address,
		WalletType:     su.wallet.CustodyType,
		AccountType:    su.wallet.AccountType,
		Blockchain:     su.wallet.Blockchain,
		Currency:       wallet.CurrencyUSDC,
	})
	if err != nil {
		s.logger.Error("wallet record insert failed", "profile_id", su.profile.ID, "wallet_id", su.wallet.ID, "error", err)
		return fail(KindUpstreamRejection, msgWalletWrite)
	}
	su.record = record
	return nil
}
