// Package account runs the user-facing account flows: sign-up with wallet
// provisioning, sign-in, password recovery and sign-out.
package account

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/paycasso/paycasso/internal/circle"
	"github.com/paycasso/paycasso/internal/config"
	"github.com/paycasso/paycasso/internal/identity"
	"github.com/paycasso/paycasso/internal/notification"
	"github.com/paycasso/paycasso/internal/profile"
	"github.com/paycasso/paycasso/internal/wallet"
)

// WalletProvisioner creates custodial wallets at the vendor.
type WalletProvisioner interface {
	CreateWalletSet(ctx context.Context, input circle.CreateWalletSetInput) (circle.WalletSet, error)
	CreateWallet(ctx context.Context, input circle.CreateWalletInput) (circle.Wallet, error)
}

// ProfileWriter upserts profiles keyed by auth user id.
type ProfileWriter interface {
	Upsert(ctx context.Context, p profile.Profile) (profile.Profile, error)
}

// WalletRecordWriter stores the local wallet record.
type WalletRecordWriter interface {
	Create(ctx context.Context, w wallet.Wallet) (wallet.Wallet, error)
}

// Deps are the collaborators of the account flows. Nil collaborators count as
// unconfigured.
type Deps struct {
	Identity identity.Provider
	Wallets  WalletProvisioner
	Profiles ProfileWriter
	Records  WalletRecordWriter
	Notifier notification.Notifier
	Logger   *slog.Logger
}

// Service runs the account flows.
type Service struct {
	cfg      config.Config
	identity identity.Provider
	wallets  WalletProvisioner
	profiles ProfileWriter
	records  WalletRecordWriter
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService builds the account service.
func NewService(cfg config.Config, deps Deps) *Service {
	return &Service{
		cfg:      cfg,
		identity: deps.Identity,
		wallets:  deps.Wallets,
		profiles: deps.Profiles,
		records:  deps.Records,
		notifier: deps.Notifier,
		logger:   deps.Logger,
	}
}

// configured checks the backends a flow needs before anything else runs.
func (s *Service) configured(flow string, needStore bool) *Failure {
	var missing []string
	if !s.cfg.HasAuthBackend() || s.identity == nil {
		missing = append(missing, "auth backend")
	}
	if needStore {
		if !s.cfg.HasPrivilegedStore() || s.profiles == nil || s.records == nil {
			missing = append(missing, "privileged store")
		}
		if !s.cfg.HasCustody() || s.wallets == nil {
			missing = append(missing, "wallet custody")
		}
	}
	if len(missing) == 0 {
		return nil
	}
	s.logger.Error("account flow not configured", "flow", flow, "missing", missing)
	return fail(KindConfiguration, msgConfiguration)
}

// recoverFlow turns a panic inside a flow into the generic network failure.
func (s *Service) recoverFlow(flow string, result *Result) {
	if r := recover(); r != nil {
		s.logger.Error("account flow panicked", "flow", flow, "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
		*result = failed(fail(KindUnexpected, msgNetwork))
	}
}

func (s *Service) origin(requestOrigin string) string {
	if requestOrigin != "" {
		return requestOrigin
	}
	return s.cfg.SiteURL
}
