// Package agreement stores escrow agreement drafts between a depositor and a
// beneficiary who both hold wallets.
package agreement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/paycasso/paycasso/internal/contracts"
	"github.com/paycasso/paycasso/internal/logging"
	"github.com/paycasso/paycasso/internal/notification"
	"github.com/paycasso/paycasso/internal/profile"
)

// WalletOwners reports which profiles own a wallet.
type WalletOwners interface {
	ProfilesWithWallets(ctx context.Context, profileIDs []string) (map[string]bool, error)
}

// DocumentAnalyzer extracts amounts and tasks from a contract.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, doc contracts.Document) (contracts.Analysis, error)
}

// Service drafts and lists agreements.
type Service struct {
	repo     Repository
	profiles profile.Repository
	wallets  WalletOwners
	analyzer DocumentAnalyzer
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewService wires the agreement service. notifier may be nil.
func NewService(repo Repository, profiles profile.Repository, wallets WalletOwners, analyzer DocumentAnalyzer, notifier notification.Notifier, logger *slog.Logger) *Service {
	return &Service{repo: repo, profiles: profiles, wallets: wallets, analyzer: analyzer, notifier: notifier, logger: logger}
}

// Beneficiaries lists the profiles, other than the caller's, that own a wallet.
func (s *Service) Beneficiaries(ctx context.Context, authUserID string) ([]profile.Profile, error) {
	others, err := s.profiles.ListOthers(ctx, authUserID)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	ids := make([]string, 0, len(others))
	for _, p := range others {
		ids = append(ids, p.ID)
	}
	owners, err := s.wallets.ProfilesWithWallets(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list wallet owners: %w", err)
	}
	out := make([]profile.Profile, 0, len(others))
	for _, p := range others {
		if owners[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Draft analyses doc and stores a draft agreement from the caller to
// beneficiaryProfileID.
func (s *Service) Draft(ctx context.Context, authUserID, beneficiaryProfileID string, doc contracts.Document) (Agreement, error) {
	depositor, err := s.profiles.GetByAuthUserID(ctx, authUserID)
	if errors.Is(err, profile.ErrNotFound) {
		return Agreement{}, ErrNoProfile
	}
	if err != nil {
		return Agreement{}, fmt.Errorf("load depositor: %w", err)
	}

	beneficiaryProfileID = strings.TrimSpace(beneficiaryProfileID)
	if beneficiaryProfileID == "" || beneficiaryProfileID == depositor.ID {
		return Agreement{}, ErrInvalidBeneficiary
	}
	beneficiary, err := s.profiles.Get(ctx, beneficiaryProfileID)
	if errors.Is(err, profile.ErrNotFound) {
		return Agreement{}, ErrInvalidBeneficiary
	}
	if err != nil {
		return Agreement{}, fmt.Errorf("load beneficiary: %w", err)
	}
	owners, err := s.wallets.ProfilesWithWallets(ctx, []string{beneficiary.ID})
	if err != nil {
		return Agreement{}, fmt.Errorf("check beneficiary wallet: %w", err)
	}
	if !owners[beneficiary.ID] {
		return Agreement{}, ErrInvalidBeneficiary
	}

	analysis, err := s.analyzer.Analyze(ctx, doc)
	if err != nil {
		return Agreement{}, err
	}

	created, err := s.repo.Create(ctx, Agreement{
		DepositorProfileID:   depositor.ID,
		BeneficiaryProfileID: beneficiary.ID,
		DocumentName:         doc.Name,
		Amounts:              analysis.Amounts,
		Tasks:                analysis.Tasks,
		Status:               StatusDraft,
	})
	if err != nil {
		return Agreement{}, fmt.Errorf("store agreement: %w", err)
	}
	s.logger.Info("agreement drafted",
		slog.String("agreement_id", created.ID),
		slog.String("depositor_profile_id", depositor.ID),
		slog.String("beneficiary_profile_id", beneficiary.ID),
	)

	if s.notifier != nil {
		msg := notification.Message{
			Kind:        notification.KindAgreementDrafted,
			Destination: beneficiary.Email,
			Body:        fmt.Sprintf("%s drafted an agreement from %s", displayName(depositor), doc.Name),
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			s.logger.Warn("agreement notification failed", logging.Email(beneficiary.Email), slog.String("error", err.Error()))
		}
	}
	return created, nil
}

// List returns the agreements the caller takes part in.
func (s *Service) List(ctx context.Context, authUserID string) ([]Agreement, error) {
	p, err := s.profiles.GetByAuthUserID(ctx, authUserID)
	if errors.Is(err, profile.ErrNotFound) {
		return nil, ErrNoProfile
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return s.repo.ListForProfile(ctx, p.ID)
}

func displayName(p profile.Profile) string {
	switch {
	case p.CompanyName != "":
		return p.CompanyName
	case p.Name != "":
		return p.Name
	default:
		return p.Email
	}
}
