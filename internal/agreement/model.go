package agreement

import (
	"errors"
	"time"

	"github.com/paycasso/paycasso/internal/contracts"
)

// Status tracks an agreement through its lifecycle. Only drafts are created here.
type Status string

const StatusDraft Status = "draft"

var (
	// ErrNoProfile is returned when the caller has no profile row.
	ErrNoProfile = errors.New("caller has no profile")
	// ErrInvalidBeneficiary is returned when the beneficiary is the caller, is
	// unknown, or owns no wallet.
	ErrInvalidBeneficiary = errors.New("invalid beneficiary")
)

// Agreement is an escrow agreement between a depositor and a beneficiary,
// built from an analysed contract.
type Agreement struct {
	ID                   string             `json:"id"`
	DepositorProfileID   string             `json:"depositor_profile_id"`
	BeneficiaryProfileID string             `json:"beneficiary_profile_id"`
	DocumentName         string             `json:"document_name"`
	Amounts              []contracts.Amount `json:"amounts"`
	Tasks                []string           `json:"tasks"`
	Status               Status             `json:"status"`
	CreatedAt            time.Time          `json:"created_at"`
}
