package notification

import (
	"context"
	"log/slog"

	"github.com/paycasso/paycasso/internal/logging"
)

const (
	// KindAccountProvisioned is sent once a sign-up has a profile and a wallet.
	KindAccountProvisioned = "account_provisioned"
	// KindAgreementDrafted is sent to the beneficiary of a new agreement draft.
	KindAgreementDrafted = "agreement_drafted"
)

// Message describes a notification payload. Destination is an email address.
type Message struct {
	Kind        string
	Destination string
	Body        string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier writes notifications to the logger instead of delivering them.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, logging.Email(message.Destination), "body", message.Body)
	return nil
}
