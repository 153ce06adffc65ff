package wallet

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/circle"
	"github.com/paycasso/paycasso/internal/profile"
)

const noWalletMessage = "No wallet found for this user. Please contact support to set up your wallet."

var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service  *Service
	profiles profile.Repository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service, profiles profile.Repository, logger *slog.Logger) *Handler {
	v := validator.New()
	_ = v.RegisterValidation("wallet_uuid", func(fl validator.FieldLevel) bool {
		return uuidPattern.MatchString(fl.Field().String())
	})
	return &Handler{service: service, profiles: profiles, validate: v, logger: logger}
}

type walletIDRequest struct {
	WalletID string `validate:"wallet_uuid"`
}

type walletView struct {
	Wallet
	Balance string `json:"balance"`
}

// Me returns the caller's profile, wallet record and live balance.
func (h *Handler) Me(c *fiber.Ctx) error {
	authUserID, _ := c.Locals("auth_user_id").(string)
	if authUserID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	ctx := c.UserContext()

	p, err := h.profiles.GetByAuthUserID(ctx, authUserID)
	if errors.Is(err, profile.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, noWalletMessage)
	}
	if err != nil {
		h.logger.Error("profile lookup failed", "auth_user_id", authUserID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Failed to fetch wallet information")
	}
	w, err := h.service.ForProfile(ctx, p.ID)
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, noWalletMessage)
	}
	if err != nil {
		h.logger.Error("wallet lookup failed", "profile_id", p.ID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Failed to fetch wallet information")
	}

	view := walletView{Wallet: w, Balance: "0"}
	if w.Blockchain == "" {
		view.Blockchain = "ETH-SEPOLIA"
	}
	view.Currency = CurrencyUSDC
	// The stored record is still useful when the vendor is unreachable.
	if balance, err := h.service.Balance(ctx, w.CircleWalletID); err != nil {
		h.logger.Warn("live balance unavailable", "wallet_id", w.CircleWalletID, "error", err)
	} else {
		view.Balance = balance.Amount.String()
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"profile": p, "wallet": view})
}

// Balance returns the USDC balance of a vendor wallet.
func (h *Handler) Balance(c *fiber.Ctx) error {
	walletID, err := h.walletID(c)
	if err != nil {
		return err
	}
	balance, err := h.service.Balance(c.UserContext(), walletID)
	if errors.Is(err, circle.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "Wallet not found")
	}
	if err != nil {
		h.logger.Error("balance lookup failed", "wallet_id", walletID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Internal server error while fetching balance")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"walletId": walletID,
		"balance":  balance.Amount.String(),
		"currency": balance.Currency,
		"asOf":     balance.AsOf,
	})
}

// Transaction returns one vendor transaction. The id is checked before any
// vendor call.
func (h *Handler) Transaction(c *fiber.Ctx) error {
	id := c.Params("id")
	if !uuidPattern.MatchString(id) {
		return fiber.NewError(http.StatusBadRequest, "Invalid transaction ID format")
	}
	tx, err := h.service.Transaction(c.UserContext(), id)
	switch {
	case err == nil:
	case errors.Is(err, circle.ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "Transaction not found")
	case errors.Is(err, circle.ErrMalformedResponse):
		h.logger.Error("transaction response failed validation", "transaction_id", id, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Invalid response from Circle API")
	default:
		h.logger.Error("transaction lookup failed", "transaction_id", id, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Internal server error while fetching transaction")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transaction": tx})
}

// Transactions lists the transactions of a vendor wallet.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	walletID, err := h.walletID(c)
	if err != nil {
		return err
	}
	txs, err := h.service.Transactions(c.UserContext(), walletID)
	if errors.Is(err, circle.ErrNotFound) {
		return fiber.NewError(http.StatusNotFound, "Wallet not found")
	}
	if err != nil {
		h.logger.Error("transaction list failed", "wallet_id", walletID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Internal server error while fetching transactions")
	}
	if len(txs) == 0 {
		return fiber.NewError(http.StatusNotFound, "No transactions found")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": txs})
}

// walletID reads {"walletId": "..."} from the body. Checks run in a fixed
// order so each malformed body gets exactly one message.
func (h *Handler) walletID(c *fiber.Ctx) (string, error) {
	var body any
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return "", fiber.NewError(http.StatusBadRequest, "Invalid JSON in request body")
	}
	var raw any
	switch v := body.(type) {
	case map[string]any:
		raw = v["walletId"]
	case []any:
	default:
		return "", fiber.NewError(http.StatusBadRequest, "Request body must be a valid JSON object")
	}
	if isEmpty(raw) {
		return "", fiber.NewError(http.StatusBadRequest, "walletId is required")
	}
	walletID, ok := raw.(string)
	if !ok {
		return "", fiber.NewError(http.StatusBadRequest, "walletId must be a string")
	}
	if err := h.validate.Struct(walletIDRequest{WalletID: walletID}); err != nil {
		return "", fiber.NewError(http.StatusBadRequest, "Validation failed: walletId must be a valid UUID format")
	}
	return walletID, nil
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case bool:
		return !x
	case float64:
		return x == 0
	}
	return false
}
