package agreement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/contracts"
)

// Handler exposes agreement HTTP endpoints.
type Handler struct {
	service  *Service
	maxBytes int
	logger   *slog.Logger
}

// NewHandler builds an agreement HTTP handler.
func NewHandler(service *Service, maxBytes int, logger *slog.Logger) *Handler {
	if maxBytes <= 0 {
		maxBytes = contracts.DefaultMaxUploadBytes
	}
	return &Handler{service: service, maxBytes: maxBytes, logger: logger}
}

// Beneficiaries lists the profiles an agreement can be drafted for.
func (h *Handler) Beneficiaries(c *fiber.Ctx) error {
	authUserID, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.service.Beneficiaries(c.UserContext(), authUserID)
	if err != nil {
		h.logger.Error("beneficiary listing failed", "auth_user_id", authUserID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Failed to fetch beneficiaries")
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"beneficiaries": list})
}

// Create analyses the uploaded contract and stores a draft agreement.
func (h *Handler) Create(c *fiber.Ctx) error {
	authUserID, err := caller(c)
	if err != nil {
		return err
	}
	doc, err := contracts.ReadUpload(c, h.maxBytes)
	if err != nil {
		return err
	}
	created, err := h.service.Draft(c.UserContext(), authUserID, c.FormValue("beneficiaryProfileId"), doc)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoProfile):
		return fiber.NewError(http.StatusNotFound, "Profile not found")
	case errors.Is(err, ErrInvalidBeneficiary):
		return fiber.NewError(http.StatusBadRequest, "Please select a valid beneficiary")
	default:
		return contracts.AnalysisError(c, h.logger, err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"agreement": created})
}

// List returns the caller's agreements.
func (h *Handler) List(c *fiber.Ctx) error {
	authUserID, err := caller(c)
	if err != nil {
		return err
	}
	list, err := h.service.List(c.UserContext(), authUserID)
	if errors.Is(err, ErrNoProfile) {
		return fiber.NewError(http.StatusNotFound, "Profile not found")
	}
	if err != nil {
		h.logger.Error("agreement listing failed", "auth_user_id", authUserID, "error", err)
		return fiber.NewError(http.StatusInternalServerError, "Failed to fetch agreements")
	}
	if list == nil {
		list = []Agreement{}
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"agreements": list})
}

func caller(c *fiber.Ctx) (string, error) {
	authUserID, _ := c.Locals("auth_user_id").(string)
	if authUserID == "" {
		return "", fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	return authUserID, nil
}
