package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/contracts"
)

// RegisterContractRoutes wires document analysis.
func RegisterContractRoutes(r fiber.Router, h *contracts.Handler) {
	r.Get("/contracts/analyze", h.Usage)
	r.Post("/contracts/analyze", h.Analyze)
}
