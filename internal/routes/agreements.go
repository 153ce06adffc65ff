package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/agreement"
)

// RegisterAgreementRoutes wires agreement drafting and listing.
func RegisterAgreementRoutes(r fiber.Router, h *agreement.Handler, session fiber.Handler) {
	group := r.Group("/agreements", session)
	group.Get("/beneficiaries", h.Beneficiaries)
	group.Get("/", h.List)
	group.Post("/", h.Create)
}
