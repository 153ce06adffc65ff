package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/wallet"
)

// RegisterWalletRoutes wires the caller's wallet view, balance and transaction endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, session fiber.Handler) {
	group := r.Group("/wallet", session)
	group.Get("/", h.Me)
	group.Post("/balance", h.Balance)
	group.Get("/transactions/:id", h.Transaction)
	group.Post("/transactions", h.Transactions)
}
