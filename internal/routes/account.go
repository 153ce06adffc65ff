package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/paycasso/paycasso/internal/account"
)

// AccountMiddleware holds the per-route middleware of the account actions.
type AccountMiddleware struct {
	SignUp  fiber.Handler
	SignIn  fiber.Handler
	Session fiber.Handler
}

// RegisterAccountRoutes wires the sign-up, sign-in, password recovery and
// sign-out actions.
func RegisterAccountRoutes(r fiber.Router, h *account.Handler, mw AccountMiddleware) {
	group := r.Group("/auth")
	group.Post("/sign-up", mw.SignUp, h.SignUp)
	group.Post("/sign-in", mw.SignIn, h.SignIn)
	group.Post("/forgot-password", h.ForgotPassword)
	group.Post("/reset-password", mw.Session, h.ResetPassword)
	group.Post("/sign-out", h.SignOut)
}
