package account

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	// AccessTokenCookie and RefreshTokenCookie hold the session after sign-in.
	AccessTokenCookie  = "sb-access-token"
	RefreshTokenCookie = "sb-refresh-token"
)

// Handler exposes the account flows over HTTP. Bodies may be JSON, urlencoded
// or multipart forms; field names follow the web forms.
type Handler struct {
	service      *Service
	secureCookie bool
}

// NewHandler builds an account HTTP handler. secureCookie marks session
// cookies Secure, which browsers require outside localhost.
func NewHandler(service *Service, secureCookie bool) *Handler {
	return &Handler{service: service, secureCookie: secureCookie}
}

type signUpForm struct {
	Email       string `json:"email" form:"email"`
	Password    string `json:"password" form:"password"`
	FullName    string `json:"full-name" form:"full-name"`
	CompanyName string `json:"company-name" form:"company-name"`
}

type credentialsForm struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type forgotPasswordForm struct {
	Email       string `json:"email" form:"email"`
	CallbackURL string `json:"callbackUrl" form:"callbackUrl"`
}

type resetPasswordForm struct {
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// SignUp handles the sign-up form.
func (h *Handler) SignUp(c *fiber.Ctx) error {
	var form signUpForm
	if err := parseForm(c, &form); err != nil {
		return err
	}
	result := h.service.SignUp(c.UserContext(), SignUpInput{
		Email:       form.Email,
		Password:    form.Password,
		FullName:    form.FullName,
		CompanyName: form.CompanyName,
		Origin:      c.Get(fiber.HeaderOrigin),
	})
	return h.respond(c, result)
}

// SignIn handles the sign-in form and sets the session cookies.
func (h *Handler) SignIn(c *fiber.Ctx) error {
	var form credentialsForm
	if err := parseForm(c, &form); err != nil {
		return err
	}
	result := h.service.SignIn(c.UserContext(), SignInInput{Email: form.Email, Password: form.Password})
	if result.OK() && result.Success.Session != nil {
		session := result.Success.Session
		expires := time.Now().Add(time.Duration(session.ExpiresIn) * time.Second)
		h.setCookie(c, AccessTokenCookie, session.AccessToken, expires)
		h.setCookie(c, RefreshTokenCookie, session.RefreshToken, time.Now().Add(30*24*time.Hour))
	}
	return h.respond(c, result)
}

// ForgotPassword handles the recovery request form.
func (h *Handler) ForgotPassword(c *fiber.Ctx) error {
	var form forgotPasswordForm
	if err := parseForm(c, &form); err != nil {
		return err
	}
	result := h.service.ForgotPassword(c.UserContext(), ForgotPasswordInput{
		Email:       form.Email,
		CallbackURL: form.CallbackURL,
		Origin:      c.Get(fiber.HeaderOrigin),
	})
	return h.respond(c, result)
}

// ResetPassword handles the new password form. It runs behind session auth.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var form resetPasswordForm
	if err := parseForm(c, &form); err != nil {
		return err
	}
	token, _ := c.Locals("access_token").(string)
	result := h.service.ResetPassword(c.UserContext(), ResetPasswordInput{
		AccessToken:     token,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
	})
	return h.respond(c, result)
}

// SignOut ends the session and clears the cookies.
func (h *Handler) SignOut(c *fiber.Ctx) error {
	token := bearerToken(c)
	if token == "" {
		token = c.Cookies(AccessTokenCookie)
	}
	result := h.service.SignOut(c.UserContext(), token)
	h.setCookie(c, AccessTokenCookie, "", time.Unix(0, 0))
	h.setCookie(c, RefreshTokenCookie, "", time.Unix(0, 0))
	return h.respond(c, result)
}

func (h *Handler) setCookie(c *fiber.Ctx, name, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// respond renders a Result. Browser form posts follow the redirect; API
// clients get JSON with a status derived from the failure kind.
func (h *Handler) respond(c *fiber.Ctx, result Result) error {
	redirectTo := result.RedirectTo()
	if redirectTo != "" && !wantsJSON(c) {
		return c.Redirect(redirectTo, http.StatusSeeOther)
	}
	if result.OK() {
		return c.Status(http.StatusOK).JSON(fiber.Map{"success": true, "redirectTo": redirectTo})
	}
	body := fiber.Map{"error": result.Failure.Message}
	if redirectTo != "" {
		body["redirectTo"] = redirectTo
	}
	return c.Status(StatusFor(result.Failure.Kind)).JSON(body)
}

// StatusFor maps a failure kind to an HTTP status.
func StatusFor(kind Kind) int {
	switch kind {
	case KindValidation, KindUpstreamRejection:
		return http.StatusBadRequest
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindUpstreamMalformed:
		return http.StatusBadGateway
	default:
		return http.StatusServiceUnavailable
	}
}

func parseForm(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(http.StatusBadRequest, "Invalid request body")
	}
	return nil
}

func wantsJSON(c *fiber.Ctx) bool {
	return strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) || c.Is("json")
}

func bearerToken(c *fiber.Ctx) string {
	auth := c.Get(fiber.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
