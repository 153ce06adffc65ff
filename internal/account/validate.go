package account

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Email       string `validate:"required"`
	Password    string `validate:"notblank"`
	FullName    string `validate:"omitempty,min=3,max=255"`
	CompanyName string `validate:"omitempty,min=3,max=255"`
	// Origin is the site the form was posted from; the confirmation email
	// links back to it.
	Origin string `validate:"-"`
}

// SignInInput is the sign-in form.
type SignInInput struct {
	Email    string `validate:"required"`
	Password string `validate:"notblank"`
}

// ForgotPasswordInput is the password recovery request form.
type ForgotPasswordInput struct {
	Email       string `validate:"required"`
	CallbackURL string `validate:"-"`
	Origin      string `validate:"-"`
}

// ResetPasswordInput is the new password form, submitted from a recovery session.
type ResetPasswordInput struct {
	AccessToken     string `validate:"-"`
	Password        string `validate:"notblank"`
	ConfirmPassword string `validate:"notblank"`
}

type fieldRule struct {
	field   string
	message string
}

// Sign-up fields are checked in this order and the first violation wins.
var signUpRules = []fieldRule{
	{"FullName", "Full name must be between 3 and 255 characters"},
	{"CompanyName", "Company name must be between 3 and 255 characters"},
	{"Email", "Email and password are required"},
	{"Password", "Email and password are required"},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

// ValidateSignUp trims the optional name fields and checks the form. It makes
// no external calls.
func ValidateSignUp(in SignUpInput) (SignUpInput, *Failure) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.CompanyName = strings.TrimSpace(in.CompanyName)
	if msg := firstViolation(in, signUpRules); msg != "" {
		return in, fail(KindValidation, msg)
	}
	return in, nil
}

// ValidateSignIn checks that both credentials are present.
func ValidateSignIn(in SignInInput) *Failure {
	if validate.Struct(in) != nil {
		return failWithRedirect(KindValidation, "error", signInPath, "Email and password are required")
	}
	return nil
}

// ValidateForgotPassword checks that an email is present.
func ValidateForgotPassword(in ForgotPasswordInput) *Failure {
	if validate.Struct(in) != nil {
		return failWithRedirect(KindValidation, "error", forgotPasswordPath, "Email is required")
	}
	return nil
}

// ValidateResetPassword checks that both passwords are present and equal.
func ValidateResetPassword(in ResetPasswordInput) *Failure {
	if validate.Struct(in) != nil {
		return failWithRedirect(KindValidation, "error", resetPasswordPath, "Password and confirm password are required")
	}
	if in.Password != in.ConfirmPassword {
		return failWithRedirect(KindValidation, "error", resetPasswordPath, "Passwords do not match")
	}
	return nil
}

func firstViolation(in any, rules []fieldRule) string {
	err := validate.Struct(in)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return rules[0].message
	}
	failed := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		failed[fe.StructField()] = true
	}
	for _, rule := range rules {
		if failed[rule.field] {
			return rule.message
		}
	}
	return rules[0].message
}
