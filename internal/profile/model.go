package profile

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no profile matches.
var ErrNotFound = errors.New("profile not found")

// Profile is the application-side record of a user, keyed by the auth user id.
// Name and CompanyName are optional and stored as NULL when empty.
type Profile struct {
	ID          string    `json:"id"`
	AuthUserID  string    `json:"auth_user_id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	CompanyName string    `json:"company_name"`
	CreatedAt   time.Time `json:"created_at"`
}
