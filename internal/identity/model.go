package identity

// User is a registered credential. ID is the auth user id every other record
// hangs off.
type User struct {
	ID    string
	Email string
}

// Session is issued by a successful password sign-in.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int
	User         User
}

// SignUpInput carries what the registrar needs to create a credential.
// RedirectTo is where the confirmation email sends the user back.
type SignUpInput struct {
	Email      string
	Password   string
	RedirectTo string
}
