package identity

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type memoryUser struct {
	user User
	hash []byte
}

// MemoryProvider keeps credentials in process. It backs tests and
// AUTH_PROVIDER=memory development runs.
type MemoryProvider struct {
	mu       sync.RWMutex
	users    map[string]memoryUser
	sessions map[string]string
	resets   []string
}

// NewMemoryProvider builds an empty in-memory provider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		users:    make(map[string]memoryUser),
		sessions: make(map[string]string),
	}
}

func (p *MemoryProvider) SignUp(_ context.Context, input SignUpInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !strings.Contains(email, "@") {
		return User{}, &RejectedError{Status: http.StatusBadRequest, Code: "validation_failed", Message: "Unable to validate email address: invalid format"}
	}
	if len(input.Password) < 6 {
		return User{}, &RejectedError{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password should be at least 6 characters."}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.MinCost)
	if err != nil {
		return User{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.users[email]; exists {
		return User{}, &RejectedError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"}
	}
	user := User{ID: uuid.NewString(), Email: email}
	p.users[email] = memoryUser{user: user, hash: hash}
	return user, nil
}

func (p *MemoryProvider) SignInWithPassword(_ context.Context, email, password string) (Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	stored, ok := p.users[strings.ToLower(strings.TrimSpace(email))]
	if !ok || bcrypt.CompareHashAndPassword(stored.hash, []byte(password)) != nil {
		return Session{}, &RejectedError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid login credentials"}
	}
	token := uuid.NewString()
	p.sessions[token] = stored.user.Email
	return Session{AccessToken: token, RefreshToken: uuid.NewString(), ExpiresIn: 3600, User: stored.user}, nil
}

func (p *MemoryProvider) ResetPasswordForEmail(_ context.Context, email, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Unknown addresses succeed too, so the endpoint cannot enumerate accounts.
	p.resets = append(p.resets, strings.ToLower(strings.TrimSpace(email)))
	return nil
}

func (p *MemoryProvider) UpdatePassword(_ context.Context, accessToken, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	email, ok := p.sessions[accessToken]
	if !ok {
		return &RejectedError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT"}
	}
	stored := p.users[email]
	stored.hash = hash
	p.users[email] = stored
	return nil
}

func (p *MemoryProvider) SignOut(_ context.Context, accessToken string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sessions, accessToken)
	return nil
}

func (p *MemoryProvider) GetUser(_ context.Context, accessToken string) (User, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	email, ok := p.sessions[accessToken]
	if !ok {
		return User{}, &RejectedError{Status: http.StatusUnauthorized, Code: "bad_jwt", Message: "invalid JWT"}
	}
	return p.users[email].user, nil
}

// ResetRequests lists the addresses recovery emails were requested for.
func (p *MemoryProvider) ResetRequests() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.resets...)
}
