package accounts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/core"
	"stockroom/internal/validation"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// MaxPasswordBytes is bcrypt's input limit; longer passwords cannot be hashed.
const MaxPasswordBytes = 72

const invalidCredentialsMessage = "No active account found with the given credentials"

// RegisterInput is the body accepted by the registration endpoint.
type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

// Service implements registration and credential checks.
type Service struct {
	store     Store
	cost      int
	validator *validation.Validator
	now       func() time.Time
	dummyHash []byte
}

// NewService creates a Service hashing passwords with the given bcrypt cost.
// A cost outside bcrypt's range selects bcrypt.DefaultCost.
func NewService(store Store, cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Compared against when the username is unknown so both paths cost a hash.
	dummy, _ := bcrypt.GenerateFromPassword([]byte("stockroom-unknown-user"), cost)
	return &Service{
		store:     store,
		cost:      cost,
		validator: validation.New(),
		now:       time.Now,
		dummyHash: dummy,
	}
}

// Register validates in, hashes the password and stores a new user whose
// flags follow the requested role.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*core.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)

	fields := validation.Fields(s.validator.Validate(in))
	if fields == nil {
		fields = make(map[string]string)
	}
	if _, bad := fields["password"]; !bad && len(in.Password) > MaxPasswordBytes {
		fields["password"] = fmt.Sprintf("Ensure this field has no more than %d bytes.", MaxPasswordBytes)
	}
	role := core.Role(in.Role)
	switch {
	case in.Role == "":
		fields["role"] = "This field is required."
	case !role.Valid():
		fields["role"] = "Role must be either 'admin' or 'staff'."
	}
	if len(fields) > 0 {
		return nil, core.NewValidationError(fields)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &core.User{
		Username:     in.Username,
		PasswordHash: string(hash),
		DateJoined:   s.now().UTC().Truncate(time.Second),
	}
	user.ApplyRole(role)

	if err := s.store.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return nil, core.NewConflictError("username", "A user with that username already exists.", err)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("user registered", "id", user.ID, "username", user.Username, "role", role)
	return user, nil
}

// Authenticate checks a username/password pair.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*core.User, error) {
	user, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(password))
		return nil, core.NewAuthenticationError(invalidCredentialsMessage)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, core.NewAuthenticationError(invalidCredentialsMessage)
	}
	return user, nil
}

// Get returns the user with the given id. Unknown ids yield ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (*core.User, error) {
	return s.store.GetByID(ctx, id)
}
