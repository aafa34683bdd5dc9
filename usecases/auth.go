package usecases

import (
	"context"
	"errors"

	"store-rating-server/auth"
	"store-rating-server/entities"
	"store-rating-server/repositories"
)

const msgInvalidCredentials = "Invalid credentials"

type AuthUseCase struct {
	users  repositories.UserRepository
	hasher *auth.PasswordHasher
	tokens *auth.TokenIssuer
}

func NewAuthUseCase(users repositories.UserRepository, hasher *auth.PasswordHasher, tokens *auth.TokenIssuer) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: tokens}
}

// SignupInput carries an already shape-validated signup payload.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Address  string
	Role     string
}

type Session struct {
	Token  string
	UserID string
	Role   entities.Role
}

// Signup registers an account and opens a session for it. Role defaults to
// normal_user.
func (uc *AuthUseCase) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	role, err := roleOrDefault(in.Role)
	if err != nil {
		return nil, err
	}

	if _, err := uc.users.GetByEmail(ctx, in.Email); err == nil {
		return nil, conflictError("Email already registered")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, internalError("Failed to create user", err)
	}

	user, err := createUser(ctx, uc.users, uc.hasher, in, role)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, conflictError("Email already registered")
		}
		return nil, internalError("Failed to create user", err)
	}
	return uc.session(user)
}

// Login never reveals whether the email or the password was wrong.
func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := uc.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, authError(msgInvalidCredentials)
	}
	if err != nil {
		return nil, internalError("Login failed", err)
	}
	if !uc.hasher.Check(password, user.PasswordHash) {
		return nil, authError(msgInvalidCredentials)
	}
	return uc.session(user)
}

func (uc *AuthUseCase) session(user *entities.User) (*Session, error) {
	token, err := uc.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return nil, internalError("Could not create token", err)
	}
	return &Session{Token: token, UserID: user.ID, Role: user.Role}, nil
}

func roleOrDefault(raw string) (entities.Role, error) {
	if raw == "" {
		return entities.RoleNormalUser, nil
	}
	role, err := entities.ParseRole(raw)
	if err != nil {
		return "", validationError("Invalid role")
	}
	return role, nil
}

func createUser(ctx context.Context, users repositories.UserRepository, hasher *auth.PasswordHasher, in SignupInput, role entities.Role) (*entities.User, error) {
	hash, err := hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	user := &entities.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
		Address:      in.Address,
		Role:         role,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
