package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Dosada05/tictactoe-arena/models"
	"github.com/Dosada05/tictactoe-arena/repositories"
	"golang.org/x/crypto/bcrypt"
)

const (
	nicknameMinLength = 3
	nicknameMaxLength = 50
	passwordMinLength = 6
)

var nicknamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type AuthService interface {
	Register(ctx context.Context, input models.Credentials) (*models.User, error)
	Login(ctx context.Context, input models.Credentials) (*models.User, error)
	Profile(ctx context.Context, userID int) (*models.User, error)
}

type authService struct {
	userRepo repositories.UserRepository
}

func NewAuthService(userRepo repositories.UserRepository) AuthService {
	return &authService{userRepo: userRepo}
}

func (s *authService) Register(ctx context.Context, input models.Credentials) (*models.User, error) {
	if err := validateCredentials(input); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Nickname:     input.Nickname,
		PasswordHash: string(hashedPassword),
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserNicknameConflict) {
			return nil, ErrNicknameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, input models.Credentials) (*models.User, error) {
	if input.Nickname == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: nickname and password are required", ErrValidationFailed)
	}

	user, err := s.userRepo.GetByNickname(ctx, input.Nickname)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by nickname: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	if err := s.userRepo.TouchLastLogin(ctx, user.ID); err != nil {
		return nil, fmt.Errorf("failed to update last login: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Profile(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	user.PasswordHash = ""
	return user, nil
}

func validateCredentials(input models.Credentials) error {
	if len(input.Nickname) < nicknameMinLength || len(input.Nickname) > nicknameMaxLength {
		return fmt.Errorf("%w: nickname must be between %d and %d characters",
			ErrValidationFailed, nicknameMinLength, nicknameMaxLength)
	}
	if !nicknamePattern.MatchString(input.Nickname) {
		return fmt.Errorf("%w: nickname can only contain letters, numbers, and underscores", ErrValidationFailed)
	}
	if len(input.Password) < passwordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters long",
			ErrValidationFailed, passwordMinLength)
	}
	return nil
}
