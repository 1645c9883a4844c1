package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bmanav26/E-Commerce/internal/auth"
	"github.com/bmanav26/E-Commerce/internal/domain"
	"github.com/bmanav26/E-Commerce/internal/event"
	"github.com/bmanav26/E-Commerce/internal/mailer"
	"github.com/bmanav26/E-Commerce/internal/repository"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// defaultAvatarURL is used until the user uploads an avatar.
const defaultAvatarURL = "https://avatars.shop.example.com/default.png"

// Session is a signed credential handed to the client after authentication.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// UserService implements the business logic for user and auth operations.
type UserService struct {
	userRepo   repository.UserRepository
	jwtManager *auth.JWTManager
	denylist   auth.Revoker
	mailer     mailer.Mailer
	producer   *event.Producer
	logger     *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	jwtManager *auth.JWTManager,
	denylist auth.Revoker,
	m mailer.Mailer,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		jwtManager: jwtManager,
		denylist:   denylist,
		mailer:     m,
		producer:   producer,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for registering a new user.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput holds the parameters for updating a user's profile.
type UpdateProfileInput struct {
	Name      *string
	Email     *string
	AvatarURL *string
}

// AdminUpdateUserInput holds the parameters an admin may change on any user.
type AdminUpdateUserInput struct {
	Name  *string
	Email *string
	Role  *string
}

// Register creates a new user account, hashes the password, and opens a session.
// The role is always "user"; admins are promoted through the admin endpoints.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, *Session, error) {
	if input.Name == "" {
		return nil, nil, apperrors.InvalidInput("name is required")
	}
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         domain.RoleUser,
		AvatarURL:    defaultAvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	session, err := s.createSession(user)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, session, nil
}

// Login authenticates a user with email and password and opens a session.
// Unknown email and wrong password produce the same error.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *Session, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	session, err := s.createSession(user)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, session, nil
}

// Logout revokes the session token until its natural expiry. An invalid or
// already expired token is a no-op so logout stays idempotent.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	claims, err := s.jwtManager.Validate(token)
	if err != nil {
		return nil
	}

	if err := s.denylist.Revoke(ctx, token, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged out",
		slog.String("user_id", claims.UserID),
	)

	return nil
}

// ForgotPassword generates a reset token, stores its digest with a 15 minute
// expiry, and emails the raw token. If the email cannot be sent the stored
// digest is cleared again so the token in the failed mail is never usable.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("get user by email: %w", err)
	}

	token, digest, expiresAt, err := auth.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}

	user.ResetPasswordToken = &digest
	user.ResetPasswordExpires = &expiresAt
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("store reset token: %w", err)
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Name, token); err != nil {
		user.ResetPasswordToken = nil
		user.ResetPasswordExpires = nil
		if clearErr := s.userRepo.Update(ctx, user); clearErr != nil {
			s.logger.ErrorContext(ctx, "failed to clear reset token after mail failure",
				slog.String("user_id", user.ID),
				slog.String("error", clearErr.Error()),
			)
		}
		return fmt.Errorf("send password reset email: %w", err)
	}

	// Publish password reset event (non-blocking on failure).
	if err := s.producer.PublishUserPasswordReset(ctx, user.ID, user.Email); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.password_reset event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return nil
}

// ResetPassword sets a new password for the user matching the reset token and
// opens a fresh session. Expired and unknown tokens fail identically.
func (s *UserService) ResetPassword(ctx context.Context, token, password, confirmPassword string) (*domain.User, *Session, error) {
	if token == "" {
		return nil, nil, apperrors.InvalidInput("reset token is required")
	}
	if password != confirmPassword {
		return nil, nil, apperrors.InvalidInput("password does not match confirmation")
	}
	if err := validatePassword(password); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByResetDigest(ctx, auth.HashToken(token))
	if err != nil {
		return nil, nil, apperrors.InvalidInput("reset password token is invalid or has expired")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	user.ResetPasswordToken = nil
	user.ResetPasswordExpires = nil
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("update user password: %w", err)
	}

	session, err := s.createSession(user)
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return user, session, nil
}

// UpdatePassword changes the password of an authenticated user and opens a
// fresh session.
func (s *UserService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword, confirmPassword string) (*Session, error) {
	if oldPassword == "" {
		return nil, apperrors.InvalidInput("old password is required")
	}
	if newPassword != confirmPassword {
		return nil, apperrors.InvalidInput("password does not match confirmation")
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for password change: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return nil, apperrors.Unauthorized("old password is incorrect")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hashedPassword)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user password: %w", err)
	}

	session, err := s.createSession(user)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return session, nil
}

// GetProfile retrieves a user by their ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile updates the caller's own profile fields. The role can never be
// changed through this path.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		user.Name = *input.Name
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user profile updated",
		slog.String("user_id", user.ID),
	)

	return user, nil
}

// --- Admin Operations ---

// ListUsers returns all users, newest first.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser retrieves any user by id.
func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// UpdateUser lets an admin change a user's name, email, or role.
func (s *UserService) UpdateUser(ctx context.Context, id string, input AdminUpdateUserInput) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user for admin update: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("name must not be empty")
		}
		user.Name = *input.Name
	}
	if input.Email != nil {
		if *input.Email == "" {
			return nil, apperrors.InvalidInput("email must not be empty")
		}
		user.Email = *input.Email
	}
	if input.Role != nil {
		if !domain.IsValidRole(*input.Role) {
			return nil, apperrors.InvalidInput("role must be one of: user, admin")
		}
		user.Role = *input.Role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.logger.InfoContext(ctx, "user updated by admin",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	return user, nil
}

// DeleteUser removes a user account.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	s.logger.InfoContext(ctx, "user deleted by admin",
		slog.String("user_id", id),
	)

	return nil
}

// --- Helpers ---

func (s *UserService) createSession(user *domain.User) (*Session, error) {
	token, err := s.jwtManager.Generate(user.ID, user.Name, user.Email, user.Role)
	if err != nil {
		return nil, err
	}

	return &Session{
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(s.jwtManager.Expiry()),
	}, nil
}

// validatePassword checks that the password meets minimum complexity requirements.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}

	return nil
}
