package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bmanav26/E-Commerce/internal/auth"
	"github.com/bmanav26/E-Commerce/internal/domain"
	"github.com/bmanav26/E-Commerce/internal/event"
	"github.com/bmanav26/E-Commerce/internal/repository"
	apperrors "github.com/bmanav26/E-Commerce/pkg/errors"
	pkgkafka "github.com/bmanav26/E-Commerce/pkg/kafka"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByResetDigest(ctx context.Context, digest string) (*domain.User, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

var _ repository.UserRepository = (*mockUserRepository)(nil)

// --- Mock Revoker ---

type mockRevoker struct {
	mock.Mock
}

func (m *mockRevoker) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	args := m.Called(ctx, token, expiresAt)
	return args.Error(0)
}

func (m *mockRevoker) IsRevoked(ctx context.Context, token string) (bool, error) {
	args := m.Called(ctx, token)
	return args.Bool(0), args.Error(1)
}

var _ auth.Revoker = (*mockRevoker)(nil)

// --- Mock Mailer ---

type mockMailer struct {
	mock.Mock
}

func (m *mockMailer) SendPasswordReset(ctx context.Context, toEmail, toName, resetToken string) error {
	args := m.Called(ctx, toEmail, toName, resetToken)
	return args.Error(0)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestJWTManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret-key-for-testing", 15*time.Minute)
}

func newTestEventProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	return event.NewProducer(kafkaProducer, logger)
}

func newTestUserService(userRepo *mockUserRepository, revoker *mockRevoker, m *mockMailer) *UserService {
	return NewUserService(userRepo, newTestJWTManager(), revoker, m, newTestEventProducer(), newTestLogger())
}

func strPtr(s string) *string {
	return &s
}

// hashForTest creates a bcrypt hash with cost 4 for fast tests.
func hashForTest(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), 4)
	if err != nil {
		panic(err)
	}
	return string(h)
}

func existingUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:           "u-1",
		Name:         "John Doe",
		Email:        "john@example.com",
		PasswordHash: hashForTest("SecurePass123"),
		Role:         domain.RoleUser,
		AvatarURL:    defaultAvatarURL,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// --- Register Tests ---

func TestRegister_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, session, err := svc.Register(ctx, RegisterInput{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	require.NotNil(t, session)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "john@example.com", user.Email)
	assert.Equal(t, "John Doe", user.Name)
	assert.Equal(t, domain.RoleUser, user.Role)
	assert.Equal(t, defaultAvatarURL, user.AvatarURL)
	assert.NotEmpty(t, session.Token)
	assert.True(t, session.ExpiresAt.After(time.Now()))
	assert.NotZero(t, user.CreatedAt)

	// The stored hash must verify against the plain password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("SecurePass123")))

	userRepo.AssertExpectations(t)
}

func TestRegister_RoleIsNeverClientControlled(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	var created *domain.User
	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)

	_, _, err := svc.Register(ctx, RegisterInput{
		Name:     "Mallory",
		Email:    "mallory@example.com",
		Password: "SecurePass123",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, created.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "john@example.com"))

	user, session, err := svc.Register(ctx, RegisterInput{
		Name:     "John Doe",
		Email:    "john@example.com",
		Password: "SecurePass123",
	})

	assert.Nil(t, user)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	userRepo.AssertExpectations(t)
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	for name, password := range map[string]string{
		"too short":    "Ab1",
		"no uppercase": "securepass123",
		"no digit":     "SecurePassword",
	} {
		t.Run(name, func(t *testing.T) {
			_, _, err := svc.Register(ctx, RegisterInput{
				Name:     "John Doe",
				Email:    "john@example.com",
				Password: password,
			})
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
		})
	}
}

func TestRegister_MissingName(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRevoker), new(mockMailer))

	_, _, err := svc.Register(context.Background(), RegisterInput{
		Email:    "john@example.com",
		Password: "SecurePass123",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Login Tests ---

func TestLogin_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "john@example.com").Return(existingUser(), nil)

	user, session, err := svc.Login(ctx, LoginInput{Email: "john@example.com", Password: "SecurePass123"})

	require.NoError(t, err)
	assert.Equal(t, "u-1", user.ID)
	assert.NotEmpty(t, session.Token)
	userRepo.AssertExpectations(t)
}

func TestLogin_UnknownEmailAndWrongPasswordAreIndistinguishable(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound)
	userRepo.On("GetByEmail", ctx, "john@example.com").Return(existingUser(), nil)

	_, _, errUnknown := svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "SecurePass123"})
	_, _, errWrongPw := svc.Login(ctx, LoginInput{Email: "john@example.com", Password: "WrongPass999"})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.ErrorIs(t, errUnknown, apperrors.ErrUnauthorized)
	assert.ErrorIs(t, errWrongPw, apperrors.ErrUnauthorized)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

// --- Logout Tests ---

func TestLogout_RevokesValidToken(t *testing.T) {
	revoker := new(mockRevoker)
	svc := newTestUserService(new(mockUserRepository), revoker, new(mockMailer))
	ctx := context.Background()

	token, err := newTestJWTManager().Generate("u-1", "John Doe", "john@example.com", domain.RoleUser)
	require.NoError(t, err)

	revoker.On("Revoke", ctx, token, mock.AnythingOfType("time.Time")).Return(nil)

	require.NoError(t, svc.Logout(ctx, token))
	revoker.AssertExpectations(t)
}

func TestLogout_InvalidTokenIsNoop(t *testing.T) {
	revoker := new(mockRevoker)
	svc := newTestUserService(new(mockUserRepository), revoker, new(mockMailer))

	assert.NoError(t, svc.Logout(context.Background(), "not-a-jwt"))
	assert.NoError(t, svc.Logout(context.Background(), ""))
	revoker.AssertNotCalled(t, "Revoke", mock.Anything, mock.Anything, mock.Anything)
}

// --- Forgot Password Tests ---

func TestForgotPassword_StoresDigestAndMailsRawToken(t *testing.T) {
	userRepo := new(mockUserRepository)
	m := new(mockMailer)
	svc := newTestUserService(userRepo, new(mockRevoker), m)
	ctx := context.Background()

	var storedDigest string
	var mailedToken string

	userRepo.On("GetByEmail", ctx, "john@example.com").Return(existingUser(), nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			u := args.Get(1).(*domain.User)
			require.NotNil(t, u.ResetPasswordToken)
			require.NotNil(t, u.ResetPasswordExpires)
			storedDigest = *u.ResetPasswordToken
			assert.WithinDuration(t, time.Now().Add(auth.ResetTokenLifetime), *u.ResetPasswordExpires, time.Minute)
		}).
		Return(nil)
	m.On("SendPasswordReset", ctx, "john@example.com", "John Doe", mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { mailedToken = args.Get(3).(string) }).
		Return(nil)

	require.NoError(t, svc.ForgotPassword(ctx, "john@example.com"))

	// Only the digest is stored; the raw token goes out by mail.
	assert.NotEqual(t, mailedToken, storedDigest)
	assert.Equal(t, auth.HashToken(mailedToken), storedDigest)
	userRepo.AssertExpectations(t)
	m.AssertExpectations(t)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	userRepo := new(mockUserRepository)
	m := new(mockMailer)
	svc := newTestUserService(userRepo, new(mockRevoker), m)
	ctx := context.Background()

	userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrNotFound)

	err := svc.ForgotPassword(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	m.AssertNotCalled(t, "SendPasswordReset", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestForgotPassword_MailFailureClearsStoredToken(t *testing.T) {
	userRepo := new(mockUserRepository)
	m := new(mockMailer)
	svc := newTestUserService(userRepo, new(mockRevoker), m)
	ctx := context.Background()

	var lastUpdate *domain.User

	userRepo.On("GetByEmail", ctx, "john@example.com").Return(existingUser(), nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { lastUpdate = args.Get(1).(*domain.User) }).
		Return(nil).Twice()
	m.On("SendPasswordReset", ctx, "john@example.com", "John Doe", mock.AnythingOfType("string")).
		Return(errors.New("gateway timeout"))

	err := svc.ForgotPassword(ctx, "john@example.com")

	require.Error(t, err)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidInput)
	require.NotNil(t, lastUpdate)
	assert.Nil(t, lastUpdate.ResetPasswordToken)
	assert.Nil(t, lastUpdate.ResetPasswordExpires)
	userRepo.AssertExpectations(t)
}

// --- Reset Password Tests ---

func TestResetPassword_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	rawToken := "aabbccddeeff00112233aabbccddeeff00112233"
	digest := auth.HashToken(rawToken)
	expires := time.Now().UTC().Add(10 * time.Minute)

	u := existingUser()
	u.ResetPasswordToken = &digest
	u.ResetPasswordExpires = &expires

	var updated *domain.User
	userRepo.On("GetByResetDigest", ctx, digest).Return(u, nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) { updated = args.Get(1).(*domain.User) }).
		Return(nil)

	user, session, err := svc.ResetPassword(ctx, rawToken, "BrandNewPass1", "BrandNewPass1")

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, u.ID, user.ID)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("BrandNewPass1")))
	assert.Nil(t, updated.ResetPasswordToken)
	assert.Nil(t, updated.ResetPasswordExpires)
	userRepo.AssertExpectations(t)
}

func TestResetPassword_InvalidOrExpiredToken(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByResetDigest", ctx, mock.AnythingOfType("string")).Return(nil, apperrors.ErrNotFound)

	_, _, err := svc.ResetPassword(ctx, "stale-token", "BrandNewPass1", "BrandNewPass1")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestResetPassword_ConfirmationMismatch(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRevoker), new(mockMailer))

	_, _, err := svc.ResetPassword(context.Background(), "some-token", "BrandNewPass1", "Different1Pass")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Update Password Tests ---

func TestUpdatePassword_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-1").Return(existingUser(), nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	session, err := svc.UpdatePassword(ctx, "u-1", "SecurePass123", "BrandNewPass1", "BrandNewPass1")

	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	userRepo.AssertExpectations(t)
}

func TestUpdatePassword_WrongOldPassword(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-1").Return(existingUser(), nil)

	_, err := svc.UpdatePassword(ctx, "u-1", "WrongPass999", "BrandNewPass1", "BrandNewPass1")
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestUpdatePassword_ConfirmationMismatch(t *testing.T) {
	svc := newTestUserService(new(mockUserRepository), new(mockRevoker), new(mockMailer))

	_, err := svc.UpdatePassword(context.Background(), "u-1", "SecurePass123", "BrandNewPass1", "Other1Password")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Profile Tests ---

func TestUpdateProfile_Success(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-1").Return(existingUser(), nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{
		Name:  strPtr("Johnny Doe"),
		Email: strPtr("johnny@example.com"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Johnny Doe", user.Name)
	assert.Equal(t, "johnny@example.com", user.Email)
	assert.Equal(t, domain.RoleUser, user.Role)
	userRepo.AssertExpectations(t)
}

func TestUpdateProfile_EmptyNameRejected(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-1").Return(existingUser(), nil)

	_, err := svc.UpdateProfile(ctx, "u-1", UpdateProfileInput{Name: strPtr("")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

// --- Admin Tests ---

func TestUpdateUser_RoleChange(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-1").Return(existingUser(), nil)
	userRepo.On("Update", ctx, mock.AnythingOfType("*domain.User")).Return(nil)

	user, err := svc.UpdateUser(ctx, "u-1", AdminUpdateUserInput{Role: strPtr(domain.RoleAdmin)})

	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)
	userRepo.AssertExpectations(t)
}

func TestUpdateUser_InvalidRole(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("GetByID", ctx, "u-1").Return(existingUser(), nil)

	_, err := svc.UpdateUser(ctx, "u-1", AdminUpdateUserInput{Role: strPtr("superuser")})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDeleteUser(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("Delete", ctx, "u-1").Return(nil)

	assert.NoError(t, svc.DeleteUser(ctx, "u-1"))
	userRepo.AssertExpectations(t)
}

func TestListUsers(t *testing.T) {
	userRepo := new(mockUserRepository)
	svc := newTestUserService(userRepo, new(mockRevoker), new(mockMailer))
	ctx := context.Background()

	userRepo.On("List", ctx).Return([]domain.User{*existingUser()}, nil)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
