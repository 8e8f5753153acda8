package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"taskapi/internal/models"
	"taskapi/internal/repositories"
	"taskapi/internal/services"
	"taskapi/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

// MockRevokedTokenRepository is a mock implementation of repositories.RevokedTokenRepository
type MockRevokedTokenRepository struct {
	mock.Mock
}

func (m *MockRevokedTokenRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	args := m.Called(ctx, tokenID, expiresAt)
	return args.Error(0)
}

func (m *MockRevokedTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRevokedTokenRepository) PurgeExpired(ctx context.Context, now time.Time) error {
	args := m.Called(ctx, now)
	return args.Error(0)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	code := m.Run()
	os.Exit(code)
}

func newAuthService(users *MockUserRepository, revoked *MockRevokedTokenRepository) *services.AuthService {
	return services.NewAuthService(users, revoked, validation.New(), testJWTSecret, time.Hour)
}

func hashedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{ID: 1, Name: "Test User", Email: "t@x.com", Password: string(hash)}
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	users.On("ExistsByEmail", ctx, "t@x.com").Return(false, nil).Once()
	users.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "t@x.com" &&
			u.Password != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")) == nil
	})).Return(nil).Once()

	result, err := service.Register(ctx, validation.RegisterRequest{
		Name:     "Test User",
		Email:    "t@x.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.User.ID)
	assert.NotEmpty(t, result.Token)
	users.AssertExpectations(t)
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	users.On("ExistsByEmail", ctx, "t@x.com").Return(true, nil).Once()

	_, err := service.Register(ctx, validation.RegisterRequest{
		Name:     "Test User",
		Email:    "t@x.com",
		Password: "password123",
	})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"The email has already been taken."}, verrs["email"])
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_RegisterReportsAllViolations(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	users.On("ExistsByEmail", ctx, "t@x.com").Return(true, nil).Once()

	_, err := service.Register(ctx, validation.RegisterRequest{Email: "t@x.com", Password: "short"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"The name field is required."}, verrs["name"])
	assert.Equal(t, []string{"The password field must be at least 8 characters."}, verrs["password"])
	assert.Equal(t, []string{"The email has already been taken."}, verrs["email"])
}

func TestAuthService_RegisterSkipsLookupForMalformedEmail(t *testing.T) {
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	_, err := service.Register(context.Background(), validation.RegisterRequest{Name: "n", Email: "nope", Password: "password123"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, []string{"The email field must be a valid email address."}, verrs["email"])
	users.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	users.On("GetByEmail", ctx, "t@x.com").Return(hashedUser(t, "password123"), nil).Once()

	result, err := service.Login(ctx, validation.LoginRequest{Email: "t@x.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, uint(1), result.User.ID)
	assert.NotEmpty(t, result.Token)
}

func TestAuthService_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	users.On("GetByEmail", ctx, "t@x.com").Return(hashedUser(t, "password123"), nil).Once()
	users.On("GetByEmail", ctx, "nobody@x.com").Return(nil, repositories.ErrNotFound).Once()

	_, wrongPassword := service.Login(ctx, validation.LoginRequest{Email: "t@x.com", Password: "wrongpass"})
	_, unknownEmail := service.Login(ctx, validation.LoginRequest{Email: "nobody@x.com", Password: "password123"})

	assert.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthService_LoginValidatesInput(t *testing.T) {
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	_, err := service.Login(context.Background(), validation.LoginRequest{Email: "t@x.com"})
	var verrs validation.Errors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs, "password")
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestAuthService_ValidateToken(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	revoked := new(MockRevokedTokenRepository)
	service := newAuthService(users, revoked)

	users.On("GetByEmail", ctx, "t@x.com").Return(hashedUser(t, "password123"), nil).Once()
	result, err := service.Login(ctx, validation.LoginRequest{Email: "t@x.com", Password: "password123"})
	require.NoError(t, err)

	revoked.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	users.On("GetByID", ctx, uint(1)).Return(result.User, nil).Once()

	claims, err := service.ValidateToken(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, uint(1), claims.UserID)
	assert.Equal(t, "1", claims.Subject)
	assert.NotEmpty(t, claims.Id)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAtTime(), time.Minute)
	revoked.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestAuthService_ValidateTokenForDeletedUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	revoked := new(MockRevokedTokenRepository)
	service := newAuthService(users, revoked)

	users.On("GetByEmail", ctx, "t@x.com").Return(hashedUser(t, "password123"), nil).Once()
	result, err := service.Login(ctx, validation.LoginRequest{Email: "t@x.com", Password: "password123"})
	require.NoError(t, err)

	revoked.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	users.On("GetByID", ctx, uint(1)).Return(nil, fmt.Errorf("user with ID 1: %w", repositories.ErrNotFound)).Once()

	_, err = service.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
	users.AssertExpectations(t)
}

func TestAuthService_ValidateTokenRejects(t *testing.T) {
	sign := func(t *testing.T, method jwt.SigningMethod, secret string, claims services.TokenClaims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return token
	}
	valid := func(exp time.Time) services.TokenClaims {
		return services.TokenClaims{
			UserID:         1,
			StandardClaims: jwt.StandardClaims{Id: "jti-1", ExpiresAt: exp.Unix()},
		}
	}

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{"garbage", func(t *testing.T) string { return "not.a.jwt" }},
		{"empty", func(t *testing.T) string { return "" }},
		{"expired", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, testJWTSecret, valid(time.Now().Add(-time.Minute)))
		}},
		{"wrong secret", func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, "other_secret", valid(time.Now().Add(time.Hour)))
		}},
		{"unsigned", func(t *testing.T) string {
			token, err := jwt.NewWithClaims(jwt.SigningMethodNone, valid(time.Now().Add(time.Hour))).
				SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			return token
		}},
		{"missing user id", func(t *testing.T) string {
			claims := valid(time.Now().Add(time.Hour))
			claims.UserID = 0
			return sign(t, jwt.SigningMethodHS256, testJWTSecret, claims)
		}},
		{"missing token id", func(t *testing.T) string {
			claims := valid(time.Now().Add(time.Hour))
			claims.Id = ""
			return sign(t, jwt.SigningMethodHS256, testJWTSecret, claims)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			revoked := new(MockRevokedTokenRepository)
			service := newAuthService(new(MockUserRepository), revoked)

			_, err := service.ValidateToken(context.Background(), tt.token(t))
			assert.ErrorIs(t, err, services.ErrUnauthenticated)
			revoked.AssertNotCalled(t, "IsRevoked", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_ValidateTokenRevoked(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	revoked := new(MockRevokedTokenRepository)
	service := newAuthService(users, revoked)

	users.On("GetByEmail", ctx, "t@x.com").Return(hashedUser(t, "password123"), nil).Once()
	result, err := service.Login(ctx, validation.LoginRequest{Email: "t@x.com", Password: "password123"})
	require.NoError(t, err)

	revoked.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	_, err = service.ValidateToken(ctx, result.Token)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)

	revoked.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, errors.New("db down")).Once()
	_, err = service.ValidateToken(ctx, result.Token)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrUnauthenticated)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	revoked := new(MockRevokedTokenRepository)
	service := newAuthService(new(MockUserRepository), revoked)

	exp := time.Unix(time.Now().Add(time.Hour).Unix(), 0)
	claims := &services.TokenClaims{
		UserID:         1,
		StandardClaims: jwt.StandardClaims{Id: "jti-1", ExpiresAt: exp.Unix()},
	}

	revoked.On("Revoke", ctx, "jti-1", exp).Return(nil).Once()
	revoked.On("PurgeExpired", ctx, mock.AnythingOfType("time.Time")).Return(errors.New("ignored")).Once()

	assert.NoError(t, service.Logout(ctx, claims))
	revoked.AssertExpectations(t)
}

func TestAuthService_LogoutRevokeFailure(t *testing.T) {
	ctx := context.Background()
	revoked := new(MockRevokedTokenRepository)
	service := newAuthService(new(MockUserRepository), revoked)

	claims := &services.TokenClaims{UserID: 1, StandardClaims: jwt.StandardClaims{Id: "jti-1"}}
	revoked.On("Revoke", ctx, "jti-1", mock.AnythingOfType("time.Time")).Return(errors.New("db down")).Once()

	assert.Error(t, service.Logout(ctx, claims))
	revoked.AssertNotCalled(t, "PurgeExpired", mock.Anything, mock.Anything)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	revoked := new(MockRevokedTokenRepository)
	service := newAuthService(users, revoked)

	user := hashedUser(t, "password123")
	users.On("GetByEmail", ctx, "t@x.com").Return(user, nil).Once()
	users.On("GetByID", ctx, uint(1)).Return(user, nil)
	revoked.On("IsRevoked", ctx, mock.AnythingOfType("string")).Return(false, nil)

	login, err := service.Login(ctx, validation.LoginRequest{Email: "t@x.com", Password: "password123"})
	require.NoError(t, err)
	claims, err := service.ValidateToken(ctx, login.Token)
	require.NoError(t, err)

	revoked.On("Revoke", ctx, claims.Id, claims.ExpiresAtTime()).Return(nil).Once()
	revoked.On("PurgeExpired", ctx, mock.AnythingOfType("time.Time")).Return(nil).Once()

	refreshed, err := service.Refresh(ctx, claims)
	require.NoError(t, err)
	assert.NotEqual(t, login.Token, refreshed.Token)
	assert.Equal(t, user, refreshed.User)

	newClaims, err := service.ValidateToken(ctx, refreshed.Token)
	require.NoError(t, err)
	assert.NotEqual(t, claims.Id, newClaims.Id)
	revoked.AssertExpectations(t)
}

func TestAuthService_CurrentUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	service := newAuthService(users, new(MockRevokedTokenRepository))

	users.On("GetByID", ctx, uint(1)).Return(&models.User{ID: 1, Email: "t@x.com"}, nil).Once()
	users.On("GetByID", ctx, uint(2)).Return(nil, repositories.ErrNotFound).Once()

	user, err := service.CurrentUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "t@x.com", user.Email)

	_, err = service.CurrentUser(ctx, 2)
	assert.ErrorIs(t, err, services.ErrUnauthenticated)
}
