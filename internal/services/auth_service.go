package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"taskapi/internal/models"
	"taskapi/internal/repositories"
	"taskapi/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// TokenType is reported to clients alongside every issued token.
const TokenType = "bearer"

// TokenClaims are the JWT claims issued by AuthService.
type TokenClaims struct {
	UserID uint `json:"user_id"`
	jwt.StandardClaims
}

// ExpiresAtTime returns the exp claim as a time.Time.
func (c *TokenClaims) ExpiresAtTime() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

// AuthResult is returned by every operation that issues a token.
type AuthResult struct {
	User  *models.User
	Token string
}

// AuthService handles business logic for authentication and authorization.
type AuthService struct {
	userRepo   repositories.UserRepository
	revoked    repositories.RevokedTokenRepository
	validator  *validation.Validator
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	now        func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	userRepo repositories.UserRepository,
	revoked repositories.RevokedTokenRepository,
	validator *validation.Validator,
	jwtSecret string,
	tokenDuration time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		revoked:    revoked,
		validator:  validator,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDuration,
		now:        time.Now,
	}
}

// Register validates req, creates the user with a bcrypt hashed password and
// signs them in. A taken email is reported as a validation error on "email".
func (s *AuthService) Register(ctx context.Context, req validation.RegisterRequest) (*AuthResult, error) {
	errs, err := s.validator.Collect(req)
	if err != nil {
		return nil, err
	}
	if !errs.Has("email") {
		taken, err := s.userRepo.ExistsByEmail(ctx, req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if taken {
			errs.Add("email", validation.TakenMessage("email"))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email and password. Unknown emails and wrong
// passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, req validation.LoginRequest) (*AuthResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// Logout revokes the presented token.
func (s *AuthService) Logout(ctx context.Context, claims *TokenClaims) error {
	return s.revoke(ctx, claims)
}

// Refresh revokes the presented token and issues a new one for the same user.
func (s *AuthService) Refresh(ctx context.Context, claims *TokenClaims) (*AuthResult, error) {
	user, err := s.CurrentUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		return nil, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// CurrentUser loads the user a token is bound to. A token for a user that no
// longer exists is treated as unauthenticated.
func (s *AuthService) CurrentUser(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}
	return user, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if
// the signature and expiry are valid, the token has not been revoked and its
// user still exists.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	claims := &TokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Validate the alg is what we expect:
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return nil, ErrUnauthenticated
	}
	if !token.Valid || claims.UserID == 0 || claims.Id == "" {
		return nil, ErrUnauthenticated
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.Id)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrUnauthenticated
	}

	// The account may have been removed after the token was issued.
	if _, err := s.CurrentUser(ctx, claims.UserID); err != nil {
		return nil, err
	}
	return claims, nil
}

func (s *AuthService) issueToken(userID uint) (string, error) {
	now := s.now()
	claims := TokenClaims{
		UserID: userID,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Subject:   strconv.FormatUint(uint64(userID), 10),
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(s.tokenDurat).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

func (s *AuthService) revoke(ctx context.Context, claims *TokenClaims) error {
	if err := s.revoked.Revoke(ctx, claims.Id, claims.ExpiresAtTime()); err != nil {
		return err
	}
	if err := s.revoked.PurgeExpired(ctx, s.now()); err != nil {
		log.Printf("Warning: %v", err)
	}
	return nil
}
