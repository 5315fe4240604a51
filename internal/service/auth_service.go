package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daykart/internal/domain"
	"daykart/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost is the cost factor for bcrypt hashing
	BcryptCost = 10

	// Token expiration times
	AccessTokenExpiration  = 15 * time.Minute
	RefreshTokenExpiration = 7 * 24 * time.Hour

	RoleUser  = "user"
	RoleAdmin = "admin"
)

var (
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token has expired")
	ErrUnknownReferralCode = errors.New("unknown referral code")
)

// AuthService defines the interface for authentication and profile
// business logic. A session is never an ambient flag: it is the role
// claim inside the JWT, constructed here and carried through request
// context by the auth middleware.
type AuthService interface {
	Register(ctx context.Context, email, password, fullName, referralCode string) (*domain.Profile, error)
	Login(ctx context.Context, email, password string) (accessToken, refreshToken string, profile *domain.Profile, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshToken(ctx context.Context, refreshToken string) (newAccessToken string, err error)
	ValidateToken(tokenString string) (*Claims, error)
	GetProfileByID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	UpdateContact(ctx context.Context, userID uuid.UUID, fullName, phone, address string) error
	EnsureAdmin(ctx context.Context, email, password string) error
}

// Claims represents the JWT claims
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	profileRepo      repository.ProfileRepository
	refreshTokenRepo repository.RefreshTokenRepository
	jwtSecret        string
}

// NewAuthService creates a new instance of AuthService
func NewAuthService(
	profileRepo repository.ProfileRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	jwtSecret string,
) AuthService {
	return &authService{
		profileRepo:      profileRepo,
		refreshTokenRepo: refreshTokenRepo,
		jwtSecret:        jwtSecret,
	}
}

// Register creates a new shopper profile. The referral code is derived
// from the new user id once and never regenerated. If a referral code
// is supplied it must resolve to an existing profile; referred_by is
// written at signup and never reassigned afterwards.
func (s *authService) Register(ctx context.Context, email, password, fullName, referralCode string) (*domain.Profile, error) {
	existing, err := s.profileRepo.FindByEmail(ctx, email)
	if err != nil && err != repository.ErrProfileNotFound {
		return nil, fmt.Errorf("failed to check existing profile: %w", err)
	}
	if existing != nil {
		return nil, repository.ErrProfileAlreadyExists
	}

	var referredBy *uuid.UUID
	if referralCode != "" {
		referrer, err := s.profileRepo.FindByReferralCode(ctx, referralCode)
		if err != nil {
			if err == repository.ErrProfileNotFound {
				return nil, ErrUnknownReferralCode
			}
			return nil, fmt.Errorf("failed to resolve referral code: %w", err)
		}
		referredBy = &referrer.ID
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	id := uuid.New()
	now := time.Now()
	profile := &domain.Profile{
		ID:           id,
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     fullName,
		ReferralCode: domain.ReferralCodeFor(id),
		ReferredBy:   referredBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return profile, nil
}

// Login authenticates a user and returns JWT tokens
func (s *authService) Login(ctx context.Context, email, password string) (accessToken, refreshToken string, profile *domain.Profile, err error) {
	profile, err = s.profileRepo.FindByEmail(ctx, email)
	if err != nil {
		if err == repository.ErrProfileNotFound {
			return "", "", nil, ErrInvalidCredentials
		}
		return "", "", nil, fmt.Errorf("failed to find profile: %w", err)
	}

	if err := s.verifyPassword(profile.PasswordHash, password); err != nil {
		return "", "", nil, ErrInvalidCredentials
	}

	accessToken, err = s.generateAccessToken(profile)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err = s.generateRefreshToken(ctx, profile)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return accessToken, refreshToken, profile, nil
}

// Logout invalidates the refresh token
func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.Revoke(ctx, refreshToken); err != nil {
		if err == repository.ErrRefreshTokenNotFound {
			// Token doesn't exist, consider it already logged out
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RefreshToken generates a new access token using a valid refresh token
func (s *authService) RefreshToken(ctx context.Context, refreshTokenString string) (newAccessToken string, err error) {
	refreshToken, err := s.refreshTokenRepo.FindByToken(ctx, refreshTokenString)
	if err != nil {
		if err == repository.ErrRefreshTokenNotFound || err == repository.ErrRefreshTokenRevoked {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}

	if time.Now().After(refreshToken.ExpiresAt) {
		return "", ErrTokenExpired
	}

	profile, err := s.profileRepo.FindByID(ctx, refreshToken.UserID)
	if err != nil {
		return "", fmt.Errorf("failed to find profile: %w", err)
	}

	newAccessToken, err = s.generateAccessToken(profile)
	if err != nil {
		return "", fmt.Errorf("failed to generate access token: %w", err)
	}

	return newAccessToken, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *authService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetProfileByID retrieves a profile by ID
func (s *authService) GetProfileByID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	profile, err := s.profileRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

// UpdateContact updates the profile's contact fields
func (s *authService) UpdateContact(ctx context.Context, userID uuid.UUID, fullName, phone, address string) error {
	return s.profileRepo.UpdateContact(ctx, userID, fullName, phone, address)
}

// EnsureAdmin creates the configured admin account if it does not
// exist. The credential pair comes from configuration and grants the
// admin role through an ordinary session, not an ambient flag.
func (s *authService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	_, err := s.profileRepo.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if err != repository.ErrProfileNotFound {
		return fmt.Errorf("failed to check admin profile: %w", err)
	}

	hashedPassword, err := s.hashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	id := uuid.New()
	now := time.Now()
	admin := &domain.Profile{
		ID:           id,
		Email:        email,
		PasswordHash: hashedPassword,
		FullName:     "Store Admin",
		IsAdmin:      true,
		ReferralCode: domain.ReferralCodeFor(id),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.profileRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin profile: %w", err)
	}

	return nil
}

// hashPassword hashes a password using bcrypt
func (s *authService) hashPassword(password string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashedBytes), nil
}

// verifyPassword verifies a password against a bcrypt hash
func (s *authService) verifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func roleOf(profile *domain.Profile) string {
	if profile.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// generateAccessToken generates a JWT access token with user ID and role claims
func (s *authService) generateAccessToken(profile *domain.Profile) (string, error) {
	expirationTime := time.Now().Add(AccessTokenExpiration)
	claims := &Claims{
		UserID: profile.ID,
		Role:   roleOf(profile),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// generateRefreshToken generates a refresh token and stores it in the database
func (s *authService) generateRefreshToken(ctx context.Context, profile *domain.Profile) (string, error) {
	tokenString := uuid.New().String()

	refreshToken := &domain.RefreshToken{
		ID:        uuid.New(),
		UserID:    profile.ID,
		Token:     tokenString,
		ExpiresAt: time.Now().Add(RefreshTokenExpiration),
		CreatedAt: time.Now(),
		Revoked:   false,
	}

	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return "", err
	}

	return tokenString, nil
}
