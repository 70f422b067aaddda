package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"home_climate/internal/models"
	"home_climate/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = 30 * 24 * time.Hour
	defaultSigningKey = "change-me"
)

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrUsernameTaken   = repository.ErrUsernameTaken
)

// AuthService handles user auth logic
type AuthService struct {
	users      repository.UserRepo
	signingKey []byte
	tokenTTL   time.Duration
	admins     map[string]struct{}
}

// NewAuthService builds the service. Usernames listed in admins get the admin
// flag when they sign up.
func NewAuthService(users repository.UserRepo, signingKey string, tokenTTL time.Duration, admins ...string) *AuthService {
	if signingKey == "" {
		signingKey = defaultSigningKey
	}
	if tokenTTL <= 0 {
		tokenTTL = defaultTokenTTL
	}
	set := make(map[string]struct{}, len(admins))
	for _, a := range admins {
		set[strings.TrimSpace(a)] = struct{}{}
	}
	return &AuthService{users: users, signingKey: []byte(signingKey), tokenTTL: tokenTTL, admins: set}
}

// SignUp hashes the password and stores the account. Usernames from the
// configured admin list get the admin flag.
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	_, admin := s.admins[username]
	u, err := s.users.Create(ctx, models.User{Username: username, PasswordHash: hash, Admin: admin})
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int  `json:"user_id"`
	Admin  bool `json:"admin"`
}

// GenerateToken checks the credentials and issues a signed token.
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return "", ErrInvalidPassword
	}
	return s.issueToken(u.ID, u.Admin)
}

// ParseToken parses JWT and returns its claims
func (s *AuthService) ParseToken(accessToken string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Ensure HMAC signing is used
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// helper: hash password safely
func hashPassword(password string) (string, error) {
	if strings.TrimSpace(password) == "" {
		return "", errors.New("password is empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// helper: verify password against hash
func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// helper: issue a signed JWT for a user
func (s *AuthService) issueToken(userID int, admin bool) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
		Admin:  admin,
	})
	return token.SignedString(s.signingKey)
}
