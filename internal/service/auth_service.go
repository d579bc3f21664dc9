package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"malaria_clinic/internal/models"
	"malaria_clinic/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const defaultTokenTTL = time.Hour

// Domain errors for auth flows.
var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrEmptyPassword   = errors.New("password is empty")
)

// AuthService handles user auth logic
type AuthService struct {
	authRepo   repository.Authorization
	signingKey []byte
	tokenTTL   time.Duration
}

func NewAuthService(repo repository.Authorization, signingKey string, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &AuthService{authRepo: repo, signingKey: []byte(signingKey), tokenTTL: ttl}
}

// CheckCredentials reports whether username (any case) exists and its stored
// password matches the trimmed password. Plain-text rows from older
// databases are accepted and re-hashed.
func (s *AuthService) CheckCredentials(ctx context.Context, username, password string) (bool, error) {
	_, err := s.authenticate(ctx, username, password)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
		return false, nil
	default:
		return false, err
	}
}

// SignUp hashes password and creates a new user
func (s *AuthService) SignUp(ctx context.Context, username, password string) (int, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return 0, errors.New("username is empty")
	}
	hash, err := hashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("invalid password: %w", err)
	}
	return s.authRepo.Create(ctx, username, hash)
}

// EnsureAdmin seeds the first account when the Users table is empty.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) (bool, error) {
	n, err := s.authRepo.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := s.SignUp(ctx, username, password); err != nil {
		return false, fmt.Errorf("seed admin user: %w", err)
	}
	return true, nil
}

// Claims defines JWT claims
type Claims struct {
	jwt.RegisteredClaims
	UserID int `json:"user_id"`
}

// GenerateToken validates credentials and returns JWT
func (s *AuthService) GenerateToken(ctx context.Context, username, password string) (string, error) {
	u, err := s.authenticate(ctx, username, password)
	if err != nil {
		return "", err
	}
	return s.issueToken(u.ID)
}

// ParseToken parses JWT and returns userID
func (s *AuthService) ParseToken(accessToken string) (int, error) {
	token, err := jwt.ParseWithClaims(accessToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil {
		return 0, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return 0, ErrInvalidToken
	}

	return claims.UserID, nil
}

func (s *AuthService) authenticate(ctx context.Context, username, password string) (*models.User, error) {
	u, err := s.authRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	if !isHashed(u.PasswordHash) {
		return s.authenticateLegacy(ctx, u, password)
	}
	if err := verifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidPassword
	}
	return u, nil
}

// authenticateLegacy checks a row written before passwords were hashed and
// upgrades it to bcrypt on success. A failed upgrade leaves the plain row
// usable.
func (s *AuthService) authenticateLegacy(ctx context.Context, u *models.User, password string) (*models.User, error) {
	given := strings.TrimSpace(password)
	if given == "" || subtle.ConstantTimeCompare([]byte(u.PasswordHash), []byte(given)) != 1 {
		return nil, ErrInvalidPassword
	}
	if hash, err := hashPassword(given); err == nil {
		if err := s.authRepo.UpdatePassword(ctx, u.ID, hash); err == nil {
			u.PasswordHash = hash
		}
	}
	return u, nil
}

// isHashed reports whether stored looks like a bcrypt hash ($2a$, $2b$, $2y$).
func isHashed(stored string) bool {
	return strings.HasPrefix(stored, "$2")
}

// helper: hash the trimmed password; login trims input the same way
func hashPassword(password string) (string, error) {
	password = strings.TrimSpace(password)
	if password == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func verifyPassword(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(password)))
}

func (s *AuthService) issueToken(userID int) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID: userID,
	})
	return token.SignedString(s.signingKey)
}
