package services

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"armazem/internal/config"
)

const (
	tokenDuration = 8 * time.Hour
	bcryptCost    = 12
)

var ErrBadPassword = errors.New("incorrect password")

// AuthService issues short-lived tokens against the two shared passwords
// (admin and volunteer). Only the bcrypt hashes are kept in memory.
type AuthService struct {
	secret        []byte
	adminHash     []byte
	volunteerHash []byte
}

func NewAuthService(cfg config.Config) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET_KEY not set")
	}
	if cfg.AdminPassword == "" || cfg.VolunteerPassword == "" {
		return nil, errors.New("ADMIN_PASSWORD and VOLUNTEER_PASSWORD must be set")
	}
	ah, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcryptCost)
	if err != nil {
		return nil, err
	}
	vh, err := bcrypt.GenerateFromPassword([]byte(cfg.VolunteerPassword), bcryptCost)
	if err != nil {
		return nil, err
	}
	return &AuthService{secret: []byte(cfg.JWTSecret), adminHash: ah, volunteerHash: vh}, nil
}

func (s *AuthService) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(s.adminHash, []byte(password)) == nil ||
		bcrypt.CompareHashAndPassword(s.volunteerHash, []byte(password)) == nil
}

// Login exchanges a valid shared password for a signed HS256 token.
func (s *AuthService) Login(password string) (string, int64, error) {
	if !s.CheckPassword(password) {
		return "", 0, ErrBadPassword
	}
	expires := time.Now().Add(tokenDuration)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", 0, err
	}
	return tok, expires.Unix(), nil
}

func (s *AuthService) VerifyToken(tokenString string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !tok.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Authorize accepts either the shared password or a still-valid token.
// Cart creation uses this so an open login session keeps working.
func (s *AuthService) Authorize(credential string) bool {
	if s.CheckPassword(credential) {
		return true
	}
	_, err := s.VerifyToken(credential)
	return err == nil
}
