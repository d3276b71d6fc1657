package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"property-backend/internal/auth"
	"property-backend/internal/ledger"
	"property-backend/internal/models"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	Landlords LandlordFinder
	Tokens    *auth.JWTManager
}

func NewAuthService(landlords LandlordFinder, tokens *auth.JWTManager) *AuthService {
	return &AuthService{Landlords: landlords, Tokens: tokens}
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, ErrInvalidCredentials
	}

	landlord, err := s.Landlords.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.VerifyPassword(landlord.PasswordHash, req.Password) {
		log.Printf("[Auth] Failed login for landlord %d", landlord.ID)
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.Tokens.GenerateToken(landlord.ID, landlord.Email)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, ExpiresAt: expiresAt, Landlord: landlord}, nil
}
