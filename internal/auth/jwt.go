package auth

import (
	"errors"
	"time"

	"property-backend/internal/config"
	"property-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims scope every request to one landlord
type Claims struct {
	LandlordID int    `json:"landlord_id"`
	Email      string `json:"email"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{
		secret: []byte(cfg.JWT.Secret),
		issuer: cfg.JWT.Issuer,
		ttl:    time.Duration(cfg.JWT.ExpirationHours) * time.Hour,
	}
}

// GenerateToken creates a signed token for a landlord
func (j *JWTManager) GenerateToken(landlordID int, email string) (string, time.Time, error) {
	now := timeutil.Now()
	expiresAt := now.Add(j.ttl)

	claims := &Claims{
		LandlordID: landlordID,
		Email:      email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secret)
	return signed, expiresAt, err
}

// ValidateToken verifies a token and returns its claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(j.issuer))
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.LandlordID <= 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
