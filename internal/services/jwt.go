package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "coachlink-api"

type JWTService struct {
	secret       []byte
	accessExpiry time.Duration
	parser       *jwt.Parser
}

type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	jwt.RegisteredClaims
}

type AccessToken struct {
	Token     string
	ExpiresAt time.Time
}

func NewJWTService(secret string, accessExpiry time.Duration) *JWTService {
	return &JWTService{
		secret:       []byte(secret),
		accessExpiry: accessExpiry,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithExpirationRequired(),
		),
	}
}

// GenerateAccessToken signs a token asserting the user's id and verified email. Tokens are
// normally minted by the identity provider; this is used by the admin CLI and tests.
func (s *JWTService) GenerateAccessToken(userID uuid.UUID, email string) (*AccessToken, error) {
	now := time.Now()
	expiresAt := now.Add(s.accessExpiry)

	claims := Claims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   userID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// ValidateAccessToken accepts only HS256 tokens issued by this service that carry a user
// id.
func (s *JWTService) ValidateAccessToken(tokenString string) (*Claims, error) {
	var claims Claims
	_, err := s.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.UserID == uuid.Nil {
		return nil, errors.New("token has no user id")
	}
	return &claims, nil
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Email: c.Email}
}
