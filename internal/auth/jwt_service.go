package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "bookstack/internal/errors"
	"bookstack/internal/model"
)

// Token kinds carried in the claims. Access and refresh tokens are
// structurally identical apart from kind and expiry window.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims represents JWT claims for both token kinds.
type Claims struct {
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	Kind     string     `json:"kind"`
	jwt.RegisteredClaims
}

// UserID returns the numeric subject of the token.
func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, apperrors.ErrInvalidToken
	}
	return uint(id), nil
}

// JWTService issues and verifies signed tokens. Verification is purely a
// function of the token content and the shared secret; no session state.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewJWTService creates a new JWT service with the given secret and lifetimes.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssueTokens generates an access and a refresh token for the user.
func (s *JWTService) IssueTokens(user *model.User) (accessToken, refreshToken string, err error) {
	accessToken, err = s.sign(user, TokenKindAccess, s.accessTTL, "")
	if err != nil {
		return "", "", err
	}
	refreshToken, err = s.sign(user, TokenKindRefresh, s.refreshTTL, uuid.New().String())
	if err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

// IssueAccessToken generates a fresh access token, used by the refresh flow.
func (s *JWTService) IssueAccessToken(user *model.User) (string, error) {
	return s.sign(user, TokenKindAccess, s.accessTTL, "")
}

func (s *JWTService) sign(user *model.User, kind string, ttl time.Duration, jti string) (string, error) {
	now := time.Now()
	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// VerifyToken validates a token's signature, expiry and claims.
func (s *JWTService) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}
	if claims.Subject == "" || claims.Kind == "" || !claims.Role.Valid() {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}
