package auth

import (
	"context"
	"time"

	"bookstack/internal/cache"
)

const denylistKeyPrefix = "denylist:refresh_token:"

// TokenStoreInterface defines the refresh-token denylist operations.
// Access tokens stay stateless; only refresh tokens revoked by logout are
// tracked, keyed by JTI with a TTL bounded by the token's natural expiry.
type TokenStoreInterface interface {
	DenyRefreshToken(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRefreshTokenDenied(ctx context.Context, tokenID string) (bool, error)
}

// TokenStore keeps the denylist in Redis.
type TokenStore struct {
	cache *cache.Client
}

var _ TokenStoreInterface = (*TokenStore)(nil)

// NewTokenStore creates a new token store.
func NewTokenStore(cache *cache.Client) *TokenStore {
	return &TokenStore{cache: cache}
}

// DenyRefreshToken marks a refresh token as revoked until it expires.
func (s *TokenStore) DenyRefreshToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	return s.cache.Set(ctx, denylistKeyPrefix+tokenID, []byte("1"), ttl)
}

// IsRefreshTokenDenied checks the denylist. Redis errors read as "not
// denied" so an unreachable redis cannot lock users out.
func (s *TokenStore) IsRefreshTokenDenied(ctx context.Context, tokenID string) (bool, error) {
	data, err := s.cache.Get(ctx, denylistKeyPrefix+tokenID)
	if err != nil {
		return false, nil
	}
	return data != nil, nil
}
