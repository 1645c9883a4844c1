package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// denylistPrefix namespaces revoked-token keys in Redis.
const denylistPrefix = "session:denylist:"

// Revoker marks session tokens as revoked and answers revocation checks.
type Revoker interface {
	Revoke(ctx context.Context, token string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// Denylist tracks revoked session tokens in Redis. Logout writes the token
// digest with a TTL equal to the token's remaining validity, so entries
// expire exactly when the token itself would.
type Denylist struct {
	client *redis.Client
}

// NewDenylist creates a denylist backed by the given Redis client.
func NewDenylist(client *redis.Client) *Denylist {
	return &Denylist{client: client}
}

// Revoke marks the token as revoked until its natural expiry.
func (d *Denylist) Revoke(ctx context.Context, token string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		// Already expired; nothing to deny.
		return nil
	}

	key := denylistPrefix + HashToken(token)
	if err := d.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke session token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token has been revoked.
func (d *Denylist) IsRevoked(ctx context.Context, token string) (bool, error) {
	key := denylistPrefix + HashToken(token)
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("check session denylist: %w", err)
	}
	return n > 0, nil
}
