package principals

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tessera-hq/tessera/internal/access"
)

const cacheKeyPrefix = "principal:"

// Cache keeps resolved accounts in Redis so the access middleware does
// not hit the document store on every request. A nil Cache or client is
// a pass-through.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

type cachedAccount struct {
	Email         string   `json:"email"`
	Role          string   `json:"role"`
	Permissions   []string `json:"permissions"`
	Active        bool     `json:"active"`
	StakeholderID string   `json:"stakeholder_id"`
}

// Fetch loads a cached account, falling back to the loader and caching
// its result on a miss.
func (c *Cache) Fetch(ctx context.Context, id string, loader func(context.Context) (Account, error)) (Account, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	payload, err := c.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if err == nil {
		var cached cachedAccount
		if err := json.Unmarshal(payload, &cached); err == nil {
			// An entry that no longer parses is treated as a miss and
			// rebuilt from the store.
			if acc, err := c.decode(id, cached); err == nil {
				return acc, nil
			}
		}
	}
	acc, err := loader(ctx)
	if err != nil {
		return Account{}, err
	}
	raw, err := json.Marshal(cachedAccount{
		Email:         acc.Email,
		Role:          acc.Role.String(),
		Permissions:   acc.PermissionList(),
		Active:        acc.Active,
		StakeholderID: acc.StakeholderID,
	})
	if err == nil {
		_ = c.client.Set(ctx, cacheKeyPrefix+id, raw, c.ttl).Err()
	}
	return acc, nil
}

// Invalidate drops the cached entry after a mutation.
func (c *Cache) Invalidate(ctx context.Context, id string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, cacheKeyPrefix+id).Err()
}

func (c *Cache) decode(id string, cached cachedAccount) (Account, error) {
	role, err := access.ParseRole(cached.Role)
	if err != nil {
		return Account{}, err
	}
	acc := Account{Principal: access.Principal{
		ID:            id,
		Email:         cached.Email,
		Role:          role,
		Active:        cached.Active,
		StakeholderID: cached.StakeholderID,
	}}
	for _, tag := range cached.Permissions {
		perm, err := access.ParsePermission(tag)
		if err != nil {
			return Account{}, err
		}
		acc.Grant(perm)
	}
	return acc, nil
}
