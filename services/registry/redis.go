package registry

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	apperrors "hotelpriceworker/pkg/errors"
)

const (
	groupListingsPrefix = "group_listings:"
	priceRangePrefix    = "price_range:"
)

// RedisRegistry implements Registry on Redis. Listings live in a hash per
// group keyed by URL; each price range is one JSON value keyed by group and
// creation timestamp.
type RedisRegistry struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisRegistry creates a new Redis-backed registry
func NewRedisRegistry(ctx context.Context, addr string, db int) *RedisRegistry {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	return &RedisRegistry{
		client: client,
		ctx:    ctx,
	}
}

// AddListing registers a listing under a group
func (r *RedisRegistry) AddListing(group string, listing Listing) error {
	if listing.URL == "" {
		return apperrors.NewValidation("registry", "listing URL is empty")
	}
	err := r.client.HSet(r.ctx, groupListingsPrefix+group, listing.URL, listing.Name).Err()
	if err != nil {
		return apperrors.NewCache("registry", "failed to add listing", err)
	}
	return nil
}

// Listings returns all listings of a group
func (r *RedisRegistry) Listings(group string) ([]Listing, error) {
	entries, err := r.client.HGetAll(r.ctx, groupListingsPrefix+group).Result()
	if err != nil {
		return nil, apperrors.NewCache("registry", "failed to read listings", err)
	}

	listings := make([]Listing, 0, len(entries))
	for url, name := range entries {
		listings = append(listings, Listing{URL: url, Name: name})
	}
	return listings, nil
}

// DeleteListing removes one listing URL from a group
func (r *RedisRegistry) DeleteListing(group string, url string) error {
	err := r.client.HDel(r.ctx, groupListingsPrefix+group, url).Err()
	if err != nil {
		return apperrors.NewCache("registry", "failed to delete listing", err)
	}
	return nil
}

// Groups returns all group names that have listings
func (r *RedisRegistry) Groups() ([]string, error) {
	keys, err := r.client.Keys(r.ctx, groupListingsPrefix+"*").Result()
	if err != nil {
		return nil, apperrors.NewCache("registry", "failed to list groups", err)
	}

	groups := make([]string, 0, len(keys))
	for _, key := range keys {
		groups = append(groups, strings.TrimPrefix(key, groupListingsPrefix))
	}
	return groups, nil
}

// AddPriceRange registers a pending price range
func (r *RedisRegistry) AddPriceRange(pr PriceRange) error {
	if pr.GroupName == "" {
		return apperrors.NewValidation("registry", "price range group name is empty")
	}
	payload, err := json.Marshal(pr)
	if err != nil {
		return apperrors.NewValidation("registry", "failed to encode price range")
	}
	err = r.client.Set(r.ctx, priceRangeKey(pr), payload, 0).Err()
	if err != nil {
		return apperrors.NewCache("registry", "failed to add price range", err)
	}
	return nil
}

// PendingRanges returns every pending price range across all groups
func (r *RedisRegistry) PendingRanges() ([]PriceRange, error) {
	keys, err := r.client.Keys(r.ctx, priceRangePrefix+"*").Result()
	if err != nil {
		return nil, apperrors.NewCache("registry", "failed to list price ranges", err)
	}

	ranges := make([]PriceRange, 0, len(keys))
	for _, key := range keys {
		payload, err := r.client.Get(r.ctx, key).Result()
		if err == redis.Nil {
			// Consumed by another worker between Keys and Get.
			continue
		}
		if err != nil {
			return nil, apperrors.NewCache("registry", "failed to read price range", err)
		}

		var pr PriceRange
		if err := json.Unmarshal([]byte(payload), &pr); err != nil {
			continue
		}
		ranges = append(ranges, pr)
	}
	return ranges, nil
}

// DeletePriceRange removes a consumed price range
func (r *RedisRegistry) DeletePriceRange(pr PriceRange) error {
	err := r.client.Del(r.ctx, priceRangeKey(pr)).Err()
	if err != nil {
		return apperrors.NewCache("registry", "failed to delete price range", err)
	}
	return nil
}

// Close closes the Redis connection
func (r *RedisRegistry) Close() error {
	return r.client.Close()
}

func priceRangeKey(pr PriceRange) string {
	return priceRangePrefix + pr.GroupName + ":" + strconv.FormatInt(pr.CreatedAt, 10)
}
