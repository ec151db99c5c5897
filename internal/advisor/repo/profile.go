package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mandry-ai/server/internal/advisor/model"
	errx "github.com/mandry-ai/server/internal/core/error"
	logx "github.com/mandry-ai/server/pkg/logger"
)

// ProfileRepository stores one profile per user. Profiles are created lazily
// on the first message and never deleted by the engine; Clear exists for
// external admin use.
type ProfileRepository interface {
	// Get returns the stored profile, or nil when the user has none.
	Get(ctx context.Context, userID string) (*model.Profile, error)

	// GetOrCreate returns the stored profile, creating and persisting an
	// empty one when absent. The second return reports creation.
	GetOrCreate(ctx context.Context, userID string) (*model.Profile, bool, error)

	// Save persists the profile.
	Save(ctx context.Context, profile *model.Profile) error

	// Clear removes the stored profile.
	Clear(ctx context.Context, userID string) error
}

type RedisProfileRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

// NewRedisProfileRepository creates a Redis-backed repository. A ttl of zero
// keeps profiles forever.
func NewRedisProfileRepository(rdb redis.Cmdable, ttl time.Duration) *RedisProfileRepository {
	return &RedisProfileRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisProfileRepository) profileKey(userID string) string {
	return fmt.Sprintf("profile:%s", userID)
}

func (r *RedisProfileRepository) Get(ctx context.Context, userID string) (*model.Profile, error) {
	key := r.profileKey(userID)
	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load profile from redis")
		return nil, errx.WrapRedis(err)
	}

	var profile model.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal profile")
		return nil, fmt.Errorf("unmarshal profile %s: %w", userID, err)
	}
	return &profile, nil
}

func (r *RedisProfileRepository) GetOrCreate(ctx context.Context, userID string) (*model.Profile, bool, error) {
	profile, err := r.Get(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if profile != nil {
		return profile, false, nil
	}

	profile = model.NewProfile(userID)
	if err := r.Save(ctx, profile); err != nil {
		return nil, false, err
	}
	logx.Debug().Str("user_id", userID).Msg("created new profile")
	return profile, true, nil
}

func (r *RedisProfileRepository) Save(ctx context.Context, profile *model.Profile) error {
	b, err := json.Marshal(profile)
	if err != nil {
		logx.Error().Err(err).Str("user_id", profile.UserID).Msg("failed to marshal profile")
		return fmt.Errorf("marshal profile: %w", err)
	}
	key := r.profileKey(profile.UserID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save profile to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisProfileRepository) Clear(ctx context.Context, userID string) error {
	key := r.profileKey(userID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete profile from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ ProfileRepository = (*RedisProfileRepository)(nil)
