package settings

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/stockroomapp/stockroom_bot/utils"
)

// Keys of the persisted user preferences. Settings have no expiration: they
// survive restarts until changed by explicit user action.
const (
	keySortMode          = "settings:sort_mode"
	keyFilterMode        = "settings:filter_mode"
	keySelectedPortfolio = "settings:selected_portfolio"
	keyPostMarket        = "settings:post_market"
	keyNotifications     = "settings:notifications"
	keyChartRange        = "settings:chart_range"
	keyFilterSets        = "settings:filter_sets"
)

var ErrNotFound = errors.New("not found")

type RedisSettings struct {
	redis *redis.Client
}

func NewRedisSettings(redisClient *redis.Client) *RedisSettings {
	return &RedisSettings{redis: redisClient}
}

func (s *RedisSettings) getInt(ctx context.Context, key string, fallback int) int {
	res, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", key), slog.String("err", err.Error()))
		}
		return fallback
	}
	value, err := strconv.Atoi(res)
	if err != nil {
		return fallback
	}
	return value
}

func (s *RedisSettings) setInt(ctx context.Context, key string, value int) error {
	err := s.redis.Set(ctx, key, strconv.Itoa(value), 0).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", key), slog.String("err", err.Error()))
	}
	return err
}

func (s *RedisSettings) GetSortMode(ctx context.Context) int {
	return s.getInt(ctx, keySortMode, 0)
}

func (s *RedisSettings) SetSortMode(ctx context.Context, mode int) error {
	return s.setInt(ctx, keySortMode, mode)
}

func (s *RedisSettings) GetFilterMode(ctx context.Context) int {
	return s.getInt(ctx, keyFilterMode, 0)
}

func (s *RedisSettings) SetFilterMode(ctx context.Context, mode int) error {
	return s.setInt(ctx, keyFilterMode, mode)
}

func (s *RedisSettings) GetChartRange(ctx context.Context) int {
	return s.getInt(ctx, keyChartRange, 0)
}

func (s *RedisSettings) SetChartRange(ctx context.Context, chartRange int) error {
	return s.setInt(ctx, keyChartRange, chartRange)
}

func (s *RedisSettings) GetSelectedPortfolio(ctx context.Context) string {
	res, err := s.redis.Get(ctx, keySelectedPortfolio).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			slog.Error("failed on redis.Get", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", keySelectedPortfolio), slog.String("err", err.Error()))
		}
		return ""
	}
	return res
}

func (s *RedisSettings) SetSelectedPortfolio(ctx context.Context, portfolio string) error {
	err := s.redis.Set(ctx, keySelectedPortfolio, portfolio, 0).Err()
	if err != nil {
		slog.Error("failed on redis.Set", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", keySelectedPortfolio), slog.String("err", err.Error()))
	}
	return err
}

func (s *RedisSettings) GetPostMarketEnabled(ctx context.Context) bool {
	return s.getInt(ctx, keyPostMarket, 0) != 0
}

func (s *RedisSettings) SetPostMarketEnabled(ctx context.Context, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	return s.setInt(ctx, keyPostMarket, value)
}

func (s *RedisSettings) SaveFilterSet(ctx context.Context, name, payload string) error {
	err := s.redis.HSet(ctx, keyFilterSets, name, payload).Err()
	if err != nil {
		slog.Error("failed on redis.HSet", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", keyFilterSets), slog.String("err", err.Error()))
	}
	return err
}

func (s *RedisSettings) GetFilterSet(ctx context.Context, name string) (string, error) {
	res, err := s.redis.HGet(ctx, keyFilterSets, name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		slog.Error("failed on redis.HGet", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", keyFilterSets), slog.String("err", err.Error()))
		return "", err
	}
	return res, nil
}

func (s *RedisSettings) GetFilterSets(ctx context.Context) (map[string]string, error) {
	res, err := s.redis.HGetAll(ctx, keyFilterSets).Result()
	if err != nil {
		slog.Error("failed on redis.HGetAll", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", keyFilterSets), slog.String("err", err.Error()))
		return nil, err
	}
	return res, nil
}

func (s *RedisSettings) DeleteFilterSet(ctx context.Context, name string) error {
	err := s.redis.HDel(ctx, keyFilterSets, name).Err()
	if err != nil {
		slog.Error("failed on redis.HDel", slog.String("rqID", utils.GetRequestIDFromCtx(ctx)), slog.String("key", keyFilterSets), slog.String("err", err.Error()))
	}
	return err
}

func (s *RedisSettings) GetNotificationsEnabled(ctx context.Context) bool {
	return s.getInt(ctx, keyNotifications, 1) != 0
}

func (s *RedisSettings) SetNotificationsEnabled(ctx context.Context, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	return s.setInt(ctx, keyNotifications, value)
}
