package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/airreserve/config"
	"github.com/Domenick1991/airreserve/internal/domain"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	client     *redis.Client
	flightsTTL time.Duration
	seatMapTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, flightsTTL, seatMapTTL time.Duration) *RedisCache {
	return NewRedisCacheFromClient(
		redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		flightsTTL, seatMapTTL,
	)
}

func NewRedisCacheFromClient(client *redis.Client, flightsTTL, seatMapTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL, seatMapTTL: seatMapTTL}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	var flights []domain.Flight
	if ok, err := c.getJSON(ctx, flightsKey(), &flights); err != nil || !ok {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	return c.setJSON(ctx, flightsKey(), flights, c.flightsTTL)
}

func (c *RedisCache) InvalidateFlights(ctx context.Context) error {
	return c.client.Del(ctx, flightsKey()).Err()
}

func (c *RedisCache) GetSeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	var seats []domain.Seat
	if ok, err := c.getJSON(ctx, seatMapKey(flightID), &seats); err != nil || !ok {
		return nil, err
	}
	return seats, nil
}

func (c *RedisCache) SetSeatMap(ctx context.Context, flightID int64, seats []domain.Seat) error {
	return c.setJSON(ctx, seatMapKey(flightID), seats, c.seatMapTTL)
}

func (c *RedisCache) InvalidateSeatMaps(ctx context.Context, flightIDs ...int64) error {
	if len(flightIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(flightIDs))
	for _, id := range flightIDs {
		keys = append(keys, seatMapKey(id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, payload, ttl).Err()
}

func flightsKey() string {
	return "cache:flights"
}

func seatMapKey(flightID int64) string {
	return fmt.Sprintf("cache:flight:%d:seats", flightID)
}
