package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"tg-channel-catalog/internal/domain"
	"tg-channel-catalog/internal/infra/metrics"
)

const sessionKeyPrefix = "session:"

// RedisSessions хранит проверенные личности в Redis на время жизни сессии.
type RedisSessions struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisSessions создаёт сессионное хранилище.
func NewRedisSessions(client *redis.Client, ttl time.Duration) *RedisSessions {
	return &RedisSessions{client: client, ttl: ttl}
}

var _ domain.SessionStore = (*RedisSessions)(nil)

// Login сохраняет личность и возвращает непрозрачный токен сессии.
func (s *RedisSessions) Login(ctx context.Context, identity domain.Identity) (string, error) {
	payload, err := json.Marshal(identity)
	if err != nil {
		return "", fmt.Errorf("marshal identity: %w", err)
	}
	token := uuid.NewString()
	start := time.Now()
	err = s.client.Set(ctx, sessionKeyPrefix+token, payload, s.ttl).Err()
	metrics.ObserveNetworkRequest("redis", "session_set", "sessions", start, err)
	if err != nil {
		return "", fmt.Errorf("сохранение сессии: %w", err)
	}
	return token, nil
}

// Current возвращает личность по токену. Отсутствие записи означает разлогиненного гостя.
func (s *RedisSessions) Current(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{Role: domain.RoleGuest}, nil
	}
	start := time.Now()
	payload, err := s.client.Get(ctx, sessionKeyPrefix+token).Bytes()
	metrics.ObserveNetworkRequest("redis", "session_get", "sessions", start, err)
	if errors.Is(err, redis.Nil) {
		return domain.Identity{Role: domain.RoleGuest}, nil
	}
	if err != nil {
		return domain.Identity{}, fmt.Errorf("чтение сессии: %w", err)
	}
	var identity domain.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return domain.Identity{}, fmt.Errorf("unmarshal identity: %w", err)
	}
	return identity, nil
}

// Logout удаляет сессию.
func (s *RedisSessions) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	start := time.Now()
	err := s.client.Del(ctx, sessionKeyPrefix+token).Err()
	metrics.ObserveNetworkRequest("redis", "session_del", "sessions", start, err)
	return err
}
