package session

import (
	"context"
	"encoding/json"
	"time"

	"talent-sync/internal/common/database"
	"talent-sync/internal/common/errors"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/models"
)

// RedisStore keeps the session under <prefix>:token and <prefix>:user so
// several CLI hosts can share one sign-in.
type RedisStore struct {
	client *database.RedisClient
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewRedisStore(client *database.RedisClient, prefix string, ttl time.Duration, log logger.Logger) *RedisStore {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if prefix == "" {
		prefix = "talent-sync:session"
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl, logger: log}
}

func (s *RedisStore) tokenKey() string { return s.prefix + ":token" }
func (s *RedisStore) userKey() string  { return s.prefix + ":user" }

func (s *RedisStore) GetToken(ctx context.Context) (string, error) {
	token, _, err := s.client.Get(ctx, s.tokenKey())
	if err != nil {
		return "", errors.NewSessionStoreError("read", err)
	}
	return token, nil
}

func (s *RedisStore) GetUser(ctx context.Context) (*models.User, error) {
	raw, found, err := s.client.Get(ctx, s.userKey())
	if err != nil {
		return nil, errors.NewSessionStoreError("read", err)
	}
	if !found || raw == "" {
		return nil, nil
	}

	var user models.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("Ignoring unreadable session user", map[string]interface{}{
			"key":   s.userKey(),
			"error": err.Error(),
		})
		return nil, nil
	}
	return &user, nil
}

func (s *RedisStore) SetSession(ctx context.Context, token string, user *models.User) error {
	if user == nil {
		if err := s.client.Del(ctx, s.userKey()); err != nil {
			return errors.NewSessionStoreError("write", err)
		}
		if err := s.client.SetPairs(ctx, s.ttl, s.tokenKey(), token); err != nil {
			return errors.NewSessionStoreError("write", err)
		}
		return nil
	}

	userJSON, err := json.Marshal(user)
	if err != nil {
		return errors.NewSessionStoreError("encode", err)
	}
	if err := s.client.SetPairs(ctx, s.ttl, s.tokenKey(), token, s.userKey(), string(userJSON)); err != nil {
		return errors.NewSessionStoreError("write", err)
	}
	return nil
}

func (s *RedisStore) ClearSession(ctx context.Context) error {
	if err := s.client.Del(ctx, s.tokenKey(), s.userKey()); err != nil {
		return errors.NewSessionStoreError("clear", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
