// Package session persists the signed-in user's token and profile between
// runs. Every backend is "last write wins"; an empty token or nil user means
// absent.
package session

import (
	"context"
	"fmt"

	"talent-sync/internal/common/config"
	"talent-sync/internal/common/database"
	"talent-sync/internal/common/logger"
	"talent-sync/internal/models"
)

type Store interface {
	GetToken(ctx context.Context) (string, error)
	GetUser(ctx context.Context) (*models.User, error)
	SetSession(ctx context.Context, token string, user *models.User) error
	ClearSession(ctx context.Context) error
}

// Open builds the backend selected by cfg.Session.Backend. The caller owns
// the returned store and should Close it if it implements io.Closer.
func Open(ctx context.Context, cfg *config.Config, log logger.Logger) (Store, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	switch cfg.Session.Backend {
	case config.SessionBackendMemory:
		return NewMemoryStore(), nil

	case config.SessionBackendFile, "":
		return NewFileStore(cfg.Session.FilePath, log), nil

	case config.SessionBackendRedis:
		client, err := database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		if err := client.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		log.Info("Redis session store connected", map[string]interface{}{
			"address": cfg.Database.Redis.Address,
			"prefix":  cfg.Session.KeyPrefix,
		})
		return NewRedisStore(client, cfg.Session.KeyPrefix, cfg.Session.SessionTTL(), log), nil

	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}
