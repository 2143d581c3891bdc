// Package app wires configuration into the storage and service graph shared
// by the API server and the operator CLI.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/yourorg/greenthumb/internal/domain"
	"github.com/yourorg/greenthumb/internal/infrastructure/redis"
	"github.com/yourorg/greenthumb/internal/repository"
	"github.com/yourorg/greenthumb/internal/repository/memory"
	"github.com/yourorg/greenthumb/pkg/config"
	"github.com/yourorg/greenthumb/pkg/database"
)

// Storage is the set of repositories selected by configuration
type Storage struct {
	Users     domain.UserRepository
	Plants    domain.PlantRepository
	Schedules domain.CareScheduleRepository
	Tips      domain.TipRepository
	Posts     domain.ForumPostRepository
	Comments  domain.CommentRepository
	Layouts   domain.GardenLayoutRepository
	Denylist  domain.TokenDenylist
	Ledger    domain.NotificationLedger

	// DB is nil for the memory backend; Redis is nil when REDIS_URL is unset.
	DB    *sql.DB
	Redis *redis.Client

	ping    func(ctx context.Context) error
	closers []func() error
}

// OpenStorage connects the configured backend. Postgres schemas are
// migrated when migrate is true. Without Redis the token denylist and
// reminder ledger live in process memory.
func OpenStorage(ctx context.Context, cfg *config.Config, migrate bool, log *slog.Logger) (*Storage, error) {
	s := &Storage{}
	fallback := memory.NewStore()

	switch cfg.StorageBackend {
	case config.StorageMemory:
		s.useMemory(fallback)
		log.Warn("using in-memory storage; data is lost on restart")
	default:
		pool, err := database.NewConnectionPool(ctx, DatabaseConfig(cfg), log)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)

		if migrate {
			if _, err := database.Migrate(ctx, pool.GetDB(), log); err != nil {
				_ = s.Close()
				return nil, fmt.Errorf("migrate: %w", err)
			}
		}
		s.usePostgres(pool, log)
		s.Denylist = fallback.Denylist()
		s.Ledger = fallback.Ledger()
	}

	if cfg.RedisURL != "" {
		client, err := redis.NewClient(cfg.RedisURL, log)
		if err != nil {
			_ = s.Close()
			return nil, err
		}
		s.Redis = client
		s.closers = append(s.closers, client.Close)
		s.Denylist = repository.NewRedisTokenDenylist(client, log)
		s.Ledger = repository.NewRedisNotificationLedger(client)
	} else {
		log.Info("redis not configured; token revocations and reminder claims are kept in memory")
	}

	return s, nil
}

// DatabaseConfig maps application settings onto the connection pool.
func DatabaseConfig(cfg *config.Config) *database.Config {
	dbCfg := database.DefaultConfig()
	dbCfg.URL = cfg.Database.URL
	dbCfg.Host = cfg.Database.Host
	dbCfg.Port = cfg.Database.Port
	dbCfg.User = cfg.Database.User
	dbCfg.Password = cfg.Database.Password
	dbCfg.Database = cfg.Database.Name
	dbCfg.SSLMode = cfg.Database.SSLMode
	return dbCfg
}

func (s *Storage) useMemory(store *memory.Store) {
	s.Users = store.Users()
	s.Plants = store.Plants()
	s.Schedules = store.Schedules()
	s.Tips = store.Tips()
	s.Posts = store.Posts()
	s.Comments = store.Comments()
	s.Layouts = store.Layouts()
	s.Denylist = store.Denylist()
	s.Ledger = store.Ledger()
	s.ping = func(context.Context) error { return nil }
}

func (s *Storage) usePostgres(pool *database.ConnectionPool, log *slog.Logger) {
	db := pool.GetDB()
	s.DB = db
	s.Users = repository.NewPostgresUserRepository(db, log)
	s.Plants = repository.NewPostgresPlantRepository(db, log)
	s.Schedules = repository.NewPostgresCareScheduleRepository(db, log)
	s.Tips = repository.NewPostgresTipRepository(db, log)
	s.Posts = repository.NewPostgresForumPostRepository(db, log)
	s.Comments = repository.NewPostgresCommentRepository(db, log)
	s.Layouts = repository.NewPostgresGardenLayoutRepository(db, log)
	s.ping = pool.Health
}

// Ping checks the primary store.
func (s *Storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

// Close releases connections in reverse order of opening.
func (s *Storage) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}
