// Package app builds the service graph shared by the API server and the admin
// CLI from a Config.
package app

import (
	"context"
	"fmt"

	"bazaar/backend/internal/config"
	"bazaar/backend/internal/conversation"
	"bazaar/backend/internal/localization"
	"bazaar/backend/internal/message"
	"bazaar/backend/internal/moderation"
	"bazaar/backend/internal/notify"
	"bazaar/backend/internal/storage"
	"bazaar/backend/pkg/logger"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// App holds the wired services. Optional parts are nil when not configured.
type App struct {
	Config *config.Config
	Log    *logger.Logger

	Store storage.Storage
	Redis *redis.Client
	Bans  *storage.BanCache
	Inbox *notify.Inbox

	Notifier *notify.Fanout
	Ledger   *message.Ledger
	Registry *conversation.Registry
	Engine   *moderation.Engine
	Guard    *moderation.Guard

	closers []func(context.Context) error
}

// New connects the store and the optional Redis, Telegram and NATS
// integrations, then builds the services on top of them. A notification
// channel that fails to start is logged and left out.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, Log: log}

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = a.Close(ctx)
			return nil, errors.Wrap(err, "connect redis")
		}
		a.Redis = rdb
		a.Bans = storage.NewBanCache(rdb)
		a.Inbox = notify.NewInbox(rdb, cfg.InboxSize)
		a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
	}

	a.Notifier = a.buildNotifier()

	a.Ledger = message.NewLedger(store, log, cfg.MessagePageSize)
	a.Registry = conversation.NewRegistry(store, a.Ledger, log,
		conversation.WithPageSize(cfg.ConversationPageSize),
		conversation.WithConcurrency(cfg.UnreadConcurrency))

	opts := []moderation.Option{moderation.WithPageSize(cfg.ReportPageSize)}
	a.Guard = &moderation.Guard{Users: store, Checker: moderation.ExpiryPolicy{}}
	if a.Bans != nil {
		opts = append(opts, moderation.WithBanCache(a.Bans))
		a.Guard.Cache = a.Bans
	}
	a.Engine = moderation.NewEngine(store, moderation.RoleAuthorizer{Users: store}, a.Notifier,
		localization.NewDefault(), log, opts...)

	return a, nil
}

func (a *App) openStore(ctx context.Context) (storage.Storage, error) {
	cfg := a.Config
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		db, err := storage.OpenPostgres(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		svc := storage.NewStorageService(db)
		if err := svc.Migrate(); err != nil {
			return nil, errors.Wrap(err, "migrate")
		}
		a.closers = append(a.closers, func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		})
		a.Log.Info("store ready", zap.String("driver", cfg.StoreDriver))
		return svc, nil
	case config.DriverMongo:
		svc, err := storage.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		if err := svc.EnsureIndexes(ctx); err != nil {
			_ = svc.Close(ctx)
			return nil, errors.Wrap(err, "mongo indexes")
		}
		a.closers = append(a.closers, svc.Close)
		a.Log.Info("store ready", zap.String("driver", cfg.StoreDriver), zap.String("database", cfg.MongoDatabase))
		return svc, nil
	case config.DriverMemory:
		a.Log.Warn("using the in-memory store; data is lost on exit")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
}

func (a *App) buildNotifier() *notify.Fanout {
	fan := notify.NewFanout()
	if a.Inbox != nil {
		fan.Add("inbox", a.Inbox)
	}
	if token := a.Config.TelegramBotToken; token != "" {
		bot, err := notify.NewTelegramBot(token)
		if err != nil {
			a.Log.Warn("telegram notifications disabled", zap.Error(err))
		} else {
			fan.Add("telegram", notify.NewTelegram(notify.BotSender{Bot: bot}, a.Store))
		}
	}
	if url := a.Config.NatsURL; url != "" {
		nc, err := notify.ConnectNATS(url, a.Log)
		if err != nil {
			a.Log.Warn("nats notifications disabled", zap.Error(err))
		} else {
			fan.Add("nats", notify.NewNATS(nc))
			a.closers = append(a.closers, func(context.Context) error { return nc.Drain() })
		}
	}
	if fan.Len() == 0 {
		a.Log.Warn("no notification channel configured; moderation notices are dropped")
	}
	return fan
}

// Close releases connections in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
