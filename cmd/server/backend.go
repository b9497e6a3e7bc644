package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	gormLogger "gorm.io/gorm/logger"

	"github.com/warp/lodging-engine/api"
	"github.com/warp/lodging-engine/booking"
	"github.com/warp/lodging-engine/booking/store"
	"github.com/warp/lodging-engine/config"
	"github.com/warp/lodging-engine/factory"
	"github.com/warp/lodging-engine/logger"
	"github.com/warp/lodging-engine/notify"
	"github.com/warp/lodging-engine/store/gormdb"
	"github.com/warp/lodging-engine/store/redisstore"
	"github.com/warp/lodging-engine/store/sqlite"
)

const (
	calendarCacheTTL = 5 * time.Minute
	redisConnectWait = 5 * time.Second
)

// reservationDB is what every DB_DRIVER provides.
type reservationDB interface {
	booking.Catalog
	booking.TxStore
}

// backend holds the opened collaborators and how to release them.
type backend struct {
	db      reservationDB
	migrate func(context.Context) error
	health  []api.HealthChecker
	closers []func() error

	locker   booking.Locker
	cache    booking.CalendarCache
	notifier booking.Notifier
}

func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	return errors.Join(errs...)
}

// openDB opens the reservation database selected by DB_DRIVER.
func openDB(cfg config.Config, log logger.Logger) (*backend, error) {
	b := &backend{migrate: func(context.Context) error { return nil }}

	gormLevel := gormLogger.Warn
	if logger.ParseLevel(cfg.LogLevel) == logger.DebugLevel {
		gormLevel = gormLogger.Info
	}

	switch cfg.DBDriver {
	case "memory":
		log.Info("Using in-memory store (data is lost on exit)")
		b.db = store.NewTxMemory()

	case "sqlite":
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, err
		}
		s, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		log.Info("Using SQLite at %s", cfg.DBPath)
		b.db, b.migrate = s, s.Migrate
		b.health = append(b.health, s)
		b.closers = append(b.closers, s.Close)

	case "gorm-sqlite":
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, err
		}
		s, err := gormdb.OpenSQLite(cfg.DBPath, gormdb.NewGormLogger(gormLevel))
		if err != nil {
			return nil, err
		}
		log.Info("Using SQLite (gorm) at %s", cfg.DBPath)
		b.db, b.migrate = s, s.Migrate
		b.health = append(b.health, s)
		b.closers = append(b.closers, s.Close)

	case "postgres":
		s, err := gormdb.OpenPostgres(cfg.DatabaseURL, gormdb.NewGormLogger(gormLevel))
		if err != nil {
			return nil, err
		}
		log.Info("Using PostgreSQL")
		b.db, b.migrate = s, s.Migrate
		b.health = append(b.health, s)
		b.closers = append(b.closers, s.Close)

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.DBDriver)
	}
	return b, nil
}

// openBackend opens the database and, when REDIS_ADDR is set, the Redis
// lock, calendar cache and event publisher.
func openBackend(ctx context.Context, cfg config.Config, log *logger.DefaultLogger) (*backend, error) {
	b, err := openDB(cfg, log)
	if err != nil {
		return nil, err
	}

	notifiers := notify.Multi{notify.LogNotifier{Log: log.With("Notify")}}

	if cfg.RedisAddr != "" {
		cctx, cancel := context.WithTimeout(ctx, redisConnectWait)
		rdb, err := redisstore.Connect(cctx, redisstore.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		cancel()
		if err != nil {
			b.Close()
			return nil, err
		}
		log.Info("Using Redis at %s for locks, calendar cache and events", cfg.RedisAddr)

		b.locker = redisstore.NewLocker(rdb, 2*cfg.StoreTimeout, log.With("Lock"))
		b.cache = redisstore.NewCalendarCache(rdb, calendarCacheTTL)
		notifiers = append(notifiers, redisstore.NewPublisher(rdb, redisstore.DefaultChannel))
		b.health = append(b.health, redisPinger{rdb})
		b.closers = append(b.closers, rdb.Close)
	}

	b.notifier = notifiers
	return b, nil
}

// newService builds the engine over an opened backend.
func newService(cfg config.Config, b *backend, log *logger.DefaultLogger) *booking.Service {
	return booking.NewService(booking.ServiceOptions{
		Catalog:  b.db,
		Store:    b.db,
		Locker:   b.locker,
		Notifier: b.notifier,
		Cache:    b.cache,
		Logger:   log.With("Booking"),
		Config:   cfg.Booking(),
	})
}

// loadCatalog returns CATALOG_FILE's room types, or the built-in catalog.
func loadCatalog(cfg config.Config) ([]booking.RoomType, error) {
	if cfg.CatalogFile == "" {
		return factory.DefaultCatalog(), nil
	}
	return factory.NewRoomTypeFactory().LoadFile(cfg.CatalogFile)
}

func ensureDir(dbPath string) error {
	if dbPath == ":memory:" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	return nil
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }
