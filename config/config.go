/*
Package config loads service settings from the environment.

SOURCES (later wins):
  1. Built-in defaults
  2. A .env file in the working directory, if present (godotenv)
  3. Process environment

VARIABLES:
  PORT               HTTP port                          8080
  DB_DRIVER          memory | sqlite | gorm-sqlite | postgres   sqlite
  DB_PATH            SQLite file                        ./data/lodging.db
  DATABASE_URL       PostgreSQL DSN (DB_DRIVER=postgres)
  REDIS_ADDR         Enables Redis lock/cache/publisher when set
  REDIS_PASSWORD, REDIS_DB
  TAX_RATE           Decimal fraction                   0.12
  GUESTS_PER_ROOM    Ratio for the room count rule      3
  CANCEL_CUTOFF      Go duration                        24h
  HOLD_TTL           Go duration                        30m
  HOLD_EXPIRY_SPEC   cron spec for the expiry job       @every 1m
  STORE_TIMEOUT      Go duration                        5s
  LOG_LEVEL          debug | info | error               info
  CATALOG_FILE       Room type catalog JSON (optional)
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/warp/lodging-engine/booking"
)

type Config struct {
	Port        int
	DBDriver    string
	DBPath      string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TaxRate        decimal.Decimal
	GuestsPerRoom  int
	CancelCutoff   time.Duration
	HoldTTL        time.Duration
	HoldExpirySpec string
	StoreTimeout   time.Duration

	LogLevel    string
	CatalogFile string
}

func Default() Config {
	return Config{
		Port:           8080,
		DBDriver:       "sqlite",
		DBPath:         "./data/lodging.db",
		TaxRate:        decimal.RequireFromString("0.12"),
		GuestsPerRoom:  booking.DefaultGuestsPerRoom,
		CancelCutoff:   booking.DefaultCancelCutoff,
		HoldTTL:        30 * time.Minute,
		HoldExpirySpec: "@every 1m",
		StoreTimeout:   5 * time.Second,
		LogLevel:       "info",
	}
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function.
func FromEnv(getenv func(string) string) (Config, error) {
	c := Default()
	var errs []error

	str := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v := getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	num("PORT", &c.Port)
	str("DB_DRIVER", &c.DBDriver)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_URL", &c.DatabaseURL)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	num("REDIS_DB", &c.RedisDB)
	num("GUESTS_PER_ROOM", &c.GuestsPerRoom)
	dur("CANCEL_CUTOFF", &c.CancelCutoff)
	dur("HOLD_TTL", &c.HoldTTL)
	str("HOLD_EXPIRY_SPEC", &c.HoldExpirySpec)
	dur("STORE_TIMEOUT", &c.StoreTimeout)
	str("LOG_LEVEL", &c.LogLevel)
	str("CATALOG_FILE", &c.CatalogFile)

	if v := getenv("TAX_RATE"); v != "" {
		rate, err := decimal.NewFromString(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("TAX_RATE: %w", err))
		} else {
			c.TaxRate = rate
		}
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.DBDriver {
	case "memory", "sqlite", "gorm-sqlite":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for DB_DRIVER=postgres")
		}
	default:
		return fmt.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
	if c.TaxRate.IsNegative() {
		return fmt.Errorf("TAX_RATE must not be negative, got %s", c.TaxRate)
	}
	if c.GuestsPerRoom <= 0 {
		return fmt.Errorf("GUESTS_PER_ROOM must be positive, got %d", c.GuestsPerRoom)
	}
	return nil
}

// Booking returns the engine configuration.
func (c Config) Booking() booking.Config {
	bc := booking.DefaultConfig()
	bc.TaxRate = c.TaxRate
	bc.Rules.GuestsPerRoom = c.GuestsPerRoom
	bc.CancelCutoff = c.CancelCutoff
	bc.HoldTTL = c.HoldTTL
	bc.StoreTimeout = c.StoreTimeout
	return bc
}
