package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/DoyleJ11/duel-draft-backend/internal/draft"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

var ErrOddPoolSize = errors.New("draft.pool_size must be even")
var ErrHiddenCount = errors.New("draft.hidden_count must not exceed draft.pool_size")

// Config holds server configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Draft    DraftConfig    `mapstructure:"draft"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// DraftConfig feeds every draft session the server starts.
type DraftConfig struct {
	// Generals overrides the built-in catalog when non-empty.
	Generals       []string      `mapstructure:"generals"`
	Banlist        []string      `mapstructure:"banlist"`
	PoolSize       int           `mapstructure:"pool_size" validate:"gte=6"`
	HiddenCount    int           `mapstructure:"hidden_count" validate:"gte=0"`
	GraceInterval  time.Duration `mapstructure:"grace_interval" validate:"gt=0"`
	AutoPickDelay  time.Duration `mapstructure:"auto_pick_delay" validate:"gte=0"`
	PickTimeout    time.Duration `mapstructure:"pick_timeout" validate:"gte=0"`
	ArrangeTimeout time.Duration `mapstructure:"arrange_timeout" validate:"gte=0"`
}

// DatabaseConfig selects the draft record store. An empty DSN keeps records
// in memory.
type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// Load reads configuration from .env, an optional file and the environment.
// Env var overrides use prefix DUEL_, so draft.pool_size is DUEL_DRAFT_POOL_SIZE.
func Load() (Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("draft.generals", "")
	v.SetDefault("draft.banlist", "")
	v.SetDefault("draft.pool_size", draft.DefaultPoolSize)
	v.SetDefault("draft.hidden_count", draft.DefaultHiddenCount)
	v.SetDefault("draft.grace_interval", draft.DefaultGraceInterval)
	v.SetDefault("draft.auto_pick_delay", time.Second)
	v.SetDefault("draft.pick_timeout", 30*time.Second)
	v.SetDefault("draft.arrange_timeout", 60*time.Second)
	v.SetDefault("database.dsn", "")
	v.SetDefault("log.development", false)

	v.SetEnvPrefix("DUEL")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if path := os.Getenv("DUEL_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	c.Draft.Generals = splitList(c.Draft.Generals)
	c.Draft.Banlist = splitList(c.Draft.Banlist)

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var err error
	if verr := validate.Struct(c); verr != nil {
		err = multierr.Append(err, verr)
	}
	if c.Draft.PoolSize%2 != 0 {
		err = multierr.Append(err, ErrOddPoolSize)
	}
	if c.Draft.HiddenCount > c.Draft.PoolSize {
		err = multierr.Append(err, ErrHiddenCount)
	}
	return err
}

// DraftOptions converts the draft section into coordinator options.
func (c Config) DraftOptions() draft.Options {
	return draft.Options{
		PoolSize:       c.Draft.PoolSize,
		HiddenCount:    c.Draft.HiddenCount,
		Banned:         c.Draft.Banlist,
		GraceInterval:  c.Draft.GraceInterval,
		AutoPickDelay:  c.Draft.AutoPickDelay,
		PickTimeout:    c.Draft.PickTimeout,
		ArrangeTimeout: c.Draft.ArrangeTimeout,
	}
}

// splitList accepts both real lists (config files) and comma separated
// strings (env vars), which viper may hand over as a single element.
func splitList(in []string) []string {
	parts := lo.FlatMap(in, func(s string, _ int) []string {
		return strings.Split(s, ",")
	})
	return lo.Compact(lo.Map(parts, func(s string, _ int) string {
		return strings.TrimSpace(s)
	}))
}
