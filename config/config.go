package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
)

type Config struct {
	HTTPAddr    string `long:"http-addr" env:"HTTP_ADDR" default:":8080" description:"HTTP listen address"`
	PostgresURL string `long:"postgres-url" env:"POSTGRES_URL" description:"PostgreSQL connection string"`
	RedisAddr   string `long:"redis-addr" env:"REDIS_ADDR" description:"Redis address used for domain events"`

	Midtrans struct {
		ServerKey        string        `long:"server-key" env:"SERVER_KEY" description:"Midtrans server key, empty disables the gateway"`
		Production       bool          `long:"production" env:"PRODUCTION" description:"use Midtrans production endpoints"`
		Timeout          time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"gateway request timeout"`
		BreakerThreshold int64         `long:"breaker-threshold" env:"BREAKER_THRESHOLD" default:"5" description:"consecutive gateway failures before the breaker opens"`
	} `group:"Midtrans" namespace:"midtrans" env-namespace:"MIDTRANS"`

	JaegerEndpoint string `long:"jaeger-endpoint" env:"JAEGER_ENDPOINT" description:"Jaeger collector endpoint, empty disables trace export"`
	LogLevel       string `long:"log-level" env:"LOG_LEVEL" default:"info" description:"logrus level"`
}

// Load parses command line arguments, falling back to environment variables and defaults.
func Load(args []string) (Config, error) {
	var cfg Config

	parser := flags.NewParser(&cfg, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		return Config{}, err
	}

	if cfg.PostgresURL == "" {
		return Config{}, errors.New("POSTGRES_URL is required")
	}
	if cfg.RedisAddr == "" {
		return Config{}, errors.New("REDIS_ADDR is required")
	}
	if _, err := cfg.Level(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Level() (logrus.Level, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}
