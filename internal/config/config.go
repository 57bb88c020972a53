package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisHost string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort uint16 `env:"REDIS_PORT" envDefault:"6379" validate:"min=1000,max=65535"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"store_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"store_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"store_db"`

	// Default per-auction bid increment used when a seller does not set one.
	DefaultBidIncrement float64 `env:"DEFAULT_BID_INCREMENT" envDefault:"10" validate:"gt=0"`

	// Shopping carts expire after this long without a write.
	CartTTL time.Duration `env:"CART_TTL" envDefault:"720h"`

	// Opt-in clock-driven auction transitions (SCHEDULED->LIVE, LIVE->ENDED).
	// Off by default: lifecycle changes are otherwise explicit admin/user actions.
	AuctionSweepEnabled  bool          `env:"AUCTION_SWEEP_ENABLED"  envDefault:"false"`
	AuctionSweepInterval time.Duration `env:"AUCTION_SWEEP_INTERVAL" envDefault:"30s"`

	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	// Parse config from environment variables
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	// Validate the config
	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
