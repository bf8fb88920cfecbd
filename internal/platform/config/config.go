package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures everything the server binary needs from the environment so
// main stays lean.
type Config struct {
	Addr    string `env:"NAMEMART_ADDR" envDefault:":8080"`
	DevMode bool   `env:"NAMEMART_DEV_MODE" envDefault:"false"`

	// MarketAddress is the account under which the registry holds names that
	// were handed over for sale. Listing authorization checks ownership
	// against this address.
	MarketAddress string `env:"NAMEMART_MARKET_ADDRESS,required"`

	// TreasuryAddress funds outbound pushes and implicitly retains the
	// integer-division remainder of every settlement.
	TreasuryAddress string `env:"NAMEMART_TREASURY_ADDRESS,required"`

	JWTSigningKey string        `env:"NAMEMART_JWT_SIGNING_KEY,required"`
	TokenTTL      time.Duration `env:"NAMEMART_TOKEN_TTL" envDefault:"24h"`

	// Backend selects the store implementations: "memory" or "postgres".
	Backend     string `env:"NAMEMART_STORE_BACKEND" envDefault:"memory"`
	PostgresDSN string `env:"NAMEMART_POSTGRES_DSN"`

	Redis RedisConfig `envPrefix:"NAMEMART_REDIS_"`
	Kafka KafkaConfig `envPrefix:"NAMEMART_KAFKA_"`

	// RegistryURL points at the external name-registry service. Empty means
	// dev mode with the in-process fake registry.
	RegistryURL     string        `env:"NAMEMART_REGISTRY_URL"`
	RegistryTimeout time.Duration `env:"NAMEMART_REGISTRY_TIMEOUT" envDefault:"5s"`

	// TreasuryURL points at the payment service that executes outbound
	// pushes. Empty means the in-process fake treasurer.
	TreasuryURL     string        `env:"NAMEMART_TREASURY_URL"`
	TreasuryTimeout time.Duration `env:"NAMEMART_TREASURY_TIMEOUT" envDefault:"5s"`
}

// RedisConfig tunes the optional Redis-backed ledger store.
type RedisConfig struct {
	URL          string        `env:"URL"`
	PoolSize     int           `env:"POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"3s"`
}

// KafkaConfig wires the market notification publisher. Empty brokers disable
// publishing (events go to the in-process sink).
type KafkaConfig struct {
	Brokers []string `env:"BROKERS"`
	Topic   string   `env:"TOPIC" envDefault:"namemart.market.events"`
}

// FromEnv parses the full configuration from environment variables.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Backend == "postgres" && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("postgres backend requires NAMEMART_POSTGRES_DSN")
	}
	return cfg, nil
}
