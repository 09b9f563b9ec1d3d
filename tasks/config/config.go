package config

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendRecords  = "records"
)

type HTTPConfig struct {
	Address string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"5s"`
}

type MongoConfig struct {
	URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"taskflow"`
}

type RecordsConfig struct {
	BaseURL   string        `yaml:"base_url" env:"RECORDS_BASE_URL"`
	ProjectID string        `yaml:"project_id" env:"RECORDS_PROJECT_ID"`
	PublicKey string        `yaml:"public_key" env:"RECORDS_PUBLIC_KEY"`
	Timeout   time.Duration `yaml:"timeout" env:"RECORDS_TIMEOUT" env-default:"10s"`
}

type MockConfig struct {
	MinLatency time.Duration `yaml:"min_latency" env:"MOCK_MIN_LATENCY" env-default:"0s"`
	MaxLatency time.Duration `yaml:"max_latency" env:"MOCK_MAX_LATENCY" env-default:"0s"`
	Seed       bool          `yaml:"seed" env:"MOCK_SEED" env-default:"true"`
	SeedFile   string        `yaml:"seed_file" env:"MOCK_SEED_FILE"`
}

type Config struct {
	LogLevel  string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"DEBUG"`
	Backend   string        `yaml:"backend" env:"BACKEND" env-default:"memory"`
	DBAddress string        `yaml:"db_address" env:"DB_ADDRESS"`
	HTTP      HTTPConfig    `yaml:"http"`
	Mongo     MongoConfig   `yaml:"mongo"`
	Records   RecordsConfig `yaml:"records"`
	Mock      MockConfig    `yaml:"mock"`
}

// Validate checks that the selected backend has what it needs.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory:
		if c.Mock.MaxLatency < c.Mock.MinLatency {
			return errors.New("mock max_latency is below min_latency")
		}
	case BackendPostgres:
		if c.DBAddress == "" {
			return errors.New("db_address is required for the postgres backend")
		}
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return errors.New("mongo uri and database are required for the mongo backend")
		}
	case BackendRecords:
		if c.Records.BaseURL == "" || c.Records.ProjectID == "" {
			return errors.New("records base_url and project_id are required for the records backend")
		}
	default:
		return errors.New("unknown backend " + c.Backend)
	}
	return nil
}

func MustLoad(configPath string) Config {
	var cfg Config

	// empty path: env only
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return mustValidate(cfg)
	}

	// try the file, fall back to env when it does not exist
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return mustValidate(cfg)
		}
		log.Fatalf("cannot read config %q: %s", configPath, err)
	}

	return mustValidate(cfg)
}

func mustValidate(cfg Config) Config {
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}
	return cfg
}
