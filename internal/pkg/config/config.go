package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Oracle names accepted in DistanceOracle.
const (
	OracleHaversine = "haversine"
	OracleGoogle    = "google"
)

// Config holds the connection settings and secrets read from config.yaml.
type Config struct {
	DBUsername string `yaml:"db_username"`
	DBPassword string `yaml:"db_password"`
	DBHost     string `yaml:"db_host"`
	DBPort     string `yaml:"port"`
	DBName     string `yaml:"db_name"`
	DisableTLS bool   `yaml:"disable_tls"`
	DBDebug    bool   `yaml:"db_debug"`

	JWTKey string `yaml:"jwt_key"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	DistanceOracle string `yaml:"distance_oracle"`
	GoogleAPIKey   string `yaml:"google_api_key"`

	AllowedOrigins []string `yaml:"allowed_origins"`
}

// NewConfig reads and validates the YAML file at path.
func NewConfig(path string) (*Config, error) {
	var c Config

	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err = yaml.Unmarshal(yamlFile, &c); err != nil {
		return nil, errors.Wrap(err, "decoding config file")
	}

	if err = c.validate(); err != nil {
		return nil, err
	}

	return &c, nil
}

func (c *Config) validate() error {
	if c.DBUsername == "" || c.DBPassword == "" || c.DBHost == "" || c.DBName == "" {
		return errors.New("missing required database configuration")
	}
	if c.DBPort == "" {
		c.DBPort = "5432"
	}
	if c.JWTKey == "" {
		return errors.New("missing jwt_key")
	}

	switch c.DistanceOracle {
	case "":
		c.DistanceOracle = OracleHaversine
	case OracleHaversine:
	case OracleGoogle:
		if c.GoogleAPIKey == "" {
			return errors.New("distance_oracle google requires google_api_key")
		}
	default:
		return errors.Errorf("unknown distance_oracle %q", c.DistanceOracle)
	}

	return nil
}
