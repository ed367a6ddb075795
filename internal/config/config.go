package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-yaml/yaml"

	"github.com/totegamma/cardfeed/internal/domain"
)

const (
	EnvConfigPath     = "CARDFEED_CONFIG"
	DefaultConfigPath = "/etc/cardfeed/config.yaml"
)

type Config struct {
	Firehose Firehose `yaml:"firehose"`
	Server   Server   `yaml:"server"`
}

type Firehose struct {
	Endpoint          string                  `yaml:"endpoint"`
	Collections       domain.CollectionConfig `yaml:"collections"`
	GracePeriod       time.Duration           `yaml:"gracePeriod"`
	TickInterval      time.Duration           `yaml:"tickInterval"`
	ReconnectDelay    time.Duration           `yaml:"reconnectDelay"`
	MaxReconnectDelay time.Duration           `yaml:"maxReconnectDelay"`
	CursorRewind      time.Duration           `yaml:"cursorRewind"`
	CursorKey         string                  `yaml:"cursorKey"`
}

type Server struct {
	PostgresDsn        string        `yaml:"postgresDsn"`
	RedisAddr          string        `yaml:"redisAddr"`
	RedisPassword      string        `yaml:"redisPassword"`
	RedisDB            int           `yaml:"redisDB"`
	MemcachedAddr      string        `yaml:"memcachedAddr"`
	ResolutionCacheTTL time.Duration `yaml:"resolutionCacheTTL"`
	EnableTrace        bool          `yaml:"enableTrace"`
	TraceEndpoint      string        `yaml:"traceEndpoint"`
	HTTPAddr           string        `yaml:"httpAddr"`
	LogLevel           string        `yaml:"logLevel"` // debug, info, warn, error
}

// Path returns the config path from the environment or the default.
func Path() string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path
	}
	return DefaultConfigPath
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	config.ApplyDefaults()

	err = config.Validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func (c *Config) ApplyDefaults() {
	defaults := domain.DefaultCollectionConfig()
	if c.Firehose.Collections.Card == "" {
		c.Firehose.Collections.Card = defaults.Card
	}
	if c.Firehose.Collections.Collection == "" {
		c.Firehose.Collections.Collection = defaults.Collection
	}
	if c.Firehose.Collections.CollectionLink == "" {
		c.Firehose.Collections.CollectionLink = defaults.CollectionLink
	}
	if c.Firehose.GracePeriod == 0 {
		c.Firehose.GracePeriod = 3 * time.Second
	}
	if c.Firehose.TickInterval == 0 {
		c.Firehose.TickInterval = time.Second
	}
	if c.Firehose.ReconnectDelay == 0 {
		c.Firehose.ReconnectDelay = 5 * time.Second
	}
	if c.Firehose.MaxReconnectDelay == 0 {
		c.Firehose.MaxReconnectDelay = 10 * time.Second
	}
	if c.Firehose.CursorRewind == 0 {
		c.Firehose.CursorRewind = c.Firehose.GracePeriod + c.Firehose.TickInterval
	}
	if c.Firehose.CursorKey == "" {
		c.Firehose.CursorKey = "cardfeed:cursor"
	}
	if c.Server.ResolutionCacheTTL == 0 {
		c.Server.ResolutionCacheTTL = 10 * time.Minute
	}
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = ":8000"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
}

func (c Config) Validate() error {
	if c.Server.PostgresDsn == "" {
		return fmt.Errorf("server.postgresDsn is required")
	}

	seen := map[string]bool{}
	for _, name := range c.Firehose.Collections.Names() {
		if name == "" {
			return fmt.Errorf("firehose.collections: empty collection name")
		}
		if seen[name] {
			return fmt.Errorf("firehose.collections: duplicate collection name %q", name)
		}
		seen[name] = true
	}

	if c.Firehose.GracePeriod < 0 || c.Firehose.TickInterval <= 0 {
		return fmt.Errorf("firehose: gracePeriod must be >= 0 and tickInterval > 0")
	}
	if c.Firehose.MaxReconnectDelay < c.Firehose.ReconnectDelay {
		return fmt.Errorf("firehose: maxReconnectDelay must not be below reconnectDelay")
	}
	if c.Server.EnableTrace && c.Server.TraceEndpoint == "" {
		return fmt.Errorf("server.traceEndpoint is required when tracing is enabled")
	}

	return nil
}
