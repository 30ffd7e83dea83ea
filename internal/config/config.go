package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

type (
	Config struct {
		Server Server
		Mongo  Mongo
		Redis  Redis
		Relay  Relay
	}

	Server struct {
		// ListenAddr is the single endpoint serving both the HTTP API and the
		// websocket relay.
		ListenAddr string
		// IdleTimeout force-closes a connection with no inbound frames for this
		// long. Zero disables the timeout.
		IdleTimeout Duration
	}

	Mongo struct {
		URI      string
		Database string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	Relay struct {
		// TokenTTL bounds the lifetime of issued auth tokens.
		TokenTTL Duration
		// SnippetLen caps the conversation summary excerpt, in runes.
		SnippetLen int
	}

	// Duration parses TOML strings like "90s" or "2h".
	Duration struct {
		time.Duration
	}
)

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			ListenAddr:  "localhost:9090",
			IdleTimeout: Duration{5 * time.Minute},
		},
		Mongo: Mongo{
			URI:      "mongodb://localhost:27017",
			Database: "mydb",
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Relay: Relay{
			TokenTTL:   Duration{24 * time.Hour},
			SnippetLen: 256,
		},
	}
}

// Load reads a TOML config file over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, errors.Wrapf(err, "decode config file %s", path)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.ListenAddr == "" {
		return errors.New("config: Server.ListenAddr is required")
	}
	if c.Mongo.URI == "" {
		return errors.New("config: Mongo.URI is required")
	}
	if c.Mongo.Database == "" {
		return errors.New("config: Mongo.Database is required")
	}
	if c.Redis.Addr == "" {
		return errors.New("config: Redis.Addr is required")
	}
	if c.Relay.TokenTTL.Duration <= 0 {
		return errors.New("config: Relay.TokenTTL must be positive")
	}
	if c.Relay.SnippetLen <= 0 {
		return errors.New("config: Relay.SnippetLen must be positive")
	}
	return nil
}
