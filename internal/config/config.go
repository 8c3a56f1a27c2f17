package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Club     ClubConfig     `yaml:"club"`
	Matches  MatchesConfig  `yaml:"matches"`
	News     NewsConfig     `yaml:"news"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Cache    CacheConfig    `yaml:"cache"`
	Assets   AssetsConfig   `yaml:"assets"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Refresh  RefreshConfig  `yaml:"refresh"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level"`
}

type ClubConfig struct {
	Name       string `yaml:"name"`
	Identifier string `yaml:"identifier"`
}

type MatchesConfig struct {
	BaseURL            string `yaml:"base_url"`
	League             string `yaml:"league"`
	DefaultCompetition string `yaml:"default_competition"`
}

type NewsConfig struct {
	Endpoint string `yaml:"endpoint"`
}

type FetchConfig struct {
	ProxyPrefix string        `yaml:"proxy_prefix"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
}

type CacheConfig struct {
	Path       string `yaml:"path"`
	KeyVersion string `yaml:"key_version"`
}

type AssetsConfig struct {
	Origin   string        `yaml:"origin"`
	Dir      string        `yaml:"dir"`
	Version  string        `yaml:"version"`
	Manifest []string      `yaml:"manifest"`
	Timeout  time.Duration `yaml:"timeout"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type RefreshConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Club.Name == "" {
		c.Club.Name = "HC Erlangen"
	}
	if c.Club.Identifier == "" {
		c.Club.Identifier = "hc erlangen"
	}
	if c.Matches.BaseURL == "" {
		c.Matches.BaseURL = "https://www.openligadb.de/api"
	}
	if c.Matches.League == "" {
		c.Matches.League = "liquimoly-hbl"
	}
	if c.Matches.DefaultCompetition == "" {
		c.Matches.DefaultCompetition = "LIQUI MOLY HBL"
	}
	if c.News.Endpoint == "" {
		c.News.Endpoint = "https://www.hc-erlangen.de/wp-json/wp/v2/posts?per_page=12&_embed=1"
	}
	if c.Fetch.ProxyPrefix == "" {
		c.Fetch.ProxyPrefix = "https://r.jina.ai/https://"
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "FanHub/1.0"
	}
	if c.Cache.Path == "" {
		c.Cache.Path = "data/fanhub.db"
	}
	if c.Cache.KeyVersion == "" {
		c.Cache.KeyVersion = "v2"
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = "data/assets"
	}
	if c.Assets.Version == "" {
		c.Assets.Version = "fanhub-assets-v2"
	}
	if len(c.Assets.Manifest) == 0 {
		c.Assets.Manifest = []string{
			"/",
			"/index.html",
			"/styles.css",
			"/main.js",
			"/manifest.webmanifest",
			"/assets/icons/icon.svg",
		}
	}
	if c.Assets.Timeout == 0 {
		c.Assets.Timeout = 15 * time.Second
	}
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = 15 * time.Minute
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
