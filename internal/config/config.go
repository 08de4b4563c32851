package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "BOOKSEARCH"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Books scopes for getBooks.
const (
	ScopeGlobal = "global"
	ScopeUser   = "user"
)

// Catalog providers.
const (
	ProviderGoogle        = "google"
	ProviderElasticsearch = "elasticsearch"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Port string `mapstructure:"port"`
	Log  struct {
		Level    string `mapstructure:"level"`
		Encoding string `mapstructure:"encoding"`
	} `mapstructure:"log"`
	Server struct {
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	Auth struct {
		JWTSecret string        `mapstructure:"jwt_secret"`
		TokenTTL  time.Duration `mapstructure:"token_ttl"`
	} `mapstructure:"auth"`
	Store struct {
		Driver          string        `mapstructure:"driver"`
		SQLitePath      string        `mapstructure:"sqlite_path"`
		PostgresDSN     string        `mapstructure:"postgres_dsn"`
		PostgresMaxConn int32         `mapstructure:"postgres_max_conns"`
		PostgresMinConn int32         `mapstructure:"postgres_min_conns"`
		PostgresConnTTL time.Duration `mapstructure:"postgres_conn_lifetime"`
	} `mapstructure:"store"`
	Books struct {
		Scope string `mapstructure:"scope"`
	} `mapstructure:"books"`
	Users struct {
		ListRequiresAuth bool `mapstructure:"list_requires_auth"`
	} `mapstructure:"users"`
	Catalog struct {
		Provider   string        `mapstructure:"provider"`
		GoogleURL  string        `mapstructure:"google_url"`
		APIKey     string        `mapstructure:"api_key"`
		Timeout    time.Duration `mapstructure:"timeout"`
		MaxResults int           `mapstructure:"max_results"`
		ESAddrs    []string      `mapstructure:"es_addrs"`
		ESUser     string        `mapstructure:"es_user"`
		ESPassword string        `mapstructure:"es_password"`
		ESIndex    string        `mapstructure:"es_index"`
	} `mapstructure:"catalog"`
	Redis struct {
		Addr     string        `mapstructure:"addr"`
		Password string        `mapstructure:"password"`
		DB       int           `mapstructure:"db"`
		CacheTTL time.Duration `mapstructure:"cache_ttl"`
	} `mapstructure:"redis"`
	RateLimit struct {
		AuthPerMinute int `mapstructure:"auth_per_minute"`
	} `mapstructure:"ratelimit"`
	AMQP struct {
		URL   string `mapstructure:"url"`
		Queue string `mapstructure:"queue"`
	} `mapstructure:"amqp"`
	CORS struct {
		Origins []string `mapstructure:"origins"`
	} `mapstructure:"cors"`
	WS struct {
		DefaultInterval time.Duration `mapstructure:"default_interval"`
	} `mapstructure:"ws"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", time.Hour)
	v.SetDefault("store.driver", DriverSQLite)
	v.SetDefault("store.sqlite_path", "booksearch.db")
	v.SetDefault("store.postgres_dsn", "")
	v.SetDefault("store.postgres_max_conns", 10)
	v.SetDefault("store.postgres_min_conns", 1)
	v.SetDefault("store.postgres_conn_lifetime", 30*time.Minute)
	v.SetDefault("books.scope", ScopeGlobal)
	v.SetDefault("users.list_requires_auth", false)
	v.SetDefault("catalog.provider", ProviderGoogle)
	v.SetDefault("catalog.google_url", "https://www.googleapis.com/books/v1/volumes")
	v.SetDefault("catalog.api_key", "")
	v.SetDefault("catalog.timeout", 5*time.Second)
	v.SetDefault("catalog.max_results", 20)
	v.SetDefault("catalog.es_addrs", []string{})
	v.SetDefault("catalog.es_user", "")
	v.SetDefault("catalog.es_password", "")
	v.SetDefault("catalog.es_index", "books")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 10*time.Minute)
	v.SetDefault("ratelimit.auth_per_minute", 20)
	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.queue", "booksearch.events")
	v.SetDefault("cors.origins", []string{"*"})
	v.SetDefault("ws.default_interval", 2*time.Second)
}

// Load reads configs/config.yml (optional) from dir, then .env, then the
// environment. BOOKSEARCH_AUTH_JWT_SECRET overrides auth.jwt_secret.
func Load(dir string) (Config, error) {
	if err := godotenv.Load(filepath.Join(dir, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AddConfigPath(filepath.Join(dir, "configs"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Catalog.ESAddrs = splitList(cfg.Catalog.ESAddrs)
	cfg.CORS.Origins = splitList(cfg.CORS.Origins)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma-separated env values.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("auth.jwt_secret must be set")
	}
	switch c.Store.Driver {
	case DriverSQLite, DriverMemory:
	case DriverPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("store.postgres_dsn must be set for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	switch c.Books.Scope {
	case ScopeGlobal, ScopeUser:
	default:
		return fmt.Errorf("unknown books.scope %q", c.Books.Scope)
	}
	switch c.Catalog.Provider {
	case ProviderGoogle:
	case ProviderElasticsearch:
		if len(c.Catalog.ESAddrs) == 0 {
			return errors.New("catalog.es_addrs must be set for the elasticsearch provider")
		}
	default:
		return fmt.Errorf("unknown catalog.provider %q", c.Catalog.Provider)
	}
	return nil
}
