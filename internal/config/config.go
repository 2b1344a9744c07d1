package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Cookies   CookiesConfig
	WebSocket WebSocketConfig
	CORS      CORSConfig
	Logging   LoggingConfig
}

type ServerConfig struct {
	Port            string        `env:"PORT" env-default:"3000"`
	Host            string        `env:"HOST" env-default:"0.0.0.0"`
	Env             string        `env:"NODE_ENV" env-default:"development"`
	APIPrefix       string        `env:"API_PREFIX" env-default:"/api"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"30s"`
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func (s ServerConfig) IsProduction() bool {
	return s.Env == EnvProduction
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5984"`
	User     string `env:"DB_USER" env-default:"admin"`
	Password string `env:"DB_PASSWORD" env-default:"password"`
	Name     string `env:"DB_NAME" env-default:"notes"`
}

func (d DatabaseConfig) URL() string {
	return fmt.Sprintf("http://%s:%s@%s:%s", d.User, d.Password, d.Host, d.Port)
}

type RedisConfig struct {
	URL string `env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
}

// JWTConfig keys are PEM, usually base64-encoded so they fit on one line.
type JWTConfig struct {
	AccessTokenPrivateKey  string        `env:"ACCESS_TOKEN_PRIVATE_KEY"`
	AccessTokenPublicKey   string        `env:"ACCESS_TOKEN_PUBLIC_KEY"`
	RefreshTokenPrivateKey string        `env:"REFRESH_TOKEN_PRIVATE_KEY"`
	RefreshTokenPublicKey  string        `env:"REFRESH_TOKEN_PUBLIC_KEY"`
	AccessTokenTTL         time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"168h"`
	RefreshTokenTTL        time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"720h"`
}

type CookiesConfig struct {
	Domain string `env:"COOKIES_DOMAIN"`
	Path   string `env:"COOKIES_PATH" env-default:"/"`
}

type WebSocketConfig struct {
	ReadBufferSize  int           `env:"WS_READ_BUFFER_SIZE" env-default:"1024"`
	WriteBufferSize int           `env:"WS_WRITE_BUFFER_SIZE" env-default:"1024"`
	MaxMessageSize  int64         `env:"WS_MAX_MESSAGE_SIZE" env-default:"65536"`
	WriteWait       time.Duration `env:"WS_WRITE_WAIT" env-default:"10s"`
	PongWait        time.Duration `env:"WS_PONG_WAIT" env-default:"60s"`
	PingPeriod      time.Duration `env:"WS_PING_PERIOD" env-default:"54s"`
	MaxConnPerUser  int           `env:"WS_MAX_CONN_PER_USER" env-default:"5"`
}

type CORSConfig struct {
	AllowedOrigins string `env:"ORIGIN" env-default:"*"`
	AllowedMethods string `env:"CORS_ALLOWED_METHODS" env-default:"GET,POST,PATCH,DELETE,OPTIONS"`
	AllowedHeaders string `env:"CORS_ALLOWED_HEADERS" env-default:"Content-Type,Authorization,X-Refresh-Token"`
}

type LoggingConfig struct {
	Level string `env:"LOG_LEVEL" env-default:"info"`
	File  string `env:"LOG_FILE"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	var missing []string
	for name, value := range map[string]string{
		"ACCESS_TOKEN_PRIVATE_KEY":  c.JWT.AccessTokenPrivateKey,
		"ACCESS_TOKEN_PUBLIC_KEY":   c.JWT.AccessTokenPublicKey,
		"REFRESH_TOKEN_PRIVATE_KEY": c.JWT.RefreshTokenPrivateKey,
		"REFRESH_TOKEN_PUBLIC_KEY":  c.JWT.RefreshTokenPublicKey,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.JWT.AccessTokenTTL <= 0 || c.JWT.RefreshTokenTTL <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	return nil
}
