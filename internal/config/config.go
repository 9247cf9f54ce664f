package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the full server configuration, parsed from environment
// variables. A .env file is loaded first when present so local development
// does not need variables exported in the shell.
type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT"   envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		URL             string        `env:"POSTGRES_URL,required"`
		MaxOpenConns    int           `env:"POSTGRES_MAX_OPEN_CONNS" envDefault:"25"`
		MaxIdleConns    int           `env:"POSTGRES_MAX_IDLE_CONNS" envDefault:"5"`
		ConnMaxLifetime time.Duration `env:"POSTGRES_CONN_MAX_LIFETIME" envDefault:"30m"`
	}

	Mongo struct {
		URI          string `env:"MONGO_URI,required"`
		AuthDatabase string `env:"MONGO_AUTH_DATABASE" envDefault:"creatorhub_auth"`
		LogsDatabase string `env:"MONGO_LOGS_DATABASE" envDefault:"creatorhub_logs"`
	}

	Redis struct {
		Addr       string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
		Password   string        `env:"REDIS_PASSWORD" envDefault:""`
		DB         int           `env:"REDIS_DB" envDefault:"0"`
		ProfileTTL time.Duration `env:"REDIS_PROFILE_TTL" envDefault:"5m"`
		RankTTL    time.Duration `env:"REDIS_RANK_TTL" envDefault:"1m"`
	}

	Token struct {
		Issuer                      string        `env:"TOKEN_ISSUER" envDefault:"creator-hub-api"`
		AccessTokenSecret           string        `env:"ACCESS_TOKEN_SECRET,required"`
		RefreshTokenSecret          string        `env:"REFRESH_TOKEN_SECRET,required"`
		PasswordResetTokenSecret    string        `env:"PASSWORD_RESET_TOKEN_SECRET,required"`
		AccessTokenExpiresIn        time.Duration `env:"ACCESS_TOKEN_EXPIRES_IN" envDefault:"15m"`
		RefreshTokenExpiresIn       time.Duration `env:"REFRESH_TOKEN_EXPIRES_IN" envDefault:"24h"`
		RememberMeRefreshExpiresIn  time.Duration `env:"REMEMBER_ME_REFRESH_EXPIRES_IN" envDefault:"720h"`
		PasswordResetTokenExpiresIn time.Duration `env:"PASSWORD_RESET_TOKEN_EXPIRES_IN" envDefault:"1h"`
	}

	Google struct {
		ClientID string `env:"GOOGLE_CLIENT_ID"`
	}

	App struct {
		PasswordResetURL string `env:"APP_PASSWORD_RESET_URL" envDefault:"http://localhost:3000/reset-password"`
	}
}

// Load reads the configuration from the environment. A missing .env file is
// not an error; in production the variables are set directly.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	return &cfg, nil
}
