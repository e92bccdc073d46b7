package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// MinTokenSecretLength はTOKEN_SECRETの最小バイト長。
const MinTokenSecretLength = 32

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Database
	DatabaseURL    string `envconfig:"DATABASE_URL" required:"true"`
	DBMaxOpenConns int    `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`

	// Identity token
	TokenSecret string        `envconfig:"TOKEN_SECRET" required:"true"`
	TokenTTL    time.Duration `envconfig:"TOKEN_TTL" default:"10h"`
	TokenIssuer string        `envconfig:"TOKEN_ISSUER" default:"teamboard"`

	// Report
	ReportLookupConcurrency int `envconfig:"REPORT_LOOKUP_CONCURRENCY" default:"8"`

	// Rate Limit (req/min/client)
	RateLimitGeneral int `envconfig:"RATE_LIMIT_GENERAL" default:"120"`
	RateLimitWrite   int `envconfig:"RATE_LIMIT_WRITE" default:"30"`

	// Server
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// CORS（カンマ区切りで複数指定可、"*"で全オリジン）
	CORSAllowedOrigin string `envconfig:"CORS_ALLOWED_ORIGIN" default:"http://localhost:3000"`

	// Logging
	LogLevel slog.Level `envconfig:"LOG_LEVEL" default:"info"`
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合や値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate は型変換だけでは検出できない値の制約を確認する。
func (c *Config) validate() error {
	if len(c.TokenSecret) < MinTokenSecretLength {
		return fmt.Errorf("TOKEN_SECRET must be at least %d bytes", MinTokenSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive: %s", c.TokenTTL)
	}
	if c.ReportLookupConcurrency < 1 {
		return fmt.Errorf("REPORT_LOOKUP_CONCURRENCY must be at least 1: %d", c.ReportLookupConcurrency)
	}
	if c.RateLimitGeneral < 1 || c.RateLimitWrite < 1 {
		return fmt.Errorf("rate limits must be at least 1 req/min: general=%d write=%d", c.RateLimitGeneral, c.RateLimitWrite)
	}
	if c.DBMaxOpenConns < 1 {
		return fmt.Errorf("DB_MAX_OPEN_CONNS must be at least 1: %d", c.DBMaxOpenConns)
	}
	return nil
}
