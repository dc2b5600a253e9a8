package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"

	CatalogSourceHTTP     = "http"
	CatalogSourcePostgres = "postgres"
)

// Configはアプリ全体の設定
type Config struct {
	Port  string // サーバーポート（8080）
	GoEnv string // dev/prod
	FEURL string // フロントURL（CORS）。空ならCORSなし

	CatalogSource  string        // http/postgres
	CatalogBaseURL string        // 外部カタログAPIのURL
	CatalogTimeout time.Duration // 外部カタログAPIのタイムアウト
	CatalogSeed    bool          // postgres起動時に外部APIの商品を投入するか

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // disable など
}

// Loadは環境変数
func Load() (Config, error) {
	timeoutSec, err := atoiDefault("CATALOG_TIMEOUT_SECONDS", 10)
	if err != nil {
		return Config{}, err
	}
	if timeoutSec <= 0 {
		return Config{}, fmt.Errorf("CATALOG_TIMEOUT_SECONDS must be > 0")
	}

	seed, err := boolDefault("CATALOG_SEED", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:  getenv("PORT", "8080"),
		GoEnv: getenv("GO_ENV", EnvDev),
		FEURL: os.Getenv("FE_URL"),

		CatalogSource:  getenv("CATALOG_SOURCE", CatalogSourceHTTP),
		CatalogBaseURL: os.Getenv("CATALOG_BASE_URL"),
		CatalogTimeout: time.Duration(timeoutSec) * time.Second,
		CatalogSeed:    seed,

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     os.Getenv("POSTGRES_HOST"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),
	}

	//必須チェック
	switch cfg.GoEnv {
	case EnvDev, EnvProd:
	default:
		return Config{}, fmt.Errorf("GO_ENV must be %s or %s", EnvDev, EnvProd)
	}

	switch cfg.CatalogSource {
	case CatalogSourceHTTP:
		if cfg.CatalogBaseURL == "" {
			return Config{}, fmt.Errorf("CATALOG_BASE_URL is required")
		}
	case CatalogSourcePostgres:
		if cfg.CatalogSeed && cfg.CatalogBaseURL == "" {
			return Config{}, fmt.Errorf("CATALOG_BASE_URL is required when CATALOG_SEED is set")
		}
		if cfg.DatabaseURL != "" {
			break
		}
		pgPort, err := mustAtoi("POSTGRES_PORT")
		if err != nil {
			return Config{}, err
		}
		cfg.PostgresPort = pgPort
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
		if cfg.PostgresHost == "" {
			return Config{}, fmt.Errorf("POSTGRES_HOST is required")
		}
	default:
		return Config{}, fmt.Errorf("CATALOG_SOURCE must be %s or %s", CatalogSourceHTTP, CatalogSourcePostgres)
	}

	return cfg, nil
}

// Addr は ":8080" 形式のリッスンアドレス。
func (c Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}

func mustAtoi(key string) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func atoiDefault(key string, def int) (int, error) {
	if os.Getenv(key) == "" {
		return def, nil
	}
	return mustAtoi(key)
}

func boolDefault(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be bool: %w", key, err)
	}
	return b, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}
