package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション設定を表す
type Config struct {
	App          AppConfig
	Server       ServerConfig
	Database     DatabaseConfig
	Redis        RedisConfig
	RabbitMQ     RabbitMQConfig
	Auth         AuthConfig
	Metrics      MetricsConfig
	Notification NotificationConfig
	Worker       WorkerConfig
}

// AppConfig は実行環境とキャンパスのタイムゾーン
type AppConfig struct {
	Env      string
	Timezone string
}

// ServerConfig はサーバー設定
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	AllowOrigins []string
	BodyLimit    string
}

// DatabaseConfig はデータベース設定
type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	MigrationsPath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig はRedis設定。Enabled が false のときは分散ロックとキャッシュを使わない
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
	LockTTL  time.Duration
}

// RabbitMQConfig は通知依頼の発行先
type RabbitMQConfig struct {
	URL     string
	Queue   string
	Timeout time.Duration
}

// AuthConfig はJWT検証の設定。トークンの発行はこのサービスでは行わない
type AuthConfig struct {
	JWTSecret string
}

// MetricsConfig は /metrics の Basic 認証設定
type MetricsConfig struct {
	User     string
	Password string
}

// NotificationConfig は通知先の設定
type NotificationConfig struct {
	Recipients          []string
	IncludeRequester    bool
	IncludeParticipants bool
}

// WorkerConfig はバックグラウンド処理の設定
type WorkerConfig struct {
	StatsInterval time.Duration
}

// Load は環境変数から設定を読み込む
func Load() *Config {
	cfg := &Config{
		App: AppConfig{
			Env:      getEnv("APP_ENV", "development"),
			Timezone: getEnv("APP_TIMEZONE", "Asia/Tokyo"),
		},
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 30*time.Second),
			AllowOrigins: getListEnv("CORS_ALLOW_ORIGINS"),
			BodyLimit:    getEnv("BODY_LIMIT", "1M"),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "facility_reservation"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),

			MaxOpenConns:    getIntEnv("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			Enabled:  getBoolEnv("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
			LockTTL:  getDurationEnv("REDIS_LOCK_TTL", 10*time.Second),
		},
		RabbitMQ: RabbitMQConfig{
			URL:     getEnv("RABBITMQ_URL", ""),
			Queue:   getEnv("RABBITMQ_QUEUE", "reservation.notifications"),
			Timeout: getDurationEnv("NOTIFICATION_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Metrics: MetricsConfig{
			User:     getEnv("METRICS_USER", ""),
			Password: getEnv("METRICS_PASSWORD", ""),
		},
		Notification: NotificationConfig{
			Recipients:          getListEnv("NOTIFICATION_RECIPIENTS"),
			IncludeRequester:    getBoolEnv("NOTIFICATION_INCLUDE_REQUESTER", true),
			IncludeParticipants: getBoolEnv("NOTIFICATION_INCLUDE_PARTICIPANTS", true),
		},
		Worker: WorkerConfig{
			StatsInterval: getDurationEnv("STATS_INTERVAL", time.Minute),
		},
	}

	// PaaS 形式の接続URLがあれば個別設定より優先する
	if raw := os.Getenv("DATABASE_URL"); raw != "" {
		if db, err := parseDatabaseURL(raw); err == nil {
			db.MigrationsPath = cfg.Database.MigrationsPath
			db.MaxOpenConns = cfg.Database.MaxOpenConns
			db.MaxIdleConns = cfg.Database.MaxIdleConns
			db.ConnMaxLifetime = cfg.Database.ConnMaxLifetime
			cfg.Database = db
		}
	}
	if raw := os.Getenv("REDIS_URL"); raw != "" {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			cfg.Redis.Host = u.Hostname()
			if p := u.Port(); p != "" {
				cfg.Redis.Port = p
			}
			if pw, ok := u.User.Password(); ok {
				cfg.Redis.Password = pw
			}
		}
	}

	return cfg
}

// Location は APP_TIMEZONE を読み込む
func (c *AppConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("タイムゾーンの読み込みに失敗しました: %w", err)
	}
	return loc, nil
}

// IsProduction は本番環境かを返す
func (c *AppConfig) IsProduction() bool {
	return c.Env == "production"
}

func parseDatabaseURL(raw string) (DatabaseConfig, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return DatabaseConfig{}, err
	}
	if u.Host == "" {
		return DatabaseConfig{}, fmt.Errorf("ホストがありません: %s", raw)
	}
	password, _ := u.User.Password()
	port := u.Port()
	if port == "" {
		port = "5432"
	}
	sslmode := u.Query().Get("sslmode")
	if sslmode == "" {
		sslmode = "require"
	}
	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslmode,
	}, nil
}

// DSN はPostgreSQL接続文字列を返す
func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + c.Port +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.DBName +
		" sslmode=" + c.SSLMode
}

// Addr はRedis接続アドレスを返す
func (c *RedisConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// IsEnabled は /metrics の認証が有効かどうかを返す
func (c *MetricsConfig) IsEnabled() bool {
	return c.User != "" && c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getDurationEnv は正の期間だけを受け付け、0 以下や解釈できない値は既定値にする
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

// getListEnv はカンマ区切りの値を読み込む
func getListEnv(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
