package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config アプリケーション全体の設定
type Config struct {
	ProjectName string
	EnvType     string
	HTTPAddr    string

	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Mail     MailConfig
	SMS      SMSConfig
	OTP      OTPConfig
	Geocoder GeocoderConfig
}

// LogConfig ログ出力の設定
type LogConfig struct {
	Level  string
	Format string
}

// DatabaseConfig PostgreSQL接続設定
type DatabaseConfig struct {
	URL              string
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	SupabaseURL      string
	SupabasePassword string
	MaxOpenConns     int
	MaxIdleConns     int
	ConnectRetries   int
}

// RedisConfig OTP保存とレート制限に使うRedisの設定
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// AuthConfig JWTと初期管理者の設定
type AuthConfig struct {
	SecretKey              string
	AccessTokenExpire      time.Duration
	FirstSuperuser         string
	FirstSuperuserPassword string
	// RegistrationTokenExpire 招待・パスワード再設定トークンの有効期限
	RegistrationTokenExpire time.Duration
}

// MailConfig メール送信の設定
type MailConfig struct {
	Enabled       bool
	DomainAddress string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	From          string
}

// SMSConfig SMSゲートウェイの設定
type SMSConfig struct {
	GatewayURL string
	APIKey     string
}

// OTPConfig ゲストOTPの設定
type OTPConfig struct {
	Expire        time.Duration
	HourRateLimit int
}

// GeocoderConfig Nominatimの設定
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// Load .envと環境変数から設定を読み込む
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found, using system environment variables")
	}

	cfg := &Config{
		ProjectName: getEnv("PROJECT_NAME", "aidmap"),
		EnvType:     getEnv("ENV_TYPE", "dev"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Database: DatabaseConfig{
			URL:              getEnv("DATABASE_URL", ""),
			Host:             getEnv("DB_HOST", "localhost"),
			Port:             getEnvInt("DB_PORT", 5432),
			User:             getEnv("DB_USER", "postgres"),
			Password:         getEnv("DB_PASSWORD", ""),
			Name:             getEnv("DB_NAME", "aidmap"),
			SSLMode:          getEnv("DB_SSLMODE", "disable"),
			SupabaseURL:      getEnv("SUPABASE_URL", ""),
			SupabasePassword: getEnv("SUPABASE_DB_PASSWORD", ""),
			MaxOpenConns:     getEnvInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:     getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnectRetries:   getEnvInt("DB_CONNECT_RETRIES", 3),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			SecretKey:               getEnv("SECRET_KEY", ""),
			AccessTokenExpire:       time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 60*24*8)) * time.Minute,
			FirstSuperuser:          getEnv("FIRST_SUPERUSER", "admin@aidmap.org"),
			FirstSuperuserPassword:  getEnv("FIRST_SUPERUSER_PASSWORD", ""),
			RegistrationTokenExpire: time.Duration(getEnvInt("EMAIL_RESET_TOKEN_EXPIRE_HOURS", 48)) * time.Hour,
		},
		Mail: MailConfig{
			Enabled:       getEnvBool("EMAILS_ENABLED", false),
			DomainAddress: getEnv("DOMAIN_ADDRESS", "http://localhost:3000"),
			SMTPHost:      getEnv("SMTP_HOST", ""),
			SMTPPort:      getEnvInt("SMTP_PORT", 587),
			SMTPUser:      getEnv("SMTP_USER", ""),
			SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
			From:          getEnv("EMAILS_FROM_EMAIL", "no-reply@aidmap.org"),
		},
		SMS: SMSConfig{
			GatewayURL: getEnv("SMS_GATEWAY_URL", ""),
			APIKey:     getEnv("SMS_API_KEY", ""),
		},
		OTP: OTPConfig{
			Expire:        time.Duration(getEnvInt("OTP_EXPIRE_MINUTES", 5)) * time.Minute,
			HourRateLimit: getEnvInt("OTP_HOUR_RATE_LIMIT", 5),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getEnv("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getEnv("NOMINATIM_USER_AGENT", "GetLoc"),
			Timeout:   time.Duration(getEnvInt("NOMINATIM_TIMEOUT_SECONDS", 10)) * time.Second,
		},
	}

	if cfg.Auth.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY環境変数が設定されていません")
	}
	return cfg, nil
}

// IsTest テスト環境かどうか
func (c *Config) IsTest() bool {
	return c.EnvType == "test"
}

// DSN PostgreSQL接続文字列を組み立てる
// DATABASE_URL > SUPABASE_URL > DB_* の順で優先する
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.SupabaseURL != "" {
		if d.SupabasePassword == "" {
			return "", fmt.Errorf("SUPABASE_DB_PASSWORD環境変数が設定されていません")
		}
		// https://xxx.supabase.co -> xxx.supabase.co
		host := strings.TrimPrefix(strings.TrimPrefix(d.SupabaseURL, "https://"), "http://")
		return fmt.Sprintf(
			"host=db.%s port=6543 user=postgres password=%s dbname=postgres sslmode=require",
			host, d.SupabasePassword,
		), nil
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
