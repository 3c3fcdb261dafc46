package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the studio server
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Database   DatabaseConfig   `mapstructure:"database"`
	DB         DBConfig         `mapstructure:"db"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Redis      RedisConfig      `mapstructure:"redis"`
	SendGrid   SendGridConfig   `mapstructure:"sendgrid"`
	SES        SESConfig        `mapstructure:"ses"`
	Firebase   FirebaseConfig   `mapstructure:"firebase"`
	GoogleMaps GoogleMapsConfig `mapstructure:"google_maps"`
	Reminder   ReminderConfig   `mapstructure:"reminder"`
	QR         QRConfig         `mapstructure:"qr"`
	Log        LogConfig        `mapstructure:"log"`
	Admin      AdminConfig      `mapstructure:"admin"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type CORSConfig struct {
	Origins []string `mapstructure:"origins"`
}

// DatabaseConfig carries a full connection URL (Railway style deployments)
type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

// DBConfig carries individual connection parameters for local development
type DBConfig struct {
	Host         string `mapstructure:"host"`
	Port         string `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SendGridConfig struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type SESConfig struct {
	Region    string `mapstructure:"region"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

type FirebaseConfig struct {
	CredentialsPath string `mapstructure:"credentials_path"`
}

type GoogleMapsConfig struct {
	APIKey string `mapstructure:"api_key"`
}

type ReminderConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type QRConfig struct {
	DefaultTTL      time.Duration `mapstructure:"default_ttl"`
	DefaultMaxUsage int           `mapstructure:"default_max_usage"`
	ScanLimit       int           `mapstructure:"scan_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AdminConfig names the account that is granted the admin role at startup
// and on registration
type AdminConfig struct {
	Email string `mapstructure:"email"`
}

// IsRelease reports whether the server runs in production mode
func (c *Config) IsRelease() bool {
	return c.Server.Mode == "release"
}

// DSN builds the Postgres connection string, preferring database.url when set
func (c *Config) DSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC connect_timeout=10",
		c.DB.Host, c.DB.User, c.DB.Password, c.DB.Name, c.DB.Port, c.DB.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1"})
	v.SetDefault("cors.origins", []string{"http://localhost:3000"})

	v.SetDefault("database.url", "")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", "5432")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "yogastudio")
	v.SetDefault("db.ssl_mode", "disable")
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.max_open_conns", 100)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiry", "24h")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("sendgrid.from_email", "")
	v.SetDefault("sendgrid.from_name", "Yoga Studio")
	v.SetDefault("ses.region", "us-east-1")
	v.SetDefault("ses.from_email", "")
	v.SetDefault("ses.from_name", "Yoga Studio")

	v.SetDefault("firebase.credentials_path", "")
	v.SetDefault("google_maps.api_key", "")

	v.SetDefault("reminder.enabled", true)
	v.SetDefault("reminder.interval", "15m")

	v.SetDefault("qr.default_ttl", "30m")
	v.SetDefault("qr.default_max_usage", 100)
	v.SetDefault("qr.scan_limit", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("admin.email", "")
}

// Load reads configuration from the environment, an optional .env file and an
// optional config file named by CONFIG_FILE
func Load() (*Config, error) {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if c.Reminder.Interval <= 0 {
		return fmt.Errorf("REMINDER_INTERVAL must be positive, got %s", c.Reminder.Interval)
	}
	if c.QR.DefaultMaxUsage <= 0 {
		return fmt.Errorf("QR_DEFAULT_MAX_USAGE must be positive, got %d", c.QR.DefaultMaxUsage)
	}
	return nil
}
