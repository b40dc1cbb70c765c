package config

import (
	"errors"
	"fmt"
	"os"

	"geocms/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Backup     BackupConfig     `yaml:"backup"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	HTTP       HTTPConfig       `yaml:"http"`
	Session    SessionConfig    `yaml:"session"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Google     GoogleConfig     `yaml:"google"`
	Exports    ExportConfig     `yaml:"exports"`
	Portal     PortalConfig     `yaml:"portal"`
	Labs       []models.Lab     `yaml:"labs"`
	Items      []models.Item    `yaml:"items"`
	Users      []BootstrapUser  `yaml:"users"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type HTTPConfig struct {
	Port      int             `yaml:"port"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type SessionConfig struct {
	TTLSeconds int `yaml:"ttl_seconds"`
}

type TelegramConfig struct {
	Enabled    bool    `yaml:"enabled"`
	BotToken   string  `yaml:"bot_token"`
	StaffChats []int64 `yaml:"staff_chats"`
	Debug      bool    `yaml:"debug"`
}

type GoogleConfig struct {
	GoogleCredentialsFile  string `yaml:"credentials_file"`
	TimetableSpreadsheetID string `yaml:"timetable_spreadsheet_id"`
	LedgerSpreadsheetID    string `yaml:"ledger_spreadsheet_id"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

// PortalConfig carries workflow limits enforced by the services.
type PortalConfig struct {
	MaxBorrowDays      int `yaml:"max_borrow_days"`
	MaxReservationDays int `yaml:"max_reservation_days"`
}

// BootstrapUser seeds a portal account from the config file. The password
// is bcrypt-hashed before storage; password_hash may be supplied directly
// instead.
type BootstrapUser struct {
	Username     string `yaml:"username"`
	Name         string `yaml:"name"`
	Email        string `yaml:"email"`
	Role         string `yaml:"role"`
	Password     string `yaml:"password"`
	PasswordHash string `yaml:"password_hash"`
}

func Load(configPath string) (*Config, error) {
	// Load .env if present; it only needs to exist in deployments that use it.
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Expand environment references before parsing so secrets stay out of
	// the file.
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}
	if c.Telegram.Enabled && c.Telegram.BotToken == "" {
		return errors.New("telegram bot token is required when telegram is enabled")
	}

	for _, u := range c.Users {
		if u.Username == "" {
			return errors.New("bootstrap user requires a username")
		}
		if !models.IsValidRole(u.Role) {
			return fmt.Errorf("bootstrap user %q has unknown role %q", u.Username, u.Role)
		}
		if u.Password == "" && u.PasswordHash == "" {
			return fmt.Errorf("bootstrap user %q requires a password or password_hash", u.Username)
		}
	}

	if err := ValidateItems(c.Items); err != nil {
		return err
	}
	return ValidateLabs(c.Labs)
}

func ValidateItems(items []models.Item) error {
	names := make(map[string]bool)
	for _, item := range items {
		if item.Name == "" {
			return errors.New("item requires a name")
		}
		if names[item.Name] {
			return fmt.Errorf("duplicate item name found: %s", item.Name)
		}
		if item.Total < 0 {
			return fmt.Errorf("item %q has negative total", item.Name)
		}
		names[item.Name] = true
	}
	return nil
}

func ValidateLabs(labs []models.Lab) error {
	names := make(map[string]bool)
	for _, lab := range labs {
		if lab.Name == "" {
			return errors.New("lab requires a name")
		}
		if names[lab.Name] {
			return fmt.Errorf("duplicate lab name found: %s", lab.Name)
		}
		names[lab.Name] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.RateLimit.RPS == 0 {
		c.HTTP.RateLimit.RPS = float64(models.DefaultRateLimitRequests) / float64(models.DefaultRateLimitWindow)
	}
	if c.HTTP.RateLimit.Burst == 0 {
		c.HTTP.RateLimit.Burst = 10
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Session.TTLSeconds == 0 {
		c.Session.TTLSeconds = models.DefaultSessionTTL
	}
	if c.Portal.MaxBorrowDays == 0 {
		c.Portal.MaxBorrowDays = 30
	}
	if c.Portal.MaxReservationDays == 0 {
		c.Portal.MaxReservationDays = 90
	}
	if c.Exports.Path == "" {
		c.Exports.Path = "exports"
	}
}
