package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/KevinKickass/OpenRegMap/internal/regmap"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Bank       BankConfig       `mapstructure:"bank"`
	Mapping    MappingConfig    `mapstructure:"mapping"`
	Clock      ClockConfig      `mapstructure:"clock"`
	Modbus     ModbusConfig     `mapstructure:"modbus"`
	Interfaces InterfacesConfig `mapstructure:"interfaces"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

type ServerConfig struct {
	GRPCPort        int           `mapstructure:"grpc_port"`
	HTTPPort        int           `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
}

// Auth Configuration
type AuthConfig struct {
	JWTSecretEnv string        `mapstructure:"jwt_secret_env"`
	TokenTTL     time.Duration `mapstructure:"token_ttl"`
	Issuer       string        `mapstructure:"issuer"`
}

type BankConfig struct {
	BaseIndex     int `mapstructure:"base_index"`
	RegisterCount int `mapstructure:"register_count"`
}

type MappingConfig struct {
	DefaultStrategy string `mapstructure:"default_strategy"`
}

// ClockConfig is the FPGA fabric clock used for duration to cycle conversion.
type ClockConfig struct {
	PeriodNs float64 `mapstructure:"period_ns"`
}

type ModbusConfig struct {
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
	WatchInterval  time.Duration `mapstructure:"watch_interval"`
	CRBaseAddress  uint16        `mapstructure:"cr_base_address"`
	UnitID         uint8         `mapstructure:"unit_id"`
}

type InterfacesConfig struct {
	SearchPaths []string `mapstructure:"search_paths"`
}

type LoggingConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

// Load reads the YAML config at path. An empty path yields the defaults,
// still overridable through ORM_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Defaults setzen
	v.SetDefault("server.grpc_port", 50051)
	v.SetDefault("server.http_port", 8080)
	v.SetDefault("server.shutdown_timeout", "30s")

	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.database", "openregmap")
	v.SetDefault("database.user", "openregmap")
	v.SetDefault("database.password", "")
	v.SetDefault("database.max_connections", 10)

	v.SetDefault("auth.jwt_secret_env", "JWT_SECRET")
	v.SetDefault("auth.token_ttl", "60m")
	v.SetDefault("auth.issuer", "openregmap")

	def := regmap.DefaultBank()
	v.SetDefault("bank.base_index", def.BaseIndex)
	v.SetDefault("bank.register_count", def.RegisterCount)
	v.SetDefault("mapping.default_strategy", string(regmap.BestFit))
	v.SetDefault("clock.period_ns", 8.0)

	v.SetDefault("modbus.default_timeout", "1s")
	v.SetDefault("modbus.watch_interval", "10s")
	v.SetDefault("modbus.cr_base_address", 0)
	v.SetDefault("modbus.unit_id", 1)

	v.SetDefault("interfaces.search_paths", []string{"./interfaces"})
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.development", false)

	// Environment Variables mit Prefix ORM_, z.B. ORM_SERVER_HTTP_PORT
	v.SetEnvPrefix("ORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if err := c.Bank.ToBank().Validate(); err != nil {
		return fmt.Errorf("invalid bank config: %w", err)
	}
	if _, err := regmap.ParseStrategy(c.Mapping.DefaultStrategy); err != nil {
		return fmt.Errorf("invalid mapping config: %w", err)
	}
	if !(c.Clock.PeriodNs > 0) {
		return fmt.Errorf("invalid clock config: period_ns must be positive, got %v", c.Clock.PeriodNs)
	}
	return nil
}

func (b BankConfig) ToBank() regmap.Bank {
	return regmap.Bank{BaseIndex: b.BaseIndex, RegisterCount: b.RegisterCount}
}

// Strategy returns the configured default strategy. Load has already validated it.
func (m MappingConfig) Strategy() regmap.Strategy {
	s, _ := regmap.ParseStrategy(m.DefaultStrategy)
	return s
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

const devSecret = "dev-secret-change-in-production-min-32-chars"

// JWT Secret aus Environment Variable laden
func (a *AuthConfig) GetJWTSecret() string {
	envVar := a.JWTSecretEnv
	if envVar == "" {
		envVar = "JWT_SECRET"
	}

	secret := os.Getenv(envVar)
	if secret == "" {
		return devSecret
	}
	return secret
}

// IsProductionReady reports whether a real secret of at least 32 bytes is set.
func (a *AuthConfig) IsProductionReady() bool {
	secret := a.GetJWTSecret()
	return secret != devSecret && len(secret) >= 32
}
