package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port int `mapstructure:"port"`
	} `mapstructure:"server"`

	Storage struct {
		// Driver is "postgres" or "memory"
		Driver string `mapstructure:"driver"`
	} `mapstructure:"storage"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
		MaxConns int32  `mapstructure:"max_conns"`
	} `mapstructure:"database"`

	Redis struct {
		Enabled   bool          `mapstructure:"enabled"`
		Host      string        `mapstructure:"host"`
		Port      int           `mapstructure:"port"`
		Password  string        `mapstructure:"password"`
		DB        int           `mapstructure:"db"`
		ConfigTTL time.Duration `mapstructure:"config_ttl"`
		LockTTL   time.Duration `mapstructure:"lock_ttl"`
	} `mapstructure:"redis"`

	Codegen struct {
		TotalCodes        int64         `mapstructure:"total_codes"`
		LotSize           int           `mapstructure:"lot_size"`
		MaxStalledRetries int           `mapstructure:"max_stalled_retries"`
		PassTimeout       time.Duration `mapstructure:"pass_timeout"`
		ExtensionDigit    int           `mapstructure:"extension_digit"`
		Timezone          string        `mapstructure:"timezone"`
	} `mapstructure:"codegen"`

	Scheduler struct {
		ProcessInterval  time.Duration `mapstructure:"process_interval"`
		CapacityInterval time.Duration `mapstructure:"capacity_interval"`
		AlignToMidnight  bool          `mapstructure:"align_to_midnight"`
	} `mapstructure:"scheduler"`
}

// Load reads configs/config.yaml (optional), the environment and .env
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(configFile())

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func configFile() string {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("storage.driver", "postgres")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "codegen_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.config_ttl", 30*time.Second)
	v.SetDefault("redis.lock_ttl", 30*time.Minute)

	v.SetDefault("codegen.total_codes", 1000000)
	v.SetDefault("codegen.lot_size", 1000)
	v.SetDefault("codegen.max_stalled_retries", 50)
	v.SetDefault("codegen.pass_timeout", 20*time.Minute)
	v.SetDefault("codegen.extension_digit", 0)
	v.SetDefault("codegen.timezone", "Asia/Kolkata")

	v.SetDefault("scheduler.process_interval", time.Minute)
	v.SetDefault("scheduler.capacity_interval", 24*time.Hour)
	v.SetDefault("scheduler.align_to_midnight", true)
}

// applyEnvOverrides honours the short variable names used by deployments
func applyEnvOverrides(cfg *Config) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if total := os.Getenv("TOTAL_CODES"); total != "" {
		if n, err := strconv.ParseInt(total, 10, 64); err == nil {
			cfg.Codegen.TotalCodes = n
		} else {
			log.Printf("[Config] Ignoring invalid TOTAL_CODES %q", total)
		}
	}
	if lot := os.Getenv("LOT_SIZE"); lot != "" {
		if n, err := strconv.Atoi(lot); err == nil {
			cfg.Codegen.LotSize = n
		} else {
			log.Printf("[Config] Ignoring invalid LOT_SIZE %q", lot)
		}
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		cfg.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Redis.Port = n
		}
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Codegen.TotalCodes <= 0 {
		errs = append(errs, fmt.Errorf("codegen.total_codes must be positive, got %d", c.Codegen.TotalCodes))
	}
	if c.Codegen.LotSize <= 0 {
		errs = append(errs, fmt.Errorf("codegen.lot_size must be positive, got %d", c.Codegen.LotSize))
	}
	if c.Codegen.MaxStalledRetries <= 0 {
		errs = append(errs, fmt.Errorf("codegen.max_stalled_retries must be positive, got %d", c.Codegen.MaxStalledRetries))
	}
	if c.Codegen.PassTimeout <= 0 {
		errs = append(errs, errors.New("codegen.pass_timeout must be positive"))
	}
	if c.Codegen.ExtensionDigit < 0 || c.Codegen.ExtensionDigit > 9 {
		errs = append(errs, fmt.Errorf("codegen.extension_digit must be a single digit, got %d", c.Codegen.ExtensionDigit))
	}
	if c.Scheduler.ProcessInterval <= 0 || c.Scheduler.CapacityInterval <= 0 {
		errs = append(errs, errors.New("scheduler intervals must be positive"))
	}
	switch c.Storage.Driver {
	case "postgres", "memory":
	default:
		errs = append(errs, fmt.Errorf("storage.driver must be postgres or memory, got %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

// DatabaseURL builds the pgx connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
