package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Addr         string        `mapstructure:"addr"`
		ReadTimeout  time.Duration `mapstructure:"read_timeout"`
		WriteTimeout time.Duration `mapstructure:"write_timeout"`
		IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	} `mapstructure:"server"`
	DB struct {
		Driver  string `mapstructure:"driver"`
		DSN     string `mapstructure:"dsn"`
		LogMode bool   `mapstructure:"log_mode"`
	} `mapstructure:"db"`
	JWT struct {
		SECRET     string `mapstructure:"secret"`
		Issuer     string `mapstructure:"issuer"`
		TTLMinutes int    `mapstructure:"ttl_minutes"`
	} `mapstructure:"jwt"`
	Security struct {
		BcryptCost int `mapstructure:"bcrypt_cost"`
	} `mapstructure:"security"`
	Bank struct {
		Superuser         string `mapstructure:"superuser"`
		SuperuserPassword string `mapstructure:"superuser_password"`
	} `mapstructure:"bank"`
	ExchangeRate struct {
		UsdToEur float64 `mapstructure:"usd_to_eur"`
		UsdToGbp float64 `mapstructure:"usd_to_gbp"`
	} `mapstructure:"exchange-rate"`
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
}

var AppConfig Config

// JWTTTL returns the token lifetime, falling back to 24h.
func (c Config) JWTTTL() time.Duration {
	if c.JWT.TTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.JWT.TTLMinutes) * time.Minute
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 15*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("db.driver", "sqlite")
	v.SetDefault("db.dsn", "data/fakebank.db")
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "fakebank")
	v.SetDefault("jwt.ttl_minutes", 24*60)
	v.SetDefault("security.bcrypt_cost", 10)
	v.SetDefault("bank.superuser", "root")
	v.SetDefault("bank.superuser_password", "")
	v.SetDefault("exchange-rate.usd_to_eur", 0.92)
	v.SetDefault("exchange-rate.usd_to_gbp", 0.79)
	v.SetDefault("log.level", "info")
}

// Load reads config.yaml from dir, applying BANK_* environment overrides
// (e.g. BANK_DB_DSN). A missing file leaves defaults and env in place.
func Load(dir string) (Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("BANK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	var fileLookupError viper.ConfigFileNotFoundError
	if err := v.ReadInConfig(); err != nil && !errors.As(err, &fileLookupError) {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.JWT.SECRET == "" {
		return Config{}, errors.New("jwt.secret is required")
	}
	return cfg, nil
}

func LoadConfig(dir string) error {
	cfg, err := Load(dir)
	if err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}
