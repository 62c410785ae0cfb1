package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"`
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"http"`

	MySQL struct {
		DSN             string        `koanf:"dsn"`
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Cache struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"cache"`

	Rabbit struct {
		URL string `koanf:"url"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"`
		TopicStatus string   `koanf:"topic_status"`
	} `koanf:"kafka"`

	Razorpay struct {
		BaseURL       string        `koanf:"base_url"`
		KeyID         string        `koanf:"key_id"`
		KeySecret     string        `koanf:"key_secret"`
		WebhookSecret string        `koanf:"webhook_secret"`
		Timeout       time.Duration `koanf:"timeout"`
	} `koanf:"razorpay"`

	Shiprocket struct {
		BaseURL       string        `koanf:"base_url"`
		Email         string        `koanf:"email"`
		Password      string        `koanf:"password"`
		WebhookKey    string        `koanf:"webhook_key"`
		ChannelID     string        `koanf:"channel_id"`
		DefaultPickup string        `koanf:"default_pickup"`
		Timeout       time.Duration `koanf:"timeout"`
	} `koanf:"shiprocket"`

	SMTP struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		Username string `koanf:"username"`
		Password string `koanf:"password"`
		From     string `koanf:"from"`
	} `koanf:"smtp"`

	Reengage struct {
		Interval      time.Duration `koanf:"interval"`
		InactiveAfter time.Duration `koanf:"inactive_after"`
	} `koanf:"reengage"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env overlay (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix ORDERSVC_, nested with __)
	// e.g. ORDERSVC_MYSQL__DSN, ORDERSVC_RAZORPAY__KEY_SECRET
	if err := k.Load(env.Provider("ORDERSVC_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "ORDERSVC_")
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.App.HTTPAddr == "" {
		return fmt.Errorf("app.http_addr required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn required")
	}
	if c.Razorpay.KeySecret == "" {
		return fmt.Errorf("razorpay.key_secret required")
	}
	if c.Shiprocket.Email == "" || c.Shiprocket.Password == "" {
		return fmt.Errorf("shiprocket credentials required")
	}
	if c.Shiprocket.DefaultPickup == "" {
		return fmt.Errorf("shiprocket.default_pickup required")
	}
	return nil
}
