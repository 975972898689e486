package config

import (
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"marketplace/pkg/config"
)

type Config struct {
	Service   Service   `mapstructure:"service"`
	Log       Log       `mapstructure:"log"`
	Store     Store     `mapstructure:"store"`
	Mysql     Mysql     `mapstructure:"mysql"`
	Redis     Redis     `mapstructure:"redis"`
	Lock      Lock      `mapstructure:"lock"`
	Sweep     Sweep     `mapstructure:"sweep"`
	Pull      Pull      `mapstructure:"pull"`
	Order     Order     `mapstructure:"order"`
	Hook      Hook      `mapstructure:"hook"`
	AMQP      AMQP      `mapstructure:"amqp"`
	Webhook   Webhook   `mapstructure:"webhook"`
	Catalog   Catalog   `mapstructure:"catalog"`
	RateLimit RateLimit `mapstructure:"ratelimit"`
	Tracing   Tracing   `mapstructure:"tracing"`
	// Processors binds offering types to drivers.
	Processors []Processor `mapstructure:"processors"`
}

type Service struct {
	Name string `mapstructure:"name"`
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
	// Origins allowed by CORS; empty allows any.
	Origins []string `mapstructure:"origins"`
}

type Log struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
	Path    string `mapstructure:"path"`
	JSON    bool   `mapstructure:"json"`
}

type Store struct {
	// Driver is memory or mysql.
	Driver string `mapstructure:"driver"`
}

type Mysql struct {
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"`
	Host          string        `mapstructure:"host"`
	Port          string        `mapstructure:"port"`
	Database      string        `mapstructure:"database"`
	Charset       string        `mapstructure:"charset"`
	MaxOpen       int           `mapstructure:"max_open"`
	MaxIdle       int           `mapstructure:"max_idle"`
	MaxLifetime   time.Duration `mapstructure:"max_lifetime"`
	SlowThreshold time.Duration `mapstructure:"slow_threshold"`
	Migrate       bool          `mapstructure:"migrate"`
}

type Redis struct {
	Addrs         []string      `mapstructure:"addrs"`
	Password      string        `mapstructure:"password"`
	DB            int           `mapstructure:"db"`
	CheckInterval time.Duration `mapstructure:"check_interval"`
}

func (r Redis) Enabled() bool {
	return len(r.Addrs) > 0
}

type Lock struct {
	TTL  time.Duration `mapstructure:"ttl"`
	Wait time.Duration `mapstructure:"wait"`
}

type Sweep struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type Pull struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type Order struct {
	AutoApprove bool `mapstructure:"auto_approve"`
}

type Hook struct {
	Buffer     int64  `mapstructure:"buffer"`
	MaxRetries uint64 `mapstructure:"max_retries"`
}

type AMQP struct {
	URL      string `mapstructure:"url"`
	Queue    string `mapstructure:"queue"`
	Exchange string `mapstructure:"exchange"`
	Key      string `mapstructure:"key"`
	Workers  int    `mapstructure:"workers"`
	Prefetch int    `mapstructure:"prefetch"`
}

func (a AMQP) Enabled() bool {
	return a.URL != ""
}

type Webhook struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries uint64        `mapstructure:"max_retries"`
}

type Catalog struct {
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Customers []Customer    `mapstructure:"customers"`
	Offerings []Offering    `mapstructure:"offerings"`
}

// Customer, Offering and Plan seed the catalog at startup.
type Customer struct {
	ID      string `mapstructure:"id"`
	Name    string `mapstructure:"name"`
	Blocked bool   `mapstructure:"blocked"`
}

type Offering struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	Type       string `mapstructure:"type"`
	State      string `mapstructure:"state"`
	CustomerID string `mapstructure:"customer_id"`
	SecretCode string `mapstructure:"secret_code"`
	Plans      []Plan `mapstructure:"plans"`
}

type Plan struct {
	ID       string `mapstructure:"id"`
	Name     string `mapstructure:"name"`
	Archived bool   `mapstructure:"archived"`
}

type RateLimit struct {
	QPS   float32 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type Tracing struct {
	Enabled     bool    `mapstructure:"enabled"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// Processor registers Driver (basic, test or webhook) for Type.
type Processor struct {
	Type              string      `mapstructure:"type"`
	Driver            string      `mapstructure:"driver"`
	Endpoint          string      `mapstructure:"endpoint"`
	CanTerminateOrder bool        `mapstructure:"can_terminate_order"`
	CanUpdateLimits   bool        `mapstructure:"can_update_limits"`
	AvailableLimits   []string    `mapstructure:"available_limits"`
	SecretAttributes  []string    `mapstructure:"secret_attributes"`
	Components        []Component `mapstructure:"components"`
}

type Component struct {
	Name         string `mapstructure:"name"`
	MeasuredUnit string `mapstructure:"measured_unit"`
	BillingType  string `mapstructure:"billing_type"`
	LimitPeriod  string `mapstructure:"limit_period"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"service.name":         "marketplace",
		"service.addr":         ":8120",
		"service.mode":         "release",
		"log.level":            "info",
		"log.console":          true,
		"store.driver":         "memory",
		"mysql.charset":        "utf8mb4",
		"mysql.port":           "3306",
		"mysql.max_open":       100,
		"mysql.max_idle":       10,
		"mysql.max_lifetime":   "1h",
		"mysql.slow_threshold": "200ms",
		"redis.check_interval": "5s",
		"lock.ttl":             "30s",
		"lock.wait":            "5s",
		"sweep.enabled":        true,
		"sweep.interval":       "10m",
		"sweep.timeout":        "24h",
		"pull.enabled":         true,
		"pull.interval":        "1h",
		"order.auto_approve":   false,
		"hook.buffer":          256,
		"hook.max_retries":     3,
		"amqp.queue":           "marketplace.callbacks",
		"amqp.exchange":        "marketplace",
		"amqp.key":             "callbacks",
		"amqp.workers":         8,
		"amqp.prefetch":        16,
		"webhook.timeout":      "30s",
		"webhook.max_retries":  3,
		"catalog.cache_ttl":    "30s",
		"ratelimit.qps":        50,
		"ratelimit.burst":      100,
		"tracing.enabled":      false,
		"tracing.sample_ratio": 0.1,
	}
}

// Load reads path, MARKETPLACE_ environment overrides and defaults, in that order of precedence reversed.
func Load(path string) (*Config, error) {
	var opts []config.Option
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		opts = append(opts, config.WithConfigFile(absPath))
	}
	opts = append(opts,
		config.WithName("marketplace"),
		config.WithEnvPrefix("marketplace"),
		config.WithDefaults(defaults()),
	)
	v, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err = v.Unmarshal(&cfg); err != nil {
		return nil, errors.WithStack(err)
	}
	return &cfg, nil
}
