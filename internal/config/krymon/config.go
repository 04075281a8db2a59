package krymon_config

import (
	"net"
	"time"

	redisstore "github.com/NordCoder/Krymon/internal/repository/redis"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	BackendFile  = "file"
	BackendRedis = "redis"
)

type AppCfg struct {
	Name    string `mapstructure:"name"`
	Env     string `mapstructure:"env"`
	Version string `mapstructure:"version"`
}

type ServerCfg struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	MetricsAddr     string        `mapstructure:"metrics_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	GracefulTimeout time.Duration `mapstructure:"graceful_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

type StoreCfg struct {
	Backend string            `mapstructure:"backend"`
	Path    string            `mapstructure:"path"`
	Redis   redisstore.Config `mapstructure:"redis"`
}

type PollCfg struct {
	Period       time.Duration `mapstructure:"period"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
	Concurrency  int           `mapstructure:"concurrency"`
}

type HTTPCfg struct {
	UserAgent string `mapstructure:"user_agent"`
}

type LogCfg struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

type OTelCfg struct {
	Enable       bool    `mapstructure:"enable"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	ServiceName  string  `mapstructure:"service_name"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`
}

type Config struct {
	App    AppCfg    `mapstructure:"app"`
	Server ServerCfg `mapstructure:"server"`
	Store  StoreCfg  `mapstructure:"store"`
	Poll   PollCfg   `mapstructure:"poll"`
	HTTP   HTTPCfg   `mapstructure:"http"`
	Log    LogCfg    `mapstructure:"log"`
	OTel   OTelCfg   `mapstructure:"otel"`
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Store),
		validation.Field(&c.Poll),
		validation.Field(&c.Log),
		validation.Field(&c.OTel),
	)
}

func (s ServerCfg) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.HTTPAddr, validation.Required, validation.By(hostPort)),
		validation.Field(&s.MetricsAddr, validation.Required, validation.By(hostPort)),
		validation.Field(&s.GracefulTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.RateLimit, validation.Min(0.0)),
		validation.Field(&s.RateBurst, validation.Min(0)),
	)
}

func (s StoreCfg) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Backend, validation.Required, validation.In(BackendFile, BackendRedis)),
		validation.Field(&s.Path, validation.When(s.Backend == BackendFile, validation.Required)),
		validation.Field(&s.Redis, validation.When(s.Backend == BackendRedis, validation.By(func(any) error {
			return validation.ValidateStruct(&s.Redis,
				validation.Field(&s.Redis.Addr, validation.Required, validation.By(hostPort)),
				validation.Field(&s.Redis.Key, validation.Required),
				validation.Field(&s.Redis.DB, validation.Min(0)),
			)
		}))),
	)
}

func (p PollCfg) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Period, validation.Required, validation.Min(10*time.Millisecond)),
		validation.Field(&p.ProbeTimeout, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&p.Concurrency, validation.Required, validation.Min(1)),
	)
}

func (l LogCfg) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In("debug", "info", "warn", "error")),
	)
}

func (o OTelCfg) Validate() error {
	return validation.ValidateStruct(&o,
		validation.Field(&o.OTLPEndpoint, validation.When(o.Enable, validation.Required)),
		validation.Field(&o.SampleRatio, validation.Min(0.0), validation.Max(1.0)),
	)
}

func hostPort(value any) error {
	s, _ := value.(string)
	if _, _, err := net.SplitHostPort(s); err != nil {
		return validation.NewError("validation_host_port", "must be host:port")
	}
	return nil
}
