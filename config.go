package qcreative

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

/*
Config gathers everything needed to build the backends handle and run the
experiments. NewConfig gives usable defaults; LoadConfig layers a YAML file
and QCREATIVE_* environment variables on top.
*/
type Config struct {
	Backend      string  `mapstructure:"backend"`
	Shots        int     `mapstructure:"shots"`
	Seed         uint64  `mapstructure:"seed"`
	ReadoutError float64 `mapstructure:"readout_error"`
	CacheSize    int     `mapstructure:"cache_size"`
	MaxRegisters int     `mapstructure:"max_registers"`

	MitigateLow  float64 `mapstructure:"mitigate_low"`
	MitigateHigh float64 `mapstructure:"mitigate_high"`

	Remote       RemoteConfig       `mapstructure:"remote"`
	Breaker      BreakerConfig      `mapstructure:"breaker"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Backpressure BackpressureConfig `mapstructure:"backpressure"`
	Retry        RetryConfig        `mapstructure:"retry"`

	// Record appends every live result to this file when set.
	Record string `mapstructure:"record"`
	// Replay registers an offline backend serving this file when set.
	Replay string `mapstructure:"replay"`
}

// RemoteConfig points at an HTTP execution service.
type RemoteConfig struct {
	Name    string        `mapstructure:"name"`
	URL     string        `mapstructure:"url"`
	Token   string        `mapstructure:"token"`
	EnvFile string        `mapstructure:"env_file"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// BreakerConfig configures the circuit breaker guarding each backend.
type BreakerConfig struct {
	MaxFailures  int           `mapstructure:"max_failures"`
	ResetTimeout time.Duration `mapstructure:"reset_timeout"`
	HalfOpenMax  int           `mapstructure:"half_open_max"`
}

// RateLimitConfig bounds submissions; MaxTokens 0 disables limiting.
type RateLimitConfig struct {
	MaxTokens  int           `mapstructure:"max_tokens"`
	RefillRate time.Duration `mapstructure:"refill_rate"`
}

// BackpressureConfig limits slow or failing backends; TargetLatency 0 disables it.
type BackpressureConfig struct {
	TargetLatency time.Duration `mapstructure:"target_latency"`
	Window        time.Duration `mapstructure:"window"`
}

// RetryConfig enables the retrying decorator when MaxAttempts > 1.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	Initial     time.Duration `mapstructure:"initial"`
}

func NewConfig() *Config {
	return &Config{
		Backend:      SimulatorName,
		Shots:        1024,
		CacheSize:    256,
		MaxRegisters: 16,
		MitigateLow:  MitigateLow,
		MitigateHigh: MitigateHigh,
		Remote: RemoteConfig{
			Name:    "remote",
			Timeout: 30 * time.Second,
		},
		Breaker: BreakerConfig{
			MaxFailures:  3,
			ResetTimeout: 30 * time.Second,
			HalfOpenMax:  1,
		},
		Backpressure: BackpressureConfig{
			Window: 10 * time.Second,
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			Initial:     time.Second,
		},
	}
}

// LoadConfig reads path (if non-empty) and the environment over the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	defaults := NewConfig()

	v.SetDefault("backend", defaults.Backend)
	v.SetDefault("shots", defaults.Shots)
	v.SetDefault("seed", defaults.Seed)
	v.SetDefault("readout_error", defaults.ReadoutError)
	v.SetDefault("cache_size", defaults.CacheSize)
	v.SetDefault("max_registers", defaults.MaxRegisters)
	v.SetDefault("mitigate_low", defaults.MitigateLow)
	v.SetDefault("mitigate_high", defaults.MitigateHigh)
	v.SetDefault("remote.name", defaults.Remote.Name)
	v.SetDefault("remote.url", "")
	v.SetDefault("remote.token", "")
	v.SetDefault("remote.env_file", "")
	v.SetDefault("remote.timeout", defaults.Remote.Timeout)
	v.SetDefault("breaker.max_failures", defaults.Breaker.MaxFailures)
	v.SetDefault("breaker.reset_timeout", defaults.Breaker.ResetTimeout)
	v.SetDefault("breaker.half_open_max", defaults.Breaker.HalfOpenMax)
	v.SetDefault("rate_limit.max_tokens", defaults.RateLimit.MaxTokens)
	v.SetDefault("rate_limit.refill_rate", defaults.RateLimit.RefillRate)
	v.SetDefault("backpressure.target_latency", defaults.Backpressure.TargetLatency)
	v.SetDefault("backpressure.window", defaults.Backpressure.Window)
	v.SetDefault("retry.max_attempts", defaults.Retry.MaxAttempts)
	v.SetDefault("retry.initial", defaults.Retry.Initial)
	v.SetDefault("record", "")
	v.SetDefault("replay", "")

	v.SetEnvPrefix("QCREATIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(ErrConfiguration, "reading %s: %v", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrapf(ErrConfiguration, "decoding config: %v", err)
	}

	return cfg, cfg.Validate()
}

// Validate rejects values no component could run with.
func (c *Config) Validate() error {
	switch {
	case c.Shots < 1:
		return errors.Wrapf(ErrConfiguration, "shots must be positive, got %d", c.Shots)
	case c.ReadoutError < 0 || c.ReadoutError > 1:
		return errors.Wrapf(ErrConfiguration, "readout_error %v outside [0,1]", c.ReadoutError)
	case c.MitigateLow < 0 || c.MitigateHigh > 1 || c.MitigateLow > c.MitigateHigh:
		return errors.Wrapf(ErrConfiguration, "mitigation thresholds %v/%v must satisfy 0 <= low <= high <= 1", c.MitigateLow, c.MitigateHigh)
	case c.MaxRegisters < 1 || c.MaxRegisters > 24:
		return errors.Wrapf(ErrConfiguration, "max_registers %d outside [1,24]", c.MaxRegisters)
	case c.Backpressure.TargetLatency > 0 && c.Backpressure.Window <= 0:
		return errors.Wrapf(ErrConfiguration, "backpressure window %v must be positive", c.Backpressure.Window)
	case c.Record != "" && c.Replay != "":
		return errors.Wrap(ErrConfiguration, "record and replay cannot both be set")
	}
	return nil
}
