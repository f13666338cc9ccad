package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type RPCConfig struct {
	Host    string   `yaml:"host"`
	Timeout Duration `yaml:"timeout"`
}

type ChainConfig struct {
	RPC *RPCConfig `yaml:"rpc"`
}

type ContractConfig struct {
	Address          string   `yaml:"address"`
	PayoutMultiplier *Decimal `yaml:"payout_multiplier"`
}

type BackoffConfig struct {
	Base           Duration `yaml:"base"`
	Max            Duration `yaml:"max"`
	ErrorThreshold uint     `yaml:"error_threshold"`
	Cooldown       Duration `yaml:"cooldown"`
}

type MonitorConfig struct {
	PollInterval      Duration       `yaml:"poll_interval"`
	StartupDelay      Duration       `yaml:"startup_delay"`
	MaxBlockRangeSize uint64         `yaml:"max_block_range_size"`
	RequestDelay      Duration       `yaml:"request_delay"`
	Backoff           *BackoffConfig `yaml:"backoff"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type PresenterConfig struct {
	Host       string `yaml:"host"`
	CORSOrigin string `yaml:"cors_origin"`
}

type Config struct {
	Chain     *ChainConfig     `yaml:"chain"`
	Contract  *ContractConfig  `yaml:"contract"`
	Monitor   *MonitorConfig   `yaml:"monitor"`
	DBConfig  *DBConfig        `yaml:"db"`
	Presenter *PresenterConfig `yaml:"presenter"`
	LogLevel  Level            `yaml:"log_level"`
}

const (
	defaultPollInterval      = 3 * time.Second
	defaultStartupDelay      = 2 * time.Second
	defaultMaxBlockRangeSize = 100
	defaultRequestDelay      = 200 * time.Millisecond
	defaultRPCTimeout        = 10 * time.Second
	defaultBackoffBase       = 2 * time.Second
	defaultBackoffMax        = time.Minute
	defaultErrorThreshold    = 5
	defaultCooldown          = 2 * time.Minute
)

func (c *Config) applyDefaults() {
	if c.Monitor == nil {
		c.Monitor = &MonitorConfig{}
	}
	m := c.Monitor
	if m.PollInterval.Duration == 0 {
		m.PollInterval.Duration = defaultPollInterval
	}
	if m.StartupDelay.Duration == 0 {
		m.StartupDelay.Duration = defaultStartupDelay
	}
	if m.MaxBlockRangeSize == 0 {
		m.MaxBlockRangeSize = defaultMaxBlockRangeSize
	}
	if m.RequestDelay.Duration == 0 {
		m.RequestDelay.Duration = defaultRequestDelay
	}
	if m.Backoff == nil {
		m.Backoff = &BackoffConfig{}
	}
	b := m.Backoff
	if b.Base.Duration == 0 {
		b.Base.Duration = defaultBackoffBase
	}
	if b.Max.Duration == 0 {
		b.Max.Duration = defaultBackoffMax
	}
	if b.ErrorThreshold == 0 {
		b.ErrorThreshold = defaultErrorThreshold
	}
	if b.Cooldown.Duration == 0 {
		b.Cooldown.Duration = defaultCooldown
	}
	if c.Chain != nil && c.Chain.RPC != nil && c.Chain.RPC.Timeout.Duration == 0 {
		c.Chain.RPC.Timeout.Duration = defaultRPCTimeout
	}
	if c.Contract != nil && c.Contract.PayoutMultiplier == nil {
		c.Contract.PayoutMultiplier = &Decimal{decimal.RequireFromString("1.985")}
	}
	if c.Presenter != nil && c.Presenter.CORSOrigin == "" {
		c.Presenter.CORSOrigin = "*"
	}
}

func (c *Config) validate() error {
	if c.Chain == nil || c.Chain.RPC == nil || c.Chain.RPC.Host == "" {
		return fmt.Errorf("chain.rpc.host is required")
	}
	if c.Contract == nil || c.Contract.Address == "" {
		return fmt.Errorf("contract.address is required")
	}
	if !common.IsHexAddress(c.Contract.Address) {
		return fmt.Errorf("contract.address %q is not a valid address", c.Contract.Address)
	}
	if c.Contract.PayoutMultiplier != nil && c.Contract.PayoutMultiplier.Sign() <= 0 {
		return fmt.Errorf("contract.payout_multiplier must be positive, got %s", c.Contract.PayoutMultiplier)
	}
	if c.DBConfig == nil || c.DBConfig.Path == "" {
		return fmt.Errorf("db.path is required")
	}
	return nil
}

// ReadConfigWithEnv parses a yaml config blob, expanding ${VAR} references
// from the process environment before decoding.
func ReadConfigWithEnv(blob []byte) (*Config, error) {
	blob = []byte(os.ExpandEnv(string(blob)))

	cfg := new(Config)
	cfg.LogLevel = Level{logrus.InfoLevel}
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
