// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Pipeline configuration, YAML loading and a reloadable pump config store.

package control

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elastic/go-ucfg"
	"github.com/elastic/go-ucfg/yaml"
	"github.com/pkg/errors"
)

// Policy selects what a producer does when the ring rejects a byte.
type Policy string

const (
	// PolicyDrop discards the rejected byte.
	PolicyDrop Policy = "drop"
	// PolicyRetry backs off and retries until the byte is accepted.
	PolicyRetry Policy = "retry"
	// PolicySpill parks the byte in a producer-local overflow queue.
	PolicySpill Policy = "spill"
	// PolicyFail stops the producer with the rejection error.
	PolicyFail Policy = "fail"
)

// Unpack implements ucfg.StringUnpacker.
func (p *Policy) Unpack(s string) error {
	switch v := Policy(s); v {
	case PolicyDrop, PolicyRetry, PolicySpill, PolicyFail:
		*p = v
		return nil
	}
	return fmt.Errorf("unknown backpressure policy %q", s)
}

// PumpConfig holds the producer settings. All of them may change at runtime
// through ConfigStore.
type PumpConfig struct {
	Policy     Policy        `config:"policy"`
	ChunkSize  int           `config:"chunk_size"`
	MaxSpill   int           `config:"max_spill"`
	MinBackoff time.Duration `config:"min_backoff"`
	MaxBackoff time.Duration `config:"max_backoff"`
}

// Validate implements ucfg.Validator.
func (c *PumpConfig) Validate() error {
	if err := new(Policy).Unpack(string(c.Policy)); err != nil {
		return err
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be at least 1, got %d", c.ChunkSize)
	}
	if c.MaxSpill < 0 {
		return fmt.Errorf("max_spill must not be negative, got %d", c.MaxSpill)
	}
	if c.MinBackoff <= 0 {
		return fmt.Errorf("min_backoff must be positive, got %s", c.MinBackoff)
	}
	if c.MaxBackoff < c.MinBackoff {
		return fmt.Errorf("max_backoff (%s) must not be below min_backoff (%s)", c.MaxBackoff, c.MinBackoff)
	}
	return nil
}

// Config is the ringcat pipeline configuration.
type Config struct {
	Capacity    int        `config:"capacity"`
	Delimiter   string     `config:"delimiter"`
	MaxLine     int        `config:"max_line"`
	MetricsAddr string     `config:"metrics_addr"`
	LogLevel    string     `config:"log_level"`
	ProducerCPU int        `config:"producer_cpu"`
	ConsumerCPU int        `config:"consumer_cpu"`
	Pump        PumpConfig `config:"pump"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Capacity:    4096,
		Delimiter:   "\n",
		LogLevel:    "info",
		ProducerCPU: -1,
		ConsumerCPU: -1,
		Pump: PumpConfig{
			Policy:     PolicyRetry,
			ChunkSize:  512,
			MaxSpill:   1 << 20,
			MinBackoff: time.Microsecond,
			MaxBackoff: time.Millisecond,
		},
	}
}

// Validate implements ucfg.Validator.
func (c *Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1, got %d", c.Capacity)
	}
	if c.MaxLine < 0 {
		return fmt.Errorf("max_line must not be negative, got %d", c.MaxLine)
	}
	if _, err := ParseDelimiter(c.Delimiter); err != nil {
		return err
	}
	if c.ProducerCPU < -1 || c.ConsumerCPU < -1 {
		return fmt.Errorf("producer_cpu and consumer_cpu must be -1 (unpinned) or a cpu index")
	}
	return c.Pump.Validate()
}

// DelimiterByte returns the parsed record delimiter.
func (c *Config) DelimiterByte() byte {
	d, _ := ParseDelimiter(c.Delimiter)
	return d
}

// LineLimit returns MaxLine, or Capacity when MaxLine is unset.
func (c *Config) LineLimit() int {
	if c.MaxLine == 0 {
		return c.Capacity
	}
	return c.MaxLine
}

// ParseDelimiter accepts a single byte or a Go escape such as `\n` or `\x00`.
func ParseDelimiter(s string) (byte, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil && len(u) == 1 {
		return u[0], nil
	}
	return 0, fmt.Errorf("delimiter must be a single byte, got %q", s)
}

// Parse unpacks YAML data over the defaults.
func Parse(data []byte) (Config, error) {
	raw, err := yaml.NewConfig(data, ucfg.PathSep("."))
	if err != nil {
		return Config{}, errors.Wrap(err, "parsing config")
	}
	return unpack(raw)
}

// LoadFile unpacks a YAML file over the defaults.
func LoadFile(path string) (Config, error) {
	raw, err := yaml.NewConfigWithFile(path, ucfg.PathSep("."))
	if err != nil {
		return Config{}, errors.Wrapf(err, "loading config %s", path)
	}
	return unpack(raw)
}

func unpack(raw *ucfg.Config) (Config, error) {
	cfg := DefaultConfig()
	if err := raw.Unpack(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "unpacking config")
	}
	return cfg, nil
}

// ConfigStore holds the live PumpConfig with atomic snapshot reads and
// listener support.
type ConfigStore struct {
	cur       atomic.Pointer[PumpConfig]
	mu        sync.Mutex
	listeners []func(PumpConfig)
}

// NewConfigStore validates cfg and initializes a store with it.
func NewConfigStore(cfg PumpConfig) (*ConfigStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cs := &ConfigStore{}
	cs.cur.Store(&cfg)
	return cs, nil
}

// Snapshot returns the current config. Safe from any goroutine.
func (cs *ConfigStore) Snapshot() PumpConfig {
	return *cs.cur.Load()
}

// Update validates and installs cfg, then dispatches reload listeners.
// An invalid cfg leaves the store unchanged.
func (cs *ConfigStore) Update(cfg PumpConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.cur.Store(&cfg)
	for _, fn := range cs.listeners {
		go fn(cfg)
	}
	return nil
}

// OnReload registers a listener hook called on config changes.
func (cs *ConfigStore) OnReload(fn func(PumpConfig)) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.listeners = append(cs.listeners, fn)
}
