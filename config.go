package portmon

import "time"

// CommonBaudRates lists the rates offered by the monitor UI, lowest first.
var CommonBaudRates = []int{
	300, 1200, 2400, 4800, 9600, 19200, 38400,
	57600, 115200, 230400, 460800, 921600,
}

// Config holds the configuration for a session manager
type Config struct {
	BaudRate         int           // rate applied to future opens
	DiscoverInterval time.Duration // how often the port set is reconciled
	PollInterval     time.Duration // how often open ports are drained
	ResetDelay       time.Duration // hold time between reset assert and deassert
	ReadBufferSize   int           // per-drain read buffer
}

// Option is a functional option for configuring a session manager
type Option func(*Config) error

// NewConfig builds a configuration from the defaults plus any options
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		BaudRate:         115200,
		DiscoverInterval: time.Second,
		PollInterval:     50 * time.Millisecond,
		ResetDelay:       100 * time.Millisecond,
		ReadBufferSize:   4096,
	}
}

// WithBaudRate sets the baud rate used for future opens
func WithBaudRate(rate int) Option {
	return func(c *Config) error {
		if _, err := baudRateConstant(rate); err != nil {
			return err
		}
		c.BaudRate = rate
		return nil
	}
}

// WithDiscoverInterval sets the discovery/reconciliation tick interval
func WithDiscoverInterval(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.DiscoverInterval = d
		return nil
	}
}

// WithPollInterval sets the data polling tick interval
func WithPollInterval(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.PollInterval = d
		return nil
	}
}

// WithResetDelay sets the delay between the two reset phases
func WithResetDelay(d time.Duration) Option {
	return func(c *Config) error {
		if d <= 0 {
			return ErrInvalidConfig
		}
		c.ResetDelay = d
		return nil
	}
}

// WithReadBufferSize sets the per-drain read buffer size
func WithReadBufferSize(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return ErrInvalidConfig
		}
		c.ReadBufferSize = n
		return nil
	}
}
