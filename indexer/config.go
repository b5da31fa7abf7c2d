package indexer

import (
	"fmt"
	"log/slog"
)

// Config holds index parameters.
type Config struct {
	Dimension    int           // number of axes, default 2
	NodeCapacity int           // max entries per node before it splits, default 8
	MinEntries   int           // underflow threshold, default NodeCapacity/2; diagnostic only
	Split        SplitStrategy // nil selects LinearSplit
	Logger       *slog.Logger  // nil selects slog.Default()
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Dimension:    2,
		NodeCapacity: 8,
		MinEntries:   4,
		Split:        LinearSplit{},
	}
}

// OrDefault returns DefaultConfig if c is nil, otherwise fills the zero-valued fields of c.
func (c *Config) OrDefault() *Config {
	if c == nil {
		return DefaultConfig()
	}
	if c.Dimension == 0 {
		c.Dimension = 2
	}
	if c.NodeCapacity == 0 {
		c.NodeCapacity = 8
	}
	if c.MinEntries == 0 {
		c.MinEntries = max(1, c.NodeCapacity/2)
	}
	if c.Split == nil {
		c.Split = LinearSplit{}
	}
	return c
}

func (c *Config) validate() error {
	switch {
	case c.Dimension < 1:
		return fmt.Errorf("%w: dimension %d, need at least 1", ErrInvalidConfig, c.Dimension)
	case c.NodeCapacity < 2:
		return fmt.Errorf("%w: node capacity %d, need at least 2", ErrInvalidConfig, c.NodeCapacity)
	case c.MinEntries < 1 || c.MinEntries > max(1, c.NodeCapacity/2):
		return fmt.Errorf("%w: min entries %d must be in [1, %d]", ErrInvalidConfig, c.MinEntries, max(1, c.NodeCapacity/2))
	}
	return nil
}

func (c *Config) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
