package stack

import (
	"go.uber.org/zap"
)

// Option configures a Stack.
type Option func(*config)

type config struct {
	logger *zap.Logger
	name   string
}

// WithLogger sets the logger for container events. By default the
// package-wide dst.Logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithName labels log entries from this stack.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}
