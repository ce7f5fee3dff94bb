package queue

import (
	"go.uber.org/zap"
)

// Option configures a Queue.
type Option func(*config)

type config struct {
	logger *zap.Logger
	name   string
}

// WithLogger sets the logger for container events.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithName labels log entries from this queue.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}
