// Copyright (C) 2026, Lux Partners Limited. All rights reserved.
// See the file LICENSE for licensing terms.

package remote

import "github.com/luxfi/glyphcache"

// DefaultMaxEntries bounds the server's strike descriptor map before it
// prunes entries the client has deleted.
const DefaultMaxEntries = 2000

type config struct {
	maxEntries int
	logger     *glyphcache.Logger
}

func newConfig(opts []Option) config {
	c := config{maxEntries: DefaultMaxEntries}
	for _, opt := range opts {
		opt(&c)
	}
	if c.logger == nil {
		c.logger = glyphcache.NoopLogger()
	}
	return c
}

// Option configures a Server or Client.
type Option func(*config)

// WithMaxEntries sets the server's descriptor map bound. Values <= 0 prune
// on every new strike. Clients ignore it.
func WithMaxEntries(n int) Option {
	return func(c *config) {
		c.maxEntries = max(n, 0)
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *glyphcache.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}
