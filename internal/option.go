package internal

import "github.com/starford/tempus/internal/timestamps"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	version string
	clock   timestamps.Clock
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithVersion sets the version reported by the server.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithClock replaces the clock used to stamp notes.
func WithClock(c timestamps.Clock) Option {
	return func(a *application) {
		a.clock = c
	}
}
