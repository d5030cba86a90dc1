package store

import "time"

// Option configures Store behavior.
type Option func(*StoreOptions)

// StoreOptions carries optional configuration for Store.
type StoreOptions struct {
	Now func() time.Time
}

// WithClock overrides the time source used for created_at and sale dates.
func WithClock(now func() time.Time) Option {
	return func(opts *StoreOptions) {
		opts.Now = now
	}
}
