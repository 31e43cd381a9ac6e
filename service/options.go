package service

import (
	"context"

	"github.com/coder/quartz"

	"lotto/lottery"
)

// FailureRecorder receives failed lottery operations, typically for metrics
type FailureRecorder interface {
	RecordFailure(ctx context.Context, operation string, err error)
}

type noopFailureRecorder struct{}

func (noopFailureRecorder) RecordFailure(context.Context, string, error) {}

type options struct {
	selector lottery.Selector
	clock    quartz.Clock
	failures FailureRecorder
}

// Option configures a lottery service
type Option func(*options)

// WithSelector sets the winner selector; keccak is the default
func WithSelector(s lottery.Selector) Option {
	return func(o *options) {
		o.selector = s
	}
}

// WithClock sets the clock used to timestamp draws
func WithClock(c quartz.Clock) Option {
	return func(o *options) {
		o.clock = c
	}
}

// WithFailureRecorder reports failed operations to r
func WithFailureRecorder(r FailureRecorder) Option {
	return func(o *options) {
		o.failures = r
	}
}

func buildOptions(opts []Option) options {
	o := options{
		selector: lottery.NewKeccakSelector(),
		clock:    quartz.NewReal(),
		failures: noopFailureRecorder{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

const defaultListLimit = 20

func listLimit(limit int) int {
	if limit <= 0 {
		return defaultListLimit
	}
	return limit
}
