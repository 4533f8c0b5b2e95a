package services

import "time"

type options struct {
	now    func() time.Time
	picker Picker
	stats  *SpinStats
}

// Option customises a service. Tests use it to pin the clock and the picker.
type Option func(*options)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithPicker replaces the uniform random picker.
func WithPicker(p Picker) Option {
	return func(o *options) { o.picker = p }
}

// WithStats shares a counter set between services.
func WithStats(s *SpinStats) Option {
	return func(o *options) { o.stats = s }
}

func buildOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		picker: UniformPicker{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.stats == nil {
		o.stats = NewSpinStats()
	}
	return o
}
