package circuitbreaker

import (
	"context"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"qscope/pkg/metrics"
)

type Config struct {
	Name          string
	MaxRequests   uint32
	Interval      time.Duration
	Timeout       time.Duration
	FailureRatio  float64
	MinRequests   uint32
	OnStateChange func(name string, from, to gobreaker.State)
}

func DefaultConfig(name string) Config {
	return Config{
		Name:         name,
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

type Breaker struct {
	cb *gobreaker.CircuitBreaker
}

func New(cfg Config) *Breaker {
	minRequests := cfg.MinRequests
	ratio := cfg.FailureRatio
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < minRequests || counts.Requests == 0 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= ratio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			updateStateMetric(name, to)
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	cb := gobreaker.NewCircuitBreaker(settings)
	updateStateMetric(cfg.Name, cb.State())

	return &Breaker{cb: cb}
}

// Do runs fn through the breaker. gobreaker.ErrOpenState is returned without
// calling fn while the circuit is open.
func (b *Breaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})

	metrics.CircuitBreakerRequests.WithLabelValues(b.cb.Name(), b.cb.State().String()).Inc()
	if err != nil {
		metrics.CircuitBreakerFailures.WithLabelValues(b.cb.Name()).Inc()
	}
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}

func (b *Breaker) Name() string {
	return b.cb.Name()
}

func (b *Breaker) IsOpen() bool {
	return b.cb.State() == gobreaker.StateOpen
}

// Set hands out one breaker per name, created lazily from a template config.
type Set struct {
	mu       sync.Mutex
	template Config
	breakers map[string]*Breaker
}

func NewSet(template Config) *Set {
	return &Set{
		template: template,
		breakers: make(map[string]*Breaker),
	}
}

func (s *Set) Get(name string) *Breaker {
	s.mu.Lock()
	defer s.mu.Unlock()

	if b, ok := s.breakers[name]; ok {
		return b
	}
	cfg := s.template
	cfg.Name = name
	b := New(cfg)
	s.breakers[name] = b
	return b
}

func updateStateMetric(name string, state gobreaker.State) {
	var value float64
	switch state {
	case gobreaker.StateClosed:
		value = 0
	case gobreaker.StateHalfOpen:
		value = 1
	case gobreaker.StateOpen:
		value = 2
	}
	metrics.CircuitBreakerState.WithLabelValues(name).Set(value)
}
