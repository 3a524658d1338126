// Package monitor runs the detect, compare and notify loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ipsend/internal/notify"
	"ipsend/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultInterval is the wait between cycles
const DefaultInterval = 30 * time.Minute

// Resolver returns the current public address
type Resolver interface {
	Resolve(ctx context.Context) (types.Address, error)
}

// Store persists the last notified address
type Store interface {
	Load() (types.Address, bool, error)
	Save(addr types.Address) error
}

// Config represents poll loop settings
type Config struct {
	Interval time.Duration
	Subject  string

	// Recipient is only used for logging
	Recipient string

	// RequireNotifySuccess skips the cache update when the send fails.
	// Off by default: the address is cached after every send attempt.
	RequireNotifySuccess bool
}

// Monitor polls the resolver and notifies on address changes
type Monitor struct {
	config    Config
	resolver  Resolver
	store     Store
	notifier  notify.Notifier
	scheduler Scheduler
	logger    *zap.Logger

	mu      sync.RWMutex
	last    types.Address
	hasLast bool
	metrics Metrics
}

// Option configures a Monitor
type Option func(*Monitor)

// WithScheduler replaces the timer used between cycles
func WithScheduler(s Scheduler) Option {
	return func(m *Monitor) {
		m.scheduler = s
	}
}

// New creates a monitor and loads the cached address from store. A cache
// that exists but cannot be read is returned as an error.
func New(cfg Config, resolver Resolver, store Store, notifier notify.Notifier, logger *zap.Logger, opts ...Option) (*Monitor, error) {
	if resolver == nil || store == nil || notifier == nil {
		return nil, errors.New("resolver, store and notifier are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Subject == "" {
		cfg.Subject = notify.DefaultSubject
	}

	m := &Monitor{
		config:    cfg,
		resolver:  resolver,
		store:     store,
		notifier:  notifier,
		scheduler: TimerScheduler{},
		logger:    logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	last, ok, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load cached address: %w", err)
	}
	m.last, m.hasLast = last, ok

	if ok {
		logger.Info("Loaded cached public IP", zap.String("ip", last.String()))
	} else {
		logger.Info("No cached public IP, next address will be reported")
	}

	return m, nil
}

// Run executes cycles until ctx is cancelled, waiting the configured
// interval after each one. It returns ctx.Err().
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Starting IP monitor", zap.Duration("interval", m.config.Interval))

	for {
		m.RunCycle(ctx)

		if err := m.scheduler.Wait(ctx, m.config.Interval); err != nil {
			m.logger.Info("IP monitor stopped", zap.Error(err))
			return err
		}
	}
}

// RunCycle performs one resolve, compare and notify-then-update pass.
// Failures are logged and never escape the cycle.
func (m *Monitor) RunCycle(ctx context.Context) {
	log := m.logger.With(zap.String("cycle_id", uuid.NewString()))

	m.updateMetrics(func(mt *Metrics) {
		mt.Cycles++
		mt.LastCycleTime = time.Now()
	})

	current, err := m.resolver.Resolve(ctx)
	if err != nil {
		m.updateMetrics(func(mt *Metrics) { mt.ResolutionFailures++ })
		log.Error("Could not retrieve IP. Skipping email", zap.Error(err))
		return
	}

	last, hasLast := m.LastKnown()
	if hasLast && current == last {
		log.Info("Public IP has not changed. No email sent", zap.String("ip", current.String()))
		return
	}

	log.Info("Public IP changed",
		zap.String("ip", current.String()),
		zap.String("version", string(current.Version())),
		zap.String("previous", last.String()))

	m.updateMetrics(func(mt *Metrics) {
		mt.Changes++
		mt.LastChangeTime = time.Now()
	})

	msg := notify.NewIPChangeMessageWithSubject(m.config.Subject, current)
	if err := m.notifier.Send(ctx, msg); err != nil {
		m.updateMetrics(func(mt *Metrics) { mt.NotifyFailures++ })
		log.Error("Failed to send email", zap.Error(err))
		if ctx.Err() != nil {
			// interrupted, not a provider failure: leave the cache as it was
			log.Warn("Send interrupted, cached IP left unchanged", zap.Error(ctx.Err()))
			return
		}
		if m.config.RequireNotifySuccess {
			log.Warn("Keeping previous cached IP until a notification succeeds")
			return
		}
	} else {
		log.Info("Email sent successfully", zap.String("to", m.config.Recipient))
	}

	if err := m.store.Save(current); err != nil {
		m.updateMetrics(func(mt *Metrics) { mt.StoreFailures++ })
		log.Error("Failed to save cached IP", zap.Error(err))
	}

	m.mu.Lock()
	m.last, m.hasLast = current, true
	m.mu.Unlock()
}

// LastKnown returns the address the loop currently compares against
func (m *Monitor) LastKnown() (types.Address, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last, m.hasLast
}

// GetMetrics returns a copy of the current metrics
func (m *Monitor) GetMetrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metrics
}

func (m *Monitor) updateMetrics(fn func(*Metrics)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.metrics)
}
