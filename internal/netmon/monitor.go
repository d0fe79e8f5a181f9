// Package netmon classifies the active network path and derives the prefetch
// strategy from it. The monitor is purely signal-driven: something external
// (the OS probe in cmd, or tests) pushes path updates in; subscribers are
// notified only when the classification actually changes.
package netmon

import (
	"sync"

	"go.uber.org/zap"
)

// ConnectionType is the coarse classification of the active network path.
type ConnectionType int

const (
	ConnectionOther ConnectionType = iota
	ConnectionWifi
	ConnectionCellular
)

func (c ConnectionType) String() string {
	switch c {
	case ConnectionWifi:
		return "wifi"
	case ConnectionCellular:
		return "cellular"
	default:
		return "other"
	}
}

// Strategy is the prefetch depth policy. The numeric value is the number of
// positions ahead of current to pre-warm.
type Strategy int

const (
	StrategyMinimal      Strategy = 1
	StrategyConservative Strategy = 3
	StrategyAggressive   Strategy = 7
)

// Depth returns how many positions ahead of current should be warmed.
func (s Strategy) Depth() int { return int(s) }

func (s Strategy) String() string {
	switch s {
	case StrategyAggressive:
		return "aggressive"
	case StrategyConservative:
		return "conservative"
	default:
		return "minimal"
	}
}

// StrategyFor is the total, pure policy mapping connection type to prefetch
// strategy.
func StrategyFor(c ConnectionType) Strategy {
	switch c {
	case ConnectionWifi:
		return StrategyAggressive
	case ConnectionCellular:
		return StrategyConservative
	default:
		return StrategyMinimal
	}
}

// Subscriber receives the new classification whenever it changes.
type Subscriber func(ConnectionType, Strategy)

// Monitor holds the current classification and fans changes out to
// subscribers. Before the first observation it reports cellular/conservative
// rather than unknown, so nothing prefetches aggressively before the first
// real classification arrives.
type Monitor struct {
	mu      sync.Mutex
	current ConnectionType
	subs    []Subscriber
	log     *zap.Logger
}

// NewMonitor creates a monitor with the conservative default classification.
func NewMonitor(log *zap.Logger) *Monitor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Monitor{current: ConnectionCellular, log: log}
}

// Subscribe registers fn and immediately delivers the current value so the
// subscriber starts from a defined strategy.
func (m *Monitor) Subscribe(fn Subscriber) {
	m.mu.Lock()
	m.subs = append(m.subs, fn)
	cur := m.current
	m.mu.Unlock()

	fn(cur, StrategyFor(cur))
}

// Update pushes a new path classification. Re-publishing the current value is
// a no-op; only actual changes propagate downstream.
func (m *Monitor) Update(c ConnectionType) {
	m.mu.Lock()
	if c == m.current {
		m.mu.Unlock()
		return
	}
	m.current = c
	subs := make([]Subscriber, len(m.subs))
	copy(subs, m.subs)
	m.mu.Unlock()

	s := StrategyFor(c)
	m.log.Info("network path changed",
		zap.String("connection", c.String()),
		zap.String("strategy", s.String()))
	for _, fn := range subs {
		fn(c, s)
	}
}

// Current returns the latest classification and its strategy.
func (m *Monitor) Current() (ConnectionType, Strategy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, StrategyFor(m.current)
}
