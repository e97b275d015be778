package circuitbreaker

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Manager hands out one breaker per upstream, created on first use from a shared config.
type Manager struct {
	breakers map[string]*CircuitBreaker
	config   Config
	mutex    sync.Mutex
	logger   *logrus.Logger
}

func NewManager(config Config, logger *logrus.Logger) *Manager {
	return &Manager{
		breakers: make(map[string]*CircuitBreaker),
		config:   config,
		logger:   logger,
	}
}

func (m *Manager) Get(name string) *CircuitBreaker {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if b, ok := m.breakers[name]; ok {
		return b
	}
	cfg := m.config
	cfg.Name = name
	b := New(cfg, m.logger)
	m.breakers[name] = b
	m.logger.WithFields(logrus.Fields{
		"circuit_breaker": name,
		"max_failures":    b.maxFailures,
		"timeout":         b.timeout.String(),
	}).Debug("circuit breaker created")
	return b
}

func (m *Manager) States() map[string]string {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	out := make(map[string]string, len(m.breakers))
	for name, b := range m.breakers {
		out[name] = b.State().String()
	}
	return out
}
