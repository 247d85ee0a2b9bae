package dbmanager

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// startMonitorLocked launches the periodic health check. Callers hold m.mu.
func (m *Manager) startMonitorLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	m.monitorCancel = cancel
	m.monitorDone = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkConnection(ctx)
			}
		}
	}()
}

// checkConnection pings the pool, or schedules a reconnect when the stored settings
// no longer match the active ones.
func (m *Manager) checkConnection(ctx context.Context) {
	m.mu.Lock()
	db, current := m.db, m.current
	m.mu.Unlock()
	if db == nil {
		return
	}

	if m.settings != nil {
		stored, err := m.settings.Load()
		switch {
		case err != nil:
			m.logger.Warn("failed to reload database settings", zap.Error(err))
		case current != nil && !current.Equal(stored):
			m.logger.Info("database settings changed, reinitializing")
			m.Init()
			return
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, m.checkTimeout)
	err := db.PingContext(pingCtx)
	cancel()
	if ctx.Err() != nil {
		return
	}

	if err != nil {
		m.logger.Warn("database connection check failed", zap.Error(err))
		m.setConnected(false, fmt.Sprintf("Connection check failed: %v", err))
		return
	}
	m.setConnected(true, "Connection established")
}

// setConnected publishes a status change and emits ConnectionChanged once per transition.
func (m *Manager) setConnected(ok bool, message string) {
	m.transitionMu.Lock()
	defer m.transitionMu.Unlock()

	changed := m.status.CompareAndSet(ok, func(current, next bool) bool { return current != next })
	m.metrics.SetConnectionUp(ok)
	if !changed {
		return
	}
	m.emit(EventConnectionChanged, ok, message)
}
