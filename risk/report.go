package risk

import "time"

// Report is a point-in-time account risk summary for the observability
// egress.
type Report struct {
	Equity        float64
	TotalExposure float64
	Drawdown      float64 // fraction of initial equity lost, 0 when flat or ahead
	DailyPnL      float64
	OpenPositions int
	EntriesPaused bool
}

// ObserveEquity records the latest account equity. The first observation
// seeds the drawdown baseline and the daily loss window.
func (m *Manager) ObserveEquity(equity float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.initialEquity == 0 {
		m.initialEquity = equity
		m.day = utcDay(now)
		m.dayStartEquity = equity
	}
	m.lastEquity = equity
}

// RecordClose accumulates realized PnL for the daily loss limit. The
// window resets when the UTC day rolls over.
func (m *Manager) RecordClose(pnl float64, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day := utcDay(now)
	if !day.Equal(m.day) {
		m.day = day
		m.realizedToday = 0
		m.dayStartEquity = m.lastEquity
	}
	m.realizedToday += pnl
}

// Snapshot builds a Report from the manager's accumulated state plus the
// caller-supplied exposure and open-position count.
func (m *Manager) Snapshot(exposure float64, openPositions int) Report {
	m.mu.Lock()
	defer m.mu.Unlock()
	dd := 0.0
	if m.initialEquity > 0 && m.lastEquity < m.initialEquity {
		dd = (m.initialEquity - m.lastEquity) / m.initialEquity
	}
	return Report{
		Equity:        m.lastEquity,
		TotalExposure: exposure,
		Drawdown:      dd,
		DailyPnL:      m.realizedToday,
		OpenPositions: openPositions,
		EntriesPaused: m.dailyLossBreachedLocked(),
	}
}

func (m *Manager) dailyLossBreached() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dailyLossBreachedLocked()
}

func (m *Manager) dailyLossBreachedLocked() bool {
	if m.cfg.MaxDailyLossPct <= 0 || m.dayStartEquity <= 0 {
		return false
	}
	return -m.realizedToday >= m.dayStartEquity*m.cfg.MaxDailyLossPct/100
}

func utcDay(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}
