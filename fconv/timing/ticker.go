package timing

import "time"

// TickerLimiter uses time.Ticker for simple, consistent callback timing.
// Less accurate than AdaptiveLimiter but simpler and good enough for tests
// that don't assert on precise device-clock drift.
type TickerLimiter struct {
	period time.Duration
	ticker *time.Ticker
	ch     <-chan time.Time
}

// NewTickerLimiter paces callbacks period apart.
func NewTickerLimiter(period time.Duration) *TickerLimiter {
	ticker := time.NewTicker(period)
	return &TickerLimiter{
		period: period,
		ticker: ticker,
		ch:     ticker.C,
	}
}

func (t *TickerLimiter) WaitForNextCallback() {
	<-t.ch
}

func (t *TickerLimiter) Reset() {
	t.ticker.Reset(t.period)
}

func (t *TickerLimiter) Stop() {
	t.ticker.Stop()
}
