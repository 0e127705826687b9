package fetch

import "time"

// RateLimiter paces outgoing requests to at most maxPerMinute. The fetch
// loop is single-threaded, so simple last-request bookkeeping is enough.
type RateLimiter struct {
	interval time.Duration
	last     time.Time
	sleep    func(time.Duration)
}

func NewRateLimiter(maxPerMinute int) *RateLimiter {
	return &RateLimiter{
		interval: time.Minute / time.Duration(maxPerMinute),
		sleep:    time.Sleep,
	}
}

func (rl *RateLimiter) Wait() {
	if !rl.last.IsZero() {
		if since := time.Since(rl.last); since < rl.interval {
			rl.sleep(rl.interval - since)
		}
	}
	rl.last = time.Now()
}
