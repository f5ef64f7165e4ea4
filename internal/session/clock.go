package session

import (
	"sync"
	"time"
)

// Clock supplies time and tickers to the session driver.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

func (RealClock) NewTicker(d time.Duration) Ticker { return realTicker{time.NewTicker(d)} }

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// FakeClock only moves when told to. Tickers fire from Advance and Set,
// dropping ticks a slow reader misses like time.Ticker does.
type FakeClock struct {
	mu      sync.Mutex
	t       time.Time
	tickers []*fakeTicker
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{t: start}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *FakeClock) NewTicker(d time.Duration) Ticker {
	if d <= 0 {
		panic("session: non-positive ticker interval")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ft := &fakeTicker{clock: c, period: d, next: c.t.Add(d), ch: make(chan time.Time, 1)}
	c.tickers = append(c.tickers, ft)
	return ft
}

func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
	c.fireLocked()
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
	c.fireLocked()
}

func (c *FakeClock) fireLocked() {
	for _, ft := range c.tickers {
		if ft.next.After(c.t) {
			continue
		}
		select {
		case ft.ch <- c.t:
		default:
		}
		for !ft.next.After(c.t) {
			ft.next = ft.next.Add(ft.period)
		}
	}
}

func (c *FakeClock) removeTicker(ft *fakeTicker) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, t := range c.tickers {
		if t == ft {
			c.tickers = append(c.tickers[:i], c.tickers[i+1:]...)
			return
		}
	}
}

type fakeTicker struct {
	clock  *FakeClock
	period time.Duration
	next   time.Time
	ch     chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.clock.removeTicker(f) }
