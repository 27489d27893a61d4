package fetch

import (
	"sync"
	"time"
)

// DefaultSettleDelay is how long the counter must stay at zero before the
// idle callback fires.
const DefaultSettleDelay = 150 * time.Millisecond

// Activity counts outstanding requests. OnBusy fires when the count leaves
// zero; OnIdle fires once the count has been back at zero for the settle
// delay, so a burst of requests produces a single busy/idle cycle.
// Callbacks run without the lock held.
type Activity struct {
	mu     sync.Mutex
	count  int
	busy   bool
	gen    uint64
	settle time.Duration
	onBusy func()
	onIdle func()
}

// NewActivity creates an Activity. Nil callbacks are ignored and a
// non-positive settle uses DefaultSettleDelay.
func NewActivity(settle time.Duration, onBusy, onIdle func()) *Activity {
	if settle <= 0 {
		settle = DefaultSettleDelay
	}
	return &Activity{settle: settle, onBusy: onBusy, onIdle: onIdle}
}

// Start records one request and returns the function that ends it.
// Calling the returned function more than once has no further effect.
func (a *Activity) Start() (done func()) {
	a.mu.Lock()
	a.count++
	a.gen++ // cancels any pending idle
	fire := !a.busy
	a.busy = true
	a.mu.Unlock()

	if fire && a.onBusy != nil {
		a.onBusy()
	}

	var once sync.Once
	return func() { once.Do(a.finish) }
}

func (a *Activity) finish() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.count--
	if a.count > 0 {
		return
	}
	a.count = 0
	gen := a.gen
	time.AfterFunc(a.settle, func() { a.settleIdle(gen) })
}

func (a *Activity) settleIdle(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.count > 0 || !a.busy {
		a.mu.Unlock()
		return
	}
	a.busy = false
	a.mu.Unlock()

	if a.onIdle != nil {
		a.onIdle()
	}
}

// Busy reports whether the indicator is currently shown.
func (a *Activity) Busy() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.busy
}

// Outstanding returns the number of requests in flight.
func (a *Activity) Outstanding() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.count
}
