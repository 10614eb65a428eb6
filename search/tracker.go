package search

import "sync"

// Tracker counts requests in flight across every session that shares it,
// so a single busy indicator can be driven from it.
type Tracker struct {
	mu       sync.Mutex
	count    int
	onChange func(busy bool)
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// OnChange registers fn to be called whenever Busy flips.
func (t *Tracker) OnChange(fn func(busy bool)) *Tracker {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
	return t
}

func (t *Tracker) Begin() {
	t.mu.Lock()
	t.count++
	fn, flipped := t.onChange, t.count == 1
	t.mu.Unlock()

	if flipped && fn != nil {
		fn(true)
	}
}

// Done settles one request. Extra calls are ignored; the count never goes
// below zero.
func (t *Tracker) Done() {
	t.mu.Lock()
	if t.count == 0 {
		t.mu.Unlock()
		return
	}
	t.count--
	fn, flipped := t.onChange, t.count == 0
	t.mu.Unlock()

	if flipped && fn != nil {
		fn(false)
	}
}

func (t *Tracker) InFlight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

func (t *Tracker) Busy() bool {
	return t.InFlight() > 0
}

// Reset zeroes the counter, e.g. when the owning view is torn down.
func (t *Tracker) Reset() {
	t.mu.Lock()
	was := t.count
	t.count = 0
	fn := t.onChange
	t.mu.Unlock()

	if was > 0 && fn != nil {
		fn(false)
	}
}
