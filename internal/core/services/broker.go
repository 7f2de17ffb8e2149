package services

import "sync"

// ChangeBroker fans out "something changed" signals per driver to live subscribers.
// Signals carry no payload: subscribers reload the view they render.
type ChangeBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// NewChangeBroker returns an empty broker.
func NewChangeBroker() *ChangeBroker {
	return &ChangeBroker{subs: make(map[string]map[chan struct{}]struct{})}
}

// Subscribe registers interest in driverID. The returned cancel func must be called
// once the subscriber is done.
func (b *ChangeBroker) Subscribe(driverID string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	b.mu.Lock()
	set, ok := b.subs[driverID]
	if !ok {
		set = make(map[chan struct{}]struct{})
		b.subs[driverID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[driverID], ch)
			if len(b.subs[driverID]) == 0 {
				delete(b.subs, driverID)
			}
		})
	}
}

// Publish wakes every subscriber of driverID. A subscriber that has not consumed
// the previous signal yet is not signalled twice.
func (b *ChangeBroker) Publish(driverID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[driverID] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// PublishAll wakes every subscriber of every driver.
func (b *ChangeBroker) PublishAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, set := range b.subs {
		for ch := range set {
			select {
			case ch <- struct{}{}:
			default:
			}
		}
	}
}

// Subscribers returns the number of open subscriptions for driverID.
func (b *ChangeBroker) Subscribers(driverID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[driverID])
}
