package display

import (
	"sync"
)

// Notifier fans notifications out to backends on its own goroutine.
// Notify never blocks: per channel only the latest pending notification
// survives, so a fast volume ramp renders as a moving value rather than a
// backlog of stale ones.
type Notifier struct {
	mu      sync.Mutex
	pending map[string]Notification
	order   []string

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	backends []Sink
}

func NewNotifier(backends ...Sink) *Notifier {
	n := &Notifier{
		pending:  make(map[string]Notification),
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
		backends: backends,
	}
	n.wg.Add(1)
	go n.run()
	return n
}

func (n *Notifier) Notify(nt Notification) {
	n.mu.Lock()
	if _, queued := n.pending[nt.Channel]; !queued {
		n.order = append(n.order, nt.Channel)
	}
	n.pending[nt.Channel] = nt
	n.mu.Unlock()

	select {
	case n.wake <- struct{}{}:
	default:
	}
}

func (n *Notifier) run() {
	defer n.wg.Done()
	for {
		select {
		case <-n.done:
			return
		case <-n.wake:
			for {
				nt, ok := n.take()
				if !ok {
					break
				}
				for _, b := range n.backends {
					b.Notify(nt)
				}
			}
		}
	}
}

func (n *Notifier) take() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.order) == 0 {
		return Notification{}, false
	}
	ch := n.order[0]
	n.order = n.order[1:]
	nt := n.pending[ch]
	delete(n.pending, ch)
	return nt, true
}

func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
	n.wg.Wait()
}
