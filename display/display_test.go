package display

import (
	"errors"
	"sync"
	"testing"
	"time"

	"voicemeeterctl/binding"
)

func TestNotificationText(t *testing.T) {
	cases := []struct {
		note Notification
		want string
	}{
		{Notification{Channel: "microphone", Kind: binding.VolumeUp, Value: -4.0}, "Microphone: -4.0 dB"},
		{Notification{Channel: "microphone", Kind: binding.VolumeDown, Value: 12}, "Microphone: 12.0 dB"},
		{Notification{Channel: "speakers", Kind: binding.MuteToggle, Muted: true}, "Speakers: Muted"},
		{Notification{Channel: "speakers", Kind: binding.MuteToggle, Muted: false}, "Speakers: Unmuted"},
		{Notification{Channel: "microphone", Kind: binding.VolumeUp, Err: errors.New("x")}, "Microphone: mixer disconnected"},
	}
	for _, tc := range cases {
		if got := tc.note.Text(); got != tc.want {
			t.Errorf("Text() = %q, want %q", got, tc.want)
		}
	}
}

// gateSink blocks delivery until released, so tests can pile up pending
// notifications deterministically.
type gateSink struct {
	mu       sync.Mutex
	got      []Notification
	entered  chan struct{}
	release  chan struct{}
	blockOne bool
}

func newGateSink() *gateSink {
	return &gateSink{
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (s *gateSink) Notify(n Notification) {
	s.mu.Lock()
	first := len(s.got) == 0
	s.got = append(s.got, n)
	block := s.blockOne && first
	s.mu.Unlock()
	if block {
		s.entered <- struct{}{}
		<-s.release
	}
}

func (s *gateSink) all() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Notification(nil), s.got...)
}

func TestNotifierDelivers(t *testing.T) {
	sink := newGateSink()
	n := NewNotifier(sink)
	defer n.Close()

	n.Notify(Notification{Channel: "microphone", Kind: binding.VolumeUp, Value: -4.0})

	deadline := time.After(2 * time.Second)
	for len(sink.all()) == 0 {
		select {
		case <-deadline:
			t.Fatal("notification never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	if got := sink.all()[0].Value; got != -4.0 {
		t.Errorf("delivered value = %v, want -4.0", got)
	}
}

func TestNotifierCoalescesPerChannel(t *testing.T) {
	sink := newGateSink()
	sink.blockOne = true
	n := NewNotifier(sink)
	defer n.Close()

	// first delivery blocks inside the sink
	n.Notify(Notification{Channel: "speakers", Kind: binding.VolumeUp, Value: 0})
	<-sink.entered

	// ramp updates pile up while the sink is stuck; only the last survives
	for v := 1.0; v <= 5.0; v++ {
		n.Notify(Notification{Channel: "microphone", Kind: binding.VolumeUp, Value: v})
	}
	close(sink.release)

	deadline := time.After(2 * time.Second)
	for len(sink.all()) < 2 {
		select {
		case <-deadline:
			t.Fatal("coalesced notification never delivered")
		case <-time.After(5 * time.Millisecond):
		}
	}
	got := sink.all()
	if len(got) != 2 {
		t.Fatalf("delivered %d notifications, want 2 (blocked + coalesced)", len(got))
	}
	if got[1].Channel != "microphone" || got[1].Value != 5.0 {
		t.Errorf("coalesced delivery = %+v, want latest microphone value 5.0", got[1])
	}
}

func TestNotifyNeverBlocks(t *testing.T) {
	sink := newGateSink()
	sink.blockOne = true
	n := NewNotifier(sink)
	defer n.Close()
	defer close(sink.release)

	n.Notify(Notification{Channel: "a", Kind: binding.VolumeUp})
	<-sink.entered

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			n.Notify(Notification{Channel: "b", Kind: binding.VolumeUp, Value: float64(i)})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify blocked behind a stuck backend")
	}
}

func TestNotifierCloseIdempotent(t *testing.T) {
	n := NewNotifier()
	n.Close()
	n.Close()
}
