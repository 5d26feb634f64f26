// Package dispatch is the hotkey-to-action engine. One goroutine consumes
// key events and drives the repeat controller; a second applies mixer
// mutations so a slow remote never delays key delivery. Feedback is handed
// off fire-and-forget.
package dispatch

import (
	"math"
	"sync"
	"sync/atomic"
	"time"

	"voicemeeterctl/binding"
	"voicemeeterctl/display"
	"voicemeeterctl/hotkey"
	"voicemeeterctl/log"
	"voicemeeterctl/mixer"
	"voicemeeterctl/repeat"
)

// tickInterval drives the repeat controller. Small enough that the 100ms
// repeat cadence lands on time, large enough to stay idle-cheap.
const tickInterval = 25 * time.Millisecond

// workQueueSize bounds pending mixer mutations. When the mixer is slower
// than the ramp cadence, excess ticks are dropped, never queued unbounded;
// the next tick carries the ramp forward anyway.
const workQueueSize = 16

type ctrlOp int

const (
	opReload ctrlOp = iota
	opReset
)

type ctrlMsg struct {
	op    ctrlOp
	table *binding.Table
	reply chan struct{}
}

type mutation struct {
	action  binding.Action
	gen     uint64
	barrier chan struct{}
}

type Engine struct {
	facade *mixer.Facade
	sink   display.Sink
	events <-chan hotkey.Event

	table *binding.Table // owned by the loop goroutine after Start

	stepBits atomic.Uint64
	paused   atomic.Bool
	gen      atomic.Uint64
	dropped  atomic.Uint64
	applied  atomic.Uint64

	ctrl     chan ctrlMsg
	work     chan mutation
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

func New(table *binding.Table, facade *mixer.Facade, sink display.Sink, events <-chan hotkey.Event, volumeStep float64) *Engine {
	e := &Engine{
		facade: facade,
		sink:   sink,
		events: events,
		table:  table,
		ctrl:   make(chan ctrlMsg),
		work:   make(chan mutation, workQueueSize),
		done:   make(chan struct{}),
	}
	e.SetStep(volumeStep)
	return e
}

func (e *Engine) Start() {
	e.wg.Add(2)
	go e.loop()
	go e.worker()
}

// SetStep changes the per-tick volume step (dB). Safe from any goroutine.
func (e *Engine) SetStep(step float64) {
	e.stepBits.Store(math.Float64bits(step))
}

func (e *Engine) step() float64 {
	return math.Float64frombits(e.stepBits.Load())
}

// Pause suppresses dispatch without unregistering the key listener: events
// are still observed but produce no mixer calls, so Resume is instant.
// Outstanding repeats are cancelled before Pause returns.
func (e *Engine) Pause() {
	if !e.paused.CompareAndSwap(false, true) {
		return
	}
	e.gen.Add(1) // queued mutations from before the pause must not land
	e.control(ctrlMsg{op: opReset})
	e.drain()
}

func (e *Engine) Resume() {
	e.paused.Store(false)
}

func (e *Engine) Paused() bool {
	return e.paused.Load()
}

// Reload swaps the binding table and resets all repeat state. When it
// returns, nothing resolved through the old table can fire: queued
// mutations carry a generation the worker rejects, and the worker is
// drained past a barrier before returning.
func (e *Engine) Reload(table *binding.Table) {
	e.gen.Add(1)
	e.control(ctrlMsg{op: opReload, table: table})
	e.drain()
}

// Shutdown stops both goroutines. Idempotent, safe from any goroutine.
func (e *Engine) Shutdown() {
	e.stopOnce.Do(func() {
		close(e.done)
	})
	e.wg.Wait()
}

// Applied reports the total number of mixer mutations performed.
func (e *Engine) Applied() uint64 { return e.applied.Load() }

func (e *Engine) control(msg ctrlMsg) {
	msg.reply = make(chan struct{})
	select {
	case e.ctrl <- msg:
		<-msg.reply
	case <-e.done:
	}
}

// drain waits until the worker has consumed everything queued before the
// barrier, so stale mutations are provably skipped, not merely doomed.
func (e *Engine) drain() {
	barrier := make(chan struct{})
	select {
	case e.work <- mutation{barrier: barrier}:
	case <-e.done:
		return
	}
	select {
	case <-barrier:
	case <-e.done:
	}
}

func (e *Engine) loop() {
	defer e.wg.Done()

	ctl := repeat.New()
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.done:
			return

		case msg := <-e.ctrl:
			switch msg.op {
			case opReload:
				e.table = msg.table
			case opReset:
			}
			ctl.Reset()
			close(msg.reply)

		case ev := <-e.events:
			if e.paused.Load() {
				continue
			}
			now := time.Now()
			if ev.Down {
				actions := e.table.Resolve(ev.Chord)
				if len(actions) == 0 && !ev.Repeat {
					continue
				}
				e.enqueue(ctl.Press(ev.Chord, actions, now, ev.Repeat))
			} else {
				ctl.Release(ev.Chord, now)
			}

		case now := <-ticker.C:
			if e.paused.Load() {
				continue
			}
			e.enqueue(ctl.Tick(now))
		}
	}
}

func (e *Engine) enqueue(fires []binding.Action) {
	gen := e.gen.Load()
	for _, a := range fires {
		select {
		case e.work <- mutation{action: a, gen: gen}:
		default:
			n := e.dropped.Add(1)
			if n%100 == 1 {
				log.DroppedTicks(n)
			}
		}
	}
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for {
		select {
		case <-e.done:
			return
		case m := <-e.work:
			if m.barrier != nil {
				close(m.barrier)
				continue
			}
			if m.gen != e.gen.Load() {
				continue
			}
			e.apply(m.action)
		}
	}
}

// apply performs one read-modify-write against the facade and reports the
// outcome. Failures reach the sink too: a dead hotkey must be visible, not
// silent.
func (e *Engine) apply(a binding.Action) {
	n := display.Notification{Channel: a.Channel, Kind: a.Kind}

	switch a.Kind {
	case binding.MuteToggle:
		cur, err := e.facade.GetMute(a.Strip)
		if err == nil {
			n.Muted, err = e.facade.SetMute(a.Strip, !cur)
		}
		n.Err = err
	case binding.VolumeUp, binding.VolumeDown:
		cur, err := e.facade.GetVolume(a.Strip)
		if err == nil {
			step := e.step()
			if a.Kind == binding.VolumeDown {
				step = -step
			}
			n.Value, err = e.facade.SetVolume(a.Strip, cur+step)
		}
		n.Err = err
	}

	if n.Err != nil {
		log.ActionFailed(a.Channel, a.Kind.String(), n.Err)
	} else {
		e.applied.Add(1)
		log.Action(a.Channel, a.Kind.String(), n.Value, n.Muted)
	}
	e.sink.Notify(n)
}
