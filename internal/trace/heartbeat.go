package trace

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Heartbeat wraps a tracer and follows the spans passing through it. Every
// interval it emits one event listing what each busy goroutine is doing,
// e.g. "#3 unit:a.json > sema/classify". A unit that shows up in several
// beats in a row is the one stuck in a pass.
type Heartbeat struct {
	Tracer

	mu   sync.Mutex
	open map[uint64][]openSpan // by goroutine

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

type openSpan struct {
	id   uint64
	name string
}

// StartHeartbeat returns nil when tracing is off or interval is not positive.
// Otherwise the returned Heartbeat must replace t for the run so it sees the spans.
func StartHeartbeat(t Tracer, interval time.Duration) *Heartbeat {
	if t == nil || !t.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		Tracer: t,
		open:   make(map[uint64][]openSpan),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go h.run(interval)
	return h
}

// Emit records span boundaries and forwards ev.
func (h *Heartbeat) Emit(ev *Event) {
	switch ev.Kind {
	case KindSpanBegin:
		h.mu.Lock()
		h.open[ev.GID] = append(h.open[ev.GID], openSpan{id: ev.SpanID, name: ev.Name})
		h.mu.Unlock()
	case KindSpanEnd:
		h.mu.Lock()
		stack := h.open[ev.GID]
		if i := slices.IndexFunc(stack, func(s openSpan) bool { return s.id == ev.SpanID }); i >= 0 {
			stack = stack[:i]
		}
		if len(stack) == 0 {
			delete(h.open, ev.GID)
		} else {
			h.open[ev.GID] = stack
		}
		h.mu.Unlock()
	}
	h.Tracer.Emit(ev)
}

// Active lists the open span chain of every busy goroutine, sorted.
func (h *Heartbeat) Active() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.open))
	for _, stack := range h.open {
		names := make([]string, len(stack))
		for i, s := range stack {
			names[i] = s.name
		}
		out = append(out, strings.Join(names, " > "))
	}
	slices.Sort(out)
	return out
}

func (h *Heartbeat) run(interval time.Duration) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var seq uint64
	for {
		select {
		case <-ticker.C:
			seq++
			h.beat(seq)
		case <-h.stop:
			return
		}
	}
}

func (h *Heartbeat) beat(seq uint64) {
	active := h.Active()
	detail := fmt.Sprintf("#%d idle", seq)
	if len(active) > 0 {
		detail = fmt.Sprintf("#%d %s", seq, strings.Join(active, "; "))
	}
	h.Tracer.Emit(&Event{
		Time:   time.Now(),
		Kind:   KindHeartbeat,
		Scope:  ScopeDriver,
		GID:    goroutineID(),
		Name:   "heartbeat",
		Detail: detail,
	})
}

// Stop ends the ticker and waits for it. The wrapped tracer stays open.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
