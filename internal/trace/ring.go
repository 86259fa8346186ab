package trace

import (
	"fmt"
	"io"
	"sync"
)

// RingTracer keeps the most recent events of a run in memory so a failed
// command can print what led up to it. Heartbeats are kept at every level.
type RingTracer struct {
	mu    sync.Mutex
	buf   []Event
	total uint64 // events ever stored; the next slot is total % len(buf)
	level Level
}

// NewRingTracer keeps up to capacity events; 0 or less means 4096.
func NewRingTracer(capacity int, level Level) *RingTracer {
	if capacity <= 0 {
		capacity = 4096
	}
	return &RingTracer{buf: make([]Event, capacity), level: level}
}

func (t *RingTracer) Emit(ev *Event) {
	if ev.Kind != KindHeartbeat && !t.level.ShouldEmit(ev.Scope) {
		return
	}
	stored := *ev
	t.mu.Lock()
	stored.Seq = NextSeq()
	t.buf[t.total%uint64(len(t.buf))] = stored
	t.total++
	t.mu.Unlock()
}

// Snapshot copies the kept events, oldest first.
func (t *RingTracer) Snapshot() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	size := uint64(len(t.buf))
	if t.total <= size {
		return append([]Event(nil), t.buf[:t.total]...)
	}
	start := t.total % size
	out := make([]Event, 0, size)
	out = append(out, t.buf[start:]...)
	return append(out, t.buf[:start]...)
}

// Dropped is the number of events overwritten so far.
func (t *RingTracer) Dropped() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total - min(t.total, uint64(len(t.buf)))
}

// Dump writes the kept events in format. Text dumps start with a note when
// older events were overwritten.
func (t *RingTracer) Dump(w io.Writer, format Format) error {
	if n := t.Dropped(); n > 0 && format != FormatNDJSON {
		if _, err := fmt.Fprintf(w, "... %d earlier events dropped\n", n); err != nil {
			return err
		}
	}
	for _, ev := range t.Snapshot() {
		if _, err := w.Write(FormatEvent(&ev, format)); err != nil {
			return err
		}
	}
	return nil
}

func (t *RingTracer) Flush() error { return nil }

func (t *RingTracer) Close() error { return nil }

func (t *RingTracer) Level() Level { return t.level }

func (t *RingTracer) Enabled() bool { return t.level > LevelOff }
