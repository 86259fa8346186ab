package trace

import (
	"errors"
	"io"
	"sync"
)

// StreamTracer writes events immediately to an io.Writer.
type StreamTracer struct {
	mu     sync.Mutex
	w      io.Writer
	level  Level
	format Format
	err    error // first write error; later writes are skipped
}

func NewStreamTracer(w io.Writer, level Level, format Format) *StreamTracer {
	return &StreamTracer{w: w, level: level, format: format}
}

func (t *StreamTracer) Emit(ev *Event) {
	if !t.level.ShouldEmit(ev.Scope) && ev.Kind != KindHeartbeat {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.err != nil {
		return
	}
	ev.Seq = NextSeq()
	// tracing must never fail the analysis; the error surfaces on Close
	_, t.err = t.w.Write(FormatEvent(ev, t.format))
}

func (t *StreamTracer) Flush() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if flusher, ok := t.w.(interface{ Flush() error }); ok {
		return flusher.Flush()
	}
	return nil
}

func (t *StreamTracer) Close() error {
	err := t.Flush()
	t.mu.Lock()
	defer t.mu.Unlock()
	if closer, ok := t.w.(io.Closer); ok {
		err = errors.Join(err, closer.Close())
	}
	return errors.Join(t.err, err)
}

func (t *StreamTracer) Level() Level { return t.level }

func (t *StreamTracer) Enabled() bool { return t.level > LevelOff }
