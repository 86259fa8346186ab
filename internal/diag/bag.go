package diag

// Bag is the append-only, detection-ordered diagnostic sequence of one run.
type Bag struct {
	items         []Diagnostic
	max           int
	dropped       int
	droppedErrors int
}

// NewBag creates a bag that keeps at most max diagnostics; max <= 0 means unlimited.
func NewBag(max int) *Bag {
	capHint := max
	if capHint <= 0 || capHint > 256 {
		capHint = 32
	}
	return &Bag{
		items: make([]Diagnostic, 0, capHint),
		max:   max,
	}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена (достигнут лимит).
func (b *Bag) Add(d Diagnostic) bool {
	if b.max > 0 && len(b.items) >= b.max {
		b.dropped++
		if d.Severity == SevError {
			b.droppedErrors++
		}
		return false
	}
	b.items = append(b.items, d)
	return true
}

// HasErrors reports whether any diagnostic has Error severity. A run with
// errors must not proceed to code generation.
func (b *Bag) HasErrors() bool {
	return b.droppedErrors > 0 || b.Count(SevError) > 0
}

// HasWarnings reports whether any diagnostic has Warning severity.
func (b *Bag) HasWarnings() bool {
	return b.Count(SevWarning) > 0
}

// Count returns the number of diagnostics with exactly the given severity.
func (b *Bag) Count(sev Severity) int {
	n := 0
	for i := range b.items {
		if b.items[i].Severity == sev {
			n++
		}
	}
	return n
}

func (b *Bag) Len() int { return len(b.items) }

// Cap returns the limit the bag was created with; 0 means unlimited.
func (b *Bag) Cap() int { return max(b.max, 0) }

// Dropped reports how many diagnostics were rejected by the limit.
func (b *Bag) Dropped() int { return b.dropped }

// Items возвращает read-only slice диагностик.
// ВАЖНО: не модифицируйте возвращаемый срез!
func (b *Bag) Items() []Diagnostic {
	return b.items
}

// ByCode returns the diagnostics with the given code in detection order.
func (b *Bag) ByCode(code Code) []Diagnostic {
	var out []Diagnostic
	for _, d := range b.items {
		if d.Code == code {
			out = append(out, d)
		}
	}
	return out
}

// Transform rewrites every diagnostic in place (e.g. warnings-as-errors).
func (b *Bag) Transform(fn func(*Diagnostic)) {
	for i := range b.items {
		fn(&b.items[i])
	}
}

// Filter drops diagnostics for which keep returns false.
func (b *Bag) Filter(keep func(Diagnostic) bool) {
	out := b.items[:0]
	for _, d := range b.items {
		if keep(d) {
			out = append(out, d)
		}
	}
	b.items = out
}
