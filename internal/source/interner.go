package source

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

type StringID uint32

const NoStringID StringID = 0

// Interner maps strings to dense IDs. ID 0 is reserved for the empty string.
type Interner struct {
	byID  []string
	index map[string]StringID
}

func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": NoStringID},
	}
}

// Intern вставляет строку и возвращает её ID; повторные вызовы возвращают тот же ID.
func (i *Interner) Intern(s string) StringID {
	if id, ok := i.index[s]; ok {
		return id
	}
	n, err := safecast.Conv[uint32](len(i.byID))
	if err != nil {
		panic(fmt.Errorf("interner overflow: %w", err))
	}
	id := StringID(n)
	cpy := string([]byte(s))
	i.byID = append(i.byID, cpy)
	i.index[cpy] = id
	return id
}

// Lookup returns the string for id.
func (i *Interner) Lookup(id StringID) (string, bool) {
	if int(id) >= len(i.byID) {
		return "", false
	}
	return i.byID[id], true
}

// MustLookup panics on an unknown ID.
func (i *Interner) MustLookup(id StringID) string {
	s, ok := i.Lookup(id)
	if !ok {
		panic("invalid string ID")
	}
	return s
}

// Len includes the reserved empty string.
func (i *Interner) Len() int { return len(i.byID) }

// Snapshot returns a copy of all interned strings in ID order.
func (i *Interner) Snapshot() []string { return slices.Clone(i.byID) }
