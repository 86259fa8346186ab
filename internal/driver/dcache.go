package driver

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"pycc/internal/diag"
	"pycc/internal/source"
	"pycc/internal/treeio"
)

// Bump when CachePayload or the meaning of any pass changes.
const diskCacheSchemaVersion uint16 = 1

// CacheKey identifies a unit's diagnostics: document bytes, source text and
// every option that changes what the passes report.
type CacheKey [32]byte

// DiskCache хранит диагностики юнитов на диске по ключу CacheKey.
// Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

// CachePayload is the on-disk record of one unit.
type CachePayload struct {
	Schema      uint16
	Path        string
	Diagnostics []cachedDiag
}

type cachedDiag struct {
	Severity diag.Severity
	Code     diag.Code
	Message  string
	Start    uint32
	End      uint32
	Notes    []cachedNote
	Attrs    []diag.Attr
}

type cachedNote struct {
	Start uint32
	End   uint32
	Msg   string
}

// OpenDiskCache opens dir, or $XDG_CACHE_HOME/pycc when dir is empty.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("locate cache dir: %w", err)
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "pycc")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *DiskCache) Dir() string { return c.dir }

func (c *DiskCache) pathFor(key CacheKey) string {
	return filepath.Join(c.dir, "units", hex.EncodeToString(key[:])+".mp")
}

// Put serializes a payload; a nil payload is not stored.
func (c *DiskCache) Put(key CacheKey, payload *CachePayload) error {
	if c == nil || payload == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	if err := msgpack.NewEncoder(f).Encode(payload); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("encode cache entry: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get reads a payload. A missing entry is (false, nil).
func (c *DiskCache) Get(key CacheKey, out *CachePayload) (bool, error) {
	if c == nil {
		return false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	defer func() { _ = f.Close() }()
	if err := msgpack.NewDecoder(f).Decode(out); err != nil {
		return false, fmt.Errorf("decode cache entry: %w", err)
	}
	return out.Schema == diskCacheSchemaVersion, nil
}

// DropAll removes every entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// переименуем каталог, чтобы параллельный Get не прочитал полуудалённое
	old := c.dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(c.dir, old); err != nil {
		return err
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	return os.RemoveAll(old)
}

func cacheKey(tree, src [32]byte, opts *Options) CacheKey {
	h := sha256.New()
	var word [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(word[:], v)
		h.Write(word[:])
	}
	put(uint64(diskCacheSchemaVersion))
	put(treeio.SchemaVersion)
	h.Write(tree[:])
	h.Write(src[:])
	put(uint64(max(opts.MaxDiagnostics, 0)))
	put(uint64(max(opts.MaxIterations, 0)))
	put(uint64(opts.Stage))
	if opts.ReportShadowing {
		put(1)
	} else {
		put(0)
	}
	builtins := opts.builtins()
	for _, name := range builtins.Names() {
		sig, _ := builtins.Lookup(name)
		h.Write([]byte(name))
		put(uint64(int64(sig.Arity)))
		put(uint64(sig.Result))
		if sig.ResultFromArg {
			put(1)
		}
	}
	var key CacheKey
	h.Sum(key[:0])
	return key
}

// newCachePayload returns nil for truncated bags: the dropped counts cannot
// be replayed.
func newCachePayload(res *UnitResult) *CachePayload {
	if res.Bag.Dropped() > 0 {
		return nil
	}
	items := res.Bag.Items()
	payload := &CachePayload{
		Schema:      diskCacheSchemaVersion,
		Path:        res.Unit.Path,
		Diagnostics: make([]cachedDiag, len(items)),
	}
	for i, d := range items {
		cd := cachedDiag{
			Severity: d.Severity,
			Code:     d.Code,
			Message:  d.Message,
			Start:    d.Primary.Start,
			End:      d.Primary.End,
			Attrs:    d.Attrs,
		}
		for _, n := range d.Notes {
			cd.Notes = append(cd.Notes, cachedNote{Start: n.Span.Start, End: n.Span.End, Msg: n.Msg})
		}
		payload.Diagnostics[i] = cd
	}
	return payload
}

// restore replaces the unit's bag with the cached diagnostics. All spans of
// a unit point into its single source file.
func (u *UnitResult) restore(c *DiskCache, key CacheKey) (bool, error) {
	var payload CachePayload
	ok, err := c.Get(key, &payload)
	if err != nil || !ok {
		return false, err
	}
	file := u.Unit.Source
	bag := diag.NewBag(u.Bag.Cap())
	for _, cd := range payload.Diagnostics {
		d := diag.New(cd.Severity, cd.Code, source.Span{File: file, Start: cd.Start, End: cd.End}, cd.Message)
		for _, n := range cd.Notes {
			d = d.WithNote(source.Span{File: file, Start: n.Start, End: n.End}, n.Msg)
		}
		d.Attrs = cd.Attrs
		bag.Add(d)
	}
	u.Bag = bag
	return true, nil
}
