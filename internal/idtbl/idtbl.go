// Package idtbl implements an open-addressing, Robin-Hood-hashed table
// of heterogeneous objects keyed by a caller-supplied (hash, compare)
// pair, grounded on lib/util/objtbl.h of the original C implementation.
//
// Keys and values are the same opaque object: callers store pointers (or
// comparable struct values boxed as any) and get them back from Get.
// Table mutation methods are unavailable after Sort; Sort exists so a
// caller can stream entries out in a deterministic order (e.g. by a
// chain id or a composite service key) without re-hashing.
package idtbl

// HashFunc computes a table-internal hash for obj, seeded with seed so
// that hash flooding across separate Table instances isn't predictable.
type HashFunc func(obj any, seed uint32) uint32

// CompareFunc reports whether key identifies the same logical object as
// entry (both previously or about to be stored via Insert).
type CompareFunc func(key, entry any) bool

const (
	defaultCap   = 16
	rehashLoadPM = 850 // rehash at >=85% load, in parts-per-thousand
)

type slot struct {
	hash     uint32
	distance int32 // -1 means empty
	value    any
}

// Table is a Robin-Hood open-addressing hash table over opaque objects.
type Table struct {
	hash    HashFunc
	compare CompareFunc
	seed    uint32

	entries []slot
	size    int
	modmask uint32

	maxProbeDistance int32
	sorted           bool
}

// Stats reports table occupancy and probe-distance metrics, mirroring
// objtbl_calc_stats/objtbl_stats from the C original.
type Stats struct {
	Size              int
	Cap               int
	MaxProbeDistance  int
	AverageProbeDistance float64
}

// New creates a Table with the given hash/compare pair and seed.
// nslots is rounded up to the next power of two (minimum defaultCap).
func New(hash HashFunc, compare CompareFunc, seed uint32, nslots int) *Table {
	cap := nextPow2(nslots)
	if cap < defaultCap {
		cap = defaultCap
	}
	t := &Table{
		hash:    hash,
		compare: compare,
		seed:    seed,
		entries: make([]slot, cap),
		modmask: uint32(cap - 1),
	}
	for i := range t.entries {
		t.entries[i].distance = -1
	}
	return t
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (t *Table) checkMutable() {
	if t.sorted {
		panic("idtbl: mutating call after destructive Sort")
	}
}

// Get looks up keyobj, returning the stored value and whether it was found.
func (t *Table) Get(keyobj any) (any, bool) {
	t.checkMutable()
	idx, ok := t.indexOf(keyobj)
	if !ok {
		return nil, false
	}
	return t.entries[idx].value, true
}

// Contains reports whether keyobj is present.
func (t *Table) Contains(keyobj any) bool {
	_, ok := t.Get(keyobj)
	return ok
}

func (t *Table) indexOf(keyobj any) (int, bool) {
	h := t.hash(keyobj, t.seed)
	idx := h & t.modmask
	var dist int32
	for {
		s := &t.entries[idx]
		if s.distance < 0 {
			return 0, false
		}
		if dist > s.distance {
			return 0, false
		}
		if s.hash == h && t.compare(keyobj, s.value) {
			return int(idx), true
		}
		idx = (idx + 1) & t.modmask
		dist++
	}
}

// Insert stores obj, replacing any existing entry the compare function
// considers a duplicate of obj.
func (t *Table) Insert(obj any) {
	t.checkMutable()
	if (t.size+1)*1000 >= len(t.entries)*rehashLoadPM {
		t.rehash(len(t.entries) * 2)
	}
	t.insert(t.hash(obj, t.seed), obj)
}

func (t *Table) insert(h uint32, obj any) {
	idx := h & t.modmask
	var dist int32
	cur := slot{hash: h, distance: 0, value: obj}

	for {
		s := &t.entries[idx]
		if s.distance < 0 {
			cur.distance = dist
			*s = cur
			t.size++
			return
		}
		if s.hash == cur.hash && t.compare(cur.value, s.value) {
			// replace on duplicate key
			cur.distance = s.distance
			*s = cur
			return
		}
		if s.distance < dist {
			// Robin Hood: steal from the rich, give to the poor.
			cur.distance, s.distance = s.distance, dist
			cur.value, s.value = s.value, cur.value
			cur.hash, s.hash = s.hash, cur.hash
		}
		if dist > t.maxProbeDistance {
			t.maxProbeDistance = dist
		}
		idx = (idx + 1) & t.modmask
		dist++
	}
}

// Remove deletes the entry matching keyobj, if any, reporting whether
// one was removed. Uses backward-shift deletion to keep probe distances
// of subsequent entries correct.
func (t *Table) Remove(keyobj any) bool {
	t.checkMutable()
	idx, ok := t.indexOf(keyobj)
	if !ok {
		return false
	}
	t.entries[idx].distance = -1
	t.entries[idx].value = nil
	t.size--

	next := (uint32(idx) + 1) & t.modmask
	cur := uint32(idx)
	for t.entries[next].distance > 0 {
		t.entries[cur] = t.entries[next]
		t.entries[cur].distance--
		t.entries[next].distance = -1
		t.entries[next].value = nil
		cur = next
		next = (next + 1) & t.modmask
	}
	return true
}

func (t *Table) rehash(newCap int) {
	old := t.entries
	t.entries = make([]slot, newCap)
	for i := range t.entries {
		t.entries[i].distance = -1
	}
	t.modmask = uint32(newCap - 1)
	t.size = 0
	t.maxProbeDistance = 0
	for _, s := range old {
		if s.distance >= 0 {
			t.insert(s.hash, s.value)
		}
	}
}

// Foreach calls fn(value) for every stored entry until fn returns false
// or every entry has been visited.
func (t *Table) Foreach(fn func(value any) bool) {
	t.checkMutable()
	for _, s := range t.entries {
		if s.distance < 0 {
			continue
		}
		if !fn(s.value) {
			return
		}
	}
}

// Sort arranges entries by less(a, b) and switches the table into a
// read-only, index-addressable mode: subsequent Get/Insert/Remove calls
// panic, only At/Len remain valid. This mirrors the destructive
// objtbl_sort contract.
func (t *Table) Sort(less func(a, b any) bool) {
	t.checkMutable()
	occupied := make([]any, 0, t.size)
	for _, s := range t.entries {
		if s.distance >= 0 {
			occupied = append(occupied, s.value)
		}
	}
	insertionSort(occupied, less)
	t.entries = t.entries[:0]
	for _, v := range occupied {
		t.entries = append(t.entries, slot{distance: 0, value: v})
	}
	t.sorted = true
}

func insertionSort(vals []any, less func(a, b any) bool) {
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && less(vals[j], vals[j-1]); j-- {
			vals[j], vals[j-1] = vals[j-1], vals[j]
		}
	}
}

// Len returns the number of entries. Valid both before and after Sort.
func (t *Table) Len() int {
	return t.size
}

// At returns the value at sorted index i. Valid only after Sort.
func (t *Table) At(i int) any {
	if !t.sorted {
		panic("idtbl: At() called before Sort()")
	}
	return t.entries[i].value
}

// CalcStats reports current occupancy and probing metrics.
func (t *Table) CalcStats() Stats {
	var totalDist int64
	var n int64
	for _, s := range t.entries {
		if s.distance >= 0 {
			totalDist += int64(s.distance)
			n++
		}
	}
	avg := 0.0
	if n > 0 {
		avg = float64(totalDist) / float64(n)
	}
	return Stats{
		Size:                 t.size,
		Cap:                  len(t.entries),
		MaxProbeDistance:     int(t.maxProbeDistance),
		AverageProbeDistance: avg,
	}
}
