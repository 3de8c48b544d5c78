package collate

import "github.com/sebcat/yans/internal/idtbl"

// ComponentEntry is a deduplicated (name, version) pair together with
// every service id it was observed on, grounded on component_entry
// (lib/match/component.h).
type ComponentEntry struct {
	ID       uint32
	Name     string
	Version  string
	Services []uint32
}

func (c *ComponentEntry) hasService(id uint32) bool {
	for _, sid := range c.Services {
		if sid == id {
			return true
		}
	}
	return false
}

// ComponentTable upserts (name, version, serviceID) observations into
// deduplicated ComponentEntry objects, assigning each distinct
// (name, version) pair a monotonically increasing id on first sight,
// grounded on component_init/component_register/component_foreach.
type ComponentTable struct {
	t      *idtbl.Table
	nextID uint32
}

// NewComponentTable constructs an empty table.
func NewComponentTable(seed uint32) *ComponentTable {
	return &ComponentTable{
		t: idtbl.New(componentHash, componentEqual, seed, 64),
	}
}

// Register upserts (name, version), appends serviceID to its service
// list if not already present, and returns the resulting entry.
func (c *ComponentTable) Register(name, version string, serviceID uint32) *ComponentEntry {
	key := componentKey{Name: name, Version: version}
	if v, ok := c.t.Get(key); ok {
		entry := v.(*ComponentEntry)
		if !entry.hasService(serviceID) {
			entry.Services = append(entry.Services, serviceID)
		}
		return entry
	}

	c.nextID++
	entry := &ComponentEntry{
		ID:       c.nextID,
		Name:     name,
		Version:  version,
		Services: []uint32{serviceID},
	}
	c.t.Insert(entry)
	return entry
}

// Foreach calls fn once per distinct component entry, in table-internal
// (not insertion) order, matching component_foreach's own iteration
// order over its backing object table.
func (c *ComponentTable) Foreach(fn func(*ComponentEntry)) {
	c.t.Foreach(func(value any) bool {
		fn(value.(*ComponentEntry))
		return true
	})
}

// Len returns the number of distinct components registered.
func (c *ComponentTable) Len() int {
	return c.t.Len()
}
