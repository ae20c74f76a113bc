package classifier

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/address-classifier/internal/address"
	"github.com/address-classifier/internal/normalizer"
)

// maxDepth bounds the parent walk so a cyclic data set cannot hang a lookup.
const maxDepth = 16

type memoryEntry struct {
	Object
	name normalizer.NormalizedName
}

// MemoryLookup keeps the classifier in process and matches names with the
// fuzzy token equality.
type MemoryLookup struct {
	mu      sync.RWMutex
	byGUID  map[string]Object
	byLevel map[address.Level][]memoryEntry
}

// NewMemoryLookup creates a lookup over objs.
func NewMemoryLookup(objs ...Object) *MemoryLookup {
	m := &MemoryLookup{
		byGUID:  make(map[string]Object),
		byLevel: make(map[address.Level][]memoryEntry),
	}
	m.Add(objs...)
	return m
}

// Add inserts or replaces objects by GUID.
func (m *MemoryLookup) Add(objs ...Object) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range objs {
		if old, ok := m.byGUID[o.GUID]; ok {
			m.remove(old)
		}
		m.byGUID[o.GUID] = o
		m.byLevel[o.Level] = append(m.byLevel[o.Level], memoryEntry{Object: o, name: normalizer.NewName(o.Name)})
	}
	for l := range m.byLevel {
		list := m.byLevel[l]
		sort.SliceStable(list, func(i, j int) bool { return list[i].GUID < list[j].GUID })
	}
}

func (m *MemoryLookup) remove(o Object) {
	list := m.byLevel[o.Level]
	for i := range list {
		if list[i].GUID == o.GUID {
			m.byLevel[o.Level] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

// Len returns the number of objects.
func (m *MemoryLookup) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.byGUID)
}

// Get returns the object with guid.
func (m *MemoryLookup) Get(guid string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.byGUID[guid]
	return o, ok
}

// Find returns the objects of q.Level whose name equals q.Name and which lie
// under q.ParentGUID. Results are ordered by GUID.
func (m *MemoryLookup) Find(ctx context.Context, q Query) ([]Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := normalizer.NewName(q.Name)
	if name.IsEmpty() {
		return nil, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Object
	for _, e := range m.byLevel[q.Level] {
		if q.Type != "" && e.Type != "" && !strings.EqualFold(q.Type, e.Type) {
			continue
		}
		if !normalizer.Equal(name, e.name) {
			continue
		}
		if q.ParentGUID != "" && !m.under(e.Object, q.ParentGUID) {
			continue
		}
		out = append(out, e.Object)
	}
	return out, nil
}

func (m *MemoryLookup) under(o Object, ancestor string) bool {
	parent := o.ParentGUID
	for i := 0; i < maxDepth && parent != ""; i++ {
		if parent == ancestor {
			return true
		}
		parent = m.byGUID[parent].ParentGUID
	}
	return false
}

// Ancestors returns the GUIDs above o, nearest first.
func (m *MemoryLookup) Ancestors(o Object) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []string
	parent := o.ParentGUID
	for i := 0; i < maxDepth && parent != ""; i++ {
		out = append(out, parent)
		parent = m.byGUID[parent].ParentGUID
	}
	return out
}
