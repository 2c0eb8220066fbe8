package cache

import (
	"sync"
	"time"
)

// UserDirectory maps numeric user ids to display names. It is shared by all
// requests and replaced wholesale on refresh.
type UserDirectory struct {
	mu          sync.RWMutex
	names       map[int64]string
	refreshedAt time.Time
}

func NewUserDirectory() *UserDirectory {
	return &UserDirectory{names: map[int64]string{}}
}

// Replace swaps in a new snapshot. The map is copied.
func (d *UserDirectory) Replace(names map[int64]string) {
	if d == nil {
		return
	}
	next := make(map[int64]string, len(names))
	for id, name := range names {
		next[id] = name
	}
	d.mu.Lock()
	d.names = next
	d.refreshedAt = time.Now()
	d.mu.Unlock()
}

func (d *UserDirectory) Lookup(id int64) (string, bool) {
	if d == nil {
		return "", false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[id]
	return name, ok
}

func (d *UserDirectory) Len() int {
	if d == nil {
		return 0
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.names)
}

// RefreshedAt is zero until the first Replace.
func (d *UserDirectory) RefreshedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refreshedAt
}
