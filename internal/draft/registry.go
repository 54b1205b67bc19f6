package draft

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Registry keeps the open drafts of the process, keyed by draft id.
type Registry struct {
	mu     sync.RWMutex
	drafts map[uuid.UUID]*Draft
}

func NewRegistry() *Registry {
	return &Registry{drafts: map[uuid.UUID]*Draft{}}
}

// Open registers a draft at rest on doc.
func (r *Registry) Open(doc Document) *Draft {
	return r.add(New(doc))
}

// OpenBlank registers a draft for a new record.
func (r *Registry) OpenBlank(kind Kind) *Draft {
	return r.add(NewBlank(kind))
}

func (r *Registry) add(d *Draft) *Draft {
	r.mu.Lock()
	r.drafts[d.ID()] = d
	r.mu.Unlock()
	return d
}

// Get looks a draft up by its string id.
func (r *Registry) Get(id string) (*Draft, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrNotFound
	}
	r.mu.RLock()
	d, ok := r.drafts[uid]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

// Discard closes and forgets a draft.
func (r *Registry) Discard(id string) error {
	d, err := r.Get(id)
	if err != nil {
		return err
	}
	d.Discard()
	r.mu.Lock()
	delete(r.drafts, d.ID())
	r.mu.Unlock()
	return nil
}

// Len returns the number of open drafts.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.drafts)
}

// Sweep discards drafts idle for longer than maxIdle. Drafts with a save in
// flight are kept. It returns the number of drafts removed.
func (r *Registry) Sweep(now time.Time, maxIdle time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, d := range r.drafts {
		if now.Sub(d.LastTouched()) < maxIdle || d.State() == Saving {
			continue
		}
		d.Discard()
		delete(r.drafts, id)
		n++
	}
	return n
}
