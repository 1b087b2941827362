package preview

import (
	"sync"

	"github.com/mark3labs/signup/internal/form"
	"github.com/mark3labs/signup/internal/logger"
)

// Registry holds the live preview for each image field.
type Registry struct {
	mu     sync.Mutex
	live   map[string]*Preview
	nextID int
	cols   int
	rows   int
}

// NewRegistry creates a registry that renders thumbnails into cols×rows cells.
func NewRegistry(cols, rows int) *Registry {
	return &Registry{
		live: make(map[string]*Preview),
		cols: cols,
		rows: rows,
	}
}

// Replace renders a preview of u for field, releasing the one it supersedes.
func (r *Registry) Replace(field string, u *form.Upload) *Preview {
	p := New(field, u, r.cols, r.rows)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	p.ID = r.nextID
	if old, ok := r.live[field]; ok {
		old.Release()
		logger.Debug("Released preview %d for %s", old.ID, field)
	}
	r.live[field] = p
	return p
}

// Get returns the live preview for field, or nil.
func (r *Registry) Get(field string) *Preview {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live[field]
}

// Release releases and forgets the preview for field.
func (r *Registry) Release(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.live[field]; ok {
		p.Release()
		delete(r.live, field)
	}
}

// ReleaseAll releases every live preview. Called on teardown.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for field, p := range r.live {
		p.Release()
		delete(r.live, field)
	}
}

// Live returns the number of unreleased previews.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
