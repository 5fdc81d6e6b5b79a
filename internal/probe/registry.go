package probe

import "github.com/randomizedcoder/go-pidlimit-probe/internal/process"

// Registry is the insertion-ordered set of children spawned during a run.
// It only grows while spawning and is iterated, never truncated, during
// cleanup. It is owned by a single goroutine and needs no locking.
type Registry struct {
	children []process.Child
}

// NewRegistry creates an empty registry sized for capacity children.
func NewRegistry(capacity int) *Registry {
	if capacity < 0 {
		capacity = 0
	}
	return &Registry{children: make([]process.Child, 0, capacity)}
}

// Append adds a child to the end of the registry.
func (r *Registry) Append(c process.Child) {
	r.children = append(r.children, c)
}

// Len returns the number of children recorded.
func (r *Registry) Len() int {
	return len(r.children)
}

// Each calls fn for every child in insertion order.
func (r *Registry) Each(fn func(i int, c process.Child)) {
	for i, c := range r.children {
		fn(i, c)
	}
}

// pids returns the process IDs in insertion order.
func (r *Registry) pids() []int {
	pids := make([]int, len(r.children))
	for i, c := range r.children {
		pids[i] = c.PID()
	}
	return pids
}
