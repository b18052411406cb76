package tensor

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/mat"
)

// Workspace hands out zeroed scratch matrices backed by pooled buffers.
// Every Acquire must be paired with a call to the returned release func,
// normally through defer so that early returns and panics also release.
type Workspace struct {
	pool  sync.Pool
	inUse atomic.Int64
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Default is the workspace used by the glm kernels.
var Default = NewWorkspace()

// Acquire returns a zeroed rows×cols matrix and the func that gives its
// storage back. Calling release more than once is a no-op.
func (w *Workspace) Acquire(rows, cols int) (*mat.Dense, func()) {
	n := rows * cols
	var buf []float64
	if p, ok := w.pool.Get().(*[]float64); ok && cap(*p) >= n {
		buf = (*p)[:n]
		clear(buf)
	} else {
		buf = make([]float64, n)
	}
	w.inUse.Add(1)

	var once sync.Once
	release := func() {
		once.Do(func() {
			w.inUse.Add(-1)
			w.pool.Put(&buf)
		})
	}
	return mat.NewDense(rows, cols, buf), release
}

// InUse reports how many acquired buffers have not been released.
func (w *Workspace) InUse() int64 {
	return w.inUse.Load()
}
