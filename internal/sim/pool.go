package sim

import "sync"

// bufferPool recycles per-run voltage scratch vectors across sweep runs.
type bufferPool struct {
	pool sync.Pool
}

var buffers = &bufferPool{}

func (p *bufferPool) get(n int) []float64 {
	if b, ok := p.pool.Get().(*[]float64); ok && cap(*b) >= n {
		return (*b)[:n]
	}
	return make([]float64, n)
}

func (p *bufferPool) put(b []float64) {
	clear(b)
	p.pool.Put(&b)
}
