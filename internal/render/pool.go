package render

import "sync"

// FramePool recycles RGBA buffers of one frame size.
type FramePool struct {
	pool sync.Pool
	size int
}

func NewFramePool(width, height int) *FramePool {
	size := width * height * 4
	return &FramePool{
		size: size,
		pool: sync.Pool{
			New: func() interface{} {
				return make([]byte, size)
			},
		},
	}
}

func (p *FramePool) Get() []byte {
	return p.pool.Get().([]byte)
}

// Put returns a buffer; buffers of any other size are dropped.
func (p *FramePool) Put(b []byte) {
	if len(b) == p.size {
		p.pool.Put(b)
	}
}
