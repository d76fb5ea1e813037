// Package mempool pools scratch buffers used by the per-pixel loops of the
// detector and the filter pipeline.
package mempool

import (
	"sync"
)

// sizeClass rounds n up to the next multiple of 1024 to reduce churn.
func sizeClass(n int) int {
	if n <= 1024 {
		return 1024
	}
	const step = 1024
	return (n + step - 1) / step * step
}

// slicePool keeps one sync.Pool per size class.
type slicePool[T any] struct {
	pools sync.Map // key: size class (int), value: *sync.Pool
}

func (sp *slicePool[T]) pool(cls int) *sync.Pool {
	pAny, _ := sp.pools.LoadOrStore(cls, &sync.Pool{New: func() any { return make([]T, cls) }})
	p, _ := pAny.(*sync.Pool)
	return p
}

func (sp *slicePool[T]) get(n int) []T {
	cls := sizeClass(n)
	p := sp.pool(cls)
	if p == nil {
		return make([]T, n)
	}
	buf, ok := p.Get().([]T)
	if !ok || cap(buf) < cls {
		buf = make([]T, cls)
	}
	return buf[:n]
}

func (sp *slicePool[T]) put(buf []T) {
	if buf == nil {
		return
	}
	// Buffers are keyed by capacity; a foreign slice lands in its own class.
	if p := sp.pool(sizeClass(cap(buf))); p != nil && cap(buf) == sizeClass(cap(buf)) {
		p.Put(buf[:cap(buf)]) //nolint:staticcheck // slices are pooled by value
	}
}

var (
	float32Pool slicePool[float32]
	boolPool    slicePool[bool]
	bytePool    slicePool[uint8]
)

// GetFloat32 returns a buffer of length n whose contents are undefined.
// Return it with PutFloat32.
func GetFloat32(n int) []float32 { return float32Pool.get(n) }

// PutFloat32 returns a buffer to the pool. It is safe to pass nil.
func PutFloat32(buf []float32) { float32Pool.put(buf) }

// GetBool returns a zeroed buffer of length n. Return it with PutBool.
func GetBool(n int) []bool {
	buf := boolPool.get(n)
	clear(buf)
	return buf
}

// PutBool returns a buffer to the pool. It is safe to pass nil.
func PutBool(buf []bool) { boolPool.put(buf) }

// GetBytes returns a buffer of length n whose contents are undefined.
// Return it with PutBytes.
func GetBytes(n int) []uint8 { return bytePool.get(n) }

// PutBytes returns a buffer to the pool. It is safe to pass nil.
func PutBytes(buf []uint8) { bytePool.put(buf) }
