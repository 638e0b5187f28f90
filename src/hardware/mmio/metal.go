//go:build !tinygo
// +build !tinygo

package mmio

import (
	"sync/atomic"
	"unsafe"
)

// Metal is the bus of the running processor: addresses are physical.
// Under gc an atomic load/store is the only access the compiler will never
// merge, cache or drop.
type Metal struct{}

func (Metal) Load32(addr uintptr) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (Metal) Store32(addr uintptr, v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(addr)), v)
}
