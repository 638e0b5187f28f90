//go:build tinygo
// +build tinygo

package mmio

import (
	"runtime/volatile"
	"unsafe"
)

// Metal is the bus of the running processor: addresses are physical.
type Metal struct{}

func (Metal) Load32(addr uintptr) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(addr)))
}

func (Metal) Store32(addr uintptr, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(addr)), v)
}
