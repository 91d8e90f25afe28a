package simhw

import (
	"fmt"
	"sync"

	"github.com/kernelsim/preemptk"
)

// BumpAllocator is a reference preemptk.StackAllocator: a bump pointer
// over a synthetic address range, with freed regions kept on a free list
// and reused first-fit. It never actually backs the returned Stack with
// real memory — nothing in this kernel dereferences a Stack's Base, it is
// only bookkeeping handed to and returned from the ContextSwitcher — so
// there is nothing to allocate except addresses.
type BumpAllocator struct {
	mu     sync.Mutex
	base   uintptr
	limit  uintptr
	next   uintptr
	holeLo uintptr
	holeHi uintptr
	free   []preemptk.Stack
}

// NewBumpAllocator creates an allocator covering [base, base+size), with
// no hardware hole to avoid.
func NewBumpAllocator(base uintptr, size int) *BumpAllocator {
	return &BumpAllocator{base: base, limit: base + uintptr(size), next: base}
}

// NewConfiguredAllocator builds a BumpAllocator that honors cfg's
// address-space bounds: allocation starts just past KernelBase, skips
// over [HardwareHoleLo, HardwareHoleHi) the way real MMIO would refuse to
// back a stack, and fails once a request would cross MaxAddress. This is
// the one place the hardware-hole/max-address bounds spec.md §6 assigns
// to user-pointer validation actually gate something concrete: the
// address range this kernel hands out for process stacks.
func NewConfiguredAllocator(cfg preemptk.Config) *BumpAllocator {
	base := uintptr(cfg.KernelBase) + 0x1000
	return &BumpAllocator{
		base:   base,
		limit:  uintptr(cfg.MaxAddress),
		next:   base,
		holeLo: uintptr(cfg.HardwareHoleLo),
		holeHi: uintptr(cfg.HardwareHoleHi),
	}
}

// Allocate returns a Stack of the requested size, reusing a freed region
// of at least that size if one exists.
func (a *BumpAllocator) Allocate(size int) (preemptk.Stack, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for i, s := range a.free {
		if s.Size >= size {
			a.free = append(a.free[:i], a.free[i+1:]...)
			return preemptk.Stack{Base: s.Base, Size: size}, nil
		}
	}

	start := a.next
	end := start + uintptr(size)
	if a.holeHi > a.holeLo && end > a.holeLo && start < a.holeHi {
		start = a.holeHi
		end = start + uintptr(size)
	}
	if a.limit != 0 && end > a.limit {
		return preemptk.Stack{}, fmt.Errorf("simhw: out of stack space (requested %d bytes)", size)
	}
	s := preemptk.Stack{Base: start, Size: size}
	a.next = end
	return s, nil
}

// Free returns s to the free list for reuse by a later Allocate.
func (a *BumpAllocator) Free(s preemptk.Stack) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.free = append(a.free, s)
}
