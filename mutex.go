package rtos

import (
	"log"
	"sync/atomic"
)

// Mutex is a recursive mutual-exclusion lock: the owning task may
// acquire it again without blocking, and must release it the same
// number of times before it becomes available to anyone else. Ported
// from OS_UTILS/mutex.c.
//
// The original target acquires ownership with a CMSIS LDREX/STREX
// pair — load-linked/store-conditional primitives with no portable Go
// equivalent — so this port uses the idiomatic Go rendition of the
// same idea, a compare-and-swap loop over an atomic.Pointer[TCB].
type Mutex struct {
	owner   atomic.Pointer[TCB]
	counter uint32
	queue   WaitQueue
}

// NewMutex returns an unheld mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

func ownerName(owner *TCB) string {
	if owner == nil {
		return "<none>"
	}
	return owner.name
}

// tryAcquire attempts to take ownership of the mutex for tcb without
// blocking. It reports whether tcb now owns the mutex (either by
// taking it from free, already owning it recursively, or finding it
// already free on a retried attempt); the caller is responsible for
// waiting and retrying when it returns false.
func (m *Mutex) tryAcquire(tcb *TCB) bool {
	owner := m.owner.Load()
	if owner == nil {
		return m.owner.CompareAndSwap(nil, tcb)
	}
	if owner == tcb {
		return true
	}
	return false
}

// acquired is called once tryAcquire (or a retry after waiting)
// succeeds, to account the recursive hold.
func (m *Mutex) acquired() {
	m.counter++
}

// release drops one level of recursive ownership, reporting whether
// the mutex became fully free (counter reached zero) so the caller
// knows whether to notify waiters. owner is cleared only on the
// releasing call that brings counter to zero.
//
// The original target documents a benign race here: another task not
// waiting on the mutex can acquire it in the window between owner
// being cleared and the notify that follows, in which case the woken
// waiter finds the mutex taken again and re-blocks on its next
// attempt. This port preserves that behaviour rather than closing the
// window, matching the original's documented tradeoff.
func (m *Mutex) release(tcb *TCB) (freed bool) {
	if owner := m.owner.Load(); owner != tcb {
		log.Printf("rtos: task %q released a mutex it does not own (held by %q), ignored", tcb.name, ownerName(owner))
		return false
	}
	m.counter--
	if m.counter == 0 {
		m.owner.Store(nil)
		return true
	}
	return false
}
