package rtos

// halfUint32Max is HALF_OF_UINT32_T_MAX from the original target: half
// the range of a 32-bit tick counter, used as the offset that makes
// wraparound-safe tick comparisons possible. A sleep duration longer
// than this is not supported, exactly as in the original.
const halfUint32Max = 1<<31 - 1

// after reports whether tick t1 is strictly after tick t2, correctly
// handling a single wraparound of a uint32 tick counter around
// current. Ported from the original target's
// sleep_time1IsAfterTime2 macro: both ticks are rebased against a
// common reference point (current + halfUint32Max) before comparing,
// so the subtraction wraps the same way on both sides.
func after(t1, t2, current uint32) bool {
	ref := current + halfUint32Max
	return (t1 - ref) > (t2 - ref)
}

// sleepHeap is a minimum binary heap of sleeping tasks, keyed by each
// task's absolute wake-up tick (TCB.data), with the soonest-to-wake
// task at the root. Ported from OS_UTILS/sleep.c. Every method assumes
// the caller already holds the kernel's big lock (see kernel.go);
// unlike the original target, there is no separate mutex guarding
// insert here, because this port has no task-context/interrupt-context
// split to protect against — both insert and extract already run
// serialized under the same lock.
//
// The fail-fast counter is kept even so: it is specified behaviour
// (§4.7, §9) protecting heapUp against a concurrent heapExtract on a
// genuinely preemptive target, and the data structure should stay
// correct under that stronger assumption even though this port's
// locking makes the race unreachable in practice.
type sleepHeap struct {
	store    [MaxTasks]*TCB
	length   int
	failFast uint32
}

// needsWake reports whether the soonest sleeper, if any, has reached
// its wake-up tick as of current.
func (h *sleepHeap) needsWake(current uint32) bool {
	if h.length == 0 {
		return false
	}
	return !after(h.store[0].data, current, current)
}

// insert adds tcb to the heap, keyed by tcb.data, and restores the
// heap property by sifting it up from the last slot.
func (h *sleepHeap) insert(tcb *TCB, current uint32) {
	tcb.heapIndex = h.length
	h.store[h.length] = tcb
	h.length++
	h.siftUp(h.length-1, current)
}

// extract removes and returns the soonest sleeper, restoring the heap
// property by moving the last element to the root and sifting it
// down. Must only be called when length > 0 (guard with needsWake, or
// check length directly).
func (h *sleepHeap) extract(current uint32) *TCB {
	tcb := h.store[0]
	h.length--
	h.store[0] = h.store[h.length]
	h.store[h.length] = nil
	tcb.heapIndex = -1
	if h.length > 0 {
		h.store[0].heapIndex = 0
		h.siftDown(0, current)
	}
	h.failFast++
	return tcb
}

// parent returns the 0-indexed parent of a 0-indexed heap slot, using
// the original target's even/odd 1-indexed arithmetic.
func parent(index int) int {
	n := index + 1
	if n%2 == 0 {
		return n/2 - 1
	}
	return (n-1)/2 - 1
}

func (h *sleepHeap) siftUp(index int, current uint32) {
	for index != 0 {
		failFast := h.failFast
		p := parent(index)
		if after(h.store[index].data, h.store[p].data, current) {
			return
		}
		if failFast != h.failFast {
			continue
		}
		h.swap(index, p)
		index = p
	}
}

func (h *sleepHeap) siftDown(index int, current uint32) {
	for {
		child1 := 2*(index+1) - 1
		if child1 >= h.length {
			return
		}
		child := child1
		if child2 := child1 + 1; child2 < h.length && after(h.store[child1].data, h.store[child2].data, current) {
			child = child2
		}
		if after(h.store[child].data, h.store[index].data, current) {
			return
		}
		h.swap(index, child)
		index = child
	}
}

func (h *sleepHeap) swap(i, j int) {
	h.store[i], h.store[j] = h.store[j], h.store[i]
	h.store[i].heapIndex = i
	h.store[j].heapIndex = j
}
