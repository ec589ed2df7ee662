package rtos

import "log"

// RoundRobin is a fixed-priority round-robin scheduler: priorities run
// from PriorityMax down to 1, with the idle task filling in at
// priority 0 when nothing else is runnable. Within a priority, tasks
// take turns by cycling the priority's circular ready list by one node
// on every pick; a newly inserted task is linked in just after the
// bucket's cursor, so it is the next one picked at that priority. Ported
// from OS/roundRobin.c.
type RoundRobin struct {
	buckets    readyBuckets
	sleeping   sleepHeap
	idle       *TCB
	tasksAdded int
	now        func() uint32
}

// NewRoundRobin builds a round-robin scheduler. now is consulted to
// compare sleepers' wake-up ticks against the current tick on every
// PickNext; pass the owning Kernel's ElapsedTicks method value. The
// idle task itself is wired in by Kernel.Init (see setIdle) once it
// exists, mirroring the original target's roundRobin_scheduler, which
// reaches for the OS-level idle TCB through an extern global rather
// than owning it.
func NewRoundRobin(now func() uint32) *RoundRobin {
	return &RoundRobin{now: now}
}

// setIdle wires in the idle task. Called once by Kernel.Init through
// an unexported interface assertion, kept out of the Scheduler
// interface itself since idle wiring is not part of spec.md §9's
// six-callback vtable.
func (r *RoundRobin) setIdle(idle *TCB) {
	r.idle = idle
}

// Preemptive reports that this scheduler expects the periodic tick to
// be enabled; the round-robin discipline depends on it for fairness
// within a priority.
func (r *RoundRobin) Preemptive() bool { return true }

// PickNext drains every sleeper whose wake-up tick has arrived back
// onto the ready lists, then returns the next task in the
// highest-non-empty priority bucket, or the idle task if none are
// runnable.
func (r *RoundRobin) PickNext() *TCB {
	current := r.now()
	for r.sleeping.needsWake(current) {
		r.InsertTask(r.sleeping.extract(current))
	}
	if tcb, ok := r.buckets.advance(); ok {
		return tcb
	}
	return r.idle
}

// AddTask admits a new task, which must not already be known to the
// scheduler. If MaxTasks tasks are already admitted, the task is not
// added and the refusal is only logged; AddTask returns nothing either
// way (see Kernel.AddTask).
func (r *RoundRobin) AddTask(tcb *TCB) {
	if r.tasksAdded >= MaxTasks {
		log.Printf("rtos: task %q not added, %d already admitted (MaxTasks=%d)", tcb.name, r.tasksAdded, MaxTasks)
		return
	}
	r.InsertTask(tcb)
	r.tasksAdded++
}

// ExitTask permanently removes a finished task, freeing its slot
// against MaxTasks.
func (r *RoundRobin) ExitTask(tcb *TCB) {
	r.RemoveTask(tcb)
	r.tasksAdded--
}

// InsertTask returns tcb to the ready lists without affecting the
// admitted task count: used both for fresh admissions (via AddTask)
// and for tasks returning from a wait queue or the sleep heap.
func (r *RoundRobin) InsertTask(tcb *TCB) {
	r.buckets.insert(tcb)
}

// RemoveTask takes tcb off the ready lists without affecting the
// admitted task count, so it can be parked on a wait queue or put to
// sleep.
func (r *RoundRobin) RemoveTask(tcb *TCB) {
	r.buckets.remove(tcb)
}

// Wait removes tcb from the ready lists and parks it on queue, unless
// snapshot and current disagree, in which case a Notify raced the
// caller and Wait declines to block it. reason is accepted only to
// satisfy the Scheduler interface; this implementation has no
// diagnostics to attach it to.
func (r *RoundRobin) Wait(tcb *TCB, reason any, queue *WaitQueue, snapshot, current uint32) bool {
	_ = reason
	if snapshot != current {
		return false
	}
	r.RemoveTask(tcb)
	queue.insert(tcb)
	return true
}

// Notify wakes the highest-priority, earliest-queued waiter on queue,
// if any, by reinserting it into the ready lists.
func (r *RoundRobin) Notify(queue *WaitQueue) {
	if waiter := queue.extract(); waiter != nil {
		r.InsertTask(waiter)
	}
}

// Sleep parks tcb in the sleep heap, keyed by deadline, and removes it
// from the ready lists — in that order, per the original target's
// mandatory insert-then-remove sequence (§4.8): tcb must still be
// runnable while it is being linked into the heap, so that a
// preemption mid-insert can never leave it in neither structure.
func (r *RoundRobin) Sleep(tcb *TCB, deadline uint32) {
	tcb.data = deadline
	r.sleeping.insert(tcb, r.now())
	r.RemoveTask(tcb)
}
