package rtos

// Scheduler is the pluggable scheduling policy a Kernel is installed
// with. The core of this repository supplies one implementation,
// RoundRobin (see roundrobin.go); spec.md §9 describes the original
// target's scheduler vtable as exactly this shape: a small capability
// interface selected once at Init time, so alternative disciplines
// could be substituted without touching the kernel.
type Scheduler interface {
	// PickNext returns the task that should run next. Implementations
	// are expected to first move any sleeper whose wake-up tick has
	// arrived back onto the ready lists, then select among runnable
	// tasks, falling back to the idle task if none are runnable.
	PickNext() *TCB

	// AddTask admits a new task to the scheduler. Called once per
	// task, before it ever runs.
	AddTask(tcb *TCB)

	// ExitTask permanently removes a finished task from the
	// scheduler, freeing its slot against MaxTasks.
	ExitTask(tcb *TCB)

	// InsertTask returns a previously removed (blocked or sleeping)
	// task to the ready lists without affecting the admitted task
	// count.
	InsertTask(tcb *TCB)

	// RemoveTask takes a runnable task off the ready lists, without
	// affecting the admitted task count, so it can be parked on a
	// wait queue or in the sleep heap.
	RemoveTask(tcb *TCB)

	// Wait is called on behalf of tcb, which tried and failed to
	// acquire a resource. reason identifies the resource purely for
	// diagnostics. snapshot is the fail-fast counter value the caller
	// observed before its failed attempt; current is the kernel's
	// fail-fast counter value now. If they differ, a notify raced the
	// caller and Wait returns false without blocking anything, so the
	// caller can retry the acquire immediately. Otherwise tcb is
	// removed from the ready lists and inserted into queue, and Wait
	// returns true.
	Wait(tcb *TCB, reason any, queue *WaitQueue, snapshot, current uint32) bool

	// Notify wakes the highest-priority, earliest-queued waiter on
	// queue, if any, by reinserting it into the ready lists. It does
	// not itself trigger a reschedule; the newly runnable task runs
	// the next time the scheduler is consulted.
	Notify(queue *WaitQueue)

	// Sleep removes tcb from the ready lists and parks it until
	// deadline, an absolute tick value, has been reached — observed
	// the next time PickNext runs and drains due sleepers. Ported
	// from OS_sleep's insert-then-remove sequence (§4.8); the
	// implementation stamps tcb.data with deadline before inserting
	// tcb into the sleep heap.
	Sleep(tcb *TCB, deadline uint32)

	// Preemptive reports whether this scheduler wants the periodic
	// tick interrupt enabled. A cooperative-only scheduler can decline
	// it.
	Preemptive() bool
}
