package rtos

// This file is the hosted stand-in for the original target's
// low-level switcher (spec.md §4.2): save outgoing context, ask the
// scheduler for the next task, load incoming context, resume. A
// hosted Go process has no register file to save and no real
// interrupt to return from, so the switch is instead simulated with
// one goroutine per task and a single-slot "run token" channel
// (TCB.runCh): at any moment at most one task's goroutine holds the
// token and is allowed to touch task-visible state or call back into
// the kernel.
//
// Every exported Kernel method that can trigger a reschedule follows
// the same shape: take k.mu, mutate scheduler state, call
// k.reschedule, release k.mu. reschedule both hands the token to the
// next task and, unless the outgoing task has exited, blocks that
// task's own goroutine until it is handed the token again. Exit is
// the one exception: the exiting task has nothing left to resume for,
// so it hands off the token and lets its own goroutine return instead
// of calling reschedule.

// launchLocked starts tcb's goroutine the first time it is ever
// scheduled in. Must be called with k.mu held.
func (k *Kernel) launchLocked(tcb *TCB) {
	if tcb.started {
		return
	}
	tcb.started = true
	go k.runTask(tcb)
}

// runTask is the body of every task's goroutine. It waits to be
// handed the run token for the first time, runs the task's entry
// function to completion, and then performs the original target's
// task-end trampoline: an automatic Exit call. Task entry functions
// are not expected to return, exactly as in the original; if one
// does, this is the only path back into the kernel.
func (k *Kernel) runTask(tcb *TCB) {
	<-tcb.runCh
	tcb.entry(tcb.arg)
	k.Exit()
}

// reschedule asks the scheduler for the next task to run, hands it
// the run token, and — unless self is nil (the boot call in Start) or
// self has exited — blocks self's goroutine until it is next handed
// the token. Must be called with k.mu held; returns with k.mu held.
func (k *Kernel) reschedule(self *TCB) {
	k.svcCounts[svcSchedule]++
	next := k.scheduler.PickNext()
	k.current = next
	k.launchLocked(next)
	k.mu.Unlock()

	next.runCh <- struct{}{}
	if self != nil && !self.exited {
		<-self.runCh
	}

	k.mu.Lock()
}

// CheckPreempt is the cooperative stand-in for a hardware tick
// interrupt landing on self. Task bodies that loop should call this
// periodically (the kernel cannot otherwise force its way in); if a
// tick has arrived and the installed scheduler is preemptive, self
// yields its turn exactly as OS_yield would. A non-preemptive
// scheduler, or a quiet period with no pending tick, makes this a
// cheap no-op.
func (k *Kernel) CheckPreempt(self *TCB) {
	k.mu.Lock()
	if !k.preemptPending || self.exited {
		k.mu.Unlock()
		return
	}
	k.preemptPending = false
	k.mu.Unlock()
	k.Yield()
}
