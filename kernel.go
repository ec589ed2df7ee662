package rtos

import (
	"log"
	"sync"
	"sync/atomic"
	"time"
)

// Kernel is the singleton kernel context described in spec.md §9: all
// scheduler, tick, and synchronization state lives here, guarded by
// one lock standing in for the original target's handler-mode
// critical section. Task code reaches it only through Kernel's
// exported methods, which play the role of the original's numbered
// supervisor calls.
type Kernel struct {
	mu sync.Mutex

	scheduler Scheduler
	idle      *TCB
	current   *TCB

	ticks          uint32
	failFast       uint32
	preemptPending bool

	started bool
	stop    chan struct{}

	svcCounts [svcCount]uint64
}

// NewKernel returns an uninitialised kernel; call Init before Start.
func NewKernel() *Kernel {
	return &Kernel{}
}

// Init installs scheduler as the kernel's scheduling policy and
// prepares the idle task. It must be called exactly once, before
// Start. Ported from OS_init; the original target's "validate
// non-null callbacks" step is this port's nil check on scheduler
// itself, since a Go interface value standing in for the whole vtable
// either exists or doesn't.
func (k *Kernel) Init(scheduler Scheduler) error {
	if scheduler == nil {
		return ErrNilScheduler
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.scheduler = scheduler
	k.idle = initialiseIdleTCB(func(uint32) { k.idleLoop() })
	if s, ok := scheduler.(interface{ setIdle(*TCB) }); ok {
		s.setIdle(k.idle)
	}
	return nil
}

// idleLoop is the body of the idle task: the original target drops
// into a wait-for-interrupt instruction whenever it is current and
// nothing else is runnable. This port has no low-power wait
// primitive to fall back on, so it spins gently instead, yielding the
// instant a tick arrives — CheckPreempt parks idleLoop's goroutine for
// as long as some other task is runnable, exactly as PickNext falling
// through to idle only when every bucket is empty would suggest.
func (k *Kernel) idleLoop() {
	for {
		time.Sleep(time.Microsecond)
		k.CheckPreempt(k.idle)
	}
}

// Start enables the tick (if the installed scheduler wants it),
// boots into the highest-priority runnable task (or idle, if none has
// been added yet), and returns once that first task has been handed
// the run token. Ported from OS_start, adapted to return rather than
// never do so: a hosted process has callers above it (tests, a main
// goroutine) that need their own control flow back.
func (k *Kernel) Start() error {
	k.mu.Lock()
	if k.scheduler == nil {
		k.mu.Unlock()
		return ErrNilScheduler
	}
	if k.started {
		k.mu.Unlock()
		return ErrAlreadyStarted
	}
	k.started = true
	k.stop = make(chan struct{})

	k.svcCounts[svcEnableTick]++
	if k.scheduler.Preemptive() {
		go k.tickLoop()
	}

	k.reschedule(nil)
	k.mu.Unlock()
	return nil
}

// Shutdown stops the tick goroutine started by Start. It has no
// counterpart in the original target, which never stops; it exists so
// tests can stop a kernel's ticking. The idle task's goroutine and any
// task goroutine still waiting for the run token are not stopped.
func (k *Kernel) Shutdown() {
	k.mu.Lock()
	if k.started && k.stop != nil {
		close(k.stop)
		k.stop = nil
	}
	k.mu.Unlock()
}

// tickLoop fires Tick at TickRateHz until Shutdown. It is this port's
// closest analogue to the original target's periodic down-counter
// interrupt.
func (k *Kernel) tickLoop() {
	ticker := time.NewTicker(time.Second / TickRateHz)
	defer ticker.Stop()
	stop := k.stopSignal()
	for {
		select {
		case <-ticker.C:
			k.Tick()
		case <-stop:
			return
		}
	}
}

func (k *Kernel) stopSignal() chan struct{} {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.stop
}

// Tick advances the tick counter by one and, if the installed
// scheduler is preemptive, marks a reschedule as owed. Tick itself
// never reschedules: the running task (the idle task, when every other
// task is blocked or sleeping) takes the owed reschedule the next time
// it calls CheckPreempt.
func (k *Kernel) Tick() {
	k.mu.Lock()
	atomic.AddUint32(&k.ticks, 1)
	if k.scheduler.Preemptive() {
		k.preemptPending = true
	}
	k.mu.Unlock()
}

// ElapsedTicks returns the number of ticks since Start. It reads the
// counter atomically instead of taking k.mu, because the scheduler
// calls it (as its now function) from PickNext and Sleep while k.mu is
// already held.
func (k *Kernel) ElapsedTicks() uint32 {
	return atomic.LoadUint32(&k.ticks)
}

// CurrentTCB returns the task currently holding the run token.
func (k *Kernel) CurrentTCB() *TCB {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.current
}

// AddTask admits tcb to the scheduler. It may be called either before
// Start (the task will be scheduled in once Start runs) or by a
// running task (the new task joins the ready lists immediately,
// available from the next reschedule). Exceeding MaxTasks is a
// programmer error per spec.md §7: logged and otherwise ignored, the
// same debug-assert/release-silently-ignore split the original target
// makes for every error in this taxonomy.
func (k *Kernel) AddTask(tcb *TCB) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.svcCounts[svcAddTask]++
	k.scheduler.AddTask(tcb)
}

// Yield voluntarily gives up the current task's turn, ported from
// OS_yield. The calling task remains runnable; it simply steps aside
// for this scheduling decision.
func (k *Kernel) Yield() {
	k.mu.Lock()
	self := k.current
	k.svcCounts[svcYieldTask]++
	self.setState(StateYield, true)
	k.reschedule(self)
	self.setState(StateYield, false)
	k.mu.Unlock()
}

// Exit permanently retires the calling task. Ported from the original
// target's _svc_OS_taskExit; unlike every other blocking operation
// here, the calling goroutine does not wait to be rescheduled — it
// has nothing left to resume for — so it hands off the run token and
// returns, letting runTask's goroutine end.
func (k *Kernel) Exit() {
	k.mu.Lock()
	self := k.current
	k.svcCounts[svcExitTask]++
	k.scheduler.ExitTask(self)
	self.exited = true

	next := k.scheduler.PickNext()
	k.current = next
	k.launchLocked(next)
	k.mu.Unlock()

	next.runCh <- struct{}{}
}

// Sleep blocks the calling task for at least durationMs milliseconds
// (1 tick == 1 ms). Ported from OS_sleep: the wake-up tick is stamped
// into the task's data field and it is inserted into the sleep heap
// before being removed from the ready lists (svcRemoveTask), preserving
// the original's mandatory insert-then-remove ordering (§4.8). A
// duration close enough to halfUint32Max that the wraparound-safe
// comparison in sleep.go could misjudge it is a programmer error, per
// §7: logged and otherwise allowed to proceed rather than rejected.
func (k *Kernel) Sleep(durationMs uint32) {
	if durationMs >= halfUint32Max-TickRateHz {
		log.Printf("rtos: sleep duration %dms is within %dms of the overflow boundary, wake-up ordering may be unreliable", durationMs, TickRateHz)
	}
	k.mu.Lock()
	self := k.current
	self.setState(StateSleep, true)
	k.scheduler.Sleep(self, k.ticks+durationMs)
	k.svcCounts[svcRemoveTask]++
	k.reschedule(self)
	self.setState(StateSleep, false)
	k.mu.Unlock()
}

// wait runs the common fail-fast "test, then maybe block" protocol
// described in spec.md §4.4 on behalf of a blocking primitive. test
// attempts the primitive's atomic operation; if it fails, the calling
// task is parked on queue unless a concurrent notify already closed
// the race, in which case wait retries test immediately. reason
// identifies the primitive purely for diagnostics.
func (k *Kernel) wait(reason any, queue *WaitQueue, test func() bool) {
	for {
		k.mu.Lock()
		self := k.current
		snapshot := k.failFast
		if test() {
			k.mu.Unlock()
			return
		}
		k.svcCounts[svcWait]++
		blocked := k.scheduler.Wait(self, reason, queue, snapshot, k.failFast)
		if !blocked {
			k.mu.Unlock()
			continue
		}
		self.setState(StateWait, true)
		k.reschedule(self)
		self.setState(StateWait, false)
		k.mu.Unlock()
	}
}

// notify increments the fail-fast counter and wakes the
// highest-priority, earliest-queued waiter on queue, if any. Ported
// from the wait/notify protocol's notify half (§4.4); the original
// target's accompanying "clear the exclusive monitor" step has no
// counterpart here because this port's LL/SC stand-in (sync/atomic
// CompareAndSwap) does not use a shared exclusive-access monitor.
func (k *Kernel) notify(queue *WaitQueue) {
	k.mu.Lock()
	k.failFast++
	k.svcCounts[svcNotify]++
	k.scheduler.Notify(queue)
	k.mu.Unlock()
}

// MutexAcquire acquires m, blocking if it is already held by another
// task. Recursive: if the calling task already holds m, it nests
// without blocking. Ported from OS_mutexAcquire / §4.5.
func (k *Kernel) MutexAcquire(m *Mutex) {
	k.mu.Lock()
	self := k.current
	k.mu.Unlock()
	k.wait(m, &m.queue, func() bool { return m.tryAcquire(self) })
	m.acquired()
}

// MutexRelease releases one level of recursive ownership of m. If the
// calling task is not m's owner, this is silently ignored — a user
// error, per spec.md §7, that must not corrupt kernel state. When the
// recursive count reaches zero, waiters on m are notified. Ported
// from OS_mutexRelease / §4.5, including the documented benign race:
// between the owner field being cleared and the notify that follows,
// a task that was never waiting can acquire the mutex first, leaving
// the woken waiter to find it taken again and re-block.
func (k *Kernel) MutexRelease(m *Mutex) {
	k.mu.Lock()
	self := k.current
	k.mu.Unlock()
	if m.release(self) {
		k.notify(&m.queue)
	}
}

// SemaphoreTake removes one token from s, blocking while none is
// available. Every successful take notifies s's wait queue so tasks
// blocked in SemaphoreGive (on a bounded semaphore) can retry. Ported
// from OS_semaphoreTake / §4.6.
func (k *Kernel) SemaphoreTake(s *Semaphore) {
	k.wait(s, &s.queue, s.tryTake)
	k.notify(&s.queue)
}

// SemaphoreGive returns one token to s, blocking while s is already at
// capacity (never, if s is uncapped). Ported from OS_semaphoreGive /
// §4.6.
func (k *Kernel) SemaphoreGive(s *Semaphore) {
	k.wait(s, &s.queue, s.tryGive)
	k.notify(&s.queue)
}
