package rtos

import "log"

// State bits for TCB.state. Only a handful of bits are defined; the
// remainder are reserved for future use, exactly as in the original
// target where a 32-bit state word carries the yield, sleep and wait
// flags and a reserved priority-inheritance bit that nothing sets or
// reads.
const (
	// StateYield marks a task that has voluntarily given up its turn.
	StateYield uint32 = 1 << iota
	// StateSleep marks a task parked in the sleep heap.
	StateSleep
	// StateWait marks a task parked on a resource's wait queue.
	StateWait
	// StatePriorityInherited is reserved for a future priority
	// inheritance scheme. Nothing in this kernel sets or reads it;
	// see SPEC_FULL.md §7 for why it is kept rather than removed.
	StatePriorityInherited
)

// PriorityLevels is the number of distinct task priorities, numbered
// 1..PriorityMax, plus priority 0 reserved for the idle task.
const PriorityLevels = 5

// PriorityMax is the highest usable task priority.
const PriorityMax = PriorityLevels - 1

// MaxTasks bounds the number of non-idle tasks the kernel will admit.
// It sizes the sleep heap, since every admitted task could be asleep
// at once.
const MaxTasks = 15

// TickRateHz is the system tick frequency: the rate at which the
// kernel's tick goroutine advances ElapsedTicks. Sleep treats one tick
// as one millisecond.
const TickRateHz = 1000

// Compile-time sanity checks on the configuration constants above,
// mirroring the #if guards in the original target's roundRobin.h.
const (
	_ = uint(PriorityLevels - 1) // PriorityLevels must be >= 1
	_ = uint(MaxTasks - 1)       // MaxTasks must be >= 1
)

// StackFrame is the saved register image of a task that is not
// currently running: the callee-saved registers pushed by the
// context switcher (R4-R11), followed by the registers a hardware
// exception entry would stack automatically (R0-R3, R12, LR, PC,
// PSR). The field order matches the original target's stacking
// order; there is no real register file behind it in a hosted Go
// program. The fields record the original's save/restore layout only:
// the switcher in switch.go does not read or write them, and
// InitialiseTCB sets nothing in a fresh frame but the PSR Thumb bit.
type StackFrame struct {
	R4, R5, R6, R7, R8, R9, R10, R11 uint32
	R0, R1, R2, R3                   uint32
	R12, LR, PC, PSR                 uint32
}

// psrThumbBit is the only PSR bit the original target ever sets on a
// freshly initialised frame: the Thumb-state mask, without which the
// very first instruction fetch would fault.
const psrThumbBit = 0x01000000

// TCB is a task control block: one per task known to the kernel, plus
// one (unlinked from the ready lists) for the idle task.
type TCB struct {
	// sp is the saved stack pointer. In the original target this must
	// be the first struct field so that a double pointer dereference
	// yields the top of the saved register image; this port keeps the
	// field first for documentation fidelity even though Go gives no
	// such layout guarantee.
	sp *StackFrame

	// state is the bitfield described by the State* constants above.
	state uint32

	// priority is in [1, PriorityMax] for ordinary tasks, or 0 for the
	// idle task. Values out of range are clamped at InitialiseTCB time.
	priority uint32

	// data is a scratch field. The sleep subsystem uses it to hold an
	// absolute wake-up tick while the task sleeps.
	data uint32

	// prev/next link this TCB into whichever structure currently owns
	// it: a circular doubly linked ready-list node while runnable
	// (both fields used), a singly linked wait-queue node while
	// blocked (next only), or unused while parked in the sleep heap.
	prev, next *TCB

	// heapIndex caches this TCB's current position in the sleep heap
	// array, -1 when it is not in the heap. Not part of the original
	// target's data model (the original scans don't need it, because
	// C macros index the array directly); kept here purely as a
	// bookkeeping convenience for Go's bounds-checked slices.
	heapIndex int

	// name is used only for diagnostics; it has no counterpart in the
	// original target, which identifies tasks by TCB address.
	name string

	// entry and arg are the task body and its user data pointer. The
	// original target stores these only in the synthetic stack frame
	// (PC and r0) because the switcher resumes execution by loading
	// the frame onto a real register file; a hosted goroutine has no
	// such register file, so this port keeps them as explicit fields
	// that switch.go's goroutine launcher reads once, on the task's
	// first scheduling-in.
	entry      func(arg uint32)
	arg        uint32
	stackWords int

	// runCh is the run-token channel used to simulate the
	// privileged/unprivileged handoff on a host that cannot truly
	// preempt arbitrary goroutine code; see switch.go.
	runCh chan struct{}

	// started latches once the task's goroutine has been launched, so
	// switch.go only launches it on the very first hand-off.
	started bool

	// exited latches once the task body has returned and the kernel
	// has reclaimed it, so a stale run-token signal can never resume a
	// finished task's goroutine.
	exited bool
}

// Priority returns the task's scheduling priority.
func (t *TCB) Priority() uint32 { return t.priority }

// State returns the task's current state bitfield.
func (t *TCB) State() uint32 { return t.state }

// Name returns the diagnostic name given to the task at
// initialisation, or "" if none was given.
func (t *TCB) Name() string { return t.name }

func (t *TCB) setState(bit uint32, set bool) {
	if set {
		t.state |= bit
	} else {
		t.state &^= bit
	}
}

// clampPriority clamps an out-of-range priority to PriorityMax,
// logging the adjustment. This is a programmer error under §7's
// taxonomy: a debug build would assert, a release build silently
// clamps to keep the system live.
func clampPriority(p uint32) uint32 {
	if p < 1 || p > PriorityMax {
		log.Printf("rtos: priority %d out of range [1,%d], clamped to %d", p, PriorityMax, PriorityMax)
		return PriorityMax
	}
	return p
}

// InitialiseTCB prepares a task control block so that, the first time
// the scheduler switches to it, entry runs in its own goroutine with
// arg as its argument. stackWords mirrors the original target's
// stack_top parameter: the number of words reserved for the task's
// stack. This port has no real per-task stack to size — task bodies
// run as goroutines on the Go runtime's own stacks — so stackWords is
// recorded only for diagnostics (see TCB.StackWords) and is not
// otherwise used; a stack-sizing mistake that would corrupt memory on
// the original target simply cannot happen here.
//
// name is used only for diagnostics and may be empty.
func InitialiseTCB(tcb *TCB, stackWords int, entry func(arg uint32), priority uint32, arg uint32, name string) {
	*tcb = TCB{
		sp:         &StackFrame{PC: 0, PSR: psrThumbBit},
		priority:   clampPriority(priority),
		heapIndex:  -1,
		name:       name,
		entry:      entry,
		arg:        arg,
		stackWords: stackWords,
		runCh:      make(chan struct{}, 1),
	}
}

// StackWords returns the stack size, in words, this task was
// initialised with. Diagnostic only; see InitialiseTCB.
func (t *TCB) StackWords() int { return t.stackWords }

// initialiseIdleTCB builds the distinguished idle task: priority 0,
// never placed on the ready lists (invariant 2 in spec.md §3). Its
// body is the wait-for-interrupt loop supplied by the caller (see
// Kernel.Init).
func initialiseIdleTCB(idleLoop func(arg uint32)) *TCB {
	tcb := &TCB{
		sp:        &StackFrame{PSR: psrThumbBit},
		priority:  0,
		heapIndex: -1,
		name:      "idle",
		entry:     idleLoop,
		runCh:     make(chan struct{}, 1),
	}
	return tcb
}
