// Package rtos implements the core of a small preemptive real-time
// kernel for a single-core, fixed-priority embedded target.
//
// It models the task control block and stack frame, a fixed-priority
// round-robin scheduler with per-priority circular ready lists, a
// wait/notify synchronization core built around a fail-fast counter,
// and a sleep heap keyed by absolute wake-up tick under an
// overflow-safe comparison. A recursive mutex and a counting
// semaphore are built on top of the wait/notify core.
//
// The kernel runs one task at a time. Task bodies run as goroutines
// gated by the scheduler: only the goroutine holding the current run
// token may touch task-visible state, and it must pass through a
// supervisor call (Yield, Sleep, mutex/semaphore operations, Exit) to
// give another task a turn. This mirrors the original target's
// privileged/unprivileged split without requiring real hardware
// registers or a real exception vector table.
package rtos
