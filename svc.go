package rtos

// svcNumber identifies one of the kernel's supervisor calls: the
// closed set of ways task code is allowed to reach into privileged
// kernel state. Ported from spec.md §4.1 / §6; the original target
// dispatches these through a numbered trap handler reading arguments
// out of the saved register frame. This port has no real trap, but
// keeps the same numbering and the same table-of-counters idiom the
// kernel uses elsewhere for dispatch (compare the per-priority ready
// bucket array), so every call site still goes through one named
// call number rather than an ad hoc method name.
type svcNumber int

const (
	svcEnableTick svcNumber = iota
	svcSchedule
	svcAddTask
	svcExitTask
	svcYieldTask
	svcRemoveTask
	svcWait
	svcNotify
	svcCount
)

func (n svcNumber) String() string {
	switch n {
	case svcEnableTick:
		return "ENABLE_TICK"
	case svcSchedule:
		return "SCHEDULE"
	case svcAddTask:
		return "ADD_TASK"
	case svcExitTask:
		return "EXIT_TASK"
	case svcYieldTask:
		return "YIELD_TASK"
	case svcRemoveTask:
		return "REMOVE_TASK"
	case svcWait:
		return "WAIT"
	case svcNotify:
		return "NOTIFY"
	default:
		return "UNKNOWN_SVC"
	}
}

// SVCCount returns how many times supervisor call n has been issued
// since the kernel was created. Diagnostic only.
func (k *Kernel) SVCCount(n svcNumber) uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.svcCounts[n]
}
