package rtos

// readyBuckets holds, for each priority 0..PriorityMax, either nil or
// a pointer into that priority's circular doubly linked list at the
// most recently run task. Index 0 is never populated (the idle task
// is never placed on the ready lists), but is kept so the array can
// be indexed directly by priority, mirroring the original target's
// choice to waste one slot for simpler code.
type readyBuckets [PriorityLevels]*TCB

// insert links tcb into the circular doubly linked list at its
// priority. If the bucket is empty, tcb becomes a one-element circular
// list (tcb.next == tcb, the idiom used throughout this file and its
// tests to detect a singleton bucket). Otherwise tcb is linked in
// immediately after the bucket's cursor.
func (b *readyBuckets) insert(tcb *TCB) {
	cursor := b[tcb.priority]
	if cursor == nil {
		tcb.next = tcb
		tcb.prev = tcb
		b[tcb.priority] = tcb
		return
	}
	tcb.prev = cursor
	tcb.next = cursor.next
	tcb.prev.next = tcb
	tcb.next.prev = tcb
}

// remove unlinks tcb from its priority's circular doubly linked list.
// After removal the bucket's cursor is left pointing at tcb's former
// predecessor, so the next scheduling decision in that bucket resumes
// at tcb's former successor.
func (b *readyBuckets) remove(tcb *TCB) {
	if tcb.next == tcb {
		b[tcb.priority] = nil
		return
	}
	tcb.prev.next = tcb.next
	tcb.next.prev = tcb.prev
	b[tcb.priority] = tcb.prev
}

// advance returns the highest non-empty bucket's next runnable task,
// walking the bucket's cursor forward by one node, or reports false if
// every bucket (1..PriorityMax) is empty.
func (b *readyBuckets) advance() (*TCB, bool) {
	for priority := PriorityMax; priority > 0; priority-- {
		cursor := b[priority]
		if cursor == nil {
			continue
		}
		next := cursor.next
		b[priority] = next
		return next, true
	}
	return nil, false
}
