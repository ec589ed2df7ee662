package rtos

import "testing"

func TestInitialiseTCBClampsPriority(t *testing.T) {
	cases := []struct {
		name string
		in   uint32
		want uint32
	}{
		{"in range", 2, 2},
		{"zero clamped", 0, PriorityMax},
		{"above max clamped", PriorityMax + 7, PriorityMax},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var tcb TCB
			InitialiseTCB(&tcb, 0, nil, c.in, 0, "t")
			if got := tcb.Priority(); got != c.want {
				t.Errorf("priority = %d, want %d", got, c.want)
			}
		})
	}
}

func TestInitialiseTCBFields(t *testing.T) {
	var tcb TCB
	var gotArg uint32
	entry := func(arg uint32) { gotArg = arg }
	InitialiseTCB(&tcb, 64, entry, 3, 42, "worker")

	if tcb.Name() != "worker" {
		t.Errorf("name = %q, want %q", tcb.Name(), "worker")
	}
	if tcb.StackWords() != 64 {
		t.Errorf("stack words = %d, want 64", tcb.StackWords())
	}
	if tcb.State() != 0 {
		t.Errorf("fresh tcb state = %#x, want 0", tcb.State())
	}
	if tcb.heapIndex != -1 {
		t.Errorf("heapIndex = %d, want -1", tcb.heapIndex)
	}
	if tcb.sp == nil || tcb.sp.PSR != psrThumbBit {
		t.Errorf("stack frame PSR = %#x, want Thumb bit set", tcb.sp.PSR)
	}
	tcb.entry(99)
	if gotArg != 99 {
		t.Errorf("entry arg = %d, want 99 (arg field not threaded through)", gotArg)
	}
}

func TestSetState(t *testing.T) {
	var tcb TCB
	InitialiseTCB(&tcb, 0, nil, 1, 0, "")

	tcb.setState(StateYield, true)
	tcb.setState(StateWait, true)
	if tcb.State() != StateYield|StateWait {
		t.Fatalf("state = %#x, want %#x", tcb.State(), StateYield|StateWait)
	}

	tcb.setState(StateYield, false)
	if tcb.State() != StateWait {
		t.Fatalf("state after clearing yield = %#x, want %#x", tcb.State(), StateWait)
	}
}

func TestInitialiseIdleTCB(t *testing.T) {
	idle := initialiseIdleTCB(func(uint32) {})
	if idle.Priority() != 0 {
		t.Errorf("idle priority = %d, want 0", idle.Priority())
	}
	if idle.Name() != "idle" {
		t.Errorf("idle name = %q, want idle", idle.Name())
	}
}
