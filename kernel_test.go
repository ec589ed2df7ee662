package rtos

import (
	"testing"
	"time"
)

// newTestKernel and waitAll are shared helpers used by this file and
// scenario_test.go.

func newTestKernel(t *testing.T) *Kernel {
	t.Helper()
	k := NewKernel()
	if err := k.Init(NewRoundRobin(k.ElapsedTicks)); err != nil {
		t.Fatalf("Init: %v", err)
	}
	t.Cleanup(k.Shutdown)
	return k
}

func waitAll(t *testing.T, done <-chan struct{}, n int, timeout time.Duration) {
	t.Helper()
	deadline := time.After(timeout)
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-deadline:
			t.Fatalf("only %d/%d tasks finished within %v", i, n, timeout)
		}
	}
}

func TestKernelStartTwiceFails(t *testing.T) {
	k := newTestKernel(t)
	if err := k.Start(); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := k.Start(); err != ErrAlreadyStarted {
		t.Fatalf("second Start err = %v, want ErrAlreadyStarted", err)
	}
}

func TestKernelInitRejectsNilScheduler(t *testing.T) {
	k := NewKernel()
	if err := k.Init(nil); err != ErrNilScheduler {
		t.Fatalf("Init(nil) err = %v, want ErrNilScheduler", err)
	}
}

func TestKernelSVCCountsIncrementOnYield(t *testing.T) {
	k := newTestKernel(t)
	done := make(chan struct{}, 1)

	var tcb TCB
	InitialiseTCB(&tcb, 0, func(uint32) {
		k.Yield()
		k.Yield()
		done <- struct{}{}
	}, 2, 0, "t")
	k.AddTask(&tcb)

	if err := k.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitAll(t, done, 1, 2*time.Second)

	if got := k.SVCCount(svcYieldTask); got < 2 {
		t.Fatalf("svcYieldTask count = %d, want at least 2", got)
	}
}

func TestKernelSVCCountsIncrementOnSleep(t *testing.T) {
	k := newTestKernel(t)
	done := make(chan struct{}, 1)

	var tcb TCB
	InitialiseTCB(&tcb, 0, func(uint32) {
		k.Sleep(1)
		done <- struct{}{}
	}, 2, 0, "t")
	k.AddTask(&tcb)

	if err := k.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitAll(t, done, 1, 2*time.Second)

	if got := k.SVCCount(svcRemoveTask); got < 1 {
		t.Fatalf("svcRemoveTask count = %d, want at least 1 (Sleep unlinks the task from the ready lists)", got)
	}
}
