package rtos

import "testing"

func TestAfterNoWraparound(t *testing.T) {
	cases := []struct {
		t1, t2, current uint32
		want            bool
	}{
		{100, 50, 10, true},
		{50, 100, 10, false},
		{100, 100, 10, false},
	}
	for _, c := range cases {
		if got := after(c.t1, c.t2, c.current); got != c.want {
			t.Errorf("after(%d, %d, %d) = %v, want %v", c.t1, c.t2, c.current, got, c.want)
		}
	}
}

func TestAfterAcrossWraparound(t *testing.T) {
	// current is close to the uint32 max; a deadline that has wrapped
	// around to a small value must still compare as "after" current.
	current := uint32(0xFFFFFFF0)
	wrapped := uint32(5)
	notYetWrapped := uint32(0xFFFFFFF5)

	if !after(wrapped, current, current) {
		t.Fatalf("after(wrapped deadline, current, current) = false, want true")
	}
	if !after(notYetWrapped, current, current) {
		t.Fatalf("after(notYetWrapped, current, current) = false, want true")
	}
	if after(current, wrapped, current) {
		t.Fatalf("after(current, wrapped deadline, current) = true, want false")
	}
}

func TestSleepHeapNeedsWakeEmpty(t *testing.T) {
	var h sleepHeap
	if h.needsWake(0) {
		t.Fatalf("needsWake on empty heap = true, want false")
	}
}

func TestSleepHeapInsertExtractOrder(t *testing.T) {
	var h sleepHeap
	tasks := []struct {
		name     string
		deadline uint32
	}{
		{"late", 300},
		{"soon", 100},
		{"mid", 200},
	}
	for _, task := range tasks {
		tcb := newTestTCB(task.name, 1)
		tcb.data = task.deadline
		h.insert(tcb, 0)
	}

	var got []string
	for h.length > 0 {
		got = append(got, h.extract(0).name)
	}
	want := []string{"soon", "mid", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("extraction order = %v, want %v", got, want)
		}
	}
}

func TestSleepHeapHeapIndexTracksPosition(t *testing.T) {
	var h sleepHeap
	a := newTestTCB("a", 1)
	a.data = 50
	h.insert(a, 0)
	if a.heapIndex != 0 {
		t.Fatalf("sole entry heapIndex = %d, want 0", a.heapIndex)
	}

	b := newTestTCB("b", 1)
	b.data = 10
	h.insert(b, 0)
	if h.store[b.heapIndex] != b {
		t.Fatalf("store[b.heapIndex] = %v, want b", h.store[b.heapIndex])
	}
	if h.store[a.heapIndex] != a {
		t.Fatalf("store[a.heapIndex] = %v, want a", h.store[a.heapIndex])
	}
}

func TestSleepHeapExtractClearsHeapIndex(t *testing.T) {
	var h sleepHeap
	a := newTestTCB("a", 1)
	a.data = 10
	h.insert(a, 0)

	extracted := h.extract(0)
	if extracted != a {
		t.Fatalf("extract returned %v, want a", extracted)
	}
	if a.heapIndex != -1 {
		t.Fatalf("heapIndex after extract = %d, want -1", a.heapIndex)
	}
	if h.length != 0 {
		t.Fatalf("length after extracting sole entry = %d, want 0", h.length)
	}
}

func TestSleepHeapWakeWraparound(t *testing.T) {
	var h sleepHeap
	current := uint32(0xFFFFFFF0)
	a := newTestTCB("a", 1)
	a.data = current + 20 // wraps past uint32 max
	h.insert(a, current)

	if h.needsWake(current) {
		t.Fatalf("needsWake before deadline = true, want false")
	}
	if !h.needsWake(a.data + 1) {
		t.Fatalf("needsWake one tick past deadline = false, want true")
	}
}
