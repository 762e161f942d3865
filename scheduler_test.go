package main

import "testing"

func TestEventQueueZeroDelayRunsInEnqueueOrder(t *testing.T) {
	q := NewEventQueue()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.QueueNow(func() { order = append(order, i) })
	}
	q.Process()
	for i, v := range order {
		if v != i {
			t.Fatalf("order[%d] = %d, want %d", i, v, i)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("queue should be drained, got %d remaining", q.Len())
	}
}

func TestEventQueueDelayedClosureWaitsForDelayQuanta(t *testing.T) {
	q := NewEventQueue()
	ran := false
	q.Queue(func() { ran = true }, 2)

	q.Process() // delay 2 -> 1, not yet due
	if ran {
		t.Fatal("closure with delay 2 ran after a single Process call")
	}
	q.Process() // delay 1 -> 0, not yet due (decremented after the due pass)
	if ran {
		t.Fatal("closure with delay 2 ran after two Process calls")
	}
	q.Process() // delay 0, now due
	if !ran {
		t.Fatal("closure with delay 2 did not run after three Process calls")
	}
}

func TestEventQueueSelfQueuedZeroDelayDoesNotRunWithinSameProcess(t *testing.T) {
	q := NewEventQueue()
	var order []string
	q.QueueNow(func() {
		order = append(order, "first")
		q.QueueNow(func() { order = append(order, "chained") })
	})
	q.Process()
	if len(order) != 1 || order[0] != "first" {
		t.Fatalf("chained closure must not run within the same Process call, got %v", order)
	}
	if q.Len() != 1 {
		t.Fatalf("chained closure should remain queued, got Len()=%d", q.Len())
	}
	q.Process()
	if len(order) != 2 || order[1] != "chained" {
		t.Fatalf("chained closure should run on the next Process call, got %v", order)
	}
}

func TestEventQueuePanicIsRecoveredAndDoesNotStallOthers(t *testing.T) {
	q := NewEventQueue()
	ranAfter := false
	q.QueueNow(func() { panic("boom") })
	q.QueueNow(func() { ranAfter = true })
	q.Process()
	if !ranAfter {
		t.Fatal("closure queued after a panicking one should still run")
	}
}
