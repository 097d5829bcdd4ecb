package live

import (
	"sync"
	"testing"
	"time"
)

func popN(t *testing.T, q *Queue[int], want ...int) {
	t.Helper()
	got := q.Drain(len(want))
	if len(got) != len(want) {
		t.Fatalf("Drain(%d) returned %d items", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("item %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestQueue_Grow(t *testing.T) {
	q := NewQueue[int](10)

	// 7 items is 70% of 10
	for i := 0; i < 7; i++ {
		q.Push(i)
	}

	stats := q.Stats()
	if stats.Capacity <= 10 {
		t.Errorf("Capacity = %d, expected growth after 70%% fill", stats.Capacity)
	}
	if stats.Resizes != 1 {
		t.Errorf("Resizes = %d, want 1", stats.Resizes)
	}
	popN(t, q, 0, 1, 2, 3, 4, 5, 6)
}

func TestQueue_WrapAround(t *testing.T) {
	q := NewQueue[int](5)

	q.Push(1)
	q.Push(2)
	q.Push(3)
	q.Drain(2)

	// Wraps, then grows while wrapped.
	for i := 4; i <= 8; i++ {
		q.Push(i)
	}
	popN(t, q, 3, 4, 5, 6, 7, 8)
}

func TestQueue_BlockingPop(t *testing.T) {
	q := NewQueue[int](4)
	received := make(chan int, 1)

	go func() {
		if v, ok := q.Pop(); ok {
			received <- v
		}
	}()

	time.Sleep(10 * time.Millisecond)
	q.Push(42)

	select {
	case v := <-received:
		if v != 42 {
			t.Errorf("received %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for blocked Pop")
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue[int](4)
	q.Push(1)
	q.Close()

	if q.Push(2) {
		t.Error("Push should return false after Close")
	}
	if v, ok := q.Pop(); !ok || v != 1 {
		t.Errorf("Pop() = %d, %v; want 1, true", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Error("Pop should return false when closed and empty")
	}
}

func TestQueue_CloseUnblocksPop(t *testing.T) {
	q := NewQueue[int](4)
	done := make(chan bool, 1)

	go func() {
		_, ok := q.Pop()
		done <- ok
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case ok := <-done:
		if ok {
			t.Error("Pop should return false when closed and empty")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock Pop")
	}
}

func TestQueue_Concurrent(t *testing.T) {
	q := NewQueue[int](4)
	const n = 1000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			q.Push(i)
		}
	}()

	got := make([]int, 0, n)
	for len(got) < n {
		v, ok := q.Pop()
		if !ok {
			t.Fatal("Pop returned false before close")
		}
		got = append(got, v)
	}
	wg.Wait()

	// Single producer, single consumer: order is preserved.
	for i, v := range got {
		if v != i {
			t.Fatalf("got[%d] = %d", i, v)
		}
	}
	if s := q.Stats(); s.Pushed != n || s.Popped != n {
		t.Errorf("stats = %+v", s)
	}
}

func TestCoalesce(t *testing.T) {
	in := []Message{
		{Topic: "markets", Data: []byte("1")},
		{Topic: "session", Data: []byte("a")},
		{Topic: "markets", Data: []byte("2")},
		{Topic: "chart", Data: []byte("x")},
		{Topic: "markets", Data: []byte("3")},
	}
	out := Coalesce(in, func(m Message) string { return m.Topic })

	want := []string{"session:a", "chart:x", "markets:3"}
	if len(out) != len(want) {
		t.Fatalf("len = %d, want %d", len(out), len(want))
	}
	for i, m := range out {
		if got := m.Topic + ":" + string(m.Data); got != want[i] {
			t.Errorf("out[%d] = %q, want %q", i, got, want[i])
		}
	}
}
