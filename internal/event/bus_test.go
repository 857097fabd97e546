package event

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case _, ok := <-ch:
		if !ok {
			t.Fatal("channel closed, expected a delivery")
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for delivery")
	}
}

func TestBus_SubscribeAndEmit(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(WindowDestroyed)
	defer cancel()

	if n := b.Emit(WindowDestroyed); n != 1 {
		t.Fatalf("Emit() delivered to %d subscribers, want 1", n)
	}
	receive(t, ch)
}

func TestBus_ZeroValue(t *testing.T) {
	var b Bus

	ch, cancel := b.Subscribe(WindowDestroyed)
	defer cancel()

	b.Emit(WindowDestroyed)
	receive(t, ch)
}

func TestBus_OtherKindsIgnored(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(WindowDestroyed)
	defer cancel()

	if n := b.Emit(Kind("window://focused")); n != 0 {
		t.Errorf("Emit() for unrelated kind delivered to %d subscribers", n)
	}

	select {
	case <-ch:
		t.Error("unexpected delivery for unrelated kind")
	default:
	}
}

func TestBus_MultipleSubscribers(t *testing.T) {
	b := NewBus()

	ch1, cancel1 := b.Subscribe(WindowDestroyed)
	defer cancel1()
	ch2, cancel2 := b.Subscribe(WindowDestroyed)
	defer cancel2()

	if n := b.Emit(WindowDestroyed); n != 2 {
		t.Fatalf("Emit() delivered to %d subscribers, want 2", n)
	}
	receive(t, ch1)
	receive(t, ch2)
}

func TestBus_BurstDeliveredInFull(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(WindowDestroyed)
	defer cancel()

	// Nobody is draining; Emit must not block.
	const n = 5
	for i := 0; i < n; i++ {
		b.Emit(WindowDestroyed)
	}

	for i := 0; i < n; i++ {
		receive(t, ch)
	}
	select {
	case <-ch:
		t.Errorf("received more than %d deliveries", n)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBus_CancelHandsOverPending(t *testing.T) {
	tests := []struct {
		name string
		stop func(b *Bus, cancel func())
	}{
		{"cancel", func(_ *Bus, cancel func()) { cancel() }},
		{"close", func(b *Bus, _ func()) { b.Close() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBus()
			ch, cancel := b.Subscribe(WindowDestroyed)

			b.Emit(WindowDestroyed)
			b.Emit(WindowDestroyed)
			b.Emit(WindowDestroyed)
			tt.stop(b, cancel)
			b.Emit(WindowDestroyed) // after stop: dropped

			got := 0
			for range ch {
				got++
			}
			if got != 3 {
				t.Errorf("drained %d deliveries, want 3", got)
			}
		})
	}
}

func TestBus_CancelClosesChannel(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(WindowDestroyed)
	cancel()
	cancel() // second cancel is a no-op

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after cancel")
	}
	if n := b.Subscribers(WindowDestroyed); n != 0 {
		t.Errorf("Subscribers() = %d after cancel, want 0", n)
	}
	if n := b.Emit(WindowDestroyed); n != 0 {
		t.Errorf("Emit() after cancel delivered to %d subscribers", n)
	}
}

func TestBus_Close(t *testing.T) {
	b := NewBus()

	ch, cancel := b.Subscribe(WindowDestroyed)
	b.Close()
	cancel() // cancel after Close must not double-close

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after Close")
	}

	late, _ := b.Subscribe(WindowDestroyed)
	if _, ok := <-late; ok {
		t.Error("expected subscription on a closed bus to be closed")
	}
	b.Close()
}

func TestBus_ConcurrentSubscribeEmitCancel(t *testing.T) {
	b := NewBus()

	var wg sync.WaitGroup
	var delivered atomic.Int32

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			ch, cancel := b.Subscribe(WindowDestroyed)
			select {
			case <-ch:
				delivered.Add(1)
			case <-time.After(10 * time.Millisecond):
			}
			cancel()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			b.Emit(WindowDestroyed)
		}()
	}

	wg.Wait()
	// Test passes if no race conditions or panics occur
	if b.Subscribers(WindowDestroyed) != 0 {
		t.Errorf("Subscribers() = %d, want 0", b.Subscribers(WindowDestroyed))
	}
}
