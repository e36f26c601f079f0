package app

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestBackoff_Fixed(t *testing.T) {
	b := newBackoff(time.Second, time.Second)

	for i := 0; i < 4; i++ {
		if got := b.next(); got != time.Second {
			t.Fatalf("next() #%d = %v, want 1s", i, got)
		}
	}
}

func TestBackoff_MaxBelowInitialIsFixed(t *testing.T) {
	b := newBackoff(time.Second, time.Millisecond)

	if got := b.next(); got != time.Second {
		t.Errorf("next() = %v, want 1s", got)
	}
	if b.Current() != time.Second {
		t.Errorf("Current() = %v, want 1s", b.Current())
	}
}

func TestBackoff_Exponential(t *testing.T) {
	b := newBackoff(100*time.Millisecond, 350*time.Millisecond)

	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 350 * time.Millisecond, 350 * time.Millisecond}
	for i, w := range want {
		got := b.next()
		lo := time.Duration(float64(w) * 0.8)
		hi := time.Duration(float64(w) * 1.2)
		if got < lo || got > hi {
			t.Errorf("next() #%d = %v, want within [%v, %v]", i, got, lo, hi)
		}
	}

	b.Reset()
	if b.Current() != 100*time.Millisecond {
		t.Errorf("Current() after Reset = %v, want 100ms", b.Current())
	}
}

func TestBackoff_WaitCancelled(t *testing.T) {
	b := newBackoff(time.Hour, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := b.Wait(ctx)

	if !errors.Is(err, context.Canceled) {
		t.Errorf("Wait() = %v, want context.Canceled", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Wait() did not return promptly on a cancelled context")
	}
}

func TestBackoff_WaitElapses(t *testing.T) {
	b := newBackoff(5*time.Millisecond, 5*time.Millisecond)

	if err := b.Wait(context.Background()); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
}
