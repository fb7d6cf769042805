package clock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRecording(t *testing.T) {
	start := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	c := NewRecording(start)

	if err := Sleep(context.Background(), c, 15*time.Second); err != nil {
		t.Fatalf("sleep: %v", err)
	}
	if err := Sleep(context.Background(), c, time.Second); err != nil {
		t.Fatalf("sleep: %v", err)
	}

	if got := c.Now().Sub(start); got != 16*time.Second {
		t.Errorf("advanced %v, want 16s", got)
	}
	waits := c.Waits()
	if len(waits) != 2 || waits[0] != 15*time.Second || waits[1] != time.Second {
		t.Errorf("waits = %v", waits)
	}
}

type never struct{}

func (never) Now() time.Time                       { return time.Time{} }
func (never) After(time.Duration) <-chan time.Time { return nil }

func TestSleepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, never{}, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestRealSleep(t *testing.T) {
	if err := Sleep(context.Background(), Real(), time.Millisecond); err != nil {
		t.Errorf("sleep: %v", err)
	}
}
