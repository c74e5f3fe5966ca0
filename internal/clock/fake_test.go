package clock

import (
	"testing"
	"time"
)

func TestFake_AfterFiresOnAdvance(t *testing.T) {
	f := NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	ch := f.After(time.Second)

	select {
	case <-ch:
		t.Fatal("timer fired before Advance")
	default:
	}

	f.Advance(999 * time.Millisecond)
	select {
	case <-ch:
		t.Fatal("timer fired before its deadline")
	default:
	}

	f.Advance(time.Millisecond)
	select {
	case at := <-ch:
		want := time.Date(2025, 1, 1, 0, 0, 1, 0, time.UTC)
		if !at.Equal(want) {
			t.Errorf("fired at %v, want %v", at, want)
		}
	default:
		t.Fatal("timer did not fire at deadline")
	}
}

func TestFake_TickerRepeats(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	tk := f.NewTicker(time.Second)
	defer tk.Stop()

	for i := 0; i < 3; i++ {
		f.Advance(time.Second)
		select {
		case <-tk.Chan():
		default:
			t.Fatalf("tick %d missing", i)
		}
	}
}

func TestFake_StoppedTickerDoesNotFire(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	tk := f.NewTicker(time.Second)
	tk.Stop()

	f.Advance(5 * time.Second)
	select {
	case <-tk.Chan():
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFake_OrderedFiring(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	late := f.After(2 * time.Second)
	early := f.After(time.Second)

	f.Advance(3 * time.Second)

	earlyAt := <-early
	lateAt := <-late
	if !earlyAt.Before(lateAt) {
		t.Errorf("timers fired out of order: %v vs %v", earlyAt, lateAt)
	}
	if got := f.Now(); !got.Equal(time.Unix(3, 0)) {
		t.Errorf("Now = %v, want 3s past epoch", got)
	}
}

func TestFake_BlockUntil(t *testing.T) {
	f := NewFake(time.Unix(0, 0))
	done := make(chan struct{})
	go func() {
		f.After(time.Second)
		close(done)
	}()

	f.BlockUntil(1)
	<-done
}
