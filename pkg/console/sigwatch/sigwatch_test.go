package sigwatch

import (
	"sync"
	"syscall"
	"testing"
	"time"
)

func TestPollCoalesces(t *testing.T) {
	w := NewManual()
	if _, ok := w.Poll(); ok {
		t.Fatal("fresh watcher reported a signal")
	}
	w.Notify(Interrupt)
	w.Notify(Terminate)
	k, ok := w.Poll()
	if !ok || k != Terminate {
		t.Fatalf("Poll() = %v, %v; want terminate, true", k, ok)
	}
	if _, ok := w.Poll(); ok {
		t.Fatal("second Poll reported a signal")
	}
}

func TestConcurrentNotify(t *testing.T) {
	w := NewManual()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Notify(Interrupt)
		}()
	}
	wg.Wait()
	if k, ok := w.Poll(); !ok || k != Interrupt {
		t.Fatalf("Poll() = %v, %v", k, ok)
	}
}

func TestOSSignal(t *testing.T) {
	w := New(syscall.SIGUSR1)
	defer w.Stop()

	if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := w.Poll(); ok {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("signal not observed")
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		sig  syscall.Signal
		want Kind
	}{
		{syscall.SIGINT, Interrupt},
		{syscall.SIGTERM, Terminate},
		{syscall.SIGHUP, Hangup},
		{syscall.SIGUSR1, Terminate},
	}
	for _, tt := range tests {
		if got := KindOf(tt.sig); got != tt.want {
			t.Errorf("KindOf(%v) = %v, want %v", tt.sig, got, tt.want)
		}
	}
}
