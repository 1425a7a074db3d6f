package recon

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestMonitor_FiresAfterWindow(t *testing.T) {
	var fired atomic.Int32
	m := NewMonitor(10*time.Millisecond, func(ctx context.Context, contactID, providerCallID string) {
		if contactID == "ct-1" && providerCallID == "call-1" {
			fired.Add(1)
		}
	}, testLogger())
	defer m.Stop()

	m.Arm("ct-1", "call-1")

	deadline := time.Now().Add(2 * time.Second)
	for fired.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("check never fired")
		}
		time.Sleep(time.Millisecond)
	}
	if m.Armed("call-1") {
		t.Fatalf("fired check must leave the registry")
	}
}

func TestMonitor_DisarmPreventsFiring(t *testing.T) {
	var fired atomic.Int32
	m := NewMonitor(20*time.Millisecond, func(ctx context.Context, contactID, providerCallID string) {
		fired.Add(1)
	}, testLogger())
	defer m.Stop()

	m.Arm("ct-1", "call-1")
	m.Disarm("call-1")

	time.Sleep(50 * time.Millisecond)
	if fired.Load() != 0 {
		t.Fatalf("disarmed check fired")
	}
}

func TestMonitor_RearmIsSingleShot(t *testing.T) {
	var fired atomic.Int32
	m := NewMonitor(10*time.Millisecond, func(ctx context.Context, contactID, providerCallID string) {
		fired.Add(1)
	}, testLogger())
	defer m.Stop()

	m.Arm("ct-1", "call-1")
	m.Arm("ct-1", "call-1") // reset, not duplicate

	time.Sleep(60 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Fatalf("fired %d times, want 1", got)
	}
}

func TestMonitor_IgnoresEmptyIDs(t *testing.T) {
	m := NewMonitor(time.Hour, func(ctx context.Context, contactID, providerCallID string) {}, testLogger())
	defer m.Stop()

	m.Arm("", "call-1")
	m.Arm("ct-1", "")
	if m.Armed("call-1") || m.Armed("") {
		t.Fatalf("empty ids must not arm")
	}
}
