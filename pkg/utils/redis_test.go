package utils

import (
	"context"
	"testing"
	"time"
)

func TestCallLockScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if callLockAcquireScript == nil || callLockReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}

func TestAcquireCallLock_RejectsBadArgs(t *testing.T) {
	if _, err := AcquireCallLock(context.Background(), nil, "k", "h", time.Second); err == nil {
		t.Fatalf("expected error for nil client")
	}
}
