package systemd

import (
	"context"
	"testing"
	"time"
)

func TestGetListenersWithoutActivation(t *testing.T) {
	t.Setenv("LISTEN_PID", "")
	t.Setenv("LISTEN_FDS", "")

	listeners, err := GetListeners()
	if err != nil {
		t.Fatalf("GetListeners: %v", err)
	}
	if listeners.Activated {
		t.Error("expected Activated to be false outside systemd")
	}
	if listeners.API != nil || listeners.Metrics != nil {
		t.Error("expected no listeners outside systemd")
	}
}

func TestNotifyWithoutSocket(t *testing.T) {
	t.Setenv("NOTIFY_SOCKET", "")

	if IsSystemdService() {
		t.Error("expected IsSystemdService to be false")
	}
	if err := NotifyReady(); err != nil {
		t.Errorf("NotifyReady: %v", err)
	}
	if err := NotifyStopping(); err != nil {
		t.Errorf("NotifyStopping: %v", err)
	}
}

func TestRunWatchdogDisabled(t *testing.T) {
	t.Setenv("WATCHDOG_USEC", "")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- RunWatchdog(ctx) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("RunWatchdog: %v", err)
		}
	case <-ctx.Done():
		t.Fatal("RunWatchdog did not return with watchdog disabled")
	}
}
