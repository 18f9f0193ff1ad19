package main_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestPingCommand_RunDaemon(t *testing.T) {
	t.Parallel()

	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	cmd, out, errs := makeTestCommand(t, nil)

	// a schedule far in the future; only the immediate kick should run
	args := []string{"pingsvc", "-d", "0s", "-s", "1h", "-p", "0", srv.URL}
	if code := cmd.ParseArgs(args); code != 0 {
		t.Fatalf("unexpected exit code %d: %s", code, errs.String())
	}

	targets := cmd.Config.Targets

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int)
	go func() {
		done <- cmd.RunDaemon(ctx, zap.NewNop(), targets)
	}()

	deadline := time.Now().Add(5 * time.Second)
	for hits.Load() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("the daemon did not kick an immediate cycle")
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()

	select {
	case code := <-done:
		if code != 0 {
			t.Errorf("expected exit code 0 but got %d", code)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("the daemon did not shut down")
	}

	if got := hits.Load(); got != 1 {
		t.Errorf("expected exactly one probe but got %d", got)
	}
	if !strings.Contains(out.String(), "1 succeeded, 0 failed") {
		t.Errorf("output should contain the cycle summary:\n%s", out.String())
	}
}
