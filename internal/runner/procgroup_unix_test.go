//go:build darwin || linux || freebsd || netbsd || openbsd

package runner

import (
	"strconv"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

// assertProcessGone waits briefly for pid to be reaped after a group kill.
func assertProcessGone(t *testing.T, pidText string) {
	t.Helper()
	pid, err := strconv.Atoi(pidText)
	if err != nil || pid <= 1 {
		t.Fatalf("bad pid %q", pidText)
	}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if unix.Kill(pid, 0) != nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Errorf("process %d still running after timeout", pid)
}
