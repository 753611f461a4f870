//go:build unix

package filestore

import (
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestInfo_FIFODoesNotBlock(t *testing.T) {
	s, root := newTestStore(t)
	if err := unix.Mkfifo(filepath.Join(root, "pipe.txt"), 0600); err != nil {
		t.Skipf("mkfifo unsupported: %v", err)
	}

	type outcome struct {
		info Info
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		info, err := s.Info("pipe.txt")
		done <- outcome{info, err}
	}()

	select {
	case got := <-done:
		if got.err != nil {
			t.Fatalf("Info: %v", got.err)
		}
		if got.info.Type != TypeOther {
			t.Errorf("Type = %q, want %q", got.info.Type, TypeOther)
		}
		if got.info.Digest != "" || got.info.Lines != nil {
			t.Errorf("special file should carry no digest or text stats: %+v", got.info)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Info on a FIFO did not return")
	}
}
