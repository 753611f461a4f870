//go:build !(darwin || linux || freebsd || netbsd || openbsd)

package runner

import (
	"os/exec"
	"time"
)

const waitDelay = 3 * time.Second

// setupProcessGroup keeps exec's default cancellation, which kills only the
// direct child.
func setupProcessGroup(cmd *exec.Cmd) {
	cmd.WaitDelay = waitDelay
}
