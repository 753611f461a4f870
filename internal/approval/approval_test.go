package approval

import (
	"bytes"
	"strings"
	"testing"
)

func TestAsk(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		interact   bool
		wantOK     bool
		wantAction string
	}{
		{"approve", "y\n", true, true, "approve_once"},
		{"approve long form", "Yes\n", true, true, "approve_once"},
		{"deny", "n\n", true, false, "deny"},
		{"empty line denies", "\n", true, false, "deny"},
		{"retry after garbage", "maybe\ny\n", true, true, "approve_once"},
		{"eof", "", true, false, "error_reading_input"},
		{"non interactive", "y\n", false, false, "auto_deny_non_interactive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			interactive := tt.interact
			pr := &Prompter{
				In:          strings.NewReader(tt.input),
				Out:         &out,
				Interactive: func() bool { return interactive },
			}
			got := pr.Ask(Prompt{Subject: "Move notes.txt to trash", Reasons: []string{"irreversible without the trash"}})
			if got.Approved != tt.wantOK || got.UserAction != tt.wantAction {
				t.Errorf("Ask() = %+v", got)
			}
			if tt.interact && !strings.Contains(out.String(), "Move notes.txt to trash") {
				t.Errorf("prompt not shown: %q", out.String())
			}
		})
	}
}
