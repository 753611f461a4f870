package fault

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestError_IsMatchesKindSentinel(t *testing.T) {
	err := Wrap(KindNotFound, "read", "app.py", os.ErrNotExist)

	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected errors.Is(err, ErrNotFound)")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped cause to remain reachable")
	}
	if errors.Is(err, ErrAlreadyExists) {
		t.Errorf("did not expect AlreadyExists to match")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, ""},
		{"direct", New(KindTooLarge, "read", "big.txt", ""), KindTooLarge},
		{"wrapped", fmt.Errorf("outer: %w", Rejected("create", "../x")), KindPolicyRejected},
		{"foreign", errors.New("boom"), KindUnexpected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRejected_DoesNotExplain(t *testing.T) {
	err := Rejected("read", "../../etc/passwd")
	if got := err.Error(); got != "read ../../etc/passwd: not permitted" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestMessage_HidesUnexpectedDetail(t *testing.T) {
	err := Wrap(KindUnexpected, "update", "a.txt", errors.New("open /home/user/ws/a.txt: input/output error"))
	if got := Message(err); got != "update: unexpected error" {
		t.Errorf("Message() = %q", got)
	}
	if got := Message(errors.New("raw")); got != "unexpected error" {
		t.Errorf("Message(foreign) = %q", got)
	}
	if got := Message(New(KindAlreadyExists, "create", "a.txt", "")); got != "create a.txt: already exists" {
		t.Errorf("Message(AlreadyExists) = %q", got)
	}
}
