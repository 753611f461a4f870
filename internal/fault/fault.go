package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so callers can decide what to do next without
// parsing error strings.
type Kind string

const (
	KindPolicyRejected           Kind = "PolicyRejected"
	KindNotFound                 Kind = "NotFound"
	KindAlreadyExists            Kind = "AlreadyExists"
	KindTooLarge                 Kind = "TooLarge"
	KindEncodingError            Kind = "EncodingError"
	KindTimeout                  Kind = "Timeout"
	KindProcessSpawnFailed       Kind = "ProcessSpawnFailed"
	KindWorkingDirectoryNotFound Kind = "WorkingDirectoryNotFound"
	KindInvalidRequest           Kind = "InvalidRequest"
	KindCanceled                 Kind = "Canceled"
	KindUnexpected               Kind = "Unexpected"
)

// Sentinels for errors.Is. Every *Error matches the sentinel of its Kind.
var (
	ErrPolicyRejected           = errors.New("not permitted")
	ErrNotFound                 = errors.New("not found")
	ErrAlreadyExists            = errors.New("already exists")
	ErrTooLarge                 = errors.New("too large")
	ErrEncoding                 = errors.New("content is not valid text")
	ErrTimeout                  = errors.New("timed out")
	ErrProcessSpawnFailed       = errors.New("process could not be started")
	ErrWorkingDirectoryNotFound = errors.New("working directory not found")
	ErrInvalidRequest           = errors.New("invalid request")
	ErrCanceled                 = errors.New("canceled")
	ErrUnexpected               = errors.New("unexpected error")
)

var sentinels = map[Kind]error{
	KindPolicyRejected:           ErrPolicyRejected,
	KindNotFound:                 ErrNotFound,
	KindAlreadyExists:            ErrAlreadyExists,
	KindTooLarge:                 ErrTooLarge,
	KindEncodingError:            ErrEncoding,
	KindTimeout:                  ErrTimeout,
	KindProcessSpawnFailed:       ErrProcessSpawnFailed,
	KindWorkingDirectoryNotFound: ErrWorkingDirectoryNotFound,
	KindInvalidRequest:           ErrInvalidRequest,
	KindCanceled:                 ErrCanceled,
	KindUnexpected:               ErrUnexpected,
}

// Error is the single error type returned by the core packages.
//
// Path is always the caller-supplied path, never the resolved host path, so
// rendering an Error cannot leak filesystem layout outside the workspace.
// Detail is a caller-safe explanation; Err is the underlying cause and is
// only rendered for kinds where it carries no host information.
type Error struct {
	Kind   Kind
	Op     string
	Path   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Detail
	if msg == "" {
		msg = sentinels[e.Kind].Error()
	}
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for e.Kind, so errors.Is(err, ErrNotFound) works
// regardless of the wrapped cause.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// New builds an *Error with a caller-safe detail message.
func New(kind Kind, op, path, detail string) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Detail: detail}
}

// Wrap builds an *Error around cause.
func Wrap(kind Kind, op, path string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: cause}
}

// Rejected is the uniform "not permitted" failure. It deliberately carries no
// reason: callers learn that the path or command is outside policy, not why.
func Rejected(op, path string) *Error {
	return &Error{Kind: KindPolicyRejected, Op: op, Path: path}
}

// KindOf reports the Kind of err, KindUnexpected for foreign errors and ""
// for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnexpected
}

// Message renders err for an external caller. Unexpected errors collapse to a
// generic message; their detail belongs in the diagnostic log only.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var fe *Error
	if !errors.As(err, &fe) || fe.Kind == KindUnexpected {
		if fe != nil && fe.Op != "" {
			return fe.Op + ": " + ErrUnexpected.Error()
		}
		return ErrUnexpected.Error()
	}
	return fe.Error()
}
